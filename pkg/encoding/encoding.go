// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lassandro/gosos/pkg/machine"
)

// Decodes a base-10 literal in the formats: #123, 123, -5
func DecodeInt(s string) (int, error) {
	if strings.HasPrefix(s, "#") {
		s = s[1:]
	}

	result, err := strconv.Atoi(s)

	if err != nil {
		return 0, err
	}

	return result, nil
}

// Decodes a general purpose register name: r0..r4, case insensitive
func DecodeRegister(s string) (int, error) {
	if len(s) != 2 || (s[0] != 'r' && s[0] != 'R') {
		return 0, errors.New("Invalid register name")
	}

	idx := int(s[1] - '0')

	if idx < 0 || idx >= machine.NUMGENREG {
		return 0, errors.New("Invalid register name")
	}

	return idx, nil
}
