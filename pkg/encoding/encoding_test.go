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

package encoding_test

import (
	"testing"

	"github.com/lassandro/gosos/pkg/encoding"
)

func TestDecodeInt(t *testing.T) {
	tests := []struct {
		Input string
		Value int
		Fails bool
	}{
		{Input: "123", Value: 123},
		{Input: "#123", Value: 123},
		{Input: "-5", Value: -5},
		{Input: "0", Value: 0},
		{Input: "abc", Fails: true},
		{Input: "#", Fails: true},
		{Input: "", Fails: true},
	}

	for _, test := range tests {
		value, err := encoding.DecodeInt(test.Input)

		if test.Fails {
			if err == nil {
				t.Errorf("expected failure for %q", test.Input)
			}
			continue
		}

		if err != nil {
			t.Errorf("unexpected error for %q: %v", test.Input, err)
		} else if value != test.Value {
			t.Errorf(
				"value mismatch for %q\nwant:%d\nhave:%d",
				test.Input, test.Value, value,
			)
		}
	}
}

func TestDecodeRegister(t *testing.T) {
	tests := []struct {
		Input string
		Value int
		Fails bool
	}{
		{Input: "r0", Value: 0},
		{Input: "R4", Value: 4},
		{Input: "r5", Fails: true},
		{Input: "r", Fails: true},
		{Input: "x0", Fails: true},
		{Input: "r10", Fails: true},
	}

	for _, test := range tests {
		value, err := encoding.DecodeRegister(test.Input)

		if test.Fails {
			if err == nil {
				t.Errorf("expected failure for %q", test.Input)
			}
			continue
		}

		if err != nil {
			t.Errorf("unexpected error for %q: %v", test.Input, err)
		} else if value != test.Value {
			t.Errorf(
				"value mismatch for %q\nwant:%d\nhave:%d",
				test.Input, test.Value, value,
			)
		}
	}
}
