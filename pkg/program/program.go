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

// Package program parses the pidgin assembly that user programs are
// written in: one instruction per line, register operands r0..r4, integer
// literals, branch targets as word offsets from the program base.
package program

import (
	"bufio"
	"io"
	"strings"

	"github.com/lassandro/gosos/pkg/encoding"
	"github.com/lassandro/gosos/pkg/machine"
)

type operand int

const (
	opReg operand = iota
	opInt
)

var mnemonics = map[string]struct {
	opcode   int
	operands []operand
}{
	"SET":    {machine.OP_SET, []operand{opReg, opInt}},
	"ADD":    {machine.OP_ADD, []operand{opReg, opReg, opReg}},
	"SUB":    {machine.OP_SUB, []operand{opReg, opReg, opReg}},
	"MUL":    {machine.OP_MUL, []operand{opReg, opReg, opReg}},
	"DIV":    {machine.OP_DIV, []operand{opReg, opReg, opReg}},
	"COPY":   {machine.OP_COPY, []operand{opReg, opReg}},
	"BRANCH": {machine.OP_BRANCH, []operand{opInt}},
	"BNE":    {machine.OP_BNE, []operand{opReg, opReg, opInt}},
	"BLT":    {machine.OP_BLT, []operand{opReg, opReg, opInt}},
	"POP":    {machine.OP_POP, []operand{opReg}},
	"PUSH":   {machine.OP_PUSH, []operand{opReg}},
	"LOAD":   {machine.OP_LOAD, []operand{opReg, opReg}},
	"SAVE":   {machine.OP_SAVE, []operand{opReg, opReg}},
	"TRAP":   {machine.OP_TRAP, nil},
}

// Parse assembles program source into an image. Blank lines and `#` or
// `//` comments are skipped, except that a `#` directly before a digit is
// the prefix of a literal such as `#12`; every instruction is padded to
// INSTRSIZE words.
func Parse(name string, r io.Reader) (*Program, error) {
	var words []int

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := scanner.Text()

		for i := 0; i < len(text); i++ {
			if text[i] != '#' {
				continue
			}

			// A '#' directly followed by a digit is a literal prefix.
			if i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
				continue
			}

			text = text[:i]
			break
		}
		if i := strings.Index(text, "//"); i != -1 {
			text = text[:i]
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		entry, ok := mnemonics[strings.ToUpper(fields[0])]
		if !ok {
			return nil, &SyntaxError{line, "unknown instruction " + fields[0]}
		}

		if len(fields)-1 != len(entry.operands) {
			return nil, &SyntaxError{
				line, "wrong operand count for " + fields[0],
			}
		}

		instr := [machine.INSTRSIZE]int{entry.opcode}

		for i, kind := range entry.operands {
			var v int
			var err error

			switch kind {
			case opReg:
				v, err = encoding.DecodeRegister(fields[i+1])
			case opInt:
				v, err = encoding.DecodeInt(fields[i+1])
			}

			if err != nil {
				return nil, &SyntaxError{
					line, "bad operand " + fields[i+1],
				}
			}

			instr[i+1] = v
		}

		words = append(words, instr[:]...)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return New(name, words, 0), nil
}
