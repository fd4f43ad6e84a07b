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

package program_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lassandro/gosos/pkg/machine"
	"github.com/lassandro/gosos/pkg/program"
)

func TestParse(t *testing.T) {
	tests := []struct {
		Name   string
		Source string
		Words  []int
	}{
		{
			Name: "Empty Source",
		},
		{
			Name: "Comments And Blanks",
			Source: `
				# a comment
				// another comment

				SET r0 5   # trailing comment
			`,
			Words: []int{machine.OP_SET, 0, 5, 0},
		},
		{
			Name:   "Negative Literal",
			Source: "SET r1 -3",
			Words:  []int{machine.OP_SET, 1, -3, 0},
		},
		{
			Name:   "Hash Literal",
			Source: "SET r1 #12",
			Words:  []int{machine.OP_SET, 1, 12, 0},
		},
		{
			Name:   "Lowercase Mnemonic",
			Source: "push r4",
			Words:  []int{machine.OP_PUSH, 4, 0, 0},
		},
		{
			Name: "Every Instruction",
			Source: `
				SET r0 1
				ADD r2 r0 r1
				SUB r2 r0 r1
				MUL r2 r0 r1
				DIV r2 r0 r1
				COPY r3 r2
				BRANCH 0
				BNE r0 r1 0
				BLT r0 r1 0
				POP r0
				PUSH r0
				LOAD r0 r1
				SAVE r0 r1
				TRAP
			`,
			Words: []int{
				machine.OP_SET, 0, 1, 0,
				machine.OP_ADD, 2, 0, 1,
				machine.OP_SUB, 2, 0, 1,
				machine.OP_MUL, 2, 0, 1,
				machine.OP_DIV, 2, 0, 1,
				machine.OP_COPY, 3, 2, 0,
				machine.OP_BRANCH, 0, 0, 0,
				machine.OP_BNE, 0, 1, 0,
				machine.OP_BLT, 0, 1, 0,
				machine.OP_POP, 0, 0, 0,
				machine.OP_PUSH, 0, 0, 0,
				machine.OP_LOAD, 0, 1, 0,
				machine.OP_SAVE, 0, 1, 0,
				machine.OP_TRAP, 0, 0, 0,
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			prog, err := program.Parse(test.Name, strings.NewReader(test.Source))

			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			words := prog.Export()

			if len(words) != len(test.Words) {
				t.Fatalf(
					"image length mismatch\nwant:%d\nhave:%d",
					len(test.Words), len(words),
				)
			}

			for i, want := range test.Words {
				if words[i] != want {
					t.Errorf(
						"word %d mismatch\nwant:%d\nhave:%d", i, want, words[i],
					)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Name   string
		Source string
		Line   int
	}{
		{
			Name:   "Unknown Instruction",
			Source: "SET r0 1\nNOP",
			Line:   2,
		},
		{
			Name:   "Missing Operand",
			Source: "SET r0",
			Line:   1,
		},
		{
			Name:   "Extra Operand",
			Source: "TRAP r0",
			Line:   1,
		},
		{
			Name:   "Bad Register",
			Source: "PUSH r7",
			Line:   1,
		},
		{
			Name:   "Register Where Literal Expected",
			Source: "SET 5 r0",
			Line:   1,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			_, err := program.Parse(test.Name, strings.NewReader(test.Source))

			if err == nil {
				t.Fatal("expected a parse error")
			}

			var syntaxErr *program.SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected a SyntaxError, got %T", err)
			}

			if syntaxErr.Line != test.Line {
				t.Errorf(
					"line mismatch\nwant:%d\nhave:%d", test.Line, syntaxErr.Line,
				)
			}
		})
	}
}

func TestExportCopies(t *testing.T) {
	prog := program.New("p", []int{machine.OP_TRAP, 0, 0, 0}, 0)

	words := prog.Export()
	words[0] = 99

	if prog.Export()[0] != machine.OP_TRAP {
		t.Error("export must return a copy of the image")
	}
}

func TestCallCount(t *testing.T) {
	prog := program.New("p", []int{machine.OP_TRAP, 0, 0, 0}, 0)

	prog.Called()
	prog.Called()

	if prog.CallCount() != 2 {
		t.Errorf("call count mismatch\nwant:2\nhave:%d", prog.CallCount())
	}
}
