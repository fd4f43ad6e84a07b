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

package program

import "fmt"

// Program is a loadable image plus the metadata the loader uses to pick
// and place it.
type Program struct {
	Name string

	words     []int
	allocSize int
	callCount int
}

// New wraps an already-assembled word image. allocSize of zero asks the
// loader to derive the address space size from the image size.
func New(name string, words []int, allocSize int) *Program {
	return &Program{Name: name, words: append([]int(nil), words...), allocSize: allocSize}
}

// Export returns a copy of the image words.
func (p *Program) Export() []int {
	return append([]int(nil), p.words...)
}

// Size is the image length in words.
func (p *Program) Size() int {
	return len(p.words)
}

// AllocSize is the preferred address space size, or zero when the loader
// should choose.
func (p *Program) AllocSize() int {
	return p.allocSize
}

func (p *Program) SetAllocSize(n int) {
	p.allocSize = n
}

// Called records one EXEC selection of this program.
func (p *Program) Called() {
	p.callCount++
}

func (p *Program) CallCount() int {
	return p.callCount
}

// SyntaxError reports a malformed line of program source.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
