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

package machine

// RAM is the flat word storage attached to the CPU. It does no range
// checking of its own: the CPU checks user accesses against BASE/LIM and
// the kernel stays inside regions it has allocated.
type RAM struct {
	cells []int
}

func NewRAM(size int) *RAM {
	return &RAM{cells: make([]int, size)}
}

func (r *RAM) Size() int {
	return len(r.cells)
}

func (r *RAM) Read(addr int) int {
	return r.cells[addr]
}

func (r *RAM) Write(addr int, value int) {
	r.cells[addr] = value
}
