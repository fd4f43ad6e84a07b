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

// Package device implements drivers behind the kernel's device capability
// interface. Operations take a configurable number of CPU cycles; when one
// finishes the driver posts a completion event on the interrupt
// controller, which is the only way results travel back to the kernel.
package device

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lassandro/gosos/pkg/machine"
)

// Console renders written words to an output stream, one per line. It is
// writeable, non-sharable, and busy for Latency cycles per operation.
type Console struct {
	id      int
	ic      *machine.InterruptController
	out     *bufio.Writer
	latency int

	pending bool
	left    int
	addr    int
	data    int
}

func NewConsole(ic *machine.InterruptController, w io.Writer, latency int) *Console {
	return &Console{ic: ic, out: bufio.NewWriter(w), latency: latency}
}

func (d *Console) ID() int         { return d.id }
func (d *Console) SetID(id int)    { d.id = id }
func (d *Console) Sharable() bool  { return false }
func (d *Console) Readable() bool  { return false }
func (d *Console) Writeable() bool { return true }

func (d *Console) Available() bool {
	return !d.pending
}

func (d *Console) Read(addr int) {
	// Not readable; the kernel checks before calling.
}

func (d *Console) Write(addr, data int) {
	d.pending = true
	d.left = d.latency
	d.addr = addr
	d.data = data
}

// Tick advances the in-flight operation by one CPU cycle.
func (d *Console) Tick() {
	if !d.pending {
		return
	}

	if d.left > 0 {
		d.left--
		return
	}

	fmt.Fprintf(d.out, "%d\n", d.data)
	d.out.Flush()

	d.pending = false
	d.ic.Post(machine.Interrupt{
		Kind: machine.INT_WRITE_DONE,
		Dev:  d.id,
		Addr: d.addr,
	})
}
