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

package device

import (
	"bufio"
	"io"

	"github.com/lassandro/gosos/pkg/machine"
)

// Keyboard delivers one byte per read as a word. It is readable,
// non-sharable, and stays busy until a byte actually arrives, so a read
// against an idle terminal completes only when a key is pressed.
type Keyboard struct {
	id      int
	ic      *machine.InterruptController
	in      *bufio.Reader
	latency int

	pending bool
	left    int
	addr    int
}

func NewKeyboard(ic *machine.InterruptController, r io.Reader, latency int) *Keyboard {
	return &Keyboard{ic: ic, in: bufio.NewReader(r), latency: latency}
}

func (d *Keyboard) ID() int         { return d.id }
func (d *Keyboard) SetID(id int)    { d.id = id }
func (d *Keyboard) Sharable() bool  { return false }
func (d *Keyboard) Readable() bool  { return true }
func (d *Keyboard) Writeable() bool { return false }

func (d *Keyboard) Available() bool {
	return !d.pending
}

func (d *Keyboard) Read(addr int) {
	d.pending = true
	d.left = d.latency
	d.addr = addr
}

func (d *Keyboard) Write(addr, data int) {
	// Not writeable; the kernel checks before calling.
}

// Tick advances the in-flight read. With the terminal in raw non-blocking
// mode ReadByte returns io.EOF until a key arrives; the read stays pending
// and retries next cycle.
func (d *Keyboard) Tick() {
	if !d.pending {
		return
	}

	if d.left > 0 {
		d.left--
		return
	}

	b, err := d.in.ReadByte()
	if err != nil {
		return
	}

	d.pending = false
	d.ic.Post(machine.Interrupt{
		Kind: machine.INT_READ_DONE,
		Dev:  d.id,
		Addr: d.addr,
		Data: int(b),
	})
}
