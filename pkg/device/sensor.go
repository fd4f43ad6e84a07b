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

import "github.com/lassandro/gosos/pkg/machine"

// Sensor is a sharable read-only device: any number of processes may hold
// it open. Each read samples the source function. One operation is in
// flight at a time.
type Sensor struct {
	id      int
	ic      *machine.InterruptController
	source  func(addr int) int
	latency int

	pending bool
	left    int
	addr    int
}

// NewSensor builds a sensor sampling source, which defaults to a counter
// when nil.
func NewSensor(ic *machine.InterruptController, source func(addr int) int, latency int) *Sensor {
	if source == nil {
		n := 0
		source = func(int) int {
			n++
			return n
		}
	}

	return &Sensor{ic: ic, source: source, latency: latency}
}

func (d *Sensor) ID() int         { return d.id }
func (d *Sensor) SetID(id int)    { d.id = id }
func (d *Sensor) Sharable() bool  { return true }
func (d *Sensor) Readable() bool  { return true }
func (d *Sensor) Writeable() bool { return false }

func (d *Sensor) Available() bool {
	return !d.pending
}

func (d *Sensor) Read(addr int) {
	d.pending = true
	d.left = d.latency
	d.addr = addr
}

func (d *Sensor) Write(addr, data int) {
	// Not writeable; the kernel checks before calling.
}

func (d *Sensor) Tick() {
	if !d.pending {
		return
	}

	if d.left > 0 {
		d.left--
		return
	}

	d.pending = false
	d.ic.Post(machine.Interrupt{
		Kind: machine.INT_READ_DONE,
		Dev:  d.id,
		Addr: d.addr,
		Data: d.source(d.addr),
	})
}
