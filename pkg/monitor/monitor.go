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

// Package monitor traces the machine for the harness front end.
package monitor

import (
	"io"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/lassandro/gosos/pkg/machine"
)

// Monitor implements machine.Tracer. Every step logs the register file at
// debug level; Dump pretty-prints a machine snapshot to the monitor's
// output stream.
type Monitor struct {
	log     logrus.FieldLogger
	printer *pp.PrettyPrinter
	steps   int
}

// Snapshot is what Dump renders.
type Snapshot struct {
	Steps     int
	Ticks     int
	Registers [machine.NUMREG]int
	Halted    bool
}

func New(log logrus.FieldLogger, out io.Writer) *Monitor {
	printer := pp.New()
	printer.SetOutput(out)

	return &Monitor{log: log, printer: printer}
}

func (m *Monitor) Step(c *machine.CPU) {
	m.steps++
	m.log.Debugf("step %d: %s", m.steps, c.RegDump())
}

// Steps reports how many instructions the monitor has seen.
func (m *Monitor) Steps() int {
	return m.steps
}

// Dump pretty-prints the machine state.
func (m *Monitor) Dump(c *machine.CPU) {
	m.printer.Println(Snapshot{
		Steps:     m.steps,
		Ticks:     c.Ticks(),
		Registers: *c.Registers(),
		Halted:    c.Halted(),
	})
}
