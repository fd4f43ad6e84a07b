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

import (
	"github.com/sirupsen/logrus"
)

// TrapHandler is the capability set an operating system registers with the
// CPU. On real hardware these would be vectored entry points; here the CPU
// invokes the handler synchronously and the handler runs to completion
// before the next instruction executes.
type TrapHandler interface {
	IllegalMemoryAccess(addr int)
	DivideByZero()
	IllegalInstruction(instr [INSTRSIZE]int)
	SystemCall()
	IOReadComplete(devID int, addr int, data int)
	IOWriteComplete(devID int, addr int)
	Clock()
}

// Ticker is a peripheral advanced once per executed instruction. Device
// drivers implement it to model operation latency.
type Ticker interface {
	Tick()
}

// Tracer observes the CPU for debugging front ends.
type Tracer interface {
	Step(c *CPU)
}

// Interrupt is one completion event travelling from a device driver to the
// CPU. Addr and Data are meaningful per Kind.
type Interrupt struct {
	Kind int
	Dev  int
	Addr int
	Data int
}

// CPU simulates the processor chip: a register file, a fetch/execute loop,
// and the trap/interrupt plumbing that hands control to the operating
// system.
type CPU struct {
	registers [NUMREG]int

	ram *RAM
	ic  *InterruptController
	th  TrapHandler

	// Peripherals are advanced once per executed instruction.
	Peripherals []Ticker

	// Tracer, when non-nil, is notified after every instruction.
	Tracer Tracer

	ticks  int
	halted bool
	status int

	log logrus.FieldLogger
}

func NewCPU(ram *RAM, ic *InterruptController, log logrus.FieldLogger) *CPU {
	return &CPU{ram: ram, ic: ic, log: log}
}
