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
	"fmt"
	"strings"
)

// RegisterTrapHandler lets the operating system install itself as the
// receiver for traps, faults and interrupts.
func (c *CPU) RegisterTrapHandler(th TrapHandler) {
	c.th = th
}

func (c *CPU) PC() int     { return c.registers[PC] }
func (c *CPU) SP() int     { return c.registers[SP] }
func (c *CPU) Base() int   { return c.registers[BASE] }
func (c *CPU) Lim() int    { return c.registers[LIM] }
func (c *CPU) SetPC(v int) { c.registers[PC] = v }
func (c *CPU) SetSP(v int) { c.registers[SP] = v }

// Registers exposes the live register file. The kernel uses it to save and
// restore process contexts wholesale.
func (c *CPU) Registers() *[NUMREG]int {
	return &c.registers
}

// Ticks reports how many CPU cycles have elapsed in the simulation.
func (c *CPU) Ticks() int {
	return c.ticks
}

// AddTicks charges extra cycles to the clock, e.g. a context switch
// penalty.
func (c *CPU) AddTicks(n int) {
	c.ticks += n
}

// Halt stops the fetch/execute loop. Run returns status.
func (c *CPU) Halt(status int) {
	c.halted = true
	c.status = status
}

func (c *CPU) Halted() bool {
	return c.halted
}

// Pop reads the word at SP and moves SP down. The stack grows upward, so
// the top of stack is the highest occupied address.
func (c *CPU) Pop() int {
	v := c.ram.Read(c.registers[SP])
	c.registers[SP]--
	return v
}

// Push moves SP up and writes the word there.
func (c *CPU) Push(v int) {
	c.registers[SP]++
	c.ram.Write(c.registers[SP], v)
}

// checkAddr raises the illegal memory access interrupt when addr falls
// outside the window [BASE, BASE+LIM). The handler may switch processes,
// so callers must abandon the current instruction when this returns false.
func (c *CPU) checkAddr(addr int) bool {
	if addr < c.registers[BASE] ||
		addr >= c.registers[BASE]+c.registers[LIM] {
		c.th.IllegalMemoryAccess(addr)
		return false
	}

	return true
}

func (c *CPU) checkReg(idx int) bool {
	return idx >= 0 && idx < NUMREG
}

func (c *CPU) fetch() ([INSTRSIZE]int, bool) {
	var instr [INSTRSIZE]int

	if !c.checkAddr(c.registers[PC]) ||
		!c.checkAddr(c.registers[PC]+INSTRSIZE-1) {
		return instr, false
	}

	for i := 0; i < INSTRSIZE; i++ {
		instr[i] = c.ram.Read(c.registers[PC] + i)
	}

	return instr, true
}

func (c *CPU) execute(instr [INSTRSIZE]int) {
	switch instr[0] {
	case OP_SET:
		if !c.checkReg(instr[1]) {
			c.th.IllegalInstruction(instr)
			return
		}

		c.registers[instr[1]] = instr[2]

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV:
		if !c.checkReg(instr[1]) || !c.checkReg(instr[2]) ||
			!c.checkReg(instr[3]) {
			c.th.IllegalInstruction(instr)
			return
		}

		a, b := c.registers[instr[2]], c.registers[instr[3]]

		switch instr[0] {
		case OP_ADD:
			c.registers[instr[1]] = a + b
		case OP_SUB:
			c.registers[instr[1]] = a - b
		case OP_MUL:
			c.registers[instr[1]] = a * b
		case OP_DIV:
			if b == 0 {
				c.th.DivideByZero()
				return
			}
			c.registers[instr[1]] = a / b
		}

	case OP_COPY:
		if !c.checkReg(instr[1]) || !c.checkReg(instr[2]) {
			c.th.IllegalInstruction(instr)
			return
		}

		c.registers[instr[1]] = c.registers[instr[2]]

	case OP_BRANCH:
		target := instr[1] + c.registers[BASE]

		if !c.checkAddr(target) {
			return
		}

		// Compensate for the PC increment that follows every instruction.
		c.registers[PC] = target - INSTRSIZE

	case OP_BNE, OP_BLT:
		if !c.checkReg(instr[1]) || !c.checkReg(instr[2]) {
			c.th.IllegalInstruction(instr)
			return
		}

		target := instr[3] + c.registers[BASE]

		if !c.checkAddr(target) {
			return
		}

		a, b := c.registers[instr[1]], c.registers[instr[2]]

		if (instr[0] == OP_BNE && a != b) || (instr[0] == OP_BLT && a < b) {
			c.registers[PC] = target - INSTRSIZE
		}

	case OP_POP:
		if !c.checkReg(instr[1]) {
			c.th.IllegalInstruction(instr)
			return
		}

		if !c.checkAddr(c.registers[SP]) {
			return
		}

		c.registers[instr[1]] = c.Pop()

	case OP_PUSH:
		if !c.checkReg(instr[1]) {
			c.th.IllegalInstruction(instr)
			return
		}

		if !c.checkAddr(c.registers[SP]+1) {
			return
		}

		c.Push(c.registers[instr[1]])

	case OP_LOAD:
		if !c.checkReg(instr[1]) || !c.checkReg(instr[2]) {
			c.th.IllegalInstruction(instr)
			return
		}

		addr := c.registers[instr[2]] + c.registers[BASE]

		if !c.checkAddr(addr) {
			return
		}

		c.registers[instr[1]] = c.ram.Read(addr)

	case OP_SAVE:
		if !c.checkReg(instr[1]) || !c.checkReg(instr[2]) {
			c.th.IllegalInstruction(instr)
			return
		}

		addr := c.registers[instr[2]] + c.registers[BASE]

		if !c.checkAddr(addr) {
			return
		}

		c.ram.Write(addr, c.registers[instr[1]])

	case OP_TRAP:
		c.th.SystemCall()

	default:
		c.th.IllegalInstruction(instr)
	}
}

// Step executes one instruction: advance the peripherals, drain one pending
// device interrupt, fetch and execute, then bump the cycle counter, fire
// the clock interrupt on CLOCK_FREQ boundaries, and advance PC past the
// instruction. The PC increment is unconditional, matching the convention
// that a saved PC always points at the instruction that was executing.
func (c *CPU) Step() {
	for _, p := range c.Peripherals {
		p.Tick()
	}

	if intr, ok := c.ic.Poll(); ok {
		c.log.Debugf(
			"interrupt: kind=%d dev=%d addr=%d data=%d",
			intr.Kind, intr.Dev, intr.Addr, intr.Data,
		)

		switch intr.Kind {
		case INT_READ_DONE:
			c.th.IOReadComplete(intr.Dev, intr.Addr, intr.Data)
		case INT_WRITE_DONE:
			c.th.IOWriteComplete(intr.Dev, intr.Addr)
		}
	}

	if c.halted {
		return
	}

	if instr, ok := c.fetch(); ok {
		c.log.Debugf("%s | %s", c.RegDump(), InstrString(instr))
		c.execute(instr)
	}

	if c.halted {
		return
	}

	c.ticks++
	if c.ticks%CLOCK_FREQ == 0 {
		c.th.Clock()
	}

	if c.halted {
		return
	}

	c.registers[PC] += INSTRSIZE

	if c.Tracer != nil {
		c.Tracer.Step(c)
	}
}

// Run executes instructions until the operating system halts the machine,
// returning the status code passed to Halt.
func (c *CPU) Run() int {
	for !c.halted {
		c.Step()
	}

	return c.status
}

// RegDump renders the register file in a single line. Useful for
// debugging.
func (c *CPU) RegDump() string {
	var b strings.Builder

	for i := 0; i < NUMGENREG; i++ {
		fmt.Fprintf(&b, "r%d=%d ", i, c.registers[i])
	}

	fmt.Fprintf(
		&b,
		"PC=%d SP=%d BASE=%d LIM=%d",
		c.registers[PC], c.registers[SP], c.registers[BASE], c.registers[LIM],
	)

	return b.String()
}

// InstrString renders an instruction in a user readable format.
func InstrString(instr [INSTRSIZE]int) string {
	switch instr[0] {
	case OP_SET:
		return fmt.Sprintf("SET R%d = %d", instr[1], instr[2])
	case OP_ADD:
		return fmt.Sprintf("ADD R%d = R%d + R%d", instr[1], instr[2], instr[3])
	case OP_SUB:
		return fmt.Sprintf("SUB R%d = R%d - R%d", instr[1], instr[2], instr[3])
	case OP_MUL:
		return fmt.Sprintf("MUL R%d = R%d * R%d", instr[1], instr[2], instr[3])
	case OP_DIV:
		return fmt.Sprintf("DIV R%d = R%d / R%d", instr[1], instr[2], instr[3])
	case OP_COPY:
		return fmt.Sprintf("COPY R%d = R%d", instr[1], instr[2])
	case OP_BRANCH:
		return fmt.Sprintf("BRANCH @%d", instr[1])
	case OP_BNE:
		return fmt.Sprintf("BNE (R%d != R%d) @%d", instr[1], instr[2], instr[3])
	case OP_BLT:
		return fmt.Sprintf("BLT (R%d < R%d) @%d", instr[1], instr[2], instr[3])
	case OP_POP:
		return fmt.Sprintf("POP R%d", instr[1])
	case OP_PUSH:
		return fmt.Sprintf("PUSH R%d", instr[1])
	case OP_LOAD:
		return fmt.Sprintf("LOAD R%d <-- @R%d", instr[1], instr[2])
	case OP_SAVE:
		return fmt.Sprintf("SAVE R%d --> @R%d", instr[1], instr[2])
	case OP_TRAP:
		return "TRAP"
	}

	return "??"
}
