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

package kernel

import (
	"fmt"
	"strings"

	"github.com/lassandro/gosos/pkg/machine"
)

// PCB holds the kernel's record of one process. The register snapshot is
// out of date while the process is running; every path that parks the
// process (preemption, yield, block) saves first, so a parked PCB is
// always consistent.
type PCB struct {
	pid int

	registers [machine.NUMREG]int

	// Block state. A process waits on at most one device operation,
	// identified by device id rather than by driver reference so the
	// registry never reaches a destroyed process. blockedDev is -1 when
	// the process is not blocked.
	blockedDev  int
	blockedOp   int
	blockedAddr int

	// Starvation and run time accounting, maintained by save/restore.
	lastReadyTime int
	numReady      int
	maxStarve     int
	avgStarve     float64
	totalRunTime  int
	lastStartTime int
	lastEndTime   int
}

func newPCB(pid int) *PCB {
	return &PCB{pid: pid, blockedDev: -1, blockedOp: -1, blockedAddr: -1}
}

func (p *PCB) PID() int {
	return p.pid
}

// Register reads one register from the saved snapshot.
func (p *PCB) Register(idx int) int {
	return p.registers[idx]
}

// save snapshots the live register file into the PCB and charges the
// context switch penalty. The process is treated as entering the Ready
// state; a block adjusts lastReadyTime later, in unblock.
func (p *PCB) save(c *machine.CPU) {
	p.lastEndTime = c.Ticks()
	c.AddTicks(SAVE_LOAD_TIME)

	p.registers = *c.Registers()

	p.numReady++
	p.lastReadyTime = c.Ticks()
	p.totalRunTime += p.lastEndTime - p.lastStartTime
}

// restore loads the snapshot back into the CPU and records how long the
// process starved in the Ready state.
func (p *PCB) restore(c *machine.CPU) {
	c.AddTicks(SAVE_LOAD_TIME)

	*c.Registers() = p.registers

	starve := c.Ticks() - p.lastReadyTime
	if starve > p.maxStarve {
		p.maxStarve = starve
	}

	n := float64(p.numReady)
	p.avgStarve = p.avgStarve*(n-1)/n + float64(starve)/n

	p.lastStartTime = c.Ticks()
}

// block marks the process as waiting for an operation on a device. The
// caller is responsible for scheduling a new process afterwards.
func (p *PCB) block(devID, op, addr int) {
	p.blockedDev = devID
	p.blockedOp = op
	p.blockedAddr = addr
}

// unblock moves the process from Blocked back to Ready.
func (p *PCB) unblock(now int) {
	p.blockedDev = -1
	p.blockedOp = -1
	p.blockedAddr = -1

	p.lastReadyTime = now
}

func (p *PCB) Blocked() bool {
	return p.blockedDev != -1
}

// blockedFor reports whether the process waits for the given device
// operation. The address only matters for reads and writes; a process
// waiting to open a device matches any address.
func (p *PCB) blockedFor(devID, op, addr int) bool {
	if p.blockedDev != devID || p.blockedOp != op {
		return false
	}

	return op == SYSCALL_OPEN || p.blockedAddr == addr
}

// avgRunTime is the mean run time per stay in the Ready state.
func (p *PCB) avgRunTime() int {
	if p.numReady == 0 {
		return 0
	}

	return p.totalRunTime / p.numReady
}

func (p *PCB) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "process %d ", p.pid)

	if p.Blocked() {
		if p.blockedOp == SYSCALL_OPEN {
			fmt.Fprintf(&b, "BLOCKED for OPEN on device %d: ", p.blockedDev)
		} else {
			fmt.Fprintf(
				&b,
				"BLOCKED for op %d @%d on device %d: ",
				p.blockedOp, p.blockedAddr, p.blockedDev,
			)
		}
	} else {
		b.WriteString("READY: ")
	}

	for i := 0; i < machine.NUMGENREG; i++ {
		fmt.Fprintf(&b, "r%d=%d ", i, p.registers[i])
	}

	fmt.Fprintf(
		&b,
		"PC=%d SP=%d BASE=%d LIM=%d maxStarve=%d avgStarve=%.1f",
		p.registers[machine.PC], p.registers[machine.SP],
		p.registers[machine.BASE], p.registers[machine.LIM],
		p.maxStarve, p.avgStarve,
	)

	return b.String()
}
