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
	"errors"

	"github.com/lassandro/gosos/pkg/machine"
	"github.com/lassandro/gosos/pkg/program"
)

var ErrNoSpace = errors.New("kernel: not enough free RAM")

// AddProgram registers a program image for EXEC to choose from. A process
// requesting EXEC does not get to pick which program runs; this is a
// simulation and the catalog decides.
func (k *Kernel) AddProgram(p *program.Program) {
	k.programs = append(k.programs, p)
}

// CreateProcess loads a program image into a freshly allocated window and
// makes the new process current. The previous process, if any, is saved
// first so a compaction triggered by the allocation always relocates
// consistent snapshots.
func (k *Kernel) CreateProcess(prog *program.Program, allocSize int) error {
	if k.current != nil && k.contains(k.current) {
		k.current.save(k.cpu)
	}

	base := k.allocBlock(allocSize)
	if base == -1 {
		return ErrNoSpace
	}

	words := prog.Export()
	for i, w := range words {
		k.ram.Write(base+i, w)
	}

	regs := k.cpu.Registers()
	*regs = [machine.NUMREG]int{}
	regs[machine.BASE] = base
	regs[machine.LIM] = allocSize
	regs[machine.PC] = base
	regs[machine.SP] = base + len(words) + 1

	p := newPCB(k.nextPID)
	k.nextPID++

	k.processes = append(k.processes, p)
	k.current = p
	p.save(k.cpu)

	k.log.Debugf(
		"loaded %q as process %d at %d (%d words)",
		prog.Name, p.pid, base, allocSize,
	)
	k.printMemAlloc()

	return nil
}

// syscallExec spawns a new process from a semi-randomly chosen catalog
// entry. The new process takes the CPU; the caller returns to the ready
// set and resumes at the instruction after its TRAP.
func (k *Kernel) syscallExec() {
	// Nothing registered means the harness is broken; there is no process
	// that could meaningfully continue.
	if len(k.programs) == 0 {
		k.log.Error("exec: no programs registered")
		k.cpu.Halt(-1)
		return
	}

	prog := k.programs[k.rand.Intn(len(k.programs))]
	prog.Called()

	allocSize := prog.AllocSize()
	if allocSize <= 0 {
		allocSize = prog.Size() * 2
	}

	if err := k.CreateProcess(prog, allocSize); err != nil {
		k.cpu.Push(ERROR_NEED_MORE_SPACE)
		return
	}

	// The CPU bumps PC after every instruction; rewind so the new process
	// starts exactly at its first instruction.
	k.cpu.SetPC(k.cpu.PC() - machine.INSTRSIZE)
}
