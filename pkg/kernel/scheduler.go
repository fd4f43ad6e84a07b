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

import "github.com/lassandro/gosos/pkg/machine"

// Policy selects the scheduling algorithm.
type Policy int

const (
	// PolicyStarvation prefers the ready process with the highest average
	// starve time, biased toward the current process by a context switch
	// penalty.
	PolicyStarvation Policy = iota

	// PolicyRandom picks any ready process with uniform probability.
	PolicyRandom
)

func (k *Kernel) contains(p *PCB) bool {
	for _, q := range k.processes {
		if q == p {
			return true
		}
	}

	return false
}

// selectBlockedProcess finds the first process in table order waiting for
// the given operation on the given device.
func (k *Kernel) selectBlockedProcess(devID, op, addr int) *PCB {
	for _, p := range k.processes {
		if p.blockedFor(devID, op, addr) {
			return p
		}
	}

	return nil
}

func (k *Kernel) overallAvgStarve() float64 {
	total, count := 0.0, 0

	for _, p := range k.processes {
		if p.avgStarve > 0 {
			total += p.avgStarve
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return total / float64(count)
}

func (k *Kernel) overallAvgRunTime() int {
	total, count := 0, 0

	for _, p := range k.processes {
		total += p.avgRunTime()
		count++
	}

	if count == 0 {
		return 0
	}

	return total / count
}

func (k *Kernel) avgLastReadyTime() int {
	total, count := 0, 0

	for _, p := range k.processes {
		total += p.lastReadyTime
		count++
	}

	if count == 0 {
		return 0
	}

	return total / count
}

// getNextProcess selects a ready process by starvation pressure. The
// current process starts as the candidate with a +100 bias so a context
// switch has to earn its cost; a challenger wins by starving at least as
// long as both the candidate and the fleet average, or by having become
// ready no earlier than the average ready time. Processes with above average run
// times break the remaining ties.
func (k *Kernel) getNextProcess() *PCB {
	var next *PCB

	longestAvgStarve := -1.0
	overallStarve := 0.0
	overallRun := k.overallAvgRunTime()
	avgReady := k.avgLastReadyTime()

	if k.current != nil && !k.current.Blocked() && k.contains(k.current) {
		next = k.current
		longestAvgStarve = k.current.avgStarve + 100
		overallStarve = k.overallAvgStarve()
	}

	for _, p := range k.processes {
		if p.Blocked() {
			continue
		}

		if (p.avgStarve >= longestAvgStarve && p.avgStarve >= overallStarve) ||
			p.lastReadyTime >= avgReady {
			longestAvgStarve = p.avgStarve
			next = p
		} else if p.avgRunTime() >= overallRun && p.avgStarve > longestAvgStarve {
			longestAvgStarve = p.avgStarve
			next = p
		}
	}

	return next
}

// getRandomProcess selects a non-blocked process at random from the
// process table, or nil if every process is blocked.
func (k *Kernel) getRandomProcess() *PCB {
	offset := k.rand.Intn(len(k.processes))

	for i := 0; i < len(k.processes); i++ {
		p := k.processes[(i+offset)%len(k.processes)]
		if !p.Blocked() {
			return p
		}
	}

	return nil
}

// scheduleNewProcess picks the next process to own the CPU. When every
// process is blocked it injects the idle process so device completions
// still get cycles to arrive on; with an empty process table it halts the
// machine.
func (k *Kernel) scheduleNewProcess() {
	if len(k.processes) == 0 {
		k.log.Debug("process table empty, halting")
		k.cpu.Halt(ERROR_NO_PROCESSES)
		return
	}

	k.printProcessTable()

	var next *PCB
	switch k.policy {
	case PolicyRandom:
		next = k.getRandomProcess()
	default:
		next = k.getNextProcess()
	}

	if next == nil {
		k.createIdleProcess()
		return
	}

	if next != k.current {
		if k.current != nil && k.contains(k.current) {
			k.current.save(k.cpu)
		}

		k.current = next
		k.current.restore(k.cpu)

		k.log.Debugf("switched to process %d", k.current.pid)
	}
}

// createIdleProcess injects a synthetic process that burns a few cycles
// and exits, buying time for device I/O to complete. The stub pushes its
// exit code into the already-executed prefix of its window, so 16 words
// hold both the code and its one-slot stack.
func (k *Kernel) createIdleProcess() {
	stub := [...]int{
		machine.OP_SET, 0, 0, 0,
		machine.OP_SET, 0, 0, 0,
		machine.OP_PUSH, 0, 0, 0,
		machine.OP_TRAP, 0, 0, 0,
	}

	if k.current != nil && k.contains(k.current) {
		k.current.save(k.cpu)
	}

	base := k.allocBlock(len(stub))
	if base == -1 {
		k.log.Warn("no room for the idle process")
		return
	}

	for i, w := range stub {
		k.ram.Write(base+i, w)
	}

	regs := k.cpu.Registers()
	*regs = [machine.NUMREG]int{}
	regs[machine.PC] = base
	regs[machine.SP] = base + 2
	regs[machine.BASE] = base
	regs[machine.LIM] = len(stub)

	idle := newPCB(IDLE_PID)
	idle.registers = *regs

	k.processes = append(k.processes, idle)
	k.current = idle

	k.log.Debug("injected idle process")
}
