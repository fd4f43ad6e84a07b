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

// Package kernel implements the simulated operating system: process
// lifecycle, trap and syscall dispatch, device blocking with interrupt
// driven completion, preemption on clock ticks, and dynamic RAM allocation
// with best-fit placement and compaction.
//
// Realistically the kernel would run on the same processor it manages, but
// running it host-side keeps the focus on operating system design. All of
// its work happens synchronously inside the machine.TrapHandler callbacks;
// there is no concurrency to reason about.
package kernel

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/gosos/pkg/machine"
	"github.com/lassandro/gosos/pkg/program"
)

// Kernel is the simulated operating system. It owns the process table, the
// free list, the device registry and the program catalog, and it implements
// machine.TrapHandler.
type Kernel struct {
	cpu *machine.CPU
	ram *machine.RAM

	current   *PCB
	processes []*PCB
	nextPID   int

	devices  []*DeviceInfo
	programs []*program.Program
	freeList []MemBlock

	policy  Policy
	rand    *rand.Rand
	console io.Writer

	log logrus.FieldLogger
}

// New builds a kernel managing the given CPU and RAM and installs it as
// the CPU's trap handler. The whole of RAM starts out free.
func New(cpu *machine.CPU, ram *machine.RAM, log logrus.FieldLogger) *Kernel {
	k := &Kernel{
		cpu:     cpu,
		ram:     ram,
		nextPID: FIRST_PID,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		console: os.Stdout,
		log:     log,
	}

	k.freeList = []MemBlock{{Addr: 0, Size: ram.Size()}}
	cpu.RegisterTrapHandler(k)

	return k
}

// SetConsole redirects OUTPUT and COREDUMP text, which goes to stdout by
// default.
func (k *Kernel) SetConsole(w io.Writer) {
	k.console = w
}

// SetRand replaces the randomness source used by EXEC and the random
// scheduling policy.
func (k *Kernel) SetRand(r *rand.Rand) {
	k.rand = r
}

func (k *Kernel) SetPolicy(p Policy) {
	k.policy = p
}

// Current returns the PCB that owns the CPU, or nil before boot.
func (k *Kernel) Current() *PCB {
	return k.current
}

// removeCurrentProcess drops the running process from the table, returns
// its window to the free list, and sweeps it out of every device opener
// set. A non-sharable device it still held is handed to the next waiter.
func (k *Kernel) removeCurrentProcess() {
	p := k.current

	k.freeBlock(p.registers[machine.BASE], p.registers[machine.LIM])

	for i, q := range k.processes {
		if q == p {
			k.processes = append(k.processes[:i], k.processes[i+1:]...)
			break
		}
	}

	for _, di := range k.devices {
		if di.openers[p.pid] {
			delete(di.openers, p.pid)

			if di.unused() {
				k.wakeOpenWaiter(di)
			}
		}
	}

	k.log.Debugf("process %d removed", p.pid)
}

// pushToProcess pushes a word onto the saved stack of a process that is
// not running. The PCB's SP and BASE were saved when the process blocked,
// so the saved SP is the authoritative top of its stack.
func (k *Kernel) pushToProcess(p *PCB, v int) {
	p.registers[machine.SP]++
	k.ram.Write(p.registers[machine.SP], v)
}

// printProcessTable logs every PCB in the table.
func (k *Kernel) printProcessTable() {
	k.log.Debugf("process table (%d processes):", len(k.processes))
	for _, p := range k.processes {
		k.log.Debugf("  %s", p)
	}
}

// SystemCall dispatches a TRAP. The syscall opcode is on top of the
// caller's stack; each handler pops its documented arguments and pushes a
// result word, unless it defers the result to an I/O completion.
func (k *Kernel) SystemCall() {
	switch op := k.cpu.Pop(); op {
	case SYSCALL_EXIT:
		k.syscallExit()
	case SYSCALL_OUTPUT:
		k.syscallOutput()
	case SYSCALL_GETPID:
		k.syscallGetPID()
	case SYSCALL_OPEN:
		k.syscallOpen()
	case SYSCALL_CLOSE:
		k.syscallClose()
	case SYSCALL_READ:
		k.syscallRead()
	case SYSCALL_WRITE:
		k.syscallWrite()
	case SYSCALL_EXEC:
		k.syscallExec()
	case SYSCALL_YIELD:
		k.syscallYield()
	case SYSCALL_COREDUMP:
		k.syscallCoredump()
	default:
		k.log.Errorf("process %d made unknown syscall %d", k.current.pid, op)
		k.syscallExit()
	}
}

func (k *Kernel) syscallExit() {
	k.removeCurrentProcess()
	k.scheduleNewProcess()
}

func (k *Kernel) syscallOutput() {
	fmt.Fprintf(k.console, "OUTPUT: %d\n", k.cpu.Pop())
}

func (k *Kernel) syscallGetPID() {
	k.cpu.Push(k.current.pid)
}

// syscallOpen grants the caller access to a device. Opening a non-sharable
// device someone else holds parks the caller until the holder closes it;
// the success word is pushed now and observed when the caller wakes.
func (k *Kernel) syscallOpen() {
	id := k.cpu.Pop()

	di := k.findDevice(id)
	if di == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	if di.openers[k.current.pid] {
		k.cpu.Push(ERROR_DEVICE_OPEN)
		return
	}

	if di.unused() || di.driver.Sharable() {
		di.openers[k.current.pid] = true
		k.cpu.Push(SUCCESS)
		return
	}

	k.current.block(di.id, SYSCALL_OPEN, 0)
	k.cpu.Push(SUCCESS)
	k.scheduleNewProcess()
}

func (k *Kernel) syscallClose() {
	id := k.cpu.Pop()

	di := k.findDevice(id)
	if di == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	if !di.openers[k.current.pid] {
		k.cpu.Push(ERROR_DEVICE_NOT_OPEN)
		return
	}

	delete(di.openers, k.current.pid)
	k.wakeOpenWaiter(di)

	k.cpu.Push(SUCCESS)
}

// syscallRead starts a device read and blocks the caller until the
// completion interrupt delivers the data. A busy device restages the whole
// call instead: the arguments and opcode go back on the stack and PC
// rewinds so the TRAP re-executes when the caller next runs.
func (k *Kernel) syscallRead() {
	addr := k.cpu.Pop()
	id := k.cpu.Pop()

	di := k.findDevice(id)
	if di == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	if !di.openers[k.current.pid] {
		k.cpu.Push(ERROR_DEVICE_NOT_OPEN)
		return
	}

	if !di.driver.Readable() {
		k.cpu.Push(ERROR_DEVICE_NOT_READABLE)
		return
	}

	if di.driver.Available() {
		di.driver.Read(addr)
		k.current.block(di.id, SYSCALL_READ, addr)
	} else {
		k.cpu.Push(id)
		k.cpu.Push(addr)
		k.cpu.Push(SYSCALL_READ)
		k.cpu.SetPC(k.cpu.PC() - machine.INSTRSIZE)
	}

	k.scheduleNewProcess()
}

func (k *Kernel) syscallWrite() {
	data := k.cpu.Pop()
	addr := k.cpu.Pop()
	id := k.cpu.Pop()

	di := k.findDevice(id)
	if di == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	if !di.openers[k.current.pid] {
		k.cpu.Push(ERROR_DEVICE_NOT_OPEN)
		return
	}

	if !di.driver.Writeable() {
		k.cpu.Push(ERROR_DEVICE_NOT_WRITEABLE)
		return
	}

	if di.driver.Available() {
		di.driver.Write(addr, data)
		k.current.block(di.id, SYSCALL_WRITE, addr)
	} else {
		k.cpu.Push(id)
		k.cpu.Push(addr)
		k.cpu.Push(data)
		k.cpu.Push(SYSCALL_WRITE)
		k.cpu.SetPC(k.cpu.PC() - machine.INSTRSIZE)
	}

	k.scheduleNewProcess()
}

func (k *Kernel) syscallYield() {
	k.scheduleNewProcess()
}

// syscallCoredump dumps the register file, prints the top three stack
// values, and exits the caller.
func (k *Kernel) syscallCoredump() {
	fmt.Fprintln(k.console, k.cpu.RegDump())

	for i := 0; i < 3; i++ {
		fmt.Fprintf(k.console, "OUTPUT: %d\n", k.cpu.Pop())
	}

	k.syscallExit()
}

// IllegalMemoryAccess handles an out-of-window access: fatal for the
// offending process.
func (k *Kernel) IllegalMemoryAccess(addr int) {
	k.log.Errorf(
		"process %d: illegal memory access at %d", k.current.pid, addr,
	)
	k.syscallExit()
}

func (k *Kernel) DivideByZero() {
	k.log.Errorf("process %d: divide by zero", k.current.pid)
	k.syscallExit()
}

func (k *Kernel) IllegalInstruction(instr [machine.INSTRSIZE]int) {
	k.log.Errorf(
		"process %d: illegal instruction %v", k.current.pid, instr,
	)
	k.syscallExit()
}

// Clock runs the scheduler on every clock interrupt, which preempts the
// running process unless it is selected again.
func (k *Kernel) Clock() {
	k.scheduleNewProcess()
}

// IOReadComplete finds the process blocked on this exact read, pushes the
// data and a success word onto its saved stack (data below, success on
// top), and readies it.
func (k *Kernel) IOReadComplete(devID, addr, data int) {
	if k.findDevice(devID) == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	waiter := k.selectBlockedProcess(devID, SYSCALL_READ, addr)
	if waiter == nil {
		k.log.Warnf(
			"read completion with no waiter: dev=%d addr=%d", devID, addr,
		)
		return
	}

	waiter.unblock(k.cpu.Ticks())
	k.pushToProcess(waiter, data)
	k.pushToProcess(waiter, SUCCESS)
}

// IOWriteComplete readies the process blocked on this exact write and
// pushes a success word onto its saved stack.
func (k *Kernel) IOWriteComplete(devID, addr int) {
	if k.findDevice(devID) == nil {
		k.cpu.Push(ERROR_DEVICE_EXISTENCE)
		return
	}

	waiter := k.selectBlockedProcess(devID, SYSCALL_WRITE, addr)
	if waiter == nil {
		k.log.Warnf(
			"write completion with no waiter: dev=%d addr=%d", devID, addr,
		)
		return
	}

	waiter.unblock(k.cpu.Ticks())
	k.pushToProcess(waiter, SUCCESS)
}
