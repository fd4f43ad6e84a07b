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
	"sort"

	"github.com/lassandro/gosos/pkg/machine"
)

// MemBlock describes one free region of RAM.
type MemBlock struct {
	Addr int
	Size int
}

// allocBlock finds space for a region of the given size using best fit:
// the smallest free block strictly larger than the request wins, ties
// going to the lowest address. When no single block fits but the total
// free space suffices, allocated regions are compacted downward and the
// request is placed in the resulting tail. Returns -1 when the request
// cannot be met at all.
func (k *Kernel) allocBlock(size int) int {
	total := 0
	best := -1

	for i, mb := range k.freeList {
		total += mb.Size

		if mb.Size <= size {
			continue
		}

		if best == -1 || mb.Size < k.freeList[best].Size ||
			(mb.Size == k.freeList[best].Size &&
				mb.Addr < k.freeList[best].Addr) {
			best = i
		}
	}

	if best == -1 {
		if total < size {
			return -1
		}

		base := k.compactAllocBlocks()

		k.freeList = k.freeList[:0]
		if rest := k.ram.Size() - (base + size); rest > 0 {
			k.freeList = append(
				k.freeList, MemBlock{Addr: base + size, Size: rest},
			)
		}

		return base
	}

	mb := k.freeList[best]
	k.freeList = append(k.freeList[:best], k.freeList[best+1:]...)

	// The residual begins right after the placed region; no gap.
	if rest := (MemBlock{Addr: mb.Addr + size, Size: mb.Size - size}); rest.Size > 0 {
		k.freeList = append(k.freeList, rest)
	}

	return mb.Addr
}

// freeBlock returns [addr, addr+size) to the free list and merges the
// result with any free neighbor it now touches.
func (k *Kernel) freeBlock(addr, size int) {
	k.freeList = append(k.freeList, MemBlock{Addr: addr, Size: size})

	sort.Slice(k.freeList, func(i, j int) bool {
		return k.freeList[i].Addr < k.freeList[j].Addr
	})

	merged := k.freeList[:1]
	for _, mb := range k.freeList[1:] {
		last := &merged[len(merged)-1]

		if last.Addr+last.Size == mb.Addr {
			last.Size += mb.Size
		} else {
			merged = append(merged, mb)
		}
	}

	k.freeList = merged
}

// compactAllocBlocks slides every process window down so that allocated
// regions occupy RAM contiguously from address zero, in ascending BASE
// order. Returns the first address past the relocated regions.
func (k *Kernel) compactAllocBlocks() int {
	sort.Slice(k.processes, func(i, j int) bool {
		return k.processes[i].registers[machine.BASE] <
			k.processes[j].registers[machine.BASE]
	})

	next := 0
	for _, p := range k.processes {
		if p.registers[machine.BASE] != next {
			k.moveProcess(p, next)
		}

		next += p.registers[machine.LIM]
	}

	return next
}

// moveProcess relocates a process window to newBase, copying its RAM image
// and sliding BASE, PC and SP by the same offset. LIM is a length and does
// not change. If the process owns the CPU the live registers move with it.
func (k *Kernel) moveProcess(p *PCB, newBase int) {
	oldBase := p.registers[machine.BASE]
	size := p.registers[machine.LIM]

	if newBase == oldBase {
		return
	}

	if newBase < oldBase {
		for i := 0; i < size; i++ {
			k.ram.Write(newBase+i, k.ram.Read(oldBase+i))
		}
	} else {
		for i := size - 1; i >= 0; i-- {
			k.ram.Write(newBase+i, k.ram.Read(oldBase+i))
		}
	}

	delta := newBase - oldBase
	p.registers[machine.BASE] += delta
	p.registers[machine.PC] += delta
	p.registers[machine.SP] += delta

	if p == k.current {
		regs := k.cpu.Registers()
		regs[machine.BASE] += delta
		regs[machine.PC] += delta
		regs[machine.SP] += delta
	}

	k.log.Debugf("process %d moved from %d to %d", p.pid, oldBase, newBase)
}

// printMemAlloc logs the free list and process windows in address order.
// Useful for tracking down relocation errors.
func (k *Kernel) printMemAlloc() {
	blocks := make([]MemBlock, len(k.freeList))
	copy(blocks, k.freeList)

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Addr < blocks[j].Addr
	})

	k.log.Debug("memory allocation table:")

	procs := make([]*PCB, len(k.processes))
	copy(procs, k.processes)

	sort.Slice(procs, func(i, j int) bool {
		return procs[i].registers[machine.BASE] <
			procs[j].registers[machine.BASE]
	})

	pi, bi := 0, 0
	for pi < len(procs) || bi < len(blocks) {
		switch {
		case bi >= len(blocks) ||
			(pi < len(procs) &&
				procs[pi].registers[machine.BASE] < blocks[bi].Addr):
			p := procs[pi]
			k.log.Debugf(
				"  process %d addr=%d size=%d SP=%d",
				p.pid, p.registers[machine.BASE],
				p.registers[machine.LIM], p.registers[machine.SP],
			)
			pi++
		default:
			k.log.Debugf(
				"  open addr=%d size=%d", blocks[bi].Addr, blocks[bi].Size,
			)
			bi++
		}
	}
}
