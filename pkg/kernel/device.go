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

import "errors"

// Device is the capability interface a driver exposes to the kernel. The
// kernel never looks inside a driver; read and write completion comes back
// through the interrupt controller.
type Device interface {
	ID() int
	SetID(id int)
	Sharable() bool
	Available() bool
	Readable() bool
	Writeable() bool
	Read(addr int)
	Write(addr int, data int)
}

var ErrDeviceExists = errors.New("kernel: device id already registered")

// DeviceInfo pairs a registered driver with the set of processes that have
// it open. Openers are tracked by pid, never by PCB reference, so the
// registry cannot reach a destroyed process.
type DeviceInfo struct {
	id      int
	driver  Device
	openers map[int]bool
}

func (di *DeviceInfo) unused() bool {
	return len(di.openers) == 0
}

// RegisterDevice adds a driver to the registry under a unique id.
func (k *Kernel) RegisterDevice(dev Device, id int) error {
	if k.findDevice(id) != nil {
		return ErrDeviceExists
	}

	dev.SetID(id)
	k.devices = append(
		k.devices,
		&DeviceInfo{id: id, driver: dev, openers: map[int]bool{}},
	)

	return nil
}

func (k *Kernel) findDevice(id int) *DeviceInfo {
	for _, di := range k.devices {
		if di.id == id {
			return di
		}
	}

	return nil
}

// wakeOpenWaiter hands a freed-up device to the first process waiting to
// open it, if any. The waiter becomes an opener immediately so the device
// is never observably unowned between the close and the wake.
func (k *Kernel) wakeOpenWaiter(di *DeviceInfo) {
	waiter := k.selectBlockedProcess(di.id, SYSCALL_OPEN, 0)
	if waiter == nil {
		return
	}

	di.openers[waiter.pid] = true
	waiter.unblock(k.cpu.Ticks())
}
