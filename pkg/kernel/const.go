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

// System calls handled by the kernel. User code pushes the arguments, then
// the opcode, then executes TRAP.
const (
	SYSCALL_EXIT     = 0 // exit the current process
	SYSCALL_OUTPUT   = 1 // print a number to the console
	SYSCALL_GETPID   = 2 // get current process id
	SYSCALL_OPEN     = 3 // access a device
	SYSCALL_CLOSE    = 4 // release a device
	SYSCALL_READ     = 5 // get input from a device
	SYSCALL_WRITE    = 6 // send output to a device
	SYSCALL_EXEC     = 7 // spawn a new process
	SYSCALL_YIELD    = 8 // yield the CPU to another process
	SYSCALL_COREDUMP = 9 // print process state and exit
)

// SUCCESS is pushed as the result word of a syscall that worked.
const SUCCESS = 0

// Error codes returned as syscall result words.
const (
	ERROR_DEVICE_EXISTENCE     = -2
	ERROR_DEVICE_NOT_USABLE    = -3
	ERROR_DEVICE_OPEN          = -4
	ERROR_DEVICE_NOT_OPEN      = -5
	ERROR_DEVICE_NOT_READABLE  = -6
	ERROR_DEVICE_NOT_WRITEABLE = -7
	ERROR_NO_PROCESSES         = -8
	ERROR_NEED_MORE_SPACE      = -9
)

// IDLE_PID is the reserved process id of the synthetic idle process.
const IDLE_PID = 999

// FIRST_PID is the id given to the first loaded process; later processes
// count up from there.
const FIRST_PID = 1001

// SAVE_LOAD_TIME is the context switch penalty in CPU cycles, charged once
// per register save and once per restore.
const SAVE_LOAD_TIME = 30
