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
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gosos/pkg/device"
	"github.com/lassandro/gosos/pkg/program"
)

func parseProgram(t *testing.T, name, source string) *program.Program {
	t.Helper()

	prog, err := program.Parse(name, strings.NewReader(source))
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}

	return prog
}

// A process prints a number and exits; the machine halts once the process
// table drains.
func TestRunOutputAndExit(t *testing.T) {
	s := newTestSystem(t, 3000)

	prog := parseProgram(t, "hello", `
		SET r0 42
		PUSH r0
		SET r0 1
		PUSH r0
		TRAP        # OUTPUT 42
		SET r0 0
		PUSH r0
		TRAP        # EXIT
	`)

	if err := s.kernel.CreateProcess(prog, prog.Size()*2); err != nil {
		t.Fatal(err)
	}

	if status := s.cpu.Run(); status != ERROR_NO_PROCESSES {
		t.Fatalf("status mismatch\nwant:%d\nhave:%d", ERROR_NO_PROCESSES, status)
	}

	if got := s.console.String(); got != "OUTPUT: 42\n" {
		t.Errorf("console mismatch\nwant:%q\nhave:%q", "OUTPUT: 42\n", got)
	}
}

// A write against a device the process never opened fails with the
// not-open error, which the program pops and prints.
func TestRunWriteWithoutOpen(t *testing.T) {
	s := newTestSystem(t, 3000)

	var rendered bytes.Buffer
	console := device.NewConsole(s.ic, &rendered, 2)
	if err := s.kernel.RegisterDevice(console, 1); err != nil {
		t.Fatal(err)
	}
	s.cpu.Peripherals = append(s.cpu.Peripherals, console)

	prog := parseProgram(t, "badwrite", `
		SET r0 1
		PUSH r0     # devId
		SET r0 0
		PUSH r0     # addr
		SET r0 9
		PUSH r0     # data
		SET r0 6
		PUSH r0     # WRITE
		TRAP
		POP r4
		PUSH r4
		SET r0 1
		PUSH r0     # OUTPUT
		TRAP
		SET r0 0
		PUSH r0
		TRAP        # EXIT
	`)

	if err := s.kernel.CreateProcess(prog, prog.Size()*2); err != nil {
		t.Fatal(err)
	}

	if status := s.cpu.Run(); status != ERROR_NO_PROCESSES {
		t.Fatalf("status mismatch\nwant:%d\nhave:%d", ERROR_NO_PROCESSES, status)
	}

	if got := s.console.String(); got != "OUTPUT: -5\n" {
		t.Errorf("console mismatch\nwant:%q\nhave:%q", "OUTPUT: -5\n", got)
	}

	if rendered.Len() != 0 {
		t.Errorf("device must not render anything: %q", rendered.String())
	}
}

// A full blocking write: open the console, write a word, wait for the
// completion interrupt, then pop the success code and print it.
func TestRunBlockingWrite(t *testing.T) {
	s := newTestSystem(t, 3000)

	var rendered bytes.Buffer
	console := device.NewConsole(s.ic, &rendered, 3)
	if err := s.kernel.RegisterDevice(console, 1); err != nil {
		t.Fatal(err)
	}
	s.cpu.Peripherals = append(s.cpu.Peripherals, console)

	prog := parseProgram(t, "write", `
		SET r0 1
		PUSH r0     # devId
		SET r0 3
		PUSH r0     # OPEN
		TRAP
		POP r4      # SUCCESS
		SET r0 1
		PUSH r0     # devId
		SET r0 0
		PUSH r0     # addr
		SET r0 99
		PUSH r0     # data
		SET r0 6
		PUSH r0     # WRITE
		TRAP        # blocks until the write completes
		POP r4
		PUSH r4
		SET r0 1
		PUSH r0     # OUTPUT
		TRAP        # prints the completion code
		SET r0 0
		PUSH r0
		TRAP        # EXIT
	`)

	if err := s.kernel.CreateProcess(prog, prog.Size()*2); err != nil {
		t.Fatal(err)
	}

	if status := s.cpu.Run(); status != ERROR_NO_PROCESSES {
		t.Fatalf("status mismatch\nwant:%d\nhave:%d", ERROR_NO_PROCESSES, status)
	}

	if got := rendered.String(); got != "99\n" {
		t.Errorf("device output mismatch\nwant:%q\nhave:%q", "99\n", got)
	}

	if got := s.console.String(); got != "OUTPUT: 0\n" {
		t.Errorf("console mismatch\nwant:%q\nhave:%q", "OUTPUT: 0\n", got)
	}
}

// A division by zero is fatal for the process.
func TestRunDivideByZeroKillsProcess(t *testing.T) {
	s := newTestSystem(t, 3000)

	prog := parseProgram(t, "div0", `
		SET r0 5
		SET r1 0
		DIV r2 r0 r1
		SET r0 0
		PUSH r0
		TRAP
	`)

	if err := s.kernel.CreateProcess(prog, prog.Size()*2); err != nil {
		t.Fatal(err)
	}

	if status := s.cpu.Run(); status != ERROR_NO_PROCESSES {
		t.Fatalf("status mismatch\nwant:%d\nhave:%d", ERROR_NO_PROCESSES, status)
	}

	if len(s.kernel.processes) != 0 {
		t.Error("faulting process should be removed")
	}
}
