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

package device_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gosos/pkg/device"
	"github.com/lassandro/gosos/pkg/machine"
)

func TestConsoleWrite(t *testing.T) {
	ic := &machine.InterruptController{}
	var out bytes.Buffer

	con := device.NewConsole(ic, &out, 2)
	con.SetID(1)

	if !con.Available() || !con.Writeable() || con.Readable() || con.Sharable() {
		t.Fatal("console capability mismatch")
	}

	con.Write(5, 42)

	if con.Available() {
		t.Error("console should be busy during a write")
	}

	// Latency of two cycles, completion on the third.
	con.Tick()
	con.Tick()

	if !ic.Empty() {
		t.Fatal("completion posted early")
	}

	con.Tick()

	intr, ok := ic.Poll()
	if !ok {
		t.Fatal("no completion posted")
	}

	want := machine.Interrupt{Kind: machine.INT_WRITE_DONE, Dev: 1, Addr: 5}
	if intr != want {
		t.Errorf("interrupt mismatch\nwant:%+v\nhave:%+v", want, intr)
	}

	if out.String() != "42\n" {
		t.Errorf("render mismatch\nwant:%q\nhave:%q", "42\n", out.String())
	}

	if !con.Available() {
		t.Error("console should be available again")
	}
}

func TestKeyboardRead(t *testing.T) {
	ic := &machine.InterruptController{}

	kb := device.NewKeyboard(ic, strings.NewReader("f"), 1)
	kb.SetID(2)

	if !kb.Readable() || kb.Writeable() || kb.Sharable() {
		t.Fatal("keyboard capability mismatch")
	}

	kb.Read(7)

	kb.Tick()

	if !ic.Empty() {
		t.Fatal("completion posted early")
	}

	kb.Tick()

	intr, ok := ic.Poll()
	if !ok {
		t.Fatal("no completion posted")
	}

	want := machine.Interrupt{
		Kind: machine.INT_READ_DONE, Dev: 2, Addr: 7, Data: int('f'),
	}
	if intr != want {
		t.Errorf("interrupt mismatch\nwant:%+v\nhave:%+v", want, intr)
	}
}

func TestKeyboardWaitsForInput(t *testing.T) {
	ic := &machine.InterruptController{}

	kb := device.NewKeyboard(ic, strings.NewReader(""), 0)
	kb.Read(0)

	// No input: the read stays pending forever instead of completing.
	for i := 0; i < 5; i++ {
		kb.Tick()
	}

	if !ic.Empty() {
		t.Error("read must not complete without input")
	}

	if kb.Available() {
		t.Error("keyboard should still be busy")
	}
}

func TestSensorCounts(t *testing.T) {
	ic := &machine.InterruptController{}

	sen := device.NewSensor(ic, nil, 0)
	sen.SetID(3)

	if !sen.Sharable() || !sen.Readable() || sen.Writeable() {
		t.Fatal("sensor capability mismatch")
	}

	for want := 1; want <= 2; want++ {
		sen.Read(0)
		sen.Tick()

		intr, ok := ic.Poll()
		if !ok {
			t.Fatal("no completion posted")
		}

		if intr.Data != want {
			t.Errorf("sample mismatch\nwant:%d\nhave:%d", want, intr.Data)
		}
	}
}
