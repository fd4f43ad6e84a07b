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

package main

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/lassandro/gosos/pkg/device"
	"github.com/lassandro/gosos/pkg/kernel"
	"github.com/lassandro/gosos/pkg/machine"
	"github.com/lassandro/gosos/pkg/monitor"
	"github.com/lassandro/gosos/pkg/program"
)

func main() {
	var cli struct {
		Run runCmd `cmd:"" default:"1" help:"boot the simulated OS"`
	}

	ctx := kong.Parse(&cli)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}

type runCmd struct {
	RAM     int   `name:"ram" default:"3000" help:"RAM size in words"`
	Seed    int64 `name:"seed" default:"0" help:"RNG seed for EXEC selection, 0 seeds from time"`
	Verbose bool  `short:"v" help:"kernel debug logging"`
	Trace   bool  `help:"per-step machine trace and a final state dump"`
	Random  bool  `name:"random-sched" help:"use the random scheduling policy"`
	Latency int   `default:"8" help:"device latency in CPU cycles"`
	Alloc   int   `name:"alloc" default:"0" help:"address space size for the boot process, 0 derives it"`

	Programs []string `arg:"" type:"existingfile" help:"pidgin assembly program files"`
}

func (r *runCmd) Run(ctx *kong.Context) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if r.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ram := machine.NewRAM(r.RAM)
	ic := &machine.InterruptController{}
	cpu := machine.NewCPU(ram, ic, log)
	k := kernel.New(cpu, ram, log)

	if r.Random {
		k.SetPolicy(kernel.PolicyRandom)
	}

	if r.Seed != 0 {
		k.SetRand(rand.New(rand.NewSource(r.Seed)))
	}

	console := device.NewConsole(ic, os.Stdout, r.Latency)
	keyboard := device.NewKeyboard(ic, os.Stdin, r.Latency)
	sensor := device.NewSensor(ic, nil, r.Latency)

	for _, d := range []struct {
		drv kernel.Device
		id  int
	}{
		{console, 1},
		{keyboard, 2},
		{sensor, 3},
	} {
		if err := k.RegisterDevice(d.drv, d.id); err != nil {
			return err
		}

		cpu.Peripherals = append(cpu.Peripherals, d.drv.(machine.Ticker))
	}

	var boot *program.Program

	for _, path := range r.Programs {
		file, err := os.Open(path)
		if err != nil {
			return err
		}

		prog, err := program.Parse(filepath.Base(path), file)
		file.Close()

		if err != nil {
			return err
		}

		k.AddProgram(prog)

		if boot == nil {
			boot = prog
		}
	}

	if boot == nil {
		return errors.New("no programs given")
	}

	var mon *monitor.Monitor
	if r.Trace {
		mon = monitor.New(log, os.Stderr)
		cpu.Tracer = mon
	}

	alloc := r.Alloc
	if alloc <= 0 {
		alloc = boot.Size() * 2
	}

	if err := k.CreateProcess(boot, alloc); err != nil {
		return err
	}

	enterRawTerm()
	status := cpu.Run()
	exitRawTerm()

	if mon != nil {
		mon.Dump(cpu)
	}

	if status != 0 {
		log.Infof("simulation halted with status %d", status)
		os.Exit(-status)
	}

	return nil
}
