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

// gosos-asm assembles a pidgin assembly source file into a flat image of
// big-endian int32 words.
package main

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/lassandro/gosos/pkg/program"
)

func main() {
	var cli struct {
		Asm asmCmd `cmd:"" default:"1" help:"assemble a program"`
	}

	ctx := kong.Parse(&cli)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}

type asmCmd struct {
	Source string `arg:"" type:"existingfile" help:"program source"`
	Output string `short:"o" help:"output path, defaults to the source with a .img extension"`
}

func (a *asmCmd) Run(ctx *kong.Context) error {
	file, err := os.Open(a.Source)
	if err != nil {
		return err
	}

	prog, err := program.Parse(filepath.Base(a.Source), file)
	file.Close()

	if err != nil {
		return err
	}

	output := a.Output
	if output == "" {
		ext := filepath.Ext(a.Source)
		output = a.Source[:len(a.Source)-len(ext)] + ".img"
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, w := range prog.Export() {
		if err := binary.Write(out, binary.BigEndian, int32(w)); err != nil {
			return err
		}
	}

	return nil
}
