// Copyright 2024 The Nachos-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package userprog holds the built-in simulated user programs `nachos run`
// can launch. Real Nachos compiles MIPS test binaries (halt.c, matmult.c,
// shell.c, ...) it then decodes one instruction at a time; the instruction
// fetch/decode/execute loop is out of scope here (spec.md §1), so each
// program is instead a trap.Program closure — a Go function playing the
// part the decoded instruction stream would have played, exercising the
// same syscalls through the same Machine a real trap handler would hand
// it.
package userprog

import (
	"context"
	"fmt"

	"github.com/nachos-go/nachos/internal/trap"
)

// Descriptor names one runnable program and the code/init-data segment
// sizes Exec should reserve for it, matching how AddressSpace.New splits a
// loaded executable's image (spec.md §4.9).
type Descriptor struct {
	Program      trap.Program
	CodeSize     int
	InitDataSize int
}

// registry maps a program name (as typed to `nachos run`) to its Descriptor.
var registry = map[string]Descriptor{
	"halt": {Program: haltProgram, CodeSize: 128, InitDataSize: 0},
	"echo": {Program: echoProgram, CodeSize: 128, InitDataSize: 0},
	"cat":  {Program: catProgram, CodeSize: 128, InitDataSize: 0},
	"ls":   {Program: lsProgram, CodeSize: 128, InitDataSize: 0},
}

// Lookup returns the named program's Descriptor, or false if no program by
// that name is registered.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names returns every registered program name, for `nachos run --help`-style
// listings.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// haltProgram is the simplest possible program: it writes a goodbye message
// to the console and exits immediately, mirroring real Nachos's halt.c
// smoke test.
func haltProgram(ctx context.Context, m *trap.Machine, argv []string) int {
	_, _ = m.Write(ctx, trap.FDConsoleOut, []byte("Shutdown, initiated by user program.\n"))
	return 0
}

// echoProgram writes every argv entry after argv[0] to the console,
// space-separated, exercising Write and Argv's parsing.
func echoProgram(ctx context.Context, m *trap.Machine, argv []string) int {
	for i, a := range argv[1:] {
		if i > 0 {
			_, _ = m.Write(ctx, trap.FDConsoleOut, []byte(" "))
		}
		_, _ = m.Write(ctx, trap.FDConsoleOut, []byte(a))
	}
	_, _ = m.Write(ctx, trap.FDConsoleOut, []byte("\n"))
	return 0
}

// catProgram opens each file named in argv[1:] and copies its contents to
// the console, exercising Open/Read/Write/Close.
func catProgram(ctx context.Context, m *trap.Machine, argv []string) int {
	for _, path := range argv[1:] {
		if err := catFile(ctx, m, path); err != nil {
			msg := fmt.Sprintf("cat: %s: %v\n", path, err)
			_, _ = m.Write(ctx, trap.FDConsoleOut, []byte(msg))
			return 1
		}
	}
	return 0
}

func catFile(ctx context.Context, m *trap.Machine, path string) error {
	fd, err := m.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close(ctx, fd) }()

	const chunk = 512
	for {
		buf, err := m.Read(ctx, fd, chunk)
		if err != nil {
			return err
		}
		if len(buf) == 0 {
			return nil
		}
		if _, err := m.Write(ctx, trap.FDConsoleOut, buf); err != nil {
			return err
		}
	}
}

// lsProgram lists the contents of argv[1] (or "/" if no argument is given),
// exercising ListDirectoryContents.
func lsProgram(ctx context.Context, m *trap.Machine, argv []string) int {
	dir := "/"
	if len(argv) > 1 {
		dir = argv[1]
	}
	names, err := m.ListDirectoryContents(ctx, dir)
	if err != nil {
		msg := fmt.Sprintf("ls: %s: %v\n", dir, err)
		_, _ = m.Write(ctx, trap.FDConsoleOut, []byte(msg))
		return 1
	}
	for _, name := range names {
		_, _ = m.Write(ctx, trap.FDConsoleOut, []byte(name+"\n"))
	}
	return 0
}


