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

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/kernel"
	"github.com/nachos-go/nachos/internal/userprog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run <program> [argv...] [; <program> [argv...]]...",
	Short: "Exec one or more built-in programs, fanning out concurrently and joining all of them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := splitProgramSpecs(args)

		ctx := cmd.Context()
		k, err := kernel.Boot(ctx, bootConfig)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		defer func() { _ = k.Shutdown() }()

		results := make([]string, len(specs))
		g, gctx := errgroup.WithContext(ctx)
		for i, argv := range specs {
			i, argv := i, argv
			g.Go(func() error {
				status, err := execAndJoin(gctx, k, argv)
				if err != nil {
					return err
				}
				results[i] = fmt.Sprintf("%s exited with status %d", argv[0], status)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, r := range results {
			fmt.Println(r)
		}
		return nil
	},
}

// splitProgramSpecs breaks a flat argv list into one argv slice per program,
// wherever the literal token ";" separates them, so a single `run` invocation
// can fan out several concurrently-Exec'd programs.
func splitProgramSpecs(args []string) [][]string {
	var specs [][]string
	var cur []string
	for _, a := range args {
		if a == ";" {
			if len(cur) > 0 {
				specs = append(specs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, a)
	}
	if len(cur) > 0 {
		specs = append(specs, cur)
	}
	return specs
}

// execAndJoin execs argv[0] with argv as its argument vector and blocks
// until it exits, returning its exit status.
func execAndJoin(ctx context.Context, k *kernel.Kernel, argv []string) (int, error) {
	name := argv[0]
	desc, ok := userprog.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("run: unknown program %q (known: %s)", name, strings.Join(userprog.Names(), ", "))
	}
	if err := ensureProgramFile(ctx, k, name, desc); err != nil {
		return 0, fmt.Errorf("run: %w", err)
	}

	pid, err := k.Dispatcher.Exec(ctx, name, argv, desc.CodeSize, desc.InitDataSize, desc.Program)
	if err != nil {
		return 0, fmt.Errorf("run: exec %q: %w", name, err)
	}
	status, err := k.Dispatcher.Join(ctx, pid)
	if err != nil {
		return 0, fmt.Errorf("run: join pid %d: %w", pid, err)
	}
	return status, nil
}

// ensureProgramFile creates a backing file for name, sized to the program's
// code+init-data segments, the first time it is run. Later runs reuse the
// same file so repeated Execs of the same program don't grow the disk.
func ensureProgramFile(ctx context.Context, k *kernel.Kernel, name string, desc userprog.Descriptor) error {
	err := k.Dispatcher.Create(ctx, name, desc.CodeSize+desc.InitDataSize)
	if err != nil && !errors.Is(err, kerrors.AlreadyExists) {
		return err
	}
	return nil
}
