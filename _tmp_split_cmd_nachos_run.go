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
)

var runCmd = &cobra.Command{
	Use:   "run <program> [argv...]",
	Short: "Exec a built-in program against the configured disk and wait for it to exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, argv := args[0], args
		desc, ok := userprog.Lookup(name)
		if !ok {
			return fmt.Errorf("run: unknown program %q (known: %s)", name, strings.Join(userprog.Names(), ", "))
		}

		ctx := cmd.Context()
		k, err := kernel.Boot(ctx, bootConfig)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		defer func() { _ = k.Shutdown() }()

		if err := ensureProgramFile(ctx, k, name, desc); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		pid, err := k.Dispatcher.Exec(ctx, name, argv, desc.CodeSize, desc.InitDataSize, desc.Program)
		if err != nil {
			return fmt.Errorf("run: exec %q: %w", name, err)
		}
		status, err := k.Dispatcher.Join(ctx, pid)
		if err != nil {
			return fmt.Errorf("run: join pid %d: %w", pid, err)
		}
		fmt.Printf("%s exited with status %d\n", name, status)
		return nil
	},
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


