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
	"fmt"

	"github.com/nachos-go/nachos/internal/kernel"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the file system's consistency pass against the configured disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		k, err := kernel.Boot(ctx, bootConfig)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		defer func() { _ = k.Shutdown() }()

		if ok := k.FS.Check(ctx); !ok {
			return fmt.Errorf("check: file system is inconsistent; see debug log")
		}
		fmt.Println("file system is consistent")
		return nil
	},
}


