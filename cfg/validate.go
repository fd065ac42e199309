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

package cfg

import "fmt"

func isValidDisk(c *DiskConfig) error {
	if c.Path == "" {
		return fmt.Errorf("disk.path must be set")
	}
	if c.NumSectors <= 0 {
		return fmt.Errorf("disk.num-sectors must be positive, got %d", c.NumSectors)
	}
	if c.Latency < 0 {
		return fmt.Errorf("disk.latency must not be negative")
	}
	return nil
}

func isValidVM(c *VMConfig) error {
	if c.NumPhysPages <= 0 {
		return fmt.Errorf("vm.num-phys-pages must be positive, got %d", c.NumPhysPages)
	}
	if c.TLBSize < 0 {
		return fmt.Errorf("vm.tlb-size must not be negative, got %d", c.TLBSize)
	}
	if c.SwapEnabled && c.SwapDir == "" {
		return fmt.Errorf("vm.swap-dir must be set when vm.swap-enabled is true")
	}
	return nil
}

func isValidFileSystem(c *FileSystemConfig) error {
	if c.MaxArgLen <= 0 {
		return fmt.Errorf("file-system.max-arg-len must be positive, got %d", c.MaxArgLen)
	}
	return nil
}

// ValidateConfig returns a non-nil error if config is invalid, mirroring
// the teacher's own per-section-validator composition (spec.md §3, §7).
func ValidateConfig(config *Config) error {
	if err := isValidDisk(&config.Disk); err != nil {
		return fmt.Errorf("error parsing disk config: %w", err)
	}
	if err := isValidVM(&config.VM); err != nil {
		return fmt.Errorf("error parsing vm config: %w", err)
	}
	if err := isValidFileSystem(&config.FileSystem); err != nil {
		return fmt.Errorf("error parsing file-system config: %w", err)
	}
	return nil
}
