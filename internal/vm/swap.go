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

package vm

import (
	"fmt"
	"os"
	"path/filepath"
)

// SwapFileName returns the deterministic per-process swap-file name for
// pid, rooted at dir (spec.md §6: "the per-process swap file... is named
// deterministically from the pid"). Deliberately not a UUID: the name
// must be reproducible so a crash-recovery tool or a second simulator run
// against the same process id can find it.
func SwapFileName(dir string, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("swap.%d", pid))
}

// SwapFile is the backing store for one address space's evicted pages,
// indexed by virtual page number (spec.md §4.9's swap behavior: "append
// or overwrite it into the owner's per-process swap file at offset vpn ×
// PageSize").
type SwapFile struct {
	f *os.File
}

// OpenSwapFile creates (or truncates) the swap file for pid under dir.
func OpenSwapFile(dir string, pid int) (*SwapFile, error) {
	f, err := os.OpenFile(SwapFileName(dir, pid), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("vm: open swap file: %w", err)
	}
	return &SwapFile{f: f}, nil
}

// WritePage writes page (exactly PageSize bytes) at vpn's offset.
func (s *SwapFile) WritePage(vpn int, page []byte) error {
	if len(page) != pageSizeBytes {
		panic("vm: swap page must be exactly PageSize bytes")
	}
	if _, err := s.f.WriteAt(page, int64(vpn)*pageSizeBytes); err != nil {
		return fmt.Errorf("vm: swap write vpn %d: %w", vpn, err)
	}
	return nil
}

// ReadPage reads the PageSize bytes previously written for vpn into page.
func (s *SwapFile) ReadPage(vpn int, page []byte) error {
	if len(page) != pageSizeBytes {
		panic("vm: swap page must be exactly PageSize bytes")
	}
	if _, err := s.f.ReadAt(page, int64(vpn)*pageSizeBytes); err != nil {
		return fmt.Errorf("vm: swap read vpn %d: %w", vpn, err)
	}
	return nil
}

// Close closes and removes the swap file — a process's swap space does
// not outlive the process (no Nachos crash-recovery story for it).
func (s *SwapFile) Close() error {
	name := s.f.Name()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("vm: close swap file: %w", err)
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vm: remove swap file: %w", err)
	}
	return nil
}
