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

// Package vm is physical-frame accounting, per-process address spaces,
// demand loading, and swap (spec.md §4.9). Mutation of the core-map is
// only safe with preemption disabled (spec.md §5's shared-resource
// policy); callers are kernel-only code paths (internal/trap's page-fault
// handler and AddressSpace construction), never user-visible syscalls
// directly.
package vm

import "github.com/nachos-go/nachos/internal/cpu"

// coreMapEntry is one physical frame's ownership record.
type coreMapEntry struct {
	occupied bool
	owner    *AddressSpace
	vpn      int
}

// CoreMap tracks which of the machine's physical page frames are in use
// and by whom (spec.md §4.9). It also owns the frame-granular view of the
// machine's shared physical memory, the same backing array the MMU
// translates into — loading and evicting a page is bulk byte-copying
// this package does directly, rather than through the MMU's single-byte
// interface (cpu.MMU is sized for the trap dispatcher's user-pointer
// transfer, not for the kernel's own page-load path).
type CoreMap struct {
	entries []coreMapEntry
	physMem []byte
}

// NewCoreMap creates a core-map over physMem, which must be exactly
// N*cpu.PageSize bytes — pass cpu.SimMMU.PhysMem() so the core-map and the
// MMU agree on the very same memory.
func NewCoreMap(physMem []byte) *CoreMap {
	if len(physMem)%pageSizeBytes != 0 {
		panic("vm: physical memory size must be a multiple of PageSize")
	}
	return &CoreMap{entries: make([]coreMapEntry, len(physMem)/pageSizeBytes), physMem: physMem}
}

// FrameBytes returns the PageSize-byte slice backing frame, for direct
// zeroing/copying during load and eviction.
func (c *CoreMap) FrameBytes(frame int) []byte {
	return c.physMem[frame*pageSizeBytes : (frame+1)*pageSizeBytes]
}

// PhysMem returns the shared physical memory backing this core map, for
// constructing another MMU over the same array (spec.md §4.9's per-process
// MMU, single shared memory).
func (c *CoreMap) PhysMem() []byte { return c.physMem }

// NumFrames returns the total number of physical frames tracked.
func (c *CoreMap) NumFrames() int { return len(c.entries) }

// Find returns the frame index occupied by (space, vpn), or -1.
func (c *CoreMap) Find(space *AddressSpace, vpn int) int {
	for i, e := range c.entries {
		if e.occupied && e.owner == space && e.vpn == vpn {
			return i
		}
	}
	return -1
}

// FindFree returns the index of an unoccupied frame, or -1 if none.
func (c *CoreMap) FindFree() int {
	for i, e := range c.entries {
		if !e.occupied {
			return i
		}
	}
	return -1
}

// Mark records that frame now holds (space, vpn).
func (c *CoreMap) Mark(frame int, space *AddressSpace, vpn int) {
	c.entries[frame] = coreMapEntry{occupied: true, owner: space, vpn: vpn}
}

// Clear frees frame.
func (c *CoreMap) Clear(frame int) {
	c.entries[frame] = coreMapEntry{}
}

// Occupied reports whether frame currently holds a page.
func (c *CoreMap) Occupied(frame int) bool { return c.entries[frame].occupied }

// GetSpace returns the address space owning frame, or nil if free.
func (c *CoreMap) GetSpace(frame int) *AddressSpace { return c.entries[frame].owner }

// GetVPN returns the virtual page number frame holds for its owner.
func (c *CoreMap) GetVPN(frame int) int { return c.entries[frame].vpn }

// pageSizeBytes re-exports cpu.PageSize for readability within this package.
const pageSizeBytes = cpu.PageSize
