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

package cpu

import "sync"

// SimMMU is the simulator's own MMU: one shared physical memory backing
// every core-map frame, and either a fixed-size TLB or a directly
// installed page table, mirroring real Nachos's machine.cc choice between
// the two (spec.md §4.9/§4.10).
type SimMMU struct {
	mu sync.Mutex

	physMem []byte

	tlb       []TLBEntry // nil when !hasTLB
	pageTable PageTable  // active when tlb == nil
	badVAddr  int
}

// NewSimMMU creates an MMU over its own numPhysPages*PageSize bytes of
// simulated RAM. tlbSize of 0 means no TLB — RestoreState installs a page
// table directly instead (spec.md §4.9). Used where every MMU under test
// needs its own isolated memory; production code sharing one core map
// across processes wants NewSimMMUWithMemory instead.
func NewSimMMU(numPhysPages, tlbSize int) *SimMMU {
	return NewSimMMUWithMemory(make([]byte, numPhysPages*PageSize), tlbSize)
}

// NewSimMMUWithMemory creates an MMU over a caller-supplied physical
// memory array. Every process's MMU must share the same array so that
// internal/vm's CoreMap-mediated frame reuse across address spaces is
// visible through each process's own translations (spec.md §4.9).
func NewSimMMUWithMemory(physMem []byte, tlbSize int) *SimMMU {
	m := &SimMMU{physMem: physMem}
	if tlbSize > 0 {
		m.tlb = make([]TLBEntry, tlbSize)
	}
	return m
}

// PhysMem exposes the raw backing array so internal/vm's core-map and swap
// code can zero frames and copy executable segments directly into them.
func (m *SimMMU) PhysMem() []byte { return m.physMem }

func (m *SimMMU) HasTLB() bool   { return m.tlb != nil }
func (m *SimMMU) TLBSize() int   { return len(m.tlb) }
func (m *SimMMU) BadVAddr() int  { return m.badVAddr }

func (m *SimMMU) ReadTLB(i int) TLBEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tlb[i]
}

func (m *SimMMU) WriteTLB(i int, e TLBEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tlb[i] = e
}

func (m *SimMMU) SetPageTable(pt PageTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageTable = pt
}

// translate finds the entry covering vaddr's page in whichever structure
// is active, returning the physical frame, a pointer-like (slice index +
// table) location to update Use/Dirty, and whether the entry is valid.
func (m *SimMMU) translate(vaddr int) (frame int, valid, readOnly bool, mark func(use, dirty bool)) {
	vpn := vaddr / PageSize
	if m.tlb != nil {
		for i := range m.tlb {
			e := &m.tlb[i]
			if e.Valid && e.VirtualPage == vpn {
				idx := i
				return e.PhysicalPage, true, e.ReadOnly, func(use, dirty bool) {
					m.tlb[idx].Use = m.tlb[idx].Use || use
					m.tlb[idx].Dirty = m.tlb[idx].Dirty || dirty
				}
			}
		}
		return 0, false, false, func(bool, bool) {}
	}
	if vpn < 0 || vpn >= len(m.pageTable) || !m.pageTable[vpn].Valid {
		return 0, false, false, func(bool, bool) {}
	}
	e := &m.pageTable[vpn]
	return e.PhysicalPage, true, e.ReadOnly, func(use, dirty bool) {
		e.Use = e.Use || use
		e.Dirty = e.Dirty || dirty
	}
}

// ReadByte implements MMU.
func (m *SimMMU) ReadByte(vaddr int) (byte, Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, valid, _, mark := m.translate(vaddr)
	if !valid {
		m.badVAddr = vaddr
		return 0, PageFault
	}
	mark(true, false)
	offset := vaddr % PageSize
	return m.physMem[frame*PageSize+offset], NoFault
}

// WriteByte implements MMU.
func (m *SimMMU) WriteByte(vaddr int, b byte) Fault {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, valid, readOnly, mark := m.translate(vaddr)
	if !valid {
		m.badVAddr = vaddr
		return PageFault
	}
	if readOnly {
		m.badVAddr = vaddr
		return ReadOnlyFault
	}
	mark(true, true)
	offset := vaddr % PageSize
	m.physMem[frame*PageSize+offset] = b
	return NoFault
}
