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

// Package cpu is the external collaborator boundary between internal/trap
// and the simulated machine: register access and the MMU's single-byte
// user-memory transfer, which may raise a page fault or a read-only
// violation (spec.md §1, §4.10). internal/vm owns the page table and TLB
// state this interface reads and writes; internal/cpu only names the
// shapes both sides agree on.
package cpu

// PageSize is the unit of virtual-to-physical translation. Chosen equal to
// device.SectorSize so a page and a swap-file block are the same size and
// a page fault's swap read or write is exactly one disk/file sector
// (spec.md §4.9's swap description assumes this).
const PageSize = 128

// Register identifies one of the conventional argument/result registers
// the syscall trap dispatcher reads and writes (spec.md §4.10).
type Register int

const (
	RegSyscallID Register = iota
	RegArg1
	RegArg2
	RegArg3
	RegArg4
	RegResult
	RegPC
	RegBadVAddr
	numRegisters
)

// Registers is the machine's register file, as seen by the trap dispatcher.
type Registers interface {
	Read(r Register) uint32
	Write(r Register, v uint32)
}

// PageTableEntry is one row of an address space's page table: the
// physical frame it maps to (meaningless when !Valid), and the
// replacement-policy bits (spec.md §4.9's enhanced-clock use/dirty bits).
type PageTableEntry struct {
	PhysicalPage int
	Valid        bool
	ReadOnly     bool
	Use          bool
	Dirty        bool
}

// PageTable is addressed by virtual page number.
type PageTable []PageTableEntry

// TLBEntry mirrors PageTableEntry plus the virtual page number it
// currently shadows; VirtualPage is meaningless when !Valid.
type TLBEntry struct {
	VirtualPage  int
	PhysicalPage int
	Valid        bool
	ReadOnly     bool
	Use          bool
	Dirty        bool
}

// Fault distinguishes the two exception kinds the MMU can raise on a
// memory access (spec.md §4.10).
type Fault int

const (
	NoFault Fault = iota
	PageFault
	ReadOnlyFault
)

// MMU is the simulated memory-management unit: single-byte user-memory
// transfer that may fault, plus whichever of TLB or direct page-table
// installation the machine is configured with (spec.md §4.9's
// SaveState/RestoreState says "if a TLB is present... otherwise install
// this address space's page-table pointer").
type MMU interface {
	// ReadByte and WriteByte translate vaddr and perform the access. On
	// PageFault or ReadOnlyFault they return the fault kind and leave
	// BadVAddr() set to vaddr; the caller (internal/trap) handles the
	// fault and retries.
	ReadByte(vaddr int) (byte, Fault)
	WriteByte(vaddr int, b byte) Fault

	// BadVAddr is the virtual address of the most recent fault.
	BadVAddr() int

	// HasTLB reports whether this machine has a hardware TLB in front of
	// the page table, or does direct page-table lookups.
	HasTLB() bool

	// TLBSize returns the number of TLB slots (0 if !HasTLB()).
	TLBSize() int
	ReadTLB(i int) TLBEntry
	WriteTLB(i int, e TLBEntry)

	// SetPageTable installs pt as the table direct lookups consult.
	// Called by AddressSpace.RestoreState when !HasTLB().
	SetPageTable(pt PageTable)
}
