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
	"io"
	"sync"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/metrics"
)

// UserStackSize is the fixed suffix of every address space reserved for
// the user stack (spec.md §4.9's numPages formula).
const UserStackSize = 8 * cpu.PageSize

// LoadMode selects how an AddressSpace's pages are populated (spec.md
// §4.9's three independently selectable behaviors collapse code+data
// loading to one of these two; Swap composes with either).
type LoadMode int

const (
	// Direct loading: every page is faulted in at construction.
	Direct LoadMode = iota
	// Demand loading: pages are faulted in lazily, on first access.
	Demand
)

// Executable is the minimal view of a loaded program AddressSpace needs:
// random-access bytes for the code and initialized-data segments.
type Executable interface {
	ReadAt(p []byte, off int64) (int, error)
}

// segment describes one contiguous, page-aligned-or-not range of an
// address space's virtual addresses backed by executable bytes.
type segment struct {
	virtualBase int
	fileOffset  int
	size        int
	readOnly    bool
}

// AddressSpace is one process's virtual memory: its page table, the
// segments its code/data pages are backed by, and — when swap is enabled
// — its own swap file (spec.md §4.9).
type AddressSpace struct {
	mu sync.Mutex

	pid      int
	numPages int
	table    cpu.PageTable
	segments []segment
	exe      Executable

	coreMap *CoreMap
	policy  Policy
	metrics metrics.Handle

	swap    *SwapFile
	evicted map[int]bool // vpn -> has been written to swap at least once
}

// Config bundles the knobs spec.md §4.9 names as independently selectable:
// load mode, replacement policy (meaningful only if swap is enabled), and
// whether eviction to a per-process swap file is allowed at all.
type Config struct {
	Mode        LoadMode
	Policy      Policy
	SwapEnabled bool
	SwapDir     string
	Metrics     metrics.Handle
}

// New builds an address space for a program with codeSize bytes of code
// (at virtual address 0, read-only) followed by initDataSize bytes of
// initialized data, followed by a zero-filled user stack of UserStackSize
// bytes, backed by exe for the code/data bytes (spec.md §4.9).
func New(pid int, exe Executable, codeSize, initDataSize int, coreMap *CoreMap, cfg Config) (*AddressSpace, error) {
	total := codeSize + initDataSize + UserStackSize
	numPages := (total + cpu.PageSize - 1) / cpu.PageSize

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}

	as := &AddressSpace{
		pid:      pid,
		numPages: numPages,
		table:    make(cpu.PageTable, numPages),
		exe:      exe,
		coreMap:  coreMap,
		policy:   cfg.Policy,
		metrics:  m,
		evicted:  make(map[int]bool),
		segments: []segment{
			{virtualBase: 0, fileOffset: 0, size: codeSize, readOnly: true},
			{virtualBase: codeSize, fileOffset: codeSize, size: initDataSize, readOnly: false},
		},
	}

	if cfg.SwapEnabled {
		sf, err := OpenSwapFile(cfg.SwapDir, pid)
		if err != nil {
			return nil, err
		}
		as.swap = sf
	}

	if cfg.Mode == Direct {
		for vpn := 0; vpn < numPages; vpn++ {
			if err := as.LoadPage(vpn); err != nil {
				return nil, err
			}
		}
	}
	// Demand mode leaves every table entry at its zero value (Valid:
	// false); LoadPage is called lazily by internal/trap's page-fault
	// handler.
	return as, nil
}

// NumPages returns the address space's virtual page count.
func (as *AddressSpace) NumPages() int { return as.numPages }

// PID returns the owning process id, used to name the swap file.
func (as *AddressSpace) PID() int { return as.pid }

// Entry returns the current page-table row for vpn and whether vpn is
// within range — used by replacement policies to inspect candidate
// frames without exposing the whole table.
func (as *AddressSpace) Entry(vpn int) (cpu.PageTableEntry, bool) {
	if vpn < 0 || vpn >= len(as.table) {
		return cpu.PageTableEntry{}, false
	}
	return as.table[vpn], true
}

// PageTable returns the address space's live page table, for
// RestoreState to install directly into the MMU when there is no TLB.
func (as *AddressSpace) PageTable() cpu.PageTable { return as.table }

func (as *AddressSpace) readOnlyAt(vpn int) bool {
	base := vpn * cpu.PageSize
	for _, s := range as.segments {
		if base >= s.virtualBase && base < s.virtualBase+s.size {
			return s.readOnly
		}
	}
	return false
}

// zeroAndLoadSegments zeroes frame then copies in whatever code/init-data
// bytes overlap vpn's byte window from the executable (spec.md §4.9
// "zeroes the frame and reads the intersecting... ranges").
func (as *AddressSpace) zeroAndLoadSegments(frame, vpn int) error {
	buf := as.coreMap.FrameBytes(frame)
	for i := range buf {
		buf[i] = 0
	}

	pageStart := vpn * cpu.PageSize
	pageEnd := pageStart + cpu.PageSize
	for _, s := range as.segments {
		segStart, segEnd := s.virtualBase, s.virtualBase+s.size
		lo, hi := max(pageStart, segStart), min(pageEnd, segEnd)
		if lo >= hi {
			continue
		}
		fileOff := s.fileOffset + (lo - segStart)
		n, err := as.exe.ReadAt(buf[lo-pageStart:hi-pageStart], int64(fileOff))
		if err != nil && err != io.EOF {
			return fmt.Errorf("vm: load segment bytes for vpn %d: %w", vpn, err)
		}
		_ = n
	}
	return nil
}

// LoadPage finds or frees a physical frame for vpn, finds a free frame or
// evicts a victim via the configured replacement policy, and populates it
// either from swap (if vpn was previously evicted) or from the
// executable's segments (spec.md §4.9).
func (as *AddressSpace) LoadPage(vpn int) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if vpn < 0 || vpn >= as.numPages {
		return fmt.Errorf("vm: load page: vpn %d out of range: %w", vpn, kerrors.BadArgument)
	}

	as.metrics.PageFault()

	frame := as.coreMap.FindFree()
	if frame == -1 {
		var err error
		frame, err = as.evictVictim()
		if err != nil {
			return err
		}
	}

	fromSwap := as.evicted[vpn]
	if fromSwap {
		page := as.coreMap.FrameBytes(frame)
		if err := as.swap.ReadPage(vpn, page); err != nil {
			return err
		}
	} else if err := as.zeroAndLoadSegments(frame, vpn); err != nil {
		return err
	}
	as.metrics.PageLoaded(fromSwap)

	as.coreMap.Mark(frame, as, vpn)
	as.table[vpn] = cpu.PageTableEntry{PhysicalPage: frame, Valid: true, ReadOnly: as.readOnlyAt(vpn)}
	return nil
}

// evictVictim asks as.policy for a frame to reclaim, writing its contents
// to the owner's swap file if needed, and returns the now-free frame.
func (as *AddressSpace) evictVictim() (int, error) {
	numFrames := as.coreMap.NumFrames()
	entryFn := func(frame int) (cpu.PageTableEntry, bool) {
		owner := as.coreMap.GetSpace(frame)
		if owner == nil {
			return cpu.PageTableEntry{}, false
		}
		return owner.Entry(as.coreMap.GetVPN(frame))
	}
	clearUseFn := func(frame int) {
		owner := as.coreMap.GetSpace(frame)
		if owner == nil {
			return
		}
		vpn := as.coreMap.GetVPN(frame)
		owner.clearUse(vpn)
	}

	victim := as.policy.Victim(numFrames, entryFn, clearUseFn)
	owner := as.coreMap.GetSpace(victim)
	if owner == nil {
		// Nothing was ever marked occupied (construction-time direct
		// loading with more pages than frames): the victim frame is
		// actually free.
		return victim, nil
	}
	victimVPN := as.coreMap.GetVPN(victim)
	pte, _ := owner.Entry(victimVPN)

	if owner.swap == nil {
		return 0, fmt.Errorf("vm: no free frame and swap disabled: %w", kerrors.OutOfSpace)
	}
	if pte.Dirty || !owner.evicted[victimVPN] {
		if err := owner.swap.WritePage(victimVPN, as.coreMap.FrameBytes(victim)); err != nil {
			return 0, err
		}
		owner.evicted[victimVPN] = true
	}
	as.metrics.PageEvicted(pte.Dirty)
	owner.table[victimVPN].Valid = false
	as.coreMap.Clear(victim)
	return victim, nil
}

// clearUse clears vpn's use bit, called by the enhanced-clock policy
// while scanning (spec.md §4.9). Mirroring into a live TLB entry, when a
// TLB is present, is internal/trap's job at SaveState time — this method
// only touches the page table row, which is always the eventual source
// of truth.
func (as *AddressSpace) clearUse(vpn int) {
	if vpn < 0 || vpn >= len(as.table) {
		return
	}
	as.table[vpn].Use = false
}

// MergeBits ORs use and dirty into vpn's page-table row, out of range or
// not present is a no-op. This is the single-entry version of what
// SaveState does for every TLB row at once, used by internal/trap to
// write back a TLB victim's bits before it is overwritten on a fill.
func (as *AddressSpace) MergeBits(vpn int, use, dirty bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if vpn < 0 || vpn >= len(as.table) {
		return
	}
	as.table[vpn].Use = as.table[vpn].Use || use
	as.table[vpn].Dirty = as.table[vpn].Dirty || dirty
}

// SaveState propagates each valid TLB entry's use/dirty bits back into
// this address space's page table and invalidates the TLB, or (when the
// machine has no TLB) is a no-op — RestoreState is what installs the next
// address space's table in that case (spec.md §4.9).
func (as *AddressSpace) SaveState(m cpu.MMU) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !m.HasTLB() {
		return
	}
	for i := 0; i < m.TLBSize(); i++ {
		e := m.ReadTLB(i)
		if !e.Valid {
			continue
		}
		if e.VirtualPage >= 0 && e.VirtualPage < len(as.table) {
			as.table[e.VirtualPage].Use = as.table[e.VirtualPage].Use || e.Use
			as.table[e.VirtualPage].Dirty = as.table[e.VirtualPage].Dirty || e.Dirty
		}
		m.WriteTLB(i, cpu.TLBEntry{})
	}
}

// RestoreState installs this address space onto m: if m has a TLB, there
// is nothing to preload (entries fault in lazily); otherwise the page
// table itself is installed as the direct-lookup table (spec.md §4.9).
func (as *AddressSpace) RestoreState(m cpu.MMU) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !m.HasTLB() {
		m.SetPageTable(as.table)
	}
}

// Close releases the address space's swap file, if any.
func (as *AddressSpace) Close() error {
	if as.swap == nil {
		return nil
	}
	return as.swap.Close()
}


