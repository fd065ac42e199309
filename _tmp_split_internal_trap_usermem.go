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

package trap

import (
	"fmt"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/kerrors"
)

// tlbFiller owns the TLB-fill policy for one MMU: prefer an invalid slot,
// otherwise round-robin (spec.md §4.10).
type tlbFiller struct {
	next int
}

func newTLBFiller() *tlbFiller { return &tlbFiller{} }

// fill picks a TLB slot for vpn, writing back the victim's use/dirty bits
// to the page-table row it shadows before overwriting it (spec.md §4.9's
// SaveState does the equivalent for a full context switch; this is the
// same bookkeeping done one entry at a time on a fault).
func (f *tlbFiller) fill(m cpu.MMU, as ProcessAddressSpace, vpn int) {
	slot := -1
	for i := 0; i < m.TLBSize(); i++ {
		if !m.ReadTLB(i).Valid {
			slot = i
			break
		}
	}
	if slot == -1 {
		slot = f.next % m.TLBSize()
		f.next++
	}

	victim := m.ReadTLB(slot)
	if victim.Valid {
		as.MergeBits(victim.VirtualPage, victim.Use, victim.Dirty)
	}

	pte, _ := as.Entry(vpn)
	m.WriteTLB(slot, cpu.TLBEntry{
		VirtualPage:  vpn,
		PhysicalPage: pte.PhysicalPage,
		Valid:        true,
		ReadOnly:     pte.ReadOnly,
	})
}

// ProcessAddressSpace is the narrow view of *vm.AddressSpace the trap
// package needs, so this package does not have to import vm's full API
// surface into every helper signature.
type ProcessAddressSpace interface {
	LoadPage(vpn int) error
	Entry(vpn int) (cpu.PageTableEntry, bool)
	MergeBits(vpn int, use, dirty bool)
}

// HandlePageFault loads the faulting page and, if the machine has a TLB,
// installs a fresh TLB entry for it (spec.md §4.10).
func HandlePageFault(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller) error {
	vaddr := m.BadVAddr()
	vpn := vaddr / cpu.PageSize
	if err := as.LoadPage(vpn); err != nil {
		return err
	}
	if m.HasTLB() {
		filler.fill(m, as, vpn)
	}
	return nil
}

// accessUser performs one byte-level access through m, retrying on a page
// fault (demand loading/swap's expected control flow) until it succeeds
// or an I/O error makes the fault unrecoverable; a ReadOnlyFault is
// reported to the caller instead of retried (spec.md §7: "terminates the
// offending process").
func accessUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, access func() cpu.Fault) error {
	for {
		switch access() {
		case cpu.NoFault:
			return nil
		case cpu.ReadOnlyFault:
			return kerrors.ReadOnlyViolation
		case cpu.PageFault:
			if err := HandlePageFault(m, as, filler); err != nil {
				return err
			}
		}
	}
}

// ReadBufferFromUser copies size bytes starting at vaddr out of user
// memory (spec.md §4.10).
func ReadBufferFromUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, vaddr, size int) ([]byte, error) {
	buf := make([]byte, size)
	for i := 0; i < size; i++ {
		addr := vaddr + i
		var b byte
		err := accessUser(m, as, filler, func() cpu.Fault {
			var f cpu.Fault
			b, f = m.ReadByte(addr)
			return f
		})
		if err != nil {
			return nil, fmt.Errorf("trap: read buffer at %d: %w", addr, err)
		}
		buf[i] = b
	}
	return buf, nil
}

// WriteBufferToUser copies buf into user memory starting at vaddr
// (spec.md §4.10).
func WriteBufferToUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, vaddr int, buf []byte) error {
	for i, b := range buf {
		addr := vaddr + i
		err := accessUser(m, as, filler, func() cpu.Fault {
			return m.WriteByte(addr, b)
		})
		if err != nil {
			return fmt.Errorf("trap: write buffer at %d: %w", addr, err)
		}
	}
	return nil
}

// ReadStringFromUser reads a null-terminated string starting at vaddr, up
// to maxLen bytes. found is false if no null terminator appeared within
// the bound (spec.md §4.10).
func ReadStringFromUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, vaddr, maxLen int) (s string, found bool, err error) {
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		addr := vaddr + i
		var b byte
		accessErr := accessUser(m, as, filler, func() cpu.Fault {
			var f cpu.Fault
			b, f = m.ReadByte(addr)
			return f
		})
		if accessErr != nil {
			return "", false, fmt.Errorf("trap: read string at %d: %w", addr, accessErr)
		}
		if b == 0 {
			return string(buf), true, nil
		}
		buf = append(buf, b)
	}
	return string(buf), false, nil
}

// WriteStringToUser writes s followed by a null terminator starting at
// vaddr (spec.md §4.10).
func WriteStringToUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, vaddr int, s string) error {
	if err := WriteBufferToUser(m, as, filler, vaddr, []byte(s)); err != nil {
		return err
	}
	return accessUser(m, as, filler, func() cpu.Fault {
		return m.WriteByte(vaddr+len(s), 0)
	})
}


