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
	"math/rand"

	"github.com/nachos-go/nachos/internal/cpu"
)

// Policy picks a victim physical frame to evict when the core-map is full
// (spec.md §4.9). Implementations only see the frames that exist; the
// caller (AddressSpace.LoadPage) is responsible for writing the victim
// back to swap if needed and updating the core-map and the victim's page
// table entry.
type Policy interface {
	// Victim returns a frame index to evict. entry(frame) fetches the
	// current page-table row the frame's owner has for it (ok is false for
	// an unoccupied frame, which is never a candidate). clearUse(frame)
	// clears that row's use bit in the owner's page table; a live TLB
	// entry for the same page is left unchanged. ClockPolicy calls it
	// while scanning, per spec.md §4.9.
	Victim(numFrames int, entry func(frame int) (pte cpu.PageTableEntry, ok bool), clearUse func(frame int)) int
}

// FIFOPolicy is "FIFO on physical frame index" (spec.md §4.9): a circular
// hand that always picks the next occupied frame after the last one it
// evicted, wrapping around.
type FIFOPolicy struct {
	hand int
}

// NewFIFOPolicy creates a FIFO-by-frame-index policy starting at frame 0.
func NewFIFOPolicy() *FIFOPolicy { return &FIFOPolicy{} }

func (p *FIFOPolicy) Victim(numFrames int, entry func(int) (cpu.PageTableEntry, bool), clearUse func(int)) int {
	for i := 0; i < numFrames; i++ {
		f := (p.hand + i) % numFrames
		if _, ok := entry(f); ok {
			p.hand = (f + 1) % numFrames
			return f
		}
	}
	f := p.hand % numFrames
	p.hand = (f + 1) % numFrames
	return f
}

// RandomPolicy picks a uniformly random occupied frame (spec.md §4.9).
type RandomPolicy struct{}

// NewRandomPolicy creates a random-eviction policy.
func NewRandomPolicy() *RandomPolicy { return &RandomPolicy{} }

func (RandomPolicy) Victim(numFrames int, entry func(int) (cpu.PageTableEntry, bool), clearUse func(int)) int {
	var candidates []int
	for f := 0; f < numFrames; f++ {
		if _, ok := entry(f); ok {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	return candidates[rand.Intn(len(candidates))]
}

// ClockPolicy is the enhanced (NRU) clock: four passes with a circular
// hand, preferring (use=0,dirty=0), then (use=0,dirty=1), then
// (use=1,dirty=0), clearing use bits as it scans, then an unconditional
// take (spec.md §4.9).
type ClockPolicy struct {
	hand int
}

// NewClockPolicy creates an enhanced-clock policy starting its hand at 0.
func NewClockPolicy() *ClockPolicy { return &ClockPolicy{} }

func (c *ClockPolicy) Victim(numFrames int, entry func(int) (cpu.PageTableEntry, bool), clearUse func(int)) int {
	find := func(want struct{ use, dirty bool }, clearAsScanned bool) (int, bool) {
		start := c.hand
		for i := 0; i < numFrames; i++ {
			f := (start + i) % numFrames
			pte, ok := entry(f)
			if !ok {
				continue
			}
			if pte.Use == want.use && pte.Dirty == want.dirty {
				c.hand = (f + 1) % numFrames
				return f, true
			}
			if clearAsScanned {
				clearUse(f)
			}
		}
		return 0, false
	}

	if f, ok := find(struct{ use, dirty bool }{false, false}, false); ok {
		return f
	}
	if f, ok := find(struct{ use, dirty bool }{false, true}, true); ok {
		return f
	}
	if f, ok := find(struct{ use, dirty bool }{true, false}, false); ok {
		return f
	}
	// Unconditional take: the frame under the hand, advancing it by one.
	f := c.hand % numFrames
	c.hand = (f + 1) % numFrames
	return f
}


