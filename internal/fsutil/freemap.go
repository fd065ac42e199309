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

// Package fsutil implements the block-level file-system data structures
// that sit below the open-file cache and façade (spec.md §§4.4-4.6): the
// free-sector bitmap, the file header / i-node with its direct and
// indirect block maps, and the flat directory entry table.
package fsutil

import (
	"context"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
)

// FreeMap is a fixed-size bit-set over disk sectors, persisted as the body
// of a well-known file whose header lives at FreeMapSector (spec.md §4.4).
// 0 means free, 1 means in use (invariant I1).
type FreeMap struct {
	numSectors int
	bits       []bool
}

// NewFreeMap creates an all-free map of numSectors bits.
func NewFreeMap(numSectors int) *FreeMap {
	return &FreeMap{numSectors: numSectors, bits: make([]bool, numSectors)}
}

// Test reports whether sector is marked in use.
func (m *FreeMap) Test(sector int) bool {
	m.checkRange(sector)
	return m.bits[sector]
}

// Mark marks sector as in use.
func (m *FreeMap) Mark(sector int) {
	m.checkRange(sector)
	m.bits[sector] = true
}

// Clear marks sector as free.
func (m *FreeMap) Clear(sector int) {
	m.checkRange(sector)
	m.bits[sector] = false
}

// Find returns the index of the first free sector, marks it in use, and
// returns it; or returns -1 with no side effect if none is free. Scanning
// is linear and deterministic, not optimized for fragmentation (spec.md
// §4.4: "Find is O(D) and required only to be deterministic").
func (m *FreeMap) Find() int {
	for i, used := range m.bits {
		if !used {
			m.bits[i] = true
			return i
		}
	}
	return -1
}

// CountClear returns the number of free sectors.
func (m *FreeMap) CountClear() int {
	n := 0
	for _, used := range m.bits {
		if !used {
			n++
		}
	}
	return n
}

func (m *FreeMap) checkRange(sector int) {
	if sector < 0 || sector >= m.numSectors {
		panic("fsutil: sector out of range")
	}
}

// FetchFrom loads the bitmap's on-disk representation from sector's data
// sectors. The bitmap itself is treated as a plain byte blob, one bit per
// sector packed 8 to a byte, read via a FileHeader already positioned over
// the free-map file's data sectors.
func (m *FreeMap) FetchFrom(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader) {
	raw := make([]byte, (m.numSectors+7)/8)
	readRaw(ctx, disk, hdr, raw)
	for i := range m.bits {
		m.bits[i] = raw[i/8]&(1<<uint(i%8)) != 0
	}
}

// WriteBack persists the bitmap through hdr's data sectors.
func (m *FreeMap) WriteBack(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader) {
	raw := make([]byte, (m.numSectors+7)/8)
	for i, used := range m.bits {
		if used {
			raw[i/8] |= 1 << uint(i%8)
		}
	}
	writeRaw(ctx, disk, hdr, raw)
}

// readRaw and writeRaw move a flat byte blob through a file header's
// allocated data sectors, used by both FreeMap and Directory to persist
// their body without going through the higher-level file manager (they are
// the file manager's own bootstrap files).
func readRaw(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader, dst []byte) {
	buf := make([]byte, device.SectorSize)
	for off := 0; off < len(dst); off += device.SectorSize {
		sector := hdr.ByteToSector(off)
		disk.ReadSector(ctx, sector, buf)
		copy(dst[off:], buf)
	}
}

func writeRaw(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader, src []byte) {
	buf := make([]byte, device.SectorSize)
	for off := 0; off < len(src); off += device.SectorSize {
		sector := hdr.ByteToSector(off)
		n := copy(buf, src[off:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		disk.WriteSector(ctx, sector, buf)
	}
}
