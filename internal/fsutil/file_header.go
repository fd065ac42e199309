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

package fsutil

import (
	"context"
	"encoding/binary"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
)

// sectorRefSize is sizeof(sector_ref) on disk: a 4-byte index.
const sectorRefSize = 4

// NumDirect is the number of direct sector references a RawFileHeader
// holds. Chosen so numBytes + numSectors + NumDirect direct refs +
// indirectSector + doubleIndirectSector occupies exactly one SectorSize
// sector: (SectorSize - 4*sectorRefSize) / sectorRefSize.
const NumDirect = (device.SectorSize - 4*sectorRefSize) / sectorRefSize

// NumIndirect is the number of sector refs that fit in one indirection
// sector: S / sizeof(sector_ref) (spec.md §4.5).
const NumIndirect = device.SectorSize / sectorRefSize

// MaxFileSize is (NumDirect + NumIndirect + NumIndirect²) × SectorSize.
const MaxFileSize = (NumDirect + NumIndirect + NumIndirect*NumIndirect) * device.SectorSize

// FileHeader is the in-memory inflation of a one-sector on-disk i-node:
// the raw header plus lazily-read indirect and double-indirect block
// tables (spec.md §3's FileHeader entity).
type FileHeader struct {
	numBytes   int
	numSectors int
	direct     [NumDirect]int

	indirectSector int
	indirect       []int // lazily populated, length NumIndirect once loaded

	doubleIndirectSector int
	doubleIndirect       []int   // lazily populated, length NumIndirect (pool sectors)
	doubleIndirectRows   [][]int // doubleIndirectRows[i] is the i'th pool sector's NumIndirect refs
}

// NewFileHeader returns an empty, unallocated header.
func NewFileHeader() *FileHeader {
	return &FileHeader{indirectSector: -1, doubleIndirectSector: -1}
}

// FileLength returns the header's current logical size in bytes.
func (h *FileHeader) FileLength() int { return h.numBytes }

// ByteToSector maps a byte offset within the file to the physical disk
// sector that holds it (spec.md §4.5).
func (h *FileHeader) ByteToSector(offset int) int {
	i := offset / device.SectorSize
	switch {
	case i < NumDirect:
		return h.direct[i]
	case i < NumDirect+NumIndirect:
		return h.indirect[i-NumDirect]
	default:
		j := i - NumDirect - NumIndirect
		return h.doubleIndirectRows[j/NumIndirect][j%NumIndirect]
	}
}

// sectorsRequired returns the number of data sectors plus indirection pool
// sectors needed to hold size bytes.
func sectorsRequired(size int) int {
	dataSectors := (size + device.SectorSize - 1) / device.SectorSize
	total := dataSectors
	if dataSectors > NumDirect {
		total++ // indirection pool sector
	}
	if dataSectors > NumDirect+NumIndirect {
		total++ // double-indirection index sector
		rows := (dataSectors - NumDirect - NumIndirect + NumIndirect - 1) / NumIndirect
		total += rows // one pool sector per double-indirect row in use
	}
	return total
}

// Allocate reserves enough sectors from freeMap to hold size bytes,
// populating the header's direct/indirect/double-indirect tables. Returns
// false with no side effect on freeMap if insufficient sectors are free
// (spec.md §4.5).
func (h *FileHeader) Allocate(freeMap *FreeMap, size int) bool {
	required := sectorsRequired(size)
	if freeMap.CountClear() < required {
		return false
	}

	dataSectors := (size + device.SectorSize - 1) / device.SectorSize
	h.numBytes = size
	h.numSectors = dataSectors

	remaining := dataSectors
	for i := 0; i < NumDirect && remaining > 0; i++ {
		h.direct[i] = freeMap.Find()
		remaining--
	}
	if remaining == 0 {
		return true
	}

	h.indirectSector = freeMap.Find()
	h.indirect = make([]int, NumIndirect)
	for i := 0; i < NumIndirect && remaining > 0; i++ {
		h.indirect[i] = freeMap.Find()
		remaining--
	}
	if remaining == 0 {
		return true
	}

	h.doubleIndirectSector = freeMap.Find()
	rows := (remaining + NumIndirect - 1) / NumIndirect
	h.doubleIndirect = make([]int, NumIndirect)
	h.doubleIndirectRows = make([][]int, rows)
	for r := 0; r < rows; r++ {
		h.doubleIndirect[r] = freeMap.Find()
		row := make([]int, NumIndirect)
		for i := 0; i < NumIndirect && remaining > 0; i++ {
			row[i] = freeMap.Find()
			remaining--
		}
		h.doubleIndirectRows[r] = row
	}
	return true
}

// Extend grows the file incrementally to newSize bytes. The additional
// sectors required are computed as the delta between the old and new
// required counts; allocation is all-or-nothing against freeMap — if
// insufficient space exists, no bit is touched and false is returned
// (spec.md §4.5, property P3).
func (h *FileHeader) Extend(freeMap *FreeMap, newSize int) bool {
	if newSize <= h.numBytes {
		return true
	}
	oldRequired := sectorsRequired(h.numBytes)
	newRequired := sectorsRequired(newSize)
	delta := newRequired - oldRequired
	if delta > 0 && freeMap.CountClear() < delta {
		return false
	}

	oldDataSectors := h.numSectors
	newDataSectors := (newSize + device.SectorSize - 1) / device.SectorSize
	h.numBytes = newSize
	h.numSectors = newDataSectors

	need := newDataSectors - oldDataSectors
	filled := oldDataSectors
	for filled < NumDirect && need > 0 {
		h.direct[filled] = freeMap.Find()
		filled++
		need--
	}
	if need == 0 {
		return true
	}

	if h.indirectSector == -1 {
		h.indirectSector = freeMap.Find()
		h.indirect = make([]int, NumIndirect)
	}
	indirectFilled := filled - NumDirect
	if indirectFilled < 0 {
		indirectFilled = 0
	}
	for indirectFilled < NumIndirect && need > 0 {
		h.indirect[indirectFilled] = freeMap.Find()
		indirectFilled++
		filled++
		need--
	}
	if need == 0 {
		return true
	}

	if h.doubleIndirectSector == -1 {
		h.doubleIndirectSector = freeMap.Find()
		h.doubleIndirect = make([]int, NumIndirect)
	}
	doubleFilled := filled - NumDirect - NumIndirect
	if doubleFilled < 0 {
		doubleFilled = 0
	}
	for need > 0 {
		row := doubleFilled / NumIndirect
		col := doubleFilled % NumIndirect
		for len(h.doubleIndirectRows) <= row {
			h.doubleIndirect[len(h.doubleIndirectRows)] = freeMap.Find()
			h.doubleIndirectRows = append(h.doubleIndirectRows, make([]int, NumIndirect))
		}
		h.doubleIndirectRows[row][col] = freeMap.Find()
		doubleFilled++
		need--
	}
	return true
}

// Deallocate frees every sector this header references, including
// indirection pool sectors. Requires every such sector to currently be
// marked (spec.md §4.5).
func (h *FileHeader) Deallocate(freeMap *FreeMap) {
	remaining := h.numSectors
	for i := 0; i < NumDirect && remaining > 0; i++ {
		freeMap.Clear(h.direct[i])
		remaining--
	}
	if remaining == 0 {
		return
	}

	freeMap.Clear(h.indirectSector)
	for i := 0; i < NumIndirect && remaining > 0; i++ {
		freeMap.Clear(h.indirect[i])
		remaining--
	}
	if remaining == 0 {
		return
	}

	freeMap.Clear(h.doubleIndirectSector)
	for r, row := range h.doubleIndirectRows {
		freeMap.Clear(h.doubleIndirect[r])
		for i := 0; i < NumIndirect && remaining > 0; i++ {
			freeMap.Clear(row[i])
			remaining--
		}
	}
}

// Sectors returns every sector this header currently occupies: direct data
// sectors, the indirection pool sector and its data sectors, and the
// double-indirection index sector, its row pool sectors, and their data
// sectors. Used by the façade's consistency checker to shadow-mark every
// referenced sector (spec.md §4.8 Check).
func (h *FileHeader) Sectors() []int {
	var out []int
	remaining := h.numSectors
	for i := 0; i < NumDirect && remaining > 0; i++ {
		out = append(out, h.direct[i])
		remaining--
	}
	if remaining == 0 {
		return out
	}

	out = append(out, h.indirectSector)
	for i := 0; i < NumIndirect && remaining > 0; i++ {
		out = append(out, h.indirect[i])
		remaining--
	}
	if remaining == 0 {
		return out
	}

	out = append(out, h.doubleIndirectSector)
	for r, row := range h.doubleIndirectRows {
		out = append(out, h.doubleIndirect[r])
		for i := 0; i < NumIndirect && remaining > 0; i++ {
			out = append(out, row[i])
			remaining--
		}
	}
	return out
}

// FetchFrom reads the raw header struct from sector, then (if needed) its
// indirection sector, then (if needed) the double-indirection index
// sector and each referenced row (spec.md §4.5).
func (h *FileHeader) FetchFrom(ctx context.Context, disk *devio.SynchDisk, sector int) {
	buf := make([]byte, device.SectorSize)
	disk.ReadSector(ctx, sector, buf)
	h.decode(buf)

	if h.numSectors > NumDirect {
		h.indirect = readSectorRefTable(ctx, disk, h.indirectSector)
	}
	if h.numSectors > NumDirect+NumIndirect {
		h.doubleIndirect = readSectorRefTable(ctx, disk, h.doubleIndirectSector)
		remaining := h.numSectors - NumDirect - NumIndirect
		rows := (remaining + NumIndirect - 1) / NumIndirect
		h.doubleIndirectRows = make([][]int, rows)
		for r := 0; r < rows; r++ {
			h.doubleIndirectRows[r] = readSectorRefTable(ctx, disk, h.doubleIndirect[r])
		}
	}
}

// WriteBack persists the raw header struct to sector, then its
// indirection and double-indirection tables if present.
func (h *FileHeader) WriteBack(ctx context.Context, disk *devio.SynchDisk, sector int) {
	buf := make([]byte, device.SectorSize)
	h.encode(buf)
	disk.WriteSector(ctx, sector, buf)

	if h.numSectors > NumDirect {
		writeSectorRefTable(ctx, disk, h.indirectSector, h.indirect)
	}
	if h.numSectors > NumDirect+NumIndirect {
		writeSectorRefTable(ctx, disk, h.doubleIndirectSector, h.doubleIndirect)
		for r, row := range h.doubleIndirectRows {
			writeSectorRefTable(ctx, disk, h.doubleIndirect[r], row)
		}
	}
}

func readSectorRefTable(ctx context.Context, disk *devio.SynchDisk, sector int) []int {
	buf := make([]byte, device.SectorSize)
	disk.ReadSector(ctx, sector, buf)
	table := make([]int, NumIndirect)
	for i := range table {
		table[i] = int(int32(binary.LittleEndian.Uint32(buf[i*sectorRefSize:])))
	}
	return table
}

func writeSectorRefTable(ctx context.Context, disk *devio.SynchDisk, sector int, table []int) {
	buf := make([]byte, device.SectorSize)
	for i, v := range table {
		binary.LittleEndian.PutUint32(buf[i*sectorRefSize:], uint32(int32(v)))
	}
	disk.WriteSector(ctx, sector, buf)
}

func (h *FileHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], uint32(int32(h.numBytes)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(h.numSectors)))
	off := 8
	for i := 0; i < NumDirect; i++ {
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(h.direct[i])))
		off += sectorRefSize
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(int32(h.indirectSector)))
	off += sectorRefSize
	binary.LittleEndian.PutUint32(buf[off:], uint32(int32(h.doubleIndirectSector)))
}

func (h *FileHeader) decode(buf []byte) {
	h.numBytes = int(int32(binary.LittleEndian.Uint32(buf[0:])))
	h.numSectors = int(int32(binary.LittleEndian.Uint32(buf[4:])))
	off := 8
	for i := 0; i < NumDirect; i++ {
		h.direct[i] = int(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += sectorRefSize
	}
	h.indirectSector = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += sectorRefSize
	h.doubleIndirectSector = int(int32(binary.LittleEndian.Uint32(buf[off:])))
}
