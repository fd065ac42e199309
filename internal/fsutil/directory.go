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

	"github.com/nachos-go/nachos/internal/devio"
)

// FileNameMaxLen bounds a directory entry's name, matching the fixed-width
// null-terminated name field spec.md §4.6 describes.
const FileNameMaxLen = 32

// directoryGrowBy is the fixed increment a Directory's in-memory table
// grows by when Add finds no free row (spec.md §4.6).
const directoryGrowBy = 10

// entrySize is the on-disk width of one DirectoryEntry: inUse (1),
// isDirectory (1), markedForDeletion (1), padding (1), name
// (FileNameMaxLen), sector (4).
const entrySize = 4 + FileNameMaxLen + 4

type entry struct {
	inUse              bool
	isDirectory        bool
	markedForDeletion  bool
	name               string
	sector             int
}

// Directory is a contiguous array of fixed-width entries, stored as the
// body of a regular file (spec.md §4.6). All operations assume the caller
// already holds whatever mutual exclusion protects the directory (the
// file-system façade lock, per invariant I8).
type Directory struct {
	entries []entry
}

// NewDirectory creates an empty directory with room for initialSize
// entries.
func NewDirectory(initialSize int) *Directory {
	return &Directory{entries: make([]entry, initialSize)}
}

// Find returns the header sector of the in-use, not-marked-for-deletion
// entry named name, or -1 if none matches (invariant I5 guarantees at
// most one such entry).
func (d *Directory) Find(name string) int {
	for _, e := range d.entries {
		if e.inUse && !e.markedForDeletion && e.name == name {
			return e.sector
		}
	}
	return -1
}

// FindEntry is Find plus the isDirectory bit, for callers that must reject
// treating a plain file as a path component (spec.md §4.8 LoadDirectory:
// "look up as a sub-directory (isDirectory must be set)"). ok is false if
// no in-use, not-marked-for-deletion entry named name exists.
func (d *Directory) FindEntry(name string) (sector int, isDirectory bool, ok bool) {
	for _, e := range d.entries {
		if e.inUse && !e.markedForDeletion && e.name == name {
			return e.sector, e.isDirectory, true
		}
	}
	return -1, false, false
}

// Add inserts a new entry naming sector as isDirectory, growing the table
// by directoryGrowBy rows if no free row is available. Rejects (returns
// false) if Find(name) would already succeed.
func (d *Directory) Add(name string, sector int, isDirectory bool) bool {
	if len(name) > FileNameMaxLen {
		return false
	}
	if d.Find(name) != -1 {
		return false
	}

	for i := range d.entries {
		if !d.entries[i].inUse {
			d.entries[i] = entry{inUse: true, isDirectory: isDirectory, name: name, sector: sector}
			return true
		}
	}

	old := d.entries
	d.entries = make([]entry, len(old)+directoryGrowBy)
	copy(d.entries, old)
	d.entries[len(old)] = entry{inUse: true, isDirectory: isDirectory, name: name, sector: sector}
	return true
}

// Remove clears the in-use bit of the entry named name. Returns false if
// no such entry exists.
func (d *Directory) Remove(name string) bool {
	for i := range d.entries {
		if d.entries[i].inUse && d.entries[i].name == name {
			d.entries[i] = entry{}
			return true
		}
	}
	return false
}

// MarkForDeletion sets the markedForDeletion bit on the entry whose target
// header is at sector, serving the file manager's deferred-deletion path
// (spec.md §4.7, invariant I4).
func (d *Directory) MarkForDeletion(sector int) {
	for i := range d.entries {
		if d.entries[i].inUse && d.entries[i].sector == sector {
			d.entries[i].markedForDeletion = true
			return
		}
	}
}

// IsMarkedForDeletion reports whether the entry targeting sector is
// pending deletion.
func (d *Directory) IsMarkedForDeletion(sector int) bool {
	for _, e := range d.entries {
		if e.inUse && e.sector == sector {
			return e.markedForDeletion
		}
	}
	return false
}

// RemoveMarkedForDeletion clears the in-use bit of the entry targeting
// sector, which must already be marked for deletion. Called once the
// file's reference count drops to zero.
func (d *Directory) RemoveMarkedForDeletion(sector int) {
	for i := range d.entries {
		if d.entries[i].inUse && d.entries[i].sector == sector && d.entries[i].markedForDeletion {
			d.entries[i] = entry{}
			return
		}
	}
}

// IsEmpty reports whether the directory has no in-use, non-pending-delete
// rows other than implicit "." / ".." (those are not modeled as entries
// here; the façade resolves them specially).
func (d *Directory) IsEmpty() bool {
	for _, e := range d.entries {
		if e.inUse && !e.markedForDeletion {
			return false
		}
	}
	return true
}

// List returns the names of every in-use, non-pending-delete entry.
func (d *Directory) List() []string {
	var names []string
	for _, e := range d.entries {
		if e.inUse && !e.markedForDeletion {
			names = append(names, e.name)
		}
	}
	return names
}

// DirectoryEntryInfo is ListContents' per-entry description.
type DirectoryEntryInfo struct {
	Name        string
	Sector      int
	IsDirectory bool
}

// ListContents returns a freshly-allocated listing of every in-use,
// non-pending-delete entry with enough detail to distinguish files from
// sub-directories (for the PS/ListDirectoryContents syscall surface).
func (d *Directory) ListContents() []DirectoryEntryInfo {
	var out []DirectoryEntryInfo
	for _, e := range d.entries {
		if e.inUse && !e.markedForDeletion {
			out = append(out, DirectoryEntryInfo{Name: e.name, Sector: e.sector, IsDirectory: e.isDirectory})
		}
	}
	return out
}

// encodedSize returns the number of bytes the table currently occupies on
// disk.
func (d *Directory) encodedSize() int {
	return len(d.entries) * entrySize
}

func (d *Directory) encode() []byte {
	buf := make([]byte, d.encodedSize())
	for i, e := range d.entries {
		off := i * entrySize
		if e.inUse {
			buf[off] = 1
		}
		if e.isDirectory {
			buf[off+1] = 1
		}
		if e.markedForDeletion {
			buf[off+2] = 1
		}
		nameBytes := []byte(e.name)
		copy(buf[off+4:off+4+FileNameMaxLen], nameBytes)
		putInt32(buf[off+4+FileNameMaxLen:], e.sector)
	}
	return buf
}

func (d *Directory) decode(buf []byte) {
	n := len(buf) / entrySize
	d.entries = make([]entry, n)
	for i := range d.entries {
		off := i * entrySize
		e := entry{
			inUse:             buf[off] != 0,
			isDirectory:       buf[off+1] != 0,
			markedForDeletion: buf[off+2] != 0,
			name:              cString(buf[off+4 : off+4+FileNameMaxLen]),
			sector:            getInt32(buf[off+4+FileNameMaxLen:]),
		}
		d.entries[i] = e
	}
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// FetchFrom loads the directory's entry table from hdr's data sectors.
func (d *Directory) FetchFrom(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader) {
	raw := make([]byte, hdr.FileLength())
	readRaw(ctx, disk, hdr, raw)
	d.decode(raw)
}

// WriteBack persists the directory's entry table through hdr, growing hdr
// (via freeMap) first if the in-memory table has grown past hdr's current
// allocation. Returns false if growth was needed but freeMap could not
// supply enough sectors.
func (d *Directory) WriteBack(ctx context.Context, disk *devio.SynchDisk, hdr *FileHeader, freeMap *FreeMap) bool {
	size := d.encodedSize()
	if size > hdr.FileLength() {
		if !hdr.Extend(freeMap, size) {
			return false
		}
	}
	writeRaw(ctx, disk, hdr, d.encode())
	return true
}
