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

// Package filemgr is the open-file cache (spec.md §4.7): shared state for
// every currently-open file, keyed by the file's header sector, with a
// reference count and deferred deletion on last Close. The reference
// counting discipline follows the teacher's lookup-count helper (a plain
// counter with a destroy callback fired at zero, external synchronization
// required) generalized from one count per inode to one entry per open
// sector.
package filemgr

import (
	"context"

	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/fsutil"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/sync2"
)

// OpenFileInfo is the shared state of one currently-open file (spec.md §3):
// referenceCount, a per-file RW-lock serializing concurrent reads/writes,
// and the cached in-memory header. Callers hold the file-system façade's
// lock while touching the map that owns these; the RW-lock here protects
// only this file's data, per invariant I8's lock ordering (façade lock,
// then per-file RW-lock).
type OpenFileInfo struct {
	headerSector    int
	directorySector int

	// GUARDED_BY(the file-system façade's lock)
	referenceCount int

	RWLock *sync2.RWLock
	Header *fsutil.FileHeader
}

// OpenFileHandle is a single holder's view of an open file: which sector
// it names, the shared OpenFileInfo it is bound to, and an independent
// current position (spec.md §3).
type OpenFileHandle struct {
	info     *OpenFileInfo
	position int
	disk     *devio.SynchDisk
}

// Manager is the open-file cache, keyed by header sector (spec.md §4.7).
// Every method requires the caller to already hold the file-system
// façade's lock (invariant I8).
type Manager struct {
	disk  *devio.SynchDisk
	open  map[int]*OpenFileInfo
}

// NewManager creates an empty open-file cache backed by disk.
func NewManager(disk *devio.SynchDisk) *Manager {
	return &Manager{disk: disk, open: make(map[int]*OpenFileInfo)}
}

// OpenBySector opens (or reuses) the cache entry for headerSector
// directly, without a directory-name lookup. Used for the root directory
// and free-map bootstrap files, which are not named entries of any
// enclosing directory, and by the façade's own bookkeeping opens (e.g. to
// peek at a parent directory's body while closing a child).
// directorySector is the sector whose body a deferred-deletion check on
// headerSector should consult; pass headerSector itself for files with no
// real parent (the root).
func (m *Manager) OpenBySector(ctx context.Context, headerSector, directorySector int) *OpenFileHandle {
	info, ok := m.open[headerSector]
	if !ok {
		hdr := fsutil.NewFileHeader()
		hdr.FetchFrom(ctx, m.disk, headerSector)
		info = &OpenFileInfo{
			headerSector:    headerSector,
			directorySector: directorySector,
			RWLock:          sync2.NewRWLock(),
			Header:          hdr,
		}
		m.open[headerSector] = info
	}
	info.referenceCount++

	return &OpenFileHandle{info: info, disk: m.disk}
}

// Open resolves name to a header sector via dir (already loaded by the
// caller), creating or reusing the cache entry and returning a fresh
// synchronized handle bound to it. Returns kerrors.NotFound if name is not
// present in dir.
func (m *Manager) Open(ctx context.Context, dir *fsutil.Directory, directorySector int, name string) (*OpenFileHandle, error) {
	sector := dir.Find(name)
	if sector == -1 {
		return nil, kerrors.NotFound
	}

	info, ok := m.open[sector]
	if !ok {
		hdr := fsutil.NewFileHeader()
		hdr.FetchFrom(ctx, m.disk, sector)
		info = &OpenFileInfo{
			headerSector:    sector,
			directorySector: directorySector,
			RWLock:          sync2.NewRWLock(),
			Header:          hdr,
		}
		m.open[sector] = info
	}
	info.referenceCount++

	return &OpenFileHandle{info: info, disk: m.disk}, nil
}

// Close decrements the handle's OpenFileInfo reference count. If it
// reaches zero and the owning directory entry is marked for deletion, the
// file's data blocks and header sector are freed and its directory row is
// removed in dir and freeMap — the deferred deletion path (spec.md §4.7,
// invariant I4, property P5). Close writes nothing back to disk; flushing
// dir and freeMap afterwards is the caller's job. dir and
// freeMap must be the caller's already-loaded, already-locked copies of
// the owning directory and the free map.
func (m *Manager) Close(ctx context.Context, h *OpenFileHandle, dir *fsutil.Directory, freeMap *fsutil.FreeMap) error {
	info := h.info
	info.referenceCount--
	if info.referenceCount < 0 {
		panic("filemgr: reference count underflow")
	}
	if info.referenceCount > 0 {
		return nil
	}

	delete(m.open, info.headerSector)

	if !dir.IsMarkedForDeletion(info.headerSector) {
		return nil
	}

	info.Header.Deallocate(freeMap)
	freeMap.Clear(info.headerSector)
	dir.RemoveMarkedForDeletion(info.headerSector)
	return nil
}

// Remove deletes name from dir. If the file is not currently managed (no
// open handles), it is deallocated immediately. If it is managed, its
// directory row is only marked for deletion; the actual deallocation
// happens in Close once the reference count drops to zero.
func (m *Manager) Remove(ctx context.Context, dir *fsutil.Directory, freeMap *fsutil.FreeMap, name string) error {
	sector := dir.Find(name)
	if sector == -1 {
		return kerrors.NotFound
	}

	if _, managed := m.open[sector]; managed {
		dir.MarkForDeletion(sector)
		return nil
	}

	hdr := fsutil.NewFileHeader()
	hdr.FetchFrom(ctx, m.disk, sector)
	hdr.Deallocate(freeMap)
	dir.Remove(name)
	freeMap.Clear(sector)
	return nil
}

// IsManaged reports whether sector currently has an open-file cache entry.
func (m *Manager) IsManaged(sector int) bool {
	_, ok := m.open[sector]
	return ok
}

// HeaderSector returns the sector this handle's file is rooted at.
func (h *OpenFileHandle) HeaderSector() int { return h.info.headerSector }

// DirectorySector returns the sector of the directory file that, per this
// handle's cache entry, names this file — the parent the façade must
// consult for a deferred-deletion check when the handle's last Close
// fires.
func (h *OpenFileHandle) DirectorySector() int { return h.info.directorySector }

// Header returns the handle's shared, cached in-memory file header. The
// façade uses this to read/extend/flush the file's block map directly
// (ExtendFile, directory and free-map body I/O) without a second fetch
// from disk.
func (h *OpenFileHandle) Header() *fsutil.FileHeader { return h.info.Header }

// ReadAt reads len(buf) bytes starting at the handle's current position
// under the shared side of the file's RW-lock, advancing position by the
// number of bytes actually read.
func (h *OpenFileHandle) ReadAt(ctx context.Context, buf []byte) int {
	h.info.RWLock.AcquireRead(ctx)
	defer h.info.RWLock.ReleaseRead(ctx)

	n := readAt(ctx, h.disk, h.info.Header, h.position, buf)
	h.position += n
	return n
}

// WriteAt writes buf starting at the handle's current position under the
// exclusive side of the file's RW-lock, advancing position by len(buf).
func (h *OpenFileHandle) WriteAt(ctx context.Context, buf []byte) int {
	h.info.RWLock.AcquireWrite(ctx)
	defer h.info.RWLock.ReleaseWrite(ctx)

	n := writeAt(ctx, h.disk, h.info.Header, h.position, buf)
	h.position += n
	return n
}

// Length returns the file's current logical size.
func (h *OpenFileHandle) Length() int {
	return h.info.Header.FileLength()
}

// Seek repositions the handle.
func (h *OpenFileHandle) Seek(position int) { h.position = position }


