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

// Package nachosfs is the file-system façade (spec.md §4.8): path
// resolution, create/open/close/remove for files and directories, cwd, and
// the consistency check. A single process-wide lock serializes every
// mutating operation (invariant I8); the lock is a
// github.com/jacobsa/syncutil.InvariantMutex, the same idiom fs/fs.go uses
// for its own global lock plus a standing checkInvariants callback.
package nachosfs

import (
	"context"
	"fmt"

	"github.com/jacobsa/syncutil"

	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/filemgr"
	"github.com/nachos-go/nachos/internal/fsutil"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/klog"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/thread"
)

// FreeMapSector and DirectorySector are the two well-known sectors every
// formatted disk carries (spec.md §6): the free map's own file header and
// the root directory's file header.
const (
	FreeMapSector  = 0
	DirectorySector = 1
)

// FileSystem is the façade: free map, root directory, and the open-file
// cache, guarded by a single global lock per invariant I8 ("the current
// thread holds the global file-system lock for the entire duration of
// every mutating façade operation").
type FileSystem struct {
	disk    *devio.SynchDisk
	metrics metrics.Handle
	manager *filemgr.Manager

	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	freeMap       *fsutil.FreeMap
	freeMapHeader *fsutil.FileHeader

	// snapshotDir, when non-empty, is where Check() writes a YAML
	// postmortem snapshot on failure (see check.go's saveSnapshot).
	snapshotDir string
}

// SetSnapshotDir sets the directory Check() writes postmortem YAML
// snapshots to on failure. Empty (the default) disables snapshot writing.
func (fs *FileSystem) SetSnapshotDir(dir string) { fs.snapshotDir = dir }

// NewFileSystem constructs a façade over disk. If format is true, the disk
// is treated as blank and Format is run to lay down the free map and root
// directory; otherwise both are loaded from their well-known sectors.
func NewFileSystem(ctx context.Context, disk *devio.SynchDisk, m metrics.Handle, format bool) (*FileSystem, error) {
	fs := &FileSystem{disk: disk, metrics: m, manager: filemgr.NewManager(disk)}
	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariantsLocked)

	if format {
		if err := fs.Format(ctx); err != nil {
			return nil, err
		}
		return fs, nil
	}

	fs.freeMapHeader = fsutil.NewFileHeader()
	fs.freeMapHeader.FetchFrom(ctx, disk, FreeMapSector)
	fs.freeMap = fsutil.NewFreeMap(disk.NumSectors())
	fs.freeMap.FetchFrom(ctx, disk, fs.freeMapHeader)
	return fs, nil
}

func (fs *FileSystem) checkInvariantsLocked() {
	if fs.freeMap == nil || fs.freeMapHeader == nil {
		panic("nachosfs: invariant violation: façade used before Format or load")
	}
}

// Format lays down a blank free map and empty root directory on disk,
// marking FreeMapSector and DirectorySector themselves as in use (spec.md
// §6's well-known sectors, invariant I1).
func (fs *FileSystem) Format(ctx context.Context) error {
	fs.freeMap = fsutil.NewFreeMap(fs.disk.NumSectors())
	fs.freeMap.Mark(FreeMapSector)
	fs.freeMap.Mark(DirectorySector)

	fs.freeMapHeader = fsutil.NewFileHeader()
	bodySize := (fs.disk.NumSectors() + 7) / 8
	if !fs.freeMapHeader.Allocate(fs.freeMap, bodySize) {
		return fmt.Errorf("nachosfs: format: free map body: %w", kerrors.OutOfSpace)
	}

	rootHeader := fsutil.NewFileHeader()
	if !rootHeader.Allocate(fs.freeMap, 0) {
		return fmt.Errorf("nachosfs: format: root directory: %w", kerrors.OutOfSpace)
	}

	fs.freeMapHeader.WriteBack(ctx, fs.disk, FreeMapSector)
	rootHeader.WriteBack(ctx, fs.disk, DirectorySector)
	fs.freeMap.WriteBack(ctx, fs.disk, fs.freeMapHeader)
	fs.metrics.FreeSectors(fs.freeMap.CountClear())
	return nil
}

// reloadFreeMapLocked discards any in-memory free-map mutation and
// refetches it from disk — the recovery step every mutating operation
// takes on a mid-operation failure (spec.md §7 OutOfSpace propagation
// policy), called with fs.mu already held.
func (fs *FileSystem) reloadFreeMapLocked(ctx context.Context) {
	fm := fsutil.NewFreeMap(fs.disk.NumSectors())
	fm.FetchFrom(ctx, fs.disk, fs.freeMapHeader)
	fs.freeMap = fm
}

func (fs *FileSystem) flushFreeMapLocked(ctx context.Context) {
	fs.freeMap.WriteBack(ctx, fs.disk, fs.freeMapHeader)
	fs.metrics.FreeSectors(fs.freeMap.CountClear())
}

// closeHandleLocked closes h, re-deriving its parent directory by sector
// to check the deferred-deletion bit (filemgr.Manager.Close needs the
// parent's loaded Directory and the façade's free map). Called with fs.mu
// already held.
func (fs *FileSystem) closeHandleLocked(ctx context.Context, h *filemgr.OpenFileHandle) {
	parentSector := h.DirectorySector()
	parentHandle := fs.manager.OpenBySector(ctx, parentSector, parentSector)
	parentDir := fsutil.NewDirectory(0)
	parentDir.FetchFrom(ctx, fs.disk, parentHandle.Header())

	if err := fs.manager.Close(ctx, h, parentDir, fs.freeMap); err != nil {
		klog.Debug("fs", "close %d: %v", h.HeaderSector(), err)
	}

	parentDir.WriteBack(ctx, fs.disk, parentHandle.Header(), fs.freeMap)
	fs.flushFreeMapLocked(ctx)

	// Release our own bookkeeping open on the parent. parentDir here is the
	// parent's own body, which never contains a marked-for-deletion entry
	// pointing at itself, so this recursion bottoms out in one extra step.
	grandparentSector := parentHandle.DirectorySector()
	grandparent := fsutil.NewDirectory(0)
	if grandparentSector == parentSector {
		grandparent = parentDir
	} else {
		gHandle := fs.manager.OpenBySector(ctx, grandparentSector, grandparentSector)
		grandparent.FetchFrom(ctx, fs.disk, gHandle.Header())
		_ = fs.manager.Close(ctx, gHandle, grandparent, fs.freeMap)
	}
	_ = fs.manager.Close(ctx, parentHandle, grandparent, fs.freeMap)
}

// Open resolves path to an existing file or directory and returns a handle
// bound to the shared, reference-counted cache entry.
func (fs *FileSystem) Open(ctx context.Context, path string) (*filemgr.OpenFileHandle, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	frames, _, err := fs.resolveLocked(ctx, path, true)
	if err != nil {
		return nil, err
	}
	target := frames[len(frames)-1]
	fs.closeFramesLocked(ctx, frames[:len(frames)-1])
	return target.handle, nil
}

// Close releases a handle obtained from Open, CreateFile, or
// CreateDirectory, performing deferred deallocation if this was the last
// reference to a file marked for deletion (invariant I4, property P5).
func (fs *FileSystem) Close(ctx context.Context, h *filemgr.OpenFileHandle) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.closeHandleLocked(ctx, h)
	return nil
}

// CreateFile creates a new, empty-or-sized regular file at path. Fails
// with AlreadyExists if the name is taken in its parent directory, or
// OutOfSpace if the header sector, data blocks, or directory growth
// cannot be satisfied — in which case no persisted state changes (spec.md
// §4.8).
func (fs *FileSystem) CreateFile(ctx context.Context, path string, size int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createLocked(ctx, path, size, false)
}

// CreateDirectory creates a new, empty sub-directory at path.
func (fs *FileSystem) CreateDirectory(ctx context.Context, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createLocked(ctx, path, 0, true)
}

func (fs *FileSystem) createLocked(ctx context.Context, path string, size int, isDirectory bool) error {
	frames, name, err := fs.resolveLocked(ctx, path, false)
	if err != nil {
		return err
	}
	defer fs.closeFramesLocked(ctx, frames)
	parent := frames[len(frames)-1]

	if name == "" {
		return fmt.Errorf("nachosfs: create %q: %w", path, kerrors.BadArgument)
	}
	if _, _, ok := parent.dir.FindEntry(name); ok {
		return fmt.Errorf("nachosfs: create %q: %w", path, kerrors.AlreadyExists)
	}

	sector := fs.freeMap.Find()
	if sector == -1 {
		fs.reloadFreeMapLocked(ctx)
		return fmt.Errorf("nachosfs: create %q: %w", path, kerrors.OutOfSpace)
	}

	hdr := fsutil.NewFileHeader()
	if !hdr.Allocate(fs.freeMap, size) {
		fs.reloadFreeMapLocked(ctx)
		return fmt.Errorf("nachosfs: create %q: %w", path, kerrors.OutOfSpace)
	}

	if !parent.dir.Add(name, sector, isDirectory) {
		fs.reloadFreeMapLocked(ctx)
		return fmt.Errorf("nachosfs: create %q: %w", path, kerrors.AlreadyExists)
	}

	if !parent.dir.WriteBack(ctx, fs.disk, parent.handle.Header(), fs.freeMap) {
		fs.reloadFreeMapLocked(ctx)
		return fmt.Errorf("nachosfs: create %q: directory growth: %w", path, kerrors.OutOfSpace)
	}

	hdr.WriteBack(ctx, fs.disk, sector)
	fs.flushFreeMapLocked(ctx)
	return nil
}

// RemoveFile deletes the file named by path from its parent directory. If
// the file is currently open, deletion is deferred to its last Close
// (invariant I4); otherwise its blocks are freed immediately.
func (fs *FileSystem) RemoveFile(ctx context.Context, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	frames, name, err := fs.resolveLocked(ctx, path, false)
	if err != nil {
		return err
	}
	defer fs.closeFramesLocked(ctx, frames)
	parent := frames[len(frames)-1]

	_, isDir, ok := parent.dir.FindEntry(name)
	if !ok {
		return fmt.Errorf("nachosfs: remove %q: %w", path, kerrors.NotFound)
	}
	if isDir {
		return fmt.Errorf("nachosfs: remove %q: is a directory: %w", path, kerrors.BadArgument)
	}

	if err := fs.manager.Remove(ctx, parent.dir, fs.freeMap, name); err != nil {
		return fmt.Errorf("nachosfs: remove %q: %w", path, err)
	}
	parent.dir.WriteBack(ctx, fs.disk, parent.handle.Header(), fs.freeMap)
	fs.flushFreeMapLocked(ctx)
	return nil
}

// RemoveDirectory deletes the empty sub-directory named by path. Fails
// with NotEmpty if the directory has any in-use entry. A currently-open
// directory is marked for deferred deletion exactly like a file.
func (fs *FileSystem) RemoveDirectory(ctx context.Context, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	frames, name, err := fs.resolveLocked(ctx, path, false)
	if err != nil {
		return err
	}
	defer fs.closeFramesLocked(ctx, frames)
	parent := frames[len(frames)-1]

	sector, isDir, ok := parent.dir.FindEntry(name)
	if !ok {
		return fmt.Errorf("nachosfs: remove directory %q: %w", path, kerrors.NotFound)
	}
	if !isDir {
		return fmt.Errorf("nachosfs: remove directory %q: not a directory: %w", path, kerrors.BadArgument)
	}

	scratchHeader := fsutil.NewFileHeader()
	scratchHeader.FetchFrom(ctx, fs.disk, sector)
	scratchDir := fsutil.NewDirectory(0)
	scratchDir.FetchFrom(ctx, fs.disk, scratchHeader)
	if !scratchDir.IsEmpty() {
		return fmt.Errorf("nachosfs: remove directory %q: %w", path, kerrors.NotEmpty)
	}

	if err := fs.manager.Remove(ctx, parent.dir, fs.freeMap, name); err != nil {
		return fmt.Errorf("nachosfs: remove directory %q: %w", path, err)
	}
	parent.dir.WriteBack(ctx, fs.disk, parent.handle.Header(), fs.freeMap)
	fs.flushFreeMapLocked(ctx)
	return nil
}

// ExtendFile grows h's file to hold bytes total length, flushing its
// header and the free map on success. It acquires fs.mu itself, and that
// lock is not reentrant: calling ExtendFile while already holding fs.mu
// deadlocks.
func (fs *FileSystem) ExtendFile(ctx context.Context, h *filemgr.OpenFileHandle, bytes int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !h.Header().Extend(fs.freeMap, bytes) {
		fs.reloadFreeMapLocked(ctx)
		return fmt.Errorf("nachosfs: extend: %w", kerrors.OutOfSpace)
	}
	h.Header().WriteBack(ctx, fs.disk, h.HeaderSector())
	fs.flushFreeMapLocked(ctx)
	return nil
}

// ChangeDirectory sets ctx's thread's current-working-directory handle to
// the directory named by path, closing whatever handle it previously held.
func (fs *FileSystem) ChangeDirectory(ctx context.Context, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	frames, _, err := fs.resolveLocked(ctx, path, true)
	if err != nil {
		return err
	}
	target := frames[len(frames)-1]
	if !target.isDirectory {
		fs.closeFramesLocked(ctx, frames)
		return fmt.Errorf("nachosfs: change directory %q: not a directory: %w", path, kerrors.BadArgument)
	}
	fs.closeFramesLocked(ctx, frames[:len(frames)-1])

	t := thread.FromContext(ctx)
	if old, ok := t.Cwd().(*filemgr.OpenFileHandle); ok && old != nil {
		fs.closeHandleLocked(ctx, old)
	}
	t.SetCwd(target.handle)
	return nil
}

// ListDirectoryContents returns the listing of the directory at path.
func (fs *FileSystem) ListDirectoryContents(ctx context.Context, path string) ([]fsutil.DirectoryEntryInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	frames, _, err := fs.resolveLocked(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer fs.closeFramesLocked(ctx, frames)
	target := frames[len(frames)-1]
	if !target.isDirectory {
		return nil, fmt.Errorf("nachosfs: list %q: not a directory: %w", path, kerrors.BadArgument)
	}
	return target.dir.ListContents(), nil
}


