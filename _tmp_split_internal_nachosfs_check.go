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

package nachosfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nachos-go/nachos/internal/fsutil"
	"github.com/nachos-go/nachos/internal/klog"
)

// CheckReport is the structured result of a consistency pass (spec.md
// §4.8 Check): every sector referenced twice (aliasing), every name
// appearing twice within one directory, and every disagreement between
// the shadow bitmap built by walking the tree and the persisted free map.
// Check() itself collapses this to a single bool, matching fs.go's own
// pattern of a rich internal report behind a simple public signal.
type CheckReport struct {
	DuplicateNames   []string
	DuplicateSectors []int
	OrphanedSectors  []int // marked used in freeMap but never referenced
	MissingSectors   []int // referenced by the tree but not marked used
}

// OK reports whether the report found no inconsistency.
func (r CheckReport) OK() bool {
	return len(r.DuplicateNames) == 0 && len(r.DuplicateSectors) == 0 &&
		len(r.OrphanedSectors) == 0 && len(r.MissingSectors) == 0
}

// saveSnapshot writes report as YAML into a uuid-named scratch file under
// dir, for postmortem debugging of a failed consistency pass. The
// snapshot's name is not part of any addressed contract (unlike swap-file
// names, which are pid-deterministic) — it only needs to not collide with
// a prior run's snapshot.
func saveSnapshot(dir string, report CheckReport) (string, error) {
	if dir == "" {
		return "", nil
	}
	buf, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("nachosfs: marshal check report: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("check-%s.yaml", uuid.NewString()))
	if err := os.WriteFile(name, buf, 0o644); err != nil {
		return "", fmt.Errorf("nachosfs: write check report: %w", err)
	}
	return name, nil
}

// Check walks the directory tree from the root, shadow-marking every
// sector a live header, indirection block, or directory entry references,
// and asserts the result equals the persisted free map (property P1).
// Specifics of any failure are logged under the "fs" debug channel; the
// public contract is the single returned bool (spec.md §4.8).
func (fs *FileSystem) Check(ctx context.Context) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	report := fs.checkLocked(ctx)
	if !report.OK() {
		klog.Debug("fs", "consistency check failed: %+v", report)
		if path, err := saveSnapshot(fs.snapshotDir, report); err != nil {
			klog.Debug("fs", "check snapshot: %v", err)
		} else if path != "" {
			klog.Debug("fs", "check snapshot written to %s", path)
		}
	}
	return report.OK()
}

func (fs *FileSystem) checkLocked(ctx context.Context) CheckReport {
	shadow := make(map[int]bool)
	var report CheckReport

	mark := func(sector int) {
		if shadow[sector] {
			report.DuplicateSectors = append(report.DuplicateSectors, sector)
			return
		}
		shadow[sector] = true
	}

	mark(FreeMapSector)
	mark(DirectorySector)
	for _, s := range fs.freeMapHeader.Sectors() {
		mark(s)
	}

	fs.checkDirLocked(ctx, DirectorySector, mark, &report)

	for sector := 0; sector < fs.disk.NumSectors(); sector++ {
		marked := shadow[sector]
		used := fs.freeMap.Test(sector)
		switch {
		case marked && !used:
			report.MissingSectors = append(report.MissingSectors, sector)
		case used && !marked:
			report.OrphanedSectors = append(report.OrphanedSectors, sector)
		}
	}
	return report
}

// checkDirLocked marks every sector the directory at sector occupies, then
// recurses into every sub-directory entry and marks every sector a
// plain-file entry occupies.
func (fs *FileSystem) checkDirLocked(ctx context.Context, sector int, mark func(int), report *CheckReport) {
	hdr := fsutil.NewFileHeader()
	hdr.FetchFrom(ctx, fs.disk, sector)
	for _, s := range hdr.Sectors() {
		mark(s)
	}

	dir := fsutil.NewDirectory(0)
	dir.FetchFrom(ctx, fs.disk, hdr)

	seen := make(map[string]bool)
	for _, e := range dir.ListContents() {
		if seen[e.Name] {
			report.DuplicateNames = append(report.DuplicateNames, e.Name)
		}
		seen[e.Name] = true

		mark(e.Sector)
		if e.IsDirectory {
			fs.checkDirLocked(ctx, e.Sector, mark, report)
			continue
		}
		childHeader := fsutil.NewFileHeader()
		childHeader.FetchFrom(ctx, fs.disk, e.Sector)
		for _, s := range childHeader.Sectors() {
			mark(s)
		}
	}
}


