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
	"strings"

	"github.com/nachos-go/nachos/internal/filemgr"
	"github.com/nachos-go/nachos/internal/fsutil"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/thread"
)

// frame is one directory visited while walking a path: the open handle on
// its own file header, its entry table fetched from that handle's body,
// and whether it is a directory itself (always true for frame 0).
// owned records whether this call must Close the handle when it is done
// with it — false only for frame 0 when it is the thread's own cwd handle,
// which the thread retains ownership of.
type frame struct {
	handle      *filemgr.OpenFileHandle
	dir         *fsutil.Directory
	isDirectory bool
	owned       bool
}

// splitPath breaks path into non-empty '/'-separated components.
func splitPath(path string) []string {
	var tokens []string
	for _, tok := range strings.Split(path, "/") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "/")
}

// resolveLocked walks path (spec.md §4.8 LoadDirectory): absolute paths
// start at DirectorySector, relative paths start at the calling thread's
// cwd. Every non-terminal token must name a sub-directory. If includeLast
// is true, the final token is opened too and frames[len(frames)-1] is the
// target; otherwise resolution stops at the enclosing directory and name
// is the final token, for the caller to Add/Find/Remove itself. Returns
// kerrors.NotFound if any intermediate lookup fails. The caller must hold
// fs.mu and must eventually close every owned frame via
// closeFramesLocked.
func (fs *FileSystem) resolveLocked(ctx context.Context, path string, includeLast bool) (frames []frame, name string, err error) {
	tokens := splitPath(path)

	var start frame
	if isAbsolute(path) {
		h := fs.manager.OpenBySector(ctx, DirectorySector, DirectorySector)
		start = frame{handle: h, owned: true, isDirectory: true}
	} else if cwd, ok := thread.FromContext(ctx).Cwd().(*filemgr.OpenFileHandle); ok && cwd != nil {
		start = frame{handle: cwd, owned: false, isDirectory: true}
	} else {
		h := fs.manager.OpenBySector(ctx, DirectorySector, DirectorySector)
		start = frame{handle: h, owned: true, isDirectory: true}
	}
	start.dir = fsutil.NewDirectory(0)
	start.dir.FetchFrom(ctx, fs.disk, start.handle.Header())
	frames = append(frames, start)

	total := len(tokens)
	iterCount := total
	if !includeLast {
		iterCount--
	}
	if iterCount < 0 {
		iterCount = 0
	}

	for i := 0; i < iterCount; i++ {
		tok := tokens[i]
		cur := frames[len(frames)-1]

		sector, isDir, ok := cur.dir.FindEntry(tok)
		if !ok {
			fs.closeFramesLocked(ctx, frames)
			return nil, "", fmt.Errorf("nachosfs: %q: %w", path, kerrors.NotFound)
		}
		if !isDir && i != total-1 {
			fs.closeFramesLocked(ctx, frames)
			return nil, "", fmt.Errorf("nachosfs: %q: %q is not a directory: %w", path, tok, kerrors.NotFound)
		}

		h, openErr := fs.manager.Open(ctx, cur.dir, cur.handle.HeaderSector(), tok)
		if openErr != nil {
			fs.closeFramesLocked(ctx, frames)
			return nil, "", fmt.Errorf("nachosfs: %q: %w", path, openErr)
		}
		nd := fsutil.NewDirectory(0)
		nd.FetchFrom(ctx, fs.disk, h.Header())
		frames = append(frames, frame{handle: h, dir: nd, owned: true, isDirectory: isDir})
		_ = sector
	}

	if !includeLast && total > 0 {
		name = tokens[total-1]
	}
	return frames, name, nil
}

// closeFramesLocked closes every owned frame in frames, innermost first.
// The caller must hold fs.mu.
func (fs *FileSystem) closeFramesLocked(ctx context.Context, frames []frame) {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].owned {
			fs.closeHandleLocked(ctx, frames[i].handle)
		}
	}
}
