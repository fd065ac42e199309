package filemgr

import (
	"context"
	"testing"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/fsutil"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/sync2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHolder struct{ id uint64 }

func (h *fakeHolder) ID() uint64               { return h.id }
func (h *fakeHolder) Priority() int            { return 0 }
func (h *fakeHolder) Prioritize(int)           {}
func (h *fakeHolder) RestoreOriginalPriority() {}

func testCtx() context.Context {
	return sync2.WithHolder(context.Background(), &fakeHolder{id: 1})
}

// fixture creates a disk with a file named "a" of size bytes already
// created at sector 2, with its directory entry in dir (sector 1) and a
// free map with sectors 0 (free map file), 1 (directory file), and 2
// (file "a") already marked.
type fixture struct {
	ctx     context.Context
	disk    *devio.SynchDisk
	freeMap *fsutil.FreeMap
	dir     *fsutil.Directory
	mgr     *Manager
	sector  int
}

func newFixture(t *testing.T, size int) *fixture {
	ctx := testCtx()
	disk := devio.NewSynchDisk(device.NewAsyncDisk(300, 0), metrics.NewNoop())
	freeMap := fsutil.NewFreeMap(300)
	freeMap.Mark(0)
	freeMap.Mark(1)

	hdr := fsutil.NewFileHeader()
	sector := freeMap.Find()
	require.True(t, hdr.Allocate(freeMap, size))
	hdr.WriteBack(ctx, disk, sector)

	dir := fsutil.NewDirectory(4)
	require.True(t, dir.Add("a", sector, false))

	return &fixture{
		ctx:     ctx,
		disk:    disk,
		freeMap: freeMap,
		dir:     dir,
		mgr:     NewManager(disk),
		sector:  sector,
	}
}

func TestOpenCloseBalance(t *testing.T) {
	f := newFixture(t, 0)

	h, err := f.mgr.Open(f.ctx, f.dir, 1, "a")
	require.NoError(t, err)
	assert.True(t, f.mgr.IsManaged(f.sector))

	require.NoError(t, f.mgr.Close(f.ctx, h, f.dir, f.freeMap))
	assert.False(t, f.mgr.IsManaged(f.sector), "the cache entry must be gone after the final Close")
}

func TestOpenMissingNameFails(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.mgr.Open(f.ctx, f.dir, 1, "missing")
	assert.Error(t, err)
}

func TestOpenRefCountsSharedAcrossMultipleOpens(t *testing.T) {
	f := newFixture(t, 0)

	h1, err := f.mgr.Open(f.ctx, f.dir, 1, "a")
	require.NoError(t, err)
	h2, err := f.mgr.Open(f.ctx, f.dir, 1, "a")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Close(f.ctx, h1, f.dir, f.freeMap))
	assert.True(t, f.mgr.IsManaged(f.sector), "still one open handle outstanding")

	require.NoError(t, f.mgr.Close(f.ctx, h2, f.dir, f.freeMap))
	assert.False(t, f.mgr.IsManaged(f.sector))
}

func TestWriteAtThenReadAtRoundTrips(t *testing.T) {
	f := newFixture(t, 0)
	h, err := f.mgr.Open(f.ctx, f.dir, 1, "a")
	require.NoError(t, err)

	want := []byte("0123456789")
	require.True(t, h.info.Header.Extend(f.freeMap, len(want)))
	h.Seek(0)
	n := h.WriteAt(f.ctx, want)
	assert.Equal(t, len(want), n)

	h.Seek(0)
	got := make([]byte, 16)
	n = h.ReadAt(f.ctx, got)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, got[:n])
}

func TestRemoveDeferredWhileOpen(t *testing.T) {
	f := newFixture(t, 0)
	h, err := f.mgr.Open(f.ctx, f.dir, 1, "a")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Remove(f.ctx, f.dir, f.freeMap, "a"))
	assert.Equal(t, -1, f.dir.Find("a"), "deletion must be invisible to lookups immediately")
	assert.True(t, f.freeMap.Test(f.sector), "the header sector stays allocated until the last Close")

	require.NoError(t, f.mgr.Close(f.ctx, h, f.dir, f.freeMap))
	assert.False(t, f.freeMap.Test(f.sector), "the header sector is freed on the final Close")
}

func TestRemoveUnmanagedIsImmediate(t *testing.T) {
	f := newFixture(t, 0)

	require.NoError(t, f.mgr.Remove(f.ctx, f.dir, f.freeMap, "a"))
	assert.False(t, f.freeMap.Test(f.sector))
	assert.Equal(t, -1, f.dir.Find("a"))
}


