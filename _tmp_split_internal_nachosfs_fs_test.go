package nachosfs

import (
	"context"
	"testing"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCtx returns the boot thread's own context, which already carries it
// as a sync2.Holder (required by the lower-level packages' lock primitives)
// and makes it reachable via thread.FromContext (required by the façade's
// cwd tracking) — the same context internal/kernel hands every
// syscall-originated call on a real scheduled thread.
func testCtx(t *testing.T) context.Context {
	_, boot := thread.NewScheduler(metrics.NewNoop())
	return boot.Context()
}

func newFormattedFS(t *testing.T) (*FileSystem, context.Context) {
	ctx := testCtx(t)
	disk := devio.NewSynchDisk(device.NewAsyncDisk(300, 0), metrics.NewNoop())
	fs, err := NewFileSystem(ctx, disk, metrics.NewNoop(), true)
	require.NoError(t, err)
	return fs, ctx
}

func TestFormatThenCheckIsClean(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	assert.True(t, fs.Check(ctx))
}

func TestCreateOpenWriteReadCloseRoundTrips(t *testing.T) {
	fs, ctx := newFormattedFS(t)

	require.NoError(t, fs.CreateFile(ctx, "/greeting", 0))

	h, err := fs.Open(ctx, "/greeting")
	require.NoError(t, err)

	require.NoError(t, fs.ExtendFile(ctx, h, 11))
	want := []byte("hello world")
	h.Seek(0)
	n := h.WriteAt(ctx, want)
	assert.Equal(t, len(want), n)

	h.Seek(0)
	got := make([]byte, 32)
	n = h.ReadAt(ctx, got)
	assert.Equal(t, want, got[:n])

	require.NoError(t, fs.Close(ctx, h))
	assert.True(t, fs.Check(ctx))
}

func TestCreateFileTwiceFailsWithAlreadyExists(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateFile(ctx, "/x", 0))
	err := fs.CreateFile(ctx, "/x", 0)
	assert.Error(t, err)
}

func TestCreateDirectoryAndListNested(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateDirectory(ctx, "/sub"))
	require.NoError(t, fs.CreateFile(ctx, "/sub/inner", 0))

	entries, err := fs.ListDirectoryContents(ctx, "/sub")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inner", entries[0].Name)
	assert.False(t, entries[0].IsDirectory)

	assert.True(t, fs.Check(ctx))
}

func TestChangeDirectoryThenRelativeCreate(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateDirectory(ctx, "/sub"))
	require.NoError(t, fs.ChangeDirectory(ctx, "/sub"))
	require.NoError(t, fs.CreateFile(ctx, "relative", 0))

	entries, err := fs.ListDirectoryContents(ctx, "/sub")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "relative", entries[0].Name)

	assert.True(t, fs.Check(ctx))
}

func TestRemoveDirectoryFailsWhenNotEmpty(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateDirectory(ctx, "/sub"))
	require.NoError(t, fs.CreateFile(ctx, "/sub/inner", 0))

	err := fs.RemoveDirectory(ctx, "/sub")
	assert.Error(t, err)
}

func TestRemoveFileDeferredWhileOpen(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateFile(ctx, "/x", 0))

	h, err := fs.Open(ctx, "/x")
	require.NoError(t, err)

	require.NoError(t, fs.RemoveFile(ctx, "/x"))
	_, err = fs.Open(ctx, "/x")
	assert.Error(t, err, "a deleted name must be invisible to lookups immediately")

	require.NoError(t, fs.Close(ctx, h))
	assert.True(t, fs.Check(ctx))
}

func TestOpenMissingPathFails(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	_, err := fs.Open(ctx, "/nope")
	assert.Error(t, err)
}

func TestOpenThroughNonDirectoryFails(t *testing.T) {
	fs, ctx := newFormattedFS(t)
	require.NoError(t, fs.CreateFile(ctx, "/x", 0))
	_, err := fs.Open(ctx, "/x/y")
	assert.Error(t, err)
}


