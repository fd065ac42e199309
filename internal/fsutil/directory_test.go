package fsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryAddFindRemove(t *testing.T) {
	d := NewDirectory(4)
	require.True(t, d.Add("a", 7, false))
	assert.Equal(t, 7, d.Find("a"))
	assert.Equal(t, -1, d.Find("missing"))

	assert.True(t, d.Remove("a"))
	assert.Equal(t, -1, d.Find("a"))
}

func TestDirectoryAddRejectsDuplicateName(t *testing.T) {
	d := NewDirectory(4)
	require.True(t, d.Add("a", 1, false))
	assert.False(t, d.Add("a", 2, false))
}

func TestDirectoryGrowsWhenFull(t *testing.T) {
	d := NewDirectory(2)
	require.True(t, d.Add("a", 1, false))
	require.True(t, d.Add("b", 2, false))
	require.True(t, d.Add("c", 3, false))
	assert.Equal(t, 2+directoryGrowBy, len(d.entries))
	assert.Equal(t, 3, d.Find("c"))
}

func TestDirectoryDeferredDeletion(t *testing.T) {
	d := NewDirectory(4)
	require.True(t, d.Add("a", 7, false))

	d.MarkForDeletion(7)
	assert.True(t, d.IsMarkedForDeletion(7))
	assert.Equal(t, -1, d.Find("a"), "a marked-for-deletion entry is invisible to Find")

	d.RemoveMarkedForDeletion(7)
	assert.False(t, d.IsMarkedForDeletion(7))
}

func TestDirectoryIsEmptyAndList(t *testing.T) {
	d := NewDirectory(4)
	assert.True(t, d.IsEmpty())

	require.True(t, d.Add("a", 1, false))
	require.True(t, d.Add("b", 2, true))
	assert.False(t, d.IsEmpty())
	assert.ElementsMatch(t, []string{"a", "b"}, d.List())

	contents := d.ListContents()
	require.Len(t, contents, 2)
}

func TestDirectoryRoundTripsThroughDisk(t *testing.T) {
	ctx := testCtx()
	disk := newTestDisk(200)
	freeMap := NewFreeMap(200)
	freeMap.Mark(0) // header sector

	hdr := NewFileHeader()
	require.True(t, hdr.Allocate(freeMap, 0))

	d := NewDirectory(4)
	require.True(t, d.Add("a", 11, false))
	require.True(t, d.Add("b", 12, true))
	require.True(t, d.WriteBack(ctx, disk, hdr, freeMap))
	hdr.WriteBack(ctx, disk, 0)

	reloadedHdr := NewFileHeader()
	reloadedHdr.FetchFrom(ctx, disk, 0)
	reloaded := NewDirectory(0)
	reloaded.FetchFrom(ctx, disk, reloadedHdr)

	assert.Equal(t, 11, reloaded.Find("a"))
	assert.Equal(t, 12, reloaded.Find("b"))
}
