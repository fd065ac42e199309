package fsutil

import (
	"context"
	"testing"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
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

func newTestDisk(numSectors int) *devio.SynchDisk {
	return devio.NewSynchDisk(device.NewAsyncDisk(numSectors, 0), metrics.NewNoop())
}

func TestByteToSectorDirectOnly(t *testing.T) {
	freeMap := NewFreeMap(100)
	hdr := NewFileHeader()
	require.True(t, hdr.Allocate(freeMap, 3*device.SectorSize))

	assert.Equal(t, hdr.direct[0], hdr.ByteToSector(0))
	assert.Equal(t, hdr.direct[1], hdr.ByteToSector(device.SectorSize))
	assert.Equal(t, hdr.direct[2], hdr.ByteToSector(2*device.SectorSize+10))
}

func TestAllocateFailsWhenInsufficientSpace(t *testing.T) {
	freeMap := NewFreeMap(2)
	hdr := NewFileHeader()
	ok := hdr.Allocate(freeMap, 10*device.SectorSize)
	assert.False(t, ok)
	assert.Equal(t, 2, freeMap.CountClear(), "a failed Allocate must not touch the bitmap")
}

func TestAllocateUsesIndirectionForLargeFiles(t *testing.T) {
	freeMap := NewFreeMap(MaxFileSize/device.SectorSize + 10)
	hdr := NewFileHeader()
	size := (NumDirect + NumIndirect + 5) * device.SectorSize
	require.True(t, hdr.Allocate(freeMap, size))

	// The last sector lives in the double-indirect region.
	lastOffset := size - 1
	sector := hdr.ByteToSector(lastOffset)
	assert.NotEqual(t, 0, sector)
	assert.NotEqual(t, -1, hdr.doubleIndirectSector)
}

func TestDeallocateFreesEverySector(t *testing.T) {
	freeMap := NewFreeMap(500)
	hdr := NewFileHeader()
	size := (NumDirect + NumIndirect + 5) * device.SectorSize
	require.True(t, hdr.Allocate(freeMap, size))
	before := freeMap.CountClear()

	hdr.Deallocate(freeMap)
	after := freeMap.CountClear()
	assert.Greater(t, after, before)
}

func TestExtendGrowsIncrementally(t *testing.T) {
	freeMap := NewFreeMap(500)
	hdr := NewFileHeader()
	require.True(t, hdr.Allocate(freeMap, 2*device.SectorSize))

	newSize := (NumDirect + 3) * device.SectorSize
	require.True(t, hdr.Extend(freeMap, newSize))
	assert.Equal(t, newSize, hdr.FileLength())
	assert.NotEqual(t, -1, hdr.indirectSector)
}

func TestFileHeaderRoundTripsThroughDisk(t *testing.T) {
	ctx := testCtx()
	disk := newTestDisk(200)
	freeMap := NewFreeMap(200)
	freeMap.Mark(0) // reserve sector 0 for the header itself

	hdr := NewFileHeader()
	size := (NumDirect + NumIndirect + 2) * device.SectorSize
	require.True(t, hdr.Allocate(freeMap, size))
	hdr.WriteBack(ctx, disk, 0)

	reloaded := NewFileHeader()
	reloaded.FetchFrom(ctx, disk, 0)

	assert.Equal(t, hdr.numBytes, reloaded.numBytes)
	assert.Equal(t, hdr.numSectors, reloaded.numSectors)
	assert.Equal(t, hdr.ByteToSector(size-1), reloaded.ByteToSector(size-1))
}
