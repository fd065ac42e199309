package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreMapFindFreeThenMarkThenClear(t *testing.T) {
	cm := NewCoreMap(make([]byte, 4*pageSizeBytes))
	require.Equal(t, 4, cm.NumFrames())

	f := cm.FindFree()
	require.Equal(t, 0, f)

	cm.Mark(f, nil, 7)
	assert.True(t, cm.Occupied(f))
	assert.Equal(t, 7, cm.GetVPN(f))
	assert.Nil(t, cm.GetSpace(f))

	assert.Equal(t, 1, cm.FindFree())

	cm.Clear(f)
	assert.False(t, cm.Occupied(f))
	assert.Equal(t, 0, cm.FindFree())
}

func TestCoreMapFrameBytesAreDistinctWindows(t *testing.T) {
	cm := NewCoreMap(make([]byte, 2*pageSizeBytes))
	a := cm.FrameBytes(0)
	b := cm.FrameBytes(1)
	a[0] = 0xFF
	assert.Equal(t, byte(0xFF), a[0])
	assert.Equal(t, byte(0), b[0])
}

func TestNewCoreMapPanicsOnMisalignedMemory(t *testing.T) {
	assert.Panics(t, func() {
		NewCoreMap(make([]byte, pageSizeBytes+1))
	})
}


