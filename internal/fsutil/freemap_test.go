package fsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeMapFindMarksAndReturnsFirstFree(t *testing.T) {
	m := NewFreeMap(4)
	m.Mark(0)

	got := m.Find()
	require.Equal(t, 1, got)
	assert.True(t, m.Test(1))
	assert.Equal(t, 2, m.CountClear())
}

func TestFreeMapFindReturnsMinusOneWhenFull(t *testing.T) {
	m := NewFreeMap(2)
	m.Mark(0)
	m.Mark(1)
	assert.Equal(t, -1, m.Find())
}

func TestFreeMapClearFreesASector(t *testing.T) {
	m := NewFreeMap(2)
	m.Mark(0)
	m.Clear(0)
	assert.False(t, m.Test(0))
	assert.Equal(t, 2, m.CountClear())
}
