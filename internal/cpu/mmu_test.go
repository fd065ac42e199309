package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimMMUDirectPageTableTranslation(t *testing.T) {
	m := NewSimMMU(2, 0)
	require.False(t, m.HasTLB())

	m.SetPageTable(PageTable{
		{PhysicalPage: 1, Valid: true},
	})
	m.PhysMem()[1*PageSize+5] = 0x99

	b, fault := m.ReadByte(5)
	require.Equal(t, NoFault, fault)
	assert.Equal(t, byte(0x99), b)
}

func TestSimMMUPageFaultOnInvalidEntry(t *testing.T) {
	m := NewSimMMU(1, 0)
	m.SetPageTable(PageTable{{Valid: false}})

	_, fault := m.ReadByte(0)
	assert.Equal(t, PageFault, fault)
	assert.Equal(t, 0, m.BadVAddr())
}

func TestSimMMUReadOnlyFaultOnWrite(t *testing.T) {
	m := NewSimMMU(1, 0)
	m.SetPageTable(PageTable{{PhysicalPage: 0, Valid: true, ReadOnly: true}})

	fault := m.WriteByte(10, 7)
	assert.Equal(t, ReadOnlyFault, fault)
}

func TestSimMMUTLBHitSetsUseAndDirty(t *testing.T) {
	m := NewSimMMU(2, 2)
	require.True(t, m.HasTLB())
	m.WriteTLB(0, TLBEntry{VirtualPage: 3, PhysicalPage: 1, Valid: true})

	fault := m.WriteByte(3*PageSize+2, 0x11)
	require.Equal(t, NoFault, fault)

	e := m.ReadTLB(0)
	assert.True(t, e.Use)
	assert.True(t, e.Dirty)
	assert.Equal(t, byte(0x11), m.PhysMem()[1*PageSize+2])
}

func TestSimMMUTLBMissIsPageFault(t *testing.T) {
	m := NewSimMMU(2, 2)
	_, fault := m.ReadByte(0)
	assert.Equal(t, PageFault, fault)
}
