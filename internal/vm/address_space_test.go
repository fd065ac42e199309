package vm

import (
	"bytes"
	"io"
	"testing"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bytesExecutable struct {
	r *bytes.Reader
}

func newExecutable(data []byte) *bytesExecutable {
	return &bytesExecutable{r: bytes.NewReader(data)}
}

func (e *bytesExecutable) ReadAt(p []byte, off int64) (int, error) {
	n, err := e.r.ReadAt(p, off)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

func TestDirectLoadPopulatesEveryPage(t *testing.T) {
	code := bytes.Repeat([]byte{0xAB}, cpu.PageSize*2)
	exe := newExecutable(code)
	mmu := cpu.NewSimMMU(16, 0)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(1, exe, len(code), 0, cm, Config{Mode: Direct, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	for vpn := 0; vpn < as.NumPages(); vpn++ {
		pte, ok := as.Entry(vpn)
		require.True(t, ok)
		assert.True(t, pte.Valid)
	}
}

func TestDemandLoadStartsAllInvalid(t *testing.T) {
	exe := newExecutable(bytes.Repeat([]byte{1}, cpu.PageSize))
	mmu := cpu.NewSimMMU(16, 0)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(2, exe, cpu.PageSize, 0, cm, Config{Mode: Demand, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	for vpn := 0; vpn < as.NumPages(); vpn++ {
		pte, ok := as.Entry(vpn)
		require.True(t, ok)
		assert.False(t, pte.Valid)
	}

	require.NoError(t, as.LoadPage(0))
	pte, _ := as.Entry(0)
	assert.True(t, pte.Valid)
}

func TestLoadPageReadOnlyForCodeSegment(t *testing.T) {
	exe := newExecutable(bytes.Repeat([]byte{1}, cpu.PageSize*2))
	mmu := cpu.NewSimMMU(16, 0)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(3, exe, cpu.PageSize, cpu.PageSize, cm, Config{Mode: Demand, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	require.NoError(t, as.LoadPage(0))
	pte, _ := as.Entry(0)
	assert.True(t, pte.ReadOnly, "page 0 is entirely code")

	require.NoError(t, as.LoadPage(1))
	pte, _ = as.Entry(1)
	assert.False(t, pte.ReadOnly, "page 1 is entirely initialized data")
}

func TestLoadPageOutOfSpaceWithoutSwap(t *testing.T) {
	exe := newExecutable(bytes.Repeat([]byte{1}, cpu.PageSize*4))
	mmu := cpu.NewSimMMU(1, 0) // exactly one physical frame
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(4, exe, cpu.PageSize*4, 0, cm, Config{Mode: Demand, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	require.NoError(t, as.LoadPage(0))
	err = as.LoadPage(1)
	assert.Error(t, err, "no free frame and swap disabled must fail")
}

func TestSwapEvictsAndReloads(t *testing.T) {
	dir := t.TempDir()
	exe := newExecutable(bytes.Repeat([]byte{0x42}, cpu.PageSize*4))
	mmu := cpu.NewSimMMU(1, 0)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(5, exe, cpu.PageSize*4, 0, cm, Config{
		Mode: Demand, Policy: NewFIFOPolicy(), SwapEnabled: true, SwapDir: dir,
	})
	require.NoError(t, err)
	defer as.Close()

	require.NoError(t, as.LoadPage(0))
	pte0, _ := as.Entry(0)
	require.True(t, pte0.Valid)

	// Loading page 1 must evict page 0 to make room (only one frame).
	require.NoError(t, as.LoadPage(1))
	pte0, _ = as.Entry(0)
	assert.False(t, pte0.Valid, "page 0 must have been evicted")
	pte1, _ := as.Entry(1)
	assert.True(t, pte1.Valid)

	// Faulting page 0 back in must succeed by reading from swap.
	require.NoError(t, as.LoadPage(0))
	pte0, _ = as.Entry(0)
	assert.True(t, pte0.Valid)
}

func TestSaveStateMergesTLBBitsIntoPageTable(t *testing.T) {
	exe := newExecutable(bytes.Repeat([]byte{1}, cpu.PageSize*2))
	mmu := cpu.NewSimMMU(16, 4)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(6, exe, cpu.PageSize*2, 0, cm, Config{Mode: Direct, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	mmu.WriteTLB(0, cpu.TLBEntry{VirtualPage: 0, PhysicalPage: 0, Valid: true, Use: true, Dirty: true})
	as.SaveState(mmu)

	pte, _ := as.Entry(0)
	assert.True(t, pte.Use)
	assert.True(t, pte.Dirty)
	assert.False(t, mmu.ReadTLB(0).Valid, "SaveState must invalidate the TLB entry")
}

func TestRestoreStateInstallsPageTableWithoutTLB(t *testing.T) {
	exe := newExecutable(bytes.Repeat([]byte{1}, cpu.PageSize))
	mmu := cpu.NewSimMMU(16, 0)
	cm := NewCoreMap(mmu.PhysMem())

	as, err := New(7, exe, cpu.PageSize, 0, cm, Config{Mode: Direct, Policy: NewFIFOPolicy()})
	require.NoError(t, err)

	as.RestoreState(mmu)

	b, fault := mmu.ReadByte(0)
	assert.Equal(t, cpu.NoFault, fault)
	assert.Equal(t, byte(1), b)
}
