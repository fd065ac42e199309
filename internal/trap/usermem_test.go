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

package trap

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/vm"
)

type bytesExecutable struct{ r *bytes.Reader }

func newExecutable(data []byte) *bytesExecutable { return &bytesExecutable{r: bytes.NewReader(data)} }

func (e *bytesExecutable) ReadAt(p []byte, off int64) (int, error) {
	n, err := e.r.ReadAt(p, off)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

// newTestMachine builds a directly-loaded address space (no page faults
// possible) whose numPages image pages are writable initialized data, over
// a TLB-less MMU, with its page table installed.
func newTestMachine(t *testing.T, numPages int) (cpu.MMU, *vm.AddressSpace, *tlbFiller) {
	t.Helper()
	code := bytes.Repeat([]byte{0}, cpu.PageSize*numPages)
	mmu := cpu.NewSimMMU(16, 0)
	cm := vm.NewCoreMap(mmu.PhysMem())
	as, err := vm.New(1, newExecutable(code), 0, len(code), cm, vm.Config{Mode: vm.Direct, Policy: vm.NewFIFOPolicy()})
	require.NoError(t, err)
	as.RestoreState(mmu)
	return mmu, as, newTLBFiller()
}

func TestReadWriteBufferRoundTrips(t *testing.T) {
	mmu, as, filler := newTestMachine(t, 2)
	want := []byte("hello, nachos")

	require.NoError(t, WriteBufferToUser(mmu, as, filler, 10, want))
	got, err := ReadBufferFromUser(mmu, as, filler, 10, len(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteStringThenReadStringRoundTrips(t *testing.T) {
	mmu, as, filler := newTestMachine(t, 2)

	require.NoError(t, WriteStringToUser(mmu, as, filler, 0, "argv0"))
	s, found, err := ReadStringFromUser(mmu, as, filler, 0, 64)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "argv0", s)
}

func TestReadStringNotFoundWhenUnterminatedWithinBound(t *testing.T) {
	mmu, as, filler := newTestMachine(t, 1)
	require.NoError(t, WriteBufferToUser(mmu, as, filler, 0, bytes.Repeat([]byte{'x'}, 10)))

	_, found, err := ReadStringFromUser(mmu, as, filler, 0, 5)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriteToReadOnlyPageIsReadOnlyViolation(t *testing.T) {
	code := bytes.Repeat([]byte{0}, cpu.PageSize)
	mmu := cpu.NewSimMMU(16, 0)
	cm := vm.NewCoreMap(mmu.PhysMem())
	as, err := vm.New(1, newExecutable(code), len(code), 0, cm, vm.Config{Mode: vm.Direct, Policy: vm.NewFIFOPolicy()})
	require.NoError(t, err)
	as.RestoreState(mmu)

	err = WriteBufferToUser(mmu, as, newTLBFiller(), 0, []byte{0xFF})
	assert.ErrorIs(t, err, kerrors.ReadOnlyViolation)
}

func TestTLBFillerInstallsEntryOnPageFault(t *testing.T) {
	code := bytes.Repeat([]byte{0xAB}, cpu.PageSize*2)
	mmu := cpu.NewSimMMU(16, 2)
	cm := vm.NewCoreMap(mmu.PhysMem())
	as, err := vm.New(1, newExecutable(code), len(code), 0, cm, vm.Config{Mode: vm.Direct, Policy: vm.NewFIFOPolicy()})
	require.NoError(t, err)
	as.RestoreState(mmu)
	filler := newTLBFiller()

	got, err := ReadBufferFromUser(mmu, as, filler, cpu.PageSize, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), got[0])

	entry := mmu.ReadTLB(0)
	assert.True(t, entry.Valid)
}
