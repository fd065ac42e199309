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

package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nachos-go/nachos/internal/clock"
)

func TestAsyncDiskReadSectorWaitsForSimulatedLatency(t *testing.T) {
	d := NewAsyncDisk(4, 10*time.Second)
	sc := clock.NewSimulatedClock(time.Unix(0, 0))
	d.SetClock(sc)

	buf := make([]byte, SectorSize)
	doneCh := make(chan struct{})
	d.ReadSector(0, buf, func() { close(doneCh) })

	select {
	case <-doneCh:
		t.Fatal("ReadSector completed before simulated latency elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	sc.AdvanceTime(10 * time.Second)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("ReadSector never completed after simulated latency elapsed")
	}
}

func TestAsyncDiskWriteThenReadRoundTrips(t *testing.T) {
	d := NewAsyncDisk(2, 0)
	want := make([]byte, SectorSize)
	for i := range want {
		want[i] = byte(i)
	}

	writeDone := make(chan struct{})
	d.WriteSector(1, want, func() { close(writeDone) })
	<-writeDone

	got := make([]byte, SectorSize)
	readDone := make(chan struct{})
	d.ReadSector(1, got, func() { close(readDone) })
	<-readDone

	require.Len(t, got, SectorSize)
	assert.Equal(t, want, got)
}

func TestAsyncDiskLoadSaveImageRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/disk.img"

	d := NewAsyncDisk(2, 0)
	buf := make([]byte, SectorSize)
	for i := range buf {
		buf[i] = 0xAB
	}
	done := make(chan struct{})
	d.WriteSector(0, buf, func() { close(done) })
	<-done

	require.NoError(t, d.SaveImage(path))

	d2 := NewAsyncDisk(2, 0)
	require.NoError(t, d2.LoadImage(path))

	got := make([]byte, SectorSize)
	done2 := make(chan struct{})
	d2.ReadSector(0, got, func() { close(done2) })
	<-done2
	assert.Equal(t, buf, got)
}

func TestAsyncDiskLoadImageRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/disk.img"
	require.NoError(t, NewAsyncDisk(1, 0).SaveImage(path))

	d := NewAsyncDisk(2, 0)
	assert.Error(t, d.LoadImage(path))
}


