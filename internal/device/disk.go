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

// Package device models the raw, asynchronous hardware the rest of the
// kernel is built on top of (spec.md §1 Non-goals excludes real interrupts
// and real hardware, but internal/devio needs something to wrap). AsyncDisk
// completes on its own goroutine after a fixed simulated latency, and
// AsyncConsole completes without one; both invoke a completion callback,
// standing in for the completion interrupt a real controller would raise.
package device

import (
	"fmt"
	"os"
	"time"

	"github.com/nachos-go/nachos/internal/clock"
)

// SectorSize is S from spec.md §2's numeric parameters: the fixed size in
// bytes of every disk sector.
const SectorSize = 128

// AsyncDisk is a fixed-geometry block device: NumSectors sectors of
// SectorSize bytes each, backed by an in-memory image. ReadSector and
// WriteSector complete asynchronously after a simulated seek/rotate delay,
// invoking done on a background goroutine — the "interrupt" SynchDisk
// blocks waiting for.
type AsyncDisk struct {
	numSectors int
	image      []byte
	latency    time.Duration
	clock      clock.Clock
}

// NewAsyncDisk creates a disk image of numSectors sectors, zero-filled.
func NewAsyncDisk(numSectors int, latency time.Duration) *AsyncDisk {
	return &AsyncDisk{
		numSectors: numSectors,
		image:      make([]byte, numSectors*SectorSize),
		latency:    latency,
		clock:      clock.RealClock{},
	}
}

// NumSectors returns the disk's fixed sector count.
func (d *AsyncDisk) NumSectors() int { return d.numSectors }

// SetClock overrides the clock used to simulate per-sector latency,
// letting a test drive transfer completion deterministically with a
// clock.SimulatedClock instead of waiting on a real timer.
func (d *AsyncDisk) SetClock(c clock.Clock) { d.clock = c }

// ReadSector copies sector's contents into buf (which must be exactly
// SectorSize bytes) and calls done once the simulated transfer completes.
func (d *AsyncDisk) ReadSector(sector int, buf []byte, done func()) {
	d.checkSector(sector)
	if len(buf) != SectorSize {
		panic("device: ReadSector buffer must be exactly SectorSize bytes")
	}
	go func() {
		d.wait()
		copy(buf, d.image[sector*SectorSize:(sector+1)*SectorSize])
		done()
	}()
}

// WriteSector copies buf (which must be exactly SectorSize bytes) into
// sector and calls done once the simulated transfer completes.
func (d *AsyncDisk) WriteSector(sector int, buf []byte, done func()) {
	d.checkSector(sector)
	if len(buf) != SectorSize {
		panic("device: WriteSector buffer must be exactly SectorSize bytes")
	}
	go func() {
		d.wait()
		copy(d.image[sector*SectorSize:(sector+1)*SectorSize], buf)
		done()
	}()
}

// wait blocks the calling goroutine until the disk's simulated latency has
// elapsed on its clock.
func (d *AsyncDisk) wait() {
	if d.latency <= 0 {
		return
	}
	<-d.clock.After(d.latency)
}

// LoadImage replaces the disk's in-memory image with the contents of
// path, so that separate `nachos format` and `nachos run` invocations
// (spec.md §6.9) see the same persisted disk. The file must be exactly
// NumSectors()*SectorSize bytes.
func (d *AsyncDisk) LoadImage(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("device: load disk image %q: %w", path, err)
	}
	if len(buf) != len(d.image) {
		return fmt.Errorf("device: disk image %q is %d bytes, want %d", path, len(buf), len(d.image))
	}
	copy(d.image, buf)
	return nil
}

// SaveImage writes the disk's current in-memory image to path.
func (d *AsyncDisk) SaveImage(path string) error {
	if err := os.WriteFile(path, d.image, 0o600); err != nil {
		return fmt.Errorf("device: save disk image %q: %w", path, err)
	}
	return nil
}

func (d *AsyncDisk) checkSector(sector int) {
	if sector < 0 || sector >= d.numSectors {
		panic("device: sector out of range")
	}
}
