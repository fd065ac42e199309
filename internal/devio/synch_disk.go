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

// Package devio provides synchronous disk and console access on top of
// the asynchronous interrupt-completing device models in internal/device
// (spec.md §4.3): a lock serializes requests, since the simulated
// controller handles one outstanding transfer at a time, and a semaphore
// is posted by the completion callback for the caller to wait on.
package devio

import (
	"context"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/sync2"
)

// SynchDisk turns device.AsyncDisk's callback-based completion into a
// blocking call: acquire lock, submit request, P() on the completion
// semaphore, release lock.
type SynchDisk struct {
	disk    *device.AsyncDisk
	lock    *sync2.Lock
	done    *sync2.Semaphore
	metrics metrics.Handle
}

// NewSynchDisk wraps disk for synchronous access.
func NewSynchDisk(disk *device.AsyncDisk, m metrics.Handle) *SynchDisk {
	return &SynchDisk{
		disk:    disk,
		lock:    sync2.NewLock(),
		done:    sync2.NewSemaphore(0),
		metrics: m,
	}
}

// NumSectors returns the wrapped disk's fixed sector count.
func (d *SynchDisk) NumSectors() int { return d.disk.NumSectors() }

// ReadSector blocks the caller until sector's contents have been copied
// into buf, which must be exactly device.SectorSize bytes.
func (d *SynchDisk) ReadSector(ctx context.Context, sector int, buf []byte) {
	d.lock.Acquire(ctx)
	defer d.lock.Release(ctx)

	d.disk.ReadSector(sector, buf, func() { d.done.V() })
	d.done.P()
	d.metrics.DiskRead()
}

// WriteSector blocks the caller until buf, which must be exactly
// device.SectorSize bytes, has been written to sector.
func (d *SynchDisk) WriteSector(ctx context.Context, sector int, buf []byte) {
	d.lock.Acquire(ctx)
	defer d.lock.Release(ctx)

	d.disk.WriteSector(sector, buf, func() { d.done.V() })
	d.done.P()
	d.metrics.DiskWrite()
}
