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

// Package kernel assembles one boot's worth of ambient state — the
// scheduler, the simulated disk and console, the file-system façade, the
// core map, and the process table — replacing the package-level global
// singletons real Nachos keeps for these (Design Notes §9). Nothing
// outside this package reaches for a global; everything is threaded
// through a *Kernel value instead.
package kernel

import (
	"context"
	"fmt"
	"os"

	"github.com/nachos-go/nachos/cfg"
	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/klog"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/nachosfs"
	"github.com/nachos-go/nachos/internal/thread"
	"github.com/nachos-go/nachos/internal/trap"
	"github.com/nachos-go/nachos/internal/vm"
)

// Kernel bundles every subsystem a `nachos` subcommand needs, built once
// at boot from a cfg.Config.
type Kernel struct {
	Config     cfg.Config
	Metrics    metrics.Handle
	disk       *device.AsyncDisk
	Disk       *devio.SynchDisk
	Console    *devio.SynchConsole
	Scheduler  *thread.Scheduler
	BootThread *thread.Thread
	FS         *nachosfs.FileSystem
	CoreMap    *vm.CoreMap
	Processes  *trap.ProcessTable
	Dispatcher *trap.Dispatcher
}

// Boot constructs a Kernel from c: opens (and, if FormatOnBoot, formats)
// the disk, wires the console, builds the core map over its own fresh
// physical memory, and creates an empty process table (spec.md §3, §6).
func Boot(ctx context.Context, c cfg.Config) (*Kernel, error) {
	m := metrics.NewNoop()

	rawDisk := device.NewAsyncDisk(c.Disk.NumSectors, c.Disk.Latency)
	if c.Disk.Path != "" && !c.FileSystem.FormatOnBoot {
		if err := rawDisk.LoadImage(string(c.Disk.Path)); err != nil {
			return nil, err
		}
	}
	disk := devio.NewSynchDisk(rawDisk, m)

	scheduler, boot := thread.NewScheduler(m)
	if !c.Scheduler.DisablePreemption && c.Scheduler.TimeQuantum > 0 {
		scheduler.StartTimer(c.Scheduler.TimeQuantum)
	}

	fs, err := nachosfs.NewFileSystem(ctx, disk, m, c.FileSystem.FormatOnBoot)
	if err != nil {
		return nil, fmt.Errorf("kernel: boot file system: %w", err)
	}
	if c.FileSystem.SnapshotDir != "" {
		fs.SetSnapshotDir(string(c.FileSystem.SnapshotDir))
	}

	physMem := make([]byte, c.VM.NumPhysPages*cpu.PageSize)
	coreMap := vm.NewCoreMap(physMem)

	console := devio.NewSynchConsole(device.NewAsyncConsole(os.Stdin, os.Stdout))

	table := trap.NewProcessTable(maxProcesses)
	vmConfig := vm.Config{
		Mode:        loadMode(c.VM.LoadMode),
		Policy:      replacementPolicy(c.VM.ReplacementPolicy),
		SwapEnabled: c.VM.SwapEnabled,
		SwapDir:     string(c.VM.SwapDir),
		Metrics:     m,
	}
	dispatcher := trap.NewDispatcher(scheduler, fs, table, coreMap, m, vmConfig, c.FileSystem.MaxArgLen, c.VM.TLBSize, console)

	klog.Debug("kernel", "boot: %s", c.String())

	return &Kernel{
		Config:     c,
		Metrics:    m,
		disk:       rawDisk,
		Disk:       disk,
		Console:    console,
		Scheduler:  scheduler,
		BootThread: boot,
		FS:         fs,
		CoreMap:    coreMap,
		Processes:  table,
		Dispatcher: dispatcher,
	}, nil
}

// Shutdown stops the preemption timer, if running, and persists the disk
// image back to Config.Disk.Path so a later `nachos run` invocation sees
// the same state (spec.md §6.9).
func (k *Kernel) Shutdown() error {
	k.Scheduler.StopTimer()
	if k.Config.Disk.Path == "" {
		return nil
	}
	return k.disk.SaveImage(string(k.Config.Disk.Path))
}

const maxProcesses = 128
