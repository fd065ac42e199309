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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/nachosfs"
	"github.com/nachos-go/nachos/internal/thread"
	"github.com/nachos-go/nachos/internal/vm"
)

// testDispatcher builds a fully-wired Dispatcher over a freshly formatted
// in-memory file system, the same assembly internal/kernel.Boot performs
// for a real boot, paired with the boot thread's own context (required by
// the façade's cwd tracking, as in internal/nachosfs's own tests).
func testDispatcher(t *testing.T) (context.Context, *Dispatcher) {
	t.Helper()
	m := metrics.NewNoop()
	scheduler, boot := thread.NewScheduler(m)
	ctx := boot.Context()

	disk := devio.NewSynchDisk(device.NewAsyncDisk(300, 0), m)
	fs, err := nachosfs.NewFileSystem(ctx, disk, m, true)
	require.NoError(t, err)

	mmu := cpu.NewSimMMU(32, 0)
	coreMap := vm.NewCoreMap(mmu.PhysMem())
	console := devio.NewSynchConsole(device.NewAsyncConsole(bytes.NewReader(nil), &bytes.Buffer{}))
	table := NewProcessTable(16)
	vmConfig := vm.Config{Mode: vm.Direct, Policy: vm.NewFIFOPolicy(), Metrics: m}

	d := NewDispatcher(scheduler, fs, table, coreMap, m, vmConfig, 256, 0, console)
	return ctx, d
}

func TestExecThenJoinReturnsExitStatus(t *testing.T) {
	ctx, d := testDispatcher(t)
	require.NoError(t, d.Create(ctx, "/prog", cpu.PageSize))

	prog := func(ctx context.Context, m *Machine, argv []string) int { return 7 }
	pid, err := d.Exec(ctx, "/prog", []string{"prog"}, cpu.PageSize, 0, prog)
	require.NoError(t, err)

	status, err := d.Join(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 7, status)
}

func TestExecProgramCanIssueFurtherSyscalls(t *testing.T) {
	ctx, d := testDispatcher(t)
	require.NoError(t, d.Create(ctx, "/prog", cpu.PageSize))
	require.NoError(t, d.Create(ctx, "/data.txt", 64))

	prog := func(ctx context.Context, m *Machine, argv []string) int {
		fd, err := m.Open(ctx, "/data.txt")
		if err != nil {
			return 1
		}
		defer func() { _ = m.Close(ctx, fd) }()
		n, err := m.Write(ctx, fd, []byte("hi"))
		if err != nil || n != 2 {
			return 2
		}
		return 0
	}
	pid, err := d.Exec(ctx, "/prog", []string{"prog"}, cpu.PageSize, 0, prog)
	require.NoError(t, err)

	status, err := d.Join(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}

func TestPSListsLiveProcessUntilJoined(t *testing.T) {
	ctx, d := testDispatcher(t)
	require.NoError(t, d.Create(ctx, "/prog", cpu.PageSize))

	release := make(chan struct{})
	prog := func(ctx context.Context, m *Machine, argv []string) int {
		<-release
		return 0
	}
	pid, err := d.Exec(ctx, "/prog", []string{"prog"}, cpu.PageSize, 0, prog)
	require.NoError(t, err)

	names := d.PS()
	require.Len(t, names, 1)
	assert.Equal(t, pid, names[0].PID)

	close(release)
	_, err = d.Join(ctx, pid)
	require.NoError(t, err)
	assert.Empty(t, d.PS())
}

func TestJoinUnknownPIDFails(t *testing.T) {
	ctx, d := testDispatcher(t)
	_, err := d.Join(ctx, 999)
	assert.Error(t, err)
}


