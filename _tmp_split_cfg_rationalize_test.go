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

package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRationalizeClearsSwapDirWhenSwapDisabled(t *testing.T) {
	c := Config{VM: VMConfig{SwapEnabled: false, SwapDir: "/tmp/swap"}}
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, ResolvedPath(""), c.VM.SwapDir)
}

func TestRationalizeKeepsSwapDirWhenSwapEnabled(t *testing.T) {
	c := Config{VM: VMConfig{SwapEnabled: true, SwapDir: "/tmp/swap"}}
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, ResolvedPath("/tmp/swap"), c.VM.SwapDir)
}

func TestRationalizeZeroesQuantumWhenPreemptionDisabled(t *testing.T) {
	c := Config{Scheduler: SchedulerConfig{DisablePreemption: true, TimeQuantum: 50 * time.Millisecond}}
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, time.Duration(0), c.Scheduler.TimeQuantum)
}


