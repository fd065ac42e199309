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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSeverityUnmarshalAcceptsKnownValues(t *testing.T) {
	var l LogSeverity
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, DebugLogSeverity, l)
}

func TestLogSeverityUnmarshalRejectsUnknownValue(t *testing.T) {
	var l LogSeverity
	assert.Error(t, l.UnmarshalText([]byte("verbose")))
}

func TestReplacementPolicyUnmarshalAcceptsKnownValues(t *testing.T) {
	var r ReplacementPolicy
	require.NoError(t, r.UnmarshalText([]byte("FIFO")))
	assert.Equal(t, ReplacementFIFO, r)
}

func TestReplacementPolicyUnmarshalRejectsUnknownValue(t *testing.T) {
	var r ReplacementPolicy
	assert.Error(t, r.UnmarshalText([]byte("lru")))
}

func TestLoadModeUnmarshal(t *testing.T) {
	var m LoadMode
	require.NoError(t, m.UnmarshalText([]byte("DIRECT")))
	assert.Equal(t, LoadModeDirect, m)
	assert.Error(t, m.UnmarshalText([]byte("eager")))
}

func TestResolvedPathUnmarshalResolvesRelativePath(t *testing.T) {
	var p ResolvedPath
	require.NoError(t, p.UnmarshalText([]byte("disk.img")))
	assert.True(t, len(p) > 0 && p[0] == '/')
}

func TestResolvedPathUnmarshalEmptyStaysEmpty(t *testing.T) {
	var p ResolvedPath
	require.NoError(t, p.UnmarshalText([]byte("")))
	assert.Equal(t, ResolvedPath(""), p)
}
