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
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// LogSeverity is the logging severity and can accept the following
// values: "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF".
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var validLogSeverities = []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := strings.ToUpper(string(text))
	if !slices.Contains(validLogSeverities, level) {
		return fmt.Errorf("invalid log severity value: %s. It can only assume values in the list: %v", text, validLogSeverities)
	}
	*l = LogSeverity(level)
	return nil
}

// ResolvedPath is a file-system path resolved to an absolute form at
// decode time, so the rest of the kernel never has to think about the
// working directory a command was launched from.
type ResolvedPath string

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = ""
		return nil
	}
	abs, err := filepath.Abs(string(text))
	if err != nil {
		return fmt.Errorf("resolve path %q: %w", text, err)
	}
	*p = ResolvedPath(abs)
	return nil
}

// LoadMode selects how an Exec'd address space's pages are populated
// (spec.md §4.9).
type LoadMode string

const (
	LoadModeDirect LoadMode = "direct"
	LoadModeDemand LoadMode = "demand"
)

func (m *LoadMode) UnmarshalText(text []byte) error {
	v := LoadMode(strings.ToLower(string(text)))
	if v != LoadModeDirect && v != LoadModeDemand {
		return fmt.Errorf("invalid load mode value: %s. It can only be %q or %q", text, LoadModeDirect, LoadModeDemand)
	}
	*m = v
	return nil
}

// ReplacementPolicy selects the page-replacement algorithm used when
// physical memory is exhausted (spec.md §4.9).
type ReplacementPolicy string

const (
	ReplacementFIFO   ReplacementPolicy = "fifo"
	ReplacementRandom ReplacementPolicy = "random"
	ReplacementClock  ReplacementPolicy = "clock"
)

func (r *ReplacementPolicy) UnmarshalText(text []byte) error {
	v := ReplacementPolicy(strings.ToLower(string(text)))
	if v != ReplacementFIFO && v != ReplacementRandom && v != ReplacementClock {
		return fmt.Errorf("invalid replacement policy value: %s. It can only be one of %q, %q, %q", text, ReplacementFIFO, ReplacementRandom, ReplacementClock)
	}
	*r = v
	return nil
}


