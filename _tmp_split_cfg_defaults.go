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

import "time"

// GetDefaultLoggingConfig returns the configuration used before a config
// file or flags have been parsed, mirroring the teacher's own
// GetDefaultLoggingConfig (spec.md §3).
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:      InfoLogSeverity,
		MaxFileSizeMb: 512,
		MaxBackups:    10,
	}
}

// GetDefaultVMConfig returns the VM knobs used when none are supplied.
func GetDefaultVMConfig() VMConfig {
	return VMConfig{
		NumPhysPages:      32,
		TLBSize:           0,
		LoadMode:          LoadModeDemand,
		ReplacementPolicy: ReplacementFIFO,
		SwapEnabled:       true,
	}
}

// GetDefaultSchedulerConfig returns the scheduler knobs used when none
// are supplied.
func GetDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{DisablePreemption: true, TimeQuantum: 100 * time.Millisecond}
}


