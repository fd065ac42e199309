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

// Rationalize updates config fields based on the values of other fields,
// the same interdependency-resolution step the teacher's own Rationalize
// performs before ValidateConfig runs (spec.md §3).
func Rationalize(c *Config) error {
	if !c.VM.SwapEnabled {
		// No swap file is ever opened, so its directory is moot.
		c.VM.SwapDir = ""
	}
	if c.Scheduler.DisablePreemption {
		c.Scheduler.TimeQuantum = 0
	}
	return nil
}
