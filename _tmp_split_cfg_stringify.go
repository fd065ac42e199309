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

import "fmt"

// String renders config for a single boot-time log line, the same
// "log what we're about to run with" idiom the teacher applies to its own
// Config (spec.md §3).
func (c Config) String() string {
	return fmt.Sprintf(
		"disk=%s(%d sectors) vm=%d pages/tlb=%d/%s/%s swap=%v format-on-boot=%v severity=%s",
		c.Disk.Path, c.Disk.NumSectors, c.VM.NumPhysPages, c.VM.TLBSize,
		c.VM.LoadMode, c.VM.ReplacementPolicy, c.VM.SwapEnabled,
		c.FileSystem.FormatOnBoot, c.Logging.Severity,
	)
}


