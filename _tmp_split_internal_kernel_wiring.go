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

package kernel

import (
	"github.com/nachos-go/nachos/cfg"
	"github.com/nachos-go/nachos/internal/vm"
)

// loadMode translates the boot-config knob into the internal/vm enum.
func loadMode(m cfg.LoadMode) vm.LoadMode {
	if m == cfg.LoadModeDirect {
		return vm.Direct
	}
	return vm.Demand
}

// replacementPolicy builds the vm.Policy named by the boot-config knob.
func replacementPolicy(p cfg.ReplacementPolicy) vm.Policy {
	switch p {
	case cfg.ReplacementRandom:
		return vm.NewRandomPolicy()
	case cfg.ReplacementClock:
		return vm.NewClockPolicy()
	default:
		return vm.NewFIFOPolicy()
	}
}


