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

package cpu

// SimRegisters is a flat, simulated register file: the syscall id, four
// argument registers, the result register, PC, and the bad-vaddr shadow
// register the trap dispatcher reads after a fault (spec.md §4.10).
type SimRegisters struct {
	v [numRegisters]uint32
}

// NewSimRegisters returns a zeroed register file.
func NewSimRegisters() *SimRegisters { return &SimRegisters{} }

func (r *SimRegisters) Read(reg Register) uint32     { return r.v[reg] }
func (r *SimRegisters) Write(reg Register, v uint32) { r.v[reg] = v }


