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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nachos-go/nachos/internal/cpu"
)

func TestReadSyscallArgsReadsConventionalRegisters(t *testing.T) {
	regs := cpu.NewSimRegisters()
	regs.Write(cpu.RegSyscallID, SyscallWrite)
	regs.Write(cpu.RegArg1, 1)
	regs.Write(cpu.RegArg2, 2)
	regs.Write(cpu.RegArg3, 3)
	regs.Write(cpu.RegArg4, 4)

	id, a1, a2, a3, a4 := ReadSyscallArgs(regs)
	assert.Equal(t, SyscallWrite, id)
	assert.Equal(t, uint32(1), a1)
	assert.Equal(t, uint32(2), a2)
	assert.Equal(t, uint32(3), a3)
	assert.Equal(t, uint32(4), a4)
}

func TestWriteSyscallResultAdvancesPCAndStoresResult(t *testing.T) {
	regs := cpu.NewSimRegisters()
	regs.Write(cpu.RegPC, 100)

	WriteSyscallResult(regs, 42)

	assert.Equal(t, uint32(42), regs.Read(cpu.RegResult))
	assert.Equal(t, uint32(104), regs.Read(cpu.RegPC))
}
