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

import "github.com/nachos-go/nachos/internal/cpu"

// Syscall identifiers, the conventional values a trapped-into program
// leaves in cpu.RegSyscallID before invoking the kernel (spec.md §4.10).
const (
	SyscallHalt = iota
	SyscallExit
	SyscallExec
	SyscallJoin
	SyscallCreate
	SyscallOpen
	SyscallRead
	SyscallWrite
	SyscallClose
	SyscallRemove
	SyscallChangeDirectory
	SyscallCreateDirectory
	SyscallListDirectoryContents
	SyscallRemoveDirectory
	SyscallPS
)

// ReadSyscallArgs pulls the syscall id and its four conventional argument
// registers off regs, the ABI a Program's trap-handling code observes
// instead of an interrupt vector (spec.md §4.10).
func ReadSyscallArgs(regs cpu.Registers) (id int, a1, a2, a3, a4 uint32) {
	return int(regs.Read(cpu.RegSyscallID)),
		regs.Read(cpu.RegArg1), regs.Read(cpu.RegArg2),
		regs.Read(cpu.RegArg3), regs.Read(cpu.RegArg4)
}

// WriteSyscallResult stores result and advances the program counter past
// the trapping instruction, the two things every syscall return path must
// do before resuming (spec.md §4.10).
func WriteSyscallResult(regs cpu.Registers, result uint32) {
	regs.Write(cpu.RegResult, result)
	regs.Write(cpu.RegPC, regs.Read(cpu.RegPC)+4)
}
