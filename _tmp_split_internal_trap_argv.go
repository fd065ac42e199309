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
	"encoding/binary"
	"fmt"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/kerrors"
)

// maxArgv bounds how many argv entries ReadArgvFromUser will follow before
// giving up, guarding against a malformed or malicious pointer array
// (spec.md §7's BadArgument class).
const maxArgv = 64

// ReadWordFromUser reads a little-endian 32-bit word at vaddr, the layout
// an argv pointer array or any other word-sized user value uses (spec.md
// §5's supplemented Exec-with-arguments).
func ReadWordFromUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, vaddr int) (uint32, error) {
	buf, err := ReadBufferFromUser(m, as, filler, vaddr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadArgvFromUser reads a NULL-terminated array of string pointers
// starting at argvVAddr, then each pointed-to string (bounded by
// maxArgLen), the conventional argv layout a real Exec syscall's caller
// would have built on its own stack (spec.md §5).
func ReadArgvFromUser(m cpu.MMU, as ProcessAddressSpace, filler *tlbFiller, argvVAddr, maxArgLen int) ([]string, error) {
	var argv []string
	for i := 0; i < maxArgv; i++ {
		ptr, err := ReadWordFromUser(m, as, filler, argvVAddr+4*i)
		if err != nil {
			return nil, fmt.Errorf("trap: read argv[%d] pointer: %w", i, err)
		}
		if ptr == 0 {
			return argv, nil
		}
		s, found, err := ReadStringFromUser(m, as, filler, int(ptr), maxArgLen)
		if err != nil {
			return nil, fmt.Errorf("trap: read argv[%d] string: %w", i, err)
		}
		if !found {
			return nil, fmt.Errorf("trap: argv[%d] exceeds %d bytes: %w", i, maxArgLen, kerrors.BadArgument)
		}
		argv = append(argv, s)
	}
	return nil, fmt.Errorf("trap: argv exceeds %d entries: %w", maxArgv, kerrors.BadArgument)
}


