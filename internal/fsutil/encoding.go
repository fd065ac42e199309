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

package fsutil

import "encoding/binary"

func putInt32(buf []byte, v int) {
	binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
}

func getInt32(buf []byte) int {
	return int(int32(binary.LittleEndian.Uint32(buf)))
}
