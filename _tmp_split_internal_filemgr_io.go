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

package filemgr

import (
	"context"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/fsutil"
)

// readAt reads into buf starting at byte offset position within the file
// described by hdr, clamped to the file's current length, sector by
// sector through disk.
func readAt(ctx context.Context, disk *devio.SynchDisk, hdr *fsutil.FileHeader, position int, buf []byte) int {
	length := hdr.FileLength()
	if position >= length {
		return 0
	}
	want := len(buf)
	if position+want > length {
		want = length - position
	}

	sectorBuf := make([]byte, device.SectorSize)
	read := 0
	for read < want {
		offset := position + read
		sector := hdr.ByteToSector(offset)
		disk.ReadSector(ctx, sector, sectorBuf)

		sectorOff := offset % device.SectorSize
		n := copy(buf[read:want], sectorBuf[sectorOff:])
		read += n
	}
	return read
}

// writeAt writes buf into the file described by hdr starting at byte
// offset position, sector by sector through disk. The caller is
// responsible for having already Extended hdr to cover position+len(buf).
func writeAt(ctx context.Context, disk *devio.SynchDisk, hdr *fsutil.FileHeader, position int, buf []byte) int {
	written := 0
	for written < len(buf) {
		offset := position + written
		sector := hdr.ByteToSector(offset)
		sectorOff := offset % device.SectorSize

		sectorBuf := make([]byte, device.SectorSize)
		fullSectorWrite := sectorOff == 0 && len(buf)-written >= device.SectorSize
		if !fullSectorWrite {
			// A partial sector write must preserve the untouched bytes
			// around it: read-modify-write.
			disk.ReadSector(ctx, sector, sectorBuf)
		}
		n := copy(sectorBuf[sectorOff:], buf[written:])
		disk.WriteSector(ctx, sector, sectorBuf)
		written += n
	}
	return written
}


