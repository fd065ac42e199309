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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Disk:       DiskConfig{Path: "/tmp/disk.img", NumSectors: 2000},
		VM:         GetDefaultVMConfig(),
		FileSystem: FileSystemConfig{MaxArgLen: 256},
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	c := validConfig()
	assert.NoError(t, ValidateConfig(&c))
}

func TestValidateConfigRejectsZeroSectors(t *testing.T) {
	c := validConfig()
	c.Disk.NumSectors = 0
	assert.Error(t, ValidateConfig(&c))
}

func TestValidateConfigRejectsNegativeTLBSize(t *testing.T) {
	c := validConfig()
	c.VM.TLBSize = -1
	assert.Error(t, ValidateConfig(&c))
}

func TestValidateConfigRejectsSwapEnabledWithoutDir(t *testing.T) {
	c := validConfig()
	c.VM.SwapEnabled = true
	c.VM.SwapDir = ""
	assert.Error(t, ValidateConfig(&c))
}

func TestValidateConfigRejectsZeroMaxArgLen(t *testing.T) {
	c := validConfig()
	c.FileSystem.MaxArgLen = 0
	assert.Error(t, ValidateConfig(&c))
}


