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

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsThenUnmarshalPopulatesConfig(t *testing.T) {
	viper.Reset()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))
	require.NoError(t, fs.Parse([]string{
		"--disk-path=/tmp/disk.img",
		"--vm-num-phys-pages=64",
		"--vm-replacement-policy=clock",
	}))

	var c Config
	require.NoError(t, viper.Unmarshal(&c, viper.DecodeHook(DecodeHook())))

	assert.Equal(t, ResolvedPath("/tmp/disk.img"), c.Disk.Path)
	assert.Equal(t, 64, c.VM.NumPhysPages)
	assert.Equal(t, ReplacementClock, c.VM.ReplacementPolicy)
}

func TestConfigStringIncludesKeyKnobs(t *testing.T) {
	c := Config{Disk: DiskConfig{Path: "/disk", NumSectors: 2000}, VM: GetDefaultVMConfig(), Logging: GetDefaultLoggingConfig()}
	s := c.String()
	assert.Contains(t, s, "/disk")
	assert.Contains(t, s, "INFO")
}
