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

// Package cfg is the kernel's boot-time configuration: disk geometry,
// scheduler knobs, virtual-memory knobs, and file-system format-on-boot,
// decoded from flags and an optional config file via spf13/pflag and
// spf13/viper (spec.md §3, §6.9).
package cfg

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the kernel's full boot configuration.
type Config struct {
	Disk       DiskConfig       `yaml:"disk"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	VM         VMConfig         `yaml:"vm"`
	FileSystem FileSystemConfig `yaml:"file-system"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DiskConfig describes the simulated disk backing the file system
// (spec.md §4.7).
type DiskConfig struct {
	Path       ResolvedPath  `yaml:"path"`
	NumSectors int           `yaml:"num-sectors"`
	Latency    time.Duration `yaml:"latency"`
}

// SchedulerConfig describes the cooperative-thread scheduler (spec.md
// §4.2).
type SchedulerConfig struct {
	TimeQuantum       time.Duration `yaml:"time-quantum"`
	DisablePreemption bool          `yaml:"disable-preemption"`
}

// VMConfig describes the machine's physical memory, TLB, and paging
// policy (spec.md §4.9).
type VMConfig struct {
	NumPhysPages     int               `yaml:"num-phys-pages"`
	TLBSize          int               `yaml:"tlb-size"`
	LoadMode         LoadMode          `yaml:"load-mode"`
	ReplacementPolicy ReplacementPolicy `yaml:"replacement-policy"`
	SwapEnabled      bool              `yaml:"swap-enabled"`
	SwapDir          ResolvedPath      `yaml:"swap-dir"`
}

// FileSystemConfig controls whether the disk is reformatted on boot and
// where consistency-check snapshots are written (spec.md §4.8).
type FileSystemConfig struct {
	FormatOnBoot bool         `yaml:"format-on-boot"`
	SnapshotDir  ResolvedPath `yaml:"snapshot-dir"`
	MaxArgLen    int          `yaml:"max-arg-len"`
}

// LoggingConfig mirrors the teacher's own logging knobs: a severity
// level, a comma-separated debug-channel allowlist, and optional rotating
// file output.
type LoggingConfig struct {
	Severity       LogSeverity  `yaml:"severity"`
	DebugChannels  string       `yaml:"debug-channels"`
	RotateFilePath ResolvedPath `yaml:"rotate-file-path"`
	MaxFileSizeMb  int          `yaml:"max-file-size-mb"`
	MaxBackups     int          `yaml:"max-backups"`
}

// BindFlags registers every config field as a pflag and binds it into
// viper's default instance, mirroring the teacher's generated
// BindFlags(flagSet) shape (spec.md §3).
func BindFlags(flagSet *pflag.FlagSet) error {
	flagSet.String("disk-path", "", "Path of the backing file for the simulated disk.")
	flagSet.Int("disk-num-sectors", 2000, "Number of sectors on the simulated disk.")
	flagSet.Duration("disk-latency", 0, "Simulated per-sector I/O latency.")

	flagSet.Duration("scheduler-time-quantum", 0, "Preemption quantum; 0 disables the timer.")
	flagSet.Bool("scheduler-disable-preemption", true, "Disable periodic timer-driven Yield.")

	flagSet.Int("vm-num-phys-pages", 32, "Number of physical page frames.")
	flagSet.Int("vm-tlb-size", 0, "TLB entries; 0 simulates a machine with no TLB.")
	flagSet.String("vm-load-mode", "demand", "Page loading mode: direct or demand.")
	flagSet.String("vm-replacement-policy", "fifo", "Page replacement policy: fifo, random, or clock.")
	flagSet.Bool("vm-swap-enabled", true, "Allow eviction to a per-process swap file.")
	flagSet.String("vm-swap-dir", "", "Directory swap files are created in.")

	flagSet.Bool("file-system-format-on-boot", false, "Treat the disk as blank and lay down a fresh free map and root directory.")
	flagSet.String("file-system-snapshot-dir", "", "Directory Check() writes postmortem YAML snapshots to on failure.")
	flagSet.Int("file-system-max-arg-len", 256, "Maximum bytes read for one Exec argv string.")

	flagSet.String("logging-severity", "INFO", "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	flagSet.String("logging-debug-channels", "", "Comma-separated subsystem names enabled for Debug-level logging.")
	flagSet.String("logging-rotate-file-path", "", "Path to write rotating log output to; empty logs to stderr only.")
	flagSet.Int("logging-max-file-size-mb", 512, "Maximum size in MiB of one log file before rotation.")
	flagSet.Int("logging-max-backups", 10, "Number of rotated log files retained.")

	return viper.BindPFlags(flagSet)
}


