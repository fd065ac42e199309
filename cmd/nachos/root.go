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

package main

import (
	"fmt"
	"path/filepath"

	"github.com/nachos-go/nachos/cfg"
	"github.com/nachos-go/nachos/internal/klog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	bootConfig    cfg.Config
)

var rootCmd = &cobra.Command{
	Use:           "nachos",
	Short:         "A cooperative-thread OS kernel simulator",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Rationalize(&bootConfig); err != nil {
			return err
		}
		if err := cfg.ValidateConfig(&bootConfig); err != nil {
			return err
		}
		setupLogging(bootConfig.Logging)
		return nil
	},
}

func setupLogging(l cfg.LoggingConfig) {
	klog.SetSeverity(string(l.Severity))
	if l.DebugChannels != "" {
		klog.SetDebugChannels(l.DebugChannels)
	}
	if l.RotateFilePath != "" {
		klog.UseRotatingFile(string(l.RotateFilePath), l.MaxFileSizeMb, l.MaxBackups)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML boot config file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(formatCmd, runCmd, checkCmd)
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&bootConfig, viper.DecodeHook(cfg.DecodeHook()))
		return
	}
	abs, err := filepath.Abs(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(abs)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&bootConfig, viper.DecodeHook(cfg.DecodeHook()))
}
