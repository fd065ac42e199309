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

// Package klog is the kernel's logging facade. It wraps log/slog with the
// five-level severity scheme (TRACE/DEBUG/INFO/WARNING/ERROR) the teacher's
// internal/logger package uses, plus a Nachos-style per-subsystem debug
// channel: spec.md §7 requires that most error kinds be "logged under a
// debug channel" rather than surfaced, and the original `nachos -d` flag
// selected which subsystems (thread, fs, vm, trap, disk) emitted debug
// output. DebugChannel reproduces that selection mechanism.
package klog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	levelTrace = slog.Level(-8)
	levelDebug = slog.LevelDebug
	levelInfo  = slog.LevelInfo
	levelWarn  = slog.LevelWarn
	levelError = slog.LevelError
	levelOff   = slog.Level(100)
)

var severityNames = map[string]slog.Level{
	"TRACE":   levelTrace,
	"DEBUG":   levelDebug,
	"INFO":    levelInfo,
	"WARNING": levelWarn,
	"ERROR":   levelError,
	"OFF":     levelOff,
}

////////////////////////////////////////////////////////////////////////
// Global logger
////////////////////////////////////////////////////////////////////////

var (
	mu            sync.Mutex
	level         = new(slog.LevelVar)
	logger        = slog.New(newHandler(os.Stderr, level))
	debugChannels = map[string]bool{}
)

func newHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Key = "severity"
				a.Value = slog.StringValue(levelName(a.Value.Any().(slog.Level)))
			}
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	})
}

func levelName(l slog.Level) string {
	switch {
	case l < levelDebug:
		return "TRACE"
	case l < levelInfo:
		return "DEBUG"
	case l < levelWarn:
		return "INFO"
	case l < levelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// SetSeverity sets the minimum severity that reaches the log sink. One of
// TRACE, DEBUG, INFO, WARNING, ERROR, OFF.
func SetSeverity(severity string) {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := severityNames[strings.ToUpper(severity)]; ok {
		level.Set(l)
	}
}

// SetDebugChannels enables the per-subsystem debug channel flag the way the
// original `-d<flags>` CLI switch did, e.g. SetDebugChannels("thread,vm").
func SetDebugChannels(spec string) {
	mu.Lock()
	defer mu.Unlock()
	debugChannels = map[string]bool{}
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == "+" || tok == "all" {
			debugChannels["*"] = true
			continue
		}
		debugChannels[tok] = true
	}
}

// UseRotatingFile redirects the logger to a size-rotated file using
// lumberjack, for long-running stress and fuzz scenarios where a kernel
// debug log can otherwise grow unbounded.
func UseRotatingFile(path string, maxSizeMB, maxBackups int) {
	mu.Lock()
	defer mu.Unlock()
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	logger = slog.New(newHandler(w, level))
}

func channelEnabled(subsystem string) bool {
	mu.Lock()
	defer mu.Unlock()
	if debugChannels["*"] {
		return true
	}
	return debugChannels[subsystem]
}

// Debug emits a debug-channel message for subsystem if that channel was
// enabled via SetDebugChannels, implementing spec.md §7's "logged under a
// debug channel" propagation policy for non-fatal internal events (disk
// retries, page-fault retries, lock contention).
func Debug(subsystem, format string, args ...any) {
	if !channelEnabled(subsystem) {
		return
	}
	logger.Debug(sprintf(format, args...), "subsystem", subsystem)
}

func Tracef(format string, args ...any) {
	logger.Log(context.Background(), levelTrace, sprintf(format, args...))
}
func Debugf(format string, args ...any) { logger.Debug(sprintf(format, args...)) }
func Infof(format string, args ...any)  { logger.Info(sprintf(format, args...)) }
func Warnf(format string, args ...any)  { logger.Warn(sprintf(format, args...)) }
func Errorf(format string, args ...any) { logger.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
