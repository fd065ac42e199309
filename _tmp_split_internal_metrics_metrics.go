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

// Package metrics is the Go-idiomatic replacement for the original Nachos
// "Statistics" global singleton (Design Notes §9): instead of a package
// level global, a Handle value is constructed once and threaded through
// internal/kernel.Kernel. It follows the teacher's common.MetricHandle
// shape (one method per concern, a noop implementation for tests) but is
// backed by github.com/prometheus/client_golang rather than OpenCensus/OTel,
// since the kernel simulator has no distributed trace to export to.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Handle records kernel-wide counters. Every method is safe for concurrent
// use; the prometheus client library handles its own synchronization.
type Handle interface {
	ContextSwitch()
	ThreadForked()
	ThreadFinished()
	TimerTick()
	PageFault()
	PageLoaded(fromSwap bool)
	PageEvicted(dirty bool)
	DiskRead()
	DiskWrite()
	SyscallDispatched(name string)
	FreeSectors(n int)
}

type noop struct{}

// NewNoop returns a Handle that discards everything, for unit tests that
// don't want a global prometheus registry side effect.
func NewNoop() Handle { return noop{} }

func (noop) ContextSwitch()              {}
func (noop) ThreadForked()                {}
func (noop) ThreadFinished()              {}
func (noop) TimerTick()                   {}
func (noop) PageFault()                   {}
func (noop) PageLoaded(bool)              {}
func (noop) PageEvicted(bool)             {}
func (noop) DiskRead()                    {}
func (noop) DiskWrite()                   {}
func (noop) SyscallDispatched(name string) {}
func (noop) FreeSectors(int)              {}

type promHandle struct {
	contextSwitches prometheus.Counter
	threadsForked   prometheus.Counter
	threadsFinished prometheus.Counter
	timerTicks      prometheus.Counter
	pageFaults      prometheus.Counter
	pagesLoaded     *prometheus.CounterVec
	pagesEvicted    *prometheus.CounterVec
	diskReads       prometheus.Counter
	diskWrites      prometheus.Counter
	syscalls        *prometheus.CounterVec
	freeSectors     prometheus.Gauge
}

// NewPrometheus registers the kernel's metric family with reg and returns a
// Handle backed by it. Callers typically pass prometheus.NewRegistry() so
// that multiple kernel instances in the same test binary don't collide on
// the default global registry.
func NewPrometheus(reg prometheus.Registerer) Handle {
	h := &promHandle{
		contextSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "context_switches_total",
			Help: "Number of scheduler context switches.",
		}),
		threadsForked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "threads_forked_total",
			Help: "Number of threads forked.",
		}),
		threadsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "threads_finished_total",
			Help: "Number of threads that reached Finish.",
		}),
		timerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "timer_ticks_total",
			Help: "Number of simulated timer interrupts delivered.",
		}),
		pageFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "page_faults_total",
			Help: "Number of page faults handled.",
		}),
		pagesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nachos", Name: "pages_loaded_total",
			Help: "Number of pages loaded into a physical frame, by source.",
		}, []string{"source"}),
		pagesEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nachos", Name: "pages_evicted_total",
			Help: "Number of pages evicted from a physical frame, by dirtiness.",
		}, []string{"dirty"}),
		diskReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "disk_reads_total",
			Help: "Number of synchronous disk sector reads.",
		}),
		diskWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nachos", Name: "disk_writes_total",
			Help: "Number of synchronous disk sector writes.",
		}),
		syscalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nachos", Name: "syscalls_total",
			Help: "Number of syscalls dispatched, by name.",
		}, []string{"syscall"}),
		freeSectors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nachos", Name: "free_sectors",
			Help: "Number of sectors currently marked free in the FreeMap.",
		}),
	}

	reg.MustRegister(
		h.contextSwitches, h.threadsForked, h.threadsFinished, h.timerTicks,
		h.pageFaults, h.pagesLoaded, h.pagesEvicted, h.diskReads, h.diskWrites,
		h.syscalls, h.freeSectors,
	)

	return h
}

func (h *promHandle) ContextSwitch() { h.contextSwitches.Inc() }
func (h *promHandle) ThreadForked()  { h.threadsForked.Inc() }
func (h *promHandle) ThreadFinished() { h.threadsFinished.Inc() }
func (h *promHandle) TimerTick()     { h.timerTicks.Inc() }
func (h *promHandle) PageFault()     { h.pageFaults.Inc() }

func (h *promHandle) PageLoaded(fromSwap bool) {
	if fromSwap {
		h.pagesLoaded.WithLabelValues("swap").Inc()
	} else {
		h.pagesLoaded.WithLabelValues("executable").Inc()
	}
}

func (h *promHandle) PageEvicted(dirty bool) {
	if dirty {
		h.pagesEvicted.WithLabelValues("true").Inc()
	} else {
		h.pagesEvicted.WithLabelValues("false").Inc()
	}
}

func (h *promHandle) DiskRead()  { h.diskReads.Inc() }
func (h *promHandle) DiskWrite() { h.diskWrites.Inc() }

func (h *promHandle) SyscallDispatched(name string) {
	h.syscalls.WithLabelValues(name).Inc()
}

func (h *promHandle) FreeSectors(n int) {
	h.freeSectors.Set(float64(n))
}


