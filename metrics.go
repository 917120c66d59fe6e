// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the small set of counters/gauges the GC façade updates,
// grounded on Voskan/arena-cache's and storj/storj's use of
// prometheus/client_golang for cache/allocator instrumentation. The core
// never depends on a running registry: callers that don't want metrics
// use NewNopMetrics.
type Metrics struct {
	CyclesStarted   prometheus.Counter
	CyclesCompleted prometheus.Counter
	IncrementSteps  prometheus.Counter
	PartitionsLive  prometheus.Gauge
	ObjectTableLen  prometheus.Gauge
}

// NewMetrics registers the collector's counters/gauges on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "motoko_rts_gc", Name: "cycles_started_total",
			Help: "Number of incremental GC cycles started.",
		}),
		CyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "motoko_rts_gc", Name: "cycles_completed_total",
			Help: "Number of incremental GC cycles completed.",
		}),
		IncrementSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "motoko_rts_gc", Name: "increment_steps_total",
			Help: "Total synthetic work units consumed across all increments.",
		}),
		PartitionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "motoko_rts_gc", Name: "partitions_live",
			Help: "Number of partitions currently allocated.",
		}),
		ObjectTableLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "motoko_rts_gc", Name: "object_table_length",
			Help: "Current length of the object table (indirection variant).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CyclesStarted, m.CyclesCompleted, m.IncrementSteps, m.PartitionsLive, m.ObjectTableLen)
	}
	return m
}

// NewNopMetrics returns a Metrics backed by unregistered collectors, for
// callers that don't want to wire a registry (e.g. unit tests).
func NewNopMetrics() *Metrics {
	return NewMetrics(nil)
}
