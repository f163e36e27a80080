// Package hoststats exposes always-on Prometheus metrics for one host
// instance: compiles and callbacks currently in flight, and subprocess
// restarts (always zero in this version, tracked for forward compatibility
// with a future restart policy — see the "no hot restart" non-goal). The
// callbacks-in-flight gauge moves only when CallbackStarted/CallbackFinished
// are called; host.Host and session do not call them, so it stays at zero
// for compiles run through host.Host.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hoststats

import "github.com/prometheus/client_golang/prometheus"

// Collector registers and updates the host's metric set. Embedding
// applications that don't scrape Prometheus can ignore it entirely: every
// method is a no-op-safe counter/gauge mutation, never on the compile hot
// path's error return.
type Collector struct {
	CompilesInFlight        prometheus.Gauge
	CompilesTotal           prometheus.Counter
	CompilesFailedTotal     prometheus.Counter
	CallbacksInFlight       prometheus.Gauge
	SubprocessRestartsTotal prometheus.Counter
}

// NewCollector builds a Collector and registers its metrics against reg. If
// reg is nil, prometheus.NewRegistry() backs it privately so a caller that
// doesn't want global-registry pollution can still use the Collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		CompilesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sass_embedded_host",
			Name:      "compiles_in_flight",
			Help:      "Number of compile sessions currently running against the subprocess.",
		}),
		CompilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sass_embedded_host",
			Name:      "compiles_total",
			Help:      "Total compile requests started.",
		}),
		CompilesFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sass_embedded_host",
			Name:      "compiles_failed_total",
			Help:      "Total compile requests that ended in CompileError, HostError, ProtocolError, or abort.",
		}),
		CallbacksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sass_embedded_host",
			Name:      "callbacks_in_flight",
			Help:      "Number of callback requests (function/importer/logger) currently dispatched to host code.",
		}),
		SubprocessRestartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sass_embedded_host",
			Name:      "subprocess_restarts_total",
			Help:      "Total subprocess restarts. Always 0: this version does not hot-restart a crashed subprocess.",
		}),
	}
	reg.MustRegister(
		c.CompilesInFlight,
		c.CompilesTotal,
		c.CompilesFailedTotal,
		c.CallbacksInFlight,
		c.SubprocessRestartsTotal,
	)
	return c
}

func (c *Collector) CompileStarted() {
	c.CompilesTotal.Inc()
	c.CompilesInFlight.Inc()
}

func (c *Collector) CompileFinished(failed bool) {
	c.CompilesInFlight.Dec()
	if failed {
		c.CompilesFailedTotal.Inc()
	}
}

func (c *Collector) CallbackStarted()  { c.CallbacksInFlight.Inc() }
func (c *Collector) CallbackFinished() { c.CallbacksInFlight.Dec() }
