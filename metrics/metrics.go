// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics provides the small set of counters and timers the miner
// registers, using a "NewRegisteredXxx(name)" naming
// convention (see DESIGN.md: no pack file implements a metrics package),
// backed directly by github.com/prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry is the collector registry this package registers into; tests may
// construct their own to avoid cross-test name collisions instead of relying
// on prometheus's global default registry.
var Registry = prometheus.NewRegistry()

func register(c prometheus.Collector) {
	if err := Registry.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

// Counter is a monotonically increasing value.
type Counter struct{ c prometheus.Counter }

func NewRegisteredCounter(name string) *Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: sanitize(name), Help: name})
	register(c)
	return &Counter{c: c}
}

func (c *Counter) Inc(delta int64) { c.c.Add(float64(delta)) }

// Gauge tracks an instantaneous value, such as pending pool size.
type Gauge struct{ g prometheus.Gauge }

func NewRegisteredGauge(name string) *Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: sanitize(name), Help: name})
	register(g)
	return &Gauge{g: g}
}

func (g *Gauge) Update(v int64) { g.g.Set(float64(v)) }

// Timer records durations, such as block-assembly latency.
type Timer struct{ h prometheus.Histogram }

func NewRegisteredTimer(name string) *Timer {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: sanitize(name), Help: name})
	register(h)
	return &Timer{h: h}
}

func (t *Timer) ObserveSeconds(s float64) { t.h.Observe(s) }

// sanitize converts the slash-separated metric names used throughout this
// module ("miner/assemble/duration") into the underscore form Prometheus
// requires.
func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
