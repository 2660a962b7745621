/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics holds exchange counters and exports them to prometheus.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ExchangeMetrics holds counters for consumed exchanges.
type ExchangeMetrics struct {
	Current int64 // Number of exchanges in flight
	Total   int64 // Total number of exchanges
	Failed  int64 // Number of failed exchanges
	Success int64 // Number of successful exchanges

	currentDesc *prometheus.Desc
	totalDesc   *prometheus.Desc
	failedDesc  *prometheus.Desc
	successDesc *prometheus.Desc
}

var _ prometheus.Collector = (*ExchangeMetrics)(nil)

// NewExchangeMetrics creates a new instance of ExchangeMetrics.
func NewExchangeMetrics() *ExchangeMetrics {
	return &ExchangeMetrics{
		currentDesc: prometheus.NewDesc("routego_exchanges_inflight", "Number of exchanges currently being processed.", nil, nil),
		totalDesc:   prometheus.NewDesc("routego_exchanges_total", "Total number of exchanges.", nil, nil),
		failedDesc:  prometheus.NewDesc("routego_exchanges_failed_total", "Number of failed exchanges.", nil, nil),
		successDesc: prometheus.NewDesc("routego_exchanges_succeeded_total", "Number of successful exchanges.", nil, nil),
	}
}

// Begin records the start of an exchange.
func (m *ExchangeMetrics) Begin() {
	atomic.AddInt64(&m.Current, 1)
	atomic.AddInt64(&m.Total, 1)
}

// End records the outcome of an exchange started with Begin.
func (m *ExchangeMetrics) End(failed bool) {
	atomic.AddInt64(&m.Current, -1)
	if failed {
		atomic.AddInt64(&m.Failed, 1)
	} else {
		atomic.AddInt64(&m.Success, 1)
	}
}

// Get returns a copy of the current counters.
func (m *ExchangeMetrics) Get() ExchangeMetrics {
	return ExchangeMetrics{
		Current: atomic.LoadInt64(&m.Current),
		Total:   atomic.LoadInt64(&m.Total),
		Failed:  atomic.LoadInt64(&m.Failed),
		Success: atomic.LoadInt64(&m.Success),
	}
}

// Reset resets all counters to zero.
func (m *ExchangeMetrics) Reset() {
	atomic.StoreInt64(&m.Current, 0)
	atomic.StoreInt64(&m.Total, 0)
	atomic.StoreInt64(&m.Failed, 0)
	atomic.StoreInt64(&m.Success, 0)
}

func (m *ExchangeMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.currentDesc
	ch <- m.totalDesc
	ch <- m.failedDesc
	ch <- m.successDesc
}

func (m *ExchangeMetrics) Collect(ch chan<- prometheus.Metric) {
	s := m.Get()
	ch <- prometheus.MustNewConstMetric(m.currentDesc, prometheus.GaugeValue, float64(s.Current))
	ch <- prometheus.MustNewConstMetric(m.totalDesc, prometheus.CounterValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(m.failedDesc, prometheus.CounterValue, float64(s.Failed))
	ch <- prometheus.MustNewConstMetric(m.successDesc, prometheus.CounterValue, float64(s.Success))
}
