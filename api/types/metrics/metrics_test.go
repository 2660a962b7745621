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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeMetrics(t *testing.T) {
	m := NewExchangeMetrics()
	m.Begin()
	m.Begin()
	m.End(false)
	m.End(true)
	m.Begin()

	s := m.Get()
	assert.Equal(t, int64(1), s.Current)
	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.Success)

	m.Reset()
	assert.Equal(t, int64(0), m.Get().Total)
}

func TestExchangeMetricsCollector(t *testing.T) {
	m := NewExchangeMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m))

	m.Begin()
	m.End(true)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "routego_exchanges_failed_total" {
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
