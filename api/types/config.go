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

package types

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rulego/routego/api/types/metrics"
)

// Config defines the configuration shared by a route context and its components.
// Config 路由上下文及其组件共享的配置
type Config struct {
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Pool is the worker pool. Exchange processing, wire taps and async
	// routing are submitted to it.
	Pool Pool
	// TypeConverter converts message bodies, e.g. to []byte before an HTTP reply.
	TypeConverter TypeConverter
	// ExceptionHandler receives errors that are not propagated to a caller.
	ExceptionHandler ExceptionHandler
	// UnitOfWorkFactory creates the unit of work consumers bracket each exchange with.
	UnitOfWorkFactory UnitOfWorkFactory
	// Tracer starts a span per consumed exchange.
	Tracer trace.Tracer
	// Metrics exchange counters.
	Metrics *metrics.ExchangeMetrics
	// Properties are global properties, ${name} placeholders in endpoint URIs are replaced with them.
	Properties map[string]string
}

// NewConfig creates a new Config with default values and applies the provided options.
// Pool, TypeConverter, ExceptionHandler and UnitOfWorkFactory are left to engine.NewConfig.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:     DefaultLogger(),
		Tracer:     otel.Tracer("routego"),
		Metrics:    metrics.NewExchangeMetrics(),
		Properties: make(map[string]string),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
