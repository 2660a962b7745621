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
	"go.opentelemetry.io/otel/trace"

	"github.com/rulego/routego/api/types/metrics"
)

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithPool is an option that sets the pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithTypeConverter is an option that sets the type converter of the Config.
func WithTypeConverter(tc TypeConverter) Option {
	return func(c *Config) error {
		c.TypeConverter = tc
		return nil
	}
}

// WithExceptionHandler is an option that sets the exception handler of the Config.
func WithExceptionHandler(handler ExceptionHandler) Option {
	return func(c *Config) error {
		c.ExceptionHandler = handler
		return nil
	}
}

// WithUnitOfWorkFactory is an option that sets the unit of work factory of the Config.
func WithUnitOfWorkFactory(factory UnitOfWorkFactory) Option {
	return func(c *Config) error {
		c.UnitOfWorkFactory = factory
		return nil
	}
}

// WithTracer is an option that sets the tracer of the Config.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) error {
		c.Tracer = tracer
		return nil
	}
}

// WithMetrics is an option that sets the exchange metrics of the Config.
func WithMetrics(m *metrics.ExchangeMetrics) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// WithProperties is an option that adds global properties.
func WithProperties(properties map[string]string) Option {
	return func(c *Config) error {
		if c.Properties == nil {
			c.Properties = make(map[string]string)
		}
		for k, v := range properties {
			c.Properties[k] = v
		}
		return nil
	}
}
