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

package model

import "github.com/rulego/routego/api/types"

// WireTapDefinition sends a copy (or a new exchange) to an endpoint
// asynchronously while the original exchange continues down the route.
// The tapped exchange is always InOnly.
//
// WireTapDefinition 窃听器：异步把交换副本（或新交换）发送到端点，原交换继续执行
type WireTapDefinition struct {
	Uri string
	// NewExchangeProcessor populates a new exchange instead of copying.
	NewExchangeProcessor types.Processor
	// NewExchangeProcessorRef is a processor bean used like NewExchangeProcessor.
	NewExchangeProcessorRef string
	// NewExchangeExpression sets the body of the new exchange.
	NewExchangeExpression *ExpressionDefinition
	// Headers set on the new exchange.
	Headers []*SetHeaderDefinition
	// ExecutorServiceRef is a types.Pool bean used instead of the context pool.
	ExecutorServiceRef string
	ExecutorService    types.Pool
	// Copy defaults to true.
	Copy *bool
	// DynamicUri defaults to true: ${} placeholders in Uri are resolved per exchange.
	DynamicUri *bool
	OnPrepareRef string
	OnPrepare    types.Processor
	// CacheSize bounds the number of resolved dynamic endpoints kept. 0 means unbounded.
	CacheSize             int
	IgnoreInvalidEndpoint bool

	parent *RouteDefinition
}

// NewWireTap 创建窃听器定义
func NewWireTap(uri string) *WireTapDefinition {
	return &WireTapDefinition{Uri: uri}
}

// IsDynamic reports whether the uri is resolved per exchange. Dynamic by default.
func (d *WireTapDefinition) IsDynamic() bool {
	return d.DynamicUri == nil || *d.DynamicUri
}

// IsCopy reports whether the original exchange is copied. True by default.
func (d *WireTapDefinition) IsCopy() bool {
	return d.Copy == nil || *d.Copy
}

// Pattern is always InOnly.
func (d *WireTapDefinition) Pattern() types.ExchangePattern {
	return types.InOnly
}

func (d *WireTapDefinition) String() string {
	return "WireTap[" + d.Uri + "]"
}

func (d *WireTapDefinition) ShortName() string {
	return "wireTap"
}

func (d *WireTapDefinition) Label() string {
	return "wireTap[" + d.Uri + "]"
}

// End returns to the route so the DSL can continue.
func (d *WireTapDefinition) End() *RouteDefinition {
	return d.parent
}

// ExecutorServiceRefOf sets the pool bean name.
func (d *WireTapDefinition) ExecutorServiceRefOf(ref string) *WireTapDefinition {
	d.ExecutorServiceRef = ref
	return d
}

// Executor sets the pool.
func (d *WireTapDefinition) Executor(pool types.Pool) *WireTapDefinition {
	d.ExecutorService = pool
	return d
}

// CopyExchange sets whether the original exchange is copied.
func (d *WireTapDefinition) CopyExchange(copy bool) *WireTapDefinition {
	d.Copy = &copy
	return d
}

// Dynamic sets whether the uri is resolved per exchange.
func (d *WireTapDefinition) Dynamic(dynamic bool) *WireTapDefinition {
	d.DynamicUri = &dynamic
	return d
}

// NewExchangeBody sends a new exchange with the body computed by expression.
func (d *WireTapDefinition) NewExchangeBody(expression *ExpressionDefinition) *WireTapDefinition {
	d.NewExchangeExpression = expression
	return d
}

// NewExchangeRef sends a new exchange populated by a processor bean.
func (d *WireTapDefinition) NewExchangeRef(ref string) *WireTapDefinition {
	d.NewExchangeProcessorRef = ref
	return d
}

// NewExchange sends a new exchange populated by processor.
func (d *WireTapDefinition) NewExchange(processor types.Processor) *WireTapDefinition {
	d.NewExchangeProcessor = processor
	return d
}

// NewExchangeHeader sets a header on the new exchange.
func (d *WireTapDefinition) NewExchangeHeader(name string, expression *ExpressionDefinition) *WireTapDefinition {
	d.Headers = append(d.Headers, NewSetHeader(name, expression))
	return d
}

// Prepare runs processor on the tapped exchange before it is sent.
func (d *WireTapDefinition) Prepare(processor types.Processor) *WireTapDefinition {
	d.OnPrepare = processor
	return d
}

// PrepareRef runs a processor bean on the tapped exchange before it is sent.
func (d *WireTapDefinition) PrepareRef(ref string) *WireTapDefinition {
	d.OnPrepareRef = ref
	return d
}

// WithCacheSize sets the dynamic endpoint cache size.
func (d *WireTapDefinition) WithCacheSize(size int) *WireTapDefinition {
	d.CacheSize = size
	return d
}

// IgnoreInvalid drops exchanges whose uri cannot be resolved instead of failing.
func (d *WireTapDefinition) IgnoreInvalid() *WireTapDefinition {
	d.IgnoreInvalidEndpoint = true
	return d
}

func (d *WireTapDefinition) Validate() error {
	if d.Uri == "" {
		return types.NewIllegalArgumentError("wireTap uri must be set")
	}
	return nil
}
