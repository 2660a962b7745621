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

// Package direct provides synchronous in-process endpoints. A direct:name
// consumer receives every exchange sent to a direct:name producer of the same
// component, on the caller's goroutine.
//
// Package direct 同步进程内端点
package direct

import (
	"fmt"
	"sync"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/engine"
)

// Scheme 组件类型
const Scheme = "direct"

var _ types.Component = (*Component)(nil)

// Component Direct组件
type Component struct {
	mu        sync.RWMutex
	consumers map[string]*Consumer
}

// New 创建Direct组件
func New() *Component {
	return &Component{consumers: make(map[string]*Consumer)}
}

func (c *Component) Scheme() string {
	return Scheme
}

func (c *Component) CreateEndpoint(ctx types.Context, uri, remaining string, params map[string]interface{}) (types.Endpoint, error) {
	if remaining == "" {
		return nil, types.NewIllegalArgumentError("direct endpoint needs a name: %s", uri)
	}
	if len(params) > 0 {
		return nil, fmt.Errorf("direct endpoint %s takes no parameters", uri)
	}
	return &Endpoint{component: c, uri: uri, name: remaining}, nil
}

func (c *Component) consumer(name string) (*Consumer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	consumer, ok := c.consumers[name]
	return consumer, ok
}

var _ types.Endpoint = (*Endpoint)(nil)

// Endpoint Direct端点
type Endpoint struct {
	component *Component
	uri       string
	name      string
}

func (e *Endpoint) EndpointUri() string {
	return e.uri
}

func (e *Endpoint) CreateConsumer(processor types.Processor) (types.Consumer, error) {
	return &Consumer{endpoint: e, processor: processor}, nil
}

func (e *Endpoint) CreateProducer() (types.Producer, error) {
	return &Producer{endpoint: e}, nil
}

var _ types.Consumer = (*Consumer)(nil)

// Consumer 在启动时按名称注册
type Consumer struct {
	endpoint  *Endpoint
	processor types.Processor
}

func (c *Consumer) Endpoint() types.Endpoint {
	return c.endpoint
}

// Start fails when another consumer is already registered under the name.
func (c *Consumer) Start() error {
	comp := c.endpoint.component
	comp.mu.Lock()
	defer comp.mu.Unlock()
	if existing, ok := comp.consumers[c.endpoint.name]; ok && existing != c {
		return fmt.Errorf("%w: %s", types.ErrDuplicateRegistration, c.endpoint.uri)
	}
	comp.consumers[c.endpoint.name] = c
	return nil
}

func (c *Consumer) Stop() error {
	comp := c.endpoint.component
	comp.mu.Lock()
	defer comp.mu.Unlock()
	if comp.consumers[c.endpoint.name] == c {
		delete(comp.consumers, c.endpoint.name)
	}
	return nil
}

var _ types.Producer = (*Producer)(nil)

// Producer 同步调用消费者
type Producer struct {
	endpoint *Endpoint
}

func (p *Producer) Endpoint() types.Endpoint {
	return p.endpoint
}

func (p *Producer) Start() error {
	return nil
}

func (p *Producer) Stop() error {
	return nil
}

// Process runs the consumer's processor with exchange. The consumer is looked
// up on every call, so a producer may be created before the consumer starts.
func (p *Producer) Process(exchange *types.Exchange) error {
	consumer, ok := p.endpoint.component.consumer(p.endpoint.name)
	if !ok {
		return fmt.Errorf("%w: no consumers available on endpoint: %s", types.ErrNoSuchEndpoint, p.endpoint.uri)
	}
	return engine.Safe(consumer.processor, exchange)
}
