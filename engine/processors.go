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

package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/str"
)

// producerCache creates, starts and keeps producers per endpoint uri.
// When size is positive the oldest producer is stopped and evicted once the
// cache is full.
type producerCache struct {
	ctx   types.Context
	size  int
	mu    sync.Mutex
	byUri map[string]types.Producer
	order []string
}

func newProducerCache(ctx types.Context, size int) *producerCache {
	return &producerCache{ctx: ctx, size: size, byUri: make(map[string]types.Producer)}
}

func (c *producerCache) acquire(uri string) (types.Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byUri[uri]; ok {
		return p, nil
	}
	endpoint, err := c.ctx.Endpoint(uri)
	if err != nil {
		return nil, err
	}
	p, err := endpoint.CreateProducer()
	if err != nil {
		return nil, err
	}
	if err = p.Start(); err != nil {
		return nil, err
	}
	if c.size > 0 && len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		if old, ok := c.byUri[oldest]; ok {
			_ = old.Stop()
			delete(c.byUri, oldest)
		}
	}
	c.byUri[uri] = p
	c.order = append(c.order, uri)
	return p, nil
}

func (c *producerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byUri)
}

func (c *producerCache) Start() error {
	return nil
}

func (c *producerCache) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for uri, p := range c.byUri {
		if err := p.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop producer %s: %w", uri, err))
		}
	}
	c.byUri = make(map[string]types.Producer)
	c.order = nil
	return errors.Join(errs...)
}

// SendProcessor sends the exchange to an endpoint. The uri may hold ${} placeholders.
//
// SendProcessor 发送交换到端点
type SendProcessor struct {
	ctx     types.Context
	uri     string
	dynamic bool
	cache   *producerCache
}

func NewSendProcessor(ctx types.Context, uri string) *SendProcessor {
	return &SendProcessor{ctx: ctx, uri: uri, dynamic: true, cache: newProducerCache(ctx, 0)}
}

func (s *SendProcessor) Process(exchange *types.Exchange) error {
	uri := s.uri
	if s.dynamic {
		uri = Interpolate(s.ctx, exchange, uri)
	}
	producer, err := s.cache.acquire(uri)
	if err != nil {
		return err
	}
	exchange.SetProperty(types.ToEndpointProperty, uri)
	return producer.Process(exchange)
}

// Start creates and starts the producer of a uri without placeholders, so
// endpoint configuration errors surface before the route consumes.
func (s *SendProcessor) Start() error {
	if s.dynamic && str.CheckHasVar(s.uri) {
		return nil
	}
	if _, err := s.cache.acquire(s.uri); err != nil {
		return fmt.Errorf("%s: %w", s, err)
	}
	return nil
}

func (s *SendProcessor) Stop() error {
	return s.cache.Stop()
}

func (s *SendProcessor) String() string {
	return "sendTo(" + s.uri + ")"
}

// SetHeaderProcessor sets an In header from an expression.
type SetHeaderProcessor struct {
	Name       string
	Expression types.Expression
}

func (p *SetHeaderProcessor) Process(exchange *types.Exchange) error {
	v, err := p.Expression.Evaluate(exchange)
	if err != nil {
		return err
	}
	exchange.In().SetHeader(p.Name, v)
	return nil
}

// SetBodyProcessor sets the In body from an expression.
type SetBodyProcessor struct {
	Expression types.Expression
}

func (p *SetBodyProcessor) Process(exchange *types.Exchange) error {
	v, err := p.Expression.Evaluate(exchange)
	if err != nil {
		return err
	}
	exchange.In().SetBody(v)
	return nil
}

// LogProcessor logs an interpolated message.
type LogProcessor struct {
	ctx     types.Context
	Message string
}

func (p *LogProcessor) Process(exchange *types.Exchange) error {
	p.ctx.Config().Logger.Printf("%s", Interpolate(p.ctx, exchange, p.Message))
	return nil
}

// FilterMatchedProperty records whether the last filter matched.
const FilterMatchedProperty = "CamelFilterMatched"

// FilterProcessor runs its pipeline only when the predicate matches.
type FilterProcessor struct {
	Predicate types.Predicate
	Pipeline  *Pipeline
}

func (p *FilterProcessor) Process(exchange *types.Exchange) error {
	matches, err := p.Predicate.Matches(exchange)
	if err != nil {
		return err
	}
	exchange.SetProperty(FilterMatchedProperty, matches)
	if !matches {
		return nil
	}
	return p.Pipeline.Process(exchange)
}
