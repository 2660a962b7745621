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

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/language"
	"github.com/rulego/routego/model"
)

// Route is a compiled route: its consumer feeds the route processor.
//
// Route 编译后的路由
type Route struct {
	Id   string
	From string

	ctx       types.Context
	processor *RouteProcessor
	services  []types.Service
	consumer  types.Consumer
}

// Processor returns the processor the consumer calls.
func (r *Route) Processor() types.Processor {
	return r.processor
}

// Consumer is set once the route is started.
func (r *Route) Consumer() types.Consumer {
	return r.consumer
}

// Start starts the producers used by the route, then creates and starts the
// consumer of the from endpoint. On failure the started producers are stopped.
func (r *Route) Start() error {
	var started []types.Service
	rollback := func(err error) error {
		for i := len(started) - 1; i >= 0; i-- {
			_ = started[i].Stop()
		}
		return fmt.Errorf("route %s: %w", r.Id, err)
	}
	for _, s := range r.services {
		if err := s.Start(); err != nil {
			return rollback(err)
		}
		started = append(started, s)
	}
	endpoint, err := r.ctx.Endpoint(r.From)
	if err != nil {
		return rollback(err)
	}
	consumer, err := endpoint.CreateConsumer(r.processor)
	if err != nil {
		return rollback(err)
	}
	if err = consumer.Start(); err != nil {
		return rollback(err)
	}
	r.consumer = consumer
	return nil
}

// Stop stops the consumer first, then the producers used by the route.
func (r *Route) Stop() error {
	var errs []error
	if r.consumer != nil {
		if err := r.consumer.Stop(); err != nil {
			errs = append(errs, err)
		}
		r.consumer = nil
	}
	for _, s := range r.services {
		if err := s.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RouteProcessor runs the route. It registers the route's onCompletions and
// runs the pipeline. When the exchange has no unit of work yet, it creates one
// and completes it after the pipeline.
type RouteProcessor struct {
	ctx         types.Context
	id          string
	completions []*OnCompletionProcessor
	pipeline    *Pipeline
}

func (p *RouteProcessor) Process(exchange *types.Exchange) error {
	uow := exchange.UnitOfWork()
	owner := uow == nil
	if owner {
		uow = p.ctx.Config().UnitOfWorkFactory(exchange)
		exchange.SetUnitOfWork(uow)
		defer func() {
			uow.Done(exchange)
			exchange.SetUnitOfWork(nil)
		}()
	}
	for _, c := range p.completions {
		_ = c.Process(exchange)
	}
	err := p.pipeline.Process(exchange)
	if owner {
		uow.BeforeRoute(exchange)
	}
	return err
}

func (p *RouteProcessor) String() string {
	return "Route(" + p.id + ")"
}

// BuildRoute compiles a route definition. Configuration errors are returned
// before any consumer is created.
//
// BuildRoute 编译路由定义
func BuildRoute(ctx types.Context, def *model.RouteDefinition) (*Route, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	b := &builder{ctx: ctx}
	pipeline, err := b.pipeline(def.Outputs)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", def.Id, err)
	}
	processor := &RouteProcessor{ctx: ctx, id: def.Id, pipeline: pipeline}
	for _, oc := range def.OnCompletions {
		c, err := b.onCompletion(oc)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", def.Id, err)
		}
		processor.completions = append(processor.completions, c)
	}
	return &Route{Id: def.Id, From: def.From, ctx: ctx, processor: processor, services: b.services}, nil
}

type builder struct {
	ctx      types.Context
	services []types.Service
}

func (b *builder) pipeline(outputs []model.ProcessorDefinition) (*Pipeline, error) {
	var processors []types.Processor
	for _, o := range outputs {
		p, err := b.processor(o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.Label(), err)
		}
		processors = append(processors, p)
	}
	return NewPipeline(processors...), nil
}

func (b *builder) processor(def model.ProcessorDefinition) (types.Processor, error) {
	switch d := def.(type) {
	case *model.ToDefinition:
		p := NewSendProcessor(b.ctx, d.Uri)
		b.services = append(b.services, p)
		return p, nil
	case *model.SetHeaderDefinition:
		e, err := b.expression(d.Expression)
		if err != nil {
			return nil, err
		}
		return &SetHeaderProcessor{Name: d.Name, Expression: e}, nil
	case *model.SetBodyDefinition:
		e, err := b.expression(d.Expression)
		if err != nil {
			return nil, err
		}
		return &SetBodyProcessor{Expression: e}, nil
	case *model.LogDefinition:
		return &LogProcessor{ctx: b.ctx, Message: d.Message}, nil
	case *model.ProcessDefinition:
		if d.Processor != nil {
			return d.Processor, nil
		}
		return LookupProcessor(b.ctx.Registry(), d.Ref)
	case *model.FilterDefinition:
		predicate, err := b.predicate(d.Predicate)
		if err != nil {
			return nil, err
		}
		pipeline, err := b.pipeline(d.Outputs)
		if err != nil {
			return nil, err
		}
		return &FilterProcessor{Predicate: predicate, Pipeline: pipeline}, nil
	case *model.WireTapDefinition:
		return b.wireTap(d)
	case *model.OnCompletionDefinition:
		return b.onCompletion(d)
	default:
		return nil, fmt.Errorf("unsupported definition: %T", def)
	}
}

func (b *builder) wireTap(d *model.WireTapDefinition) (*WireTapProcessor, error) {
	w := &WireTapProcessor{
		ctx:                  b.ctx,
		uri:                  d.Uri,
		dynamic:              d.IsDynamic(),
		copy:                 d.IsCopy(),
		newExchangeProcessor: d.NewExchangeProcessor,
		onPrepare:            d.OnPrepare,
		ignoreInvalid:        d.IgnoreInvalidEndpoint,
		cache:                newProducerCache(b.ctx, d.CacheSize),
	}
	var err error
	if w.newExchangeProcessor == nil && d.NewExchangeProcessorRef != "" {
		if w.newExchangeProcessor, err = LookupProcessor(b.ctx.Registry(), d.NewExchangeProcessorRef); err != nil {
			return nil, err
		}
	}
	if w.onPrepare == nil && d.OnPrepareRef != "" {
		if w.onPrepare, err = LookupProcessor(b.ctx.Registry(), d.OnPrepareRef); err != nil {
			return nil, err
		}
	}
	if d.NewExchangeExpression != nil {
		if w.newExchangeExpression, err = b.expression(d.NewExchangeExpression); err != nil {
			return nil, err
		}
	}
	for _, h := range d.Headers {
		e, err := b.expression(h.Expression)
		if err != nil {
			return nil, err
		}
		w.headers = append(w.headers, &SetHeaderProcessor{Name: h.Name, Expression: e})
	}
	if w.pool, err = b.pool(d.ExecutorService, d.ExecutorServiceRef); err != nil {
		return nil, err
	}
	b.services = append(b.services, w)
	return w, nil
}

func (b *builder) onCompletion(d *model.OnCompletionDefinition) (*OnCompletionProcessor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	outputs, err := b.pipeline(d.Outputs)
	if err != nil {
		return nil, err
	}
	p := &OnCompletionProcessor{
		ctx:                b.ctx,
		mode:               d.GetMode(),
		onCompleteOnly:     d.OnCompleteOnly,
		onFailureOnly:      d.OnFailureOnly,
		useOriginalMessage: d.UseOriginalMessage,
		parallel:           d.ParallelProcessing,
		outputs:            outputs,
	}
	if d.OnWhen != nil {
		if p.onWhen, err = b.predicate(d.OnWhen); err != nil {
			return nil, err
		}
	}
	if p.pool, err = b.pool(d.ExecutorService, d.ExecutorServiceRef); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *builder) pool(pool types.Pool, ref string) (types.Pool, error) {
	if pool != nil {
		return pool, nil
	}
	if ref != "" {
		return LookupPool(b.ctx.Registry(), ref)
	}
	return b.ctx.Config().Pool, nil
}

func (b *builder) expression(def *model.ExpressionDefinition) (types.Expression, error) {
	if def == nil {
		return nil, types.NewIllegalArgumentError("expression must be set")
	}
	if e := def.Instance(); e != nil {
		return e, nil
	}
	if p := def.PredicateInstance(); p != nil {
		return types.ExpressionFunc(func(exchange *types.Exchange) (interface{}, error) {
			return p.Matches(exchange)
		}), nil
	}
	lang, err := language.Lookup(def.Language)
	if err != nil {
		return nil, err
	}
	return lang.CreateExpression(b.ctx, def.Expression)
}

func (b *builder) predicate(def *model.ExpressionDefinition) (types.Predicate, error) {
	if def == nil {
		return nil, types.NewIllegalArgumentError("predicate must be set")
	}
	if p := def.PredicateInstance(); p != nil {
		return p, nil
	}
	if e := def.Instance(); e != nil {
		return types.PredicateFunc(func(exchange *types.Exchange) (bool, error) {
			v, err := e.Evaluate(exchange)
			if err != nil {
				return false, err
			}
			result, _ := v.(bool)
			return result, nil
		}), nil
	}
	lang, err := language.Lookup(def.Language)
	if err != nil {
		return nil, err
	}
	return lang.CreatePredicate(b.ctx, def.Expression)
}
