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
	"context"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/model"
)

const (
	// OnCompletionProperty is set on exchanges created for onCompletion outputs.
	OnCompletionProperty = "CamelOnCompletion"
	// ExceptionCaughtProperty holds the error of the completed exchange.
	ExceptionCaughtProperty = "CamelExceptionCaught"
)

// OnCompletionProcessor registers a synchronization on the unit of work of
// each exchange. The outputs run on a copy when the unit of work is done.
//
// OnCompletionProcessor 完成回调处理器
type OnCompletionProcessor struct {
	ctx                types.Context
	mode               model.OnCompletionMode
	onCompleteOnly     bool
	onFailureOnly      bool
	onWhen             types.Predicate
	useOriginalMessage bool
	parallel           bool
	pool               types.Pool
	outputs            *Pipeline
}

// Process registers the synchronization. It never fails the exchange.
func (p *OnCompletionProcessor) Process(exchange *types.Exchange) error {
	uow := exchange.UnitOfWork()
	if uow == nil {
		return nil
	}
	uow.AddSynchronization(&onCompletionSync{processor: p})
	return nil
}

func (p *OnCompletionProcessor) run(exchange *types.Exchange) {
	if p.onWhen != nil {
		matches, err := p.onWhen.Matches(exchange)
		if err != nil {
			p.handle("Error evaluating onWhen", exchange, err)
			return
		}
		if !matches {
			return
		}
	}
	answer := p.prepare(exchange)
	if p.parallel {
		answer.SetContext(context.WithoutCancel(exchange.Context()))
		if err := p.pool.Submit(func() { p.process(answer) }); err != nil {
			p.handle("Error submitting onCompletion", answer, err)
		}
		return
	}
	p.process(answer)
}

func (p *OnCompletionProcessor) process(exchange *types.Exchange) {
	if err := p.outputs.Process(exchange); err != nil {
		p.handle("Error processing onCompletion", exchange, err)
	}
}

func (p *OnCompletionProcessor) prepare(exchange *types.Exchange) *types.Exchange {
	answer := exchange.Copy()
	if p.useOriginalMessage {
		if original, ok := exchange.Property(types.OriginalMessageProperty).(*types.Message); ok {
			answer.SetIn(original.Copy())
			answer.SetOut(nil)
		}
	}
	if err := exchange.Err(); err != nil {
		answer.SetProperty(ExceptionCaughtProperty, err)
	}
	answer.SetErr(nil)
	answer.SetProperty(OnCompletionProperty, true)
	return answer
}

func (p *OnCompletionProcessor) handle(message string, exchange *types.Exchange, err error) {
	if h := p.ctx.Config().ExceptionHandler; h != nil {
		h.HandleException(message, exchange, err)
	}
}

func (p *OnCompletionProcessor) String() string {
	return "onCompletion[" + string(p.mode) + "]"
}

type onCompletionSync struct {
	processor *OnCompletionProcessor
}

func (s *onCompletionSync) OnComplete(exchange *types.Exchange) {
	if s.processor.onFailureOnly {
		return
	}
	s.processor.run(exchange)
}

func (s *onCompletionSync) OnFailure(exchange *types.Exchange) {
	if s.processor.onCompleteOnly {
		return
	}
	s.processor.run(exchange)
}

func (s *onCompletionSync) BeforeConsumer() bool {
	return s.processor.mode == model.BeforeConsumer
}
