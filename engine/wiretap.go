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
	"fmt"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/str"
)

// WireTapProcessor sends a copy of the exchange, or a new exchange, to an
// endpoint on the pool. The original exchange continues without waiting.
//
// WireTapProcessor 窃听器处理器
type WireTapProcessor struct {
	ctx     types.Context
	uri     string
	dynamic bool
	copy    bool
	// new exchange configuration, used when copy is false
	newExchangeProcessor  types.Processor
	newExchangeExpression types.Expression
	headers               []*SetHeaderProcessor
	onPrepare             types.Processor
	pool                  types.Pool
	ignoreInvalid         bool
	cache                 *producerCache
}

func (w *WireTapProcessor) Process(exchange *types.Exchange) error {
	uri := w.uri
	if w.dynamic {
		uri = Interpolate(w.ctx, exchange, uri)
	}
	producer, err := w.cache.acquire(uri)
	if err != nil {
		if w.ignoreInvalid {
			w.ctx.Config().Logger.Printf("Endpoint uri is invalid: %s. This exchange will not be sent to any endpoint: %v", uri, err)
			return nil
		}
		return err
	}
	tapped, err := w.createExchange(exchange)
	if err != nil {
		return err
	}
	if w.onPrepare != nil {
		if err := Safe(w.onPrepare, tapped); err != nil {
			return err
		}
	}
	tapped.SetProperty(types.ToEndpointProperty, uri)
	handler := w.ctx.Config().ExceptionHandler
	send := func() {
		if err := Safe(producer, tapped); err != nil {
			tapped.SetErr(err)
		}
		if tapped.IsFailed() && handler != nil {
			handler.HandleException("Error processing wire-tapped exchange", tapped, tapped.Err())
		}
	}
	if err := w.pool.Submit(send); err != nil && handler != nil {
		handler.HandleException("Error submitting wire-tapped exchange", tapped, err)
	}
	return nil
}

func (w *WireTapProcessor) createExchange(exchange *types.Exchange) (*types.Exchange, error) {
	var tapped *types.Exchange
	if w.copy {
		tapped = exchange.Copy()
		tapped.SetErr(nil)
	} else {
		tapped = types.NewExchange(exchange.Context())
		tapped.SetFromEndpoint(exchange.FromEndpoint())
		tapped.SetProperty(types.CorrelationIdProperty, exchange.Id())
		if w.newExchangeProcessor != nil {
			if err := Safe(w.newExchangeProcessor, tapped); err != nil {
				return nil, err
			}
		}
		if w.newExchangeExpression != nil {
			// evaluated against the original so it can read its body and headers
			body, err := w.newExchangeExpression.Evaluate(exchange)
			if err != nil {
				return nil, err
			}
			tapped.In().SetBody(body)
		}
		for _, h := range w.headers {
			v, err := h.Expression.Evaluate(exchange)
			if err != nil {
				return nil, err
			}
			tapped.In().SetHeader(h.Name, v)
		}
	}
	// the tapped send outlives the original, e.g. an HTTP request context
	tapped.SetContext(context.WithoutCancel(exchange.Context()))
	tapped.SetPattern(types.InOnly)
	return tapped, nil
}

// Start creates and starts the producer of a uri without placeholders.
// With ignoreInvalid an invalid endpoint is only logged.
func (w *WireTapProcessor) Start() error {
	if w.dynamic && str.CheckHasVar(w.uri) {
		return nil
	}
	if _, err := w.cache.acquire(w.uri); err != nil {
		if w.ignoreInvalid {
			w.ctx.Config().Logger.Printf("Endpoint uri is invalid: %s. This exchange will not be sent to any endpoint: %v", w.uri, err)
			return nil
		}
		return fmt.Errorf("%s: %w", w, err)
	}
	return nil
}

func (w *WireTapProcessor) Stop() error {
	return w.cache.Stop()
}

func (w *WireTapProcessor) String() string {
	return "WireTap[" + w.uri + "]"
}
