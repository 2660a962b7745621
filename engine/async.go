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
	"github.com/rulego/routego/api/types"
)

var _ types.AsyncProcessor = (*AsyncProcessor)(nil)

// AsyncProcessor runs a processor on the pool and completes a future when done.
// Errors and panics are recorded on the exchange.
//
// AsyncProcessor 在协程池中异步执行处理器
type AsyncProcessor struct {
	processor types.Processor
	pool      types.Pool
}

// NewAsyncProcessor 创建异步处理器
func NewAsyncProcessor(processor types.Processor, pool types.Pool) *AsyncProcessor {
	return &AsyncProcessor{processor: processor, pool: pool}
}

// Processor returns the wrapped processor.
func (a *AsyncProcessor) Processor() types.Processor {
	return a.processor
}

func (a *AsyncProcessor) ProcessAsync(exchange *types.Exchange) types.Future {
	future := types.NewFuture(exchange)
	task := func() {
		if err := Safe(a.processor, exchange); err != nil && !exchange.IsFailed() {
			exchange.SetErr(err)
		}
		future.Complete()
	}
	if a.pool == nil {
		go task()
		return future
	}
	if err := a.pool.Submit(task); err != nil {
		exchange.SetErr(types.ErrPoolExhausted)
		future.Complete()
	}
	return future
}

// Process runs the processor synchronously.
func (a *AsyncProcessor) Process(exchange *types.Exchange) error {
	return Safe(a.processor, exchange)
}

// AsAsync returns processor as an AsyncProcessor, wrapping it when needed.
func AsAsync(processor types.Processor, pool types.Pool) types.AsyncProcessor {
	if ap, ok := processor.(types.AsyncProcessor); ok {
		return ap
	}
	return NewAsyncProcessor(processor, pool)
}
