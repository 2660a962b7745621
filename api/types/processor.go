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
	"context"
	"sync"
)

// Processor processes one exchange synchronously.
// Processor 同步处理一个消息交换
type Processor interface {
	Process(exchange *Exchange) error
}

// ProcessorFunc 函数适配为Processor
type ProcessorFunc func(exchange *Exchange) error

func (f ProcessorFunc) Process(exchange *Exchange) error {
	return f(exchange)
}

// AsyncProcessor submits an exchange for processing and returns at once.
// The returned Future completes when the exchange is done, successfully or not.
//
// AsyncProcessor 异步处理消息交换，立即返回Future
type AsyncProcessor interface {
	ProcessAsync(exchange *Exchange) Future
}

// Future is the pending result of an asynchronously processed exchange.
// Continuations registered with Then run on the goroutine that completes it,
// or immediately on the caller when it is already complete.
type Future interface {
	// Done is closed when the exchange is complete.
	Done() <-chan struct{}
	// Wait blocks until completion or until ctx is done, returning the exchange error.
	Wait(ctx context.Context) error
	// Then registers a continuation.
	Then(fn func(exchange *Exchange)) Future
	Exchange() *Exchange
}

// CompletableFuture is the Future implementation used by async processors.
type CompletableFuture struct {
	exchange  *Exchange
	done      chan struct{}
	mu        sync.Mutex
	completed bool
	callbacks []func(exchange *Exchange)
}

// NewFuture 创建一个未完成的Future
func NewFuture(exchange *Exchange) *CompletableFuture {
	return &CompletableFuture{exchange: exchange, done: make(chan struct{})}
}

// CompletedFuture 创建一个已完成的Future
func CompletedFuture(exchange *Exchange) *CompletableFuture {
	f := NewFuture(exchange)
	f.Complete()
	return f
}

func (f *CompletableFuture) Exchange() *Exchange {
	return f.exchange
}

func (f *CompletableFuture) Done() <-chan struct{} {
	return f.done
}

func (f *CompletableFuture) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.exchange.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *CompletableFuture) Then(fn func(exchange *Exchange)) Future {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return f
	}
	f.mu.Unlock()
	fn(f.exchange)
	return f
}

// Complete marks the future done and runs the continuations in registration order.
// Only the first call has an effect.
func (f *CompletableFuture) Complete() {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(f.exchange)
	}
	close(f.done)
}
