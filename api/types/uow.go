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

// Synchronization is a callback on the completion of a unit of work.
// Synchronization 工作单元结束回调
type Synchronization interface {
	OnComplete(exchange *Exchange)
	OnFailure(exchange *Exchange)
}

// SynchronizationFuncs adapts two functions to a Synchronization. Nil funcs are skipped.
type SynchronizationFuncs struct {
	Complete func(exchange *Exchange)
	Failure  func(exchange *Exchange)
}

func (s SynchronizationFuncs) OnComplete(exchange *Exchange) {
	if s.Complete != nil {
		s.Complete(exchange)
	}
}

func (s SynchronizationFuncs) OnFailure(exchange *Exchange) {
	if s.Failure != nil {
		s.Failure(exchange)
	}
}

// UnitOfWork brackets the processing of one exchange by a consumer. The consumer
// creates it before the route runs and calls Done exactly once afterwards, even
// when the route fails.
//
// UnitOfWork 工作单元，消费者在处理前创建，处理后（无论成功失败）调用一次Done
type UnitOfWork interface {
	AddSynchronization(s Synchronization)
	// BeforeRoute runs synchronizations that must fire before the consumer replies.
	BeforeRoute(exchange *Exchange)
	Done(exchange *Exchange)
}

// BeforeConsumerSynchronization marks synchronizations that run in BeforeRoute
// instead of Done.
type BeforeConsumerSynchronization interface {
	Synchronization
	BeforeConsumer() bool
}

// UnitOfWorkFactory 工作单元工厂
type UnitOfWorkFactory func(exchange *Exchange) UnitOfWork
