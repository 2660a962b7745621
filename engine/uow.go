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
	"sync"

	"github.com/rulego/routego/api/types"
)

var _ types.UnitOfWork = (*DefaultUnitOfWork)(nil)

// DefaultUnitOfWork runs its synchronizations when the exchange is done.
// BeforeConsumer synchronizations run in BeforeRoute, or in Done if BeforeRoute
// was never reached. Each synchronization runs at most once.
//
// DefaultUnitOfWork 默认工作单元
type DefaultUnitOfWork struct {
	mu    sync.Mutex
	syncs []types.Synchronization
	ran   map[int]bool
	done  bool
}

// NewUnitOfWork creates a unit of work and records the original In message on
// the exchange under types.OriginalMessageProperty.
func NewUnitOfWork(exchange *types.Exchange) types.UnitOfWork {
	if exchange != nil && exchange.Property(types.OriginalMessageProperty) == nil {
		exchange.SetProperty(types.OriginalMessageProperty, exchange.In().Copy())
	}
	return &DefaultUnitOfWork{ran: make(map[int]bool)}
}

func (u *DefaultUnitOfWork) AddSynchronization(s types.Synchronization) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncs = append(u.syncs, s)
}

func (u *DefaultUnitOfWork) BeforeRoute(exchange *types.Exchange) {
	u.run(exchange, true)
}

// Done is idempotent. Later calls are no-ops.
func (u *DefaultUnitOfWork) Done(exchange *types.Exchange) {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return
	}
	u.done = true
	u.mu.Unlock()
	u.run(exchange, false)
}

func (u *DefaultUnitOfWork) run(exchange *types.Exchange, beforeOnly bool) {
	u.mu.Lock()
	var pending []types.Synchronization
	for i, s := range u.syncs {
		if u.ran[i] {
			continue
		}
		if beforeOnly {
			if b, ok := s.(types.BeforeConsumerSynchronization); !ok || !b.BeforeConsumer() {
				continue
			}
		}
		u.ran[i] = true
		pending = append(pending, s)
	}
	u.mu.Unlock()

	failed := exchange.IsFailed()
	for _, s := range pending {
		if failed {
			s.OnFailure(exchange)
		} else {
			s.OnComplete(exchange)
		}
	}
}
