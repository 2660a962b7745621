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
	"fmt"
	"runtime/debug"

	"github.com/rulego/routego/api/types"
)

// Safe runs processor and turns a panic into an error.
func Safe(processor types.Processor, exchange *types.Exchange) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("processor panic: %v\n%s", e, debug.Stack())
		}
	}()
	return processor.Process(exchange)
}

// Pipeline runs processors in order and stops at the first error. When a step
// produced an Out message it becomes the In message of the next step.
//
// Pipeline 顺序执行处理器，遇错停止
type Pipeline struct {
	processors []types.Processor
}

func NewPipeline(processors ...types.Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

func (p *Pipeline) Process(exchange *types.Exchange) error {
	for i, processor := range p.processors {
		if i > 0 && exchange.HasOut() {
			exchange.SetIn(exchange.Out())
			exchange.SetOut(nil)
		}
		if err := Safe(processor, exchange); err != nil {
			exchange.SetErr(err)
			return err
		}
		if exchange.IsFailed() {
			return exchange.Err()
		}
	}
	return nil
}

// Len is the number of steps.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
