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

package model

import (
	"github.com/rulego/routego/api/types"
)

// OnCompletionMode decides when the onCompletion outputs run.
type OnCompletionMode string

const (
	// AfterConsumer runs after the consumer is done with the exchange (default).
	AfterConsumer OnCompletionMode = "AfterConsumer"
	// BeforeConsumer runs at the end of the route, before the consumer replies.
	BeforeConsumer OnCompletionMode = "BeforeConsumer"
)

// OnCompletionDefinition runs its outputs when the exchange's unit of work
// completes, optionally only on success or only on failure.
//
// OnCompletionDefinition 交换完成时执行的输出
type OnCompletionDefinition struct {
	Mode           OnCompletionMode
	OnCompleteOnly bool
	OnFailureOnly  bool
	OnWhen         *ExpressionDefinition
	// ParallelProcessing runs the outputs on the pool instead of the completing goroutine.
	ParallelProcessing bool
	ExecutorServiceRef string
	ExecutorService    types.Pool
	// UseOriginalMessage runs the outputs on the In message as it was when the unit of work started.
	UseOriginalMessage bool
	Outputs            []ProcessorDefinition
	// RouteScoped is set when the definition belongs to a route rather than the context.
	RouteScoped bool

	parent *RouteDefinition
	err    error
}

// NewOnCompletion 创建完成回调定义
func NewOnCompletion() *OnCompletionDefinition {
	return &OnCompletionDefinition{}
}

// GetMode returns the mode, AfterConsumer when unset.
func (d *OnCompletionDefinition) GetMode() OnCompletionMode {
	if d.Mode == "" {
		return AfterConsumer
	}
	return d.Mode
}

func (d *OnCompletionDefinition) String() string {
	return "onCompletion" + labels(d.Outputs)
}

func (d *OnCompletionDefinition) ShortName() string {
	return "onCompletion"
}

func (d *OnCompletionDefinition) Label() string {
	return "onCompletion"
}

// End returns to the route so the DSL can continue.
func (d *OnCompletionDefinition) End() *RouteDefinition {
	return d.parent
}

func (d *OnCompletionDefinition) ModeAfterConsumer() *OnCompletionDefinition {
	d.Mode = AfterConsumer
	return d
}

func (d *OnCompletionDefinition) ModeBeforeConsumer() *OnCompletionDefinition {
	d.Mode = BeforeConsumer
	return d
}

// CompleteOnly runs the outputs only when the exchange succeeded.
// Combining it with FailureOnly is a configuration error reported by Validate.
func (d *OnCompletionDefinition) CompleteOnly() *OnCompletionDefinition {
	if d.OnFailureOnly {
		d.err = d.exclusiveErr()
		return d
	}
	d.OnCompleteOnly = true
	d.OnFailureOnly = false
	return d
}

// FailureOnly runs the outputs only when the exchange failed.
func (d *OnCompletionDefinition) FailureOnly() *OnCompletionDefinition {
	if d.OnCompleteOnly {
		d.err = d.exclusiveErr()
		return d
	}
	d.OnCompleteOnly = false
	d.OnFailureOnly = true
	return d
}

func (d *OnCompletionDefinition) exclusiveErr() error {
	return types.NewIllegalArgumentError("Both onCompleteOnly and onFailureOnly cannot be true. Only one of them can be true. On node: %s", d.String())
}

// When runs the outputs only if predicate matches.
func (d *OnCompletionDefinition) When(predicate *ExpressionDefinition) *OnCompletionDefinition {
	d.OnWhen = predicate
	return d
}

// UseOriginalBody runs the outputs on the original In message.
func (d *OnCompletionDefinition) UseOriginalBody() *OnCompletionDefinition {
	d.UseOriginalMessage = true
	return d
}

func (d *OnCompletionDefinition) Executor(pool types.Pool) *OnCompletionDefinition {
	d.ExecutorService = pool
	return d
}

func (d *OnCompletionDefinition) ExecutorServiceRefOf(ref string) *OnCompletionDefinition {
	d.ExecutorServiceRef = ref
	return d
}

func (d *OnCompletionDefinition) Parallel(parallel bool) *OnCompletionDefinition {
	d.ParallelProcessing = parallel
	return d
}

func (d *OnCompletionDefinition) To(uri string) *OnCompletionDefinition {
	d.Outputs = append(d.Outputs, &ToDefinition{Uri: uri})
	return d
}

func (d *OnCompletionDefinition) Process(processor types.Processor) *OnCompletionDefinition {
	d.Outputs = append(d.Outputs, &ProcessDefinition{Processor: processor})
	return d
}

func (d *OnCompletionDefinition) Log(message string) *OnCompletionDefinition {
	d.Outputs = append(d.Outputs, &LogDefinition{Message: message})
	return d
}

func (d *OnCompletionDefinition) SetBody(expression *ExpressionDefinition) *OnCompletionDefinition {
	d.Outputs = append(d.Outputs, &SetBodyDefinition{Expression: expression})
	return d
}

func (d *OnCompletionDefinition) Validate() error {
	if d.err != nil {
		return d.err
	}
	if d.OnCompleteOnly && d.OnFailureOnly {
		return d.exclusiveErr()
	}
	if mode := d.GetMode(); mode != AfterConsumer && mode != BeforeConsumer {
		return types.NewIllegalArgumentError("unknown onCompletion mode: %s", mode)
	}
	return Validate(d.Outputs)
}
