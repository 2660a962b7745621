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

// Package model holds the route definitions: declarative descriptions of routes
// and the EIPs in them. Definitions are plain configuration, engine.BuildRoute
// turns them into processors.
//
// Package model 路由定义模型
package model

import (
	"fmt"
	"strings"

	"github.com/rulego/routego/api/types"
)

// ProcessorDefinition is one step of a route.
type ProcessorDefinition interface {
	// ShortName is the step kind, e.g. "wireTap".
	ShortName() string
	// Label is a human readable description used in logs.
	Label() string
}

// ExpressionDefinition is an expression in some language, or a preset
// expression/predicate instance.
type ExpressionDefinition struct {
	Language   string
	Expression string

	expression types.Expression
	predicate  types.Predicate
}

// NewExpression 创建表达式定义
func NewExpression(language, text string) *ExpressionDefinition {
	return &ExpressionDefinition{Language: language, Expression: text}
}

// ExpressionOf wraps an expression instance.
func ExpressionOf(e types.Expression) *ExpressionDefinition {
	return &ExpressionDefinition{Language: "instance", expression: e}
}

// PredicateOf wraps a predicate instance.
func PredicateOf(p types.Predicate) *ExpressionDefinition {
	return &ExpressionDefinition{Language: "instance", predicate: p}
}

// Instance returns the preset expression, if any.
func (e *ExpressionDefinition) Instance() types.Expression {
	return e.expression
}

// PredicateInstance returns the preset predicate, if any.
func (e *ExpressionDefinition) PredicateInstance() types.Predicate {
	return e.predicate
}

func (e *ExpressionDefinition) String() string {
	if e.expression != nil || e.predicate != nil {
		return "instance"
	}
	return e.Language + "{" + e.Expression + "}"
}

// RefExpression references an Expression or Predicate bean in the registry.
type RefExpression struct {
	ExpressionDefinition
}

// NewRefExpression 创建引用表达式
func NewRefExpression(ref string) *RefExpression {
	return &RefExpression{ExpressionDefinition{Language: "ref", Expression: ref}}
}

// Ref is shorthand for NewRefExpression(ref) as an ExpressionDefinition.
func Ref(ref string) *ExpressionDefinition {
	return &NewRefExpression(ref).ExpressionDefinition
}

// ToDefinition sends the exchange to an endpoint. The uri may contain ${} placeholders.
type ToDefinition struct {
	Uri string
}

func (d *ToDefinition) ShortName() string { return "to" }
func (d *ToDefinition) Label() string     { return "to[" + d.Uri + "]" }

// SetHeaderDefinition sets a header from an expression.
type SetHeaderDefinition struct {
	Name       string
	Expression *ExpressionDefinition
}

// NewSetHeader 创建设置消息头定义
func NewSetHeader(name string, expression *ExpressionDefinition) *SetHeaderDefinition {
	return &SetHeaderDefinition{Name: name, Expression: expression}
}

func (d *SetHeaderDefinition) ShortName() string { return "setHeader" }
func (d *SetHeaderDefinition) Label() string {
	return "setHeader[" + d.Name + "]"
}

// SetBodyDefinition sets the body from an expression.
type SetBodyDefinition struct {
	Expression *ExpressionDefinition
}

func (d *SetBodyDefinition) ShortName() string { return "setBody" }
func (d *SetBodyDefinition) Label() string     { return "setBody[" + d.Expression.String() + "]" }

// LogDefinition logs a message. ${body}, ${id} and ${header.name} are substituted.
type LogDefinition struct {
	Message string
}

func (d *LogDefinition) ShortName() string { return "log" }
func (d *LogDefinition) Label() string     { return "log[" + d.Message + "]" }

// ProcessDefinition runs a processor instance or a processor bean.
type ProcessDefinition struct {
	Ref       string
	Processor types.Processor
}

func (d *ProcessDefinition) ShortName() string { return "process" }
func (d *ProcessDefinition) Label() string {
	if d.Ref != "" {
		return "ref:" + d.Ref
	}
	return "process"
}

// FilterDefinition runs its outputs only when the predicate matches.
type FilterDefinition struct {
	Predicate *ExpressionDefinition
	Outputs   []ProcessorDefinition
}

func (d *FilterDefinition) ShortName() string { return "filter" }
func (d *FilterDefinition) Label() string {
	return "filter[" + d.Predicate.String() + "]"
}

func labels(outputs []ProcessorDefinition) string {
	items := make([]string, 0, len(outputs))
	for _, o := range outputs {
		items = append(items, o.Label())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Validator is implemented by definitions that can be misconfigured.
type Validator interface {
	Validate() error
}

// Validate checks every definition in outputs, recursively.
func Validate(outputs []ProcessorDefinition) error {
	for _, o := range outputs {
		if v, ok := o.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%s: %w", o.Label(), err)
			}
		}
		if f, ok := o.(*FilterDefinition); ok {
			if err := Validate(f.Outputs); err != nil {
				return err
			}
		}
	}
	return nil
}
