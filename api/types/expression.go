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

// Expression evaluates a value against an exchange.
type Expression interface {
	Evaluate(exchange *Exchange) (interface{}, error)
}

// ExpressionFunc 函数适配为Expression
type ExpressionFunc func(exchange *Exchange) (interface{}, error)

func (f ExpressionFunc) Evaluate(exchange *Exchange) (interface{}, error) {
	return f(exchange)
}

// Predicate evaluates a condition against an exchange.
type Predicate interface {
	Matches(exchange *Exchange) (bool, error)
}

// PredicateFunc 函数适配为Predicate
type PredicateFunc func(exchange *Exchange) (bool, error)

func (f PredicateFunc) Matches(exchange *Exchange) (bool, error) {
	return f(exchange)
}

// Language compiles expression text into expressions and predicates.
type Language interface {
	Name() string
	CreateExpression(ctx Context, text string) (Expression, error)
	CreatePredicate(ctx Context, text string) (Predicate, error)
}
