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

package language

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rulego/routego/api/types"
)

// Expr is the expr-lang language: `headers.kind == "order" && body != nil`.
type Expr struct{}

func (l *Expr) Name() string {
	return "expr"
}

func (l *Expr) CreateExpression(ctx types.Context, text string) (types.Expression, error) {
	program, err := expr.Compile(text, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return types.ExpressionFunc(func(exchange *types.Exchange) (interface{}, error) {
		return vm.Run(program, Env(ctx, exchange))
	}), nil
}

func (l *Expr) CreatePredicate(ctx types.Context, text string) (types.Predicate, error) {
	program, err := expr.Compile(text, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return types.PredicateFunc(func(exchange *types.Exchange) (bool, error) {
		out, err := vm.Run(program, Env(ctx, exchange))
		if err != nil {
			return false, err
		}
		result, _ := out.(bool)
		return result, nil
	}), nil
}
