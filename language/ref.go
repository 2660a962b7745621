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
	"fmt"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/cast"
)

// RefLanguage looks up an Expression or Predicate bean in the registry.
// The text is the bean name.
type RefLanguage struct{}

func (l *RefLanguage) Name() string {
	return "ref"
}

func (l *RefLanguage) lookup(ctx types.Context, ref string) (interface{}, error) {
	if ctx == nil || ctx.Registry() == nil {
		return nil, fmt.Errorf("no registry to look up ref: %s", ref)
	}
	bean, ok := ctx.Registry().Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("no bean could be found in the registry for: %s", ref)
	}
	return bean, nil
}

func (l *RefLanguage) CreateExpression(ctx types.Context, text string) (types.Expression, error) {
	bean, err := l.lookup(ctx, text)
	if err != nil {
		return nil, err
	}
	switch b := bean.(type) {
	case types.Expression:
		return b, nil
	case types.Predicate:
		return types.ExpressionFunc(func(exchange *types.Exchange) (interface{}, error) {
			return b.Matches(exchange)
		}), nil
	default:
		return nil, fmt.Errorf("bean %s of type %T is not an expression or predicate", text, bean)
	}
}

func (l *RefLanguage) CreatePredicate(ctx types.Context, text string) (types.Predicate, error) {
	bean, err := l.lookup(ctx, text)
	if err != nil {
		return nil, err
	}
	switch b := bean.(type) {
	case types.Predicate:
		return b, nil
	case types.Expression:
		return predicateOf(b), nil
	default:
		return nil, fmt.Errorf("bean %s of type %T is not an expression or predicate", text, bean)
	}
}

// Constant returns its text unchanged.
type Constant struct{}

func (l *Constant) Name() string {
	return "constant"
}

func (l *Constant) CreateExpression(ctx types.Context, text string) (types.Expression, error) {
	return types.ExpressionFunc(func(exchange *types.Exchange) (interface{}, error) {
		return text, nil
	}), nil
}

func (l *Constant) CreatePredicate(ctx types.Context, text string) (types.Predicate, error) {
	v := cast.ToBool(text)
	return types.PredicateFunc(func(exchange *types.Exchange) (bool, error) {
		return v, nil
	}), nil
}

// Header returns the In header named by its text.
type Header struct{}

func (l *Header) Name() string {
	return "header"
}

func (l *Header) CreateExpression(ctx types.Context, text string) (types.Expression, error) {
	return types.ExpressionFunc(func(exchange *types.Exchange) (interface{}, error) {
		return exchange.In().Header(text), nil
	}), nil
}

func (l *Header) CreatePredicate(ctx types.Context, text string) (types.Predicate, error) {
	e, _ := l.CreateExpression(ctx, text)
	return predicateOf(e), nil
}
