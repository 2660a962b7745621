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

// Package language provides the expression languages used by routes:
// expr, js, ref, constant and header.
//
// Package language 路由表达式语言
package language

import (
	"fmt"
	"sync"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/cast"
)

var registry = struct {
	sync.RWMutex
	languages map[string]types.Language
}{languages: make(map[string]types.Language)}

func init() {
	Register(&Expr{})
	Register(&Js{})
	Register(&RefLanguage{})
	Register(&Constant{})
	Register(&Header{})
}

// Register adds or replaces a language.
func Register(lang types.Language) {
	registry.Lock()
	defer registry.Unlock()
	registry.languages[lang.Name()] = lang
}

// Lookup 查找表达式语言
func Lookup(name string) (types.Language, error) {
	registry.RLock()
	defer registry.RUnlock()
	if lang, ok := registry.languages[name]; ok {
		return lang, nil
	}
	return nil, fmt.Errorf("no language could be found for: %s", name)
}

// Env is the variable set exposed to expressions.
//
//	body       In body
//	headers    In headers (also as header)
//	properties exchange properties
//	id         exchange id
//	global     context properties
func Env(ctx types.Context, exchange *types.Exchange) map[string]interface{} {
	in := exchange.In()
	env := map[string]interface{}{
		"body":       in.Body(),
		"headers":    map[string]interface{}(in.Headers()),
		"header":     map[string]interface{}(in.Headers()),
		"properties": exchange.Properties(),
		"id":         exchange.Id(),
	}
	if ctx != nil {
		env["global"] = ctx.Config().Properties
	}
	return env
}

// predicateOf evaluates expression and casts the result to bool.
func predicateOf(e types.Expression) types.Predicate {
	return types.PredicateFunc(func(exchange *types.Exchange) (bool, error) {
		v, err := e.Evaluate(exchange)
		if err != nil {
			return false, err
		}
		return cast.ToBool(v), nil
	})
}
