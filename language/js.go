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
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/rulego/routego/api/types"
)

const jsFuncName = "$evaluate"

// JsMaxExecutionTime interrupts scripts running longer than this. 0 disables the limit.
var JsMaxExecutionTime = 2 * time.Second

// Js is the JavaScript language backed by goja. A script without a return
// statement is treated as a single expression.
//
//	headers.kind === "order"
//	var n = body.length; return n > 3;
type Js struct{}

func (l *Js) Name() string {
	return "js"
}

func (l *Js) CreateExpression(ctx types.Context, text string) (types.Expression, error) {
	engine, err := newJsEngine(ctx, text)
	if err != nil {
		return nil, err
	}
	return types.ExpressionFunc(engine.execute), nil
}

func (l *Js) CreatePredicate(ctx types.Context, text string) (types.Predicate, error) {
	e, err := l.CreateExpression(ctx, text)
	if err != nil {
		return nil, err
	}
	return predicateOf(e), nil
}

// jsEngine keeps a pool of runtimes with the compiled script loaded.
type jsEngine struct {
	ctx     types.Context
	program *goja.Program
	vmPool  sync.Pool
}

func newJsEngine(ctx types.Context, text string) (*jsEngine, error) {
	body := text
	if !strings.Contains(text, "return") {
		body = "return (" + text + ");"
	}
	script := fmt.Sprintf("function %s(body, headers, properties, id, global) { %s }", jsFuncName, body)
	program, err := goja.Compile("", script, true)
	if err != nil {
		return nil, err
	}
	e := &jsEngine{ctx: ctx, program: program}
	e.vmPool = sync.Pool{
		New: func() interface{} {
			vm := goja.New()
			if _, err := vm.RunProgram(program); err != nil && ctx != nil {
				ctx.Config().Logger.Printf("js vm error: %s", err.Error())
			}
			return vm
		},
	}
	return e, nil
}

func (e *jsEngine) execute(exchange *types.Exchange) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()
	vm := e.vmPool.Get().(*goja.Runtime)
	defer e.vmPool.Put(vm)

	if JsMaxExecutionTime > 0 {
		timer := time.AfterFunc(JsMaxExecutionTime, func() {
			vm.Interrupt("execution timeout")
		})
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()
	}

	f, ok := goja.AssertFunction(vm.Get(jsFuncName))
	if !ok {
		return nil, fmt.Errorf("%s is not a function", jsFuncName)
	}
	env := Env(e.ctx, exchange)
	res, err := f(goja.Undefined(),
		vm.ToValue(env["body"]),
		vm.ToValue(env["headers"]),
		vm.ToValue(env["properties"]),
		vm.ToValue(env["id"]),
		vm.ToValue(env["global"]),
	)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}
