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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
)

type testContext struct {
	registry map[string]interface{}
}

func (c *testContext) Config() types.Config {
	return types.Config{Logger: types.DefaultLogger(), Properties: map[string]string{"env": "test"}}
}

func (c *testContext) Endpoint(uri string) (types.Endpoint, error) {
	return nil, types.ErrNoSuchEndpoint
}

func (c *testContext) Registry() types.Registry {
	return c
}

func (c *testContext) Bind(name string, bean interface{}) {
	c.registry[name] = bean
}

func (c *testContext) Lookup(name string) (interface{}, bool) {
	v, ok := c.registry[name]
	return v, ok
}

func newExchange() *types.Exchange {
	ex := types.NewExchange(nil)
	ex.In().SetHeader("kind", "order")
	ex.In().SetBody("hello")
	return ex
}

func TestExpr(t *testing.T) {
	lang, err := Lookup("expr")
	require.NoError(t, err)
	ctx := &testContext{}

	p, err := lang.CreatePredicate(ctx, `headers.kind == "order" && global.env == "test"`)
	require.NoError(t, err)
	ok, err := p.Matches(newExchange())
	require.NoError(t, err)
	assert.True(t, ok)

	e, err := lang.CreateExpression(ctx, `body + "!"`)
	require.NoError(t, err)
	v, err := e.Evaluate(newExchange())
	require.NoError(t, err)
	assert.Equal(t, "hello!", v)

	_, err = lang.CreateExpression(ctx, `body +`)
	assert.Error(t, err)
}

func TestJs(t *testing.T) {
	lang, err := Lookup("js")
	require.NoError(t, err)
	ctx := &testContext{}

	p, err := lang.CreatePredicate(ctx, `headers.kind === "order"`)
	require.NoError(t, err)
	ok, err := p.Matches(newExchange())
	require.NoError(t, err)
	assert.True(t, ok)

	e, err := lang.CreateExpression(ctx, `var n = body.length; return n * 2;`)
	require.NoError(t, err)
	v, err := e.Evaluate(newExchange())
	require.NoError(t, err)
	assert.EqualValues(t, 10, v)
}

func TestRef(t *testing.T) {
	ctx := &testContext{registry: map[string]interface{}{
		"isOrder": types.PredicateFunc(func(ex *types.Exchange) (bool, error) {
			return ex.In().HeaderString("kind") == "order", nil
		}),
		"upper": types.ExpressionFunc(func(ex *types.Exchange) (interface{}, error) {
			return "HELLO", nil
		}),
		"notABean": 42,
	}}
	lang, err := Lookup("ref")
	require.NoError(t, err)

	p, err := lang.CreatePredicate(ctx, "isOrder")
	require.NoError(t, err)
	ok, err := p.Matches(newExchange())
	require.NoError(t, err)
	assert.True(t, ok)

	e, err := lang.CreateExpression(ctx, "upper")
	require.NoError(t, err)
	v, _ := e.Evaluate(newExchange())
	assert.Equal(t, "HELLO", v)

	e, err = lang.CreateExpression(ctx, "isOrder")
	require.NoError(t, err)
	v, _ = e.Evaluate(newExchange())
	assert.Equal(t, true, v)

	_, err = lang.CreateExpression(ctx, "missing")
	assert.Error(t, err)
	_, err = lang.CreatePredicate(ctx, "notABean")
	assert.Error(t, err)
}

func TestConstantAndHeader(t *testing.T) {
	c, _ := Lookup("constant")
	e, err := c.CreateExpression(nil, "fixed")
	require.NoError(t, err)
	v, _ := e.Evaluate(newExchange())
	assert.Equal(t, "fixed", v)

	h, _ := Lookup("header")
	e, _ = h.CreateExpression(nil, "kind")
	v, _ = e.Evaluate(newExchange())
	assert.Equal(t, "order", v)

	_, err = Lookup("groovy")
	assert.Error(t, err)
}
