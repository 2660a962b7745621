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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
)

func TestWireTapDefaults(t *testing.T) {
	d := From("direct:start").WireTap("direct:tap")
	assert.True(t, d.IsCopy())
	assert.True(t, d.IsDynamic())
	assert.Equal(t, types.InOnly, d.Pattern())
	assert.Equal(t, "WireTap[direct:tap]", d.String())
	assert.Equal(t, "wireTap[direct:tap]", d.Label())

	route := d.CopyExchange(false).Dynamic(false).WithCacheSize(10).End()
	require.NotNil(t, route)
	assert.False(t, d.IsCopy())
	assert.False(t, d.IsDynamic())
	assert.Equal(t, 10, d.CacheSize)
	assert.Len(t, route.Outputs, 1)
}

func TestWireTapRequiresUri(t *testing.T) {
	err := From("direct:start").WireTap("").End().Validate()
	var iae *types.IllegalArgumentError
	assert.ErrorAs(t, err, &iae)
}

func TestOnCompletionExclusiveFlags(t *testing.T) {
	oc := NewOnCompletion().CompleteOnly().FailureOnly()
	err := oc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Both onCompleteOnly and onFailureOnly cannot be true")

	route := From("direct:a")
	route.OnCompletion().FailureOnly().CompleteOnly().End().To("log:x")
	assert.Error(t, route.Validate())

	ok := NewOnCompletion().CompleteOnly()
	assert.NoError(t, ok.Validate())
	assert.Equal(t, AfterConsumer, ok.GetMode())
}

func TestOnCompletionString(t *testing.T) {
	oc := NewOnCompletion().To("log:done").Log("bye")
	assert.Equal(t, "onCompletion[to[log:done], log[bye]]", oc.String())
	assert.Equal(t, BeforeConsumer, oc.ModeBeforeConsumer().GetMode())
}

func TestRefExpression(t *testing.T) {
	e := NewRefExpression("myBean")
	assert.Equal(t, "ref", e.Language)
	assert.Equal(t, "myBean", e.Expression)
	assert.Equal(t, "ref{myBean}", Ref("myBean").String())
}

func TestParseRoutes(t *testing.T) {
	data := []byte(`
routes:
  - id: hello
    from: undertow:http://0.0.0.0:8080/hello
    steps:
      - setHeader:
          name: greeting
          constant: hi
      - wireTap:
          uri: direct:audit
          copy: false
          newExchangeBody:
            expr: "'tapped'"
          headers:
            - name: source
              constant: hello
      - filter:
          expr: header.greeting == "hi"
          steps:
            - to: log:filtered
      - onCompletion:
          mode: BeforeConsumer
          onCompleteOnly: true
          onWhen:
            ref: myPredicate
          steps:
            - log: done ${id}
      - setBody: ok
      - process: myProcessor
`)
	routes, err := ParseRoutes(data)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	r := routes[0]
	assert.Equal(t, "hello", r.Id)
	assert.Equal(t, "undertow:http://0.0.0.0:8080/hello", r.From)
	require.Len(t, r.Outputs, 5)

	sh := r.Outputs[0].(*SetHeaderDefinition)
	assert.Equal(t, "greeting", sh.Name)
	assert.Equal(t, "constant", sh.Expression.Language)

	wt := r.Outputs[1].(*WireTapDefinition)
	assert.Equal(t, "direct:audit", wt.Uri)
	assert.False(t, wt.IsCopy())
	assert.Equal(t, "expr", wt.NewExchangeExpression.Language)
	require.Len(t, wt.Headers, 1)
	assert.Equal(t, "source", wt.Headers[0].Name)

	f := r.Outputs[2].(*FilterDefinition)
	assert.Equal(t, "expr", f.Predicate.Language)
	require.Len(t, f.Outputs, 1)

	require.Len(t, r.OnCompletions, 1)
	oc := r.OnCompletions[0]
	assert.Equal(t, BeforeConsumer, oc.GetMode())
	assert.True(t, oc.OnCompleteOnly)
	assert.True(t, oc.RouteScoped)
	assert.Equal(t, "ref", oc.OnWhen.Language)
	require.Len(t, oc.Outputs, 1)

	assert.Equal(t, "constant", r.Outputs[3].(*SetBodyDefinition).Expression.Language)
	assert.Equal(t, "myProcessor", r.Outputs[4].(*ProcessDefinition).Ref)
}

func TestParseRoutesRejectsConflictingOnCompletion(t *testing.T) {
	data := []byte(`
routes:
  - from: direct:a
    steps:
      - onCompletion:
          onCompleteOnly: true
          onFailureOnly: true
          steps:
            - log: x
`)
	_, err := ParseRoutes(data)
	assert.Error(t, err)
}

func TestParseRoutesUnknownStep(t *testing.T) {
	_, err := ParseRoutes([]byte("routes:\n  - from: direct:a\n    steps:\n      - bogus: 1\n"))
	assert.Error(t, err)
}
