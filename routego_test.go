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

package routego

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/component/log"
	"github.com/rulego/routego/component/undertow"
	"github.com/rulego/routego/engine"
	"github.com/rulego/routego/model"
	"github.com/rulego/routego/test"
)

func newContext(t *testing.T, opts ...types.Option) *RouteContext {
	ctx := New(opts...)
	t.Cleanup(func() { _ = ctx.Stop() })
	return ctx
}

func recorder(ch chan<- *types.Exchange) types.ProcessorFunc {
	return func(ex *types.Exchange) error {
		ch <- ex
		return nil
	}
}

func receive(t *testing.T, ch <-chan *types.Exchange) *types.Exchange {
	select {
	case ex := <-ch:
		return ex
	case <-time.After(3 * time.Second):
		t.Fatal("nothing received")
		return nil
	}
}

func TestEndpointCacheAndPlaceholders(t *testing.T) {
	ctx := newContext(t, types.WithProperties(map[string]string{"port": "8123", "name": "orders"}))

	a, err := ctx.Endpoint("log:${name}?showHeaders=true&maxChars=3")
	require.NoError(t, err)
	b, err := ctx.Endpoint("log:orders?maxChars=3&showHeaders=true")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.IsType(t, &log.Endpoint{}, a)

	e, err := ctx.Endpoint("undertow:http://localhost:${port}/hello?httpMethodRestrict=GET")
	require.NoError(t, err)
	u := e.(*undertow.Endpoint)
	assert.Equal(t, "localhost:8123", u.RegistrationInfo().Addr())
	assert.Equal(t, "GET", u.RegistrationInfo().MethodRestrict)

	_, err = ctx.Endpoint("nosuch:thing")
	assert.ErrorIs(t, err, types.ErrNoSuchEndpoint)
	_, err = ctx.Endpoint("no-scheme")
	assert.Error(t, err)
	_, err = ctx.Endpoint("log:x?bogus=1")
	assert.Error(t, err)
}

func TestParseUri(t *testing.T) {
	scheme, remaining, params, err := parseUri("undertow:http://0.0.0.0:8080/a/b?matchOnUriPrefix=true&x=1&x=2")
	require.NoError(t, err)
	assert.Equal(t, "undertow", scheme)
	assert.Equal(t, "http://0.0.0.0:8080/a/b", remaining)
	assert.Equal(t, map[string]interface{}{"matchOnUriPrefix": "true", "x": []string{"1", "2"}}, toParams(params))

	_, remaining, _, err = parseUri("log://audit")
	require.NoError(t, err)
	assert.Equal(t, "audit", remaining)
}

func TestAddComponentDuplicate(t *testing.T) {
	ctx := newContext(t)
	assert.Error(t, ctx.AddComponent(log.New(ctx.Config())))
	_, ok := ctx.Component("direct")
	assert.True(t, ok)
}

func TestHttpRouteWithWireTap(t *testing.T) {
	port := test.GetNextAvailable(19000)
	ctx := newContext(t, types.WithProperties(map[string]string{"port": fmt.Sprint(port)}))
	audit := make(chan *types.Exchange, 1)
	ctx.Registry().Bind("auditor", recorder(audit))

	require.NoError(t, ctx.LoadRoutes([]byte(`
routes:
  - id: hello
    from: undertow:http://localhost:${port}/hello?httpMethodRestrict=GET
    steps:
      - setBody:
          expr: '"Hello " + header.name'
      - wireTap: direct:audit
  - id: audit
    from: direct:audit
    steps:
      - process: auditor
`)))
	require.NoError(t, ctx.Start())
	assert.Len(t, ctx.Routes(), 2)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/hello?name=bob", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello bob", string(body))

	tapped := receive(t, audit)
	assert.Equal(t, "Hello bob", tapped.In().Body())
	assert.Equal(t, types.InOnly, tapped.Pattern())
}

// contextAfter waits until released is closed, lets the server finish the
// request, then reports the exchange context error.
func contextAfter(released <-chan struct{}, errs chan<- error) types.ProcessorFunc {
	return func(ex *types.Exchange) error {
		<-released
		time.Sleep(100 * time.Millisecond)
		errs <- ex.Context().Err()
		return nil
	}
}

func TestAsyncSendsOutliveHttpRequest(t *testing.T) {
	port := test.GetNextAvailable(19000)
	ctx := newContext(t)
	released := make(chan struct{})
	tapErrs := make(chan error, 1)
	completionErrs := make(chan error, 1)
	ctx.Registry().Bind("tapped", contextAfter(released, tapErrs))

	route := model.From(fmt.Sprintf("undertow:http://localhost:%d/async", port)).RouteId("async")
	route.OnCompletion().Parallel(true).Process(contextAfter(released, completionErrs))
	route.SetBody(model.NewExpression("constant", "done")).WireTap("direct:tapped")
	require.NoError(t, ctx.AddRoutes(route,
		model.From("direct:tapped").RouteId("tapped").ProcessRef("tapped")))
	require.NoError(t, ctx.Start())

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/async", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "done", string(body))
	close(released)

	for _, errs := range []chan error{tapErrs, completionErrs} {
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("async send did not run")
		}
	}
}

func TestHttpRouteOnFailureCompletion(t *testing.T) {
	port := test.GetNextAvailable(19000)
	ctx := newContext(t, types.WithProperties(map[string]string{"port": fmt.Sprint(port)}))
	completions := make(chan *types.Exchange, 1)
	ctx.Registry().Bind("failing", func(ex *types.Exchange) error { return errors.New("nope") })

	route := model.From(fmt.Sprintf("undertow:http://localhost:%d/fail", port)).RouteId("fail")
	route.OnCompletion().FailureOnly().Process(recorder(completions))
	route.ProcessRef("failing")
	require.NoError(t, ctx.AddRoutes(route))
	require.NoError(t, ctx.Start())

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/fail", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "nope", string(body))

	completed := receive(t, completions)
	assert.EqualError(t, completed.Property(engine.ExceptionCaughtProperty).(error), "nope")
	assert.False(t, completed.IsFailed())
}

func TestStartFailureStopsStartedRoutes(t *testing.T) {
	port := test.GetNextAvailable(19000)
	ctx := newContext(t)
	uri := fmt.Sprintf("undertow:http://localhost:%d/dup", port)
	require.NoError(t, ctx.AddRoutes(model.From(uri).RouteId("a").SetBody(model.NewExpression("constant", "a")),
		model.From(uri).RouteId("b").SetBody(model.NewExpression("constant", "b"))))

	err := ctx.Start()
	assert.ErrorIs(t, err, types.ErrDuplicateRegistration)
	u, _ := ctx.Component(undertow.Scheme)
	assert.Empty(t, u.(*undertow.Component).Handlers())
}

func TestStartFailsOnProducerConfiguration(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.LoadRoutes([]byte(`
routes:
  - id: pub
    from: direct:pub
    steps:
      - to: aws-sns:arn:aws:sns:us-east-1:123456789012:orders?region=us-east-1&subscribeSNStoSQS=true
`)))
	var illegal *types.IllegalArgumentError
	assert.ErrorAs(t, ctx.Start(), &illegal)

	// the consumer was never left registered
	e, err := ctx.Endpoint("direct:pub")
	require.NoError(t, err)
	producer, err := e.CreateProducer()
	require.NoError(t, err)
	assert.ErrorIs(t, producer.Process(types.NewExchange(nil)), types.ErrNoSuchEndpoint)
}

func TestConcurrentHttpRouteStart(t *testing.T) {
	port := test.GetNextAvailable(19000)
	ctx := newContext(t)
	const n = 8
	for i := 0; i < n; i++ {
		uri := fmt.Sprintf("undertow:http://localhost:%d/r%d?accessLog=true", port, i)
		require.NoError(t, ctx.AddRoutes(model.From(uri).RouteId(fmt.Sprint("r", i)).
			SetBody(model.NewExpression("constant", fmt.Sprint("route ", i)))))
	}
	require.NoError(t, ctx.Start())

	u, _ := ctx.Component(undertow.Scheme)
	assert.Len(t, u.(*undertow.Component).Handlers(), n)
	for i := 0; i < n; i++ {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/r%d", port, i))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, fmt.Sprint("route ", i), string(body))
	}
}

func TestRoutesAddedAfterStart(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.Start())
	got := make(chan *types.Exchange, 1)
	ctx.Registry().Bind("sink", recorder(got))
	require.NoError(t, ctx.LoadRoutes([]byte("routes:\n  - id: late\n    from: direct:late\n    steps:\n      - process: sink\n")))

	e, err := ctx.Endpoint("direct:late")
	require.NoError(t, err)
	producer, err := e.CreateProducer()
	require.NoError(t, err)
	ex := types.NewExchange(context.Background())
	ex.In().SetBody("ping")
	require.NoError(t, producer.Process(ex))
	assert.Equal(t, "ping", receive(t, got).In().Body())

	r, ok := ctx.Route("late")
	require.True(t, ok)
	assert.NotNil(t, r.Consumer())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	routes := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(routes, []byte("routes:\n  - id: r1\n    from: direct:in\n    steps:\n      - to: log:out\n"), 0o644))
	file := filepath.Join(dir, "routego.yaml")
	require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf(`
logger:
  level: debug
pool:
  maxWorkers: 16
  maxIdle: 3s
properties:
  port: "8123"
routes: %s
undertow:
  accessLogFile: %s
`, routes, filepath.Join(dir, "access.log"))), 0o644))
	t.Setenv("ROUTEGO_POOL_MAXWORKERS", "32")

	c, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Logger.Level)
	assert.Equal(t, 32, c.Pool.MaxWorkers)
	assert.Equal(t, 3*time.Second, c.Pool.MaxIdle)
	assert.Equal(t, "8123", c.Properties["port"])
	assert.Equal(t, routes, c.Routes)

	ctx, err := NewFromConfig(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Stop() })
	assert.Len(t, ctx.Routes(), 1)
	assert.Equal(t, "8123", ctx.Config().Properties["port"])
	u, _ := ctx.Component(undertow.Scheme)
	assert.Equal(t, filepath.Join(dir, "access.log"), u.(*undertow.Component).AccessLogFile)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Equal(t, engine.DefaultMaxWorkers, c.Pool.MaxWorkers)
	assert.Equal(t, engine.DefaultMaxIdleWorkerDuration, c.Pool.MaxIdle)
	assert.Empty(t, c.Routes)
}

func TestNewFromConfigRoutesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("routes:\n  - id: a\n    from: direct:a\n    steps:\n      - to: log:a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("routes:\n  - id: b\n    from: direct:b\n    steps:\n      - to: log:b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a route"), 0o644))

	c, err := LoadConfig("")
	require.NoError(t, err)
	c.Routes = dir
	ctx, err := NewFromConfig(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Stop() })
	_, ok := ctx.Route("a")
	assert.True(t, ok)
	_, ok = ctx.Route("b")
	assert.True(t, ok)

	c.Routes = filepath.Join(dir, "missing", "*.yaml")
	_, err = NewFromConfig(c)
	assert.Error(t, err)
}
