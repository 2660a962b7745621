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

// Package routego is a routing and mediation engine. Routes read exchanges
// from a consumer endpoint and send them through a pipeline of processors to
// producer endpoints.
//
// # Usage
//
// Routes are written in YAML or built with the model package:
//
//	routes:
//	  - id: hello
//	    from: undertow:http://0.0.0.0:${port}/hello?httpMethodRestrict=GET
//	    steps:
//	      - setBody:
//	          expr: '"Hello " + header.name'
//	      - wireTap: log:audit
//	      - onCompletion:
//	          onFailureOnly: true
//	          steps:
//	            - to: aws-sns:alerts?region=eu-west-1
//
// Create a route context, load the routes and start it:
//
//	ctx := routego.New(types.WithProperties(map[string]string{"port": "8080"}))
//	err := ctx.LoadRoutes(data)
//	err = ctx.Start()
//	defer ctx.Stop()
//
// Built-in components are undertow (HTTP/WebSocket), aws-sns, direct and log.
//
// Package routego 路由与中介引擎
package routego

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/component/direct"
	"github.com/rulego/routego/component/log"
	"github.com/rulego/routego/component/sns"
	"github.com/rulego/routego/component/undertow"
	"github.com/rulego/routego/engine"
	"github.com/rulego/routego/model"
	"github.com/rulego/routego/utils/str"
)

var _ types.Context = (*RouteContext)(nil)

// RouteContext owns components, endpoints, beans and routes.
//
// RouteContext 路由上下文
type RouteContext struct {
	config   types.Config
	registry *engine.BeanRegistry

	mu         sync.RWMutex
	components map[string]types.Component
	// endpoints cached by normalized uri
	endpoints map[string]types.Endpoint
	routes    []*engine.Route
	started   bool
}

// New creates a route context with the built-in components.
// Unset collaborators of the config get the engine defaults.
func New(opts ...types.Option) *RouteContext {
	config := engine.NewConfig(opts...)
	ctx := &RouteContext{
		config:     config,
		registry:   engine.NewBeanRegistry(),
		components: make(map[string]types.Component),
		endpoints:  make(map[string]types.Endpoint),
	}
	for _, c := range []types.Component{
		undertow.New(config),
		sns.New(config),
		direct.New(),
		log.New(config),
	} {
		ctx.components[c.Scheme()] = c
	}
	return ctx
}

func (ctx *RouteContext) Config() types.Config {
	return ctx.config
}

func (ctx *RouteContext) Registry() types.Registry {
	return ctx.registry
}

// AddComponent registers a component under its scheme.
func (ctx *RouteContext) AddComponent(component types.Component) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if _, ok := ctx.components[component.Scheme()]; ok {
		return fmt.Errorf("the component already exists. scheme=%s", component.Scheme())
	}
	ctx.components[component.Scheme()] = component
	return nil
}

// Component 获取指定scheme的组件
func (ctx *RouteContext) Component(scheme string) (types.Component, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	c, ok := ctx.components[scheme]
	return c, ok
}

// Endpoint resolves uri to an endpoint, creating it on first use. ${name}
// placeholders are replaced with config properties first. URIs differing
// only in parameter order share one endpoint.
func (ctx *RouteContext) Endpoint(uri string) (types.Endpoint, error) {
	uri = str.SprintfDict(uri, ctx.config.Properties)
	scheme, remaining, params, err := parseUri(uri)
	if err != nil {
		return nil, err
	}
	key := normalizeUri(scheme, remaining, params)

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if e, ok := ctx.endpoints[key]; ok {
		return e, nil
	}
	component, ok := ctx.components[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: no component found with scheme: %s", types.ErrNoSuchEndpoint, scheme)
	}
	e, err := component.CreateEndpoint(ctx, uri, remaining, toParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint %s: %w", uri, err)
	}
	ctx.endpoints[key] = e
	return e, nil
}

// AddRoutes compiles the definitions. Routes added after Start are started immediately.
func (ctx *RouteContext) AddRoutes(defs ...*model.RouteDefinition) error {
	var routes []*engine.Route
	for _, def := range defs {
		route, err := engine.BuildRoute(ctx, def)
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}
	ctx.mu.Lock()
	started := ctx.started
	ctx.routes = append(ctx.routes, routes...)
	ctx.mu.Unlock()
	if started {
		return startRoutes(routes)
	}
	return nil
}

// LoadRoutes parses a YAML route file and adds its routes.
func (ctx *RouteContext) LoadRoutes(data []byte) error {
	defs, err := model.ParseRoutes(data)
	if err != nil {
		return err
	}
	return ctx.AddRoutes(defs...)
}

// Routes 获取所有路由
func (ctx *RouteContext) Routes() []*engine.Route {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return append([]*engine.Route(nil), ctx.routes...)
}

// Route returns the route with id.
func (ctx *RouteContext) Route(id string) (*engine.Route, bool) {
	for _, r := range ctx.Routes() {
		if r.Id == id {
			return r, true
		}
	}
	return nil, false
}

// Start starts every route concurrently. When one fails the routes already
// started are stopped again.
func (ctx *RouteContext) Start() error {
	ctx.mu.Lock()
	if ctx.started {
		ctx.mu.Unlock()
		return nil
	}
	ctx.started = true
	routes := append([]*engine.Route(nil), ctx.routes...)
	ctx.mu.Unlock()

	if err := startRoutes(routes); err != nil {
		ctx.mu.Lock()
		ctx.started = false
		ctx.mu.Unlock()
		return err
	}
	ctx.config.Logger.Printf("started %d routes", len(routes))
	return nil
}

func startRoutes(routes []*engine.Route) error {
	var g errgroup.Group
	for _, r := range routes {
		g.Go(r.Start)
	}
	if err := g.Wait(); err != nil {
		for _, r := range routes {
			_ = r.Stop()
		}
		return err
	}
	return nil
}

// Stop stops the routes, consumers before producers, then the endpoints and
// components with a lifecycle, and finally releases the worker pool. The
// context cannot be started again.
func (ctx *RouteContext) Stop() error {
	ctx.mu.Lock()
	routes := ctx.routes
	endpoints := ctx.endpoints
	components := ctx.components
	ctx.started = false
	ctx.mu.Unlock()

	var g errgroup.Group
	for _, r := range routes {
		g.Go(r.Stop)
	}
	errs := []error{g.Wait()}
	for _, e := range endpoints {
		if s, ok := e.(types.Service); ok {
			errs = append(errs, s.Stop())
		}
	}
	for _, c := range components {
		if s, ok := c.(interface{ Stop() error }); ok {
			errs = append(errs, s.Stop())
		}
	}
	if ctx.config.Pool != nil {
		ctx.config.Pool.Release()
	}
	return errors.Join(errs...)
}

// parseUri splits scheme:remaining?query. The remaining part may be a URL of
// its own, as in undertow:http://host:port/path.
func parseUri(uri string) (scheme, remaining string, params url.Values, err error) {
	i := strings.Index(uri, ":")
	if i <= 0 {
		return "", "", nil, types.NewIllegalArgumentError("invalid endpoint uri, no scheme: %s", uri)
	}
	scheme, remaining = uri[:i], uri[i+1:]
	remaining = strings.TrimPrefix(remaining, "//")
	params = url.Values{}
	if q := strings.LastIndex(remaining, "?"); q >= 0 {
		if params, err = url.ParseQuery(remaining[q+1:]); err != nil {
			return "", "", nil, fmt.Errorf("invalid endpoint uri %s: %w", uri, err)
		}
		remaining = remaining[:q]
	}
	return scheme, remaining, params, nil
}

func normalizeUri(scheme, remaining string, params url.Values) string {
	if len(params) == 0 {
		return scheme + ":" + remaining
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(scheme + ":" + remaining + "?")
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k) + "=" + url.QueryEscape(strings.Join(params[k], ",")))
	}
	return sb.String()
}

// toParams keeps single values as strings and repeated values as []string.
func toParams(values url.Values) map[string]interface{} {
	params := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) == 1 {
			params[k] = v[0]
		} else {
			params[k] = v
		}
	}
	return params
}
