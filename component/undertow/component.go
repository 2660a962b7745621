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

// Package undertow is the HTTP and WebSocket server component. Endpoints on
// the same host:port share one server. Handlers are kept in a registry owned
// by the Component and keyed by (uri, method restriction, TLS config).
//
//	undertow:http://0.0.0.0:8080/users/{id}?httpMethodRestrict=GET,POST
//	undertow:ws://0.0.0.0:8080/chat?fireWebSocketChannelEvents=true
//
// Package undertow HTTP/WebSocket服务端组件
package undertow

import (
	"crypto/tls"
	"fmt"
	"strings"
	"sync"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/maps"
)

var _ types.Component = (*Component)(nil)

// Component owns the shared hosts and the handler registry.
//
// Component Undertow组件
type Component struct {
	// TLSConfig is used by https/wss endpoints that set no certFile/keyFile.
	TLSConfig *tls.Config
	// AccessLogFile is the default accessLogFile of endpoints.
	AccessLogFile string
	// Binding replaces the default binding of every endpoint when set.
	Binding HttpBinding

	config types.Config // set once in New

	mu       sync.Mutex
	hosts    map[string]*host
	handlers sync.Map // registrationKey -> *registration
	tlsCache map[[2]string]*tls.Config
	logFiles map[string]*FileReceiver
}

// New 创建组件
func New(config types.Config) *Component {
	return &Component{
		config:   config,
		hosts:    make(map[string]*host),
		tlsCache: make(map[[2]string]*tls.Config),
		logFiles: make(map[string]*FileReceiver),
	}
}

func (c *Component) Scheme() string {
	return Scheme
}

// Config is the runtime config the component was created with.
func (c *Component) Config() types.Config {
	return c.config
}

// CreateEndpoint parses `http://host:port/path` (or https, ws, wss) and the endpoint options.
func (c *Component) CreateEndpoint(ctx types.Context, uri, remaining string, params map[string]interface{}) (types.Endpoint, error) {
	var config EndpointConfig
	config.AccessLogFile = c.AccessLogFile
	unused, err := maps.WeakMap2Struct(params, &config)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		return nil, fmt.Errorf("failed to resolve endpoint %s due to unknown parameters: %s", uri, strings.Join(unused, ","))
	}
	var websocket, secure bool
	switch {
	case strings.HasPrefix(remaining, "http://"):
	case strings.HasPrefix(remaining, "https://"):
		secure = true
	case strings.HasPrefix(remaining, "ws://"):
		websocket = true
	case strings.HasPrefix(remaining, "wss://"):
		websocket, secure = true, true
	default:
		return nil, types.NewIllegalArgumentError("unsupported undertow uri: %s", remaining)
	}
	info, err := NewRegistrationInfo(remaining, config.HttpMethodRestrict, config.MatchOnUriPrefix)
	if err != nil {
		return nil, err
	}
	var tlsConfig *tls.Config
	if config.CertFile != "" && config.KeyFile != "" {
		if tlsConfig, err = c.loadTLS(config.CertFile, config.KeyFile); err != nil {
			return nil, err
		}
	} else if secure {
		if c.TLSConfig == nil {
			return nil, types.NewIllegalArgumentError("endpoint %s requires certFile and keyFile", uri)
		}
		tlsConfig = c.TLSConfig
	}
	binding := c.Binding
	if binding == nil {
		binding = NewHttpBinding(config.UseStreaming)
	}
	return &Endpoint{
		component: c,
		uri:       uri,
		config:    config,
		info:      info,
		tls:       tlsConfig,
		websocket: websocket,
		binding:   binding,
	}, nil
}

// loadTLS returns one *tls.Config per key pair, so endpoints sharing
// certificates share a registration key.
func (c *Component) loadTLS(certFile, keyFile string) (*tls.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := [2]string{certFile, keyFile}
	if cfg, ok := c.tlsCache[key]; ok {
		return cfg, nil
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	c.tlsCache[key] = cfg
	return cfg, nil
}

// accessLogReceiver returns the shared receiver for file, or the logger receiver.
func (c *Component) accessLogReceiver(file string) AccessLogReceiver {
	if file == "" {
		return &LoggerReceiver{Logger: c.config.Logger}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.logFiles[file]
	if !ok {
		r = NewFileReceiver(file)
		c.logFiles[file] = r
	}
	return r
}

// RegisterEndpoint installs handler for info on its host, starting the host
// when needed. A WebSocket handler already registered under the same key is
// shared and returned instead of handler. Any other second registration for an
// active key fails with types.ErrDuplicateRegistration.
//
// RegisterEndpoint 注册处理器
func (c *Component) RegisterEndpoint(info *HttpHandlerRegistrationInfo, tlsConfig *tls.Config, handler HttpHandler) (HttpHandler, error) {
	return c.registerEndpoint(info, tlsConfig, handler, 0)
}

func (c *Component) registerEndpoint(info *HttpHandlerRegistrationInfo, tlsConfig *tls.Config, handler HttpHandler, maxConnections int) (HttpHandler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := info.key(tlsConfig)
	if v, ok := c.handlers.Load(key); ok {
		existing := v.(*registration)
		if ws, ok := existing.handler.(*WebSocketHandler); ok {
			if _, ok := handler.(*WebSocketHandler); ok {
				existing.refs++
				return ws, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", types.ErrDuplicateRegistration, info)
	}

	h, ok := c.hosts[info.Addr()]
	if !ok {
		h = newHost(info.Addr(), tlsConfig, maxConnections, c.config.Pool, c.config.Logger)
		if err := h.start(); err != nil {
			return nil, err
		}
		c.hosts[info.Addr()] = h
	} else if h.tls != tlsConfig {
		return nil, types.NewIllegalArgumentError("host %s is already started with a different TLS configuration", info.Addr())
	}
	reg := &registration{info: info, tls: tlsConfig, handler: handler, refs: 1}
	if err := h.add(reg); err != nil {
		if h.empty() {
			_ = h.stop()
			delete(c.hosts, info.Addr())
		}
		return nil, err
	}
	c.handlers.Store(key, reg)
	return handler, nil
}

// UnregisterEndpoint removes the handler for info. The host stops with its last handler.
//
// UnregisterEndpoint 注销处理器
func (c *Component) UnregisterEndpoint(info *HttpHandlerRegistrationInfo, tlsConfig *tls.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := info.key(tlsConfig)
	v, ok := c.handlers.Load(key)
	if !ok {
		return nil
	}
	reg := v.(*registration)
	if reg.refs--; reg.refs > 0 {
		return nil
	}
	c.handlers.Delete(key)
	h, ok := c.hosts[info.Addr()]
	if !ok {
		return nil
	}
	h.remove(reg)
	if h.empty() {
		delete(c.hosts, info.Addr())
		return h.stop()
	}
	return nil
}

// Handlers is a snapshot of the live registrations. It does not lock, so it
// can run concurrently with registration.
func (c *Component) Handlers() []*HttpHandlerRegistrationInfo {
	var infos []*HttpHandlerRegistrationInfo
	c.handlers.Range(func(_, v interface{}) bool {
		infos = append(infos, v.(*registration).info)
		return true
	})
	return infos
}

// webSocketHandler returns the WebSocket handler registered for info.
func (c *Component) webSocketHandler(info *HttpHandlerRegistrationInfo, tlsConfig *tls.Config) (*WebSocketHandler, bool) {
	v, ok := c.handlers.Load(info.key(tlsConfig))
	if !ok {
		return nil, false
	}
	ws, ok := v.(*registration).handler.(*WebSocketHandler)
	return ws, ok
}

// Stop stops every host and closes the access log files.
func (c *Component) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for addr, h := range c.hosts {
		if err := h.stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.hosts, addr)
	}
	c.handlers.Range(func(k, _ interface{}) bool {
		c.handlers.Delete(k)
		return true
	})
	for file, r := range c.logFiles {
		_ = r.Close()
		delete(c.logFiles, file)
	}
	return firstErr
}
