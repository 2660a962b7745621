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

package undertow

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/netutil"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/str"
)

// ShutdownTimeout bounds how long a host waits for in-flight requests on stop.
var ShutdownTimeout = 5 * time.Second

type registration struct {
	info    *HttpHandlerRegistrationInfo
	tls     *tls.Config
	handler HttpHandler
	// refs counts consumers sharing a WebSocket handler
	refs int
}

// host is one listening server shared by every registration on its address.
// The router is rebuilt on every change and swapped atomically, so lookups
// never lock.
type host struct {
	addr           string
	tls            *tls.Config
	maxConnections int
	pool           types.Pool
	logger         types.Logger

	server   *http.Server
	listener net.Listener
	router   atomic.Pointer[httprouter.Router]
	regs     []*registration
}

func newHost(addr string, tlsConfig *tls.Config, maxConnections int, pool types.Pool, logger types.Logger) *host {
	h := &host{addr: addr, tls: tlsConfig, maxConnections: maxConnections, pool: pool, logger: logger}
	h.router.Store(httprouter.New())
	return h
}

func (h *host) start() error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}
	if h.maxConnections > 0 {
		ln = netutil.LimitListener(ln, h.maxConnections)
	}
	if h.tls != nil {
		ln = tls.NewListener(ln, h.tls)
	}
	h.listener = ln
	h.server = &http.Server{Handler: h, ReadHeaderTimeout: 30 * time.Second}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("undertow host %s stopped: %v", h.addr, err)
		}
	}()
	if h.tls != nil {
		h.logger.Printf("started undertow server with TLS on %s", ln.Addr())
	} else {
		h.logger.Printf("started undertow server on %s", ln.Addr())
	}
	return nil
}

func (h *host) stop() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := h.server.Shutdown(ctx)
	h.server = nil
	h.logger.Printf("stopped undertow server on %s", h.addr)
	return err
}

func (h *host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.Load().ServeHTTP(w, r)
}

// serve runs handler on the I/O goroutine and waits until the exchange ends.
func (h *host) serve(handler HttpHandler, w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	se := NewServerExchange(w, r, h.pool)
	se.params = params
	if err := safeHandle(handler, se); err != nil {
		h.logger.Printf("error handling %s %s: %v", r.Method, r.URL.Path, err)
		se.Fail(err)
		se.EndExchange()
	} else if !se.IsDispatched() {
		se.EndExchange()
	}
	<-se.Done()
}

func (h *host) add(reg *registration) error {
	regs := append(append([]*registration(nil), h.regs...), reg)
	router, err := h.buildRouter(regs)
	if err != nil {
		return err
	}
	h.regs = regs
	h.router.Store(router)
	return nil
}

func (h *host) remove(reg *registration) {
	var regs []*registration
	for _, r := range h.regs {
		if r != reg {
			regs = append(regs, r)
		}
	}
	router, err := h.buildRouter(regs)
	if err != nil {
		// removing a registration never introduces a conflict
		h.logger.Printf("rebuild router for %s: %v", h.addr, err)
		return
	}
	h.regs = regs
	h.router.Store(router)
}

func (h *host) empty() bool {
	return len(h.regs) == 0
}

// buildRouter registers every registration for its methods. An unrestricted
// registration takes every default method. OPTIONS goes to the first
// registration on a path. httprouter panics on conflicting paths, which is
// returned as an error.
func (h *host) buildRouter(regs []*registration) (router *httprouter.Router, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("%w: %v", types.ErrDuplicateRegistration, e)
		}
	}()
	router = httprouter.New()
	router.RedirectTrailingSlash = false
	router.HandleOPTIONS = false
	type route struct{ method, path string }
	taken := make(map[route]bool)
	for _, reg := range regs {
		methods := reg.info.Methods()
		if len(methods) == 0 {
			methods = str.SplitTrim(DefaultMethods)
		}
		if !str.Contains(methods, http.MethodOptions) {
			methods = append(methods, http.MethodOptions)
		}
		for _, path := range routerPaths(reg.info) {
			handle := h.handle(reg.handler)
			for _, method := range methods {
				key := route{method, path}
				if taken[key] {
					if method == http.MethodOptions {
						continue
					}
					return nil, fmt.Errorf("%w: %s %s", types.ErrDuplicateRegistration, method, path)
				}
				taken[key] = true
				router.Handle(method, path, handle)
			}
		}
	}
	return router, nil
}

func (h *host) handle(handler HttpHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		h.serve(handler, w, r, params)
	}
}

// routerPaths is the exact path, plus a catch-all when matching on prefix.
func routerPaths(info *HttpHandlerRegistrationInfo) []string {
	path := routerPath(info.Path())
	if !info.MatchOnUriPrefix {
		return []string{path}
	}
	if path == "/" {
		return []string{"/*rest"}
	}
	if path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return []string{path, path + "/*rest"}
}
