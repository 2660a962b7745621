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
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rulego/routego/api/types"
)

// HttpHandler handles a server exchange. A handler called on an I/O goroutine
// must not block: it dispatches itself to a worker with ServerExchange.Dispatch.
//
// HttpHandler HTTP处理器
type HttpHandler interface {
	HandleRequest(exchange *ServerExchange) error
}

// HttpHandlerFunc adapts a function to HttpHandler.
type HttpHandlerFunc func(exchange *ServerExchange) error

func (f HttpHandlerFunc) HandleRequest(exchange *ServerExchange) error {
	return f(exchange)
}

var ErrAlreadyDispatched = errors.New("exchange already dispatched")

// safeHandle turns a handler panic into an error.
func safeHandle(handler HttpHandler, exchange *ServerExchange) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("handler panic: %v", e)
		}
	}()
	return handler.HandleRequest(exchange)
}

// ServerExchange is one HTTP request/response on the server. The net/http
// goroutine that accepted the request is its I/O goroutine. Dispatch moves the
// exchange to the worker pool once, after which InIoThread is false. The I/O
// goroutine waits on Done until EndExchange.
//
// ServerExchange 服务端HTTP交换
type ServerExchange struct {
	Request *http.Request

	writer     *responseWriter
	pool       types.Pool
	params     httprouter.Params
	start      time.Time
	mu         sync.Mutex
	inIoThread bool
	dispatched bool
	blocking   bool
	done       chan struct{}
	endOnce    sync.Once
	listeners  []func(exchange *ServerExchange)
}

// NewServerExchange creates an exchange on its I/O goroutine.
func NewServerExchange(w http.ResponseWriter, r *http.Request, pool types.Pool) *ServerExchange {
	return &ServerExchange{
		Request:    r,
		writer:     &responseWriter{ResponseWriter: w},
		pool:       pool,
		start:      time.Now(),
		inIoThread: true,
		done:       make(chan struct{}),
	}
}

// InIoThread reports whether the exchange is still on its I/O goroutine.
func (se *ServerExchange) InIoThread() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.inIoThread
}

// IsDispatched reports whether Dispatch succeeded.
func (se *ServerExchange) IsDispatched() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.dispatched
}

// Dispatch runs handler on the worker pool and ends the exchange when it returns.
// It can be called once per exchange.
func (se *ServerExchange) Dispatch(handler HttpHandler) error {
	se.mu.Lock()
	if se.dispatched {
		se.mu.Unlock()
		return ErrAlreadyDispatched
	}
	se.dispatched = true
	se.inIoThread = false
	se.mu.Unlock()

	err := se.pool.Submit(func() {
		defer se.EndExchange()
		if err := safeHandle(handler, se); err != nil {
			se.Fail(err)
		}
	})
	if err != nil {
		se.mu.Lock()
		se.dispatched = false
		se.inIoThread = true
		se.mu.Unlock()
		return types.ErrPoolExhausted
	}
	return nil
}

// Done is closed by EndExchange.
func (se *ServerExchange) Done() <-chan struct{} {
	return se.done
}

// EndExchange completes the exchange and runs the completion listeners. Only the first call has effect.
func (se *ServerExchange) EndExchange() {
	se.endOnce.Do(func() {
		se.mu.Lock()
		listeners := se.listeners
		se.mu.Unlock()
		for _, l := range listeners {
			l(se)
		}
		close(se.done)
	})
}

// AddExchangeCompleteListener registers fn to run on EndExchange.
func (se *ServerExchange) AddExchangeCompleteListener(fn func(exchange *ServerExchange)) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.listeners = append(se.listeners, fn)
}

// Fail answers 500 (503 when the pool is exhausted) with the error text, unless the response already started.
func (se *ServerExchange) Fail(err error) {
	if se.IsResponseStarted() {
		return
	}
	code := http.StatusInternalServerError
	if errors.Is(err, types.ErrPoolExhausted) {
		code = http.StatusServiceUnavailable
	}
	http.Error(se.writer, err.Error(), code)
}

// StartBlocking marks the exchange as doing blocking I/O. It fails on the I/O goroutine.
func (se *ServerExchange) StartBlocking() error {
	if se.InIoThread() {
		return errors.New("startBlocking called on the io goroutine")
	}
	se.mu.Lock()
	se.blocking = true
	se.mu.Unlock()
	return nil
}

func (se *ServerExchange) IsBlocking() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.blocking
}

// RequestMethod returns the HTTP method.
func (se *ServerExchange) RequestMethod() string {
	return se.Request.Method
}

// RequestPath returns the decoded request path.
func (se *ServerExchange) RequestPath() string {
	return se.Request.URL.Path
}

// PathParams holds the values of {name} segments.
func (se *ServerExchange) PathParams() httprouter.Params {
	return se.params
}

func (se *ServerExchange) ResponseHeaders() http.Header {
	return se.writer.Header()
}

// SetStatusCode sets the status sent with the first write.
func (se *ServerExchange) SetStatusCode(code int) {
	se.writer.pending = code
}

// StatusCode is the status sent, or the one that will be sent.
func (se *ServerExchange) StatusCode() int {
	if se.writer.status != 0 {
		return se.writer.status
	}
	if se.writer.pending != 0 {
		return se.writer.pending
	}
	return http.StatusOK
}

// BytesSent is the number of body bytes written.
func (se *ServerExchange) BytesSent() int64 {
	return se.writer.bytes
}

// IsResponseStarted reports whether the status line was written.
func (se *ServerExchange) IsResponseStarted() bool {
	return se.writer.status != 0
}

// IsResponseComplete reports whether the output stream was closed.
func (se *ServerExchange) IsResponseComplete() bool {
	return se.writer.closed
}

// StartTime is when the request was accepted.
func (se *ServerExchange) StartTime() time.Time {
	return se.start
}

// ResponseWriter is the writer passed to handlers that take over the connection.
func (se *ServerExchange) ResponseWriter() http.ResponseWriter {
	return se.writer
}

// OutputStream returns the response body stream. Every Write is flushed.
// Close completes the response.
func (se *ServerExchange) OutputStream() io.WriteCloser {
	return se.writer
}

// ResponseSender sends a complete body.
func (se *ServerExchange) ResponseSender() *ResponseSender {
	return &ResponseSender{exchange: se}
}

// ResponseSender writes a whole response body.
type ResponseSender struct {
	exchange *ServerExchange
}

func (s *ResponseSender) Send(data []byte) error {
	w := s.exchange.writer
	if w.Header().Get(ContentLength) == "" {
		w.Header().Set(ContentLength, strconv.Itoa(len(data)))
	}
	_, err := w.Write(data)
	return err
}

func (s *ResponseSender) SendString(data string) error {
	return s.Send([]byte(data))
}

// responseWriter tracks the status and body size and flushes on every write.
type responseWriter struct {
	http.ResponseWriter
	pending int
	status  int
	bytes   int64
	closed  bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) writeHeaderOnce() {
	if w.status == 0 {
		code := w.pending
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
	}
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.writeHeaderOnce()
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	if err == nil {
		w.Flush()
	}
	return n, err
}

func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Close ends the body stream.
func (w *responseWriter) Close() error {
	w.writeHeaderOnce()
	w.closed = true
	w.Flush()
	return nil
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
