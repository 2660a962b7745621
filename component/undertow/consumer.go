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
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/engine"
	"github.com/rulego/routego/typeconv"
	"github.com/rulego/routego/utils/str"
)

// streamBufferSize is the copy buffer of streamed responses.
const streamBufferSize = 32 * 1024

var _ types.Consumer = (*Consumer)(nil)

// Consumer bridges HTTP requests and WebSocket events into exchanges.
//
// Consumer Undertow消费者
type Consumer struct {
	endpoint  *Endpoint
	processor types.Processor
	async     types.AsyncProcessor
	config    types.Config

	mu         sync.Mutex
	wsHandler  *WebSocketHandler
	registered bool
}

// NewConsumer 创建消费者
func NewConsumer(endpoint *Endpoint, processor types.Processor) *Consumer {
	config := endpoint.component.config
	return &Consumer{
		endpoint:  endpoint,
		processor: processor,
		async:     engine.AsAsync(processor, config.Pool),
		config:    config,
	}
}

func (c *Consumer) Endpoint() types.Endpoint {
	return c.endpoint
}

// Start registers a WebSocket handler, or the consumer behind the form parser
// and the optional access log.
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registered {
		return nil
	}
	e := c.endpoint
	if e.websocket {
		h, err := e.component.registerEndpoint(e.info, e.tls, NewWebSocketHandler(c.config.Logger), e.config.MaxConnections)
		if err != nil {
			return err
		}
		ws := h.(*WebSocketHandler)
		ws.SetConsumer(c)
		c.wsHandler = ws
	} else {
		var handler HttpHandler = c
		if !e.config.UseStreaming {
			handler = NewFormParserHandler(handler)
		}
		if e.config.AccessLog || e.config.AccessLogFile != "" {
			handler = NewAccessLogHandler(handler, e.component.accessLogReceiver(e.config.AccessLogFile))
		}
		if _, err := e.component.registerEndpoint(e.info, e.tls, handler, e.config.MaxConnections); err != nil {
			return err
		}
	}
	c.registered = true
	return nil
}

// Stop unregisters the handler. A WebSocket handler is detached from this
// consumer and its connections stay open.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.registered {
		return nil
	}
	c.registered = false
	err := c.endpoint.component.UnregisterEndpoint(c.endpoint.info, c.endpoint.tls)
	if c.wsHandler != nil {
		c.wsHandler.detach(c)
		c.wsHandler = nil
	}
	return err
}

// HandleRequest bridges one HTTP request. On an I/O goroutine it only
// dispatches itself to a worker.
func (c *Consumer) HandleRequest(se *ServerExchange) error {
	if se.InIoThread() {
		return se.Dispatch(c)
	}
	if se.RequestMethod() == http.MethodOptions && !c.endpoint.config.OptionsEnabled {
		return c.handleOptions(se)
	}

	exchange := types.NewExchange(se.Request.Context())
	exchange.SetFromEndpoint(c.endpoint.uri)
	exchange.SetPattern(types.InOut)
	if err := c.endpoint.binding.ToExchange(se, exchange); err != nil {
		return err
	}

	ctx, span := c.tracer().Start(exchange.Context(), "undertow "+se.RequestMethod()+" "+c.endpoint.info.Path(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", se.RequestMethod()),
			attribute.String("http.target", se.Request.RequestURI),
			attribute.String("routego.exchange_id", exchange.Id()),
		))
	exchange.SetContext(ctx)
	defer span.End()

	c.process(exchange)
	if exchange.IsFailed() {
		span.RecordError(exchange.Err())
		span.SetStatus(codes.Error, exchange.Err().Error())
	}

	err := c.sendResponse(se, exchange)
	span.SetAttributes(attribute.Int("http.status_code", se.StatusCode()))
	return err
}

// process runs the processor inside a unit of work. Done runs exactly once,
// also when the processor fails or panics.
func (c *Consumer) process(exchange *types.Exchange) {
	factory := c.config.UnitOfWorkFactory
	if factory == nil {
		factory = engine.NewUnitOfWork
	}
	uow := factory(exchange)
	exchange.SetUnitOfWork(uow)
	if m := c.config.Metrics; m != nil {
		m.Begin()
	}
	defer func() {
		uow.Done(exchange)
		if m := c.config.Metrics; m != nil {
			m.End(exchange.IsFailed())
		}
	}()

	err := engine.Safe(c.processor, exchange)
	if err == nil && exchange.IsFailed() {
		err = exchange.Err()
	}
	if err != nil {
		if !exchange.IsFailed() {
			exchange.SetErr(err)
		}
		c.handleException("Error processing exchange", exchange, err)
	}
	uow.BeforeRoute(exchange)
}

func (c *Consumer) sendResponse(se *ServerExchange, exchange *types.Exchange) error {
	body, err := c.endpoint.binding.ToHttpResponse(se, exchange)
	if err != nil {
		return err
	}
	if body == nil {
		se.ResponseHeaders().Set(ContentType, TextPlain)
		return se.ResponseSender().SendString(NoResponseMessage)
	}
	if reader, ok := body.(io.Reader); ok && c.endpoint.config.UseStreaming {
		return c.stream(se, reader)
	}
	data, err := typeconv.MandatoryConvertTo[[]byte](c.typeConverter(), body)
	if err != nil {
		return err
	}
	return se.ResponseSender().Send(data)
}

// stream copies reader to the response, flushing every write. Both ends are closed.
func (c *Consumer) stream(se *ServerExchange, reader io.Reader) error {
	if err := se.StartBlocking(); err != nil {
		return err
	}
	out := se.OutputStream()
	defer func() {
		if closer, ok := reader.(io.Closer); ok {
			_ = closer.Close()
		}
		_ = out.Close()
	}()
	_, err := io.CopyBuffer(out, reader, make([]byte, streamBufferSize))
	return err
}

func (c *Consumer) handleOptions(se *ServerExchange) error {
	headers := se.ResponseHeaders()
	headers.Set(ContentLength, "0")
	headers.Set(Allow, c.allowedMethods())
	headers.Del(ContentType)
	se.SetStatusCode(http.StatusOK)
	err := se.ResponseSender().Send(nil)
	se.EndExchange()
	return err
}

// allowedMethods joins the restrictions of every registration on this
// endpoint's uri, falling back to the endpoint's own restriction and then to
// DefaultMethods. OPTIONS is always present once.
func (c *Consumer) allowedMethods() string {
	var allowed []string
	for _, info := range c.endpoint.component.Handlers() {
		if info.Uri != c.endpoint.info.Uri || info.MethodRestrict == "" {
			continue
		}
		allowed = append(allowed, strings.TrimSuffix(info.MethodRestrict, ",OPTIONS"))
	}
	result := strings.Join(allowed, ",")
	if result == "" {
		result = c.endpoint.info.MethodRestrict
	}
	if result == "" {
		result = DefaultMethods
	}
	return ensureOptions(result)
}

// ensureOptions makes OPTIONS appear exactly once. A single OPTIONS keeps its
// position; duplicates are collapsed into one trailing OPTIONS.
func ensureOptions(methods string) string {
	list := str.SplitTrim(methods)
	count := 0
	for _, m := range list {
		if m == http.MethodOptions {
			count++
		}
	}
	if count == 1 {
		return strings.Join(list, ",")
	}
	result := make([]string, 0, len(list)+1)
	for _, m := range list {
		if m != http.MethodOptions {
			result = append(result, m)
		}
	}
	return strings.Join(append(result, http.MethodOptions), ",")
}

// SendMessage routes a WebSocket message. It does not wait for the route.
// Failures go to the exception handler.
func (c *Consumer) SendMessage(connectionKey string, channel *Peer, message interface{}) types.Future {
	exchange := c.newEventExchange(connectionKey, channel)
	exchange.In().SetBody(message)
	return c.dispatchAsync(exchange, EventTypeMessage)
}

// SendEventNotification routes a WebSocket channel event. Only Open events carry
// the handshake exchange, which is gone once the handshake completes.
func (c *Consumer) SendEventNotification(connectionKey string, transport *ServerExchange, channel *Peer, eventType EventType) types.Future {
	exchange := c.newEventExchange(connectionKey, channel)
	in := exchange.In()
	in.SetHeader(EventTypeHeader, eventType.Code())
	in.SetHeader(EventTypeEnum, eventType)
	if eventType == EventTypeOpen && transport != nil {
		in.SetHeader(ExchangeHeader, transport)
	}
	return c.dispatchAsync(exchange, eventType)
}

func (c *Consumer) newEventExchange(connectionKey string, channel *Peer) *types.Exchange {
	exchange := types.NewExchange(context.Background())
	exchange.SetFromEndpoint(c.endpoint.uri)
	exchange.SetPattern(types.InOnly)
	exchange.In().SetHeader(ConnectionKey, connectionKey)
	if channel != nil {
		exchange.In().SetHeader(Channel, channel)
	}
	return exchange
}

func (c *Consumer) dispatchAsync(exchange *types.Exchange, eventType EventType) types.Future {
	ctx, span := c.tracer().Start(exchange.Context(), "undertow websocket "+eventType.String(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("websocket.connection_key", exchange.In().HeaderString(ConnectionKey)),
			attribute.String("routego.exchange_id", exchange.Id()),
		))
	exchange.SetContext(ctx)
	if m := c.config.Metrics; m != nil {
		m.Begin()
	}
	return c.async.ProcessAsync(exchange).Then(func(exchange *types.Exchange) {
		if m := c.config.Metrics; m != nil {
			m.End(exchange.IsFailed())
		}
		if exchange.IsFailed() {
			span.RecordError(exchange.Err())
			span.SetStatus(codes.Error, exchange.Err().Error())
			c.handleException(fmt.Sprintf("Error processing websocket %s", eventType), exchange, exchange.Err())
		}
		span.End()
	})
}

func (c *Consumer) handleException(message string, exchange *types.Exchange, err error) {
	if h := c.config.ExceptionHandler; h != nil {
		h.HandleException(message, exchange, err)
	} else if c.config.Logger != nil {
		c.config.Logger.Printf("%s: %v", message, err)
	}
}

func (c *Consumer) tracer() trace.Tracer {
	if c.config.Tracer != nil {
		return c.config.Tracer
	}
	return otel.Tracer("routego")
}

func (c *Consumer) typeConverter() types.TypeConverter {
	if c.config.TypeConverter != nil {
		return c.config.TypeConverter
	}
	return typeconv.Default()
}
