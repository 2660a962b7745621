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
	"crypto/tls"

	"github.com/rulego/routego/api/types"
)

// EndpointConfig holds the endpoint options given as uri query parameters.
//
// EndpointConfig 端点配置
type EndpointConfig struct {
	// HttpMethodRestrict is a comma separated list of allowed methods, e.g. GET,POST
	HttpMethodRestrict string `uri:"httpMethodRestrict"`
	// MatchOnUriPrefix also matches every path below the endpoint path.
	MatchOnUriPrefix bool `uri:"matchOnUriPrefix"`
	// UseStreaming passes the request body as a stream and streams io.Reader response bodies.
	UseStreaming bool `uri:"useStreaming"`
	// OptionsEnabled routes OPTIONS requests to the consumer instead of answering them with Allow.
	OptionsEnabled bool `uri:"optionsEnabled"`
	AccessLog      bool `uri:"accessLog"`
	// AccessLogFile writes the access log to a rotating file. Implies AccessLog.
	AccessLogFile string `uri:"accessLogFile"`
	// FireWebSocketChannelEvents routes Open, Close and Error events to the consumer.
	FireWebSocketChannelEvents bool `uri:"fireWebSocketChannelEvents"`
	// SendToAll makes the WebSocket producer send to every peer.
	SendToAll bool `uri:"sendToAll"`
	// MaxConnections limits concurrent connections of the host. The first endpoint on a host sets it.
	MaxConnections int    `uri:"maxConnections"`
	CertFile       string `uri:"certFile"`
	KeyFile        string `uri:"keyFile"`
}

var _ types.Endpoint = (*Endpoint)(nil)

// Endpoint is an undertow endpoint.
type Endpoint struct {
	component *Component
	uri       string
	config    EndpointConfig
	info      *HttpHandlerRegistrationInfo
	tls       *tls.Config
	websocket bool
	binding   HttpBinding
}

func (e *Endpoint) EndpointUri() string {
	return e.uri
}

func (e *Endpoint) Config() EndpointConfig {
	return e.config
}

func (e *Endpoint) Component() *Component {
	return e.component
}

func (e *Endpoint) RegistrationInfo() *HttpHandlerRegistrationInfo {
	return e.info
}

func (e *Endpoint) TLSConfig() *tls.Config {
	return e.tls
}

func (e *Endpoint) IsWebSocket() bool {
	return e.websocket
}

func (e *Endpoint) Binding() HttpBinding {
	return e.binding
}

// SetBinding replaces the binding. Call before creating consumers.
func (e *Endpoint) SetBinding(binding HttpBinding) {
	e.binding = binding
}

func (e *Endpoint) CreateConsumer(processor types.Processor) (types.Consumer, error) {
	return NewConsumer(e, processor), nil
}

// CreateProducer returns a WebSocket producer. HTTP endpoints have no producer.
func (e *Endpoint) CreateProducer() (types.Producer, error) {
	if !e.websocket {
		return nil, types.ErrProducerNotSupported
	}
	return &WebSocketProducer{endpoint: e}, nil
}
