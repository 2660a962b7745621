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
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/typeconv"
	"github.com/rulego/routego/utils/cast"
)

// Peer is one WebSocket connection. Writes are serialized.
//
// Peer WebSocket连接
type Peer struct {
	Key  string
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteText sends a text frame.
func (p *Peer) WriteText(data string) error {
	return p.write(websocket.TextMessage, []byte(data))
}

// WriteBinary sends a binary frame.
func (p *Peer) WriteBinary(data []byte) error {
	return p.write(websocket.BinaryMessage, data)
}

func (p *Peer) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(messageType, data)
}

// Close closes the connection.
func (p *Peer) Close() error {
	return p.conn.Close()
}

// WebSocketHandler upgrades requests and tracks the connected peers. Events
// are delivered to the attached consumer, and dropped while none is attached.
//
// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	Upgrader websocket.Upgrader

	logger   types.Logger
	consumer atomic.Pointer[Consumer]
	mu       sync.RWMutex
	peers    map[string]*Peer
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(logger types.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		peers:  make(map[string]*Peer),
	}
}

// SetConsumer attaches consumer, or detaches with nil.
func (h *WebSocketHandler) SetConsumer(consumer *Consumer) {
	h.consumer.Store(consumer)
}

// detach removes consumer unless another consumer has been attached since.
func (h *WebSocketHandler) detach(consumer *Consumer) {
	h.consumer.CompareAndSwap(consumer, nil)
}

func (h *WebSocketHandler) Consumer() *Consumer {
	return h.consumer.Load()
}

// HandleRequest upgrades the connection on a worker and starts its read loop.
func (h *WebSocketHandler) HandleRequest(se *ServerExchange) error {
	if se.InIoThread() {
		return se.Dispatch(h)
	}
	conn, err := h.Upgrader.Upgrade(se.ResponseWriter(), se.Request, nil)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Printf("websocket upgrade failed: %v", err)
		return nil
	}
	peer := &Peer{Key: uuid.Must(uuid.NewV4()).String(), conn: conn}
	h.mu.Lock()
	h.peers[peer.Key] = peer
	h.mu.Unlock()

	if c := h.Consumer(); c != nil && c.endpoint.config.FireWebSocketChannelEvents {
		c.SendEventNotification(peer.Key, se, peer, EventTypeOpen)
	}
	go h.readLoop(peer)
	return nil
}

func (h *WebSocketHandler) readLoop(peer *Peer) {
	defer func() {
		h.mu.Lock()
		delete(h.peers, peer.Key)
		h.mu.Unlock()
		_ = peer.Close()
	}()
	for {
		messageType, data, err := peer.conn.ReadMessage()
		if err != nil {
			c := h.Consumer()
			if c == nil || !c.endpoint.config.FireWebSocketChannelEvents {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.SendEventNotification(peer.Key, nil, peer, EventTypeError)
			}
			c.SendEventNotification(peer.Key, nil, peer, EventTypeClose)
			return
		}
		c := h.Consumer()
		if c == nil {
			continue
		}
		if messageType == websocket.TextMessage {
			c.SendMessage(peer.Key, peer, string(data))
		} else {
			c.SendMessage(peer.Key, peer, data)
		}
	}
}

// Peer returns the connection with key.
func (h *WebSocketHandler) Peer(key string) (*Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[key]
	return p, ok
}

// ConnectionKeys lists the connected peers in key order.
func (h *WebSocketHandler) ConnectionKeys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.peers))
	for k := range h.peers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Send writes data to the peer with key. A string is sent as a text frame,
// anything else as a binary frame.
func (h *WebSocketHandler) Send(key string, data interface{}) error {
	peer, ok := h.Peer(key)
	if !ok {
		return fmt.Errorf("no websocket connection with key: %s", key)
	}
	return sendTo(peer, data)
}

// Broadcast writes data to every peer.
func (h *WebSocketHandler) Broadcast(data interface{}) error {
	var errs []error
	for _, key := range h.ConnectionKeys() {
		if err := h.Send(key, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sendTo(peer *Peer, data interface{}) error {
	switch v := data.(type) {
	case string:
		return peer.WriteText(v)
	case []byte:
		return peer.WriteBinary(v)
	default:
		return fmt.Errorf("unsupported websocket payload %T", data)
	}
}

var _ types.Producer = (*WebSocketProducer)(nil)

// WebSocketProducer sends the In body to peers of the WebSocket consumer on the
// same endpoint. Targets come from websocket.connectionKey or
// websocket.connectionKey.list, or every peer when sendToAll is set.
//
// WebSocketProducer WebSocket生产者
type WebSocketProducer struct {
	endpoint *Endpoint
}

func (p *WebSocketProducer) Endpoint() types.Endpoint {
	return p.endpoint
}

func (p *WebSocketProducer) Start() error {
	return nil
}

func (p *WebSocketProducer) Stop() error {
	return nil
}

func (p *WebSocketProducer) Process(exchange *types.Exchange) error {
	e := p.endpoint
	handler, ok := e.component.webSocketHandler(e.info, e.tls)
	if !ok {
		return fmt.Errorf("no websocket consumer is registered at %s", e.info.Uri)
	}
	in := exchange.In()
	payload, err := p.payload(in.Body())
	if err != nil {
		return err
	}
	if e.config.SendToAll || cast.ToBool(in.Header(SendToAll)) {
		return handler.Broadcast(payload)
	}
	keys := connectionKeys(in)
	if len(keys) == 0 {
		return types.NewIllegalArgumentError("header %s or %s must be set unless sendToAll is true", ConnectionKey, ConnectionKeyList)
	}
	var errs []error
	for _, key := range keys {
		if err := handler.Send(key, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// payload keeps strings and []byte, converting anything else to []byte.
func (p *WebSocketProducer) payload(body interface{}) (interface{}, error) {
	switch body.(type) {
	case string, []byte:
		return body, nil
	}
	tc := p.endpoint.component.config.TypeConverter
	if tc == nil {
		tc = typeconv.Default()
	}
	return typeconv.MandatoryConvertTo[[]byte](tc, body)
}

func connectionKeys(in *types.Message) []string {
	var keys []string
	switch v := in.Header(ConnectionKeyList).(type) {
	case []string:
		keys = append(keys, v...)
	case string:
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	if len(keys) == 0 {
		if key := in.HeaderString(ConnectionKey); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
