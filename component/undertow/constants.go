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

import "strconv"

const (
	// Scheme of the component.
	Scheme = "undertow"

	ContentType       = "Content-Type"
	ContentLength     = "Content-Length"
	Allow             = "Allow"
	TextPlain         = "text/plain"
	NoResponseMessage = "No response available"

	// DefaultMethods is the Allow list used when no restriction is known.
	DefaultMethods = "GET,HEAD,POST,PUT,DELETE,TRACE,OPTIONS,CONNECT,PATCH"
)

// Exchange headers set from the HTTP request.
const (
	HttpMethod       = "CamelHttpMethod"
	HttpUri          = "CamelHttpUri"
	HttpPath         = "CamelHttpPath"
	HttpQuery        = "CamelHttpQuery"
	HttpRawQuery     = "CamelHttpRawQuery"
	HttpResponseCode = "CamelHttpResponseCode"
	HttpRemoteAddr   = "CamelHttpRemoteAddress"
)

// WebSocket exchange headers.
const (
	ConnectionKey     = "websocket.connectionKey"
	ConnectionKeyList = "websocket.connectionKey.list"
	Channel           = "websocket.channel"
	EventTypeHeader   = "websocket.eventType"
	EventTypeEnum     = "websocket.eventTypeEnum"
	// ExchangeHeader holds the handshake *ServerExchange. Only set on Open events.
	ExchangeHeader = "websocket.exchange"
	SendToAll      = "websocket.sendToAll"
)

// EventType is a WebSocket channel event. The code is stable and travels in
// the websocket.eventType header.
//
// EventType WebSocket通道事件类型
type EventType int

const (
	EventTypeClose   EventType = 0
	EventTypeOpen    EventType = 1
	EventTypeError   EventType = -1
	EventTypeMessage EventType = 2
)

// Code is the wire code of the event.
func (e EventType) Code() int {
	return int(e)
}

func (e EventType) String() string {
	switch e {
	case EventTypeClose:
		return "ONCLOSE"
	case EventTypeOpen:
		return "ONOPEN"
	case EventTypeError:
		return "ONERROR"
	case EventTypeMessage:
		return "ONMESSAGE"
	default:
		return "EventType(" + strconv.Itoa(int(e)) + ")"
	}
}

// EventTypeOf returns the event for a wire code.
func EventTypeOf(code int) (EventType, bool) {
	switch e := EventType(code); e {
	case EventTypeClose, EventTypeOpen, EventTypeError, EventTypeMessage:
		return e, true
	}
	return 0, false
}
