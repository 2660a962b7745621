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

package types

import (
	"github.com/gofrs/uuid/v5"
	"github.com/rulego/routego/utils/cast"
)

// Headers 消息头
type Headers map[string]interface{}

// NewHeaders 创建一个新的消息头实例
func NewHeaders() Headers {
	return make(Headers)
}

// Copy 复制
func (h Headers) Copy() Headers {
	headers := make(Headers, len(h))
	for k, v := range h {
		headers[k] = v
	}
	return headers
}

// Has 是否存在某个key
func (h Headers) Has(key string) bool {
	_, ok := h[key]
	return ok
}

// GetValue 通过key获取值
func (h Headers) GetValue(key string) interface{} {
	return h[key]
}

// GetString 通过key获取字符串值
func (h Headers) GetString(key string) string {
	return cast.ToString(h[key])
}

// PutValue 设置值，key为空时忽略
func (h Headers) PutValue(key string, value interface{}) {
	if key != "" {
		h[key] = value
	}
}

// Strings returns a string view of the headers, used by placeholder substitution.
func (h Headers) Strings() map[string]string {
	values := make(map[string]string, len(h))
	for k, v := range h {
		values[k] = cast.ToString(v)
	}
	return values
}

// Message is the in or out message of an exchange.
// Message 交换中的输入或输出消息
type Message struct {
	messageId string
	headers   Headers
	body      interface{}
}

// NewMessage 创建一个新的消息
func NewMessage() *Message {
	return &Message{messageId: uuid.Must(uuid.NewV4()).String(), headers: NewHeaders()}
}

func (m *Message) MessageId() string {
	return m.messageId
}

// Headers 返回消息头，修改会直接作用于消息
func (m *Message) Headers() Headers {
	if m.headers == nil {
		m.headers = NewHeaders()
	}
	return m.headers
}

func (m *Message) Header(name string) interface{} {
	return m.headers[name]
}

func (m *Message) HeaderString(name string) string {
	return m.headers.GetString(name)
}

func (m *Message) SetHeader(name string, value interface{}) {
	m.Headers().PutValue(name, value)
}

func (m *Message) RemoveHeader(name string) {
	delete(m.headers, name)
}

func (m *Message) Body() interface{} {
	return m.body
}

func (m *Message) SetBody(body interface{}) {
	m.body = body
}

// Copy 复制消息，消息体是浅复制
func (m *Message) Copy() *Message {
	return &Message{
		messageId: m.messageId,
		headers:   m.Headers().Copy(),
		body:      m.body,
	}
}
