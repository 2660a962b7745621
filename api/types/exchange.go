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
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// ExchangePattern 消息交换模式
type ExchangePattern int

const (
	// InOut the consumer waits for a reply.
	InOut ExchangePattern = iota
	// InOnly fire-and-forget, no reply is expected.
	InOnly
)

func (p ExchangePattern) String() string {
	if p == InOnly {
		return "InOnly"
	}
	return "InOut"
}

// Exchange is the in-flight state of one routed message: an inbound message,
// an optional outbound message, an optional error and a bag of properties.
// It is owned by the route invocation that created it and must not be shared
// across goroutines without Copy.
//
// Exchange 一次路由调用中的消息交换，包含输入消息、可选的输出消息、错误和属性。
type Exchange struct {
	id           string
	pattern      ExchangePattern
	in           *Message
	out          *Message
	err          error
	properties   map[string]interface{}
	ctx          context.Context
	uow          UnitOfWork
	fromEndpoint string
	created      time.Time
}

// NewExchange 创建一个新的消息交换
func NewExchange(ctx context.Context) *Exchange {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Exchange{
		id:         uuid.Must(uuid.NewV4()).String(),
		in:         NewMessage(),
		properties: make(map[string]interface{}),
		ctx:        ctx,
		created:    time.Now(),
	}
}

func (e *Exchange) Id() string {
	return e.id
}

func (e *Exchange) Pattern() ExchangePattern {
	return e.pattern
}

func (e *Exchange) SetPattern(pattern ExchangePattern) {
	e.pattern = pattern
}

func (e *Exchange) In() *Message {
	return e.in
}

func (e *Exchange) SetIn(in *Message) {
	e.in = in
}

// Out 返回输出消息，不存在则创建
func (e *Exchange) Out() *Message {
	if e.out == nil {
		e.out = NewMessage()
	}
	return e.out
}

// HasOut 是否已经有输出消息
func (e *Exchange) HasOut() bool {
	return e.out != nil
}

func (e *Exchange) SetOut(out *Message) {
	e.out = out
}

// Message returns the message a processor should read: Out when present, else In.
func (e *Exchange) Message() *Message {
	if e.out != nil {
		return e.out
	}
	return e.in
}

func (e *Exchange) Err() error {
	return e.err
}

func (e *Exchange) SetErr(err error) {
	e.err = err
}

func (e *Exchange) IsFailed() bool {
	return e.err != nil
}

func (e *Exchange) Property(name string) interface{} {
	return e.properties[name]
}

func (e *Exchange) SetProperty(name string, value interface{}) {
	e.properties[name] = value
}

func (e *Exchange) RemoveProperty(name string) {
	delete(e.properties, name)
}

func (e *Exchange) Properties() map[string]interface{} {
	return e.properties
}

func (e *Exchange) Context() context.Context {
	return e.ctx
}

func (e *Exchange) SetContext(ctx context.Context) {
	if ctx != nil {
		e.ctx = ctx
	}
}

func (e *Exchange) UnitOfWork() UnitOfWork {
	return e.uow
}

func (e *Exchange) SetUnitOfWork(uow UnitOfWork) {
	e.uow = uow
}

func (e *Exchange) FromEndpoint() string {
	return e.fromEndpoint
}

func (e *Exchange) SetFromEndpoint(uri string) {
	e.fromEndpoint = uri
}

func (e *Exchange) Created() time.Time {
	return e.created
}

// Copy returns a correlated copy with a new id. Messages and properties are
// copied, the unit of work is not.
// Copy 复制交换，生成新的id，不复制工作单元
func (e *Exchange) Copy() *Exchange {
	c := &Exchange{
		id:           uuid.Must(uuid.NewV4()).String(),
		pattern:      e.pattern,
		in:           e.in.Copy(),
		err:          e.err,
		properties:   make(map[string]interface{}, len(e.properties)),
		ctx:          e.ctx,
		fromEndpoint: e.fromEndpoint,
		created:      time.Now(),
	}
	if e.out != nil {
		c.out = e.out.Copy()
	}
	for k, v := range e.properties {
		c.properties[k] = v
	}
	c.properties[CorrelationIdProperty] = e.id
	return c
}

// Exchange property names.
const (
	CorrelationIdProperty = "CamelCorrelationId"
	// OriginalMessageProperty holds a copy of the In message taken when the unit of work started.
	OriginalMessageProperty = "CamelOriginalMessage"
	// ToEndpointProperty the last endpoint an exchange was sent to.
	ToEndpointProperty = "CamelToEndpoint"
)
