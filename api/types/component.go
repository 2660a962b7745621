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

// Service has a start/stop lifecycle.
// Service 具有启动/停止生命周期的服务
type Service interface {
	Start() error
	Stop() error
}

// Context is what components see of the route context that owns them.
// Context 组件可见的路由上下文
type Context interface {
	Config() Config
	// Endpoint resolves (and caches) the endpoint for a URI.
	Endpoint(uri string) (Endpoint, error)
	Registry() Registry
}

// Component is a factory of endpoints for one URI scheme.
// Component 某个URI scheme的端点工厂
type Component interface {
	// Scheme 组件类型，例如：undertow、aws-sns
	Scheme() string
	// CreateEndpoint creates an endpoint. remaining is the URI without the scheme
	// and query, params the decoded query parameters.
	CreateEndpoint(ctx Context, uri, remaining string, params map[string]interface{}) (Endpoint, error)
}

// Endpoint is an addressable source or target of exchanges.
type Endpoint interface {
	EndpointUri() string
	CreateConsumer(processor Processor) (Consumer, error)
	CreateProducer() (Producer, error)
}

// Consumer feeds exchanges created from external events into a processor.
type Consumer interface {
	Service
	Endpoint() Endpoint
}

// Producer sends exchanges to an external system.
type Producer interface {
	Service
	Processor
	Endpoint() Endpoint
}

// ExceptionHandler receives errors that are logged rather than propagated.
// ExceptionHandler 处理非致命异常（记录而不抛出）
type ExceptionHandler interface {
	HandleException(message string, exchange *Exchange, err error)
}

// ExceptionHandlerFunc 函数适配为ExceptionHandler
type ExceptionHandlerFunc func(message string, exchange *Exchange, err error)

func (f ExceptionHandlerFunc) HandleException(message string, exchange *Exchange, err error) {
	f(message, exchange, err)
}

// Registry is a named bean registry, used by ref lookups.
// Registry Bean注册表
type Registry interface {
	Bind(name string, bean interface{})
	Lookup(name string) (interface{}, bool)
}

// Pool 协程池接口
type Pool interface {
	// Submit 往协程池提交一个任务
	// 如果协程池满，则返回错误
	Submit(task func()) error
	// Release 释放
	Release()
}
