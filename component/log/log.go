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

// Package log provides the log:name endpoint, a producer that writes each
// exchange to the logger.
//
//	log:orders?showHeaders=true
//
// Package log 日志端点
package log

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/typeconv"
	"github.com/rulego/routego/utils/maps"
)

// Scheme 组件类型
const Scheme = "log"

// EndpointConfig 日志端点配置
type EndpointConfig struct {
	ShowHeaders    bool `uri:"showHeaders"`
	ShowProperties bool `uri:"showProperties"`
	// ShowBody defaults to true.
	ShowBody bool `uri:"showBody"`
	// MaxChars truncates the body, 0 means unlimited.
	MaxChars int `uri:"maxChars"`
}

var _ types.Component = (*Component)(nil)

// Component 日志组件
type Component struct {
	config types.Config
}

// New 创建日志组件
func New(config types.Config) *Component {
	return &Component{config: config}
}

func (c *Component) Scheme() string {
	return Scheme
}

func (c *Component) CreateEndpoint(ctx types.Context, uri, remaining string, params map[string]interface{}) (types.Endpoint, error) {
	config := EndpointConfig{ShowBody: true}
	unused, err := maps.WeakMap2Struct(params, &config)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		return nil, fmt.Errorf("failed to resolve endpoint %s due to unknown parameters: %s", uri, strings.Join(unused, ","))
	}
	cfg := c.config
	if ctx != nil {
		cfg = ctx.Config()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.DefaultLogger()
	}
	tc := cfg.TypeConverter
	if tc == nil {
		tc = typeconv.Default()
	}
	return &Endpoint{uri: uri, name: remaining, config: config, logger: logger, typeConverter: tc}, nil
}

var (
	_ types.Endpoint = (*Endpoint)(nil)
	_ types.Producer = (*Endpoint)(nil)
)

// Endpoint is its own producer.
type Endpoint struct {
	uri           string
	name          string
	config        EndpointConfig
	logger        types.Logger
	typeConverter types.TypeConverter
}

func (e *Endpoint) EndpointUri() string {
	return e.uri
}

func (e *Endpoint) Endpoint() types.Endpoint {
	return e
}

func (e *Endpoint) CreateConsumer(processor types.Processor) (types.Consumer, error) {
	return nil, types.ErrConsumerNotSupported
}

func (e *Endpoint) CreateProducer() (types.Producer, error) {
	return e, nil
}

func (e *Endpoint) Start() error {
	return nil
}

func (e *Endpoint) Stop() error {
	return nil
}

func (e *Endpoint) Process(exchange *types.Exchange) error {
	e.logger.Printf("[%s] %s", e.name, e.Format(exchange))
	return nil
}

// Format renders the exchange as Exchange[Id: ..., Headers: {...}, Body: ...].
func (e *Endpoint) Format(exchange *types.Exchange) string {
	parts := []string{"Id: " + exchange.Id(), "ExchangePattern: " + exchange.Pattern().String()}
	if e.config.ShowProperties {
		parts = append(parts, "Properties: "+sortedMap(exchange.Properties()))
	}
	if e.config.ShowHeaders {
		parts = append(parts, "Headers: "+sortedMap(exchange.In().Headers()))
	}
	if e.config.ShowBody {
		parts = append(parts, "Body: "+e.body(exchange.In().Body()))
	}
	return "Exchange[" + strings.Join(parts, ", ") + "]"
}

func (e *Endpoint) body(body interface{}) string {
	if body == nil {
		return "[Body is null]"
	}
	// streams are not consumed by logging
	if _, ok := body.(io.Reader); ok {
		return fmt.Sprintf("[Body is instance of %T]", body)
	}
	text, err := typeconv.MandatoryConvertTo[string](e.typeConverter, body)
	if err != nil {
		text = fmt.Sprintf("%v", body)
	}
	if e.config.MaxChars > 0 && len(text) > e.config.MaxChars {
		text = text[:e.config.MaxChars] + "..."
	}
	return text
}

func sortedMap[M ~map[string]interface{}](m M) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, m[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
