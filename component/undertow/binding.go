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
	"io"
	"net/http"
	"strings"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/cast"
)

// HttpBinding maps HTTP requests to exchanges and exchanges back to responses.
//
// HttpBinding HTTP请求与交换之间的映射
type HttpBinding interface {
	// ToExchange populates the In message of exchange from the request.
	ToExchange(se *ServerExchange, exchange *types.Exchange) error
	// ToHttpResponse sets the status and headers on se and returns the body to send.
	ToHttpResponse(se *ServerExchange, exchange *types.Exchange) (interface{}, error)
}

var _ HttpBinding = (*DefaultHttpBinding)(nil)

// DefaultHttpBinding copies request headers, query and form values and path
// parameters into In headers. The body is the request body as []byte, or the
// body stream itself when streaming.
//
// An exchange that carries an error is answered with 500 and the error text.
type DefaultHttpBinding struct {
	HeaderFilterStrategy types.HeaderFilterStrategy
	UseStreaming         bool
}

// NewHttpBinding 创建默认绑定
func NewHttpBinding(useStreaming bool) *DefaultHttpBinding {
	return &DefaultHttpBinding{
		HeaderFilterStrategy: NewHttpHeaderFilterStrategy(),
		UseStreaming:         useStreaming,
	}
}

// NewHttpHeaderFilterStrategy filters hop-by-hop and framing headers on the way out.
func NewHttpHeaderFilterStrategy() *types.DefaultHeaderFilterStrategy {
	s := types.NewHeaderFilterStrategy("content-length", "content-type", "host", "cache-control",
		"connection", "date", "pragma", "trailer", "transfer-encoding", "upgrade", "via", "warning")
	s.Prefixes = append(s.Prefixes, "websocket.")
	return s
}

func (b *DefaultHttpBinding) ToExchange(se *ServerExchange, exchange *types.Exchange) error {
	r := se.Request
	in := exchange.In()
	for name, values := range r.Header {
		if b.HeaderFilterStrategy != nil && b.HeaderFilterStrategy.ApplyFilterToExternalHeaders(name, values, exchange) {
			continue
		}
		in.SetHeader(name, headerValue(values))
	}
	in.SetHeader(HttpMethod, r.Method)
	in.SetHeader(HttpUri, r.RequestURI)
	in.SetHeader(HttpPath, r.URL.Path)
	in.SetHeader(HttpRemoteAddr, r.RemoteAddr)
	if r.URL.RawQuery != "" {
		in.SetHeader(HttpQuery, r.URL.RawQuery)
		in.SetHeader(HttpRawQuery, r.URL.RawQuery)
	}
	for name, values := range r.URL.Query() {
		in.SetHeader(name, headerValue(values))
	}
	if r.PostForm != nil {
		for name, values := range r.PostForm {
			in.SetHeader(name, headerValue(values))
		}
	}
	if r.MultipartForm != nil {
		for name, files := range r.MultipartForm.File {
			in.SetHeader(name, files)
		}
	}
	for _, p := range se.PathParams() {
		if p.Key == "rest" {
			continue
		}
		in.SetHeader(p.Key, p.Value)
	}

	if r.Body == nil || r.Body == http.NoBody || len(r.PostForm) > 0 {
		return nil
	}
	if b.UseStreaming {
		in.SetBody(r.Body)
		return nil
	}
	data, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		in.SetBody(data)
	}
	return nil
}

func (b *DefaultHttpBinding) ToHttpResponse(se *ServerExchange, exchange *types.Exchange) (interface{}, error) {
	if err := exchange.Err(); err != nil {
		se.SetStatusCode(http.StatusInternalServerError)
		se.ResponseHeaders().Set(ContentType, TextPlain+"; charset=utf-8")
		return err.Error(), nil
	}
	message := exchange.Message()
	code := http.StatusOK
	if v := message.Header(HttpResponseCode); v != nil {
		if c, err := cast.ToIntE(v); err == nil && c > 0 {
			code = c
		}
	}
	headers := se.ResponseHeaders()
	for name, value := range message.Headers() {
		if b.HeaderFilterStrategy != nil && b.HeaderFilterStrategy.ApplyFilterToCamelHeaders(name, value, exchange) {
			continue
		}
		if _, ok := value.(string); !ok {
			if _, ok := value.([]string); !ok {
				continue
			}
		}
		headers.Set(name, cast.ToString(value))
	}
	if ct := message.HeaderString(ContentType); ct != "" {
		headers.Set(ContentType, ct)
	}
	se.SetStatusCode(code)
	return message.Body(), nil
}

// headerValue keeps single values as string and repeated ones as []string.
func headerValue(values []string) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return append([]string(nil), values...)
}

// isFormRequest reports whether the body is an urlencoded or multipart form.
func isFormRequest(r *http.Request) bool {
	ct := r.Header.Get(ContentType)
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
