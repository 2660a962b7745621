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
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rulego/routego/api/types"
)

// AccessLogReceiver receives formatted access log lines.
type AccessLogReceiver interface {
	LogMessage(message string)
}

// LoggerReceiver writes access log lines to a types.Logger.
type LoggerReceiver struct {
	Logger types.Logger
}

func (r *LoggerReceiver) LogMessage(message string) {
	r.Logger.Printf("%s", message)
}

// FileReceiver writes access log lines to a rotating file.
type FileReceiver struct {
	mu     sync.Mutex
	writer io.WriteCloser
}

// NewFileReceiver 创建按大小轮转的访问日志文件
func NewFileReceiver(filename string) *FileReceiver {
	return &FileReceiver{writer: &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		LocalTime:  true,
	}}
}

func (r *FileReceiver) LogMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.writer, message+"\n")
}

func (r *FileReceiver) Close() error {
	return r.writer.Close()
}

// AccessLogHandler logs every exchange in the Apache common log format when it ends.
//
//	127.0.0.1 - - [10/Oct/2025:13:55:36 +0800] "GET /hello HTTP/1.1" 200 11
type AccessLogHandler struct {
	next     HttpHandler
	receiver AccessLogReceiver
}

// NewAccessLogHandler 创建访问日志处理器
func NewAccessLogHandler(next HttpHandler, receiver AccessLogReceiver) *AccessLogHandler {
	return &AccessLogHandler{next: next, receiver: receiver}
}

func (h *AccessLogHandler) HandleRequest(se *ServerExchange) error {
	se.AddExchangeCompleteListener(func(se *ServerExchange) {
		h.receiver.LogMessage(commonLogLine(se))
	})
	return h.next.HandleRequest(se)
}

func commonLogLine(se *ServerExchange) string {
	r := se.Request
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	user := "-"
	if r.URL.User != nil && r.URL.User.Username() != "" {
		user = r.URL.User.Username()
	}
	size := "-"
	if n := se.BytesSent(); n > 0 {
		size = fmt.Sprint(n)
	}
	return fmt.Sprintf("%s - %s [%s] \"%s %s %s\" %d %s",
		host, user, se.StartTime().Format("02/Jan/2006:15:04:05 -0700"),
		r.Method, r.RequestURI, r.Proto, se.StatusCode(), size)
}

// FormParserHandler parses urlencoded and multipart bodies on a worker before
// calling next. Form values become In headers through the binding.
type FormParserHandler struct {
	next      HttpHandler
	maxMemory int64
}

// NewFormParserHandler 创建表单解析处理器
func NewFormParserHandler(next HttpHandler) *FormParserHandler {
	return &FormParserHandler{next: next, maxMemory: 32 << 20}
}

func (h *FormParserHandler) HandleRequest(se *ServerExchange) error {
	if se.InIoThread() {
		return se.Dispatch(h)
	}
	if isFormRequest(se.Request) {
		var err error
		if strings.HasPrefix(se.Request.Header.Get(ContentType), "multipart/") {
			err = se.Request.ParseMultipartForm(h.maxMemory)
		} else {
			err = se.Request.ParseForm()
		}
		if err != nil {
			http.Error(se.ResponseWriter(), err.Error(), http.StatusBadRequest)
			return nil
		}
	}
	return h.next.HandleRequest(se)
}
