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
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/test"
)

func startConsumer(t *testing.T, c *Component, remaining string, params map[string]interface{}, processor types.ProcessorFunc) *Consumer {
	e := newTestEndpoint(t, c, remaining, params)
	consumer := NewConsumer(e, processor)
	require.NoError(t, consumer.Start())
	t.Cleanup(func() { _ = consumer.Stop() })
	return consumer
}

func get(t *testing.T, uri string) (int, string) {
	resp, err := http.Get(uri)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHttpRoundTrip(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	base := fmt.Sprintf("http://localhost:%d", port)
	startConsumer(t, c, base+"/users/{id}", map[string]interface{}{"httpMethodRestrict": "GET"},
		func(ex *types.Exchange) error {
			in := ex.In()
			ex.Out().SetBody(fmt.Sprintf("user %s via %s q=%s", in.HeaderString("id"), in.HeaderString(HttpMethod), in.HeaderString("q")))
			return nil
		})

	code, body := get(t, base+"/users/42?q=x")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "user 42 via GET q=x", body)

	resp, err := http.Post(base+"/users/42", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	code, _ = get(t, base+"/unknown")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHttpFailureAnswers500(t *testing.T) {
	port := test.GetNextAvailable(18000)
	handler := &exceptionRecorder{}
	c := newTestComponent(t, types.WithExceptionHandler(handler))
	base := fmt.Sprintf("http://localhost:%d", port)
	startConsumer(t, c, base+"/boom", nil, func(ex *types.Exchange) error {
		return fmt.Errorf("boom")
	})
	startConsumer(t, c, base+"/opaque", nil, func(ex *types.Exchange) error {
		ex.Out().SetBody(struct{ N int }{1})
		return nil
	})

	code, body := get(t, base+"/boom")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "boom", body)
	assert.Len(t, handler.all(), 1)

	code, _ = get(t, base+"/opaque")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestHttpFormParameters(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	base := fmt.Sprintf("http://localhost:%d", port)
	startConsumer(t, c, base+"/form", nil, func(ex *types.Exchange) error {
		ex.Out().SetBody("hello " + ex.In().HeaderString("name"))
		return nil
	})

	resp, err := http.PostForm(base+"/form", url.Values{"name": {"alice"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello alice", string(body))
}

func TestHttpPrefixMatching(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	base := fmt.Sprintf("http://localhost:%d", port)
	startConsumer(t, c, base+"/files", map[string]interface{}{"matchOnUriPrefix": true}, func(ex *types.Exchange) error {
		ex.Out().SetBody(ex.In().HeaderString(HttpPath))
		return nil
	})

	_, body := get(t, base+"/files/a/b.txt")
	assert.Equal(t, "/files/a/b.txt", body)
	_, body = get(t, base+"/files")
	assert.Equal(t, "/files", body)
}

func TestRegistrationRules(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	uri := fmt.Sprintf("http://localhost:%d/items", port)
	startConsumer(t, c, uri, map[string]interface{}{"httpMethodRestrict": "GET"}, func(ex *types.Exchange) error {
		ex.Out().SetBody("get")
		return nil
	})
	startConsumer(t, c, uri, map[string]interface{}{"httpMethodRestrict": "POST"}, func(ex *types.Exchange) error {
		ex.Out().SetBody("post")
		return nil
	})
	assert.Len(t, c.Handlers(), 2)

	duplicate := NewConsumer(newTestEndpoint(t, c, uri, map[string]interface{}{"httpMethodRestrict": "GET"}),
		types.ProcessorFunc(func(ex *types.Exchange) error { return nil }))
	assert.ErrorIs(t, duplicate.Start(), types.ErrDuplicateRegistration)

	_, body := get(t, uri)
	assert.Equal(t, "get", body)
	resp, err := http.Post(uri, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "post", string(data))

	req, _ := http.NewRequest(http.MethodOptions, uri, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.ElementsMatch(t, []string{"GET", "POST", "OPTIONS"}, strings.Split(resp.Header.Get(Allow), ","))
}

func TestHostStopsWithLastHandler(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	base := fmt.Sprintf("http://localhost:%d", port)
	ok := func(ex *types.Exchange) error {
		ex.Out().SetBody("ok")
		return nil
	}
	first := startConsumer(t, c, base+"/a", nil, ok)
	second := startConsumer(t, c, base+"/b", nil, ok)

	require.NoError(t, first.Stop())
	code, _ := get(t, base+"/a")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = get(t, base+"/b")
	assert.Equal(t, http.StatusOK, code)

	require.NoError(t, second.Stop())
	assert.Empty(t, c.Handlers())
	_, err := http.Get(base + "/b")
	assert.Error(t, err)
}

func TestAccessLogFile(t *testing.T) {
	port := test.GetNextAvailable(18000)
	file := filepath.Join(t.TempDir(), "access.log")
	c := newTestComponent(t)
	base := fmt.Sprintf("http://localhost:%d", port)
	startConsumer(t, c, base+"/logged", map[string]interface{}{"accessLogFile": file}, func(ex *types.Exchange) error {
		ex.Out().SetBody("logged")
		return nil
	})

	code, _ := get(t, base+"/logged?x=1")
	require.Equal(t, http.StatusOK, code)
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(file)
		return err == nil && strings.Contains(string(data), `"GET /logged?x=1 HTTP/1.1" 200 6`)
	}, 2*time.Second, 20*time.Millisecond)
}

func dial(t *testing.T, uri string) *websocket.Conn {
	conn, resp, err := websocket.DefaultDialer.Dial(uri, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocketEcho(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	uri := fmt.Sprintf("ws://localhost:%d/chat", port)
	e := newTestEndpoint(t, c, uri, map[string]interface{}{"fireWebSocketChannelEvents": true})
	producer, err := e.CreateProducer()
	require.NoError(t, err)

	events := make(chan *types.Exchange, 8)
	consumer := NewConsumer(e, types.ProcessorFunc(func(ex *types.Exchange) error {
		if ex.In().Headers().Has(EventTypeHeader) {
			events <- ex
			return nil
		}
		ex.In().SetBody(fmt.Sprintf("echo: %v", ex.In().Body()))
		return producer.Process(ex)
	}))
	require.NoError(t, consumer.Start())
	t.Cleanup(func() { _ = consumer.Stop() })

	next := func() *types.Exchange {
		select {
		case ex := <-events:
			return ex
		case <-time.After(2 * time.Second):
			t.Fatal("no websocket event")
			return nil
		}
	}

	conn := dial(t, uri)
	open := next()
	assert.Equal(t, EventTypeOpen, open.In().Header(EventTypeEnum))
	assert.NotNil(t, open.In().Header(ExchangeHeader))
	key := open.In().HeaderString(ConnectionKey)
	assert.NotEmpty(t, key)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.Equal(t, "echo: hello", string(data))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	closed := next()
	assert.Equal(t, EventTypeClose, closed.In().Header(EventTypeEnum))
	assert.Equal(t, key, closed.In().HeaderString(ConnectionKey))
	assert.False(t, closed.In().Headers().Has(ExchangeHeader))
}

func TestWebSocketSharedHandlerAndBroadcast(t *testing.T) {
	port := test.GetNextAvailable(18000)
	c := newTestComponent(t)
	uri := fmt.Sprintf("ws://localhost:%d/news", port)
	noop := func(ex *types.Exchange) error { return nil }
	first := startConsumer(t, c, uri, nil, noop)
	second := startConsumer(t, c, uri, nil, noop)
	assert.Len(t, c.Handlers(), 1)

	a := dial(t, uri)
	b := dial(t, uri)
	ws, ok := c.webSocketHandler(newTestEndpoint(t, c, uri, nil).RegistrationInfo(), nil)
	require.True(t, ok)
	assert.Eventually(t, func() bool { return len(ws.ConnectionKeys()) == 2 }, 2*time.Second, 10*time.Millisecond)

	producer, err := newTestEndpoint(t, c, uri, nil).CreateProducer()
	require.NoError(t, err)
	ex := types.NewExchange(context.Background())
	ex.In().SetBody([]byte("breaking"))
	ex.In().SetHeader(SendToAll, true)
	require.NoError(t, producer.Process(ex))
	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		messageType, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, messageType)
		assert.Equal(t, "breaking", string(data))
	}

	none := types.NewExchange(context.Background())
	none.In().SetBody("x")
	var illegal *types.IllegalArgumentError
	assert.ErrorAs(t, producer.Process(none), &illegal)

	require.NoError(t, first.Stop())
	dial(t, uri)
	require.NoError(t, second.Stop())
	_, _, err = websocket.DefaultDialer.Dial(uri, nil)
	assert.Error(t, err)
	assert.Error(t, producer.Process(ex))
}
