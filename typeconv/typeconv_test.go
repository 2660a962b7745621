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

package typeconv

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
)

type point struct{ X, Y int }

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestMandatoryConvertToBytes(t *testing.T) {
	r := New()
	cases := map[string]struct {
		in   interface{}
		want string
	}{
		"bytes":   {in: []byte("a"), want: "a"},
		"string":  {in: "hello", want: "hello"},
		"reader":  {in: strings.NewReader("stream"), want: "stream"},
		"buffer":  {in: bytes.NewBufferString("buf"), want: "buf"},
		"int":     {in: 42, want: "42"},
		"float":   {in: 1.25, want: "1.25"},
		"bool":    {in: true, want: "true"},
		"map":     {in: map[string]interface{}{"a": "<x>"}, want: `{"a":"<x>"}`},
		"strings": {in: []string{"a"}, want: `["a"]`},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := MandatoryConvertTo[[]byte](r, c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, string(b))
		})
	}
}

func TestReaderIsClosed(t *testing.T) {
	reader := &closeTracker{Reader: strings.NewReader("x")}
	s, err := MandatoryConvertTo[string](New(), reader)
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	assert.True(t, reader.closed)
}

func TestNoTypeConversionAvailable(t *testing.T) {
	_, err := MandatoryConvertTo[[]byte](New(), point{X: 1})
	var noConv *types.NoTypeConversionAvailableError
	require.True(t, errors.As(err, &noConv))
	assert.Equal(t, BytesType, noConv.Target)
	assert.Contains(t, err.Error(), "typeconv.point")

	_, err = ToBytes(nil)
	assert.Error(t, err)
}

func TestRegisterCustomConverter(t *testing.T) {
	r := New()
	r.Register(reflect.TypeOf(point{}), BytesType, func(v interface{}) (interface{}, error) {
		p := v.(point)
		return []byte{byte(p.X), byte(p.Y)}, nil
	})
	b, err := MandatoryConvertTo[[]byte](r, point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	r.Register(reflect.TypeOf(point{}), StringType, func(v interface{}) (interface{}, error) {
		return nil, errors.New("refused")
	})
	_, err = MandatoryConvertTo[string](r, point{})
	assert.EqualError(t, err, "refused")
}

type myString string

func TestKindConversion(t *testing.T) {
	s, err := MandatoryConvertTo[string](New(), myString("v"))
	require.NoError(t, err)
	assert.Equal(t, "v", s)
}
