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

// Package typeconv is the type converter registry. Converters are keyed by
// (from, to) types. A converter registered for an interface type applies to
// every value implementing it.
//
// Package typeconv 类型转换器注册表
package typeconv

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/cast"
	"github.com/rulego/routego/utils/json"
)

// Converter converts value into the target type of its registration.
type Converter func(value interface{}) (interface{}, error)

type convKey struct {
	from reflect.Type
	to   reflect.Type
}

var (
	BytesType  = reflect.TypeOf([]byte(nil))
	StringType = reflect.TypeOf("")
	readerType = reflect.TypeOf((*io.Reader)(nil)).Elem()
	stringerT  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

var _ types.TypeConverter = (*Registry)(nil)

// Registry 类型转换器注册表
type Registry struct {
	mu         sync.RWMutex
	converters map[convKey]Converter
	// interface keyed converters, checked in registration order
	ifaceKeys []convKey
}

// New creates a registry with the built-in converters.
func New() *Registry {
	r := &Registry{converters: make(map[convKey]Converter)}
	r.registerDefaults()
	return r
}

// Register adds or replaces the converter from -> to.
func (r *Registry) Register(from, to reflect.Type, fn Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := convKey{from: from, to: to}
	if _, ok := r.converters[k]; !ok && from.Kind() == reflect.Interface {
		r.ifaceKeys = append(r.ifaceKeys, k)
	}
	r.converters[k] = fn
}

func (r *Registry) lookup(from, to reflect.Type) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.converters[convKey{from: from, to: to}]; ok {
		return fn, true
	}
	for _, k := range r.ifaceKeys {
		if k.to == to && from.Implements(k.from) {
			return r.converters[k], true
		}
	}
	return nil, false
}

func (r *Registry) ConvertTo(target reflect.Type, value interface{}) (interface{}, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	from := reflect.TypeOf(value)
	if from == target {
		return value, true, nil
	}
	if fn, ok := r.lookup(from, target); ok {
		result, err := fn(value)
		return result, err == nil, err
	}
	if target.Kind() != reflect.Interface && from.ConvertibleTo(target) && from.Kind() == target.Kind() {
		return reflect.ValueOf(value).Convert(target).Interface(), true, nil
	}
	return nil, false, nil
}

func (r *Registry) MandatoryConvertTo(target reflect.Type, value interface{}) (interface{}, error) {
	result, ok, err := r.ConvertTo(target, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.NoTypeConversionAvailableError{Value: value, Target: target}
	}
	return result, nil
}

// MandatoryConvertTo is the typed form of types.TypeConverter.MandatoryConvertTo.
func MandatoryConvertTo[T any](tc types.TypeConverter, value interface{}) (T, error) {
	var zero T
	result, err := tc.MandatoryConvertTo(reflect.TypeOf(zero), value)
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// ToBytes converts value to []byte with the default converters.
func ToBytes(value interface{}) ([]byte, error) {
	return MandatoryConvertTo[[]byte](defaultRegistry, value)
}

var defaultRegistry = New()

// Default returns the shared registry with the built-in converters.
func Default() *Registry {
	return defaultRegistry
}

func (r *Registry) registerDefaults() {
	toBytesFromString := func(v interface{}) (interface{}, error) { return []byte(v.(string)), nil }
	r.Register(StringType, BytesType, toBytesFromString)
	r.Register(BytesType, StringType, func(v interface{}) (interface{}, error) { return string(v.([]byte)), nil })

	readAll := func(v interface{}) ([]byte, error) {
		reader := v.(io.Reader)
		if closer, ok := reader.(io.Closer); ok {
			defer closer.Close()
		}
		return io.ReadAll(reader)
	}
	r.Register(readerType, BytesType, func(v interface{}) (interface{}, error) { return readAll(v) })
	r.Register(readerType, StringType, func(v interface{}) (interface{}, error) {
		b, err := readAll(v)
		return string(b), err
	})
	r.Register(reflect.TypeOf(&bytes.Buffer{}), BytesType, func(v interface{}) (interface{}, error) {
		return v.(*bytes.Buffer).Bytes(), nil
	})
	r.Register(stringerT, BytesType, func(v interface{}) (interface{}, error) { return []byte(v.(fmt.Stringer).String()), nil })
	r.Register(stringerT, StringType, func(v interface{}) (interface{}, error) { return v.(fmt.Stringer).String(), nil })

	scalar := func(v interface{}) (interface{}, error) { return cast.ToStringE(v) }
	scalarBytes := func(v interface{}) (interface{}, error) {
		s, err := cast.ToStringE(v)
		return []byte(s), err
	}
	for _, v := range []interface{}{0, int8(0), int16(0), int32(0), int64(0), uint(0), uint8(0), uint16(0),
		uint32(0), uint64(0), float32(0), float64(0), false} {
		r.Register(reflect.TypeOf(v), StringType, scalar)
		r.Register(reflect.TypeOf(v), BytesType, scalarBytes)
	}

	jsonBytes := func(v interface{}) (interface{}, error) { return json.Marshal(v) }
	jsonString := func(v interface{}) (interface{}, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	for _, v := range []interface{}{map[string]interface{}{}, map[string]string{}, []interface{}{}, []string{}} {
		r.Register(reflect.TypeOf(v), BytesType, jsonBytes)
		r.Register(reflect.TypeOf(v), StringType, jsonString)
	}
}
