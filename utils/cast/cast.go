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


// Package cast converts loosely typed header and parameter values.
// Named types are converted by their underlying kind.
package cast

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ToInt returns value as an int, or 0 when it cannot be converted.
func ToInt(value interface{}) int {
	v, _ := ToIntE(value)
	return v
}

// ToIntE returns value as an int. Floats are truncated and strings are parsed.
func ToIntE(value interface{}) (int, error) {
	if value == nil {
		return 0, castError(value, "int")
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int(rv.Float()), nil
	case reflect.String:
		n, err := strconv.Atoi(strings.TrimSpace(rv.String()))
		if err != nil {
			return 0, castError(value, "int")
		}
		return n, nil
	}
	return 0, castError(value, "int")
}

// ToBool returns value as a bool, or false when it cannot be converted.
func ToBool(value interface{}) bool {
	v, _ := ToBoolE(value)
	return v
}

// ToBoolE returns value as a bool. Numbers are true when non zero.
// Strings are parsed with strconv.ParseBool.
func ToBoolE(value interface{}) (bool, error) {
	if value == nil {
		return false, castError(value, "bool")
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0, nil
	case reflect.String:
		if b, err := strconv.ParseBool(strings.TrimSpace(rv.String())); err == nil {
			return b, nil
		}
	}
	return false, castError(value, "bool")
}

// ToString returns value as a string, or "" when it cannot be converted.
func ToString(value interface{}) string {
	v, _ := ToStringE(value)
	return v
}

// ToStringE returns value as a string. nil is the empty string, string
// slices are joined with a comma and values without a textual form are
// JSON encoded.
//
// ToStringE 把value转换成字符串：nil为空串，字符串切片用逗号连接，
// 其他无文本形式的值使用JSON编码。
func ToStringE(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case []string:
		return strings.Join(v, ","), nil
	case error:
		return v.Error(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func castError(value interface{}, to string) error {
	return fmt.Errorf("unable to cast %v of type %T to %s", value, value, to)
}
