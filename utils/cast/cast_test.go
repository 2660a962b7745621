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


package cast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type method string

type code int32

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "12", ToString(int64(12)))
	assert.Equal(t, "7", ToString(uint16(7)))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "0.25", ToString(float32(0.25)))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "GET,POST", ToString([]string{"GET", "POST"}))
	assert.Equal(t, "boom", ToString(errors.New("boom")))
	assert.Equal(t, "1s", ToString(time.Second))
	assert.Equal(t, "PUT", ToString(method("PUT")))
	assert.Equal(t, "404", ToString(code(404)))
	assert.Equal(t, `{"a":1}`, ToString(map[string]int{"a": 1}))

	_, err := ToStringE(make(chan int))
	assert.Error(t, err)
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("true"))
	assert.True(t, ToBool(" TRUE "))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool(uint8(2)))
	assert.False(t, ToBool(0.0))
	assert.False(t, ToBool("maybe"))
	assert.False(t, ToBool(nil))
	_, err := ToBoolE(struct{}{})
	assert.Error(t, err)
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 8080, ToInt("8080"))
	assert.Equal(t, 8080, ToInt(" 8080 "))
	assert.Equal(t, 3, ToInt(3.9))
	assert.Equal(t, 404, ToInt(code(404)))
	assert.Equal(t, 9, ToInt(uint64(9)))
	_, err := ToIntE("x")
	assert.Error(t, err)
	_, err = ToIntE(nil)
	assert.Error(t, err)
}
