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

package maps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpointConfig struct {
	UseStreaming   bool
	MaxConnections int
	Timeout        time.Duration
	MethodRestrict string `uri:"httpMethodRestrict"`
}

func TestWeakMap2Struct(t *testing.T) {
	var cfg endpointConfig
	unused, err := WeakMap2Struct(map[string]interface{}{
		"useStreaming":       "true",
		"maxConnections":     "12",
		"timeout":            "2s",
		"httpMethodRestrict": "GET,POST",
		"bogus":              "x",
	}, &cfg)
	require.NoError(t, err)
	assert.True(t, cfg.UseStreaming)
	assert.Equal(t, 12, cfg.MaxConnections)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "GET,POST", cfg.MethodRestrict)
	assert.Equal(t, []string{"bogus"}, unused)

	_, err = WeakMap2Struct(map[string]interface{}{"timeout": "1500"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
}

func TestWeakMap2StructInvalid(t *testing.T) {
	var cfg endpointConfig
	_, err := WeakMap2Struct(map[string]interface{}{"useStreaming": "maybe"}, &cfg)
	assert.Error(t, err)
}

func TestMap2Struct(t *testing.T) {
	var cfg endpointConfig
	require.NoError(t, Map2Struct(map[string]interface{}{"MaxConnections": 3}, &cfg))
	assert.Equal(t, 3, cfg.MaxConnections)
}
