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

package test

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNextAvailable(t *testing.T) {
	p1 := GetNextAvailable(20000)
	p2 := GetNextAvailable(20000)
	assert.GreaterOrEqual(t, p1, 20000)
	assert.NotEqual(t, p1, p2)
}

func TestGetNextAvailableSkipsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port
	if busy < MinPort {
		t.Skip("ephemeral port below range")
	}
	assert.NotEqual(t, busy, GetNextAvailable(busy))
}

func TestGetNextAvailableInvalidRange(t *testing.T) {
	assert.Panics(t, func() { GetNextAvailable(80) })
	assert.Panics(t, func() { GetNextAvailable(MaxPort + 1) })
}

func TestPortSupport(t *testing.T) {
	s := NewPortSupport()
	assert.GreaterOrEqual(t, s.Port(), 8000)
	assert.GreaterOrEqual(t, s.Port2(), 9000)
	next := s.NextPort()
	assert.Greater(t, next, s.Port())
	assert.NotEqual(t, next, s.NextPort())
	assert.GreaterOrEqual(t, s.NextPortFrom(30000), 30000)

	props := s.Properties()
	assert.Equal(t, strconv.Itoa(s.Port()), props["port"])
	assert.Equal(t, strconv.Itoa(s.Port2()), props["port2"])
}
