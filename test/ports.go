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

// Package test holds helpers for tests that need real listeners.
//
// Package test 测试辅助：端口分配
package test

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	MinPort = 1024
	MaxPort = 65535
)

// handed out ports are not returned again in this process
var allocated sync.Map

// GetNextAvailable returns the first free TCP port >= from. It panics when
// from is out of range or no port up to MaxPort is free.
//
// GetNextAvailable 获取下一个可用端口
func GetNextAvailable(from int) int {
	if from < MinPort || from > MaxPort {
		panic(fmt.Sprintf("invalid start port: %d", from))
	}
	for port := from; port <= MaxPort; port++ {
		if _, taken := allocated.Load(port); taken {
			continue
		}
		if available(port) {
			if _, taken := allocated.LoadOrStore(port, true); !taken {
				return port
			}
		}
	}
	panic(fmt.Sprintf("could not find an available port above %d", from))
}

func available(port int) bool {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// PortSupport allocates the ports of an HTTP test suite: Port from 8000 and
// Port2 from 9000, plus further ports on demand.
type PortSupport struct {
	port    int
	port2   int
	counter atomic.Int32
}

// NewPortSupport 分配测试端口
func NewPortSupport() *PortSupport {
	s := &PortSupport{
		port:  GetNextAvailable(8000),
		port2: GetNextAvailable(9000),
	}
	s.counter.Store(1)
	return s
}

func (s *PortSupport) Port() int {
	return s.port
}

func (s *PortSupport) Port2() int {
	return s.port2
}

// NextPort returns a free port above Port.
func (s *PortSupport) NextPort() int {
	return GetNextAvailable(s.port + int(s.counter.Add(1)-1))
}

// NextPortFrom returns a free port >= from.
func (s *PortSupport) NextPortFrom(from int) int {
	return GetNextAvailable(from)
}

// Properties exposes port and port2 for ${port} placeholders in uris.
func (s *PortSupport) Properties() map[string]string {
	return map[string]string{
		"port":  strconv.Itoa(s.port),
		"port2": strconv.Itoa(s.port2),
	}
}
