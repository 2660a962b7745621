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

package types

import "strings"

var _ HeaderFilterStrategy = (*DefaultHeaderFilterStrategy)(nil)

// DefaultHeaderFilterStrategy filters internal headers by prefix and a set of
// names, ignoring case. The same rules apply in both directions unless
// InFilter is set.
//
// DefaultHeaderFilterStrategy 默认消息头过滤策略
type DefaultHeaderFilterStrategy struct {
	// OutFilter names are never copied from exchange headers to the external message.
	OutFilter []string
	// InFilter names are never copied from the external message to exchange headers.
	InFilter []string
	// Prefixes filtered in both directions.
	Prefixes []string
}

// NewHeaderFilterStrategy filters the Camel internal prefixes plus outFilter names.
func NewHeaderFilterStrategy(outFilter ...string) *DefaultHeaderFilterStrategy {
	return &DefaultHeaderFilterStrategy{
		OutFilter: outFilter,
		Prefixes:  []string{"Camel", "camel", "org.apache.camel."},
	}
}

func (s *DefaultHeaderFilterStrategy) ApplyFilterToCamelHeaders(name string, value interface{}, exchange *Exchange) bool {
	return s.filtered(name, s.OutFilter)
}

func (s *DefaultHeaderFilterStrategy) ApplyFilterToExternalHeaders(name string, value interface{}, exchange *Exchange) bool {
	return s.filtered(name, s.InFilter)
}

func (s *DefaultHeaderFilterStrategy) filtered(name string, names []string) bool {
	for _, p := range s.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
