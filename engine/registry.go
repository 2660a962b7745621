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

package engine

import (
	"fmt"
	"sync"

	"github.com/rulego/routego/api/types"
)

var _ types.Registry = (*BeanRegistry)(nil)

// BeanRegistry holds named beans: processors, expressions, predicates, pools and clients.
//
// BeanRegistry Bean注册表
type BeanRegistry struct {
	beans sync.Map
}

func NewBeanRegistry() *BeanRegistry {
	return &BeanRegistry{}
}

func (r *BeanRegistry) Bind(name string, bean interface{}) {
	r.beans.Store(name, bean)
}

func (r *BeanRegistry) Lookup(name string) (interface{}, bool) {
	return r.beans.Load(name)
}

// LookupProcessor finds a types.Processor bean. A func(*types.Exchange) error is accepted too.
func LookupProcessor(registry types.Registry, name string) (types.Processor, error) {
	bean, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no bean could be found in the registry for: %s", name)
	}
	switch p := bean.(type) {
	case types.Processor:
		return p, nil
	case func(*types.Exchange) error:
		return types.ProcessorFunc(p), nil
	default:
		return nil, fmt.Errorf("bean %s of type %T is not a processor", name, bean)
	}
}

// LookupPool finds a types.Pool bean.
func LookupPool(registry types.Registry, name string) (types.Pool, error) {
	bean, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no bean could be found in the registry for: %s", name)
	}
	p, ok := bean.(types.Pool)
	if !ok {
		return nil, fmt.Errorf("bean %s of type %T is not a pool", name, bean)
	}
	return p, nil
}
