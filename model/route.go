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

package model

import (
	"github.com/rulego/routego/api/types"
)

// RouteDefinition is a route: a consumer uri and the steps its exchanges run through.
//
// RouteDefinition 路由定义
type RouteDefinition struct {
	Id      string
	From    string
	Outputs []ProcessorDefinition
	// OnCompletions are route scoped onCompletion definitions.
	OnCompletions []*OnCompletionDefinition
}

// From starts a route definition.
func From(uri string) *RouteDefinition {
	return &RouteDefinition{From: uri}
}

// RouteId sets the route id.
func (r *RouteDefinition) RouteId(id string) *RouteDefinition {
	r.Id = id
	return r
}

func (r *RouteDefinition) add(d ProcessorDefinition) *RouteDefinition {
	r.Outputs = append(r.Outputs, d)
	return r
}

func (r *RouteDefinition) To(uri string) *RouteDefinition {
	return r.add(&ToDefinition{Uri: uri})
}

func (r *RouteDefinition) SetHeader(name string, expression *ExpressionDefinition) *RouteDefinition {
	return r.add(NewSetHeader(name, expression))
}

func (r *RouteDefinition) SetBody(expression *ExpressionDefinition) *RouteDefinition {
	return r.add(&SetBodyDefinition{Expression: expression})
}

func (r *RouteDefinition) Log(message string) *RouteDefinition {
	return r.add(&LogDefinition{Message: message})
}

func (r *RouteDefinition) Process(processor types.Processor) *RouteDefinition {
	return r.add(&ProcessDefinition{Processor: processor})
}

// ProcessRef runs a processor bean looked up in the registry.
func (r *RouteDefinition) ProcessRef(ref string) *RouteDefinition {
	return r.add(&ProcessDefinition{Ref: ref})
}

// Filter runs outputs only for exchanges matching predicate.
func (r *RouteDefinition) Filter(predicate *ExpressionDefinition, outputs ...ProcessorDefinition) *RouteDefinition {
	return r.add(&FilterDefinition{Predicate: predicate, Outputs: outputs})
}

// WireTap adds a wire tap and returns it for further configuration.
// Call End() to continue the route.
func (r *RouteDefinition) WireTap(uri string) *WireTapDefinition {
	d := NewWireTap(uri)
	d.parent = r
	r.add(d)
	return d
}

// OnCompletion adds a route scoped onCompletion. Call End() to continue the route.
func (r *RouteDefinition) OnCompletion() *OnCompletionDefinition {
	d := NewOnCompletion()
	d.RouteScoped = true
	d.parent = r
	r.OnCompletions = append(r.OnCompletions, d)
	return d
}

func (r *RouteDefinition) String() string {
	return "Route(" + r.Id + ")[" + r.From + " -> " + labels(r.Outputs) + "]"
}

// Validate checks the route and every definition in it.
func (r *RouteDefinition) Validate() error {
	if r.From == "" {
		return types.NewIllegalArgumentError("route %s has no from uri", r.Id)
	}
	for _, oc := range r.OnCompletions {
		if err := oc.Validate(); err != nil {
			return err
		}
	}
	return Validate(r.Outputs)
}
