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
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/rulego/routego/utils/maps"
)

// Languages recognised as shorthand keys in YAML expressions, e.g. `expr: header.x == 1`.
var yamlLanguages = []string{"expr", "js", "ref", "constant", "header"}

type yamlRoutes struct {
	Routes []yamlRoute `yaml:"routes"`
}

type yamlRoute struct {
	Id    string        `yaml:"id"`
	From  string        `yaml:"from"`
	Steps []interface{} `yaml:"steps"`
}

type yamlWireTap struct {
	Uri                     string                   `mapstructure:"uri"`
	Copy                    *bool                    `mapstructure:"copy"`
	DynamicUri              *bool                    `mapstructure:"dynamicUri"`
	NewExchangeProcessorRef string                   `mapstructure:"newExchangeProcessorRef"`
	NewExchangeBody         interface{}              `mapstructure:"newExchangeBody"`
	Headers                 []map[string]interface{} `mapstructure:"headers"`
	ExecutorServiceRef      string                   `mapstructure:"executorServiceRef"`
	OnPrepareRef            string                   `mapstructure:"onPrepareRef"`
	CacheSize               int                      `mapstructure:"cacheSize"`
	IgnoreInvalidEndpoint   bool                     `mapstructure:"ignoreInvalidEndpoint"`
}

type yamlOnCompletion struct {
	Mode               string        `mapstructure:"mode"`
	OnCompleteOnly     bool          `mapstructure:"onCompleteOnly"`
	OnFailureOnly      bool          `mapstructure:"onFailureOnly"`
	OnWhen             interface{}   `mapstructure:"onWhen"`
	ParallelProcessing bool          `mapstructure:"parallelProcessing"`
	ExecutorServiceRef string        `mapstructure:"executorServiceRef"`
	UseOriginalMessage bool          `mapstructure:"useOriginalMessage"`
	Steps              []interface{} `mapstructure:"steps"`
}

// ParseRoutes reads route definitions from YAML:
//
//	routes:
//	  - id: hello
//	    from: undertow:http://0.0.0.0:8080/hello
//	    steps:
//	      - setHeader: {name: greeting, constant: hello}
//	      - wireTap: {uri: "direct:audit"}
//	      - to: log:out
//
// ParseRoutes 从YAML解析路由定义
func ParseRoutes(data []byte) ([]*RouteDefinition, error) {
	var def yamlRoutes
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	var routes []*RouteDefinition
	for i, r := range def.Routes {
		route := From(r.From).RouteId(r.Id)
		if route.Id == "" {
			route.Id = fmt.Sprintf("route%d", i+1)
		}
		outputs, completions, err := parseSteps(route, r.Steps)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Id, err)
		}
		route.Outputs = outputs
		route.OnCompletions = completions
		if err := route.Validate(); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func parseSteps(route *RouteDefinition, steps []interface{}) ([]ProcessorDefinition, []*OnCompletionDefinition, error) {
	var outputs []ProcessorDefinition
	var completions []*OnCompletionDefinition
	for _, raw := range steps {
		step, ok := normalize(raw).(map[string]interface{})
		if !ok || len(step) != 1 {
			return nil, nil, fmt.Errorf("step must be a map with a single key: %v", raw)
		}
		for kind, value := range step {
			if kind == "onCompletion" {
				oc, err := parseOnCompletion(route, value)
				if err != nil {
					return nil, nil, err
				}
				completions = append(completions, oc)
				continue
			}
			d, err := parseStep(route, kind, value)
			if err != nil {
				return nil, nil, err
			}
			outputs = append(outputs, d)
		}
	}
	return outputs, completions, nil
}

func parseStep(route *RouteDefinition, kind string, value interface{}) (ProcessorDefinition, error) {
	switch kind {
	case "to":
		return &ToDefinition{Uri: fmt.Sprint(value)}, nil
	case "log":
		return &LogDefinition{Message: fmt.Sprint(value)}, nil
	case "process":
		return &ProcessDefinition{Ref: fmt.Sprint(value)}, nil
	case "setBody":
		e, err := parseExpression(value)
		if err != nil {
			return nil, err
		}
		return &SetBodyDefinition{Expression: e}, nil
	case "setHeader":
		m, _ := value.(map[string]interface{})
		name, _ := m["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("setHeader requires a name")
		}
		e, err := parseExpression(value)
		if err != nil {
			return nil, err
		}
		return NewSetHeader(name, e), nil
	case "filter":
		m, _ := value.(map[string]interface{})
		e, err := parseExpression(value)
		if err != nil {
			return nil, err
		}
		steps, _ := m["steps"].([]interface{})
		outputs, _, err := parseSteps(route, steps)
		if err != nil {
			return nil, err
		}
		return &FilterDefinition{Predicate: e, Outputs: outputs}, nil
	case "wireTap":
		return parseWireTap(route, value)
	default:
		return nil, fmt.Errorf("unknown step: %s", kind)
	}
}

func parseWireTap(route *RouteDefinition, value interface{}) (*WireTapDefinition, error) {
	if uri, ok := value.(string); ok {
		d := NewWireTap(uri)
		d.parent = route
		return d, nil
	}
	var w yamlWireTap
	if err := maps.Map2Struct(value, &w); err != nil {
		return nil, err
	}
	d := NewWireTap(w.Uri)
	d.parent = route
	d.Copy = w.Copy
	d.DynamicUri = w.DynamicUri
	d.NewExchangeProcessorRef = w.NewExchangeProcessorRef
	d.ExecutorServiceRef = w.ExecutorServiceRef
	d.OnPrepareRef = w.OnPrepareRef
	d.CacheSize = w.CacheSize
	d.IgnoreInvalidEndpoint = w.IgnoreInvalidEndpoint
	if w.NewExchangeBody != nil {
		e, err := parseExpression(w.NewExchangeBody)
		if err != nil {
			return nil, err
		}
		d.NewExchangeExpression = e
	}
	for _, h := range w.Headers {
		name, _ := h["name"].(string)
		e, err := parseExpression(h)
		if err != nil {
			return nil, err
		}
		d.NewExchangeHeader(name, e)
	}
	return d, nil
}

func parseOnCompletion(route *RouteDefinition, value interface{}) (*OnCompletionDefinition, error) {
	var c yamlOnCompletion
	if err := maps.Map2Struct(value, &c); err != nil {
		return nil, err
	}
	d := NewOnCompletion()
	d.parent = route
	d.RouteScoped = true
	d.Mode = OnCompletionMode(c.Mode)
	if c.OnCompleteOnly {
		d.CompleteOnly()
	}
	if c.OnFailureOnly {
		d.FailureOnly()
	}
	d.ParallelProcessing = c.ParallelProcessing
	d.ExecutorServiceRef = c.ExecutorServiceRef
	d.UseOriginalMessage = c.UseOriginalMessage
	if c.OnWhen != nil {
		e, err := parseExpression(c.OnWhen)
		if err != nil {
			return nil, err
		}
		d.OnWhen = e
	}
	outputs, _, err := parseSteps(route, c.Steps)
	if err != nil {
		return nil, err
	}
	d.Outputs = outputs
	return d, nil
}

// parseExpression accepts `{language: expr, expression: "..."}`, a shorthand
// `{expr: "..."}`, or a bare scalar which is a constant.
func parseExpression(value interface{}) (*ExpressionDefinition, error) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return NewExpression("constant", fmt.Sprint(value)), nil
	}
	if lang, ok := m["language"].(string); ok {
		return NewExpression(lang, fmt.Sprint(m["expression"])), nil
	}
	for _, lang := range yamlLanguages {
		if text, ok := m[lang]; ok {
			if lang == "ref" {
				return Ref(fmt.Sprint(text)), nil
			}
			return NewExpression(lang, fmt.Sprint(text)), nil
		}
	}
	return nil, fmt.Errorf("no expression found in %v", value)
}

// normalize converts map[interface{}]interface{} into map[string]interface{}, recursively.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
