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
	"strings"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/cast"
	"github.com/rulego/routego/utils/str"
)

// Interpolate replaces ${} placeholders in text with values from the exchange
// and the context properties:
//
//	${id}             exchange id
//	${body}           In body as a string
//	${header.name}    In header
//	${property.name}  exchange property
//	${name}           context property
//
// Unknown placeholders are left as is.
func Interpolate(ctx types.Context, exchange *types.Exchange, text string) string {
	if !str.CheckHasVar(text) {
		return text
	}
	dict := make(map[string]string)
	if ctx != nil {
		for k, v := range ctx.Config().Properties {
			dict[k] = v
		}
	}
	if exchange != nil {
		dict["id"] = exchange.Id()
		if strings.Contains(text, "body") {
			dict["body"] = cast.ToString(exchange.In().Body())
		}
		for k, v := range exchange.In().Headers() {
			dict["header."+k] = cast.ToString(v)
		}
		for k, v := range exchange.Properties() {
			if s, ok := v.(string); ok {
				dict["property."+k] = s
			}
		}
	}
	return str.SprintfDict(text, dict)
}
