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

package str

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintfDict(t *testing.T) {
	dict := map[string]string{"name": "Alice", "port": "8080"}
	assert.Equal(t, "Hello,Alice", SprintfDict("Hello,${name}", dict))
	assert.Equal(t, "http://0.0.0.0:8080/a", SprintfDict("http://0.0.0.0:${ port }/a", dict))
	assert.Equal(t, "keep ${missing}", SprintfDict("keep ${missing}", dict))
	assert.True(t, CheckHasVar("direct:${header.a}"))
	assert.False(t, CheckHasVar("direct:a"))
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"GET", "POST"}, SplitTrim(" GET, ,POST,"))
	assert.Nil(t, SplitTrim(""))
	assert.True(t, Contains([]string{"GET"}, "GET"))
	assert.False(t, Contains([]string{"GET"}, "get"))
}
