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
	"github.com/rulego/routego/api/types"
)

var _ types.ExceptionHandler = (*LoggingExceptionHandler)(nil)

// LoggingExceptionHandler logs errors and never rethrows them.
type LoggingExceptionHandler struct {
	Logger types.Logger
}

func (h *LoggingExceptionHandler) HandleException(message string, exchange *types.Exchange, err error) {
	if h.Logger == nil {
		return
	}
	if message == "" {
		message = "Error processing exchange"
	}
	if exchange != nil {
		h.Logger.Printf("%s. Exchange[%s]. Caused by: %v", message, exchange.Id(), err)
	} else {
		h.Logger.Printf("%s. Caused by: %v", message, err)
	}
}
