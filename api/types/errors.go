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

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConsumerNotSupported the endpoint can only be used as a producer.
	ErrConsumerNotSupported = errors.New("you cannot receive messages from this endpoint")
	// ErrProducerNotSupported the endpoint can only be used as a consumer.
	ErrProducerNotSupported = errors.New("you cannot send messages to this endpoint")
	// ErrNoSuchEndpoint no endpoint or consumer is available for the uri.
	ErrNoSuchEndpoint = errors.New("no such endpoint")
	// ErrDuplicateRegistration a handler is already active for the registration key.
	ErrDuplicateRegistration = errors.New("duplicate handler registration")
	// ErrPoolExhausted the worker pool refused the task.
	ErrPoolExhausted = errors.New("no idle workers")
)

// NoTypeConversionAvailableError no converter is registered from the value type to the target type.
type NoTypeConversionAvailableError struct {
	Value  interface{}
	Target reflect.Type
}

func (e *NoTypeConversionAvailableError) Error() string {
	return fmt.Sprintf("no type converter available to convert from type: %T to the required type: %v with value %v",
		e.Value, e.Target, e.Value)
}

// IllegalArgumentError a configuration value or combination is invalid.
type IllegalArgumentError struct {
	Msg string
}

func (e *IllegalArgumentError) Error() string {
	return e.Msg
}

// NewIllegalArgumentError 创建参数错误
func NewIllegalArgumentError(format string, args ...interface{}) error {
	return &IllegalArgumentError{Msg: fmt.Sprintf(format, args...)}
}
