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

import "reflect"

// TypeConverter converts values between types.
// TypeConverter 类型转换器
type TypeConverter interface {
	// ConvertTo converts value to target. ok is false when no converter applies.
	ConvertTo(target reflect.Type, value interface{}) (result interface{}, ok bool, err error)
	// MandatoryConvertTo converts value to target or returns *NoTypeConversionAvailableError.
	MandatoryConvertTo(target reflect.Type, value interface{}) (interface{}, error)
}

// HeaderFilterStrategy decides which headers cross the boundary between the
// exchange and an external system.
type HeaderFilterStrategy interface {
	// ApplyFilterToCamelHeaders returns true if the header must not be sent out.
	ApplyFilterToCamelHeaders(name string, value interface{}, exchange *Exchange) bool
	// ApplyFilterToExternalHeaders returns true if the external header must not be copied in.
	ApplyFilterToExternalHeaders(name string, value interface{}, exchange *Exchange) bool
}
