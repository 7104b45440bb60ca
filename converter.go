// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package absave

import "reflect"

// Converter encodes and decodes the values of exactly one type.
//
// A converter instance is created for a single type when a Map first
// resolves it and is shared by every operation using that Map afterwards, so
// it must not keep per-call state. Failures are reported through
// Serializer.SetError and Deserializer.SetError.
type Converter interface {
	// Serialize writes v, which has the converter's type.
	Serialize(s *Serializer, v reflect.Value)
	// Deserialize reads a value into v, which is settable and holds the zero
	// value of the converter's type.
	Deserialize(d *Deserializer, v reflect.Value)
}

// Initializer is implemented by converters that derive data from their type
// once, such as nested items for elements or members.
//
// Items returned by InitContext.Item may still be under construction when
// types refer to each other. Initialize may keep references to them but
// must not call their converters.
type Initializer interface {
	Initialize(ctx *InitContext) error
}

// ConverterFactory claims a family of types that no exact registration
// covers.
type ConverterFactory interface {
	CheckType(t reflect.Type) bool
	NewConverter(t reflect.Type) Converter
}

// InitContext is handed to Initializer.Initialize. Self is the item being
// initialized.
type InitContext struct {
	Map  *Map
	Type reflect.Type
	Self *MapItem
}

// Item resolves the item of t in the same Map.
func (c *InitContext) Item(t reflect.Type) (*MapItem, error) {
	return c.Map.GetItem(t)
}

// Settings returns the settings of the Map being generated.
func (c *InitContext) Settings() *Settings {
	return c.Map.settings
}

// factoryFunc adapts a pair of functions to ConverterFactory.
type factoryFunc struct {
	check  func(reflect.Type) bool
	create func(reflect.Type) Converter
}

func (f factoryFunc) CheckType(t reflect.Type) bool         { return f.check(t) }
func (f factoryFunc) NewConverter(t reflect.Type) Converter { return f.create(t) }

// NewConverterFactory builds a ConverterFactory from two functions.
func NewConverterFactory(check func(reflect.Type) bool, create func(reflect.Type) Converter) ConverterFactory {
	return factoryFunc{check: check, create: create}
}
