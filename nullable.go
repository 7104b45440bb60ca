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

import (
	"reflect"
	"strings"
)

const optionalPkgPath = "github.com/ABCo-Src/ABSave-sub000/optional"

// isOptionalType matches instantiations of optional.Optional.
func isOptionalType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.PkgPath() != optionalPkgPath {
		return false
	}
	if !strings.HasPrefix(t.Name(), "Optional[") {
		return false
	}
	if _, ok := t.FieldByName("Value"); !ok {
		return false
	}
	has, ok := t.FieldByName("Has")
	return ok && has.Type.Kind() == reflect.Bool
}

// nullableConverter writes a presence bit, then the wrapped value as an
// item when present.
type nullableConverter struct {
	valueIndex []int
	hasIndex   []int
	value      *MapItem
}

func newNullableConverter(t reflect.Type) Converter {
	value, _ := t.FieldByName("Value")
	has, _ := t.FieldByName("Has")
	return &nullableConverter{valueIndex: value.Index, hasIndex: has.Index}
}

func (c *nullableConverter) Initialize(ctx *InitContext) error {
	value, _ := ctx.Type.FieldByName("Value")
	item, err := ctx.Item(value.Type)
	if err != nil {
		return err
	}
	c.value = item
	return nil
}

func (c *nullableConverter) Serialize(s *Serializer, v reflect.Value) {
	if !v.FieldByIndex(c.hasIndex).Bool() {
		s.WriteBitOff()
		return
	}
	s.WriteBitOn()
	s.WriteItem(v.FieldByIndex(c.valueIndex), c.value)
}

func (c *nullableConverter) Deserialize(d *Deserializer, v reflect.Value) {
	if !d.ReadBit() {
		return
	}
	d.ReadItem(v.FieldByIndex(c.valueIndex), c.value)
	v.FieldByIndex(c.hasIndex).SetBool(true)
}
