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

func isPointerType(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer
}

// pointerConverter writes the pointed-to value as an item of the element
// type. Decoding allocates a new element.
type pointerConverter struct {
	elemType reflect.Type
	elem     *MapItem
}

func newPointerConverter(t reflect.Type) Converter {
	return &pointerConverter{elemType: t.Elem()}
}

func (c *pointerConverter) Initialize(ctx *InitContext) error {
	item, err := ctx.Item(c.elemType)
	if err != nil {
		return err
	}
	c.elem = item
	return nil
}

func (c *pointerConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteItem(v.Elem(), c.elem)
}

func (c *pointerConverter) Deserialize(d *Deserializer, v reflect.Value) {
	p := reflect.New(c.elemType)
	d.ReadItem(p.Elem(), c.elem)
	if !d.HasError() {
		v.Set(p)
	}
}

func isInterfaceType(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t != typeType
}

// interfaceConverter serves slots whose dynamic type can differ from the
// declared one. The value is always preceded by its type identity, and the
// item attribute of such a slot is "1 0".
type interfaceConverter struct {
	iface reflect.Type
}

func newInterfaceConverter(t reflect.Type) Converter {
	return &interfaceConverter{iface: t}
}

func (c *interfaceConverter) Serialize(s *Serializer, v reflect.Value) {
	actual := v.Elem()
	s.WriteType(actual.Type())
	s.WriteItem(actual, s.Item(actual.Type()))
}

func (c *interfaceConverter) Deserialize(d *Deserializer, v reflect.Value) {
	t := d.ReadType()
	if d.HasError() {
		return
	}
	if !t.AssignableTo(c.iface) {
		d.SetError(newError(ErrKindInvalidData, "%v does not implement %v", t, c.iface))
		return
	}
	tmp := reflect.New(t).Elem()
	d.ReadItem(tmp, d.Item(t))
	if !d.HasError() {
		v.Set(tmp)
	}
}
