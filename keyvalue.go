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

// Pair is a key and a value written as two items.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// NewPair builds a Pair.
func NewPair[K, V any](k K, v V) Pair[K, V] {
	return Pair[K, V]{Key: k, Value: v}
}

func (Pair[K, V]) absavePair() {}

type pairMarker interface {
	absavePair()
}

var pairMarkerType = reflect.TypeOf((*pairMarker)(nil)).Elem()

func isPairType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(pairMarkerType)
}

type keyValueConverter struct {
	keyIndex, valIndex []int
	key, val           *MapItem
}

func newKeyValueConverter(t reflect.Type) Converter {
	k, _ := t.FieldByName("Key")
	v, _ := t.FieldByName("Value")
	return &keyValueConverter{keyIndex: k.Index, valIndex: v.Index}
}

func (c *keyValueConverter) Initialize(ctx *InitContext) error {
	var err error
	if c.key, err = ctx.Item(ctx.Type.FieldByIndex(c.keyIndex).Type); err != nil {
		return err
	}
	c.val, err = ctx.Item(ctx.Type.FieldByIndex(c.valIndex).Type)
	return err
}

func (c *keyValueConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteItem(v.FieldByIndex(c.keyIndex), c.key)
	s.WriteItem(v.FieldByIndex(c.valIndex), c.val)
}

func (c *keyValueConverter) Deserialize(d *Deserializer, v reflect.Value) {
	d.ReadItem(v.FieldByIndex(c.keyIndex), c.key)
	d.ReadItem(v.FieldByIndex(c.valIndex), c.val)
}
