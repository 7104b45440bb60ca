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

// namedMemberConverter writes structs that declare no members by the name
// of each exported field. It is only used when NamedMemberFallback is on.
type namedMemberConverter struct {
	typ    reflect.Type
	fields []namedField
	byName map[string]int
}

type namedField struct {
	name  string
	index int
	item  *MapItem
}

func (c *namedMemberConverter) Initialize(ctx *InitContext) error {
	c.byName = make(map[string]int)
	for i := 0; i < c.typ.NumField(); i++ {
		f := c.typ.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		item, err := ctx.Item(f.Type)
		if err != nil {
			return err
		}
		c.byName[f.Name] = len(c.fields)
		c.fields = append(c.fields, namedField{name: f.Name, index: i, item: item})
	}
	return nil
}

func (c *namedMemberConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteLength(len(c.fields))
	for _, f := range c.fields {
		s.WriteText(f.name)
		s.WriteItem(v.Field(f.index), f.item)
	}
}

func (c *namedMemberConverter) Deserialize(d *Deserializer, v reflect.Value) {
	n := d.ReadCollectionLength()
	out := reflect.New(c.typ).Elem()
	for i := 0; i < n && !d.HasError(); i++ {
		name := d.ReadText()
		if d.HasError() {
			return
		}
		pos, ok := c.byName[name]
		if !ok {
			d.SetError(newError(ErrKindInvalidData, "%v has no field %q", c.typ, name))
			return
		}
		f := c.fields[pos]
		d.ReadItem(out.Field(f.index), f.item)
	}
	if !d.HasError() {
		v.Set(out)
	}
}
