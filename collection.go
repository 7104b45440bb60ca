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

// List is a non-generic ordered collection. Implement it on the pointer
// type. When the type also offers a generic All() iter.Seq[E], elements
// are typed as E, otherwise as any.
type List interface {
	Len() int
	Each(yield func(any) bool)
	Append(v any)
}

// Dictionary is a non-generic key/value collection. Implement it on the
// pointer type. When the type also offers a generic
// All() iter.Seq2[K, V], keys and values use those types.
type Dictionary interface {
	Len() int
	EachPair(yield func(k, v any) bool)
	Put(k, v any)
}

var (
	listType       = reflect.TypeOf((*List)(nil)).Elem()
	dictionaryType = reflect.TypeOf((*Dictionary)(nil)).Elem()
)

type collectionKind uint8

const (
	collectionMap collectionKind = iota + 1
	collectionDictionary
	collectionGenericDict
	collectionList
	collectionGenericList
)

// classifyCollection decides how t is enumerated and rebuilt. Dictionary
// shapes take precedence over list shapes, and the non-generic interfaces
// over method sets found by name.
func classifyCollection(t reflect.Type) (kind collectionKind, key, elem reflect.Type) {
	switch t.Kind() {
	case reflect.Map:
		return collectionMap, t.Key(), t.Elem()
	case reflect.Pointer, reflect.Interface:
		return 0, nil, nil
	}
	pt := reflect.PointerTo(t)
	k2, v2, hasSeq2 := seqTypes(pt, 2)
	e1, _, hasSeq1 := seqTypes(pt, 1)
	switch {
	case pt.Implements(dictionaryType):
		if hasSeq2 {
			return collectionDictionary, k2, v2
		}
		return collectionDictionary, anyType, anyType
	case hasSeq2 && hasLen(pt) && hasMethodIn(pt, "Set", k2, v2):
		return collectionGenericDict, k2, v2
	case pt.Implements(listType):
		if hasSeq1 {
			return collectionList, nil, e1
		}
		return collectionList, nil, anyType
	case hasSeq1 && hasLen(pt) && hasMethodIn(pt, "Add", e1):
		return collectionGenericList, nil, e1
	}
	return 0, nil, nil
}

func isCollectionType(t reflect.Type) bool {
	kind, _, _ := classifyCollection(t)
	return kind != 0
}

// seqTypes inspects an All method returning iter.Seq (arity 1) or
// iter.Seq2 (arity 2).
func seqTypes(pt reflect.Type, arity int) (reflect.Type, reflect.Type, bool) {
	m, ok := pt.MethodByName("All")
	if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return nil, nil, false
	}
	seq := m.Type.Out(0)
	if seq.Kind() != reflect.Func || seq.NumIn() != 1 || seq.NumOut() != 0 {
		return nil, nil, false
	}
	yield := seq.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != arity || yield.NumOut() != 1 || yield.Out(0) != boolType {
		return nil, nil, false
	}
	if arity == 2 {
		return yield.In(0), yield.In(1), true
	}
	return yield.In(0), nil, true
}

func hasLen(pt reflect.Type) bool {
	m, ok := pt.MethodByName("Len")
	return ok && m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == intType
}

func hasMethodIn(pt reflect.Type, name string, in ...reflect.Type) bool {
	m, ok := pt.MethodByName(name)
	if !ok || m.Type.NumIn() != len(in)+1 {
		return false
	}
	for i, t := range in {
		if m.Type.In(i+1) != t {
			return false
		}
	}
	return true
}

// collectionConverter writes a compressed count followed by each element,
// or each key and value, as items.
type collectionConverter struct {
	typ     reflect.Type
	kind    collectionKind
	keyType reflect.Type
	valType reflect.Type
	key     *MapItem
	val     *MapItem
}

func newCollectionConverter(t reflect.Type) Converter {
	kind, key, elem := classifyCollection(t)
	return &collectionConverter{typ: t, kind: kind, keyType: key, valType: elem}
}

func (c *collectionConverter) Initialize(ctx *InitContext) error {
	if c.kind == 0 {
		return invalidConfigurationError(c.typ, "not a collection").asError()
	}
	if c.keyType != nil {
		item, err := ctx.Item(c.keyType)
		if err != nil {
			return err
		}
		c.key = item
	}
	item, err := ctx.Item(c.valType)
	if err != nil {
		return err
	}
	c.val = item
	return nil
}

// Category names the enumeration strategy, for diagnostics.
func (c *collectionConverter) Category() string {
	switch c.kind {
	case collectionMap:
		return "map"
	case collectionDictionary:
		return "dictionary"
	case collectionGenericDict:
		return "generic-dictionary"
	case collectionList:
		return "list"
	default:
		return "generic-list"
	}
}

func (c *collectionConverter) addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(c.typ)
	p.Elem().Set(v)
	return p
}

func (c *collectionConverter) Serialize(s *Serializer, v reflect.Value) {
	if c.kind == collectionMap {
		s.WriteLength(v.Len())
		iter := v.MapRange()
		for iter.Next() && !s.HasError() {
			s.WriteItem(iter.Key(), c.key)
			s.WriteItem(iter.Value(), c.val)
		}
		return
	}
	p := c.addressable(v)
	n := int(p.MethodByName("Len").Call(nil)[0].Int())
	s.WriteLength(n)
	written := 0
	switch c.kind {
	case collectionDictionary:
		p.Interface().(Dictionary).EachPair(func(k, val any) bool {
			s.WriteItem(c.boxed(k, c.keyType), c.key)
			s.WriteItem(c.boxed(val, c.valType), c.val)
			written++
			return !s.HasError()
		})
	case collectionList:
		p.Interface().(List).Each(func(e any) bool {
			s.WriteItem(c.boxed(e, c.valType), c.val)
			written++
			return !s.HasError()
		})
	case collectionGenericDict, collectionGenericList:
		seq := p.MethodByName("All").Call(nil)[0]
		yield := reflect.MakeFunc(seq.Type().In(0), func(args []reflect.Value) []reflect.Value {
			if c.kind == collectionGenericDict {
				s.WriteItem(args[0], c.key)
				s.WriteItem(args[1], c.val)
			} else {
				s.WriteItem(args[0], c.val)
			}
			written++
			return []reflect.Value{reflect.ValueOf(!s.HasError())}
		})
		seq.Call([]reflect.Value{yield})
	}
	if written != n && !s.HasError() {
		s.SetError(newError(ErrKindInvalidData, "%v reported %d elements but yielded %d", c.typ, n, written))
	}
}

// boxed turns an untyped element into a value of slot type t.
func (c *collectionConverter) boxed(x any, t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	if x != nil {
		out.Set(reflect.ValueOf(x))
	}
	return out
}

func (c *collectionConverter) Deserialize(d *Deserializer, v reflect.Value) {
	n := d.ReadCollectionLength()
	if d.HasError() {
		return
	}
	if c.kind == collectionMap {
		out := reflect.MakeMapWithSize(c.typ, n)
		for i := 0; i < n && !d.HasError(); i++ {
			k, val, ok := c.readPair(d)
			if ok {
				out.SetMapIndex(k, val)
			}
		}
		if !d.HasError() {
			v.Set(out)
		}
		return
	}
	p := reflect.New(c.typ)
	if grow := p.MethodByName("Grow"); grow.IsValid() && grow.Type().NumIn() == 1 && grow.Type().In(0) == intType {
		grow.Call([]reflect.Value{reflect.ValueOf(n)})
	}
	for i := 0; i < n && !d.HasError(); i++ {
		switch c.kind {
		case collectionDictionary:
			if k, val, ok := c.readPair(d); ok {
				p.Interface().(Dictionary).Put(k.Interface(), val.Interface())
			}
		case collectionGenericDict:
			if k, val, ok := c.readPair(d); ok {
				p.MethodByName("Set").Call([]reflect.Value{k, val})
			}
		case collectionList:
			e := reflect.New(c.valType).Elem()
			d.ReadItem(e, c.val)
			if !d.HasError() {
				p.Interface().(List).Append(e.Interface())
			}
		case collectionGenericList:
			e := reflect.New(c.valType).Elem()
			d.ReadItem(e, c.val)
			if !d.HasError() {
				p.MethodByName("Add").Call([]reflect.Value{e})
			}
		}
	}
	if !d.HasError() {
		v.Set(p.Elem())
	}
}

func (c *collectionConverter) readPair(d *Deserializer) (reflect.Value, reflect.Value, bool) {
	k := reflect.New(c.keyType).Elem()
	d.ReadItem(k, c.key)
	if d.HasError() {
		return k, reflect.Value{}, false
	}
	if isNilValue(k) {
		d.SetError(newError(ErrKindNullDictionaryKey, "nil key read for %v", c.typ))
		return k, reflect.Value{}, false
	}
	if !k.Comparable() {
		d.SetError(newError(ErrKindInvalidData, "key of type %v read for %v is not hashable", k.Elem().Type(), c.typ))
		return k, reflect.Value{}, false
	}
	val := reflect.New(c.valType).Elem()
	d.ReadItem(val, c.val)
	return k, val, !d.HasError()
}
