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
	"unsafe"
)

// Accessor reads and writes one member of an object. obj is always a
// pointer to the object. Setting a value obtained from Get must leave the
// object unchanged.
type Accessor interface {
	MemberType() reflect.Type
	Get(obj reflect.Value) reflect.Value
	Set(obj, v reflect.Value)
}

// AccessorProvider is implemented by types with generated accessors. The
// map is keyed by member name and takes precedence over reflection.
type AccessorProvider interface {
	ABSaveAccessors() map[string]Accessor
}

var accessorProviderType = reflect.TypeOf((*AccessorProvider)(nil)).Elem()

type typedAccessor[T, F any] struct {
	get func(*T) F
	set func(*T, F)
}

// TypedAccessor wraps a getter and setter pair into an Accessor without
// reflection on the member itself.
func TypedAccessor[T, F any](get func(*T) F, set func(*T, F)) Accessor {
	return typedAccessor[T, F]{get: get, set: set}
}

func (a typedAccessor[T, F]) MemberType() reflect.Type {
	return reflect.TypeOf((*F)(nil)).Elem()
}

func (a typedAccessor[T, F]) Get(obj reflect.Value) reflect.Value {
	f := a.get((*T)(obj.UnsafePointer()))
	return reflect.ValueOf(&f).Elem()
}

func (a typedAccessor[T, F]) Set(obj, v reflect.Value) {
	f, _ := v.Interface().(F)
	a.set((*T)(obj.UnsafePointer()), f)
}

// fieldAccessor addresses a field by offset, so unexported fields work
// the same as exported ones.
type fieldAccessor struct {
	typ    reflect.Type
	offset uintptr
}

func (a fieldAccessor) MemberType() reflect.Type { return a.typ }

func (a fieldAccessor) field(obj reflect.Value) reflect.Value {
	return reflect.NewAt(a.typ, unsafe.Add(obj.UnsafePointer(), a.offset)).Elem()
}

func (a fieldAccessor) Get(obj reflect.Value) reflect.Value { return a.field(obj) }

func (a fieldAccessor) Set(obj, v reflect.Value) { a.field(obj).Set(v) }

// propertyAccessor calls Name() and SetName(v) on the object pointer.
type propertyAccessor struct {
	typ    reflect.Type
	getter int
	setter int
}

func (a propertyAccessor) MemberType() reflect.Type { return a.typ }

func (a propertyAccessor) Get(obj reflect.Value) reflect.Value {
	return obj.Method(a.getter).Call(nil)[0]
}

func (a propertyAccessor) Set(obj, v reflect.Value) {
	obj.Method(a.setter).Call([]reflect.Value{v})
}

// fieldOffset sums offsets along an index path. Paths through embedded
// pointers cannot be addressed this way.
func fieldOffset(t reflect.Type, index []int) (uintptr, reflect.Type, bool) {
	var off uintptr
	for i, n := range index {
		if t.Kind() != reflect.Struct {
			return 0, nil, false
		}
		f := t.Field(n)
		off += f.Offset
		t = f.Type
		if i < len(index)-1 && t.Kind() == reflect.Pointer {
			return 0, nil, false
		}
	}
	return off, t, true
}

func newPropertyAccessor(t reflect.Type, name string) (Accessor, bool) {
	pt := reflect.PointerTo(t)
	get, ok := pt.MethodByName(name)
	if !ok || get.Type.NumIn() != 1 || get.Type.NumOut() != 1 {
		return nil, false
	}
	set, ok := pt.MethodByName("Set" + name)
	if !ok || set.Type.NumIn() != 2 || set.Type.NumOut() != 0 || set.Type.In(1) != get.Type.Out(0) {
		return nil, false
	}
	return propertyAccessor{typ: get.Type.Out(0), getter: get.Index, setter: set.Index}, true
}

// generatedAccessors returns the accessors a type provides itself, if any.
func generatedAccessors(t reflect.Type) map[string]Accessor {
	pt := reflect.PointerTo(t)
	if !pt.Implements(accessorProviderType) {
		return nil
	}
	return reflect.New(t).Interface().(AccessorProvider).ABSaveAccessors()
}
