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
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	boolType      = reflect.TypeOf(false)
	int8Type      = reflect.TypeOf(int8(0))
	int16Type     = reflect.TypeOf(int16(0))
	int32Type     = reflect.TypeOf(int32(0))
	int64Type     = reflect.TypeOf(int64(0))
	intType       = reflect.TypeOf(0)
	uint8Type     = reflect.TypeOf(uint8(0))
	uint16Type    = reflect.TypeOf(uint16(0))
	uint32Type    = reflect.TypeOf(uint32(0))
	uint64Type    = reflect.TypeOf(uint64(0))
	uintType      = reflect.TypeOf(uint(0))
	float32Type   = reflect.TypeOf(float32(0))
	float64Type   = reflect.TypeOf(float64(0))
	stringType    = reflect.TypeOf("")
	charType      = reflect.TypeOf(Char(0))
	decimalType   = reflect.TypeOf(Decimal{})
	builderType   = reflect.TypeOf((*strings.Builder)(nil))
	charsType     = reflect.TypeOf([]Char(nil))
	uuidType      = reflect.TypeOf(uuid.UUID{})
	timeType      = reflect.TypeOf(time.Time{})
	durationType  = reflect.TypeOf(time.Duration(0))
	versionType   = reflect.TypeOf(Version{})
	typeType      = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	assemblyType  = reflect.TypeOf(Assembly{})
	anyType       = reflect.TypeOf((*any)(nil)).Elem()
	bytesType     = reflect.TypeOf([]byte(nil))
	stringsType   = reflect.TypeOf([]string(nil))
	anySliceType  = reflect.TypeOf([]any(nil))
	stringMapType = reflect.TypeOf(map[string]string(nil))
	anyMapType    = reflect.TypeOf(map[string]any(nil))
)

// registerBuiltins fills the exact table and the non-exact factory list.
// Factories are listed lowest priority first.
func registerBuiltins(s *Settings) {
	for _, t := range []reflect.Type{
		boolType, int8Type, int16Type, int32Type, int64Type, intType,
		uint8Type, uint16Type, uint32Type, uint64Type, uintType,
		float32Type, float64Type, charType,
	} {
		s.exact[t] = newPrimitiveConverter
	}
	s.exact[decimalType] = func(reflect.Type) Converter { return decimalConverter{} }
	s.exact[stringType] = newTextConverter
	s.exact[builderType] = newTextConverter
	s.exact[charsType] = newTextConverter
	s.exact[uuidType] = func(reflect.Type) Converter { return guidConverter{} }
	s.exact[timeType] = newTickConverter
	s.exact[durationType] = newTickConverter
	s.exact[versionType] = func(reflect.Type) Converter { return versionConverter{} }
	s.exact[typeType] = func(reflect.Type) Converter { return typeConverter{} }
	s.exact[assemblyType] = func(reflect.Type) Converter { return assemblyConverter{} }
	for _, t := range []reflect.Type{bytesType, stringsType, anySliceType} {
		s.exact[t] = newArrayConverter
	}
	for _, t := range []reflect.Type{stringMapType, anyMapType} {
		s.exact[t] = newCollectionConverter
	}

	s.factories = append(s.factories,
		NewConverterFactory(isPrimitiveKind, newKindConverter),
		NewConverterFactory(isInterfaceType, newInterfaceConverter),
		NewConverterFactory(isPointerType, newPointerConverter),
		NewConverterFactory(isArrayShape, newArrayConverter),
		NewConverterFactory(isCollectionType, newCollectionConverter),
		NewConverterFactory(isPairType, newKeyValueConverter),
		NewConverterFactory(isOptionalType, newNullableConverter),
	)
}

// ============================================================================
// Type registry
// ============================================================================

type typeName struct {
	pkg  string
	name string
}

// typeRegistry maps package path and name back to named types so that
// polymorphic payloads can be decoded. Go cannot look a type up by name, so
// only types the Map has seen or was told about can be found.
type typeRegistry struct {
	named *xsync.MapOf[typeName, reflect.Type]
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{named: xsync.NewMapOf[typeName, reflect.Type]()}
}

func (r *typeRegistry) register(t reflect.Type) {
	for t != nil {
		if t.Name() != "" && t.PkgPath() != "" {
			r.named.LoadOrStore(typeName{pkg: t.PkgPath(), name: t.Name()}, t)
		}
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Map:
			r.register(t.Key())
			t = t.Elem()
		default:
			return
		}
	}
}

func (r *typeRegistry) lookup(pkg, name string) (reflect.Type, bool) {
	return r.named.Load(typeName{pkg: pkg, name: name})
}

// RegisterType makes a named type decodable from its identity.
func (m *Map) RegisterType(t reflect.Type) {
	m.registry.register(t)
}
