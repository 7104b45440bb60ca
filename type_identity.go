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
	"math"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
)

// Assembly identifies the unit a named type comes from: its Go package
// path and the version of the module providing it.
type Assembly struct {
	Path    string
	Version string
}

func (a Assembly) String() string {
	if a.Version == "" {
		return a.Path
	}
	return a.Path + "@" + a.Version
}

var buildModules = sync.OnceValue(func() []*debug.Module {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	mods := []*debug.Module{&info.Main}
	for _, dep := range info.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		mods = append(mods, dep)
	}
	return mods
})

// AssemblyOf returns the assembly of a named type. Unnamed and predeclared
// types have an empty assembly.
func AssemblyOf(t reflect.Type) Assembly {
	pkg := t.PkgPath()
	if pkg == "" {
		return Assembly{}
	}
	asm := Assembly{Path: pkg}
	best := -1
	for _, mod := range buildModules() {
		if mod.Path == "" || len(mod.Path) <= best {
			continue
		}
		if pkg == mod.Path || strings.HasPrefix(pkg, mod.Path+"/") {
			asm.Version = mod.Version
			best = len(mod.Path)
		}
	}
	return asm
}

// Type description tags, written in 3 header bits.
const (
	typeTagBuiltin uint32 = iota
	typeTagNamed
	typeTagPointer
	typeTagSlice
	typeTagArray
	typeTagMap
	typeTagAny
)

// maxCacheEntries bounds a per-document cache. Entries past it are written
// in full behind the sentinel key.
var maxCacheEntries = math.MaxInt32

var errorType = reflect.TypeOf((*error)(nil)).Elem()

var builtinKinds = map[reflect.Kind]reflect.Type{
	reflect.Bool:       boolType,
	reflect.Int:        intType,
	reflect.Int8:       int8Type,
	reflect.Int16:      int16Type,
	reflect.Int32:      int32Type,
	reflect.Int64:      int64Type,
	reflect.Uint:       uintType,
	reflect.Uint8:      uint8Type,
	reflect.Uint16:     uint16Type,
	reflect.Uint32:     uint32Type,
	reflect.Uint64:     uint64Type,
	reflect.Uintptr:    reflect.TypeOf(uintptr(0)),
	reflect.Float32:    float32Type,
	reflect.Float64:    float64Type,
	reflect.Complex64:  reflect.TypeOf(complex64(0)),
	reflect.Complex128: reflect.TypeOf(complex128(0)),
	reflect.String:     stringType,
	reflect.Interface:  errorType,
}

// cacheKeyWidth is the number of bytes a key takes while count entries
// are cached.
func cacheKeyWidth(count int) int {
	switch {
	case count <= 0xFF:
		return 1
	case count <= 0xFFFF:
		return 2
	case count <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

// cacheSentinel returns the all-ones key that marks an uncached entry at
// the key width for count.
func cacheSentinel(count int) uint32 {
	return math.MaxUint32 >> (32 - 8*cacheKeyWidth(count))
}

func (s *Serializer) writeCacheKey(key uint32, count int) {
	for i := 0; i < cacheKeyWidth(count); i++ {
		s.WriteUint8(uint8(key >> (8 * i)))
	}
}

func (d *Deserializer) readCacheKey(count int) uint32 {
	var key uint32
	for i := 0; i < cacheKeyWidth(count); i++ {
		key |= uint32(d.ReadUint8()) << (8 * i)
	}
	return key
}

// WriteType writes the identity of t, through the document's type cache
// when caching is on.
func (s *Serializer) WriteType(t reflect.Type) {
	if !s.caching {
		s.writeTypeDesc(t)
		return
	}
	count := len(s.types)
	if key, ok := s.types[t]; ok {
		s.writeCacheKey(key, count)
		return
	}
	if count >= maxCacheEntries {
		s.writeCacheKey(cacheSentinel(count), count)
		s.writeTypeDesc(t)
		return
	}
	s.writeCacheKey(uint32(count), count)
	s.types[t] = uint32(count)
	s.writeTypeDesc(t)
}

func (s *Serializer) writeTypeDesc(t reflect.Type) {
	if s.err.HasError() {
		return
	}
	switch {
	case t.Name() != "" && t.PkgPath() != "":
		s.WriteInteger(typeTagNamed, 3)
		s.WriteAssembly(AssemblyOf(t))
		s.WriteText(t.Name())
		s.m.registry.register(t)
	case t.Name() != "":
		if builtinKinds[t.Kind()] != t {
			s.SetError(unserializableTypeError(t))
			return
		}
		s.WriteInteger(typeTagBuiltin, 3)
		s.WriteInteger(uint32(t.Kind()), 5)
	case t.Kind() == reflect.Pointer:
		s.WriteInteger(typeTagPointer, 3)
		s.writeTypeDesc(t.Elem())
	case t.Kind() == reflect.Slice:
		s.WriteInteger(typeTagSlice, 3)
		s.writeTypeDesc(t.Elem())
	case t.Kind() == reflect.Array:
		s.WriteInteger(typeTagArray, 3)
		s.WriteLength(t.Len())
		s.writeTypeDesc(t.Elem())
	case t.Kind() == reflect.Map:
		s.WriteInteger(typeTagMap, 3)
		s.writeTypeDesc(t.Key())
		s.writeTypeDesc(t.Elem())
	case t == anyType:
		s.WriteInteger(typeTagAny, 3)
	default:
		s.SetError(unserializableTypeError(t))
	}
}

// ReadType reads an identity written by WriteType. It returns nil after a
// failure.
func (d *Deserializer) ReadType() reflect.Type {
	if !d.caching {
		return d.readTypeDesc()
	}
	count := len(d.types)
	key := d.readCacheKey(count)
	switch {
	case d.HasError():
		return nil
	case int(key) < count:
		return d.types[key]
	case key == cacheSentinel(count) && count >= maxCacheEntries:
		return d.readTypeDesc()
	case int(key) == count:
		t := d.readTypeDesc()
		if t != nil {
			d.types = append(d.types, t)
		}
		return t
	default:
		d.SetError(newError(ErrKindInvalidData, "type cache key %d out of range (%d cached)", key, count))
		return nil
	}
}

func (d *Deserializer) readTypeDesc() reflect.Type {
	tag := d.ReadInteger(3)
	if d.HasError() {
		return nil
	}
	switch tag {
	case typeTagBuiltin:
		kind := reflect.Kind(d.ReadInteger(5))
		if t, ok := builtinKinds[kind]; ok {
			return t
		}
		d.SetError(newError(ErrKindInvalidData, "unknown builtin kind %d", kind))
	case typeTagNamed:
		asm := d.ReadAssembly()
		name := d.ReadText()
		if d.HasError() {
			return nil
		}
		if t, ok := d.m.registry.lookup(asm.Path, name); ok {
			return t
		}
		d.SetError(newError(ErrKindUnknownType, "type %s.%s is not registered", asm.Path, name))
	case typeTagPointer:
		if elem := d.readTypeDesc(); elem != nil {
			return reflect.PointerTo(elem)
		}
	case typeTagSlice:
		if elem := d.readTypeDesc(); elem != nil {
			return reflect.SliceOf(elem)
		}
	case typeTagArray:
		n := d.ReadLength(d.settings.MaxCollectionSize)
		elem := d.readTypeDesc()
		if elem == nil || !d.checkArrayType(n, elem) {
			return nil
		}
		return reflect.ArrayOf(n, elem)
	case typeTagMap:
		key := d.readTypeDesc()
		elem := d.readTypeDesc()
		if key == nil || elem == nil {
			return nil
		}
		if !key.Comparable() {
			d.SetError(newError(ErrKindInvalidData, "%v is not a valid map key", key))
			return nil
		}
		return reflect.MapOf(key, elem)
	case typeTagAny:
		return anyType
	default:
		d.SetError(newError(ErrKindInvalidData, "unknown type tag %d", tag))
	}
	return nil
}

// maxArrayTypeBytes caps the size of a decoded [N]T when MaxBinarySize is
// unlimited.
const maxArrayTypeBytes = 1 << 31

// checkArrayType bounds a decoded [n]elem before it is built. Nested array
// lengths multiply, so the element count is checked against
// MaxCollectionSize and the byte size against MaxBinarySize.
func (d *Deserializer) checkArrayType(n int, elem reflect.Type) bool {
	count := uint64(n)
	for t := elem; t.Kind() == reflect.Array; t = t.Elem() {
		count *= uint64(t.Len())
		if limit := d.settings.MaxCollectionSize; limit > 0 && count > uint64(limit) {
			d.SetError(collectionSizeError(int(count), limit))
			return false
		}
		if count > math.MaxInt32 {
			d.SetError(newError(ErrKindInvalidData, "array type [%d]%v holds too many elements", n, elem))
			return false
		}
	}
	limit := uint64(maxArrayTypeBytes)
	if d.settings.MaxBinarySize > 0 {
		limit = uint64(d.settings.MaxBinarySize)
	}
	size := uint64(elem.Size())
	if size != 0 && uint64(n) > limit/size {
		d.SetError(newError(ErrKindMaxBinarySizeExceeded,
			"array type [%d]%v exceeds %d bytes", n, elem, limit))
		return false
	}
	return true
}

// WriteAssembly writes an assembly identity, through the document's
// assembly cache when caching is on.
func (s *Serializer) WriteAssembly(a Assembly) {
	if !s.caching {
		s.writeAssemblyDesc(a)
		return
	}
	count := len(s.asms)
	if key, ok := s.asms[a]; ok {
		s.writeCacheKey(key, count)
		return
	}
	if count >= maxCacheEntries {
		s.writeCacheKey(cacheSentinel(count), count)
		s.writeAssemblyDesc(a)
		return
	}
	s.writeCacheKey(uint32(count), count)
	s.asms[a] = uint32(count)
	s.writeAssemblyDesc(a)
}

func (s *Serializer) writeAssemblyDesc(a Assembly) {
	s.WriteText(a.Path)
	s.WriteBitWith(a.Version != "")
	if a.Version != "" {
		s.WriteText(a.Version)
	}
}

// ReadAssembly reads an identity written by WriteAssembly.
func (d *Deserializer) ReadAssembly() Assembly {
	if !d.caching {
		return d.readAssemblyDesc()
	}
	count := len(d.asms)
	key := d.readCacheKey(count)
	switch {
	case d.HasError():
		return Assembly{}
	case int(key) < count:
		return d.asms[key]
	case key == cacheSentinel(count) && count >= maxCacheEntries:
		return d.readAssemblyDesc()
	case int(key) == count:
		a := d.readAssemblyDesc()
		if !d.HasError() {
			d.asms = append(d.asms, a)
		}
		return a
	default:
		d.SetError(newError(ErrKindInvalidData, "assembly cache key %d out of range (%d cached)", key, count))
		return Assembly{}
	}
}

func (d *Deserializer) readAssemblyDesc() Assembly {
	a := Assembly{Path: d.ReadText()}
	if d.ReadBit() {
		a.Version = d.ReadText()
	}
	return a
}

type typeConverter struct{}

func (typeConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteType(v.Interface().(reflect.Type))
}

func (typeConverter) Deserialize(d *Deserializer, v reflect.Value) {
	if t := d.ReadType(); t != nil {
		v.Set(reflect.ValueOf(t))
	}
}

type assemblyConverter struct{}

func (assemblyConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteAssembly(v.Interface().(Assembly))
}

func (assemblyConverter) Deserialize(d *Deserializer, v reflect.Value) {
	a := d.ReadAssembly()
	if !d.HasError() {
		v.Set(reflect.ValueOf(a))
	}
}
