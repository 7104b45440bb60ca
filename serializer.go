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
	"context"
	"reflect"
	"unicode/utf16"
)

// Serializer is threaded through every converter while writing one
// document. It owns all per-call state and must not be shared between
// concurrent operations.
type Serializer struct {
	BitWriter
	m        *Map
	settings *Settings
	ctx      context.Context
	err      Error
	depth    int
	caching  bool
	versions map[int]uint32
	types    map[reflect.Type]uint32
	asms     map[Assembly]uint32
}

// NewSerializer creates a serializer writing with the Map's settings.
func NewSerializer(m *Map) *Serializer {
	s := &Serializer{m: m, settings: m.settings, ctx: context.Background()}
	s.configure(m.settings.UseLittleEndian, m.settings.LazyCompressedWriting)
	s.caching = m.settings.CacheTypesAndAssemblies
	s.versions = make(map[int]uint32)
	s.types = make(map[reflect.Type]uint32)
	s.asms = make(map[Assembly]uint32)
	return s
}

// Reset clears everything written so far, including per-document caches.
func (s *Serializer) Reset() {
	s.BitWriter.Reset()
	s.err = Error{}
	s.depth = 0
	s.ctx = context.Background()
	clear(s.versions)
	clear(s.types)
	clear(s.asms)
}

// Map returns the generation context the serializer resolves items with.
func (s *Serializer) Map() *Map {
	return s.m
}

// Settings returns the settings in effect.
func (s *Serializer) Settings() *Settings {
	return s.settings
}

// Context returns the context of the running operation.
func (s *Serializer) Context() context.Context {
	return s.ctx
}

// SetError records err unless a failure is already recorded.
func (s *Serializer) SetError(err Error) {
	if !s.err.HasError() {
		s.err = err
	}
}

// HasError reports whether a failure was recorded.
func (s *Serializer) HasError() bool {
	return s.err.HasError()
}

// Err returns the recorded failure, or nil.
func (s *Serializer) Err() error {
	return s.err.asError()
}

// Item resolves t, recording a failure when it cannot be serialized.
func (s *Serializer) Item(t reflect.Type) *MapItem {
	item, err := s.m.GetItem(t)
	if err != nil {
		s.SetError(FromError(err))
		return nil
	}
	return item
}

// WriteItem writes v through item, preceded by the item attribute when the
// item's type is nullable.
func (s *Serializer) WriteItem(v reflect.Value, item *MapItem) {
	if s.err.HasError() || item == nil {
		return
	}
	conv, err := item.Converter()
	if err != nil {
		s.SetError(FromError(err))
		return
	}
	if !s.enter() {
		return
	}
	if !item.valueType {
		if isNilValue(v) {
			s.WriteBitOff()
			s.depth--
			return
		}
		s.WriteBitOn()
		s.WriteBitWith(!item.polymorphic)
	}
	conv.Serialize(s, v)
	s.depth--
}

// WriteValue writes v through item without an attribute. v must not be nil.
func (s *Serializer) WriteValue(v reflect.Value, item *MapItem) {
	if s.err.HasError() || item == nil {
		return
	}
	conv, err := item.Converter()
	if err != nil {
		s.SetError(FromError(err))
		return
	}
	if !s.enter() {
		return
	}
	conv.Serialize(s, v)
	s.depth--
}

func (s *Serializer) enter() bool {
	s.depth++
	if limit := s.settings.MaxDepth; limit > 0 && s.depth > limit {
		s.SetError(newError(ErrKindMaxDepthExceeded, "nesting deeper than %d", limit))
		s.depth--
		return false
	}
	return true
}

// WriteText writes a length-prefixed string in the configured encoding.
// The prefix counts characters (UTF-16 code units) in both encodings, not
// bytes.
func (s *Serializer) WriteText(str string) {
	if s.settings.UseUTF8 {
		s.WriteLength(utf16Len(str))
		s.free = 0
		s.buf = append(s.buf, str...)
		return
	}
	s.writeUnits(utf16.Encode([]rune(str)))
}

func (s *Serializer) writeUnits(units []uint16) {
	s.WriteLength(len(units))
	for _, u := range units {
		s.WriteUint16(u)
	}
}

// utf16Len counts the UTF-16 code units of str. Invalid bytes count as one
// unit each, matching how they decode.
func utf16Len(str string) int {
	n := 0
	for _, r := range str {
		n += utf16.RuneLen(r)
	}
	return n
}

// isNilValue treats invalid values as nil so that empty interfaces can be
// passed through unchanged.
func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
