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
	"unicode/utf8"
)

// Deserializer mirrors Serializer while reading one document.
type Deserializer struct {
	BitReader
	m        *Map
	settings *Settings
	ctx      context.Context
	depth    int
	caching  bool
	versions map[int]uint32
	types    []reflect.Type
	asms     []Assembly
}

// NewDeserializer creates a deserializer over data using the Map's
// settings.
func NewDeserializer(m *Map, data []byte) *Deserializer {
	d := &Deserializer{m: m, settings: m.settings, ctx: context.Background()}
	d.BitReader.reset(data)
	d.configure(m.settings.UseLittleEndian, m.settings.LazyCompressedWriting)
	d.caching = m.settings.CacheTypesAndAssemblies
	d.versions = make(map[int]uint32)
	return d
}

// Reset points the deserializer at new data and clears per-document state.
func (d *Deserializer) Reset(data []byte) {
	d.BitReader.reset(data)
	d.configure(d.settings.UseLittleEndian, d.settings.LazyCompressedWriting)
	d.caching = d.settings.CacheTypesAndAssemblies
	d.depth = 0
	d.ctx = context.Background()
	clear(d.versions)
	d.types = d.types[:0]
	d.asms = d.asms[:0]
}

// Map returns the generation context items are resolved with.
func (d *Deserializer) Map() *Map {
	return d.m
}

// Settings returns the settings in effect.
func (d *Deserializer) Settings() *Settings {
	return d.settings
}

// Context returns the context of the running operation.
func (d *Deserializer) Context() context.Context {
	return d.ctx
}

// Item resolves t, recording a failure when it cannot be deserialized.
func (d *Deserializer) Item(t reflect.Type) *MapItem {
	item, err := d.m.GetItem(t)
	if err != nil {
		d.SetError(FromError(err))
		return nil
	}
	return item
}

// ReadItem reads an item written by WriteItem into the settable v.
func (d *Deserializer) ReadItem(v reflect.Value, item *MapItem) {
	if d.err.HasError() || item == nil {
		return
	}
	conv, err := item.Converter()
	if err != nil {
		d.SetError(FromError(err))
		return
	}
	if !d.enter() {
		return
	}
	if !item.valueType {
		if !d.ReadBit() {
			v.Set(reflect.Zero(v.Type()))
			d.depth--
			return
		}
		if d.ReadBit() == item.polymorphic {
			if !d.err.HasError() {
				d.SetError(newError(ErrKindInvalidData, "item attribute of %v does not match its slot", item.typ))
			}
			d.depth--
			return
		}
	}
	conv.Deserialize(d, v)
	d.depth--
}

// ReadValue reads a value written by WriteValue into the settable v.
func (d *Deserializer) ReadValue(v reflect.Value, item *MapItem) {
	if d.err.HasError() || item == nil {
		return
	}
	conv, err := item.Converter()
	if err != nil {
		d.SetError(FromError(err))
		return
	}
	if !d.enter() {
		return
	}
	conv.Deserialize(d, v)
	d.depth--
}

func (d *Deserializer) enter() bool {
	d.depth++
	if limit := d.settings.MaxDepth; limit > 0 && d.depth > limit {
		d.SetError(newError(ErrKindMaxDepthExceeded, "nesting deeper than %d", limit))
		d.depth--
		return false
	}
	return true
}

// ReadCollectionLength reads an element count and checks it against
// MaxCollectionSize.
func (d *Deserializer) ReadCollectionLength() int {
	return d.ReadLength(d.settings.MaxCollectionSize)
}

// ReadText reads text written by Serializer.WriteText.
func (d *Deserializer) ReadText() string {
	if d.settings.UseUTF8 {
		return d.readUTF8(d.readTextLength(1))
	}
	return string(utf16.Decode(d.readUnits()))
}

// readUTF8 consumes UTF-8 bytes until n UTF-16 code units are decoded.
func (d *Deserializer) readUTF8(n int) string {
	if d.err.HasError() || n == 0 {
		return ""
	}
	d.left = 0
	rest := d.data[d.pos:]
	size, units := 0, 0
	for units < n {
		if size >= len(rest) {
			d.SetError(bufferOutOfBoundError(d.pos, size+1, len(d.data)))
			return ""
		}
		r, w := utf8.DecodeRune(rest[size:])
		units += utf16.RuneLen(r)
		size += w
	}
	if units != n {
		d.SetError(newError(ErrKindInvalidData, "text length %d splits a surrogate pair", n))
		return ""
	}
	if limit := d.settings.MaxBinarySize; limit > 0 && size > limit {
		d.SetError(binarySizeError(size, limit))
		return ""
	}
	return string(d.ReadBytes(size))
}

func (d *Deserializer) readUnits() []uint16 {
	n := d.readTextLength(2)
	if d.err.HasError() {
		return nil
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = d.ReadUint16()
	}
	return units
}

func (d *Deserializer) readTextLength(unitSize int) int {
	n := d.ReadLength(0)
	if d.err.HasError() {
		return 0
	}
	size := n * unitSize
	if limit := d.settings.MaxBinarySize; limit > 0 && size > limit {
		d.SetError(binarySizeError(size, limit))
		return 0
	}
	if size > d.Remaining() {
		d.SetError(bufferOutOfBoundError(d.pos, size, len(d.data)))
		return 0
	}
	return n
}
