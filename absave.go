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

// Package absave is a binary object serialization engine. Values are
// written compactly: small flags share "header" bytes bit by bit, integers
// can be compressed, and struct members are selected per version so that
// documents written by older layouts stay readable.
//
// Types are resolved once per Map to a converter, which is then shared by
// every operation. An ABSave instance owns one Map and is safe for
// concurrent use.
package absave

import (
	"context"
	"io"
	"reflect"
	"sync"
	"time"
)

// Document header bits.
const (
	headerLittleEndian byte = 1 << 0
	headerCaching      byte = 1 << 1
	headerKnownBits         = headerLittleEndian | headerCaching
)

// ABSave serializes values with one set of settings.
type ABSave struct {
	settings      *Settings
	m             *Map
	serializers   sync.Pool
	deserializers sync.Pool
	stats         *Stats
}

// New creates an instance configured by opts.
func New(opts ...Option) *ABSave {
	return NewWithSettings(NewSettings(opts...))
}

// NewWithSettings creates an instance for existing settings.
func NewWithSettings(settings *Settings) *ABSave {
	a := &ABSave{settings: settings, m: NewMap(settings), stats: newStats()}
	a.serializers.New = func() any { return NewSerializer(a.m) }
	a.deserializers.New = func() any { return NewDeserializer(a.m, nil) }
	return a
}

// Settings returns the instance settings.
func (a *ABSave) Settings() *Settings {
	return a.settings
}

// Map returns the instance's generation context.
func (a *ABSave) Map() *Map {
	return a.m
}

// Stats returns the instance's document statistics.
func (a *ABSave) Stats() *Stats {
	return a.stats
}

// SetTargetVersion selects the version written and expected for t.
func (a *ABSave) SetTargetVersion(t reflect.Type, version uint32) error {
	return a.m.SetTargetVersion(t, version)
}

// RegisterType makes named types decodable from their identity, for values
// stored in interface slots.
func (a *ABSave) RegisterType(values ...any) {
	for _, v := range values {
		if t, ok := v.(reflect.Type); ok {
			a.m.RegisterType(t)
		} else if v != nil {
			a.m.RegisterType(reflect.TypeOf(v))
		}
	}
}

// Marshal encodes v using its dynamic type.
func (a *ABSave) Marshal(v any) ([]byte, error) {
	return a.MarshalContext(context.Background(), v)
}

// MarshalContext is Marshal with a context passed to signals.
func (a *ABSave) MarshalContext(ctx context.Context, v any) ([]byte, error) {
	if v == nil {
		return nil, newError(ErrKindInvalidArgument, "cannot marshal untyped nil").asError()
	}
	rv := reflect.ValueOf(v)
	return a.marshal(ctx, rv, rv.Type())
}

// MarshalAs encodes v as a value of the declared type, which v must be
// assignable to. Use it to write through an interface slot, so that the
// document records v's dynamic type.
func (a *ABSave) MarshalAs(v any, declared reflect.Type) ([]byte, error) {
	slot := reflect.New(declared).Elem()
	if v != nil {
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(declared) {
			return nil, newError(ErrKindInvalidArgument, "%v is not assignable to %v", rv.Type(), declared).asError()
		}
		slot.Set(rv)
	}
	return a.marshal(context.Background(), slot, declared)
}

func (a *ABSave) marshal(ctx context.Context, v reflect.Value, t reflect.Type) (out []byte, err error) {
	start := time.Now()
	s := a.serializers.Get().(*Serializer)
	defer a.serializers.Put(s)
	s.Reset()
	s.ctx = ctx

	s.WriteUint8(a.documentHeader())
	s.WriteItem(v, s.Item(t))
	s.FinishHeader()
	if err = s.Err(); err == nil {
		out = append([]byte(nil), s.Bytes()...)
	}
	recordMarshal(start, len(out), err)
	a.stats.observe(true, len(out), err)
	emitMarshalComplete(ctx, t.String(), len(out), time.Since(start), err)
	return out, err
}

func (a *ABSave) documentHeader() byte {
	var h byte
	if a.settings.UseLittleEndian {
		h |= headerLittleEndian
	}
	if a.settings.CacheTypesAndAssemblies {
		h |= headerCaching
	}
	return h
}

// Unmarshal decodes data into the value ptr points to. ptr is left
// untouched when decoding fails.
func (a *ABSave) Unmarshal(data []byte, ptr any) error {
	return a.UnmarshalContext(context.Background(), data, ptr)
}

// UnmarshalContext is Unmarshal with a context passed to signals.
func (a *ABSave) UnmarshalContext(ctx context.Context, data []byte, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return newError(ErrKindInvalidArgument, "Unmarshal needs a non-nil pointer, got %T", ptr).asError()
	}
	return a.unmarshal(ctx, data, rv.Elem())
}

func (a *ABSave) unmarshal(ctx context.Context, data []byte, target reflect.Value) error {
	start := time.Now()
	t := target.Type()
	err := a.decode(ctx, data, target)
	recordUnmarshal(start, len(data), err)
	a.stats.observe(false, len(data), err)
	emitUnmarshalComplete(ctx, t.String(), len(data), time.Since(start), err)
	return err
}

func (a *ABSave) decode(ctx context.Context, data []byte, target reflect.Value) error {
	if limit := a.settings.MaxBinarySize; limit > 0 && len(data) > limit {
		return binarySizeError(len(data), limit).asError()
	}
	d := a.deserializers.Get().(*Deserializer)
	defer a.deserializers.Put(d)
	d.Reset(data)
	d.ctx = ctx

	h := d.ReadUint8()
	if d.HasError() {
		return d.Err()
	}
	if h&^headerKnownBits != 0 {
		return newError(ErrKindInvalidData, "unknown document header bits %#02x", h&^headerKnownBits).asError()
	}
	d.configure(h&headerLittleEndian != 0, a.settings.LazyCompressedWriting)
	d.caching = h&headerCaching != 0

	tmp := reflect.New(target.Type()).Elem()
	d.ReadItem(tmp, d.Item(target.Type()))
	if err := d.Err(); err != nil {
		return err
	}
	target.Set(tmp)
	return nil
}

// Serialize writes the encoding of v to w.
func (a *ABSave) Serialize(w io.Writer, v any) error {
	data, err := a.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Deserialize reads one document from r into the value ptr points to. At
// most MaxBinarySize bytes are read.
func (a *ABSave) Deserialize(r io.Reader, ptr any) error {
	if limit := a.settings.MaxBinarySize; limit > 0 {
		r = io.LimitReader(r, int64(limit)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return a.Unmarshal(data, ptr)
}

// Encode marshals v as a T. With an interface T the dynamic type of v is
// recorded.
func Encode[T any](a *ABSave, v T) ([]byte, error) {
	rv := reflect.ValueOf(&v).Elem()
	return a.marshal(context.Background(), rv, rv.Type())
}

// Decode unmarshals data written as a T.
func Decode[T any](a *ABSave, data []byte) (T, error) {
	var out T
	err := a.unmarshal(context.Background(), data, reflect.ValueOf(&out).Elem())
	return out, err
}
