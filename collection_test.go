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
	"errors"
	"iter"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bag is a generic list found by its method set.
type bag[T any] struct {
	items []T
	grown int
}

func (b *bag[T]) All() iter.Seq[T] { return slices.Values(b.items) }
func (b *bag[T]) Len() int         { return len(b.items) }
func (b *bag[T]) Add(v T)          { b.items = append(b.items, v) }
func (b *bag[T]) Grow(n int) {
	b.items = slices.Grow(b.items, n)
	b.grown = n
}

// ordered is a generic dictionary that keeps insertion order.
type ordered[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

func (o *ordered[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

func (o *ordered[K, V]) Len() int { return len(o.keys) }

func (o *ordered[K, V]) Set(k K, v V) {
	if o.vals == nil {
		o.vals = make(map[K]V)
	}
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

type anyList struct {
	items []any
}

func (l *anyList) Len() int { return len(l.items) }
func (l *anyList) Each(yield func(any) bool) {
	for _, v := range l.items {
		if !yield(v) {
			return
		}
	}
}
func (l *anyList) Append(v any) { l.items = append(l.items, v) }

// counters is a non-generic dictionary whose typed All narrows its keys
// and values.
type counters struct {
	names  []string
	counts []int32
}

func (c *counters) Len() int { return len(c.names) }
func (c *counters) EachPair(yield func(k, v any) bool) {
	for i := range c.names {
		if !yield(c.names[i], c.counts[i]) {
			return
		}
	}
}
func (c *counters) Put(k, v any) {
	c.names = append(c.names, k.(string))
	c.counts = append(c.counts, v.(int32))
}
func (c *counters) All() iter.Seq2[string, int32] {
	return func(yield func(string, int32) bool) {
		for i := range c.names {
			if !yield(c.names[i], c.counts[i]) {
				return
			}
		}
	}
}

// both is a list and a dictionary at once.
type both struct {
	anyList
	counters
}

func (b *both) Len() int { return b.counters.Len() }

// liar reports more elements than it yields.
type liar struct{}

func (*liar) Len() int                  { return 3 }
func (*liar) Each(yield func(any) bool) { yield(int32(1)) }
func (*liar) Append(any)                {}

type inventory struct {
	Tags   bag[string]            `absave:"0"`
	Stock  ordered[string, int32] `absave:"1"`
	Extras map[string]any         `absave:"2"`
	Nested map[int32][]string     `absave:"3"`
	Misc   anyList                `absave:"4"`
	Counts counters               `absave:"5"`
	Lookup map[string]*leaf       `absave:"6"`
}

func TestCollectionRoundTrip(t *testing.T) {
	in := inventory{
		Tags:   bag[string]{items: []string{"red", "", "blue"}},
		Extras: map[string]any{"n": int32(4), "s": "text", "none": nil},
		Nested: map[int32][]string{1: {"a"}, 2: nil, 3: {}},
		Misc:   anyList{items: []any{int32(1), "x", nil, 2.5}},
		Counts: counters{names: []string{"a", "b"}, counts: []int32{10, 20}},
		Lookup: map[string]*leaf{"one": {V: 1}, "nil": nil},
	}
	in.Stock.Set("apple", 3)
	in.Stock.Set("pear", 0)

	for name, opts := range map[string][]Option{
		"default":    nil,
		"compressed": {WithCompressPrimitives(true)},
		"lazy":       {WithLazyCompressedWriting(true)},
	} {
		t.Run(name, func(t *testing.T) {
			a := New(opts...)
			data, err := a.Marshal(in)
			require.NoError(t, err)
			out, err := Decode[inventory](a, data)
			require.NoError(t, err)

			assert.Equal(t, in.Tags.items, out.Tags.items)
			assert.Equal(t, 3, out.Tags.grown)
			assert.Equal(t, in.Stock, out.Stock)
			assert.Equal(t, in.Extras, out.Extras)
			assert.Equal(t, in.Nested, out.Nested)
			assert.Equal(t, in.Misc, out.Misc)
			assert.Equal(t, in.Counts, out.Counts)
			assert.Equal(t, in.Lookup, out.Lookup)
		})
	}
}

func TestCollectionCategories(t *testing.T) {
	m := NewMap(nil)
	category := func(v any) string {
		item, err := m.GetItem(reflect.TypeOf(v))
		require.NoError(t, err)
		conv, err := item.Converter()
		require.NoError(t, err)
		c, ok := conv.(*collectionConverter)
		require.True(t, ok, "%T is not a collection", v)
		return c.Category()
	}
	assert.Equal(t, "map", category(map[string]int32{}))
	assert.Equal(t, "dictionary", category(counters{}))
	assert.Equal(t, "dictionary", category(both{}))
	assert.Equal(t, "generic-dictionary", category(ordered[int32, string]{}))
	assert.Equal(t, "list", category(anyList{}))
	assert.Equal(t, "generic-list", category(bag[int32]{}))

	item, err := m.GetItem(reflect.TypeOf(counters{}))
	require.NoError(t, err)
	conv, _ := item.Converter()
	c := conv.(*collectionConverter)
	assert.Equal(t, stringType, c.keyType)
	assert.Equal(t, int32Type, c.valType)
}

// keyedList offers a generic dictionary method set and the non-generic
// List at once.
type keyedList struct {
	keys []int32
	vals []string
}

func (l *keyedList) Len() int { return len(l.keys) }
func (l *keyedList) All() iter.Seq2[int32, string] {
	return func(yield func(int32, string) bool) {
		for i := range l.keys {
			if !yield(l.keys[i], l.vals[i]) {
				return
			}
		}
	}
}
func (l *keyedList) Set(k int32, v string) {
	l.keys = append(l.keys, k)
	l.vals = append(l.vals, v)
}
func (l *keyedList) Each(yield func(any) bool) {
	for _, v := range l.vals {
		if !yield(v) {
			return
		}
	}
}
func (l *keyedList) Append(v any) { l.Set(int32(len(l.keys)), v.(string)) }

func TestGenericDictionaryBeatsList(t *testing.T) {
	item, err := NewMap(nil).GetItem(reflect.TypeOf(keyedList{}))
	require.NoError(t, err)
	conv, err := item.Converter()
	require.NoError(t, err)
	c := conv.(*collectionConverter)
	assert.Equal(t, "generic-dictionary", c.Category())
	assert.Equal(t, int32Type, c.keyType)
	assert.Equal(t, stringType, c.valType)

	a := New()
	in := keyedList{keys: []int32{3, 9}, vals: []string{"a", "b"}}
	data, err := a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[keyedList](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNullDictionaryKey(t *testing.T) {
	a := New()
	data, err := a.Marshal(map[any]int32{nil: 1})
	require.NoError(t, err)
	_, err = Decode[map[any]int32](a, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNullDictionaryKey))

	data, err = a.Marshal(map[any]int32{"k": 1, int32(2): 2})
	require.NoError(t, err)
	out, err := Decode[map[any]int32](a, data)
	require.NoError(t, err)
	assert.Equal(t, map[any]int32{"k": 1, int32(2): 2}, out)
}

func TestUnhashableDictionaryKey(t *testing.T) {
	s := NewSerializer(NewMap(NewSettings(WithLittleEndian(true))))
	s.WriteUint8(headerLittleEndian)
	s.WriteBitOn()
	s.WriteBitOn()
	s.WriteLength(1)
	var key any = []int32{7}
	s.WriteItem(reflect.ValueOf(&key).Elem(), s.Item(anyType))
	s.WriteItem(reflect.ValueOf(int32(1)), s.Item(int32Type))
	s.FinishHeader()
	require.NoError(t, s.Err())

	_, err := Decode[map[any]int32](New(), s.Bytes())
	require.Error(t, err)
	assert.Equal(t, ErrKindInvalidData, kindOf(err))
	assert.Contains(t, err.Error(), "not hashable")
}

func TestCollectionLimit(t *testing.T) {
	in := map[string]int32{"a": 1, "b": 2, "c": 3, "d": 4}
	data, err := New().Marshal(in)
	require.NoError(t, err)

	_, err = Decode[map[string]int32](New(WithMaxCollectionSize(3)), data)
	require.Error(t, err)
	assert.Equal(t, ErrKindMaxCollectionSizeExceeded, kindOf(err))

	out, err := Decode[map[string]int32](New(WithMaxCollectionSize(4)), data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCollectionCountMismatch(t *testing.T) {
	_, err := New().Marshal(liar{})
	require.Error(t, err)
	assert.Equal(t, ErrKindInvalidData, kindOf(err))
}
