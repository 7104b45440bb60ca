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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typeHolder struct {
	T reflect.Type `absave:"0"`
	A Assembly     `absave:"1"`
}

func TestCacheKeyWidth(t *testing.T) {
	for _, tc := range []struct {
		count    int
		width    int
		sentinel uint32
	}{
		{0, 1, 0xFF},
		{255, 1, 0xFF},
		{256, 2, 0xFFFF},
		{65535, 2, 0xFFFF},
		{65536, 3, 0xFFFFFF},
		{0xFFFFFF, 3, 0xFFFFFF},
		{0x1000000, 4, 0xFFFFFFFF},
	} {
		assert.Equal(t, tc.width, cacheKeyWidth(tc.count), "count %d", tc.count)
		assert.Equal(t, tc.sentinel, cacheSentinel(tc.count), "count %d", tc.count)
	}
}

func TestTypeCaching(t *testing.T) {
	a := New(WithCacheTypesAndAssemblies(true), WithLittleEndian(true))
	in := []reflect.Type{int32Type, int32Type, stringType}
	data, err := a.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x03, 0xC3,
		0xC0, 0x00, 0x05,
		0xC0, 0x00,
		0xC0, 0x01, 0x18,
	}, data)

	out, err := Decode[[]reflect.Type](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTypeCacheOverflow(t *testing.T) {
	saved := maxCacheEntries
	maxCacheEntries = 1
	t.Cleanup(func() { maxCacheEntries = saved })

	a := New(WithCacheTypesAndAssemblies(true), WithLittleEndian(true))
	in := []reflect.Type{int32Type, stringType, stringType}
	data, err := a.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x03, 0xC3,
		0xC0, 0x00, 0x05,
		0xC0, 0xFF, 0x18,
		0xC0, 0xFF, 0x18,
	}, data)

	out, err := Decode[[]reflect.Type](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTypeCacheKeyOutOfRange(t *testing.T) {
	_, err := Decode[[]reflect.Type](New(), []byte{0x03, 0xC1, 0xC0, 0x05})
	require.Error(t, err)
	assert.Equal(t, ErrKindInvalidData, kindOf(err))
}

func TestTypeIdentityRoundTrip(t *testing.T) {
	types := []reflect.Type{
		reflect.TypeOf(map[string][]*pair{}),
		reflect.TypeOf([4]int8{}),
		reflect.TypeOf((*error)(nil)).Elem(),
		anyType,
		reflect.TypeOf(map[int32]any{}),
		reflect.TypeOf(complex128(0)),
	}
	for name, opts := range map[string][]Option{
		"plain":  nil,
		"cached": {WithCacheTypesAndAssemblies(true)},
		"utf16":  {WithUTF8(false), WithCacheTypesAndAssemblies(true)},
	} {
		t.Run(name, func(t *testing.T) {
			a := New(opts...)
			for _, typ := range types {
				in := typeHolder{T: typ, A: AssemblyOf(reflect.TypeOf(pair{}))}
				out, err := Decode[typeHolder](a, mustMarshal(t, a, in))
				require.NoError(t, err, "%v", typ)
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestUnknownType(t *testing.T) {
	writer := New()
	data, err := writer.Marshal(typeHolder{T: reflect.TypeOf(circle{})})
	require.NoError(t, err)

	_, err = Decode[typeHolder](New(), data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))

	out, err := Decode[typeHolder](New(WithTypes(circle{})), data)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(circle{}), out.T)

	reader := New()
	reader.RegisterType(circle{})
	out, err = Decode[typeHolder](reader, data)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(circle{}), out.T)
}

func TestUnserializableTypeIdentity(t *testing.T) {
	_, err := New().Marshal(typeHolder{T: reflect.TypeOf(func() {})})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnserializableType))
}

func TestAssembly(t *testing.T) {
	asm := AssemblyOf(reflect.TypeOf(pair{}))
	assert.Equal(t, reflect.TypeOf(pair{}).PkgPath(), asm.Path)
	assert.Equal(t, Assembly{}, AssemblyOf(intType))
	assert.Equal(t, Assembly{}, AssemblyOf(reflect.TypeOf([]pair{})))

	assert.Equal(t, "example.com/lib@v1.2.0", Assembly{Path: "example.com/lib", Version: "v1.2.0"}.String())
	assert.Equal(t, "example.com/lib", Assembly{Path: "example.com/lib"}.String())

	a := New(WithCacheTypesAndAssemblies(true))
	in := []Assembly{{Path: "x", Version: "v1"}, {Path: "x", Version: "v1"}, {Path: "y"}}
	out, err := Decode[[]Assembly](a, mustMarshal(t, a, in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// arrayTypeDocument writes an interface slot whose type identity is
// [lengths[0]][lengths[1]]...int64, with no value after it.
func arrayTypeDocument(t *testing.T, lengths ...int) []byte {
	s := NewSerializer(NewMap(nil))
	s.WriteUint8(headerLittleEndian)
	s.WriteBitOn()
	s.WriteBitOff()
	for _, n := range lengths {
		s.WriteInteger(typeTagArray, 3)
		s.WriteLength(n)
	}
	s.writeTypeDesc(int64Type)
	s.FinishHeader()
	require.NoError(t, s.Err())
	return append([]byte(nil), s.Bytes()...)
}

func TestArrayTypeLimits(t *testing.T) {
	cases := []struct {
		name    string
		opts    []Option
		lengths []int
		want    ErrorKind
	}{
		{"element count", nil, []int{1000000, 1000000}, ErrKindMaxCollectionSizeExceeded},
		{"byte size", []Option{WithMaxCollectionSize(0)}, []int{1000, 1000, 100}, ErrKindMaxBinarySizeExceeded},
		{"unlimited", []Option{WithMaxCollectionSize(0), WithMaxBinarySize(0)}, []int{1000000, 1000000, 1000000, 1000000}, ErrKindInvalidData},
		{"unlimited size", []Option{WithMaxCollectionSize(0), WithMaxBinarySize(0)}, []int{100000, 10000}, ErrKindMaxBinarySizeExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := New(tc.opts...)
			var out any
			err := a.Unmarshal(arrayTypeDocument(t, tc.lengths...), &out)
			require.Error(t, err)
			assert.Equal(t, tc.want, kindOf(err))
			assert.Nil(t, out)
		})
	}

	t.Run("within limits", func(t *testing.T) {
		a := New()
		data, err := a.MarshalAs([3][2]int64{{1, 2}, {3, 4}, {5, 6}}, anyType)
		require.NoError(t, err)
		var out any
		require.NoError(t, a.Unmarshal(data, &out))
		assert.Equal(t, [3][2]int64{{1, 2}, {3, 4}, {5, 6}}, out)
	})
}
