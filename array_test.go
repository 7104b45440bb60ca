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

func TestSliceFastPath(t *testing.T) {
	little := New(WithLittleEndian(true))
	data, err := little.Marshal([]uint16{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xC2, 0x01, 0x00, 0x02, 0x00}, data)

	big := New(WithLittleEndian(false))
	data, err = big.Marshal([]uint16{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xC2, 0x00, 0x01, 0x00, 0x02}, data)

	out, err := Decode[[]uint16](little, data)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, out)
}

// offsetInt32 stores int32 values shifted by 1000 and counts its calls.
type offsetInt32 struct {
	calls *int
}

func (c offsetInt32) Serialize(s *Serializer, v reflect.Value) {
	*c.calls++
	s.WriteInt32(int32(v.Int()) + 1000)
}

func (c offsetInt32) Deserialize(d *Deserializer, v reflect.Value) {
	*c.calls++
	v.SetInt(int64(d.ReadInt32() - 1000))
}

func TestSliceElementOverride(t *testing.T) {
	calls := 0
	a := New(WithLittleEndian(true), WithExactConverter(int32Type, func(reflect.Type) Converter {
		return offsetInt32{calls: &calls}
	}))

	data, err := a.Marshal(int32(5))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xED, 0x03, 0x00, 0x00}, data)
	assert.Equal(t, 1, calls)

	calls = 0
	data, err = a.Marshal([]int32{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xC2, 0xED, 0x03, 0x00, 0x00, 0xEE, 0x03, 0x00, 0x00}, data)
	assert.Equal(t, 2, calls)

	out, err := Decode[[]int32](a, data)
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 6}, out)
	assert.Equal(t, 4, calls)

	data, err = a.Marshal([2]int32{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xED, 0x03, 0x00, 0x00, 0xEE, 0x03, 0x00, 0x00}, data)
}

func TestSliceRoundTrip(t *testing.T) {
	for name, opts := range map[string][]Option{
		"native":     nil,
		"little":     {WithLittleEndian(true)},
		"big":        {WithLittleEndian(false)},
		"compressed": {WithCompressPrimitives(true)},
	} {
		t.Run(name, func(t *testing.T) {
			a := New(opts...)
			check := func(in any, decode func([]byte) (any, error)) {
				data, err := a.Marshal(in)
				require.NoError(t, err)
				out, err := decode(data)
				require.NoError(t, err)
				assert.Equal(t, in, out)
			}
			check([]int64{-1, 0, 1 << 40}, func(b []byte) (any, error) { return Decode[[]int64](a, b) })
			check([]float64{1.5, -2}, func(b []byte) (any, error) { return Decode[[]float64](a, b) })
			check([]byte("raw bytes"), func(b []byte) (any, error) { return Decode[[]byte](a, b) })
			check([]string{"a", "", "c"}, func(b []byte) (any, error) { return Decode[[]string](a, b) })
			check([]bool{true, false, true}, func(b []byte) (any, error) { return Decode[[]bool](a, b) })
			check([3]int32{7, 8, 9}, func(b []byte) (any, error) { return Decode[[3]int32](a, b) })
			check([]*leaf{{V: 1}, nil, {V: 3}}, func(b []byte) (any, error) { return Decode[[]*leaf](a, b) })
			check([]int32{}, func(b []byte) (any, error) { return Decode[[]int32](a, b) })
		})
	}
}

func TestNilSlice(t *testing.T) {
	a := New()
	var in []int32
	data, err := a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[[]int32](a, data)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSliceLengthLimit(t *testing.T) {
	data, err := New().Marshal([]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	_, err = Decode[[]string](New(WithMaxCollectionSize(3)), data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestArrayLowerBounds(t *testing.T) {
	a := New()
	for _, bound := range []int{0, 5} {
		in, err := NewArrayWithBounds[int32]([]int{3}, []int{bound})
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			in.Set(int32(i*10), bound+i)
		}
		data, err := a.Marshal(in)
		require.NoError(t, err)
		out, err := Decode[*Array[int32]](a, data)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Rank())
		assert.Equal(t, bound, out.LowerBound(0))
		assert.Equal(t, 3, out.Len(0))
		assert.Equal(t, int32(20), out.Get(bound+2))
	}
}

func TestArrayTwoDimensional(t *testing.T) {
	a := New()
	for _, bounds := range [][]int{{0, 0}, {7, 8}} {
		in, err := NewArrayWithBounds[string]([]int{2, 2}, bounds)
		require.NoError(t, err)
		in.Set("a", bounds[0], bounds[1])
		in.Set("b", bounds[0], bounds[1]+1)
		in.Set("c", bounds[0]+1, bounds[1])
		in.Set("d", bounds[0]+1, bounds[1]+1)
		assert.Equal(t, []string{"a", "b", "c", "d"}, in.Data())

		data, err := a.Marshal(in)
		require.NoError(t, err)
		out, err := Decode[*Array[string]](a, data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestArrayThreeDimensional(t *testing.T) {
	a := New(WithCompressPrimitives(true))
	in, err := NewArray[int16](2, 3, 4)
	require.NoError(t, err)
	for i := range in.Data() {
		in.Data()[i] = int16(i - 12)
	}
	data, err := a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[*Array[int16]](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, int16(11), out.Get(1, 2, 3))
}

func TestArrayByValue(t *testing.T) {
	a := New()
	in, err := NewArray[uint8](2, 2)
	require.NoError(t, err)
	in.Set(9, 1, 1)
	data, err := a.Marshal(*in)
	require.NoError(t, err)
	out, err := Decode[Array[uint8]](a, data)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), out.Get(1, 1))
}

func TestArrayRankLimits(t *testing.T) {
	lengths := make([]int, MaxArrayRank)
	for i := range lengths {
		lengths[i] = 1
	}
	in, err := NewArray[int32](lengths...)
	require.NoError(t, err)
	in.Data()[0] = 77

	a := New()
	data, err := a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[*Array[int32]](a, data)
	require.NoError(t, err)
	assert.Equal(t, MaxArrayRank, out.Rank())
	assert.Equal(t, []int32{77}, out.Data())

	_, err = NewArray[int32](append(lengths, 1)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))

	_, err = NewArray[int32]()
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
}

func TestArrayRankZeroOnDecode(t *testing.T) {
	_, err := Decode[*Array[int32]](New(WithLittleEndian(true)), []byte{0x01, 0xC0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
}

func TestArrayIndexing(t *testing.T) {
	arr, err := NewArrayWithBounds[int]([]int{2, 3}, []int{-1, 10})
	require.NoError(t, err)
	arr.Set(5, 0, 12)
	assert.Equal(t, 5, arr.Get(0, 12))
	assert.Equal(t, 5, arr.Data()[5])
	assert.Panics(t, func() { arr.Get(1, 12) })
	assert.Panics(t, func() { arr.Get(0) })

	_, err = NewArrayWithBounds[int]([]int{1, 2}, []int{0})
	require.Error(t, err)
	_, err = NewArray[int](-1)
	require.Error(t, err)
}
