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
	"strings"
	"testing"
	"time"

	"github.com/ABCo-Src/ABSave-sub000/optional"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scalars struct {
	Flag    bool          `absave:"0"`
	I8      int8          `absave:"1"`
	U8      uint8         `absave:"2"`
	I16     int16         `absave:"3"`
	U16     uint16        `absave:"4"`
	I32     int32         `absave:"5"`
	U32     uint32        `absave:"6"`
	I64     int64         `absave:"7"`
	U64     uint64        `absave:"8"`
	Int     int           `absave:"9"`
	Uint    uint          `absave:"10"`
	F32     float32       `absave:"11"`
	F64     float64       `absave:"12"`
	Char    Char          `absave:"13"`
	Dec     Decimal       `absave:"14"`
	Text    string        `absave:"15"`
	ID      uuid.UUID     `absave:"16"`
	When    time.Time     `absave:"17"`
	Elapsed time.Duration `absave:"18"`
	Ver     Version       `absave:"19"`
}

func sampleScalars() scalars {
	return scalars{
		Flag: true, I8: -8, U8: 200, I16: -1600, U16: 60000,
		I32: math.MinInt32, U32: math.MaxUint32, I64: math.MinInt64, U64: math.MaxUint64,
		Int: -42, Uint: 42, F32: 3.5, F64: -1e300, Char: 'é',
		Dec:     NewDecimal(12345, 0, 0, 2, true),
		Text:    "héllo wörld",
		ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		When:    time.Date(2024, 5, 6, 7, 8, 9, 123456700, time.UTC),
		Elapsed: -90 * time.Second,
		Ver:     Version{Major: 3, Build: 7},
	}
}

func TestScalarRoundTrip(t *testing.T) {
	configs := map[string][]Option{
		"default":    nil,
		"compressed": {WithCompressPrimitives(true)},
		"big endian": {WithLittleEndian(false)},
		"utf16":      {WithUTF8(false)},
		"lazy":       {WithLazyCompressedWriting(true), WithCompressPrimitives(true)},
	}
	for name, opts := range configs {
		t.Run(name, func(t *testing.T) {
			a := New(opts...)
			in := sampleScalars()
			data, err := a.Marshal(in)
			require.NoError(t, err)
			out, err := Decode[scalars](a, data)
			require.NoError(t, err)
			assert.True(t, in.When.Equal(out.When))
			in.When, out.When = time.Time{}, time.Time{}
			assert.Equal(t, in, out)
		})
	}
}

func TestCompressedInt16Overflow(t *testing.T) {
	a := New(WithCompressPrimitives(true))
	data, err := a.Marshal(int32(math.MaxInt16 + 1))
	require.NoError(t, err)
	_, err = Decode[int16](a, data)
	require.Error(t, err)
}

func TestTicks(t *testing.T) {
	assert.Equal(t, uint64(0), Ticks(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, uint64(621355968000000000), Ticks(time.Unix(0, 0)))
	when := time.Date(1999, 12, 31, 23, 59, 59, 999999900, time.UTC)
	assert.True(t, when.Equal(TimeFromTicks(Ticks(when))))
	assert.Equal(t, time.UTC, TimeFromTicks(0).Location())
}

func TestTextShapes(t *testing.T) {
	for _, utf8 := range []bool{true, false} {
		a := New(WithUTF8(utf8))

		data, err := a.Marshal("a€𝄞")
		require.NoError(t, err)
		s, err := Decode[string](a, data)
		require.NoError(t, err)
		assert.Equal(t, "a€𝄞", s)

		chars := []Char{'h', 'i', 0xD834, 0xDD1E}
		data, err = a.Marshal(chars)
		require.NoError(t, err)
		gotChars, err := Decode[[]Char](a, data)
		require.NoError(t, err)
		assert.Equal(t, chars, gotChars)

		b := &strings.Builder{}
		b.WriteString("built")
		data, err = a.Marshal(b)
		require.NoError(t, err)
		gotBuilder, err := Decode[*strings.Builder](a, data)
		require.NoError(t, err)
		assert.Equal(t, "built", gotBuilder.String())
	}
}

func TestTextEncodings(t *testing.T) {
	utf8 := New(WithLittleEndian(true))
	data, err := utf8.Marshal("é")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xC1, 0xC3, 0xA9}, data)

	utf16 := New(WithLittleEndian(true), WithUTF8(false))
	data, err = utf16.Marshal("é")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xC1, 0xE9, 0x00}, data)
}

func TestUTF8LengthCountsCharacters(t *testing.T) {
	a := New(WithLittleEndian(true))
	cases := []struct {
		in   string
		want []byte
	}{
		{"abc", []byte{0x01, 0xC3, 'a', 'b', 'c'}},
		{"é", []byte{0x01, 0xC1, 0xC3, 0xA9}},
		{"\U0001F600", []byte{0x01, 0xC2, 0xF0, 0x9F, 0x98, 0x80}},
		{"aé\U0001F600", []byte{0x01, 0xC4, 'a', 0xC3, 0xA9, 0xF0, 0x9F, 0x98, 0x80}},
		{"", []byte{0x01, 0xC0}},
	}
	for _, tc := range cases {
		data, err := a.Marshal(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, data, tc.in)
		out, err := Decode[string](a, data)
		require.NoError(t, err)
		assert.Equal(t, tc.in, out)
	}

	_, err := Decode[string](a, []byte{0x01, 0xC2, 0xF0, 0x9F, 0x98})
	assert.Equal(t, ErrKindBufferOutOfBound, kindOf(err))

	_, err = Decode[string](a, []byte{0x01, 0xC1, 0xF0, 0x9F, 0x98, 0x80})
	assert.Equal(t, ErrKindInvalidData, kindOf(err))

	_, err = Decode[string](New(WithMaxBinarySize(3)), []byte{0x01, 0xC2, 0xF0, 0x9F, 0x98, 0x80})
	assert.Equal(t, ErrKindMaxBinarySizeExceeded, kindOf(err))
}

func TestTextLengthLimits(t *testing.T) {
	a := New(WithLittleEndian(true))
	data, err := a.Marshal(strings.Repeat("x", 100))
	require.NoError(t, err)

	_, err = Decode[string](New(WithMaxBinarySize(50)), data)
	require.Error(t, err)

	_, err = Decode[string](a, data[:20])
	assert.Equal(t, ErrKindBufferOutOfBound, kindOf(err))
}

func TestVersionValue(t *testing.T) {
	v, err := ParseVersion("2.1.0.9")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 2, Minor: 1, Revision: 9}, v)
	assert.Equal(t, "2.1.0.9", v.String())

	v, err = ParseVersion("4")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 4}, v)

	_, err = ParseVersion("1.x")
	require.Error(t, err)
	_, err = ParseVersion("1.2.3.4.5")
	require.Error(t, err)

	a := New()
	for _, in := range []Version{
		{Major: 1}, {Major: 0}, {Major: 1, Minor: 2}, {Major: 1, Build: 3},
		{Major: 1, Revision: 4}, {Major: 9, Minor: 8, Build: 7, Revision: 6},
	} {
		data, err := a.Marshal(in)
		require.NoError(t, err)
		out, err := Decode[Version](a, data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

type withOptional struct {
	Count optional.Optional[int32]  `absave:"0"`
	Name  optional.Optional[string] `absave:"1"`
}

func TestOptional(t *testing.T) {
	a := New(WithLittleEndian(true))

	data, err := a.Marshal(withOptional{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, data)

	in := withOptional{Count: optional.Some[int32](5), Name: optional.Some("n")}
	data, err = a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[withOptional](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	in = withOptional{Name: optional.Some("")}
	data, err = a.Marshal(in)
	require.NoError(t, err)
	out, err = Decode[withOptional](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPair(t *testing.T) {
	a := New()
	in := NewPair("k", []int32{1, 2})
	data, err := a.Marshal(in)
	require.NoError(t, err)
	out, err := Decode[Pair[string, []int32]](a, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.True(t, isPairType(reflect.TypeOf(in)))
	assert.False(t, isPairType(reflect.TypeOf(pair{})))
}
