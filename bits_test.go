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
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderBitsRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 16, 17} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			bits := make([]bool, n)
			for i := range bits {
				bits[i] = i%3 == 0 || i%5 == 1
			}
			w := NewBitWriter(true, false)
			for _, b := range bits {
				w.WriteBitWith(b)
			}
			w.FinishHeader()
			assert.Equal(t, (n+7)/8, w.Len())

			r := NewBitReader(w.Bytes(), true, false)
			for i, want := range bits {
				assert.Equal(t, want, r.ReadBit(), "bit %d", i)
			}
			require.False(t, r.HasError())
		})
	}
}

func TestHeaderBitsFillMostSignificantFirst(t *testing.T) {
	w := NewBitWriter(true, false)
	w.WriteBitOn()
	w.WriteBitOff()
	w.WriteBitOn()
	w.WriteInteger(0b11, 2)
	assert.Equal(t, []byte{0b10111000}, w.Bytes())
	assert.Equal(t, 3, w.FreeBits())
}

func TestByteWriteClosesHeader(t *testing.T) {
	w := NewBitWriter(true, false)
	w.WriteBitOn()
	w.WriteUint8(0x7F)
	w.WriteBitOn()
	assert.Equal(t, []byte{0x80, 0x7F, 0x80}, w.Bytes())

	r := NewBitReader(w.Bytes(), true, false)
	assert.True(t, r.ReadBit())
	assert.Equal(t, uint8(0x7F), r.ReadUint8())
	assert.True(t, r.ReadBit())
	assert.False(t, r.HasError())
}

func TestFinishHeaderStartsFreshByte(t *testing.T) {
	w := NewBitWriter(true, false)
	w.WriteBitOn()
	w.FinishHeader()
	w.WriteBitOn()
	assert.Equal(t, []byte{0x80, 0x80}, w.Bytes())

	r := NewBitReader(w.Bytes(), true, false)
	assert.True(t, r.ReadBit())
	r.FinishHeader()
	assert.True(t, r.ReadBit())
	assert.Equal(t, 0, r.Remaining())
}

func TestFixedWidthByteOrder(t *testing.T) {
	little := NewBitWriter(true, false)
	little.WriteUint32(0x01020304)
	assert.Equal(t, []byte{4, 3, 2, 1}, little.Bytes())

	big := NewBitWriter(false, false)
	big.WriteUint32(0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, big.Bytes())

	r := NewBitReader(big.Bytes(), false, false)
	assert.Equal(t, uint32(0x01020304), r.ReadUint32())
}

func TestFixedWidthRoundTrip(t *testing.T) {
	w := NewBitWriter(false, false)
	w.WriteInt8(-3)
	w.WriteInt16(-300)
	w.WriteUint16(65000)
	w.WriteInt32(math.MinInt32)
	w.WriteInt64(math.MaxInt64)
	w.WriteUint64(math.MaxUint64)
	w.WriteFloat32(1.5)
	w.WriteFloat64(-2.25)
	w.WriteDecimal(NewDecimal(1, 2, 3, 4, true))

	r := NewBitReader(w.Bytes(), false, false)
	assert.Equal(t, int8(-3), r.ReadInt8())
	assert.Equal(t, int16(-300), r.ReadInt16())
	assert.Equal(t, uint16(65000), r.ReadUint16())
	assert.Equal(t, int32(math.MinInt32), r.ReadInt32())
	assert.Equal(t, int64(math.MaxInt64), r.ReadInt64())
	assert.Equal(t, uint64(math.MaxUint64), r.ReadUint64())
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	assert.Equal(t, -2.25, r.ReadFloat64())
	d := r.ReadDecimal()
	assert.Equal(t, NewDecimal(1, 2, 3, 4, true), d)
	assert.Equal(t, uint8(4), d.Scale())
	assert.True(t, d.Negative())
	require.False(t, r.HasError())
}

var compressedBoundaries = []uint64{
	0, 1, 0x3F, 0x40, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000,
	0xFFFFFFF, 0x10000000, math.MaxUint32, 1 << 35, 1<<49 - 1, 1 << 56, 1<<63 - 1, math.MaxUint64,
}

func TestCompressedRoundTrip(t *testing.T) {
	for _, lazy := range []bool{false, true} {
		for _, prefix := range []int{0, 1, 3, 6, 7} {
			for _, v := range compressedBoundaries {
				w := NewBitWriter(true, lazy)
				for i := 0; i < prefix; i++ {
					w.WriteBitOn()
				}
				w.WriteCompressedUint64(v)
				w.WriteBitOn()
				w.FinishHeader()

				r := NewBitReader(w.Bytes(), true, lazy)
				for i := 0; i < prefix; i++ {
					require.True(t, r.ReadBit())
				}
				require.Equal(t, v, r.ReadCompressedUint64(), "lazy=%t prefix=%d", lazy, prefix)
				require.True(t, r.ReadBit())
				require.False(t, r.HasError())
			}
		}
	}
}

func TestCompressedSigned(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -64, 63, math.MinInt64, math.MaxInt64} {
		w := NewBitWriter(true, false)
		w.WriteCompressedInt64(v)
		r := NewBitReader(w.Bytes(), true, false)
		assert.Equal(t, v, r.ReadCompressedInt64())
	}
	for _, v := range []int32{0, -1, math.MinInt32, math.MaxInt32} {
		w := NewBitWriter(true, false)
		w.WriteCompressedInt32(v)
		r := NewBitReader(w.Bytes(), true, false)
		assert.Equal(t, v, r.ReadCompressedInt32())
	}
}

func TestCompressedPacking(t *testing.T) {
	t.Run("exact mode shares the header", func(t *testing.T) {
		w := NewBitWriter(true, false)
		w.WriteBitOn()
		w.WriteCompressedUint32(3)
		assert.Equal(t, []byte{0x83}, w.Bytes())

		w.Reset()
		w.WriteBitOn()
		w.WriteCompressedUint32(300)
		assert.Equal(t, []byte{0xEC, 0x04}, w.Bytes())
	})
	t.Run("lazy mode closes the header", func(t *testing.T) {
		w := NewBitWriter(true, true)
		w.WriteBitOn()
		w.WriteCompressedUint32(3)
		assert.Equal(t, []byte{0x80, 0x03}, w.Bytes())
	})
	t.Run("no header", func(t *testing.T) {
		w := NewBitWriter(true, false)
		w.WriteCompressedUint32(300)
		assert.Equal(t, []byte{0xAC, 0x02}, w.Bytes())
	})
}

func TestCompressedCorruption(t *testing.T) {
	t.Run("too many groups", func(t *testing.T) {
		data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
		r := NewBitReader(data, true, true)
		assert.Equal(t, uint64(0), r.ReadCompressedUint64())
		var e *Error
		require.True(t, errors.As(r.Err(), &e))
		assert.Equal(t, ErrKindCorruptCompressedInt, e.Kind())
	})
	t.Run("overflowing last group", func(t *testing.T) {
		data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02}
		r := NewBitReader(data, true, true)
		r.ReadCompressedUint64()
		require.Error(t, r.Err())
	})
	t.Run("value wider than 32 bits", func(t *testing.T) {
		w := NewBitWriter(true, true)
		w.WriteCompressedUint64(1 << 40)
		r := NewBitReader(w.Bytes(), true, true)
		r.ReadCompressedUint32()
		require.Error(t, r.Err())
	})
}

func TestReaderTruncatedInput(t *testing.T) {
	r := NewBitReader([]byte{1, 2}, true, false)
	assert.Equal(t, uint32(0), r.ReadUint32())
	var e *Error
	require.True(t, errors.As(r.Err(), &e))
	assert.Equal(t, ErrKindBufferOutOfBound, e.Kind())
	assert.Equal(t, uint8(0), r.ReadUint8())
	assert.False(t, r.ReadBit())
}

func TestReadLengthLimit(t *testing.T) {
	w := NewBitWriter(true, false)
	w.WriteLength(10)
	r := NewBitReader(w.Bytes(), true, false)
	assert.Equal(t, 0, r.ReadLength(5))
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "exceeds limit")
}
