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
)

// BitReader consumes data produced by BitWriter, mirroring its header and
// compressed-int rules. It never panics on short input: the first failure
// is recorded and every later read returns a zero value.
type BitReader struct {
	data   []byte
	pos    int
	order  byteOrder
	little bool
	lazy   bool
	hdr    byte
	left   uint8
	err    Error
}

// NewBitReader creates a reader over data.
func NewBitReader(data []byte, littleEndian, lazy bool) *BitReader {
	r := &BitReader{data: data}
	r.configure(littleEndian, lazy)
	return r
}

func (r *BitReader) configure(littleEndian, lazy bool) {
	r.little = littleEndian
	r.order = orderFor(littleEndian)
	r.lazy = lazy
}

// LittleEndian reports the byte order fixed-width values are read in.
func (r *BitReader) LittleEndian() bool {
	return r.little
}

func (r *BitReader) reset(data []byte) {
	r.data = data
	r.pos = 0
	r.left = 0
	r.hdr = 0
	r.err = Error{}
}

// SetError records err unless a failure is already recorded.
func (r *BitReader) SetError(err Error) {
	if !r.err.HasError() {
		r.err = err
	}
}

// HasError reports whether a failure was recorded.
func (r *BitReader) HasError() bool {
	return r.err.HasError()
}

// Err returns the recorded failure, or nil.
func (r *BitReader) Err() error {
	return r.err.asError()
}

// Position returns the offset of the next unread byte.
func (r *BitReader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *BitReader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *BitReader) need(n int) bool {
	if r.err.HasError() {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.SetError(bufferOutOfBoundError(r.pos, n, len(r.data)))
		r.pos = len(r.data)
		return false
	}
	return true
}

// ============================================================================
// Header bits
// ============================================================================

func (r *BitReader) ReadBit() bool {
	if r.left == 0 {
		if !r.need(1) {
			return false
		}
		r.hdr = r.data[r.pos]
		r.pos++
		r.left = 8
	}
	r.left--
	return r.hdr>>r.left&1 == 1
}

// ReadInteger reads bitCount bits written by WriteInteger.
func (r *BitReader) ReadInteger(bitCount int) uint32 {
	var v uint32
	for i := 0; i < bitCount; i++ {
		v <<= 1
		if r.ReadBit() {
			v |= 1
		}
	}
	return v
}

// FinishHeader discards the unread bits of the current header.
func (r *BitReader) FinishHeader() {
	r.left = 0
}

// ============================================================================
// Byte-level values
// ============================================================================

func (r *BitReader) ReadUint8() uint8 {
	r.left = 0
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *BitReader) ReadInt8() int8 {
	return int8(r.ReadUint8())
}

// ReadBytes returns the next n bytes. The result aliases the input.
func (r *BitReader) ReadBytes(n int) []byte {
	r.left = 0
	if !r.need(n) {
		return nil
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *BitReader) ReadUint16() uint16 {
	r.left = 0
	if !r.need(2) {
		return 0
	}
	v := r.order.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *BitReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

func (r *BitReader) ReadUint32() uint32 {
	r.left = 0
	if !r.need(4) {
		return 0
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *BitReader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

func (r *BitReader) ReadUint64() uint64 {
	r.left = 0
	if !r.need(8) {
		return 0
	}
	v := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *BitReader) ReadInt64() int64 {
	return int64(r.ReadUint64())
}

func (r *BitReader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

func (r *BitReader) ReadFloat64() float64 {
	return math.Float64frombits(r.ReadUint64())
}

func (r *BitReader) ReadDecimal() Decimal {
	return Decimal{
		Lo:    r.ReadUint32(),
		Mid:   r.ReadUint32(),
		Hi:    r.ReadUint32(),
		Flags: r.ReadUint32(),
	}
}

// ============================================================================
// Compressed integers
// ============================================================================

func (r *BitReader) ReadCompressedUint64() uint64 {
	var v uint64
	var shift uint
	if !r.lazy && r.left >= 2 {
		more := r.ReadBit()
		bits := int(r.left)
		v = uint64(r.ReadInteger(bits))
		if !more {
			return v
		}
		shift = uint(bits)
	}
	r.left = 0
	for {
		if shift >= 64 {
			r.SetError(newError(ErrKindCorruptCompressedInt, "compressed integer longer than 64 bits at offset %d", r.pos))
			return 0
		}
		b := r.ReadUint8()
		if r.err.HasError() {
			return 0
		}
		group := uint64(b & 0x7F)
		if shift > 57 && group>>(64-shift) != 0 {
			r.SetError(newError(ErrKindCorruptCompressedInt, "compressed integer overflows 64 bits at offset %d", r.pos-1))
			return 0
		}
		v |= group << shift
		if b&0x80 == 0 {
			return v
		}
		shift += 7
	}
}

func (r *BitReader) ReadCompressedUint32() uint32 {
	v := r.ReadCompressedUint64()
	if v > math.MaxUint32 {
		r.SetError(newError(ErrKindCorruptCompressedInt, "compressed integer %d overflows 32 bits", v))
		return 0
	}
	return uint32(v)
}

func (r *BitReader) ReadCompressedInt64() int64 {
	return unzigzag64(r.ReadCompressedUint64())
}

func (r *BitReader) ReadCompressedInt32() int32 {
	return unzigzag32(r.ReadCompressedUint32())
}

// ReadLength reads a count written by WriteLength and checks it against
// limit when limit is positive.
func (r *BitReader) ReadLength(limit int) int {
	n := r.ReadCompressedUint32()
	if n > math.MaxInt32 {
		r.SetError(newError(ErrKindInvalidData, "length %d is negative or too large", n))
		return 0
	}
	if limit > 0 && int(n) > limit {
		r.SetError(collectionSizeError(int(n), limit))
		return 0
	}
	return int(n)
}
