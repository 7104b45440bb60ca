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

// BitWriter appends the wire format to an in-memory buffer.
//
// Small flags are packed into "header" bytes. The first bit written reserves
// a header byte in the buffer; bits fill it from the most significant bit
// down. The header closes when all eight bits are used, when FinishHeader is
// called, or when any byte-level value is written. Unused bits stay zero.
// While no byte-level write intervenes, bits from consecutive items share
// the same header byte.
//
// Compressed integers are little-endian base-128: 7 value bits per byte,
// least significant group first, high bit set when another byte follows. In
// exact mode an open header with at least two spare bits carries the first
// group: one continuation bit, then the low (spare-1) value bits. In lazy
// mode the header is always closed before the first byte.
type BitWriter struct {
	buf    []byte
	order  byteOrder
	little bool
	lazy   bool
	hdrPos int
	free   uint8
}

// NewBitWriter creates a writer using the given target byte order and
// compressed-int packing mode.
func NewBitWriter(littleEndian, lazy bool) *BitWriter {
	w := &BitWriter{}
	w.configure(littleEndian, lazy)
	return w
}

func (w *BitWriter) configure(littleEndian, lazy bool) {
	w.little = littleEndian
	w.order = orderFor(littleEndian)
	w.lazy = lazy
}

// Reset empties the buffer, keeping its capacity and configuration.
func (w *BitWriter) Reset() {
	w.buf = w.buf[:0]
	w.free = 0
	w.hdrPos = 0
}

// Bytes returns the written bytes. An open header is already part of them.
func (w *BitWriter) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *BitWriter) Len() int {
	return len(w.buf)
}

// LittleEndian reports the target byte order.
func (w *BitWriter) LittleEndian() bool {
	return w.little
}

// FreeBits returns how many bits remain in the open header, 0 when none is
// open.
func (w *BitWriter) FreeBits() int {
	return int(w.free)
}

// ============================================================================
// Header bits
// ============================================================================

func (w *BitWriter) WriteBitOn() {
	w.WriteBitWith(true)
}

func (w *BitWriter) WriteBitOff() {
	w.WriteBitWith(false)
}

func (w *BitWriter) WriteBitWith(on bool) {
	if w.free == 0 {
		w.hdrPos = len(w.buf)
		w.buf = append(w.buf, 0)
		w.free = 8
	}
	w.free--
	if on {
		w.buf[w.hdrPos] |= 1 << w.free
	}
}

// WriteInteger writes the bitCount least significant bits of value, most
// significant of those first.
func (w *BitWriter) WriteInteger(value uint32, bitCount int) {
	for i := bitCount - 1; i >= 0; i-- {
		w.WriteBitWith(value>>uint(i)&1 == 1)
	}
}

// FinishHeader closes the open header. Later bits go to a fresh byte.
func (w *BitWriter) FinishHeader() {
	w.free = 0
}

// ============================================================================
// Byte-level values
// ============================================================================

func (w *BitWriter) WriteUint8(v uint8) {
	w.free = 0
	w.buf = append(w.buf, v)
}

func (w *BitWriter) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

func (w *BitWriter) WriteBytes(p []byte) {
	w.free = 0
	w.buf = append(w.buf, p...)
}

func (w *BitWriter) WriteUint16(v uint16) {
	w.free = 0
	w.buf = w.order.AppendUint16(w.buf, v)
}

func (w *BitWriter) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *BitWriter) WriteUint32(v uint32) {
	w.free = 0
	w.buf = w.order.AppendUint32(w.buf, v)
}

func (w *BitWriter) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *BitWriter) WriteUint64(v uint64) {
	w.free = 0
	w.buf = w.order.AppendUint64(w.buf, v)
}

func (w *BitWriter) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

func (w *BitWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *BitWriter) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteDecimal writes the four 32-bit words Lo, Mid, Hi, Flags.
func (w *BitWriter) WriteDecimal(d Decimal) {
	w.WriteUint32(d.Lo)
	w.WriteUint32(d.Mid)
	w.WriteUint32(d.Hi)
	w.WriteUint32(d.Flags)
}

// ============================================================================
// Compressed integers
// ============================================================================

func (w *BitWriter) WriteCompressedUint32(v uint32) {
	w.WriteCompressedUint64(uint64(v))
}

func (w *BitWriter) WriteCompressedUint64(v uint64) {
	if !w.lazy && w.free >= 2 {
		valueBits := int(w.free) - 1
		low := uint32(v & (1<<uint(valueBits) - 1))
		v >>= uint(valueBits)
		w.WriteBitWith(v != 0)
		w.WriteInteger(low, valueBits)
		if v == 0 {
			return
		}
	}
	w.free = 0
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// WriteCompressedInt64 zig-zag maps v and writes it compressed.
func (w *BitWriter) WriteCompressedInt64(v int64) {
	w.WriteCompressedUint64(zigzag64(v))
}

func (w *BitWriter) WriteCompressedInt32(v int32) {
	w.WriteCompressedUint32(zigzag32(v))
}

// WriteLength writes a non-negative count as a compressed integer.
func (w *BitWriter) WriteLength(n int) {
	w.WriteCompressedUint32(uint32(n))
}
