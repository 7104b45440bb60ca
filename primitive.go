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
)

// Char is a UTF-16 code unit. []Char is encoded as text.
type Char uint16

// Decimal is a 128-bit decimal floating point number in the layout of four
// 32-bit words: a 96-bit unsigned integer (Lo, Mid, Hi) and Flags, which
// holds the scale in bits 16-23 and the sign in bit 31.
type Decimal struct {
	Lo, Mid, Hi uint32
	Flags       uint32
}

const (
	decimalScaleShift = 16
	decimalSignMask   = 1 << 31
)

// NewDecimal builds a Decimal from its 96-bit magnitude, scale (0-28) and
// sign.
func NewDecimal(lo, mid, hi uint32, scale uint8, negative bool) Decimal {
	flags := uint32(scale) << decimalScaleShift
	if negative {
		flags |= decimalSignMask
	}
	return Decimal{Lo: lo, Mid: mid, Hi: hi, Flags: flags}
}

// Scale returns the power of ten the magnitude is divided by.
func (d Decimal) Scale() uint8 {
	return uint8(d.Flags >> decimalScaleShift)
}

// Negative reports the sign bit.
func (d Decimal) Negative() bool {
	return d.Flags&decimalSignMask != 0
}

// primitiveConverter handles booleans and fixed-width numbers by kind, so
// it serves named types such as enums as well.
type primitiveConverter struct {
	kind reflect.Kind
}

func newPrimitiveConverter(t reflect.Type) Converter {
	return primitiveConverter{kind: t.Kind()}
}

// isPrimitiveKind matches named types whose underlying type is a primitive
// or a string.
func isPrimitiveKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	default:
		return false
	}
}

func newKindConverter(t reflect.Type) Converter {
	if t.Kind() == reflect.String {
		return newTextConverter(t)
	}
	return newPrimitiveConverter(t)
}

func (c primitiveConverter) Serialize(s *Serializer, v reflect.Value) {
	compress := s.settings.CompressPrimitives
	switch c.kind {
	case reflect.Bool:
		s.WriteBitWith(v.Bool())
	case reflect.Int8:
		s.WriteInt8(int8(v.Int()))
	case reflect.Uint8:
		s.WriteUint8(uint8(v.Uint()))
	case reflect.Int16:
		if compress {
			s.WriteCompressedInt32(int32(v.Int()))
		} else {
			s.WriteInt16(int16(v.Int()))
		}
	case reflect.Uint16:
		if compress {
			s.WriteCompressedUint32(uint32(v.Uint()))
		} else {
			s.WriteUint16(uint16(v.Uint()))
		}
	case reflect.Int32:
		if compress {
			s.WriteCompressedInt32(int32(v.Int()))
		} else {
			s.WriteInt32(int32(v.Int()))
		}
	case reflect.Uint32:
		if compress {
			s.WriteCompressedUint32(uint32(v.Uint()))
		} else {
			s.WriteUint32(uint32(v.Uint()))
		}
	case reflect.Int64, reflect.Int:
		if compress {
			s.WriteCompressedInt64(v.Int())
		} else {
			s.WriteInt64(v.Int())
		}
	case reflect.Uint64, reflect.Uint:
		if compress {
			s.WriteCompressedUint64(v.Uint())
		} else {
			s.WriteUint64(v.Uint())
		}
	case reflect.Float32:
		s.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		s.WriteFloat64(v.Float())
	}
}

func (c primitiveConverter) Deserialize(d *Deserializer, v reflect.Value) {
	compress := d.settings.CompressPrimitives
	switch c.kind {
	case reflect.Bool:
		v.SetBool(d.ReadBit())
	case reflect.Int8:
		v.SetInt(int64(d.ReadInt8()))
	case reflect.Uint8:
		v.SetUint(uint64(d.ReadUint8()))
	case reflect.Int16:
		if compress {
			n := d.ReadCompressedInt32()
			if n < math.MinInt16 || n > math.MaxInt16 {
				d.SetError(newError(ErrKindInvalidData, "compressed value %d overflows int16", n))
				return
			}
			v.SetInt(int64(n))
		} else {
			v.SetInt(int64(d.ReadInt16()))
		}
	case reflect.Uint16:
		if compress {
			n := d.ReadCompressedUint32()
			if n > math.MaxUint16 {
				d.SetError(newError(ErrKindInvalidData, "compressed value %d overflows uint16", n))
				return
			}
			v.SetUint(uint64(n))
		} else {
			v.SetUint(uint64(d.ReadUint16()))
		}
	case reflect.Int32:
		if compress {
			v.SetInt(int64(d.ReadCompressedInt32()))
		} else {
			v.SetInt(int64(d.ReadInt32()))
		}
	case reflect.Uint32:
		if compress {
			v.SetUint(uint64(d.ReadCompressedUint32()))
		} else {
			v.SetUint(uint64(d.ReadUint32()))
		}
	case reflect.Int64, reflect.Int:
		if compress {
			v.SetInt(d.ReadCompressedInt64())
		} else {
			v.SetInt(d.ReadInt64())
		}
	case reflect.Uint64, reflect.Uint:
		if compress {
			v.SetUint(d.ReadCompressedUint64())
		} else {
			v.SetUint(d.ReadUint64())
		}
	case reflect.Float32:
		v.SetFloat(float64(d.ReadFloat32()))
	case reflect.Float64:
		v.SetFloat(d.ReadFloat64())
	}
}

type decimalConverter struct{}

func (decimalConverter) Serialize(s *Serializer, v reflect.Value) {
	s.WriteDecimal(v.Interface().(Decimal))
}

func (decimalConverter) Deserialize(d *Deserializer, v reflect.Value) {
	v.Set(reflect.ValueOf(d.ReadDecimal()))
}
