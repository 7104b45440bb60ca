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
	"reflect"
	"strings"
	"unicode/utf16"
	"unsafe"
)

type textShape uint8

const (
	textString textShape = iota
	textBuilder
	textChars
)

// textConverter writes strings, string builders and UTF-16 character
// slices through the same length-prefixed text encoding.
type textConverter struct {
	shape textShape
}

func newTextConverter(t reflect.Type) Converter {
	switch {
	case t == builderType:
		return textConverter{shape: textBuilder}
	case t.Kind() == reflect.Slice && t.Elem() == charType:
		return textConverter{shape: textChars}
	default:
		return textConverter{shape: textString}
	}
}

func (c textConverter) Serialize(s *Serializer, v reflect.Value) {
	switch c.shape {
	case textBuilder:
		s.WriteText(v.Interface().(*strings.Builder).String())
	case textChars:
		chars := v.Interface().([]Char)
		if s.settings.UseUTF8 {
			s.WriteText(string(utf16.Decode(charUnits(chars))))
			return
		}
		s.writeUnits(charUnits(chars))
	default:
		s.WriteText(v.String())
	}
}

func (c textConverter) Deserialize(d *Deserializer, v reflect.Value) {
	switch c.shape {
	case textBuilder:
		b := &strings.Builder{}
		b.WriteString(d.ReadText())
		if !d.HasError() {
			v.Set(reflect.ValueOf(b))
		}
	case textChars:
		var units []uint16
		if d.settings.UseUTF8 {
			units = utf16.Encode([]rune(d.ReadText()))
		} else {
			units = d.readUnits()
		}
		if d.HasError() {
			return
		}
		chars := make([]Char, len(units))
		copy(charUnits(chars), units)
		v.Set(reflect.ValueOf(chars))
	default:
		str := d.ReadText()
		if !d.HasError() {
			v.SetString(str)
		}
	}
}

func charUnits(chars []Char) []uint16 {
	if len(chars) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&chars[0])), len(chars))
}
