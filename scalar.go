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
	"time"

	"github.com/google/uuid"
)

type guidConverter struct{}

func (guidConverter) Serialize(s *Serializer, v reflect.Value) {
	id := v.Interface().(uuid.UUID)
	s.WriteBytes(id[:])
}

func (guidConverter) Deserialize(d *Deserializer, v reflect.Value) {
	var id uuid.UUID
	copy(id[:], d.ReadBytes(len(id)))
	if !d.HasError() {
		v.Set(reflect.ValueOf(id))
	}
}

const (
	// seconds between 0001-01-01 and the Unix epoch
	unixEpochSeconds = 62135596800
	ticksPerSecond   = 10_000_000
	nanosPerTick     = 100
)

// Ticks returns t as the number of 100ns intervals since 0001-01-01 UTC.
// Times before that instant are not representable.
func Ticks(t time.Time) uint64 {
	t = t.UTC()
	sec := t.Unix() + unixEpochSeconds
	return uint64(sec)*ticksPerSecond + uint64(t.Nanosecond()/nanosPerTick)
}

// TimeFromTicks is the inverse of Ticks and returns a UTC time.
func TimeFromTicks(ticks uint64) time.Time {
	sec := int64(ticks/ticksPerSecond) - unixEpochSeconds
	nsec := int64(ticks%ticksPerSecond) * nanosPerTick
	return time.Unix(sec, nsec).UTC()
}

// tickConverter writes time.Time as ticks and time.Duration as
// nanoseconds.
type tickConverter struct {
	duration bool
}

func newTickConverter(t reflect.Type) Converter {
	return tickConverter{duration: t == durationType}
}

func (c tickConverter) Serialize(s *Serializer, v reflect.Value) {
	var n uint64
	if c.duration {
		n = uint64(v.Int())
	} else {
		n = Ticks(v.Interface().(time.Time))
	}
	if s.settings.CompressPrimitives {
		s.WriteCompressedUint64(n)
	} else {
		s.WriteUint64(n)
	}
}

func (c tickConverter) Deserialize(d *Deserializer, v reflect.Value) {
	var n uint64
	if d.settings.CompressPrimitives {
		n = d.ReadCompressedUint64()
	} else {
		n = d.ReadUint64()
	}
	if d.HasError() {
		return
	}
	if c.duration {
		v.SetInt(int64(n))
		return
	}
	v.Set(reflect.ValueOf(TimeFromTicks(n)))
}
