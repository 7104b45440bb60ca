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
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Version is a four part version number. The zero-cost encoding assumes
// most versions are 1.0.0.0.
type Version struct {
	Major    uint32
	Minor    uint32
	Build    uint32
	Revision uint32
}

// DefaultVersion is written as a single header of zero bits.
var DefaultVersion = Version{Major: 1}

// ParseVersion parses "major[.minor[.build[.revision]]]".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 4 || s == "" {
		return Version{}, newError(ErrKindInvalidArgument, "malformed version %q", s).asError()
	}
	var nums [4]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, newError(ErrKindInvalidArgument, "malformed version %q: %v", s, err).asError()
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

type versionConverter struct{}

func (versionConverter) Serialize(s *Serializer, v reflect.Value) {
	s.writeVersion(v.Interface().(Version))
}

func (versionConverter) Deserialize(d *Deserializer, v reflect.Value) {
	ver := d.readVersion()
	if !d.HasError() {
		v.Set(reflect.ValueOf(ver))
	}
}

func (s *Serializer) writeVersion(v Version) {
	hasMajor := v.Major != 1
	s.WriteBitWith(hasMajor)
	s.WriteBitWith(v.Minor > 0)
	s.WriteBitWith(v.Build > 0)
	s.WriteBitWith(v.Revision > 0)
	if hasMajor {
		s.WriteCompressedUint32(v.Major)
	}
	if v.Minor > 0 {
		s.WriteCompressedUint32(v.Minor)
	}
	if v.Build > 0 {
		s.WriteCompressedUint32(v.Build)
	}
	if v.Revision > 0 {
		s.WriteCompressedUint32(v.Revision)
	}
}

func (d *Deserializer) readVersion() Version {
	hasMajor := d.ReadBit()
	hasMinor := d.ReadBit()
	hasBuild := d.ReadBit()
	hasRevision := d.ReadBit()
	v := DefaultVersion
	if hasMajor {
		v.Major = d.ReadCompressedUint32()
	}
	if hasMinor {
		v.Minor = d.ReadCompressedUint32()
	}
	if hasBuild {
		v.Build = d.ReadCompressedUint32()
	}
	if hasRevision {
		v.Revision = d.ReadCompressedUint32()
	}
	return v
}
