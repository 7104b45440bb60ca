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
	"encoding/binary"
	"unsafe"
)

// byteOrder is what the bit writer and reader need from an endianness.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var nativeLittleEndian = isLittleEndian()

func isLittleEndian() bool {
	var probe uint16 = 0x0102
	return *(*byte)(unsafe.Pointer(&probe)) == 0x02
}

// IsNativeLittleEndian reports the byte order of the running machine.
func IsNativeLittleEndian() bool {
	return nativeLittleEndian
}

func orderFor(littleEndian bool) byteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// zig-zag mapping keeps small negative numbers small once compressed.
func zigzag64(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func zigzag32(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

func unzigzag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}
