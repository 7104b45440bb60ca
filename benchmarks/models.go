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

// Package benchmark holds the data sets absave is measured against
// msgpack with. The CLI compare command reuses them.
package benchmark

// NumericStruct is a simple struct with 8 int32 fields.
type NumericStruct struct {
	F1 int32 `msgpack:"1" absave:"0"`
	F2 int32 `msgpack:"2" absave:"1"`
	F3 int32 `msgpack:"3" absave:"2"`
	F4 int32 `msgpack:"4" absave:"3"`
	F5 int32 `msgpack:"5" absave:"4"`
	F6 int32 `msgpack:"6" absave:"5"`
	F7 int32 `msgpack:"7" absave:"6"`
	F8 int32 `msgpack:"8" absave:"7"`
}

// Sample is a struct with scalars of every width and arrays of them.
type Sample struct {
	IntValue     int32     `msgpack:"1" absave:"0"`
	LongValue    int64     `msgpack:"2" absave:"1"`
	FloatValue   float32   `msgpack:"3" absave:"2"`
	DoubleValue  float64   `msgpack:"4" absave:"3"`
	ShortValue   int16     `msgpack:"5" absave:"4"`
	CharValue    uint16    `msgpack:"6" absave:"5"`
	BooleanValue bool      `msgpack:"7" absave:"6"`
	ByteValue    uint8     `msgpack:"8" absave:"7"`
	IntArray     []int32   `msgpack:"9" absave:"8"`
	LongArray    []int64   `msgpack:"10" absave:"9"`
	FloatArray   []float32 `msgpack:"11" absave:"10"`
	DoubleArray  []float64 `msgpack:"12" absave:"11"`
	ShortArray   []int16   `msgpack:"13" absave:"12"`
	BooleanArray []bool    `msgpack:"14" absave:"13"`
	String       string    `msgpack:"15" absave:"14"`
}

// Player enum type
type Player int32

const (
	PlayerJava  Player = 0
	PlayerFlash Player = 1
)

// Size enum type
type Size int32

const (
	SizeSmall Size = 0
	SizeLarge Size = 1
)

// Media represents media metadata
type Media struct {
	URI        string   `msgpack:"1" absave:"0"`
	Title      string   `msgpack:"2" absave:"1"`
	Width      int32    `msgpack:"3" absave:"2"`
	Height     int32    `msgpack:"4" absave:"3"`
	Format     string   `msgpack:"5" absave:"4"`
	Duration   int64    `msgpack:"6" absave:"5"`
	Size       int64    `msgpack:"7" absave:"6"`
	Bitrate    int32    `msgpack:"8" absave:"7"`
	HasBitrate bool     `msgpack:"9" absave:"8"`
	Persons    []string `msgpack:"10" absave:"9"`
	Player     Player   `msgpack:"11" absave:"10"`
	Copyright  string   `msgpack:"12" absave:"11"`
}

// Image represents image metadata
type Image struct {
	URI    string `msgpack:"1" absave:"0"`
	Title  string `msgpack:"2" absave:"1"`
	Width  int32  `msgpack:"3" absave:"2"`
	Height int32  `msgpack:"4" absave:"3"`
	Size   Size   `msgpack:"5" absave:"4"`
}

// MediaContent contains media and images
type MediaContent struct {
	Media  Media   `msgpack:"1" absave:"0"`
	Images []Image `msgpack:"2" absave:"1"`
}

type StructList struct {
	StructList []NumericStruct `msgpack:"1" absave:"0"`
}

type SampleList struct {
	SampleList []Sample `msgpack:"1" absave:"0"`
}

type MediaContentList struct {
	MediaContentList []MediaContent `msgpack:"1" absave:"0"`
}

// CreateNumericStruct mixes small and large magnitudes of both signs.
func CreateNumericStruct() NumericStruct {
	return NumericStruct{
		F1: -12345,
		F2: 987654321,
		F3: -31415,
		F4: 27182818,
		F5: -32000,
		F6: 1000000,
		F7: -999999999,
		F8: 42,
	}
}

func CreateSample() Sample {
	return Sample{
		IntValue:     123,
		LongValue:    1230000,
		FloatValue:   12.345,
		DoubleValue:  1.234567,
		ShortValue:   12345,
		CharValue:    '!',
		BooleanValue: true,
		ByteValue:    0x7F,
		IntArray:     []int32{-1234, -123, -12, -1, 0, 1, 12, 123, 1234},
		LongArray:    []int64{-123400, -12300, -1200, -100, 0, 100, 1200, 12300, 123400},
		FloatArray:   []float32{-12.34, -12.3, -12.0, -1.0, 0.0, 1.0, 12.0, 12.3, 12.34},
		DoubleArray:  []float64{-1.234, -1.23, -12.0, -1.0, 0.0, 1.0, 12.0, 1.23, 1.234},
		ShortArray:   []int16{-1234, -123, -12, -1, 0, 1, 12, 123, 1234},
		BooleanArray: []bool{true, false, false, true},
		String:       "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
	}
}

func CreateMediaContent() MediaContent {
	return MediaContent{
		Media: Media{
			URI:        "http://javaone.com/keynote.ogg",
			Title:      "",
			Width:      641,
			Height:     481,
			Format:     "video/theora\u1234",
			Duration:   18000001,
			Size:       58982401,
			Bitrate:    0,
			HasBitrate: false,
			Persons:    []string{"Bill Gates, Jr.", "Steven Jobs"},
			Player:     PlayerFlash,
			Copyright:  "Copyright (c) 2009, Scooby Dooby Doo",
		},
		Images: []Image{
			{
				URI:    "http://javaone.com/keynote_huge.jpg",
				Title:  "Javaone Keynote\u1234",
				Width:  32000,
				Height: 24000,
				Size:   SizeLarge,
			},
			{
				URI:    "http://javaone.com/keynote_large.jpg",
				Width:  1024,
				Height: 768,
				Size:   SizeLarge,
			},
			{
				URI:    "http://javaone.com/keynote_small.jpg",
				Width:  320,
				Height: 240,
				Size:   SizeSmall,
			},
		},
	}
}

func CreateStructList() StructList {
	list := make([]NumericStruct, 20)
	for i := range list {
		list[i] = CreateNumericStruct()
	}
	return StructList{StructList: list}
}

func CreateSampleList() SampleList {
	list := make([]Sample, 20)
	for i := range list {
		list[i] = CreateSample()
	}
	return SampleList{SampleList: list}
}

func CreateMediaContentList() MediaContentList {
	list := make([]MediaContent, 20)
	for i := range list {
		list[i] = CreateMediaContent()
	}
	return MediaContentList{MediaContentList: list}
}

// Case is a named data set.
type Case struct {
	Name  string
	Value any
	// New returns a pointer to an empty value of the data set's type.
	New func() any
}

// Cases lists every data set in a fixed order.
func Cases() []Case {
	return []Case{
		{Name: "NumericStruct", Value: CreateNumericStruct(), New: func() any { return new(NumericStruct) }},
		{Name: "Sample", Value: CreateSample(), New: func() any { return new(Sample) }},
		{Name: "MediaContent", Value: CreateMediaContent(), New: func() any { return new(MediaContent) }},
		{Name: "StructList", Value: CreateStructList(), New: func() any { return new(StructList) }},
		{Name: "SampleList", Value: CreateSampleList(), New: func() any { return new(SampleList) }},
		{Name: "MediaContentList", Value: CreateMediaContentList(), New: func() any { return new(MediaContentList) }},
	}
}
