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
	"strings"
)

// ============================================================================
// Settings
// ============================================================================

// Settings holds the encoding choices and converter registrations of a Map.
// The engine reads settings but never changes them once a Map is built.
type Settings struct {
	UseUTF8                 bool
	CompressPrimitives      bool
	LazyCompressedWriting   bool
	IncludeVersioning       bool
	UseLittleEndian         bool
	CacheTypesAndAssemblies bool
	SchemaCheck             bool
	NamedMemberFallback     bool
	MaxCollectionSize       int // 0 means no limit
	MaxBinarySize           int // 0 means no limit
	MaxDepth                int

	exact          map[reflect.Type]func(reflect.Type) Converter
	factories      []ConverterFactory
	mappings       map[reflect.Type]*TypeMapping
	types          []reflect.Type
	targetVersions map[reflect.Type]uint32
}

// DefaultSettings returns the settings used when no option is given.
func DefaultSettings() *Settings {
	s := &Settings{
		UseUTF8:           true,
		UseLittleEndian:   nativeLittleEndian,
		MaxCollectionSize: 1_000_000,
		MaxBinarySize:     64 * 1024 * 1024,
		MaxDepth:          1000,
		exact:             make(map[reflect.Type]func(reflect.Type) Converter),
		mappings:          make(map[reflect.Type]*TypeMapping),
		targetVersions:    make(map[reflect.Type]uint32),
	}
	registerBuiltins(s)
	return s
}

// NewSettings applies opts over DefaultSettings.
func NewSettings(opts ...Option) *Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option is a function that configures Settings.
type Option func(*Settings)

// WithUTF8 selects UTF-8 (true) or UTF-16 (false) text.
func WithUTF8(enabled bool) Option {
	return func(s *Settings) {
		s.UseUTF8 = enabled
	}
}

// WithCompressPrimitives writes integers and tick values compressed.
func WithCompressPrimitives(enabled bool) Option {
	return func(s *Settings) {
		s.CompressPrimitives = enabled
	}
}

// WithLazyCompressedWriting stops compressed integers from using spare
// header bits.
func WithLazyCompressedWriting(enabled bool) Option {
	return func(s *Settings) {
		s.LazyCompressedWriting = enabled
	}
}

// WithIncludeVersioning writes each object type's version number the first
// time the type appears in a document.
func WithIncludeVersioning(enabled bool) Option {
	return func(s *Settings) {
		s.IncludeVersioning = enabled
	}
}

// WithLittleEndian forces the byte order of fixed-width numbers.
func WithLittleEndian(enabled bool) Option {
	return func(s *Settings) {
		s.UseLittleEndian = enabled
	}
}

// WithCacheTypesAndAssemblies replaces repeated type identities with keys.
func WithCacheTypesAndAssemblies(enabled bool) Option {
	return func(s *Settings) {
		s.CacheTypesAndAssemblies = enabled
	}
}

// WithSchemaCheck writes a layout hash with each object type and verifies it
// on read.
func WithSchemaCheck(enabled bool) Option {
	return func(s *Settings) {
		s.SchemaCheck = enabled
	}
}

// WithNamedMemberFallback lets unmarked structs encode every exported field
// by name instead of failing.
func WithNamedMemberFallback(enabled bool) Option {
	return func(s *Settings) {
		s.NamedMemberFallback = enabled
	}
}

// WithMaxCollectionSize limits element counts accepted on read.
func WithMaxCollectionSize(n int) Option {
	return func(s *Settings) {
		s.MaxCollectionSize = n
	}
}

// WithMaxBinarySize limits text and document sizes accepted on read.
func WithMaxBinarySize(n int) Option {
	return func(s *Settings) {
		s.MaxBinarySize = n
	}
}

// WithMaxDepth limits item nesting in both directions.
func WithMaxDepth(depth int) Option {
	return func(s *Settings) {
		s.MaxDepth = depth
	}
}

// WithConverter registers a non-exact converter factory. Factories
// registered later are asked first, ahead of the built-in ones.
func WithConverter(f ConverterFactory) Option {
	return func(s *Settings) {
		s.factories = append(s.factories, f)
	}
}

// WithExactConverter maps one exact type to a converter constructor,
// replacing any built-in entry for that type.
func WithExactConverter(t reflect.Type, newConverter func(reflect.Type) Converter) Option {
	return func(s *Settings) {
		s.exact[t] = newConverter
	}
}

// WithTypeMapping supplies member metadata for a type from outside its
// declaration. It takes precedence over struct tags.
func WithTypeMapping(m *TypeMapping) Option {
	return func(s *Settings) {
		s.mappings[m.Type] = m
	}
}

// WithTypes registers the named types of the given values so polymorphic
// payloads naming them can be decoded.
func WithTypes(values ...any) Option {
	return func(s *Settings) {
		for _, v := range values {
			if t, ok := v.(reflect.Type); ok {
				s.types = append(s.types, t)
				continue
			}
			s.types = append(s.types, reflect.TypeOf(v))
		}
	}
}

// WithTargetVersion selects the version used for an object type when
// versions are not read from the document.
func WithTargetVersion(t reflect.Type, version uint32) Option {
	return func(s *Settings) {
		s.targetVersions[t] = version
	}
}

func (s *Settings) mappingFor(t reflect.Type) *TypeMapping {
	return s.mappings[t]
}

// String returns a formatted representation of the settings.
func (s *Settings) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-26s: %s\n", name, value))
	}

	text := "UTF-16"
	if s.UseUTF8 {
		text = "UTF-8"
	}
	order := "big-endian"
	if s.UseLittleEndian {
		order = "little-endian"
	}

	addSection("Encoding")
	addField("Text", text)
	addField("Byte Order", order)
	addField("Compress Primitives", fmt.Sprintf("%t", s.CompressPrimitives))
	addField("Lazy Compressed Writing", fmt.Sprintf("%t", s.LazyCompressedWriting))

	addSection("Documents")
	addField("Include Versioning", fmt.Sprintf("%t", s.IncludeVersioning))
	addField("Cache Types/Assemblies", fmt.Sprintf("%t", s.CacheTypesAndAssemblies))
	addField("Schema Check", fmt.Sprintf("%t", s.SchemaCheck))
	addField("Named Member Fallback", fmt.Sprintf("%t", s.NamedMemberFallback))

	addSection("Limits")
	addField("Max Collection Size", limitString(s.MaxCollectionSize))
	addField("Max Binary Size", limitString(s.MaxBinarySize))
	addField("Max Depth", limitString(s.MaxDepth))

	addSection("Registrations")
	addField("Exact Converters", fmt.Sprintf("%d", len(s.exact)))
	addField("Converter Factories", fmt.Sprintf("%d", len(s.factories)))
	addField("Type Mappings", fmt.Sprintf("%d", len(s.mappings)))

	return sb.String()
}

func limitString(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}
