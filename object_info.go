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
	"cmp"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// SaveMembers marks a struct for member serialization when placed as a
// blank field. Tagging it `absave:"abstract"` marks the type abstract.
//
//	type Shape struct {
//		_    absave.SaveMembers `absave:"abstract"`
//		Name string             `absave:"0"`
//	}
type SaveMembers struct{}

var saveMembersType = reflect.TypeOf(SaveMembers{})

// TypeMapping configures the members of a type without struct tags. When
// a mapping is registered for a type its tags are ignored.
type TypeMapping struct {
	Type     reflect.Type
	Abstract bool
	Members  []MemberMapping
	Bases    []BaseMapping
}

// MemberMapping declares one member. To is exclusive; 0 means the member
// is present in every version from From on.
type MemberMapping struct {
	Name     string
	Property bool
	Order    int
	From     uint32
	To       uint32
}

// BaseMapping declares that the members of an embedded ancestor are
// written before the type's own, using the ancestor's version Version.
type BaseMapping struct {
	Type    reflect.Type
	From    uint32
	To      uint32
	Version uint32
}

const tagName = "absave"

// memberDecl is a member as declared, before version selection.
type memberDecl struct {
	name     string
	order    int
	decl     int
	from, to uint32
	accessor Accessor
	item     *MapItem
}

func (m *memberDecl) in(version uint32) bool {
	return version >= m.from && (m.to == 0 || version < m.to)
}

// baseDecl is a base declaration. version < 0 selects the base's own
// target version.
type baseDecl struct {
	typ      reflect.Type
	offset   uintptr
	from, to uint32
	version  int64
	item     *MapItem
}

func (b *baseDecl) in(version uint32) bool {
	return version >= b.from && (b.to == 0 || version < b.to)
}

// objectLayout is everything derived from a struct's declarations.
type objectLayout struct {
	abstract bool
	members  []*memberDecl
	bases    []*baseDecl
}

// isObjectCandidate reports whether t declares members through tags, a
// marker field, generated accessors or a registered mapping.
func isObjectCandidate(t reflect.Type, settings *Settings) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if settings.mappingFor(t) != nil {
		return true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == saveMembersType {
			return true
		}
		if _, ok := f.Tag.Lookup(tagName); ok {
			return true
		}
	}
	return reflect.PointerTo(t).Implements(accessorProviderType)
}

// memberTag is a parsed `absave:"order,from=N,to=N"` tag.
type memberTag struct {
	order    int
	from, to uint32
}

func parseVersionOption(t reflect.Type, field, opt string) (uint32, error) {
	n, err := strconv.ParseUint(opt, 10, 32)
	if err != nil {
		return 0, invalidConfigurationError(t, "field %s: bad version %q", field, opt).asError()
	}
	return uint32(n), nil
}

func parseMemberTag(t reflect.Type, field, tag string) (memberTag, error) {
	parts := strings.Split(tag, ",")
	var mt memberTag
	order, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return mt, invalidConfigurationError(t, "field %s: order %q is not a number", field, parts[0]).asError()
	}
	mt.order = order
	for _, opt := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "from":
			if mt.from, err = parseVersionOption(t, field, val); err != nil {
				return mt, err
			}
		case "to":
			if mt.to, err = parseVersionOption(t, field, val); err != nil {
				return mt, err
			}
		default:
			return mt, invalidConfigurationError(t, "field %s: unknown option %q", field, key).asError()
		}
	}
	if mt.to != 0 && mt.to <= mt.from {
		return mt, invalidConfigurationError(t, "field %s: empty version range [%d,%d)", field, mt.from, mt.to).asError()
	}
	return mt, nil
}

func parseBaseTag(t reflect.Type, f reflect.StructField, tag string) (*baseDecl, error) {
	b := &baseDecl{typ: f.Type, offset: f.Offset, version: -1}
	for _, opt := range strings.Split(tag, ",")[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		n, err := parseVersionOption(t, f.Name, val)
		if err != nil {
			return nil, err
		}
		switch key {
		case "from":
			b.from = n
		case "to":
			b.to = n
		case "ver":
			b.version = int64(n)
		default:
			return nil, invalidConfigurationError(t, "base %s: unknown option %q", f.Name, key).asError()
		}
	}
	return b, nil
}

// buildLayout collects the members and bases of t from its mapping or its
// tags.
func buildLayout(t reflect.Type, settings *Settings) (*objectLayout, error) {
	generated := generatedAccessors(t)
	var layout *objectLayout
	var err error
	if mapping := settings.mappingFor(t); mapping != nil {
		layout, err = layoutFromMapping(t, mapping, settings)
	} else {
		layout, err = layoutFromTags(t, settings)
	}
	if err != nil {
		return nil, err
	}
	for _, m := range layout.members {
		if acc, ok := generated[m.name]; ok {
			if acc.MemberType() != m.accessor.MemberType() {
				return nil, invalidConfigurationError(t, "generated accessor for %s has type %v, want %v",
					m.name, acc.MemberType(), m.accessor.MemberType()).asError()
			}
			m.accessor = acc
		}
	}
	if err := checkBaseRanges(t, layout.bases); err != nil {
		return nil, err
	}
	return layout, nil
}

func layoutFromTags(t reflect.Type, settings *Settings) (*objectLayout, error) {
	layout := &objectLayout{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(tagName)
		if f.Type == saveMembersType {
			layout.abstract = tag == "abstract"
			continue
		}
		if !ok || tag == "-" {
			continue
		}
		if tag == "base" || strings.HasPrefix(tag, "base,") {
			if !f.Anonymous || f.Type.Kind() != reflect.Struct {
				return nil, invalidConfigurationError(t, "base %s must be an embedded struct", f.Name).asError()
			}
			if !isObjectCandidate(f.Type, settings) {
				return nil, invalidConfigurationError(t, "base %v does not declare members", f.Type).asError()
			}
			b, err := parseBaseTag(t, f, tag)
			if err != nil {
				return nil, err
			}
			layout.bases = append(layout.bases, b)
			continue
		}
		mt, err := parseMemberTag(t, f.Name, tag)
		if err != nil {
			return nil, err
		}
		layout.members = append(layout.members, &memberDecl{
			name:     f.Name,
			order:    mt.order,
			decl:     i,
			from:     mt.from,
			to:       mt.to,
			accessor: fieldAccessor{typ: f.Type, offset: f.Offset},
		})
	}
	return layout, nil
}

func layoutFromMapping(t reflect.Type, mapping *TypeMapping, settings *Settings) (*objectLayout, error) {
	layout := &objectLayout{abstract: mapping.Abstract}
	for i, mm := range mapping.Members {
		if mm.To != 0 && mm.To <= mm.From {
			return nil, invalidConfigurationError(t, "member %s: empty version range [%d,%d)", mm.Name, mm.From, mm.To).asError()
		}
		decl := &memberDecl{name: mm.Name, order: mm.Order, decl: i, from: mm.From, to: mm.To}
		if mm.Property {
			acc, ok := newPropertyAccessor(t, mm.Name)
			if !ok {
				return nil, invalidConfigurationError(t, "no %s()/Set%s property on *%v", mm.Name, mm.Name, t).asError()
			}
			decl.accessor = acc
		} else {
			f, ok := t.FieldByName(mm.Name)
			if !ok {
				return nil, invalidConfigurationError(t, "no field %s", mm.Name).asError()
			}
			off, ft, ok := fieldOffset(t, f.Index)
			if !ok {
				return nil, invalidConfigurationError(t, "field %s is reached through a pointer", mm.Name).asError()
			}
			decl.accessor = fieldAccessor{typ: ft, offset: off}
		}
		layout.members = append(layout.members, decl)
	}
	for _, bm := range mapping.Bases {
		off, ok := embeddedOffset(t, bm.Type)
		if !ok {
			return nil, invalidConfigurationError(t, "base %v is not embedded", bm.Type).asError()
		}
		if !isObjectCandidate(bm.Type, settings) {
			return nil, invalidConfigurationError(t, "base %v does not declare members", bm.Type).asError()
		}
		layout.bases = append(layout.bases, &baseDecl{
			typ: bm.Type, offset: off, from: bm.From, to: bm.To, version: int64(bm.Version),
		})
	}
	return layout, nil
}

// embeddedOffset finds base among the structs embedded by value in t,
// searching breadth first.
func embeddedOffset(t, base reflect.Type) (uintptr, bool) {
	type node struct {
		typ reflect.Type
		off uintptr
	}
	queue := []node{{typ: t}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for i := 0; i < n.typ.NumField(); i++ {
			f := n.typ.Field(i)
			if !f.Anonymous || f.Type.Kind() != reflect.Struct {
				continue
			}
			if f.Type == base {
				return n.off + f.Offset, true
			}
			queue = append(queue, node{typ: f.Type, off: n.off + f.Offset})
		}
	}
	return 0, false
}

func checkBaseRanges(t reflect.Type, bases []*baseDecl) error {
	for i, a := range bases {
		if a.to != 0 && a.to <= a.from {
			return invalidConfigurationError(t, "base %v: empty version range [%d,%d)", a.typ, a.from, a.to).asError()
		}
		for _, b := range bases[i+1:] {
			aEnd, bEnd := uint64(a.to), uint64(b.to)
			if a.to == 0 {
				aEnd = 1 << 32
			}
			if b.to == 0 {
				bEnd = 1 << 32
			}
			if uint64(a.from) < bEnd && uint64(b.from) < aEnd {
				return invalidConfigurationError(t, "bases %v and %v overlap", a.typ, b.typ).asError()
			}
		}
	}
	return nil
}

// highestVersion is the largest version any declaration starts or ends
// at.
func (l *objectLayout) highestVersion() uint32 {
	var h uint32
	for _, m := range l.members {
		h = max(h, m.from, m.to)
	}
	for _, b := range l.bases {
		h = max(h, b.from, b.to)
	}
	return h
}

// membersAt selects the members present in version, ordered by order and
// then by declaration.
func (l *objectLayout) membersAt(version uint32) []*memberDecl {
	var out []*memberDecl
	for _, m := range l.members {
		if m.in(version) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b *memberDecl) int {
		return cmp.Or(cmp.Compare(a.order, b.order), cmp.Compare(a.decl, b.decl))
	})
	return out
}

func (l *objectLayout) baseAt(version uint32) *baseDecl {
	for _, b := range l.bases {
		if b.in(version) {
			return b
		}
	}
	return nil
}
