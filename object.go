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

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spaolacci/murmur3"
)

// ObjectConverter writes structs member by member. Which members are
// written depends on the version in effect for the type.
type ObjectConverter struct {
	typ     reflect.Type
	item    *MapItem
	m       *Map
	layout  *objectLayout
	highest uint32
	infos   *xsync.MapOf[uint32, *versionInfo]
}

// versionInfo is the resolved layout of one version.
type versionInfo struct {
	version     uint32
	base        *baseDecl
	baseVersion uint32
	members     []*memberDecl
	hash        int32
}

func newObjectConverter(t reflect.Type) Converter {
	return &ObjectConverter{typ: t, infos: xsync.NewMapOf[uint32, *versionInfo]()}
}

// Initialize reads the type's declarations and resolves the items of all
// members and bases, across every version.
func (c *ObjectConverter) Initialize(ctx *InitContext) error {
	layout, err := buildLayout(c.typ, ctx.Settings())
	if err != nil {
		return err
	}
	for _, m := range layout.members {
		if m.item, err = ctx.Item(m.accessor.MemberType()); err != nil {
			return err
		}
	}
	for _, b := range layout.bases {
		if b.item, err = ctx.Item(b.typ); err != nil {
			return err
		}
	}
	c.m = ctx.Map
	c.item = ctx.Self
	c.layout = layout
	c.highest = layout.highestVersion()
	return nil
}

// HighestVersion returns the newest version the type declares.
func (c *ObjectConverter) HighestVersion() uint32 {
	return c.highest
}

// Abstract reports whether the type can only be written as a base.
func (c *ObjectConverter) Abstract() bool {
	return c.layout.abstract
}

// MemberNames lists the members written at version, in wire order. Base
// members are not included.
func (c *ObjectConverter) MemberNames(version uint32) ([]string, error) {
	info, err := c.info(version)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(info.members))
	for i, m := range info.members {
		names[i] = m.name
	}
	return names, nil
}

// BaseType returns the base written at version, or nil.
func (c *ObjectConverter) BaseType(version uint32) reflect.Type {
	if b := c.layout.baseAt(version); b != nil {
		return b.typ
	}
	return nil
}

func (c *ObjectConverter) info(version uint32) (*versionInfo, error) {
	if version > c.highest {
		return nil, unsupportedVersionError(c.typ, version, c.highest).asError()
	}
	if info, ok := c.infos.Load(version); ok {
		return info, nil
	}
	info := &versionInfo{version: version, members: c.layout.membersAt(version)}
	var sb strings.Builder
	if b := c.layout.baseAt(version); b != nil {
		base, err := baseConverter(b)
		if err != nil {
			return nil, err
		}
		info.base = b
		info.baseVersion = base.m.targetVersion(b.typ, base.highest)
		if b.version >= 0 {
			info.baseVersion = uint32(b.version)
		}
		if info.baseVersion > base.highest {
			return nil, unsupportedVersionError(b.typ, info.baseVersion, base.highest).asError()
		}
		fmt.Fprintf(&sb, "base:%v@%d;", b.typ, info.baseVersion)
	}
	for _, m := range info.members {
		fmt.Fprintf(&sb, "%s:%v;", m.name, m.accessor.MemberType())
	}
	h1, _ := murmur3.Sum128WithSeed([]byte(sb.String()), 47)
	info.hash = int32(h1 & 0xFFFFFFFF)
	info, _ = c.infos.LoadOrStore(version, info)
	return info, nil
}

func baseConverter(b *baseDecl) (*ObjectConverter, error) {
	conv, err := b.item.Converter()
	if err != nil {
		return nil, err
	}
	obj, ok := conv.(*ObjectConverter)
	if !ok {
		return nil, invalidConfigurationError(b.typ, "base is written by %s, not by members", converterName(conv)).asError()
	}
	return obj, nil
}

// pointerTo returns a pointer to v, copying it when v is not addressable.
func (c *ObjectConverter) pointerTo(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(c.typ)
	p.Elem().Set(v)
	return p
}

func (c *ObjectConverter) Serialize(s *Serializer, v reflect.Value) {
	if c.layout.abstract {
		s.SetError(abstractTypeError(c.typ))
		return
	}
	version := s.m.targetVersion(c.typ, c.highest)
	info, err := c.info(version)
	if err != nil {
		s.SetError(FromError(err))
		return
	}
	if _, seen := s.versions[c.item.id]; !seen && (s.settings.IncludeVersioning || s.settings.SchemaCheck) {
		s.versions[c.item.id] = version
		if s.settings.IncludeVersioning {
			s.WriteCompressedUint32(version)
		}
		if s.settings.SchemaCheck {
			s.WriteInt32(info.hash)
		}
	}
	c.serializeMembers(s, c.pointerTo(v), info)
}

// serializeMembers writes the base, then the members, of the object obj
// points to.
func (c *ObjectConverter) serializeMembers(s *Serializer, obj reflect.Value, info *versionInfo) {
	if info.base != nil {
		base, err := baseConverter(info.base)
		if err != nil {
			s.SetError(FromError(err))
			return
		}
		baseInfo, err := base.info(info.baseVersion)
		if err != nil {
			s.SetError(FromError(err))
			return
		}
		base.serializeMembers(s, info.base.at(obj), baseInfo)
	}
	for _, m := range info.members {
		if s.HasError() {
			return
		}
		s.WriteItem(m.accessor.Get(obj), m.item)
	}
}

func (c *ObjectConverter) Deserialize(d *Deserializer, v reflect.Value) {
	if c.layout.abstract {
		d.SetError(abstractTypeError(c.typ))
		return
	}
	version, seen := d.versions[c.item.id]
	if !seen {
		version = d.m.targetVersion(c.typ, c.highest)
		if d.settings.IncludeVersioning {
			version = d.ReadCompressedUint32()
			if d.HasError() {
				return
			}
		}
	}
	info, err := c.info(version)
	if err != nil {
		d.SetError(FromError(err))
		return
	}
	if !seen && (d.settings.IncludeVersioning || d.settings.SchemaCheck) {
		d.versions[c.item.id] = version
		if d.settings.SchemaCheck {
			if hash := d.ReadInt32(); !d.HasError() && hash != info.hash {
				d.SetError(newError(ErrKindSchemaMismatch, "%v version %d: schema hash %d, want %d", c.typ, version, hash, info.hash))
				return
			}
		}
	}
	obj := reflect.New(c.typ)
	c.deserializeMembers(d, obj, info)
	if !d.HasError() {
		v.Set(obj.Elem())
	}
}

func (c *ObjectConverter) deserializeMembers(d *Deserializer, obj reflect.Value, info *versionInfo) {
	if info.base != nil {
		base, err := baseConverter(info.base)
		if err != nil {
			d.SetError(FromError(err))
			return
		}
		baseInfo, err := base.info(info.baseVersion)
		if err != nil {
			d.SetError(FromError(err))
			return
		}
		base.deserializeMembers(d, info.base.at(obj), baseInfo)
	}
	for _, m := range info.members {
		if d.HasError() {
			return
		}
		slot := reflect.New(m.accessor.MemberType()).Elem()
		d.ReadItem(slot, m.item)
		if !d.HasError() {
			m.accessor.Set(obj, slot)
		}
	}
}

// at returns a pointer to the embedded base inside the object obj points
// to.
func (b *baseDecl) at(obj reflect.Value) reflect.Value {
	return fieldAccessor{typ: b.typ, offset: b.offset}.field(obj).Addr()
}
