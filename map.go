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
	"context"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	itemAllocating int32 = iota
	itemReady
	itemFailed
)

// MapItem is the resolution result for one type: its converter plus what
// the facades need to know to write an item of that type.
type MapItem struct {
	id          int
	typ         reflect.Type
	valueType   bool
	polymorphic bool
	converter   Converter
	state       atomic.Int32
	err         error
}

// ID is the item's stable index in its Map, assigned before the converter
// is resolved.
func (i *MapItem) ID() int {
	return i.id
}

// Type returns the type the item resolves.
func (i *MapItem) Type() reflect.Type {
	return i.typ
}

// IsValueType reports whether values of the type can be neither nil nor of
// a different dynamic type, in which case no item attribute is written.
func (i *MapItem) IsValueType() bool {
	return i.valueType
}

// Converter returns the item's converter, waiting while another goroutine
// is still resolving it.
func (i *MapItem) Converter() (Converter, error) {
	for {
		switch i.state.Load() {
		case itemReady:
			return i.converter, nil
		case itemFailed:
			return nil, i.err
		default:
			runtime.Gosched()
		}
	}
}

// Ready reports whether the converter has been published.
func (i *MapItem) Ready() bool {
	return i.state.Load() == itemReady
}

// Map is a map generation context: it resolves each type once, caches the
// result, and is shared by any number of concurrent operations. Maps are
// independent of each other; nothing is cached globally.
type Map struct {
	settings *Settings
	items    *xsync.MapOf[reflect.Type, *MapItem]
	mu       sync.Mutex
	arena    []*MapItem
	registry *typeRegistry
	targets  *xsync.MapOf[reflect.Type, uint32]
}

// NewMap creates a Map for the given settings. A nil settings value means
// DefaultSettings.
func NewMap(settings *Settings) *Map {
	if settings == nil {
		settings = DefaultSettings()
	}
	m := &Map{
		settings: settings,
		items:    xsync.NewMapOf[reflect.Type, *MapItem](),
		registry: newTypeRegistry(),
		targets:  xsync.NewMapOf[reflect.Type, uint32](),
	}
	for _, t := range settings.types {
		m.registry.register(t)
	}
	for t, v := range settings.targetVersions {
		m.targets.Store(t, v)
	}
	return m
}

// Settings returns the settings the Map was built with.
func (m *Map) Settings() *Settings {
	return m.settings
}

// ItemCount returns how many items have been claimed so far, including
// failed ones.
func (m *Map) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.arena)
}

// ItemByID returns the item with the given ID, or nil.
func (m *Map) ItemByID(id int) *MapItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.arena) {
		return nil
	}
	return m.arena[id]
}

// GetItem resolves t, generating its item on first use.
//
// The first caller claims the type by storing an allocating item, then
// resolves and initializes the converter without holding any lock. Callers
// that arrive meanwhile, including recursive requests made while
// initializing a type that refers back to itself, receive the allocating
// item; MapItem.Converter waits for it to be published. A failed resolution
// removes the claim, so every later request for the type fails the same
// way.
func (m *Map) GetItem(t reflect.Type) (*MapItem, error) {
	if t == nil {
		return nil, newError(ErrKindInvalidArgument, "nil type").asError()
	}
	if item, ok := m.items.Load(t); ok {
		return item, nil
	}
	item := &MapItem{typ: t, valueType: isValueKind(t)}
	if existing, loaded := m.items.LoadOrStore(t, item); loaded {
		return existing, nil
	}
	m.mu.Lock()
	item.id = len(m.arena)
	m.arena = append(m.arena, item)
	m.mu.Unlock()
	m.registry.register(t)

	conv, err := m.resolve(t, item)
	if err != nil {
		item.err = err
		item.state.Store(itemFailed)
		m.items.Delete(t)
		emitItemGenerated(context.Background(), item, "", err)
		return nil, err
	}
	item.converter = conv
	_, item.polymorphic = conv.(*interfaceConverter)
	item.state.Store(itemReady)
	emitItemGenerated(context.Background(), item, converterName(conv), nil)
	return item, nil
}

// MustGetItem is GetItem for types known to be serializable.
func (m *Map) MustGetItem(t reflect.Type) *MapItem {
	item, err := m.GetItem(t)
	if err != nil {
		panic(err)
	}
	return item
}

// resolve picks the converter for t: the exact table first, then non-exact
// factories newest first, then member serialization for marked structs,
// then the named-member fallback when enabled.
func (m *Map) resolve(t reflect.Type, item *MapItem) (Converter, error) {
	conv := m.pickConverter(t)
	if conv == nil {
		return nil, unserializableTypeError(t).asError()
	}
	if initializer, ok := conv.(Initializer); ok {
		if err := initializer.Initialize(&InitContext{Map: m, Type: t, Self: item}); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

func (m *Map) pickConverter(t reflect.Type) Converter {
	if create, ok := m.settings.exact[t]; ok {
		return create(t)
	}
	factories := m.settings.factories
	for i := len(factories) - 1; i >= 0; i-- {
		if factories[i].CheckType(t) {
			return factories[i].NewConverter(t)
		}
	}
	if isObjectCandidate(t, m.settings) {
		return newObjectConverter(t)
	}
	if m.settings.NamedMemberFallback && t.Kind() == reflect.Struct {
		return &namedMemberConverter{typ: t}
	}
	return nil
}

// SetTargetVersion selects the version written and expected for an object
// type. It fails when the type has no such version.
func (m *Map) SetTargetVersion(t reflect.Type, version uint32) error {
	item, err := m.GetItem(t)
	if err != nil {
		return err
	}
	conv, err := item.Converter()
	if err != nil {
		return err
	}
	obj, ok := conv.(*ObjectConverter)
	if !ok {
		return newError(ErrKindInvalidArgument, "%v is not serialized by members and has no versions", t).asError()
	}
	if version > obj.HighestVersion() {
		return unsupportedVersionError(t, version, obj.HighestVersion()).asError()
	}
	m.targets.Store(t, version)
	return nil
}

func (m *Map) targetVersion(t reflect.Type, highest uint32) uint32 {
	if v, ok := m.targets.Load(t); ok {
		return v
	}
	return highest
}

// isValueKind reports whether t can never be nil.
func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return false
	default:
		return true
	}
}

func converterName(c Converter) string {
	return fmt.Sprintf("%T", c)
}
