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

// Package mapping loads absave member mappings from YAML, for types whose
// declarations cannot carry struct tags.
//
//	types:
//	  - name: billing.Account
//	    members:
//	      - {name: owner, order: 0}
//	      - {name: Balance, property: true, order: 1, from: 1}
//	    bases:
//	      - {type: billing.Entity, to: 2}
package mapping

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"

	absave "github.com/ABCo-Src/ABSave-sub000"
)

// ErrUnresolvedType is returned when a mapping names a type the resolver
// does not know.
var ErrUnresolvedType = errors.New("mapping: unresolved type")

// File is a parsed mapping document.
type File struct {
	Types []Type `yaml:"types"`
}

// Type maps the members and bases of one struct type.
type Type struct {
	Name     string   `yaml:"name"`
	Abstract bool     `yaml:"abstract,omitempty"`
	Members  []Member `yaml:"members"`
	Bases    []Base   `yaml:"bases,omitempty"`
}

// Member is one serialized member. To is exclusive and 0 leaves the range
// open.
type Member struct {
	Name     string `yaml:"name"`
	Property bool   `yaml:"property,omitempty"`
	Order    int    `yaml:"order"`
	From     uint32 `yaml:"from,omitempty"`
	To       uint32 `yaml:"to,omitempty"`
}

// Base is an embedded ancestor written before the type's own members.
type Base struct {
	Type    string `yaml:"type"`
	From    uint32 `yaml:"from,omitempty"`
	To      uint32 `yaml:"to,omitempty"`
	Version uint32 `yaml:"version,omitempty"`
}

// Parse decodes a mapping document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}
	return &f, nil
}

// Load reads and parses the mapping file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: could not read %q: %w", path, err)
	}
	return Parse(data)
}

// Encode renders f back to YAML.
func (f *File) Encode() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate checks what can be checked without the Go types: names are
// present and unique, and version ranges are not empty.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, t := range f.Types {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("types[%d]: missing name", i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%s: declared twice", t.Name))
		}
		seen[t.Name] = true
		members := make(map[string]bool)
		for j, m := range t.Members {
			switch {
			case m.Name == "":
				errs = append(errs, fmt.Errorf("%s: members[%d]: missing name", t.Name, j))
			case members[m.Name]:
				errs = append(errs, fmt.Errorf("%s: member %s declared twice", t.Name, m.Name))
			}
			members[m.Name] = true
			if m.To != 0 && m.To <= m.From {
				errs = append(errs, fmt.Errorf("%s: member %s: empty version range [%d,%d)", t.Name, m.Name, m.From, m.To))
			}
		}
		for j, b := range t.Bases {
			if b.Type == "" {
				errs = append(errs, fmt.Errorf("%s: bases[%d]: missing type", t.Name, j))
			}
			if b.To != 0 && b.To <= b.From {
				errs = append(errs, fmt.Errorf("%s: base %s: empty version range [%d,%d)", t.Name, b.Type, b.From, b.To))
			}
		}
	}
	return errors.Join(errs...)
}

// Resolver turns a type name used in a mapping file into a Go type.
type Resolver func(name string) (reflect.Type, bool)

// TypesOf resolves the named types of the given values, accepting both
// the short form ("pkg.Name") and the form qualified by the full package
// path ("example.com/pkg.Name").
func TypesOf(values ...any) Resolver {
	byName := make(map[string]reflect.Type)
	for _, v := range values {
		t, ok := v.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(v)
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		byName[t.String()] = t
		if t.PkgPath() != "" {
			byName[t.PkgPath()+"."+t.Name()] = t
		}
	}
	return func(name string) (reflect.Type, bool) {
		t, ok := byName[strings.TrimSpace(name)]
		return t, ok
	}
}

// Mappings validates f and resolves every type it names.
func (f *File) Mappings(resolve Resolver) ([]*absave.TypeMapping, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make([]*absave.TypeMapping, 0, len(f.Types))
	for _, t := range f.Types {
		typ, ok := resolve(t.Name)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnresolvedType, t.Name)
		}
		tm := &absave.TypeMapping{Type: typ, Abstract: t.Abstract}
		for _, m := range t.Members {
			tm.Members = append(tm.Members, absave.MemberMapping{
				Name: m.Name, Property: m.Property, Order: m.Order, From: m.From, To: m.To,
			})
		}
		for _, b := range t.Bases {
			bt, ok := resolve(b.Type)
			if !ok {
				return nil, fmt.Errorf("%w %q (base of %s)", ErrUnresolvedType, b.Type, t.Name)
			}
			tm.Bases = append(tm.Bases, absave.BaseMapping{Type: bt, From: b.From, To: b.To, Version: b.Version})
		}
		out = append(out, tm)
	}
	return out, nil
}

// Options is Mappings turned into absave options.
func (f *File) Options(resolve Resolver) ([]absave.Option, error) {
	mappings, err := f.Mappings(resolve)
	if err != nil {
		return nil, err
	}
	opts := make([]absave.Option, len(mappings))
	for i, m := range mappings {
		opts[i] = absave.WithTypeMapping(m)
	}
	return opts, nil
}
