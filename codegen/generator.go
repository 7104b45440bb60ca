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

package main

import (
	"bytes"
	"fmt"
	"go/format"
	"go/types"
	"reflect"
	"slices"
)

const absaveImport = "github.com/ABCo-Src/ABSave-sub000"

// structInfo is a struct accessors are generated for.
type structInfo struct {
	Name    string
	Members []*memberInfo
}

// memberInfo is one field carrying a member tag.
type memberInfo struct {
	Name string
	Type types.Type
}

// extractStruct keeps the fields absave serializes as members: tagged,
// named, not embedded and not skipped with "-". Embedded fields are bases
// and are written by their own type.
func extractStruct(name string, st *types.Struct) *structInfo {
	info := &structInfo{Name: name}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		tag, ok := reflect.StructTag(st.Tag(i)).Lookup("absave")
		if !ok || tag == "-" || f.Name() == "_" || f.Embedded() {
			continue
		}
		info.Members = append(info.Members, &memberInfo{Name: f.Name(), Type: f.Type()})
	}
	return info
}

// generateCode renders and formats the accessor file for pkg.
func generateCode(pkg *types.Package, structs []*structInfo) ([]byte, error) {
	imports := map[string]string{absaveImport: "absave"}
	qualifier := func(p *types.Package) string {
		if p == pkg {
			return ""
		}
		imports[p.Path()] = p.Name()
		return p.Name()
	}

	var body bytes.Buffer
	for _, s := range structs {
		writeAccessors(&body, s, qualifier)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by absavegen. DO NOT EDIT.\n")
	fmt.Fprintf(&buf, "// source: %s\n\n", pkg.Path())
	fmt.Fprintf(&buf, "package %s\n\n", pkg.Name())

	paths := make([]string, 0, len(imports))
	for path := range imports {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	fmt.Fprintf(&buf, "import (\n")
	for _, path := range paths {
		if path == absaveImport {
			fmt.Fprintf(&buf, "\tabsave %q\n", path)
		} else {
			fmt.Fprintf(&buf, "\t%q\n", path)
		}
	}
	fmt.Fprintf(&buf, ")\n\n")
	buf.Write(body.Bytes())

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return formatted, nil
}

func writeAccessors(buf *bytes.Buffer, s *structInfo, qualifier types.Qualifier) {
	fmt.Fprintf(buf, "// ABSaveAccessors implements absave.AccessorProvider.\n")
	fmt.Fprintf(buf, "func (*%s) ABSaveAccessors() map[string]absave.Accessor {\n", s.Name)
	fmt.Fprintf(buf, "\treturn map[string]absave.Accessor{\n")
	for _, m := range s.Members {
		typ := types.TypeString(m.Type, qualifier)
		fmt.Fprintf(buf, "\t\t%q: absave.TypedAccessor(\n", m.Name)
		fmt.Fprintf(buf, "\t\t\tfunc(v *%s) %s { return v.%s },\n", s.Name, typ, m.Name)
		fmt.Fprintf(buf, "\t\t\tfunc(v *%s, x %s) { v.%s = x },\n", s.Name, typ, m.Name)
		fmt.Fprintf(buf, "\t\t),\n")
	}
	fmt.Fprintf(buf, "\t}\n")
	fmt.Fprintf(buf, "}\n\n")
}
