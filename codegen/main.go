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

// Command absavegen writes ABSaveAccessors methods for structs, so that
// absave reads and writes their members through typed closures instead of
// field offsets.
//
//	//go:generate go run github.com/ABCo-Src/ABSave-sub000/codegen -pkg . -type Order,Customer
package main

import (
	"flag"
	"fmt"
	"go/types"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

var (
	typeFlag = flag.String("type", "", "comma-separated list of types to generate accessors for")
	pkgFlag  = flag.String("pkg", ".", "package directory to search for types")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("absavegen failed: %v", err)
	}
}

func run() error {
	if *typeFlag == "" {
		return fmt.Errorf("-type is required")
	}
	cfg := &packages.Config{
		Mode: packages.NeedTypes | packages.NeedSyntax | packages.NeedName | packages.NeedFiles | packages.NeedTypesInfo,
	}

	pkgs, err := packages.Load(cfg, *pkgFlag)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return fmt.Errorf("no packages found")
	}
	if packages.PrintErrors(pkgs) > 0 {
		return fmt.Errorf("errors in packages")
	}

	for _, pkg := range pkgs {
		if err := processPackage(pkg, strings.Split(*typeFlag, ",")); err != nil {
			return fmt.Errorf("processing package %s: %w", pkg.PkgPath, err)
		}
	}
	return nil
}

func processPackage(pkg *packages.Package, targets []string) error {
	if pkg.Types == nil {
		return fmt.Errorf("package %s has no type information", pkg.PkgPath)
	}

	structs, err := collectStructs(pkg.Types, targets)
	if err != nil {
		return err
	}
	if len(structs) == 0 {
		return nil
	}

	src, err := generateCode(pkg.Types, structs)
	if err != nil {
		return err
	}
	outputFile := filepath.Join(filepath.Dir(pkg.GoFiles[0]), fmt.Sprintf("%s_absave_gen.go", pkg.Name))
	if err := os.WriteFile(outputFile, src, 0o644); err != nil {
		return err
	}
	log.Printf("wrote %s (%d types)", outputFile, len(structs))
	return nil
}

// collectStructs looks up each target in the package scope.
func collectStructs(pkg *types.Package, targets []string) ([]*structInfo, error) {
	var structs []*structInfo
	for _, name := range targets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		obj := pkg.Scope().Lookup(name)
		if obj == nil {
			return nil, fmt.Errorf("type %s not found in %s", name, pkg.Path())
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			return nil, fmt.Errorf("%s is not a named type", name)
		}
		if named.TypeParams().Len() > 0 {
			return nil, fmt.Errorf("%s: generic types are not supported", name)
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			return nil, fmt.Errorf("%s is not a struct", name)
		}
		info := extractStruct(name, st)
		if len(info.Members) == 0 {
			log.Printf("skipping %s: no tagged members", name)
			continue
		}
		structs = append(structs, info)
	}
	return structs, nil
}
