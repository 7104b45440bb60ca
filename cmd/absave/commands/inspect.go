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

package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	absave "github.com/ABCo-Src/ABSave-sub000"
	benchmark "github.com/ABCo-Src/ABSave-sub000/benchmarks"
)

// Document header bits, as written by absave.
const (
	headerLittleEndian byte = 1 << 0
	headerCaching      byte = 1 << 1
)

var errEmptyDocument = errors.New("empty document")

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Describes the header of a document and optionally decodes it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		info, err := describeHeader(data)
		if err != nil {
			return err
		}
		fmt.Print(info)

		model := viper.GetString("model")
		if model == "" {
			return nil
		}
		opts, err := SettingsOptions()
		if err != nil {
			return err
		}
		value, err := decodeModel(absave.New(opts...), model, data)
		if err != nil {
			fmt.Println(color.RedString("decode failed: %v", err))
			return err
		}
		fmt.Println(color.GreenString("decoded %s:", model))
		fmt.Printf("%+v\n", value)
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("model", "", WrapString("Decode the document as one of the benchmark models ("+strings.Join(modelNames(), ", ")+")"))
}

// describeHeader renders the document header of data.
func describeHeader(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errEmptyDocument
	}
	h := data[0]
	order := "big-endian"
	if h&headerLittleEndian != 0 {
		order = "little-endian"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s: %d bytes\n", "Size", len(data))
	fmt.Fprintf(&sb, "%-16s: %s\n", "Byte Order", order)
	fmt.Fprintf(&sb, "%-16s: %t\n", "Type Caching", h&headerCaching != 0)
	if unknown := h &^ (headerLittleEndian | headerCaching); unknown != 0 {
		fmt.Fprintf(&sb, "%-16s: %#02x\n", "Unknown Bits", unknown)
	}
	return sb.String(), nil
}

func modelNames() []string {
	var names []string
	for _, c := range benchmark.Cases() {
		names = append(names, c.Name)
	}
	return names
}

func decodeModel(a *absave.ABSave, name string, data []byte) (any, error) {
	for _, c := range benchmark.Cases() {
		if c.Name == name {
			out := c.New()
			if err := a.Unmarshal(data, out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("unknown model %q", name)
}
