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
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ABCo-Src/ABSave-sub000/mapping"
)

var (
	mappingCmd = &cobra.Command{
		Use:   "mapping",
		Short: "Work with type mapping files",
	}
	validateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "Checks a mapping file and optionally prints it normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := mapping.Load(args[0])
			if err != nil {
				return err
			}
			if err := f.Validate(); err != nil {
				fmt.Println(color.RedString("%s is invalid:", args[0]))
				fmt.Println(err)
				return err
			}
			fmt.Println(color.GreenString("%s is valid (%d types)", args[0], len(f.Types)))
			if viper.GetBool("print") {
				out, err := f.Encode()
				if err != nil {
					return err
				}
				fmt.Print(string(out))
			}
			return nil
		},
	}
)

func init() {
	validateCmd.Flags().Bool("print", false, WrapString("Print the parsed file as YAML"))
	mappingCmd.AddCommand(validateCmd)
}
