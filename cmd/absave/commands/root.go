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

// Package commands implements the absave command line tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "absave",
		Short: "inspect and measure absave documents",
		Long: fmt.Sprintf(`absave (v%s)

Tools for the absave binary serialization format: inspect document
headers, validate type mapping files and compare encoded sizes.`, Version),
		PersistentPreRunE: setupConfig,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of absave",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("absave v%s\n", Version)
		},
	}
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Print the settings built from flags, environment and config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := SettingsOptions()
			if err != nil {
				return err
			}
			fmt.Print(newSettings(opts).String())
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(InitConfig)

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(settingsCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(mappingCmd)
	RootCmd.AddCommand(compareCmd)

	SetupSettingsFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
