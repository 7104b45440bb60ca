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
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	absave "github.com/ABCo-Src/ABSave-sub000"
	benchmark "github.com/ABCo-Src/ABSave-sub000/benchmarks"
	"github.com/ABCo-Src/ABSave-sub000/mapping"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// SetupSettingsFlags adds the flags every command builds its settings from.
func SetupSettingsFlags(cmd *cobra.Command) {
	defaults := absave.DefaultSettings()
	flags := cmd.PersistentFlags()

	flags.String("config", "", WrapString("Path to a YAML config file holding any of the flags below"))
	flags.Bool("utf8", defaults.UseUTF8, WrapString("Encode text as UTF-8 instead of UTF-16"))
	flags.Bool("compress-primitives", defaults.CompressPrimitives, WrapString("Write 16, 32 and 64 bit integers compressed"))
	flags.Bool("lazy-compressed", defaults.LazyCompressedWriting, WrapString("Use the lazy compressed integer layout instead of exact bit packing"))
	flags.Bool("include-versioning", defaults.IncludeVersioning, WrapString("Write object versions into documents"))
	flags.Bool("little-endian", defaults.UseLittleEndian, WrapString("Write fixed-width numbers little-endian"))
	flags.Bool("cache-types", defaults.CacheTypesAndAssemblies, WrapString("Write repeated type identities as cache keys"))
	flags.Bool("schema-check", defaults.SchemaCheck, WrapString("Write and verify a schema hash per object type"))
	flags.Bool("named-fallback", defaults.NamedMemberFallback, WrapString("Serialize unmarked structs by member name"))
	flags.Int("max-collection-size", defaults.MaxCollectionSize, WrapString("Largest element count accepted on decode (0 for unlimited)"))
	flags.Int("max-binary-size", defaults.MaxBinarySize, WrapString("Largest document or text accepted on decode, in bytes (0 for unlimited)"))
	flags.Int("max-depth", defaults.MaxDepth, WrapString("Deepest nesting accepted (0 for unlimited)"))
	flags.String("mapping", "", WrapString("Type mapping file applied to the built-in benchmark models"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("absave")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setupConfig binds the command's flags to viper and reads the config file
// when one is named.
func setupConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

// SettingsOptions reads the settings flags from viper.
func SettingsOptions() ([]absave.Option, error) {
	opts := []absave.Option{
		absave.WithUTF8(viper.GetBool("utf8")),
		absave.WithCompressPrimitives(viper.GetBool("compress-primitives")),
		absave.WithLazyCompressedWriting(viper.GetBool("lazy-compressed")),
		absave.WithIncludeVersioning(viper.GetBool("include-versioning")),
		absave.WithLittleEndian(viper.GetBool("little-endian")),
		absave.WithCacheTypesAndAssemblies(viper.GetBool("cache-types")),
		absave.WithSchemaCheck(viper.GetBool("schema-check")),
		absave.WithNamedMemberFallback(viper.GetBool("named-fallback")),
		absave.WithMaxCollectionSize(viper.GetInt("max-collection-size")),
		absave.WithMaxBinarySize(viper.GetInt("max-binary-size")),
		absave.WithMaxDepth(viper.GetInt("max-depth")),
	}
	if path := viper.GetString("mapping"); path != "" {
		f, err := mapping.Load(path)
		if err != nil {
			return nil, err
		}
		mapped, err := f.Options(modelTypes())
		if err != nil {
			return nil, err
		}
		opts = append(opts, mapped...)
	}
	return opts, nil
}

// modelTypes resolves the names of the benchmark models for mapping files.
func modelTypes() mapping.Resolver {
	var values []any
	for _, c := range benchmark.Cases() {
		values = append(values, c.Value)
	}
	values = append(values, benchmark.NumericStruct{}, benchmark.Media{}, benchmark.Image{})
	return mapping.TypesOf(values...)
}

func newSettings(opts []absave.Option) *absave.Settings {
	return absave.NewSettings(opts...)
}
