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
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vmihailenco/msgpack/v5"

	absave "github.com/ABCo-Src/ABSave-sub000"
	benchmark "github.com/ABCo-Src/ABSave-sub000/benchmarks"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compares absave and msgpack on the benchmark models",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := SettingsOptions()
		if err != nil {
			return err
		}
		a := absave.New(opts...)
		iterations := viper.GetInt("iterations")
		if iterations < 1 {
			iterations = 1
		}

		fmt.Printf("%-18s %10s %10s %8s %12s %12s\n", "model", "absave", "msgpack", "ratio", "absave/op", "msgpack/op")
		for _, c := range benchmark.Cases() {
			r, err := compareCase(a, c, iterations)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			ratio := fmt.Sprintf("%.2f", r.ratio())
			if r.absaveSize <= r.msgpackSize {
				ratio = color.GreenString("%8s", ratio)
			} else {
				ratio = color.RedString("%8s", ratio)
			}
			fmt.Printf("%-18s %10d %10d %s %12s %12s\n", c.Name, r.absaveSize, r.msgpackSize, ratio, r.absaveTime, r.msgpackTime)
		}

		stats := a.Stats()
		fmt.Printf("\nabsave documents: %d written, %d read, %d failed, mean size %.1f bytes\n",
			stats.Written(), stats.Read(), stats.Failed(), stats.MeanSize())
		if viper.GetBool("metrics") {
			fmt.Println()
			absave.WriteMetrics(os.Stdout)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().Int("iterations", 1000, WrapString("Round trips per model used for timing"))
	compareCmd.Flags().Bool("metrics", false, WrapString("Print the engine metrics in Prometheus format afterwards"))
}

type comparison struct {
	absaveSize  int
	msgpackSize int
	absaveTime  time.Duration
	msgpackTime time.Duration
}

func (c comparison) ratio() float64 {
	if c.msgpackSize == 0 {
		return 0
	}
	return float64(c.absaveSize) / float64(c.msgpackSize)
}

// compareCase round trips c through both formats and reports sizes and the
// mean time per round trip.
func compareCase(a *absave.ABSave, c benchmark.Case, iterations int) (comparison, error) {
	var r comparison

	start := time.Now()
	for i := 0; i < iterations; i++ {
		data, err := a.Marshal(c.Value)
		if err != nil {
			return r, err
		}
		if err := a.Unmarshal(data, c.New()); err != nil {
			return r, err
		}
		r.absaveSize = len(data)
	}
	r.absaveTime = time.Since(start) / time.Duration(iterations)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		data, err := msgpack.Marshal(c.Value)
		if err != nil {
			return r, err
		}
		if err := msgpack.Unmarshal(data, c.New()); err != nil {
			return r, err
		}
		r.msgpackSize = len(data)
	}
	r.msgpackTime = time.Since(start) / time.Duration(iterations)
	return r, nil
}
