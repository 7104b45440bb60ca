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
	"errors"
	"fmt"
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// engineMetrics is process wide, like the capitan signals. Per-instance
// statistics live in Stats.
var engineMetrics = vm.NewSet()

var (
	itemsGenerated   = engineMetrics.GetOrCreateCounter("absave_map_items_generated_total")
	marshalCount     = engineMetrics.GetOrCreateCounter("absave_marshal_total")
	unmarshalCount   = engineMetrics.GetOrCreateCounter("absave_unmarshal_total")
	bytesWritten     = engineMetrics.GetOrCreateCounter("absave_bytes_written_total")
	bytesRead        = engineMetrics.GetOrCreateCounter("absave_bytes_read_total")
	marshalDuration  = engineMetrics.GetOrCreateHistogram("absave_marshal_duration_seconds")
	unmarshalLatency = engineMetrics.GetOrCreateHistogram("absave_unmarshal_duration_seconds")
)

// WriteMetrics writes the engine counters in Prometheus text format.
func WriteMetrics(w io.Writer) {
	engineMetrics.WritePrometheus(w)
}

func recordError(err error) {
	kind := ErrKindInvalidArgument
	var e *Error
	if errors.As(err, &e) {
		kind = e.Kind()
	}
	engineMetrics.GetOrCreateCounter(fmt.Sprintf(`absave_errors_total{kind=%q}`, kind.String())).Inc()
}

func recordMarshal(start time.Time, size int, err error) {
	marshalCount.Inc()
	marshalDuration.UpdateDuration(start)
	if err != nil {
		recordError(err)
		return
	}
	bytesWritten.Add(size)
}

func recordUnmarshal(start time.Time, size int, err error) {
	unmarshalCount.Inc()
	unmarshalLatency.UpdateDuration(start)
	if err != nil {
		recordError(err)
		return
	}
	bytesRead.Add(size)
}

// Stats keeps document statistics for one ABSave instance. It holds only
// counters and a sampled histogram, none of which go-metrics ticks in the
// background, so an instance needs no Close.
type Stats struct {
	registry gometrics.Registry
	written  gometrics.Counter
	read     gometrics.Counter
	sizes    gometrics.Histogram
	failures gometrics.Counter
}

func newStats() *Stats {
	r := gometrics.NewRegistry()
	return &Stats{
		registry: r,
		written:  gometrics.GetOrRegisterCounter("documents.written", r),
		read:     gometrics.GetOrRegisterCounter("documents.read", r),
		sizes:    gometrics.GetOrRegisterHistogram("documents.size", r, gometrics.NewUniformSample(1028)),
		failures: gometrics.GetOrRegisterCounter("documents.failed", r),
	}
}

func (st *Stats) observe(written bool, size int, err error) {
	if err != nil {
		st.failures.Inc(1)
		return
	}
	if written {
		st.written.Inc(1)
	} else {
		st.read.Inc(1)
	}
	st.sizes.Update(int64(size))
}

// Written returns the number of documents written.
func (st *Stats) Written() int64 { return st.written.Count() }

// Read returns the number of documents read.
func (st *Stats) Read() int64 { return st.read.Count() }

// Failed returns the number of failed operations.
func (st *Stats) Failed() int64 { return st.failures.Count() }

// MeanSize returns the mean document size in bytes.
func (st *Stats) MeanSize() float64 { return st.sizes.Mean() }

// Registry exposes the underlying registry, for reporters.
func (st *Stats) Registry() gometrics.Registry { return st.registry }
