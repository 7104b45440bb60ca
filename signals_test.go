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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/capitan"
)

type signalSample struct {
	N int32 `absave:"0"`
}

type signalChannel chan string

// capturedEvent copies what a listener saw, since capitan recycles events
// once the callback returns.
type capturedEvent struct {
	severity  capitan.Severity
	typeName  string
	converter string
	itemID    int
	size      int
	hasSize   bool
	duration  time.Duration
	err       error
}

// captureSignal hooks signal and forwards events whose type name matches
// typeName. Other tests share the default capitan instance, so the filter
// keeps their events out.
func captureSignal(t *testing.T, signal capitan.Signal, typeName string) <-chan capturedEvent {
	t.Helper()
	events := make(chan capturedEvent, 16)
	listener := capitan.Hook(signal, func(_ context.Context, e *capitan.Event) {
		name, _ := KeyTypeName.From(e)
		if name != typeName {
			return
		}
		c := capturedEvent{severity: e.Severity(), typeName: name}
		c.converter, _ = KeyConverter.From(e)
		c.itemID, _ = KeyItemID.From(e)
		c.size, c.hasSize = KeySize.From(e)
		c.duration, _ = KeyDuration.From(e)
		c.err, _ = KeyError.From(e)
		select {
		case events <- c:
		default:
		}
	})
	require.NotNil(t, listener)
	t.Cleanup(listener.Close)
	return events
}

func nextEvent(t *testing.T, events <-chan capturedEvent) capturedEvent {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		require.FailNow(t, "signal not delivered")
		return capturedEvent{}
	}
}

func TestSignalNames(t *testing.T) {
	assert.Equal(t, "absave.map.item.generated", SignalItemGenerated.Name())
	assert.Equal(t, "absave.marshal.complete", SignalMarshalComplete.Name())
	assert.Equal(t, "absave.unmarshal.complete", SignalUnmarshalComplete.Name())
}

func TestItemGeneratedSignal(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		typ := reflect.TypeOf(signalSample{})
		events := captureSignal(t, SignalItemGenerated, typ.String())

		m := NewMap(DefaultSettings())
		item, err := m.GetItem(typ)
		require.NoError(t, err)

		e := nextEvent(t, events)
		assert.Equal(t, capitan.SeverityInfo, e.severity)
		assert.Equal(t, "absave.signalSample", e.typeName)
		assert.Equal(t, "*absave.ObjectConverter", e.converter)
		assert.Equal(t, item.id, e.itemID)
		assert.NoError(t, e.err)
	})

	t.Run("failed", func(t *testing.T) {
		typ := reflect.TypeOf(signalChannel(nil))
		events := captureSignal(t, SignalItemGenerated, typ.String())

		_, err := NewMap(DefaultSettings()).GetItem(typ)
		require.Error(t, err)

		e := nextEvent(t, events)
		assert.Equal(t, capitan.SeverityError, e.severity)
		assert.Empty(t, e.converter)
		require.Error(t, e.err)
		assert.Equal(t, ErrKindUnserializableType, kindOf(e.err))
	})
}

func TestOperationCompleteSignals(t *testing.T) {
	typeName := reflect.TypeOf(signalSample{}).String()

	t.Run("marshal and unmarshal", func(t *testing.T) {
		marshaled := captureSignal(t, SignalMarshalComplete, typeName)
		unmarshaled := captureSignal(t, SignalUnmarshalComplete, typeName)

		a := New()
		data, err := a.Marshal(signalSample{N: 4})
		require.NoError(t, err)
		e := nextEvent(t, marshaled)
		assert.Equal(t, capitan.SeverityInfo, e.severity)
		assert.True(t, e.hasSize)
		assert.Equal(t, len(data), e.size)
		assert.GreaterOrEqual(t, e.duration, time.Duration(0))
		assert.NoError(t, e.err)

		var out signalSample
		require.NoError(t, a.Unmarshal(data, &out))
		e = nextEvent(t, unmarshaled)
		assert.Equal(t, capitan.SeverityInfo, e.severity)
		assert.Equal(t, len(data), e.size)
		assert.NoError(t, e.err)
	})

	t.Run("unmarshal failure", func(t *testing.T) {
		unmarshaled := captureSignal(t, SignalUnmarshalComplete, typeName)

		var out signalSample
		err := New().Unmarshal([]byte{0x01}, &out)
		require.Error(t, err)

		e := nextEvent(t, unmarshaled)
		assert.Equal(t, capitan.SeverityError, e.severity)
		assert.Equal(t, 1, e.size)
		require.Error(t, e.err)
		assert.Equal(t, kindOf(err), kindOf(e.err))
	})

	t.Run("marshal failure", func(t *testing.T) {
		name := reflect.TypeOf(signalChannel(nil)).String()
		marshaled := captureSignal(t, SignalMarshalComplete, name)

		_, err := New().Marshal(make(signalChannel))
		require.Error(t, err)

		e := nextEvent(t, marshaled)
		assert.Equal(t, capitan.SeverityError, e.severity)
		assert.Equal(t, 0, e.size)
		assert.Equal(t, ErrKindUnserializableType, kindOf(e.err))
	})
}
