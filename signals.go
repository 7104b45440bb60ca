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
	"time"

	"github.com/zoobzio/capitan"
)

// Signals emitted by the engine. Subscribe through capitan to observe map
// generation and completed operations.
var (
	SignalItemGenerated     = capitan.NewSignal("absave.map.item.generated", "Map item resolved")
	SignalMarshalComplete   = capitan.NewSignal("absave.marshal.complete", "Marshal operation finished")
	SignalUnmarshalComplete = capitan.NewSignal("absave.unmarshal.complete", "Unmarshal operation finished")
)

// Field keys attached to signals.
var (
	KeyTypeName  = capitan.NewStringKey("type_name")
	KeyConverter = capitan.NewStringKey("converter")
	KeyItemID    = capitan.NewIntKey("item_id")
	KeySize      = capitan.NewIntKey("size")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
)

func emitItemGenerated(ctx context.Context, item *MapItem, converter string, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(item.typ.String()),
		KeyItemID.Field(item.id),
	}
	if err != nil {
		recordError(err)
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalItemGenerated, fields...)
		return
	}
	itemsGenerated.Inc()
	fields = append(fields, KeyConverter.Field(converter))
	capitan.Emit(ctx, SignalItemGenerated, fields...)
}

func emitMarshalComplete(ctx context.Context, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalMarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalMarshalComplete, fields...)
	}
}

func emitUnmarshalComplete(ctx context.Context, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalUnmarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalUnmarshalComplete, fields...)
	}
}
