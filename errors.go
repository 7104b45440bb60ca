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
	"reflect"
)

// ErrorKind classifies every failure the engine can report.
type ErrorKind uint8

const (
	ErrKindOK ErrorKind = iota
	ErrKindUnserializableType
	ErrKindInvalidConfiguration
	ErrKindUnsupportedShape
	ErrKindNullDictionaryKey
	ErrKindUnsupportedVersion
	ErrKindAbstractType
	ErrKindBufferOutOfBound
	ErrKindCorruptCompressedInt
	ErrKindMaxCollectionSizeExceeded
	ErrKindMaxBinarySizeExceeded
	ErrKindSchemaMismatch
	ErrKindUnknownType
	ErrKindInvalidData
	ErrKindInvalidArgument
	ErrKindMaxDepthExceeded
)

var errorKindNames = [...]string{
	ErrKindOK:                        "ok",
	ErrKindUnserializableType:        "unserializable_type",
	ErrKindInvalidConfiguration:      "invalid_configuration",
	ErrKindUnsupportedShape:          "unsupported_shape",
	ErrKindNullDictionaryKey:         "null_dictionary_key",
	ErrKindUnsupportedVersion:        "unsupported_version",
	ErrKindAbstractType:              "abstract_type",
	ErrKindBufferOutOfBound:          "buffer_out_of_bound",
	ErrKindCorruptCompressedInt:      "corrupt_compressed_int",
	ErrKindMaxCollectionSizeExceeded: "max_collection_size_exceeded",
	ErrKindMaxBinarySizeExceeded:     "max_binary_size_exceeded",
	ErrKindSchemaMismatch:            "schema_mismatch",
	ErrKindUnknownType:               "unknown_type",
	ErrKindInvalidData:               "invalid_data",
	ErrKindInvalidArgument:           "invalid_argument",
	ErrKindMaxDepthExceeded:          "max_depth_exceeded",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("error_kind(%d)", uint8(k))
}

// Error is the single error type produced by the engine. The zero value means
// "no error", which lets the facades carry one by value and record only the
// first failure of an operation.
type Error struct {
	kind    ErrorKind
	message string
	cause   error
}

// newError builds an Error of the given kind.
func newError(kind ErrorKind, format string, args ...any) Error {
	return Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// FromError converts an arbitrary error into an Error, keeping its kind when
// it already is one.
func FromError(err error) Error {
	if err == nil {
		return Error{}
	}
	var e *Error
	if errors.As(err, &e) {
		return *e
	}
	return Error{kind: ErrKindInvalidData, message: err.Error(), cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return fmt.Sprintf("absave: %s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("absave: %s: %s", e.kind, e.message)
}

// HasError reports whether e holds a failure.
func (e *Error) HasError() bool {
	return e.kind != ErrKindOK
}

// Kind returns the failure classification.
func (e *Error) Kind() ErrorKind {
	return e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{kind})
// style checks work through wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.kind == e.kind
}

// Sentinel values for errors.Is checks.
var (
	ErrUnserializableType   = &Error{kind: ErrKindUnserializableType}
	ErrInvalidConfiguration = &Error{kind: ErrKindInvalidConfiguration}
	ErrUnsupportedShape     = &Error{kind: ErrKindUnsupportedShape}
	ErrNullDictionaryKey    = &Error{kind: ErrKindNullDictionaryKey}
	ErrUnsupportedVersion   = &Error{kind: ErrKindUnsupportedVersion}
	ErrAbstractType         = &Error{kind: ErrKindAbstractType}
	ErrSchemaMismatch       = &Error{kind: ErrKindSchemaMismatch}
	ErrUnknownType          = &Error{kind: ErrKindUnknownType}
)

// asError returns e as an error value, or nil when e is empty.
func (e Error) asError() error {
	if e.kind == ErrKindOK {
		return nil
	}
	return &e
}

func unserializableTypeError(t reflect.Type) Error {
	return newError(ErrKindUnserializableType,
		"no converter for %v and it is not marked for member serialization", t)
}

func invalidConfigurationError(t reflect.Type, format string, args ...any) Error {
	return newError(ErrKindInvalidConfiguration, "%v: %s", t, fmt.Sprintf(format, args...))
}

func unsupportedVersionError(t reflect.Type, version, highest uint32) Error {
	return newError(ErrKindUnsupportedVersion,
		"version %d of %v requested, highest is %d", version, t, highest)
}

func abstractTypeError(t reflect.Type) Error {
	return newError(ErrKindAbstractType, "%v is abstract and cannot be serialized directly", t)
}

func bufferOutOfBoundError(pos, need, size int) Error {
	return newError(ErrKindBufferOutOfBound,
		"need %d bytes at offset %d, only %d available", need, pos, size-pos)
}

func collectionSizeError(size, limit int) Error {
	return newError(ErrKindMaxCollectionSizeExceeded,
		"collection size %d exceeds limit %d", size, limit)
}

func binarySizeError(size, limit int) Error {
	return newError(ErrKindMaxBinarySizeExceeded,
		"binary size %d exceeds limit %d", size, limit)
}
