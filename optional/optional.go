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

// Package optional provides a value wrapper that may or may not hold a
// value. absave encodes it as one presence bit followed by the value.
package optional

// Optional holds a T when Has is set. The zero value is empty.
type Optional[T any] struct {
	Value T
	Has   bool
}

// Some wraps v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Has: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr wraps *v, or returns None for a nil pointer.
func FromPtr[T any](v *T) Optional[T] {
	if v == nil {
		return None[T]()
	}
	return Some(*v)
}

// Ptr returns a pointer to a copy of the value, or nil.
func (o Optional[T]) Ptr() *T {
	if !o.Has {
		return nil
	}
	v := o.Value
	return &v
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Has
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool { return o.Has }

// IsNone reports whether the Optional is empty.
func (o Optional[T]) IsNone() bool { return !o.Has }

// UnwrapOr returns the value, or fallback when empty.
func (o Optional[T]) UnwrapOr(fallback T) T {
	if o.Has {
		return o.Value
	}
	return fallback
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.Value = v
	o.Has = true
}

// Clear empties the Optional.
func (o *Optional[T]) Clear() {
	var zero T
	o.Value = zero
	o.Has = false
}

// Map applies f to a present value.
func Map[T, U any](o Optional[T], f func(T) U) Optional[U] {
	if o.Has {
		return Some(f(o.Value))
	}
	return None[U]()
}
