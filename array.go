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
	"math"
	"reflect"
	"unsafe"
)

// MaxArrayRank is the highest rank Array supports.
const MaxArrayRank = 31

// Array is a dense array of any rank from 1 to MaxArrayRank, where every
// dimension may start at its own lower bound. Elements are stored in
// row-major order: the last dimension varies fastest.
type Array[T any] struct {
	lengths     []int
	lowerBounds []int
	data        []T
}

// NewArray creates a zero-based array with the given dimension lengths.
func NewArray[T any](lengths ...int) (*Array[T], error) {
	return NewArrayWithBounds[T](lengths, make([]int, len(lengths)))
}

// NewArrayWithBounds creates an array whose dimension i has lengths[i]
// elements starting at index lowerBounds[i].
func NewArrayWithBounds[T any](lengths, lowerBounds []int) (*Array[T], error) {
	if err := checkArrayShape(lengths, lowerBounds); err.HasError() {
		return nil, err.asError()
	}
	a := &Array[T]{}
	a.arrayInit(lengths, lowerBounds)
	return a, nil
}

func checkArrayShape(lengths, lowerBounds []int) Error {
	rank := len(lengths)
	if rank == 0 || rank > MaxArrayRank {
		return newError(ErrKindUnsupportedShape, "array rank %d is outside 1..%d", rank, MaxArrayRank)
	}
	if len(lowerBounds) != rank {
		return newError(ErrKindInvalidArgument, "%d lower bounds for rank %d", len(lowerBounds), rank)
	}
	total := 1
	for _, n := range lengths {
		if n < 0 {
			return newError(ErrKindInvalidArgument, "negative array length %d", n)
		}
		if n > 0 && total > math.MaxInt32/n {
			return newError(ErrKindUnsupportedShape, "array of lengths %v is too large", lengths)
		}
		total *= n
	}
	return Error{}
}

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int { return len(a.lengths) }

// Len returns the length of dimension dim.
func (a *Array[T]) Len(dim int) int { return a.lengths[dim] }

// LowerBound returns the first index of dimension dim.
func (a *Array[T]) LowerBound(dim int) int { return a.lowerBounds[dim] }

// Data returns the elements in row-major order.
func (a *Array[T]) Data() []T { return a.data }

// Get returns the element at the given indices, one per dimension.
func (a *Array[T]) Get(idx ...int) T {
	return a.data[a.offset(idx)]
}

// Set stores v at the given indices.
func (a *Array[T]) Set(v T, idx ...int) {
	a.data[a.offset(idx)] = v
}

func (a *Array[T]) offset(idx []int) int {
	if len(idx) != len(a.lengths) {
		panic("absave: wrong number of array indices")
	}
	off := 0
	for dim, i := range idx {
		i -= a.lowerBounds[dim]
		if i < 0 || i >= a.lengths[dim] {
			panic("absave: array index out of range")
		}
		off = off*a.lengths[dim] + i
	}
	return off
}

// multiArray lets the array converter handle every instantiation of Array.
type multiArray interface {
	arrayShape() (lengths, lowerBounds []int)
	arrayData() reflect.Value
	arrayElem() reflect.Type
	arrayInit(lengths, lowerBounds []int)
}

func (a *Array[T]) arrayShape() ([]int, []int) { return a.lengths, a.lowerBounds }

func (a *Array[T]) arrayData() reflect.Value { return reflect.ValueOf(a.data) }

func (a *Array[T]) arrayElem() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func (a *Array[T]) arrayInit(lengths, lowerBounds []int) {
	total := 1
	for _, n := range lengths {
		total *= n
	}
	a.lengths = append([]int(nil), lengths...)
	a.lowerBounds = append([]int(nil), lowerBounds...)
	a.data = make([]T, total)
}

var multiArrayType = reflect.TypeOf((*multiArray)(nil)).Elem()

func isMultiArray(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		return t.Elem().Kind() == reflect.Struct && t.Implements(multiArrayType)
	}
	return t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(multiArrayType)
}

func isArrayShape(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return isMultiArray(t)
	}
}

type arrayShape uint8

const (
	shapeSZ arrayShape = iota
	shapeFixed
	shapeMulti
)

// arrayConverter classifies its type once: slices are written with their
// length, Go arrays without one, and Array with rank, lengths and lower
// bounds.
type arrayConverter struct {
	typ      reflect.Type
	shape    arrayShape
	pointer  bool
	elemType reflect.Type
	elem     *MapItem
	// width is the element size in bytes for builtin fixed-width numbers,
	// 0 otherwise.
	width   int
	isFloat bool
}

func newArrayConverter(t reflect.Type) Converter {
	c := &arrayConverter{typ: t}
	switch {
	case t.Kind() == reflect.Slice:
		c.shape = shapeSZ
		c.elemType = t.Elem()
	case t.Kind() == reflect.Array:
		c.shape = shapeFixed
		c.elemType = t.Elem()
	default:
		c.shape = shapeMulti
		c.pointer = t.Kind() == reflect.Pointer
		st := t
		if c.pointer {
			st = t.Elem()
		}
		c.elemType = reflect.New(st).Interface().(multiArray).arrayElem()
	}
	c.width, c.isFloat = fastPathWidth(c.elemType)
	return c
}

func (c *arrayConverter) Initialize(ctx *InitContext) error {
	item, err := ctx.Item(c.elemType)
	if err != nil {
		return err
	}
	c.elem = item
	if c.width != 0 {
		conv, err := item.Converter()
		if err != nil {
			return err
		}
		if _, ok := conv.(primitiveConverter); !ok {
			c.width = 0
		}
	}
	return nil
}

// fastPathWidth returns the size of builtin fixed-width numbers, which
// can be copied in bulk.
func fastPathWidth(t reflect.Type) (int, bool) {
	switch t {
	case int8Type, uint8Type:
		return 1, false
	case int16Type, uint16Type:
		return 2, false
	case int32Type, uint32Type:
		return 4, false
	case int64Type, uint64Type:
		return 8, false
	case float32Type:
		return 4, true
	case float64Type:
		return 8, true
	default:
		return 0, false
	}
}

// bulk reports whether elements can be copied as raw memory under the
// current settings. Elements with a replaced converter never are.
func (c *arrayConverter) bulk(settings *Settings, little bool) bool {
	if c.width == 0 {
		return false
	}
	if c.width == 1 {
		return true
	}
	if settings.CompressPrimitives && !c.isFloat {
		return false
	}
	return little == nativeLittleEndian
}

func (c *arrayConverter) Serialize(s *Serializer, v reflect.Value) {
	switch c.shape {
	case shapeSZ:
		s.WriteLength(v.Len())
		c.writeElems(s, v)
	case shapeFixed:
		if !v.CanAddr() {
			tmp := reflect.New(c.typ).Elem()
			tmp.Set(v)
			v = tmp
		}
		c.writeElems(s, v)
	default:
		c.writeMulti(s, v)
	}
}

func (c *arrayConverter) writeElems(s *Serializer, v reflect.Value) {
	n := v.Len()
	if n == 0 {
		return
	}
	if c.bulk(s.settings, s.little) {
		s.WriteBytes(unsafe.Slice((*byte)(v.Index(0).Addr().UnsafePointer()), n*c.width))
		return
	}
	for i := 0; i < n; i++ {
		s.WriteItem(v.Index(i), c.elem)
	}
}

func (c *arrayConverter) Deserialize(d *Deserializer, v reflect.Value) {
	switch c.shape {
	case shapeSZ:
		n := d.ReadCollectionLength()
		if d.HasError() {
			return
		}
		out := reflect.MakeSlice(c.typ, n, n)
		c.readElems(d, out)
		if !d.HasError() {
			v.Set(out)
		}
	case shapeFixed:
		out := reflect.New(c.typ).Elem()
		c.readElems(d, out)
		if !d.HasError() {
			v.Set(out)
		}
	default:
		c.readMulti(d, v)
	}
}

func (c *arrayConverter) readElems(d *Deserializer, v reflect.Value) {
	n := v.Len()
	if n == 0 {
		return
	}
	if c.bulk(d.settings, d.little) {
		raw := d.ReadBytes(n * c.width)
		if d.HasError() {
			return
		}
		copy(unsafe.Slice((*byte)(v.Index(0).Addr().UnsafePointer()), n*c.width), raw)
		return
	}
	for i := 0; i < n && !d.HasError(); i++ {
		d.ReadItem(v.Index(i), c.elem)
	}
}

func (c *arrayConverter) multiOf(v reflect.Value) multiArray {
	if c.pointer {
		return v.Interface().(multiArray)
	}
	if !v.CanAddr() {
		tmp := reflect.New(c.typ)
		tmp.Elem().Set(v)
		return tmp.Interface().(multiArray)
	}
	return v.Addr().Interface().(multiArray)
}

func (c *arrayConverter) writeMulti(s *Serializer, v reflect.Value) {
	arr := c.multiOf(v)
	lengths, bounds := arr.arrayShape()
	rank := len(lengths)
	if rank == 0 || rank > MaxArrayRank {
		s.SetError(newError(ErrKindUnsupportedShape, "array rank %d is outside 1..%d", rank, MaxArrayRank))
		return
	}
	s.WriteInteger(uint32(rank), 5)
	zeroBounds := true
	for _, b := range bounds {
		if b != 0 {
			zeroBounds = false
			break
		}
	}
	if rank == 1 {
		s.WriteBitWith(!zeroBounds)
		s.WriteLength(lengths[0])
		if !zeroBounds {
			s.WriteCompressedInt64(int64(bounds[0]))
		}
		c.writeElems(s, arr.arrayData())
		return
	}
	s.WriteBitWith(zeroBounds)
	for _, n := range lengths {
		s.WriteLength(n)
	}
	if !zeroBounds {
		for _, b := range bounds {
			s.WriteCompressedInt64(int64(b))
		}
	}
	data := arr.arrayData()
	idx := make([]int, rank)
	c.walk(lengths, idx, 0, func(off int) {
		s.WriteItem(data.Index(off), c.elem)
	})
}

func (c *arrayConverter) readMulti(d *Deserializer, v reflect.Value) {
	rank := int(d.ReadInteger(5))
	if d.HasError() {
		return
	}
	if rank == 0 {
		d.SetError(newError(ErrKindUnsupportedShape, "array rank 0"))
		return
	}
	lengths := make([]int, rank)
	bounds := make([]int, rank)
	if rank == 1 {
		custom := d.ReadBit()
		lengths[0] = d.ReadCollectionLength()
		if custom {
			bounds[0] = d.readBound()
		}
	} else {
		zeroBounds := d.ReadBit()
		for i := range lengths {
			lengths[i] = d.ReadCollectionLength()
		}
		if !zeroBounds {
			for i := range bounds {
				bounds[i] = d.readBound()
			}
		}
	}
	if d.HasError() {
		return
	}
	if err := checkArrayShape(lengths, bounds); err.HasError() {
		d.SetError(err)
		return
	}
	total := 1
	for _, n := range lengths {
		total *= n
	}
	if limit := d.settings.MaxCollectionSize; limit > 0 && total > limit {
		d.SetError(collectionSizeError(total, limit))
		return
	}
	target := c.typ
	if c.pointer {
		target = c.typ.Elem()
	}
	p := reflect.New(target)
	arr := p.Interface().(multiArray)
	arr.arrayInit(lengths, bounds)
	data := arr.arrayData()
	if rank == 1 {
		c.readElems(d, data)
	} else {
		idx := make([]int, rank)
		c.walk(lengths, idx, 0, func(off int) {
			d.ReadItem(data.Index(off), c.elem)
		})
	}
	if d.HasError() {
		return
	}
	if c.pointer {
		v.Set(p)
	} else {
		v.Set(p.Elem())
	}
}

func (d *Deserializer) readBound() int {
	b := d.ReadCompressedInt64()
	if b < math.MinInt32 || b > math.MaxInt32 {
		d.SetError(newError(ErrKindInvalidData, "array lower bound %d out of range", b))
		return 0
	}
	return int(b)
}

// walk visits every element in row-major order, one recursion level per
// dimension. idx[dim] is restored before returning.
func (c *arrayConverter) walk(lengths, idx []int, dim int, visit func(off int)) {
	saved := idx[dim]
	for i := 0; i < lengths[dim]; i++ {
		idx[dim] = i
		if dim == len(lengths)-1 {
			off := 0
			for k, n := range lengths {
				off = off*n + idx[k]
			}
			visit(off)
		} else {
			c.walk(lengths, idx, dim+1, visit)
		}
	}
	idx[dim] = saved
}
