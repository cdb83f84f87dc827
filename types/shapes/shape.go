/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package shapes defines Shape and DType and associated tools.
//
// Shape represents the shape (rank, dimensions and DType) of either a concrete
// tensor or the expected shape of a node in an expression graph. DType
// indicates the type of the unit element of a tensor.
//
// Unlike a plain dimensions list, each axis carries a Dimension with both its
// size and its stride in elements, with strides derivable from sizes in
// row-major order (see SimpleShape). Scalar shapes have an empty dimension
// sequence.
package shapes

import (
	"encoding/gob"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Dimension is one axis of a Shape: its size and its stride in elements.
type Dimension struct {
	Size   int
	Stride int
}

// Shape represents the shape of either a tensor or the expected value of an
// expression graph node.
//
// Use SimpleShape to create a shape with row-major (contiguous) strides.
type Shape struct {
	DType DType
	Dims  []Dimension
}

// SimpleShape returns a Shape of the given element type whose strides are the
// contiguous row-major strides for sizes.
func SimpleShape(dtype DType, sizes ...int) Shape {
	dims := make([]Dimension, len(sizes))
	stride := 1
	for axis := len(sizes) - 1; axis >= 0; axis-- {
		dims[axis] = Dimension{Size: sizes[axis], Stride: stride}
		stride *= sizes[axis]
	}
	return Shape{DType: dtype, Dims: dims}
}

// Scalar returns a rank-0 Shape of the given element type.
func Scalar(dtype DType) Shape { return Shape{DType: dtype} }

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape { return Shape{DType: InvalidDType} }

// Ok returns whether this is a valid Shape. A "zero" shape, that is just
// instantiating it with Shape{}, will be invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dims) }

// IsScalar returns whether the shape represents a scalar: no dimensions.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis.
func (s Shape) Dim(axis int) Dimension { return s.Dims[axis] }

// Sizes returns the per-axis sizes of the shape, without strides.
func (s Shape) Sizes() []int {
	sizes := make([]int, len(s.Dims))
	for axis, dim := range s.Dims {
		sizes[axis] = dim.Size
	}
	return sizes
}

// Shape returns a shallow copy of itself.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dims {
		parts = append(parts, fmt.Sprintf("%d", dim.Size))
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Size returns the number of elements of DType needed for this shape. It's the
// product of all dimension sizes.
func (s Shape) Size() (size int) {
	size = 1
	for _, dim := range s.Dims {
		size *= dim.Size
	}
	return
}

// ByteSize returns the memory needed to store a contiguous tensor of this shape.
func (s Shape) ByteSize() int { return s.Size() * s.DType.ByteSize() }

// Equal compares two shapes for equality: dtype, sizes and strides.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return slices.Equal(s.Dims, s2.Dims)
}

// EqualDimensions compares the dimensions of two shapes. DTypes can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dims, s2.Dims)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dims = slices.Clone(s.Dims)
	return
}

// RecomputeStrides resets the strides to the contiguous row-major strides for
// the current sizes. Used after broadcasting changes dimension sizes.
func (s *Shape) RecomputeStrides() {
	stride := 1
	for axis := len(s.Dims) - 1; axis >= 0; axis-- {
		s.Dims[axis].Stride = stride
		stride *= s.Dims[axis].Size
	}
}

// GobSerialize shape in binary format.
func (s Shape) GobSerialize(encoder *gob.Encoder) (err error) {
	enc := func(e any) {
		if err != nil {
			return
		}
		err = encoder.Encode(e)
		if err != nil {
			err = errors.Wrapf(err, "failed to serialize Shape %s", s)
		}
	}
	enc(s.DType)
	enc(s.Dims)
	return
}

// GobDeserialize a Shape. Returns new Shape or an error.
func GobDeserialize(decoder *gob.Decoder) (s Shape, err error) {
	dec := func(data any) {
		if err != nil {
			return
		}
		err = decoder.Decode(data)
		if err != nil {
			err = errors.Wrapf(err, "failed to deserialize Shape")
		}
	}
	dec(&s.DType)
	dec(&s.Dims)
	return
}
