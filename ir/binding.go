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

package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vertexml/tile/types/shapes"
)

// BindingTag discriminates the variants of a Binding.
type BindingTag int

//go:generate stringer -type=BindingTag -output=binding_string.go

const (
	BindingTensor BindingTag = iota
	BindingIConst
	BindingFConst
	BindingTuple
)

// Binding is the inferred value-like annotation of an expression node: a
// shape for tensors, the literal value for known constants, or a tuple of
// bindings.
//
// An FConst binding keeps its dtype in Shape (a scalar shape), so a constant
// that has been cast keeps track of its width.
type Binding struct {
	Tag    BindingTag
	Shape  shapes.Shape
	IConst int64
	FConst float64
	Tuple  []Binding
}

// TensorBinding returns a Binding for a tensor of the given shape.
func TensorBinding(shape shapes.Shape) Binding {
	return Binding{Tag: BindingTensor, Shape: shape}
}

// IConstBinding returns a Binding holding a known integer constant.
func IConstBinding(value int64) Binding {
	return Binding{Tag: BindingIConst, IConst: value}
}

// FConstBinding returns a Binding holding a known float constant of the given
// dtype.
func FConstBinding(value float64, dtype shapes.DType) Binding {
	return Binding{Tag: BindingFConst, Shape: shapes.Scalar(dtype), FConst: value}
}

// TupleBinding returns a Binding holding the given element bindings.
func TupleBinding(elements ...Binding) Binding {
	return Binding{Tag: BindingTuple, Tuple: elements}
}

// String implements fmt.Stringer.
func (b Binding) String() string {
	switch b.Tag {
	case BindingTensor:
		return b.Shape.String()
	case BindingIConst:
		return strconv.FormatInt(b.IConst, 10)
	case BindingFConst:
		return fmt.Sprintf("%v", b.Shape.DType.CastScalar(b.FConst))
	case BindingTuple:
		parts := make([]string, 0, len(b.Tuple))
		for _, element := range b.Tuple {
			parts = append(parts, element.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	}
	return b.Tag.String()
}
