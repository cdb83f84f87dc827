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

package edsl

import (
	"github.com/pkg/errors"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types/shapes"
)

// RngStateSize is the per-lane state width of the PRNG, fixed and shared with
// the downstream runtime: a valid PRNG state tensor has shape
// (UInt32)[3 RngStateSize].
const RngStateSize = 2048

// SpecialOp computes the output shape of a function whose shape semantics
// are not derivable from elementwise broadcasting.
type SpecialOp func(args []ir.Binding) (shapes.Shape, error)

// specialOps is the process-wide registry, populated once at init time and
// read-only afterwards. Concurrent reads are safe; registering after init is
// not a supported mode.
var specialOps = map[string]SpecialOp{}

// RegisterSpecialOp adds a shape-inference rule for the named function,
// overriding default broadcasting. Call it from an init function.
func RegisterSpecialOp(name string, op SpecialOp) {
	specialOps[name] = op
}

// resolveSpecialOp returns the rule registered for the name, if any.
func resolveSpecialOp(name string) (SpecialOp, bool) {
	op, found := specialOps[name]
	return op, found
}

func init() {
	RegisterSpecialOp("as_float", castOp("as_float", shapes.Float16, shapes.Float32, shapes.Float64))
	RegisterSpecialOp("as_int", castOp("as_int", shapes.Int16, shapes.Int32, shapes.Int64))
	RegisterSpecialOp("as_uint", castOp("as_uint", shapes.UInt16, shapes.UInt32, shapes.UInt64))
	for _, cmp := range []string{"cmp_eq", "cmp_ne", "cmp_lt", "cmp_le", "cmp_gt", "cmp_ge"} {
		RegisterSpecialOp(cmp, booleanOp)
	}
	RegisterSpecialOp("element", elementOp)
	RegisterSpecialOp("gather", gatherOp)
	RegisterSpecialOp("index", indexOp)
	RegisterSpecialOp("prng_state", prngStateOp)
	RegisterSpecialOp("prng_step", prngStepOp)
	RegisterSpecialOp("prng_value", prngValueOp)
	RegisterSpecialOp("reshape", reshapeOp)
	RegisterSpecialOp("scatter", scatterOp)
	RegisterSpecialOp("shape", shapeOp)
}

// reshapeOp: reshape(t, s1, s2, ...) reinterprets t with the given sizes.
func reshapeOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) < 1 {
		return shapes.Invalid(), errors.Errorf("'reshape' requires at least one argument")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'reshape' requires the first argument to be a tensor")
	}
	sizes := make([]int, 0, len(args)-1)
	for _, arg := range args[1:] {
		if arg.Tag != ir.BindingIConst {
			return shapes.Invalid(), errors.Errorf("additional parameters to 'reshape' must be integers")
		}
		sizes = append(sizes, int(arg.IConst))
	}
	return shapes.SimpleShape(args[0].Shape.DType, sizes...), nil
}

// booleanOp: comparisons broadcast like elementwise ops but always produce
// Bool, whatever the input dtypes.
func booleanOp(args []ir.Binding) (shapes.Shape, error) {
	shape, err := computeOutputShape(args)
	if err != nil {
		return shapes.Invalid(), err
	}
	shape.DType = shapes.Bool
	return shape, nil
}

// castOp builds the as_float/as_int/as_uint rule over the given 16/32/64-bit
// dtype variants.
func castOp(fn string, dtype16, dtype32, dtype64 shapes.DType) SpecialOp {
	return func(args []ir.Binding) (shapes.Shape, error) {
		if len(args) != 2 {
			return shapes.Invalid(), errors.Errorf("'%s' requires 2 arguments", fn)
		}
		if args[0].Tag != ir.BindingTensor {
			return shapes.Invalid(), errors.Errorf("'%s' requires the first argument to be a tensor", fn)
		}
		if args[1].Tag != ir.BindingIConst {
			return shapes.Invalid(), errors.Errorf("'%s' requires the second argument to be an integer", fn)
		}
		shape := args[0].Shape.Clone()
		switch args[1].IConst {
		case 16:
			shape.DType = dtype16
		case 32:
			shape.DType = dtype32
		case 64:
			shape.DType = dtype64
		default:
			return shapes.Invalid(), errors.Errorf("'%s' requires the width to be one of: (16, 32, 64)", fn)
		}
		return shape, nil
	}
}

// indexOp: index(t, axis) yields the iteration coordinate along axis for
// every element of t.
func indexOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 2 {
		return shapes.Invalid(), errors.Errorf("'index' requires 2 arguments")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'index' requires the first argument to be a tensor")
	}
	if args[1].Tag != ir.BindingIConst {
		return shapes.Invalid(), errors.Errorf("'index' requires the second argument to be an integer")
	}
	shape := args[0].Shape.Clone()
	shape.DType = shapes.Int32
	return shape, nil
}

// elementOp: element(tuple, i) selects the i-th element of a tuple binding.
func elementOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 2 {
		return shapes.Invalid(), errors.Errorf("'element' requires 2 arguments")
	}
	if args[0].Tag != ir.BindingTuple {
		return shapes.Invalid(), errors.Errorf("'element' requires the first argument to be a tuple")
	}
	if args[1].Tag != ir.BindingIConst {
		return shapes.Invalid(), errors.Errorf("'element' requires the second argument to be an integer")
	}
	element := args[1].IConst
	if element < 0 || element >= int64(len(args[0].Tuple)) {
		return shapes.Invalid(), errors.Errorf("'element' requires the second argument to be within the bounds of the tuple")
	}
	if args[0].Tuple[element].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'element' requires the resulting binding to be a tensor")
	}
	return args[0].Tuple[element].Shape, nil
}

// gatherOp: gather(data, idx) picks rows of data by the Int32 indices idx.
func gatherOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 2 {
		return shapes.Invalid(), errors.Errorf("'gather' requires 2 arguments")
	}
	data, index := args[0], args[1]
	if data.Tag != ir.BindingTensor || index.Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'gather' requires both arguments to be tensors")
	}
	if data.Shape.Rank() == 0 {
		return shapes.Invalid(), errors.Errorf("'gather' requires first argument to have at least one dimension")
	}
	if index.Shape.DType != shapes.Int32 {
		return shapes.Invalid(), errors.Errorf("'gather' requires the data type for the second argument to be Int32")
	}
	sizes := append(index.Shape.Sizes(), data.Shape.Sizes()[1:]...)
	return shapes.SimpleShape(data.Shape.DType, sizes...), nil
}

// scatterOp: scatter(data, idx, upd) yields a tensor of data's dtype whose
// leading dimension is upd's first dimension, followed by the dimensions of
// data past the rank of idx.
func scatterOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 3 {
		return shapes.Invalid(), errors.Errorf("'scatter' requires 3 arguments")
	}
	if args[0].Tag != ir.BindingTensor || args[1].Tag != ir.BindingTensor || args[2].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'scatter' requires all arguments to be tensors")
	}
	if args[0].Shape.Rank() == 0 {
		return shapes.Invalid(), errors.Errorf("'scatter' requires first argument to have at least one dimension")
	}
	if args[1].Shape.DType != shapes.Int32 {
		return shapes.Invalid(), errors.Errorf("'scatter' requires the data type for the second argument to be Int32")
	}
	sizes := []int{args[2].Shape.Dims[0].Size}
	sizes = append(sizes, args[0].Shape.Sizes()[args[1].Shape.Rank():]...)
	return shapes.SimpleShape(args[0].Shape.DType, sizes...), nil
}

// shapeOp: shape(t) yields the sizes of t as an Int32 vector.
func shapeOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 1 {
		return shapes.Invalid(), errors.Errorf("'shape' requires exactly one argument")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'shape' requires one argument that is a tensor")
	}
	return shapes.SimpleShape(shapes.Int32, args[0].Shape.Rank()), nil
}

func prngStateOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 1 {
		return shapes.Invalid(), errors.Errorf("'prng_state' requires exactly one argument")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'prng_state' requires one argument that is a tensor")
	}
	if args[0].Shape.DType != shapes.PRNG {
		return shapes.Invalid(), errors.Errorf("'prng_state' requires one argument that is the result of 'prng_step'")
	}
	return shapes.SimpleShape(shapes.UInt32, 3, RngStateSize), nil
}

func prngValueOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) != 1 {
		return shapes.Invalid(), errors.Errorf("'prng_value' requires exactly one argument")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'prng_value' requires one argument that is a tensor")
	}
	if args[0].Shape.DType != shapes.PRNG {
		return shapes.Invalid(), errors.Errorf("'prng_value' requires one argument that is the result of 'prng_step'")
	}
	return shapes.Shape{DType: shapes.Float32, Dims: args[0].Shape.Clone().Dims}, nil
}

func prngStepOp(args []ir.Binding) (shapes.Shape, error) {
	if len(args) < 1 {
		return shapes.Invalid(), errors.Errorf("'prng_step' must have at least one argument")
	}
	if args[0].Tag != ir.BindingTensor {
		return shapes.Invalid(), errors.Errorf("'prng_step' requires first argument to be a tensor")
	}
	if !args[0].Shape.Equal(shapes.SimpleShape(shapes.UInt32, 3, RngStateSize)) {
		return shapes.Invalid(), errors.Errorf("'prng_step' requires a valid PRNG state tensor")
	}
	sizes := make([]int, 0, len(args)-1)
	for _, arg := range args[1:] {
		if arg.Tag != ir.BindingIConst {
			return shapes.Invalid(), errors.Errorf("'prng_step' requires additional arguments to be integers")
		}
		sizes = append(sizes, int(arg.IConst))
	}
	return shapes.SimpleShape(shapes.PRNG, sizes...), nil
}
