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
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types/shapes"
)

// mergeShapes folds shape into *into under NumPy broadcasting rules:
// dimensions are right-aligned, equal sizes pass through, a size of 1
// broadcasts to the other side, and unaligned leading dimensions of the
// longer shape are prepended. Returns whether any broadcast occurred.
func mergeShapes(into *shapes.Shape, shape shapes.Shape) (bool, error) {
	if klog.V(4).Enabled() {
		klog.Infof("mergeShapes: %s, %s", into, shape)
	}
	if shape.Rank() == 0 {
		return false, nil
	}
	if into.Rank() == 0 {
		into.Dims = slices.Clone(shape.Dims)
		return false, nil
	}
	if slices.Equal(into.Dims, shape.Dims) {
		return false, nil
	}
	dst := into.Rank() - 1
	src := shape.Rank() - 1
	for ; ; dst, src = dst-1, src-1 {
		if src < 0 {
			// shape broadcasts to *into.
			break
		}
		if dst < 0 {
			// Anything that was used to produce *into can be broadcast to
			// shape; augment *into with the remaining leading dimensions.
			into.Dims = append(slices.Clone(shape.Dims[:src+1]), into.Dims...)
			break
		}
		srcDim := shape.Dims[src].Size
		dstDim := into.Dims[dst].Size
		if srcDim == dstDim || srcDim == 1 {
			continue
		}
		if dstDim == 1 {
			into.Dims[dst].Size = srcDim
			continue
		}
		return false, errors.Errorf("mismatched tensor shapes in elementwise operation: %s can't match %s",
			into, shape)
	}
	return true, nil
}

// computeOutputType is the dtype promotion rule for elementwise operations:
// any float beats any non-float; among two floats, or two non-floats, the
// wider bit width wins.
func computeOutputType(inputs []shapes.Shape) shapes.DType {
	result := shapes.InvalidDType
	for _, shape := range inputs {
		cur := shape.DType
		if cur.IsFloat() != result.IsFloat() {
			if cur.IsFloat() {
				result = cur
			}
		} else if cur.BitWidth() > result.BitWidth() {
			result = cur
		}
	}
	return result
}

// computeOutputShape derives the shape of a default (broadcasting)
// elementwise operation from the bindings of its arguments. Integer constants
// count as Int32 scalars, float constants as Float32 scalars.
func computeOutputShape(args []ir.Binding) (shapes.Shape, error) {
	var result shapes.Shape
	didBroadcast := false
	inputs := make([]shapes.Shape, 0, len(args))
	for _, arg := range args {
		var shape shapes.Shape
		switch arg.Tag {
		case ir.BindingTensor:
			shape = arg.Shape
		case ir.BindingIConst:
			shape = shapes.Scalar(shapes.Int32)
		case ir.BindingFConst:
			shape = shapes.Scalar(shapes.Float32)
		default:
			return shapes.Invalid(), errors.Errorf("unknown binding tag %s", arg.Tag)
		}
		broadcast, err := mergeShapes(&result, shape)
		if err != nil {
			return shapes.Invalid(), err
		}
		didBroadcast = didBroadcast || broadcast
		inputs = append(inputs, shape)
	}
	if didBroadcast {
		result.RecomputeStrides()
	}
	result.DType = computeOutputType(inputs)
	return result, nil
}

// shapeEvaluator walks a linearized graph bottom-up and annotates every node
// with its Binding: shape and dtype for tensors, the literal for constants.
type shapeEvaluator struct {
	bindingsByExpr map[expr]ir.Binding
}

// evaluateShapes annotates every node of the linearized graph, in order.
func evaluateShapes(flat []expr, bindings map[expr]ir.Binding) {
	evaluator := &shapeEvaluator{bindingsByExpr: bindings}
	for _, node := range flat {
		evaluator.visit(node)
	}
}

func (s *shapeEvaluator) binding(node expr) ir.Binding {
	binding, found := s.bindingsByExpr[node]
	if !found {
		exceptions.Panicf("shape inference visited %s before its dependencies", node)
	}
	return binding
}

func (s *shapeEvaluator) visit(node expr) {
	if klog.V(4).Enabled() {
		klog.Infof("shapeEvaluator.visit> %s", node)
	}
	switch node := node.(type) {
	case *paramExpr:
		s.bindingsByExpr[node] = ir.TensorBinding(node.shape)
	case *intConst:
		s.bindingsByExpr[node] = ir.IConstBinding(node.value)
	case *floatConst:
		s.bindingsByExpr[node] = ir.FConstBinding(node.value, shapes.Float32)
	case *callExpr:
		args := make([]ir.Binding, 0, len(node.args))
		for _, arg := range node.args {
			args = append(args, s.binding(arg))
		}
		rule, found := resolveSpecialOp(node.fn)
		if !found {
			rule = computeOutputShape
		}
		shape, err := rule(args)
		if err != nil {
			panic(errors.WithMessagef(err, "while inferring the shape of %s", node))
		}
		s.bindingsByExpr[node] = ir.TensorBinding(shape)
	case *contractionExpr:
		var dtype shapes.DType
		if node.comboOp == ir.ComboOpCond {
			dtype = shapes.Bool
		} else {
			inputs := make([]shapes.Shape, 0, len(node.inputs))
			for _, input := range node.inputs {
				binding := s.binding(input.ref)
				if binding.Tag != ir.BindingTensor {
					exceptions.Panicf("contraction inputs must be tensors, got %s", binding.Tag)
				}
				inputs = append(inputs, binding.Shape)
			}
			dtype = computeOutputType(inputs)
		}
		s.bindingsByExpr[node] = ir.TensorBinding(
			shapes.SimpleShape(dtype, node.output.outputSizes...))
	default:
		exceptions.Panicf("shape inference of %s node is not implemented", node)
	}
}

// evaluateShape infers the shape of a single expression, running a fresh
// traversal and evaluation over its sub-graph.
func evaluateShape(node expr) shapes.Shape {
	bindings := map[expr]ir.Binding{}
	evaluateShapes(flatten([]expr{node}), bindings)
	return bindings[node].Shape
}
