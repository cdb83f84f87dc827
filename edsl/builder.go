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
	"github.com/gomlx/exceptions"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types"
	"github.com/vertexml/tile/types/shapes"
)

// Index represents a symbolic integer iteration variable, or an affine
// expression over such variables. Index handles are cheap values wrapping a
// shared state; the state owns the range constraints accumulated through Lt.
type Index struct {
	state *indexState
}

type indexState struct {
	expr        polyExpr
	constraints []*constraintExpr
}

// NewIndex returns a fresh iteration variable. A name is optional; anonymous
// indices are assigned fresh names ("x0", "x1", ...) at lowering time.
func NewIndex(name ...string) Index {
	state := &indexState{}
	label := ""
	if len(name) > 0 {
		label = name[0]
	}
	state.expr = &polyIndex{owner: state, label: label}
	return Index{state: state}
}

// ConstIndex returns the constant index expression `value`.
func ConstIndex(value int64) Index {
	return Index{state: &indexState{expr: &polyLiteral{value: value}}}
}

func makePolyOp(op string, args ...Index) Index {
	operands := make([]polyExpr, 0, len(args))
	for _, arg := range args {
		operands = append(operands, arg.state.expr)
	}
	return Index{state: &indexState{expr: &polyOp{op: op, operands: operands}}}
}

// Neg returns -i.
func (i Index) Neg() Index { return makePolyOp("neg", i) }

// Add returns i + rhs.
func (i Index) Add(rhs Index) Index { return makePolyOp("add", i, rhs) }

// Sub returns i - rhs.
func (i Index) Sub(rhs Index) Index { return makePolyOp("sub", i, rhs) }

// Mul returns i * rhs. One of the operands must evaluate to a constant,
// non-linear index expressions fail at lowering time.
func (i Index) Mul(rhs Index) Index { return makePolyOp("mul", i, rhs) }

// Div returns i / rhs. The divisor must evaluate to a constant.
func (i Index) Div(rhs Index) Index { return makePolyOp("div", i, rhs) }

// AddInt, SubInt, MulInt and DivInt are shortcuts taking a constant operand.
func (i Index) AddInt(value int64) Index { return i.Add(ConstIndex(value)) }
func (i Index) SubInt(value int64) Index { return i.Sub(ConstIndex(value)) }
func (i Index) MulInt(value int64) Index { return i.Mul(ConstIndex(value)) }
func (i Index) DivInt(value int64) Index { return i.Div(ConstIndex(value)) }

// Constraint is the sentinel returned by Index.Lt. The constraint itself is
// recorded on the Index that produced it. It is harvested when an index
// variable (from NewIndex) carrying it appears in the index polynomials of a
// contraction; constraints recorded on a derived or constant Index (the
// result of Add, MulInt, ConstIndex, ...) are never harvested.
type Constraint struct{}

// Lt records the range constraint `i < bound`.
func (i Index) Lt(bound int) Constraint {
	i.state.constraints = append(i.state.constraints, &constraintExpr{lhs: i.state.expr, bound: bound})
	return Constraint{}
}

// Tensor is the user-facing handle over an expression. Handles are mutable:
// forming a contraction through an output Access rebinds the destination
// handle's expression. Expression nodes already referenced elsewhere are
// never changed by this.
type Tensor struct {
	state *tensorState
}

type tensorState struct {
	expr expr
}

// Param declares a named input tensor of the given shape.
func Param(shape shapes.Shape, name string) Tensor {
	return Tensor{state: &tensorState{expr: &paramExpr{shape: shape, label: name}}}
}

// NamedParam declares a named input tensor whose shape is not yet known.
func NamedParam(name string) Tensor {
	return Tensor{state: &tensorState{expr: &paramExpr{label: name}}}
}

// ConstInt returns a scalar integer constant tensor.
func ConstInt(value int64) Tensor {
	return Tensor{state: &tensorState{expr: &intConst{value: value}}}
}

// ConstFloat returns a scalar float constant tensor.
func ConstFloat(value float64) Tensor {
	return Tensor{state: &tensorState{expr: &floatConst{value: value}}}
}

// Call applies the named function elementwise over args (or with the special
// shape semantics of the op, if the name is registered).
func Call(fn string, args ...Tensor) Tensor {
	exprs := make([]expr, 0, len(args))
	for _, arg := range args {
		exprs = append(exprs, arg.state.expr)
	}
	return Tensor{state: &tensorState{expr: &callExpr{fn: fn, args: exprs}}}
}

// Neg returns -t.
func (t Tensor) Neg() Tensor { return Call("neg", t) }

// BitNot returns the bitwise complement of t.
func (t Tensor) BitNot() Tensor { return Call("bit_not", t) }

// Binary elementwise operations, named after their canonical function names.
func (t Tensor) Add(rhs Tensor) Tensor      { return Call("add", t, rhs) }
func (t Tensor) Sub(rhs Tensor) Tensor      { return Call("sub", t, rhs) }
func (t Tensor) Mul(rhs Tensor) Tensor      { return Call("mul", t, rhs) }
func (t Tensor) Div(rhs Tensor) Tensor      { return Call("div", t, rhs) }
func (t Tensor) CmpEq(rhs Tensor) Tensor    { return Call("cmp_eq", t, rhs) }
func (t Tensor) CmpNe(rhs Tensor) Tensor    { return Call("cmp_ne", t, rhs) }
func (t Tensor) CmpLt(rhs Tensor) Tensor    { return Call("cmp_lt", t, rhs) }
func (t Tensor) CmpGt(rhs Tensor) Tensor    { return Call("cmp_gt", t, rhs) }
func (t Tensor) CmpLe(rhs Tensor) Tensor    { return Call("cmp_le", t, rhs) }
func (t Tensor) CmpGe(rhs Tensor) Tensor    { return Call("cmp_ge", t, rhs) }
func (t Tensor) BitLeft(rhs Tensor) Tensor  { return Call("bit_left", t, rhs) }
func (t Tensor) BitRight(rhs Tensor) Tensor { return Call("bit_right", t, rhs) }
func (t Tensor) BitAnd(rhs Tensor) Tensor   { return Call("bit_and", t, rhs) }
func (t Tensor) BitOr(rhs Tensor) Tensor    { return Call("bit_or", t, rhs) }
func (t Tensor) BitXor(rhs Tensor) Tensor   { return Call("bit_xor", t, rhs) }

// Shape computes the shape of the tensor's expression, running shape and
// dtype inference over its sub-graph.
func (t Tensor) Shape() shapes.Shape { return evaluateShape(t.state.expr) }

// Dims returns the size of the given dimension, inferring the shape if
// necessary.
func (t Tensor) Dims(dim int) int {
	shape := t.Shape()
	if dim >= shape.Rank() {
		exceptions.Panicf("requested dimension number %d higher than rank %d of tensor", dim, shape.Rank())
	}
	return shape.Dims[dim].Size
}

// NoDefract marks the tensor's contraction to skip defractionalization in the
// downstream compiler. It fails if the tensor is not bound to a contraction.
func (t Tensor) NoDefract() Tensor {
	cion, ok := t.state.expr.(*contractionExpr)
	if !ok {
		exceptions.Panicf("no_defract can only be specified on a contraction")
	}
	cion.noDefract = true
	return t
}

// UseDefault sets rhs as the value of output elements not written by the
// tensor's contraction. It fails if the tensor is not bound to a contraction.
func (t Tensor) UseDefault(rhs Tensor) Tensor {
	cion, ok := t.state.expr.(*contractionExpr)
	if !ok {
		exceptions.Panicf("use_default can only be specified on a contraction")
	}
	cion.useDefault = rhs.state.expr
	return t
}

// At returns the read access `t[idxs...]`. The number of indices must match
// the rank of the tensor's shape.
func (t Tensor) At(idxs ...Index) Access {
	shape := t.Shape()
	if len(idxs) != shape.Rank() {
		exceptions.Panicf("unexpected number of dimensions in contraction input: expected %d, got %d",
			shape.Rank(), len(idxs))
	}
	return t.access(idxs, nil)
}

// Out returns the write access `t[idxs... : sizes...]`, the output face of a
// contraction. idxs and sizes must have the same length.
func (t Tensor) Out(idxs []Index, sizes []int) Access {
	if len(idxs) != len(sizes) {
		exceptions.Panicf("dimensions and sizes mismatch in contraction output: indexes %d, sizes %d",
			len(idxs), len(sizes))
	}
	return t.access(idxs, sizes)
}

func (t Tensor) access(idxs []Index, sizes []int) Access {
	indexSpec := make([]polyExpr, 0, len(idxs))
	for _, idx := range idxs {
		indexSpec = append(indexSpec, idx.state.expr)
	}
	spec := &tensorSpecExpr{ref: t.state.expr, indexSpec: indexSpec, outputSizes: sizes}
	return Access{state: &accessState{expr: spec, src: t.state}}
}

// Access is a single tensor access inside a contraction, produced by
// Tensor.At (read face) or Tensor.Out (write face).
type Access struct {
	state *accessState
}

type accessState struct {
	expr expr
	src  *tensorState
}

func (a Access) makeCall(fn string, rhs Access) Access {
	call := &callExpr{fn: fn, args: []expr{a.state.expr, rhs.state.expr}}
	return Access{state: &accessState{expr: call}}
}

// Add combines two accesses elementwise; inside a contraction this becomes
// the PLUS combination.
func (a Access) Add(rhs Access) Access { return a.makeCall("add", rhs) }

// Mul combines two accesses elementwise; inside a contraction this becomes
// the MULTIPLY combination.
func (a Access) Mul(rhs Access) Access { return a.makeCall("mul", rhs) }

// Eq combines two accesses with the EQ combination. This is distinct from
// Tensor.CmpEq, which is an ordinary elementwise comparison.
func (a Access) Eq(rhs Access) Access { return a.makeCall("eq", rhs) }

// Cond is the ternary combination: trueCase where lhs equals rhs.
func Cond(lhs, rhs, trueCase Access) Access {
	call := &callExpr{fn: "cond", args: []expr{lhs.state.expr, rhs.state.expr, trueCase.state.expr}}
	return Access{state: &accessState{expr: call}}
}

// The contraction-forming assignments. Each aggregates the right-hand side
// over all index values consistent with the output access and rebinds the
// destination Tensor handle to the new contraction.
func (a Access) AddAssign(rhs Access) Access { return a.makeContraction(ir.AggOpSum, rhs) }
func (a Access) MulAssign(rhs Access) Access { return a.makeContraction(ir.AggOpProd, rhs) }
func (a Access) MaxAssign(rhs Access) Access { return a.makeContraction(ir.AggOpMax, rhs) }
func (a Access) MinAssign(rhs Access) Access { return a.makeContraction(ir.AggOpMin, rhs) }
func (a Access) Assign(rhs Access) Access    { return a.makeContraction(ir.AggOpAssign, rhs) }

var comboOpByFn = map[string]ir.CombinationOp{
	"add":  ir.ComboOpPlus,
	"mul":  ir.ComboOpMultiply,
	"eq":   ir.ComboOpEq,
	"cond": ir.ComboOpCond,
}

func (a Access) makeContraction(aggOp ir.AggregationOp, rhs Access) Access {
	outputSpec, ok := a.state.expr.(*tensorSpecExpr)
	if !ok {
		exceptions.Panicf("left-hand side of a contraction must be a tensor access")
	}
	if len(outputSpec.outputSizes) != len(outputSpec.indexSpec) {
		exceptions.Panicf("contraction output access needs explicit sizes: %d indexes, %d sizes",
			len(outputSpec.indexSpec), len(outputSpec.outputSizes))
	}

	cion := &contractionExpr{aggOp: aggOp, output: outputSpec}
	switch rhsExpr := rhs.state.expr.(type) {
	case *tensorSpecExpr:
		cion.inputs = []*tensorSpecExpr{rhsExpr}
	case *callExpr:
		comboOp, ok := comboOpByFn[rhsExpr.fn]
		if !ok {
			exceptions.Panicf("invalid combination %q on the right-hand side of a contraction", rhsExpr.fn)
		}
		cion.comboOp = comboOp
		for _, arg := range rhsExpr.args {
			spec, ok := arg.(*tensorSpecExpr)
			if !ok {
				exceptions.Panicf("combination arguments of a contraction must be tensor accesses, got %s", arg)
			}
			cion.inputs = append(cion.inputs, spec)
		}
	default:
		exceptions.Panicf("right-hand side of a contraction must be a tensor access or a combination, got %s",
			rhs.state.expr)
	}

	collector := constraintCollector{seen: types.MakeSet[*constraintExpr]()}
	for _, idx := range outputSpec.indexSpec {
		collector.collect(idx)
	}
	for _, input := range cion.inputs {
		for _, idx := range input.indexSpec {
			collector.collect(idx)
		}
	}
	cion.constraints = collector.constraints

	// If the destination has been optionally named, propagate the name.
	if param, ok := a.state.src.expr.(*paramExpr); ok {
		cion.label = param.label
	}
	a.state.src.expr = cion
	return a
}

// constraintCollector harvests the constraints of every index variable
// reachable from the index polynomials of a contraction, each at most once.
type constraintCollector struct {
	constraints []*constraintExpr
	seen        types.Set[*constraintExpr]
}

func (c *constraintCollector) collect(pe polyExpr) {
	switch pe := pe.(type) {
	case *polyIndex:
		for _, constraint := range pe.owner.constraints {
			if c.seen.Has(constraint) {
				continue
			}
			c.seen.Insert(constraint)
			c.constraints = append(c.constraints, constraint)
		}
	case *polyLiteral:
	case *polyOp:
		for _, operand := range pe.operands {
			c.collect(operand)
		}
	}
}
