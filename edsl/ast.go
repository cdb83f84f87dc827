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

// Package edsl is the embedded language front-end for building symbolic
// tensor computations.
//
// Users assemble expressions through the fluent Tensor, Index, and Access
// handles: elementwise operations and function calls over tensors, and
// Einstein-summation style contractions whose index expressions are affine
// polynomials with optional range constraints. The package infers shapes and
// dtypes over the resulting shared expression graph (NumPy-style
// broadcasting, plus a registry of special ops with their own shape rules)
// and lowers it with Evaluate into a flat, named ir.Program for a downstream
// compiler.
//
// A minimal matrix multiplication:
//
//	A := edsl.Param(shapes.SimpleShape(shapes.Float32, 8, 4), "A")
//	B := edsl.Param(shapes.SimpleShape(shapes.Float32, 4, 16), "B")
//	C := edsl.NamedParam("C")
//	m, n, k := edsl.NewIndex("m"), edsl.NewIndex("n"), edsl.NewIndex("k")
//	C.Out([]edsl.Index{m, n}, []int{8, 16}).AddAssign(A.At(m, k).Mul(B.At(k, n)))
//	runInfo := edsl.Evaluate("matmul", []edsl.Tensor{C})
package edsl

import (
	"fmt"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types/shapes"
)

// expr is the internal expression AST. Nodes are always handled as pointers
// and are shared: a node commonly has several parents. Pointer identity is
// load-bearing, it keys traversal dedup, binding lookup, and program naming.
//
// Nodes are immutable once another node references them, with one exception:
// a contractionExpr's noDefract, useDefault, and label fields may be set by
// the builder before lowering.
type expr interface {
	isExpr()
	fmt.Stringer
}

// paramExpr is a named input tensor. Leaf.
type paramExpr struct {
	shape shapes.Shape
	label string
}

// intConst and floatConst are scalar constant leaves.
type intConst struct {
	value int64
}

type floatConst struct {
	value float64
}

// callExpr applies an elementwise or special function to its arguments.
type callExpr struct {
	fn   string
	args []expr
}

// tensorSpecExpr is a single tensor access site inside a contraction: the
// accessed tensor, one affine index polynomial per dimension, and, for the
// write face only, the output sizes. It is not a user-visible value.
type tensorSpecExpr struct {
	ref         expr
	indexSpec   []polyExpr
	outputSizes []int
}

// contractionExpr is a reduction combining one or more tensor accesses.
type contractionExpr struct {
	aggOp       ir.AggregationOp
	comboOp     ir.CombinationOp
	output      *tensorSpecExpr
	inputs      []*tensorSpecExpr
	constraints []*constraintExpr
	useDefault  expr
	noDefract   bool
	label       string
}

// constraintExpr is the inequality `lhs < bound` over index variables. It is
// owned by the Index that produced it and harvested structurally during
// contraction construction; it never appears in a traversal.
type constraintExpr struct {
	lhs   polyExpr
	bound int
}

func (*paramExpr) isExpr()       {}
func (*intConst) isExpr()        {}
func (*floatConst) isExpr()      {}
func (*callExpr) isExpr()        {}
func (*tensorSpecExpr) isExpr()  {}
func (*contractionExpr) isExpr() {}
func (*constraintExpr) isExpr()  {}

func (e *paramExpr) String() string   { return fmt.Sprintf("param<%s%s>", e.label, e.shape) }
func (e *intConst) String() string    { return fmt.Sprintf("iconst<%d>", e.value) }
func (e *floatConst) String() string  { return fmt.Sprintf("fconst<%v>", e.value) }
func (e *callExpr) String() string    { return fmt.Sprintf("call<%s>", e.fn) }
func (e *tensorSpecExpr) String() string { return "tensor_spec" }
func (e *contractionExpr) String() string {
	return fmt.Sprintf("contraction<%s, %s>", e.aggOp, e.comboOp)
}
func (e *constraintExpr) String() string { return fmt.Sprintf("constraint<%d>", e.bound) }

// exprLabel returns the user-assigned name of a node, or "" when the node
// kind carries none.
func exprLabel(e expr) string {
	switch e := e.(type) {
	case *paramExpr:
		return e.label
	case *contractionExpr:
		return e.label
	}
	return ""
}

// polyExpr is the affine index sub-AST, disjoint from expr: index variable,
// integer literal, or operation. Mixing the two languages is a category
// error, a polyExpr never appears where an expr is expected and vice versa.
type polyExpr interface {
	isPolyExpr()
	fmt.Stringer
}

// polyIndex is a reference to an iteration variable. owner points back to the
// Index handle's state; it identifies the variable (two polyIndex nodes with
// the same owner are the same variable) and reaches the owner's accumulated
// constraints during contraction construction.
type polyIndex struct {
	owner *indexState
	label string
}

type polyLiteral struct {
	value int64
}

// polyOp is an index operation: "neg" (unary), or "add", "sub", "mul", "div"
// (binary). Affinity is enforced at evaluation time: mul needs a constant
// operand, div a constant divisor.
type polyOp struct {
	op       string
	operands []polyExpr
}

func (*polyIndex) isPolyExpr()   {}
func (*polyLiteral) isPolyExpr() {}
func (*polyOp) isPolyExpr()      {}

func (e *polyIndex) String() string {
	if e.label == "" {
		return fmt.Sprintf("idx<%p>", e.owner)
	}
	return fmt.Sprintf("idx<%s>", e.label)
}
func (e *polyLiteral) String() string { return fmt.Sprintf("lit<%d>", e.value) }
func (e *polyOp) String() string      { return fmt.Sprintf("polyop<%s>", e.op) }
