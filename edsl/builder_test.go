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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexml/tile/types"
	"github.com/vertexml/tile/types/shapes"
)

func TestTensorOperatorNames(t *testing.T) {
	shape := shapes.SimpleShape(shapes.Int32, 2)
	a := Param(shape, "A")
	b := Param(shape, "B")
	for _, tc := range []struct {
		tensor Tensor
		fn     string
	}{
		{a.Neg(), "neg"},
		{a.BitNot(), "bit_not"},
		{a.Add(b), "add"},
		{a.Sub(b), "sub"},
		{a.Mul(b), "mul"},
		{a.Div(b), "div"},
		{a.CmpEq(b), "cmp_eq"},
		{a.CmpNe(b), "cmp_ne"},
		{a.CmpLt(b), "cmp_lt"},
		{a.CmpGt(b), "cmp_gt"},
		{a.CmpLe(b), "cmp_le"},
		{a.CmpGe(b), "cmp_ge"},
		{a.BitLeft(b), "bit_left"},
		{a.BitRight(b), "bit_right"},
		{a.BitAnd(b), "bit_and"},
		{a.BitOr(b), "bit_or"},
		{a.BitXor(b), "bit_xor"},
	} {
		call, ok := tc.tensor.state.expr.(*callExpr)
		require.True(t, ok)
		require.Equal(t, tc.fn, call.fn)
	}
}

func TestTensorHandleRebinding(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4), "A")
	c := NamedParam("C")
	before := c.state.expr
	neg := c.Neg() // references the param expression

	i := NewIndex("i")
	c.Out([]Index{i}, []int{4}).AddAssign(a.At(i))

	// The handle now holds the contraction, named after the old param.
	cion, ok := c.state.expr.(*contractionExpr)
	require.True(t, ok)
	require.Equal(t, "C", cion.label)
	// Pre-existing references to the old expression are unchanged.
	require.Same(t, before, neg.state.expr.(*callExpr).args[0])
}

func TestAccessPreconditions(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4, 4), "A")
	i, j := NewIndex("i"), NewIndex("j")

	// Read access arity must match the tensor rank.
	require.Panics(t, func() { a.At(i) })
	require.NotPanics(t, func() { a.At(i, j) })

	// Output access needs one size per index.
	require.Panics(t, func() { a.Out([]Index{i, j}, []int{4}) })

	// A read access cannot be the destination of a contraction.
	require.Panics(t, func() { a.At(i, j).AddAssign(a.At(i, j)) })

	// An elementwise combination cannot be the destination either.
	o := NamedParam("O")
	lhs := a.At(i, j).Mul(a.At(j, i))
	require.Panics(t, func() { lhs.AddAssign(a.At(i, j)) })
	require.NotPanics(t, func() {
		o.Out([]Index{i, j}, []int{4, 4}).AddAssign(a.At(i, j).Mul(a.At(j, i)))
	})
}

func TestContractionPreconditions(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4), "A")
	require.Panics(t, func() { a.NoDefract() })
	require.Panics(t, func() { a.UseDefault(ConstFloat(0)) })

	o := NamedParam("O")
	i := NewIndex("i")
	o.Out([]Index{i}, []int{4}).AddAssign(a.At(i))
	require.NotPanics(t, func() { o.NoDefract().UseDefault(ConstFloat(0)) })
}

func TestDims(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4, 2), "A")
	require.Equal(t, 4, a.Dims(0))
	require.Equal(t, 2, a.Dims(1))
	require.Panics(t, func() { a.Dims(2) })
}

func TestIndexConstraintOwnership(t *testing.T) {
	k := NewIndex("k")
	k.Lt(5)
	k.Lt(7)
	require.Len(t, k.state.constraints, 2)

	// Derived indices own no constraints; harvesting reaches through to the
	// originating index.
	sum := k.AddInt(1)
	require.Empty(t, sum.state.constraints)
	collector := constraintCollector{seen: types.MakeSet[*constraintExpr]()}
	collector.collect(sum.state.expr)
	require.Len(t, collector.constraints, 2)
}

func TestScalarContraction(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 8), "A")
	total := NamedParam("total")
	i := NewIndex("i")
	total.Out(nil, nil).AddAssign(a.At(i))

	runInfo := Evaluate("sum_all", []Tensor{total})
	op := runInfo.Program.Ops[0]
	require.Empty(t, op.Cion.OutputSize)
	require.Empty(t, op.Cion.Specs[0].Spec)
	require.True(t, runInfo.OutputShapes["total"].IsScalar())
}
