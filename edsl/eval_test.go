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
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types"
	"github.com/vertexml/tile/types/shapes"
)

func TestEvaluateMatMul(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 8, 4), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 4, 16), "B")
	c := NamedParam("C")
	m, n, k := NewIndex("m"), NewIndex("n"), NewIndex("k")
	c.Out([]Index{m, n}, []int{8, 16}).AddAssign(a.At(m, k).Mul(b.At(k, n)))

	runInfo := Evaluate("matmul", []Tensor{c})
	require.Equal(t, "matmul", runInfo.ProgramName)
	require.True(t, runInfo.FromEdsl)
	require.NotEmpty(t, runInfo.ID)

	program := runInfo.Program
	require.Len(t, program.Inputs, 2)
	require.Equal(t, ir.Input{Tag: ir.InputFixed, Name: "A", Dims: []string{"A_0", "A_1"}}, program.Inputs[0])
	require.True(t, runInfo.InputShapes["A"].Equal(shapes.SimpleShape(shapes.Float32, 8, 4)))

	require.Len(t, program.Ops, 1)
	op := program.Ops[0]
	require.Equal(t, ir.OpContraction, op.Tag)
	require.Equal(t, "C", op.Output)
	require.Equal(t, []string{"A", "B"}, op.Inputs)
	require.Equal(t, ir.AggOpSum, op.Cion.AggOp)
	require.Equal(t, ir.ComboOpMultiply, op.Cion.ComboOp)
	require.Equal(t, []string{"8", "16"}, op.Cion.OutputSize)
	require.Len(t, op.Cion.Specs, 3)
	require.Equal(t, "C", op.Cion.Specs[0].ID)
	require.Equal(t, "A", op.Cion.Specs[1].ID)
	require.Equal(t, "B", op.Cion.Specs[2].ID)

	// Three index variables across all specs of the contraction.
	indexNames := types.MakeSet[string]()
	for _, spec := range op.Cion.Specs {
		for _, p := range spec.Spec {
			indexNames.Insert(p.IndexNames()...)
		}
	}
	require.Len(t, indexNames, 3)

	require.Equal(t, []string{"C"}, program.Outputs)
	require.True(t, runInfo.OutputShapes["C"].Equal(shapes.SimpleShape(shapes.Float32, 8, 16)))
	require.Contains(t, runInfo.Code, "C[m, n : 8, 16] = +(A[m, k] * B[k, n])")
}

func TestEvaluateBroadcastAdd(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4, 1, 3), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 2, 3), "B")
	sum := a.Add(b)

	runInfo := Evaluate("broadcast_add", []Tensor{sum})
	require.Len(t, runInfo.Program.Ops, 1)
	op := runInfo.Program.Ops[0]
	require.Equal(t, ir.OpFunction, op.Tag)
	require.Equal(t, "add", op.Fn)
	require.Equal(t, []string{"A", "B"}, op.Inputs)

	shape := runInfo.OutputShapes[op.Output]
	require.Equal(t, shapes.Float32, shape.DType)
	require.Equal(t, []shapes.Dimension{{Size: 4, Stride: 6}, {Size: 2, Stride: 3}, {Size: 3, Stride: 1}}, shape.Dims)
}

func TestEvaluateConstantFold(t *testing.T) {
	sum := ConstInt(1).Add(ConstFloat(0))

	runInfo := Evaluate("fold", []Tensor{sum})
	program := runInfo.Program
	require.Empty(t, program.Inputs)
	require.Len(t, program.Ops, 3)

	require.Equal(t, ir.OpConstant, program.Ops[0].Tag)
	require.Equal(t, "iconst", program.Ops[0].Fn)
	require.Equal(t, []string{"1"}, program.Ops[0].Inputs)
	require.Equal(t, ir.OpConstant, program.Ops[1].Tag)
	require.Equal(t, "fconst", program.Ops[1].Fn)
	require.Equal(t, []string{"0.000000"}, program.Ops[1].Inputs)

	add := program.Ops[2]
	require.Equal(t, ir.OpFunction, add.Tag)
	require.Equal(t, "add", add.Fn)
	require.Equal(t, []string{program.Ops[0].Output, program.Ops[1].Output}, add.Inputs)

	shape := runInfo.OutputShapes[add.Output]
	require.Equal(t, shapes.Float32, shape.DType)
	require.Equal(t, 0, shape.Rank())

	// The var table annotates constants with their literal bindings.
	require.Equal(t, ir.BindingIConst, runInfo.Vars[program.Ops[0].Output].Tag)
	require.Equal(t, int64(1), runInfo.Vars[program.Ops[0].Output].IConst)
	require.Equal(t, ir.BindingFConst, runInfo.Vars[program.Ops[1].Output].Tag)
}

func TestEvaluateReshape(t *testing.T) {
	tensor := Param(shapes.SimpleShape(shapes.Float32, 6, 4), "T")
	reshaped := Call("reshape", tensor, ConstInt(24))
	require.Equal(t, []int{24}, reshaped.Shape().Sizes())

	bad := Call("reshape", tensor, ConstFloat(24))
	_, err := EvaluateOrError("bad_reshape", []Tensor{bad})
	require.ErrorContains(t, err, "must be integers")
}

func TestEvaluateNonLinearIndex(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4), "A")
	o := NamedParam("O")
	i, k := NewIndex("i"), NewIndex("k")
	o.Out([]Index{i}, []int{4}).AddAssign(a.At(k.Mul(k)))

	_, err := EvaluateOrError("non_linear", []Tensor{o})
	require.ErrorContains(t, err, "non-linear polynomial")
}

func TestEvaluateConstraintForwarding(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 8), "A")
	o := NamedParam("O")
	i, k := NewIndex("i"), NewIndex("k")
	k.Lt(5)
	o.Out([]Index{i}, []int{4}).AddAssign(a.At(i.Add(k)))

	runInfo := Evaluate("constrained", []Tensor{o})
	require.Len(t, runInfo.Program.Ops, 1)
	cion := runInfo.Program.Ops[0].Cion
	require.Len(t, cion.Constraints, 1)
	require.Equal(t, 5, cion.Constraints[0].Range)
	require.Equal(t, "k", cion.Constraints[0].Poly.String())
	require.Contains(t, runInfo.Code, "k < 5")
}

func TestEvaluateConstraintHarvestedOnce(t *testing.T) {
	// k participates in both input specs; its constraint must still be
	// emitted exactly once.
	a := Param(shapes.SimpleShape(shapes.Float32, 8), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 8), "B")
	o := NamedParam("O")
	i, k := NewIndex("i"), NewIndex("k")
	k.Lt(3)
	o.Out([]Index{i}, []int{8}).AddAssign(a.At(i.Add(k)).Mul(b.At(i.Sub(k))))

	runInfo := Evaluate("dedup", []Tensor{o})
	require.Len(t, runInfo.Program.Ops[0].Cion.Constraints, 1)
}

func TestEvaluateIdentityMemoization(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 2), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 2), "B")
	sum := a.Add(b)
	prod := sum.Mul(sum)

	runInfo := Evaluate("shared", []Tensor{prod})
	program := runInfo.Program
	require.Len(t, program.Ops, 2)
	require.Equal(t, "add", program.Ops[0].Fn)
	mul := program.Ops[1]
	require.Equal(t, "mul", mul.Fn)
	// The shared node is emitted once; its name appears once per path.
	require.Equal(t, []string{program.Ops[0].Output, program.Ops[0].Output}, mul.Inputs)
}

var autoNameRegexp = regexp.MustCompile(`^_X[0-9]+$`)

func TestEvaluateNaming(t *testing.T) {
	shape := shapes.SimpleShape(shapes.Float32, 2)
	first := Param(shape, "A")
	second := Param(shape, "A")
	sum := first.Add(second)

	runInfo := Evaluate("naming", []Tensor{sum})
	program := runInfo.Program
	require.Len(t, program.Inputs, 2)
	// The first user name is preserved verbatim, clashes are
	// suffix-disambiguated with 0, 1, 2, ...
	require.Equal(t, "A", program.Inputs[0].Name)
	require.Equal(t, "A0", program.Inputs[1].Name)

	names := types.MakeSet[string]()
	for _, input := range program.Inputs {
		require.False(t, names.Has(input.Name))
		names.Insert(input.Name)
	}
	for _, op := range program.Ops {
		require.False(t, names.Has(op.Output))
		names.Insert(op.Output)
		assert.Regexp(t, autoNameRegexp, op.Output)
	}
}

func TestEvaluateTopologicalOrder(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 2, 2), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 2, 2), "B")
	mixed := a.Mul(b).Add(a.Neg()).Sub(ConstFloat(1))

	runInfo := Evaluate("topo", []Tensor{mixed})
	produced := types.MakeSet[string]()
	for _, input := range runInfo.Program.Inputs {
		produced.Insert(input.Name)
	}
	for _, op := range runInfo.Program.Ops {
		if op.Tag != ir.OpConstant {
			for _, input := range op.Inputs {
				require.True(t, produced.Has(input), "op %s consumes %s before it is produced", op.Output, input)
			}
		}
		produced.Insert(op.Output)
	}
}

func TestEvaluateUseDefaultAndNoDefract(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4, 4), "A")
	c := NamedParam("C")
	i, j := NewIndex("i"), NewIndex("j")
	c.Out([]Index{j, i}, []int{4, 4}).AddAssign(a.At(i, j))
	zero := ConstFloat(0)
	c.NoDefract().UseDefault(zero)

	runInfo := Evaluate("transpose", []Tensor{c})
	program := runInfo.Program
	require.Len(t, program.Ops, 2)
	// use_default is linearized before the contraction that consumes it.
	require.Equal(t, ir.OpConstant, program.Ops[0].Tag)
	cion := program.Ops[1].Cion
	require.True(t, cion.NoDefract)
	require.Equal(t, program.Ops[0].Output, cion.UseDefault)
	require.Equal(t, ir.ComboOpNone, cion.ComboOp)
	require.Len(t, cion.Specs, 2)
}

func TestEvaluateComboOps(t *testing.T) {
	shape := shapes.SimpleShape(shapes.Float32, 4)
	a := Param(shape, "A")
	b := Param(shape, "B")
	v := Param(shape, "V")
	i := NewIndex("i")

	// EQ combination.
	eqOut := NamedParam("E")
	eqOut.Out([]Index{i}, []int{4}).AddAssign(a.At(i).Eq(b.At(i)))
	runInfo := Evaluate("eq", []Tensor{eqOut})
	require.Equal(t, ir.ComboOpEq, runInfo.Program.Ops[0].Cion.ComboOp)

	// COND combination forces a boolean output dtype.
	condOut := NamedParam("W")
	condOut.Out([]Index{i}, []int{4}).MaxAssign(Cond(a.At(i), b.At(i), v.At(i)))
	runInfo = Evaluate("cond", []Tensor{condOut})
	op := runInfo.Program.Ops[0]
	require.Equal(t, ir.ComboOpCond, op.Cion.ComboOp)
	require.Equal(t, ir.AggOpMax, op.Cion.AggOp)
	require.Len(t, op.Cion.Specs, 4)
	require.Equal(t, shapes.Bool, runInfo.OutputShapes["W"].DType)

	// Tensor comparison stays an ordinary elementwise function and must not
	// be conflated with the EQ combination.
	cmp := a.CmpEq(b)
	runInfo = Evaluate("cmp", []Tensor{cmp})
	op = runInfo.Program.Ops[0]
	require.Equal(t, ir.OpFunction, op.Tag)
	require.Equal(t, "cmp_eq", op.Fn)
	require.Equal(t, shapes.Bool, runInfo.OutputShapes[op.Output].DType)
}

func TestEvaluateAggregationOps(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 4, 4), "A")
	i, j := NewIndex("i"), NewIndex("j")
	for _, tc := range []struct {
		assign func(Access, Access) Access
		want   ir.AggregationOp
	}{
		{Access.AddAssign, ir.AggOpSum},
		{Access.MulAssign, ir.AggOpProd},
		{Access.MaxAssign, ir.AggOpMax},
		{Access.MinAssign, ir.AggOpMin},
		{Access.Assign, ir.AggOpAssign},
	} {
		out := NamedParam("O")
		tc.assign(out.Out([]Index{i}, []int{4}), a.At(i, j))
		runInfo := Evaluate("agg", []Tensor{out})
		require.Equal(t, tc.want, runInfo.Program.Ops[0].Cion.AggOp)
	}
}

func TestEvaluateMultipleOutputs(t *testing.T) {
	a := Param(shapes.SimpleShape(shapes.Float32, 2), "A")
	b := Param(shapes.SimpleShape(shapes.Float32, 2), "B")
	sum := a.Add(b)
	diff := a.Sub(b)

	runInfo := Evaluate("pair", []Tensor{sum, diff})
	require.Len(t, runInfo.Program.Outputs, 2)
	require.Len(t, runInfo.Program.Ops, 2)
	require.Len(t, runInfo.OutputShapes, 2)
	// Every named node is annotated in the var table.
	require.Len(t, runInfo.Vars, 4)
	require.Equal(t, []string{"A", "B", "_X0", "_X1"}, runInfo.VarNames())
}
