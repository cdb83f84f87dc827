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
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexml/tile/types/poly"
	"github.com/vertexml/tile/types/shapes"
)

func TestBindingString(t *testing.T) {
	require.Equal(t, "(Float32)[4 2]", TensorBinding(shapes.SimpleShape(shapes.Float32, 4, 2)).String())
	require.Equal(t, "42", IConstBinding(42).String())
	require.Equal(t, "0.5", FConstBinding(0.5, shapes.Float32).String())
	require.Equal(t, "(1, 2)", TupleBinding(IConstBinding(1), IConstBinding(2)).String())
}

func TestOpString(t *testing.T) {
	op := Op{Tag: OpFunction, Output: "_X2", Inputs: []string{"_X0", "_X1"}, Fn: "add"}
	require.Equal(t, "_X2 = add(_X0, _X1)", op.String())

	op = Op{Tag: OpConstant, Output: "_X0", Inputs: []string{"1"}, Fn: "iconst"}
	require.Equal(t, "_X0 = iconst(1)", op.String())
}

func matmulOp() Op {
	m, n, k := poly.NewIndex("m"), poly.NewIndex("n"), poly.NewIndex("k")
	return Op{
		Tag:    OpContraction,
		Output: "C",
		Inputs: []string{"A", "B"},
		Cion: Contraction{
			AggOp:   AggOpSum,
			ComboOp: ComboOpMultiply,
			Specs: []TensorSpec{
				{ID: "C", Spec: []poly.Polynomial{m, n}},
				{ID: "A", Spec: []poly.Polynomial{m, k}},
				{ID: "B", Spec: []poly.Polynomial{k, n}},
			},
			OutputSize: []string{"8", "16"},
		},
	}
}

func TestContractionString(t *testing.T) {
	op := matmulOp()
	require.Equal(t, "C[m, n : 8, 16] = +(A[m, k] * B[k, n])", op.String())

	op.Cion.Constraints = []poly.RangeConstraint{{Poly: poly.NewIndex("k"), Range: 5}}
	op.Cion.NoDefract = true
	op.Cion.UseDefault = "_X0"
	require.Equal(t, "C[m, n : 8, 16] = +(A[m, k] * B[k, n]), k < 5 no_defract default _X0", op.String())
}

func TestProgramString(t *testing.T) {
	program := Program{
		Inputs:  []Input{{Tag: InputFixed, Name: "A", Dims: []string{"A_0", "A_1"}}, {Tag: InputFixed, Name: "B", Dims: []string{"B_0", "B_1"}}},
		Ops:     []Op{matmulOp()},
		Outputs: []string{"C"},
	}
	want := "function (A[A_0, A_1], B[B_0, B_1]) -> (C) {\n" +
		"  C[m, n : 8, 16] = +(A[m, k] * B[k, n]);\n" +
		"}"
	require.Equal(t, want, program.String())
}

func TestProgramGob(t *testing.T) {
	program := Program{
		Inputs:  []Input{{Tag: InputFixed, Name: "A", Dims: []string{"A_0"}}},
		Ops:     []Op{matmulOp()},
		Outputs: []string{"C"},
		NextTmp: 3,
	}
	var buf bytes.Buffer
	require.NoError(t, program.GobSerialize(gob.NewEncoder(&buf)))
	got, err := GobDeserializeProgram(gob.NewDecoder(&buf))
	require.NoError(t, err)
	require.Equal(t, program.String(), got.String())
	require.Equal(t, 3, got.NextTmp)
}

func TestRunInfoVarNames(t *testing.T) {
	r := RunInfo{Vars: map[string]Binding{
		"_X1": IConstBinding(1),
		"A":   TensorBinding(shapes.SimpleShape(shapes.Float32, 2)),
		"_X0": IConstBinding(0),
	}}
	require.Equal(t, []string{"A", "_X0", "_X1"}, r.VarNames())
}
