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
	"strings"

	"github.com/vertexml/tile/types/poly"
)

//go:generate stringer -type=AggregationOp,CombinationOp,OpTag,InputTag -output=ops_string.go

// AggregationOp is the reduction applied by a contraction over the index
// values not present in its output spec.
type AggregationOp int

const (
	AggOpSum AggregationOp = iota
	AggOpProd
	AggOpMax
	AggOpMin
	AggOpAssign
)

// Symbol returns the operation's symbol in the textual program form.
func (op AggregationOp) Symbol() string {
	switch op {
	case AggOpSum:
		return "+"
	case AggOpProd:
		return "*"
	case AggOpMax:
		return ">"
	case AggOpMin:
		return "<"
	case AggOpAssign:
		return "="
	}
	return "?"
}

// CombinationOp is the elementwise combination of a contraction's inputs,
// applied before aggregation. ComboOpNone means the contraction has a single
// input.
type CombinationOp int

const (
	ComboOpNone CombinationOp = iota
	ComboOpPlus
	ComboOpMultiply
	ComboOpEq
	ComboOpCond
)

// Symbol returns the operation's symbol in the textual program form.
func (op CombinationOp) Symbol() string {
	switch op {
	case ComboOpPlus:
		return "+"
	case ComboOpMultiply:
		return "*"
	case ComboOpEq, ComboOpCond:
		return "=="
	}
	return ""
}

// InputTag discriminates program inputs: FIXED inputs have a known shape,
// VARIABLE inputs are placeholders bound late by the downstream compiler.
type InputTag int

const (
	InputVariable InputTag = iota
	InputFixed
)

// Input is a named program input with per-dimension names.
type Input struct {
	Tag  InputTag
	Name string
	Dims []string
}

// String implements fmt.Stringer.
func (in Input) String() string {
	if len(in.Dims) == 0 {
		return in.Name
	}
	return fmt.Sprintf("%s[%s]", in.Name, strings.Join(in.Dims, ", "))
}

// TensorSpec is one tensor access site of a contraction: the name of the
// accessed tensor and one affine polynomial per dimension of its shape.
type TensorSpec struct {
	ID   string
	Spec []poly.Polynomial
}

// String implements fmt.Stringer.
func (ts TensorSpec) String() string {
	parts := make([]string, 0, len(ts.Spec))
	for _, p := range ts.Spec {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s[%s]", ts.ID, strings.Join(parts, ", "))
}

// Contraction is the full description of a contraction op: aggregation,
// optional combination, the output spec (Specs[0]) and input specs
// (Specs[1:]), the stringified output sizes, and the harvested range
// constraints.
type Contraction struct {
	AggOp       AggregationOp
	ComboOp     CombinationOp
	NoDefract   bool
	UseDefault  string
	Specs       []TensorSpec
	OutputSize  []string
	Constraints []poly.RangeConstraint
}

// OpTag discriminates the kinds of program operations.
type OpTag int

const (
	OpConstant OpTag = iota
	OpFunction
	OpContraction
)

// Op is one operation of a lowered program. Fn holds the function name for
// OpFunction ops and "iconst"/"fconst" for OpConstant ops; Cion is only
// meaningful for OpContraction ops.
type Op struct {
	Tag    OpTag
	Output string
	Inputs []string
	Cion   Contraction
	Fn     string
}

// String implements fmt.Stringer, printing the op as one line of the textual
// program form.
func (op Op) String() string {
	switch op.Tag {
	case OpConstant, OpFunction:
		return fmt.Sprintf("%s = %s(%s)", op.Output, op.Fn, strings.Join(op.Inputs, ", "))
	case OpContraction:
		return op.cionString()
	}
	return op.Tag.String()
}

func (op Op) cionString() string {
	cion := op.Cion
	var sb strings.Builder
	output := cion.Specs[0]
	outSpec := make([]string, 0, len(output.Spec))
	for _, p := range output.Spec {
		outSpec = append(outSpec, p.String())
	}
	fmt.Fprintf(&sb, "%s[%s : %s] = %s(", output.ID,
		strings.Join(outSpec, ", "), strings.Join(cion.OutputSize, ", "), cion.AggOp.Symbol())
	inputs := cion.Specs[1:]
	for i, input := range inputs {
		if i > 0 {
			if cion.ComboOp == ComboOpCond && i == len(inputs)-1 {
				sb.WriteString(" ? ")
			} else {
				fmt.Fprintf(&sb, " %s ", cion.ComboOp.Symbol())
			}
		}
		sb.WriteString(input.String())
	}
	sb.WriteString(")")
	for _, constraint := range cion.Constraints {
		fmt.Fprintf(&sb, ", %s", constraint)
	}
	if cion.NoDefract {
		sb.WriteString(" no_defract")
	}
	if cion.UseDefault != "" {
		fmt.Fprintf(&sb, " default %s", cion.UseDefault)
	}
	return sb.String()
}
