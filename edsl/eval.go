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
	"fmt"
	"strconv"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types"
	"github.com/vertexml/tile/types/poly"
	"github.com/vertexml/tile/types/shapes"
)

// evaluator lowers a shared expression DAG into a flat, named ir.Program.
// Identity-keyed maps guarantee that a node reachable through several paths
// is emitted exactly once; all its parents refer to the same name.
type evaluator struct {
	runInfo        ir.RunInfo
	names          types.Set[string]
	namesByExpr    map[expr]string
	bindingsByExpr map[expr]ir.Binding
}

// Evaluate lowers the expressions bound to the given output tensors into a
// named sequential program with its shape and binding tables. It panics on
// any malformed graph; see EvaluateOrError for the error-returning form.
func Evaluate(name string, outputs []Tensor) ir.RunInfo {
	e := &evaluator{
		names:          types.MakeSet[string](),
		namesByExpr:    map[expr]string{},
		bindingsByExpr: map[expr]ir.Binding{},
	}
	e.runInfo.ProgramName = name
	e.runInfo.ID = uuid.NewString()
	e.runInfo.InputShapes = map[string]shapes.Shape{}
	e.runInfo.OutputShapes = map[string]shapes.Shape{}
	e.runInfo.Vars = map[string]ir.Binding{}
	return e.evaluate(outputs)
}

// EvaluateOrError is Evaluate returning build failures as an error.
func EvaluateOrError(name string, outputs []Tensor) (runInfo ir.RunInfo, err error) {
	err = exceptions.TryCatch[error](func() {
		runInfo = Evaluate(name, outputs)
	})
	return
}

func (e *evaluator) evaluate(outputs []Tensor) ir.RunInfo {
	roots := make([]expr, 0, len(outputs))
	for _, output := range outputs {
		roots = append(roots, output.state.expr)
	}
	// Traverse the entire graph in least-dependent to most-dependent order.
	flat := flatten(roots)
	evaluateShapes(flat, e.bindingsByExpr)
	for _, node := range flat {
		e.visit(node)
	}
	for _, root := range roots {
		name := e.nameOf(root)
		shape := e.bindingsByExpr[root].Shape
		if klog.V(2).Enabled() {
			klog.Infof("output> %s: %s", name, shape)
		}
		e.runInfo.OutputShapes[name] = shape
		e.runInfo.Program.Outputs = append(e.runInfo.Program.Outputs, name)
	}
	for node, name := range e.namesByExpr {
		e.runInfo.Vars[name] = e.bindingsByExpr[node]
	}
	e.runInfo.Code = e.runInfo.Program.String()
	e.runInfo.FromEdsl = true
	if klog.V(2).Enabled() {
		klog.Infof("evaluate> %s", e.runInfo.Code)
	}
	return e.runInfo
}

func (e *evaluator) nameOf(node expr) string {
	name, found := e.namesByExpr[node]
	if !found {
		exceptions.Panicf("node %s was used before being emitted", node)
	}
	return name
}

func (e *evaluator) visit(node expr) {
	if klog.V(4).Enabled() {
		klog.Infof("evaluator.visit> %s", node)
	}
	switch node := node.(type) {
	case *paramExpr:
		name := e.newName(node)
		input := ir.Input{Tag: ir.InputFixed, Name: name}
		for i := range node.shape.Dims {
			input.Dims = append(input.Dims, fmt.Sprintf("%s_%d", name, i))
		}
		e.runInfo.Program.Inputs = append(e.runInfo.Program.Inputs, input)
		e.runInfo.InputShapes[name] = node.shape
	case *intConst:
		name := e.newName(node)
		e.runInfo.Program.Ops = append(e.runInfo.Program.Ops, ir.Op{
			Tag:    ir.OpConstant,
			Output: name,
			Inputs: []string{strconv.FormatInt(node.value, 10)},
			Fn:     "iconst",
		})
	case *floatConst:
		name := e.newName(node)
		e.runInfo.Program.Ops = append(e.runInfo.Program.Ops, ir.Op{
			Tag:    ir.OpConstant,
			Output: name,
			Inputs: []string{strconv.FormatFloat(node.value, 'f', 6, 64)},
			Fn:     "fconst",
		})
	case *callExpr:
		inputs := make([]string, 0, len(node.args))
		for _, arg := range node.args {
			inputs = append(inputs, e.nameOf(arg))
		}
		name := e.newName(node)
		e.runInfo.Program.Ops = append(e.runInfo.Program.Ops, ir.Op{
			Tag:    ir.OpFunction,
			Output: name,
			Inputs: inputs,
			Fn:     node.fn,
		})
	case *contractionExpr:
		e.visitContraction(node)
	default:
		// tensorSpecExpr and constraintExpr are structural, a traversal never
		// yields them.
		exceptions.Panicf("emission of %s node is not implemented", node)
	}
}

func (e *evaluator) visitContraction(node *contractionExpr) {
	// One polynomial evaluator covers all specs of the contraction so that
	// index identities unify across the output and input specs.
	polyEval := newPolyEvaluator()
	cion := ir.Contraction{
		AggOp:     node.aggOp,
		ComboOp:   node.comboOp,
		NoDefract: node.noDefract,
	}
	if node.useDefault != nil {
		cion.UseDefault = e.nameOf(node.useDefault)
	}
	cion.Specs = append(cion.Specs, ir.TensorSpec{})
	inputs := make([]string, 0, len(node.inputs))
	for _, input := range node.inputs {
		spec := ir.TensorSpec{ID: e.nameOf(input.ref)}
		inputs = append(inputs, spec.ID)
		for _, idx := range input.indexSpec {
			spec.Spec = append(spec.Spec, polyEval.evaluate(idx))
		}
		cion.Specs = append(cion.Specs, spec)
	}
	name := e.newName(node)
	cion.Specs[0].ID = name
	for _, idx := range node.output.indexSpec {
		cion.Specs[0].Spec = append(cion.Specs[0].Spec, polyEval.evaluate(idx))
	}
	for _, size := range node.output.outputSizes {
		cion.OutputSize = append(cion.OutputSize, strconv.Itoa(size))
	}
	for _, constraint := range node.constraints {
		cion.Constraints = append(cion.Constraints, poly.RangeConstraint{
			Poly:  polyEval.evaluate(constraint.lhs),
			Range: constraint.bound,
		})
	}
	e.runInfo.Program.Ops = append(e.runInfo.Program.Ops, ir.Op{
		Tag:    ir.OpContraction,
		Output: name,
		Inputs: inputs,
		Cion:   cion,
	})
}

// newName assigns the node its program name: the user name made unique by
// appending 0, 1, 2, ... suffixes, or the next `_X<k>` temporary. Names
// beginning with "_" are reserved for temporaries, so the two namespaces
// never clash.
func (e *evaluator) newName(node expr) string {
	label := exprLabel(node)
	if label == "" {
		name := fmt.Sprintf("_X%d", e.runInfo.Program.NextTmp)
		e.runInfo.Program.NextTmp++
		e.namesByExpr[node] = name
		return name
	}
	name := e.makeUniqueName(label)
	e.namesByExpr[node] = name
	return name
}

func (e *evaluator) makeUniqueName(prefix string) string {
	name := prefix
	for i := 0; e.names.Has(name); i++ {
		name = fmt.Sprintf("%s%d", prefix, i)
	}
	e.names.Insert(name)
	return name
}
