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

	"github.com/gomlx/exceptions"

	"github.com/vertexml/tile/types/poly"
)

// polyEvaluator converts polyExpr trees into canonical affine polynomials.
//
// It is stateful per contraction: anonymous indices are assigned fresh names
// ("x0", "x1", ...) memoized by the owning Index's identity, so one evaluator
// instance must cover all index polynomials of a single contraction for index
// identities to unify across output and input specs.
type polyEvaluator struct {
	names map[*indexState]string
	next  int
}

func newPolyEvaluator() *polyEvaluator {
	return &polyEvaluator{names: map[*indexState]string{}}
}

func (pe *polyEvaluator) evaluate(node polyExpr) poly.Polynomial {
	switch node := node.(type) {
	case *polyLiteral:
		return poly.NewConstant(node.value)
	case *polyIndex:
		name, found := pe.names[node.owner]
		if !found {
			name = node.label
			if name == "" {
				name = fmt.Sprintf("x%d", pe.next)
				pe.next++
			}
			pe.names[node.owner] = name
		}
		return poly.NewIndex(name)
	case *polyOp:
		return pe.evaluateOp(node)
	}
	exceptions.Panicf("unknown index expression %s", node)
	return nil
}

func (pe *polyEvaluator) evaluateOp(node *polyOp) poly.Polynomial {
	if node.op == "neg" {
		if len(node.operands) != 1 {
			exceptions.Panicf("invalid number of operands in PolyOp")
		}
		return pe.evaluate(node.operands[0]).Negative()
	}
	if len(node.operands) != 2 {
		exceptions.Panicf("invalid number of operands in PolyOp")
	}
	lhs := pe.evaluate(node.operands[0])
	rhs := pe.evaluate(node.operands[1])
	switch node.op {
	case "add":
		return lhs.Add(rhs)
	case "sub":
		return lhs.Sub(rhs)
	case "mul":
		if lhs.IsConstant() {
			return rhs.MulConstant(lhs.Constant())
		}
		if rhs.IsConstant() {
			return lhs.MulConstant(rhs.Constant())
		}
		exceptions.Panicf("non-linear polynomial: (%s) * (%s)", lhs, rhs)
	case "div":
		if !rhs.IsConstant() {
			exceptions.Panicf("divisor of polynomials must be a constant: (%s) / (%s)", lhs, rhs)
		}
		return lhs.DivConstant(rhs.Constant())
	}
	exceptions.Panicf("unknown PolyOp %q", node.op)
	return nil
}
