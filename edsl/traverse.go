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
	"k8s.io/klog/v2"

	"github.com/vertexml/tile/types"
)

// flatten returns the nodes reachable from roots in dependency order: each
// node appears exactly once, after every node it depends on. It is an
// iterative post-order DFS with a two-state stack; children are pushed
// right-to-left so they are emitted left-to-right.
func flatten(roots []expr) []expr {
	type entry struct {
		node expr
		post bool
	}
	var stack []entry
	push := func(node expr) {
		if klog.V(4).Enabled() {
			klog.Infof("flatten push> %s", node)
		}
		stack = append(stack, entry{node: node})
	}
	for _, root := range roots {
		push(root)
	}

	var flat []expr
	seen := types.MakeSet[expr]()
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.post {
			flat = append(flat, top.node)
			continue
		}
		if seen.Has(top.node) {
			continue
		}
		seen.Insert(top.node)
		stack = append(stack, entry{node: top.node, post: true})
		switch node := top.node.(type) {
		case *paramExpr, *intConst, *floatConst:
			// Leaves.
		case *callExpr:
			for i := len(node.args) - 1; i >= 0; i-- {
				push(node.args[i])
			}
		case *contractionExpr:
			for i := len(node.inputs) - 1; i >= 0; i-- {
				push(node.inputs[i].ref)
			}
			if node.useDefault != nil {
				push(node.useDefault)
			}
		default:
			// tensorSpecExpr and constraintExpr are structural sub-nodes of a
			// contraction and must never be traversed directly.
			exceptions.Panicf("traversal of %s node is not implemented", top.node)
		}
	}
	if klog.V(4).Enabled() {
		klog.Infof("flatten> %d nodes from %d roots", len(flat), len(roots))
	}
	return flat
}
