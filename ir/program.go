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

// Package ir defines the flat sequential program emitted by the EDSL
// front-end and consumed by the downstream compiler: named inputs, ordered
// ops (constants, functions, and contractions), output names, and the
// value-annotation (Binding) side tables bundled as RunInfo.
package ir

import (
	"encoding/gob"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/vertexml/tile/types/shapes"
)

// Program is a lowered expression graph: a flat op sequence in dependency
// order. NextTmp is the counter behind the auto-generated `_X<k>` names;
// names starting with "_" are reserved for it.
type Program struct {
	Inputs  []Input
	Ops     []Op
	Outputs []string
	NextTmp int
}

// String implements fmt.Stringer, pretty-printing the program in a Tile-like
// textual form. The format is meant for logging and is not a stable
// interface.
func (p Program) String() string {
	var sb strings.Builder
	inputs := make([]string, 0, len(p.Inputs))
	for _, input := range p.Inputs {
		inputs = append(inputs, input.String())
	}
	fmt.Fprintf(&sb, "function (%s) -> (%s) {\n",
		strings.Join(inputs, ", "), strings.Join(p.Outputs, ", "))
	for _, op := range p.Ops {
		fmt.Fprintf(&sb, "  %s;\n", op)
	}
	sb.WriteString("}")
	return sb.String()
}

// GobSerialize program in binary format.
func (p Program) GobSerialize(encoder *gob.Encoder) (err error) {
	err = encoder.Encode(p)
	if err != nil {
		err = errors.Wrapf(err, "failed to serialize Program")
	}
	return
}

// GobDeserializeProgram returns a Program decoded from the decoder.
func GobDeserializeProgram(decoder *gob.Decoder) (p Program, err error) {
	err = decoder.Decode(&p)
	if err != nil {
		err = errors.Wrapf(err, "failed to deserialize Program")
	}
	return
}

// RunInfo is the lowered program plus its shape metadata, delivered to the
// downstream compiler.
//
// InputShapes and OutputShapes map program input/output names to shapes; Vars
// annotates every named node of the program with its inferred Binding. Code
// is the pretty-printed program, for logging.
type RunInfo struct {
	ProgramName  string
	ID           string
	Program      Program
	InputShapes  map[string]shapes.Shape
	OutputShapes map[string]shapes.Shape
	Vars         map[string]Binding
	Code         string
	FromEdsl     bool
}

// VarNames returns the names of all annotated nodes, sorted.
func (r RunInfo) VarNames() []string {
	names := maps.Keys(r.Vars)
	slices.Sort(names)
	return names
}
