// tiledump builds one of the sample programs and prints its lowered form:
// the textual program, the input/output shape tables, and the var table.
//
// It is mostly a development aid to eyeball what the front-end emits:
//
//	tiledump -program=matmul -vars
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/vertexml/tile/edsl"
	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/lib"
	"github.com/vertexml/tile/types/shapes"
)

var (
	flagProgram = flag.String("program", "matmul",
		"Sample program to build and dump: one of matmul, matmul_relu, conv.")
	flagVars = flag.Bool("vars", false, "Also dump the var table with the inferred binding of every named node.")
)

func build(name string) (ir.RunInfo, error) {
	switch name {
	case "matmul":
		return edsl.EvaluateOrError(name, loadMatMulTensors())
	case "matmul_relu":
		a, b := matMulParams()
		return edsl.EvaluateOrError(name, []edsl.Tensor{lib.Relu(lib.MatMul(a, b))})
	case "conv":
		i := edsl.Param(shapes.SimpleShape(shapes.Float32, 1, 16, 16, 3), "I")
		k := edsl.Param(shapes.SimpleShape(shapes.Float32, 3, 3, 3, 8), "K")
		o := lib.Convolution(i, k, []int{1, 16, 16, 8}, nil, lib.ChannelsLast, lib.ChannelsLast)
		return edsl.EvaluateOrError(name, []edsl.Tensor{o})
	}
	return ir.RunInfo{}, fmt.Errorf("unknown sample program %q", name)
}

func matMulParams() (a, b edsl.Tensor) {
	a = edsl.Param(shapes.SimpleShape(shapes.Float32, 8, 4), "A")
	b = edsl.Param(shapes.SimpleShape(shapes.Float32, 4, 16), "B")
	return
}

func loadMatMulTensors() []edsl.Tensor {
	a, b := matMulParams()
	return []edsl.Tensor{lib.MatMul(a, b)}
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %v. See 'tiledump -help'.", flag.Args())
		os.Exit(1)
	}

	runInfo := must.M1(build(*flagProgram))
	fmt.Printf("program %s (%s)\n", runInfo.ProgramName, runInfo.ID)
	fmt.Println(runInfo.Code)
	for _, input := range runInfo.Program.Inputs {
		fmt.Printf("input  %s: %s\n", input.Name, runInfo.InputShapes[input.Name])
	}
	for _, output := range runInfo.Program.Outputs {
		fmt.Printf("output %s: %s\n", output, runInfo.OutputShapes[output])
	}
	if *flagVars {
		for _, name := range runInfo.VarNames() {
			fmt.Printf("var    %s: %s\n", name, runInfo.Vars[name])
		}
	}
}
