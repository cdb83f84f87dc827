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

// Package lib provides ready-made expression builders for common tensor
// computations, composed out of the edsl package, plus loaders that lower
// them into complete programs.
package lib

import (
	"fmt"

	"github.com/gomlx/exceptions"

	"github.com/vertexml/tile/edsl"
	"github.com/vertexml/tile/ir"
	"github.com/vertexml/tile/types/shapes"
)

// ConvolutionFormat selects the axis layout of the image and kernel tensors
// of a Convolution.
type ConvolutionFormat int

const (
	// ChannelsLast is image [N, spatial..., C] and kernel [spatial..., CI, CO].
	ChannelsLast ConvolutionFormat = iota
	// ChannelsFirst is image [N, C, spatial...] and kernel [CO, CI, spatial...].
	ChannelsFirst
)

// MatMul returns `C[m, n] = sum_k A[m, k] * B[k, n]`.
func MatMul(a, b edsl.Tensor) edsl.Tensor {
	rows, cols := a.Dims(0), b.Dims(1)
	m, n, k := edsl.NewIndex("m"), edsl.NewIndex("n"), edsl.NewIndex("k")
	c := edsl.NamedParam("C")
	c.Out([]edsl.Index{m, n}, []int{rows, cols}).AddAssign(a.At(m, k).Mul(b.At(k, n)))
	return c
}

// Relu returns max(x, 0), as a function call resolved by the backend.
func Relu(x edsl.Tensor) edsl.Tensor { return edsl.Call("relu", x) }

// Sin returns the elementwise sine of x.
func Sin(x edsl.Tensor) edsl.Tensor { return edsl.Call("sin", x) }

// Tanh returns the elementwise hyperbolic tangent of x.
func Tanh(x edsl.Tensor) edsl.Tensor { return edsl.Call("tanh", x) }

// Convolution builds an n-dimensional convolution of image by kernel with
// "same" padding. outputDims gives the full output sizes; strides defaults to
// 1 per spatial dimension.
func Convolution(image, kernel edsl.Tensor, outputDims, strides []int,
	imageFormat, kernelFormat ConvolutionFormat) edsl.Tensor {
	imageShape := image.Shape()
	kernelShape := kernel.Shape()
	rank := imageShape.Rank() - 2
	if len(strides) == 0 {
		strides = make([]int, rank)
		for i := range strides {
			strides[i] = 1
		}
	} else if len(strides) != rank {
		exceptions.Panicf("convolution strides length inconsistent with input shape: %v (rank %d) v %s (rank %d)",
			strides, len(strides), imageShape, rank)
	}
	n, co, ci := edsl.NewIndex("n"), edsl.NewIndex("co"), edsl.NewIndex("ci")
	output := edsl.NamedParam("O")
	var kernelIdxs []edsl.Index
	imageIdxs := []edsl.Index{n}
	outputIdxs := []edsl.Index{n}
	kernelSpatialOffset := 0
	if kernelFormat == ChannelsFirst {
		kernelSpatialOffset = 2
		kernelIdxs = append(kernelIdxs, co, ci)
	}
	if imageFormat == ChannelsFirst {
		imageIdxs = append(imageIdxs, ci)
		outputIdxs = append(outputIdxs, co)
	}
	for i := 0; i < rank; i++ {
		x := edsl.NewIndex(fmt.Sprintf("x%d", i))
		k := edsl.NewIndex(fmt.Sprintf("k%d", i))
		kernelDim := kernelShape.Dims[kernelSpatialOffset+i].Size
		imageIdxs = append(imageIdxs, x.MulInt(int64(strides[i])).Add(k).SubInt(int64(kernelDim/2)))
		kernelIdxs = append(kernelIdxs, k)
		outputIdxs = append(outputIdxs, x)
	}
	if imageFormat == ChannelsLast {
		imageIdxs = append(imageIdxs, ci)
		outputIdxs = append(outputIdxs, co)
	}
	if kernelFormat == ChannelsLast {
		kernelIdxs = append(kernelIdxs, ci, co)
	}
	output.Out(outputIdxs, outputDims).AddAssign(image.At(imageIdxs...).Mul(kernel.At(kernelIdxs...)))
	return output
}

// DilatedConvolution2 is a 2D valid convolution with dilations 2 and 3 over
// the two spatial dimensions, channels-last.
func DilatedConvolution2(image, kernel edsl.Tensor) edsl.Tensor {
	batch, lx, ly := image.Dims(0), image.Dims(1), image.Dims(2)
	lkx, lky, co := kernel.Dims(0), kernel.Dims(1), kernel.Dims(3)
	output := edsl.NamedParam("O")
	n, x, y := edsl.NewIndex(), edsl.NewIndex(), edsl.NewIndex()
	kx, ky := edsl.NewIndex(), edsl.NewIndex()
	ci, oc := edsl.NewIndex(), edsl.NewIndex()
	sizes := []int{batch, lx - 2*(lkx-1), ly - 3*(lky-1), co}
	output.Out([]edsl.Index{n, x, y, oc}, sizes).AddAssign(
		image.At(n, x.Add(kx.MulInt(2)), y.Add(ky.MulInt(3)), ci).
			Mul(kernel.At(kx, ky, ci, oc)))
	return output
}

// LoadMatMul lowers a matrix multiplication over inputs of the given shapes.
func LoadMatMul(name string, i1, i2 shapes.Shape) ir.RunInfo {
	a := edsl.Param(i1, "A")
	b := edsl.Param(i2, "B")
	return edsl.Evaluate(name, []edsl.Tensor{MatMul(a, b)})
}

// LoadMatMulRelu lowers a matrix multiplication followed by a relu, with the
// intermediate product shared inside one program.
func LoadMatMulRelu(name string, i1, i2 shapes.Shape) ir.RunInfo {
	a := edsl.Param(i1, "A")
	b := edsl.Param(i2, "B")
	return edsl.Evaluate(name, []edsl.Tensor{Relu(MatMul(a, b))})
}

// LoadConvolution lowers a channels-last convolution over inputs of the given
// shapes to the given output sizes.
func LoadConvolution(name string, image, kernel shapes.Shape, outputDims []int) ir.RunInfo {
	i := edsl.Param(image, "I")
	k := edsl.Param(kernel, "K")
	o := Convolution(i, k, outputDims, nil, ChannelsLast, ChannelsLast)
	return edsl.Evaluate(name, []edsl.Tensor{o})
}
