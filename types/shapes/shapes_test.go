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

package shapes

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Scalar(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dims, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, shape0.ByteSize())

	shape1 := SimpleShape(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Equal(t, []int{4, 3, 2}, shape1.Sizes())
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, shape1.ByteSize())
}

func TestSimpleShapeStrides(t *testing.T) {
	shape := SimpleShape(Int32, 4, 3, 2)
	require.Equal(t, []Dimension{{4, 6}, {3, 2}, {2, 1}}, shape.Dims)

	shape.Dims[1].Size = 5
	shape.RecomputeStrides()
	require.Equal(t, []Dimension{{4, 10}, {5, 2}, {2, 1}}, shape.Dims)
}

func TestShapeEqual(t *testing.T) {
	require.True(t, SimpleShape(Float32, 2, 3).Equal(SimpleShape(Float32, 2, 3)))
	require.False(t, SimpleShape(Float32, 2, 3).Equal(SimpleShape(Float64, 2, 3)))
	require.False(t, SimpleShape(Float32, 2, 3).Equal(SimpleShape(Float32, 3, 2)))
	require.True(t, SimpleShape(Float32, 2, 3).EqualDimensions(SimpleShape(Int64, 2, 3)))
}

func TestDType(t *testing.T) {
	require.True(t, Float16.IsFloat())
	require.False(t, Float16.IsInt())
	require.True(t, UInt64.IsInt())
	require.False(t, Bool.IsInt())
	require.False(t, PRNG.IsFloat())

	require.Equal(t, 0, InvalidDType.BitWidth())
	require.Equal(t, 8, Bool.BitWidth())
	require.Equal(t, 16, Float16.BitWidth())
	require.Equal(t, 32, PRNG.BitWidth())
	require.Equal(t, 64, UInt64.BitWidth())

	require.Equal(t, "Float32", F32.String())
	require.Equal(t, "PRNG", PRNG.String())
}

func TestCastScalar(t *testing.T) {
	require.Equal(t, int32(3), Int32.CastScalar(3.7))
	require.Equal(t, 3.7, Float64.CastScalar(3.7))
	require.Equal(t, float16.Fromfloat32(1.5), Float16.CastScalar(1.5))
	require.Equal(t, true, Bool.CastScalar(1))
	require.Nil(t, InvalidDType.CastScalar(1))
}

func TestShapeGob(t *testing.T) {
	shape := SimpleShape(Float32, 4, 2)
	var buf bytes.Buffer
	require.NoError(t, shape.GobSerialize(gob.NewEncoder(&buf)))
	got, err := GobDeserialize(gob.NewDecoder(&buf))
	require.NoError(t, err)
	require.True(t, shape.Equal(got))
}
