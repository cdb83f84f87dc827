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
	"github.com/x448/float16"
)

// DType indicates the type of the unit element of a tensor, or of its
// representation as a node in an expression graph.
//
// PRNG is the opaque state type produced by the `prng_step` special op; it
// never holds user data and only flows between the prng_* ops.
type DType int32

//go:generate stringer -type=DType

const (
	InvalidDType DType = iota
	Bool
	Int16
	Int32
	Int64
	UInt16
	UInt32
	UInt64
	Float16
	Float32
	Float64
	PRNG
)

// I32, I64, F32, and F64 are shortcuts for the most common DTypes.
const (
	I32 = Int32
	I64 = Int64
	F32 = Float32
	F64 = Float64
)

// IsFloat returns whether dtype is one of the floating point types.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == Float64
}

// IsInt returns whether dtype is one of the signed or unsigned integer types.
func (dtype DType) IsInt() bool {
	switch dtype {
	case Int16, Int32, Int64, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

// BitWidth returns the number of bits used to store one element of dtype.
// It is what drives type promotion in elementwise operations: among two
// non-float (or two float) types the wider one wins.
func (dtype DType) BitWidth() int {
	switch dtype {
	case Bool:
		return 8
	case Int16, UInt16, Float16:
		return 16
	case Int32, UInt32, Float32, PRNG:
		return 32
	case Int64, UInt64, Float64:
		return 64
	}
	return 0
}

// ByteSize returns the size in bytes of one element of dtype.
func (dtype DType) ByteSize() int { return dtype.BitWidth() / 8 }

// CastScalar converts a float64 value to the Go value corresponding to dtype.
// Float16 values use the github.com/x448/float16 representation.
func (dtype DType) CastScalar(value float64) any {
	switch dtype {
	case Bool:
		return value != 0
	case Int16:
		return int16(value)
	case Int32:
		return int32(value)
	case Int64:
		return int64(value)
	case UInt16:
		return uint16(value)
	case UInt32:
		return uint32(value)
	case UInt64:
		return uint64(value)
	case Float16:
		return float16.Fromfloat32(float32(value))
	case Float32:
		return float32(value)
	case Float64:
		return value
	}
	return nil
}
