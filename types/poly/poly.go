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

// Package poly implements canonical affine polynomials over rationals, the
// index algebra of contractions.
//
// A Polynomial maps index-variable names to rational coefficients; the
// constant term is stored under the empty name. All operations keep the value
// canonical: zero coefficients are never stored, so two polynomials are equal
// iff their maps are equal. Only affine forms are expressible: polynomials can
// be added and subtracted, but multiplied and divided only by constants.
package poly

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
)

// Polynomial is an affine polynomial over index variables with rational
// coefficients. The key "" holds the constant term. Use the constructors; the
// nil map is a valid zero polynomial for reading but not for writing.
type Polynomial map[string]*big.Rat

// NewConstant returns the polynomial holding only the given constant.
func NewConstant(value int64) Polynomial {
	p := Polynomial{}
	if value != 0 {
		p[""] = big.NewRat(value, 1)
	}
	return p
}

// NewIndex returns the polynomial `1*name`.
func NewIndex(name string) Polynomial {
	if name == "" {
		exceptions.Panicf("poly.NewIndex: index variable name cannot be empty")
	}
	return Polynomial{name: big.NewRat(1, 1)}
}

// Clone returns a deep copy of the polynomial.
func (p Polynomial) Clone() Polynomial {
	p2 := make(Polynomial, len(p))
	for name, coeff := range p {
		p2[name] = new(big.Rat).Set(coeff)
	}
	return p2
}

// Coeff returns the coefficient of the given index variable, or zero if the
// variable does not appear. The empty name returns the constant term.
func (p Polynomial) Coeff(name string) *big.Rat {
	if coeff, ok := p[name]; ok {
		return new(big.Rat).Set(coeff)
	}
	return new(big.Rat)
}

// IsConstant returns whether the polynomial has no index variables.
func (p Polynomial) IsConstant() bool {
	for name := range p {
		if name != "" {
			return false
		}
	}
	return true
}

// Constant returns the constant term.
func (p Polynomial) Constant() *big.Rat { return p.Coeff("") }

// Add returns p + q.
func (p Polynomial) Add(q Polynomial) Polynomial {
	sum := p.Clone()
	for name, coeff := range q {
		cur, ok := sum[name]
		if !ok {
			cur = new(big.Rat)
			sum[name] = cur
		}
		cur.Add(cur, coeff)
		if cur.Sign() == 0 {
			delete(sum, name)
		}
	}
	return sum
}

// Sub returns p - q.
func (p Polynomial) Sub(q Polynomial) Polynomial { return p.Add(q.Negative()) }

// Negative returns -p.
func (p Polynomial) Negative() Polynomial {
	neg := p.Clone()
	for _, coeff := range neg {
		coeff.Neg(coeff)
	}
	return neg
}

// MulConstant returns p scaled by the given constant.
func (p Polynomial) MulConstant(c *big.Rat) Polynomial {
	if c.Sign() == 0 {
		return Polynomial{}
	}
	scaled := p.Clone()
	for _, coeff := range scaled {
		coeff.Mul(coeff, c)
	}
	return scaled
}

// DivConstant returns p divided by the given constant. Division by zero panics.
func (p Polynomial) DivConstant(c *big.Rat) Polynomial {
	if c.Sign() == 0 {
		exceptions.Panicf("polynomial division by zero: %s / 0", p)
	}
	return p.MulConstant(new(big.Rat).Inv(c))
}

// Equal compares two polynomials term by term.
func (p Polynomial) Equal(q Polynomial) bool {
	if len(p) != len(q) {
		return false
	}
	for name, coeff := range p {
		other, ok := q[name]
		if !ok || coeff.Cmp(other) != 0 {
			return false
		}
	}
	return true
}

// IndexNames returns the index variables of the polynomial, sorted.
func (p Polynomial) IndexNames() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// String implements fmt.Stringer. Terms are printed in sorted variable order,
// the constant term last, e.g. "2*i + 1/2*j - 1".
func (p Polynomial) String() string {
	var sb strings.Builder
	appendTerm := func(coeff *big.Rat, name string) {
		if sb.Len() == 0 {
			if coeff.Sign() < 0 {
				sb.WriteString("-")
			}
		} else if coeff.Sign() < 0 {
			sb.WriteString(" - ")
		} else {
			sb.WriteString(" + ")
		}
		abs := new(big.Rat).Abs(coeff)
		if name == "" {
			sb.WriteString(abs.RatString())
			return
		}
		if abs.Cmp(big.NewRat(1, 1)) != 0 {
			sb.WriteString(fmt.Sprintf("%s*", abs.RatString()))
		}
		sb.WriteString(name)
	}
	for _, name := range p.IndexNames() {
		appendTerm(p[name], name)
	}
	if constant := p.Constant(); constant.Sign() != 0 {
		appendTerm(constant, "")
	}
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

// RangeConstraint is the inequality 0 <= Poly < Range over the integer values
// of the polynomial's index variables.
type RangeConstraint struct {
	Poly  Polynomial
	Range int
}

// String implements fmt.Stringer.
func (c RangeConstraint) String() string {
	return fmt.Sprintf("%s < %d", c.Poly, c.Range)
}
