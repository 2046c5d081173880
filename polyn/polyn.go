// Package polyn is for arithmetic with sparse polynomials, Chebyshev series
// and systems of linear equations.
/*
BSD 3-Clause License

Copyright (c) 2017–21, Norbert Pillmayer.

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
   list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
   this list of conditions and the following disclaimer in the documentation
   and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
   contributors may be used to endorse or promote products derived from
   this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
*/
package polyn

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to the equations tracer.
func T() tracing.Trace {
	return tracing.Select("ensnano.equations")
}

// ErrNegativeExponent is returned by New for terms with an exponent below 0.
var ErrNegativeExponent = errors.New("term exponent must not be negative")

// X is a helper for quick construction of polynomials.
// It denotes a term
//
//	C⋅x^I
type X struct {
	I int     // exponent of x
	C float64 // coefficient
}

// New creates a polynomial, given the constant and further terms.
//
// Use it as
//
//	polyn.New(8, polyn.X{2,5}, polyn.X{1,2/3} )
//
// to get
//
//	P(x) = 8 + 2/3 x + 5 x²
//
// Read as a linear polynomial, key i denotes the variable x.i instead of an
// exponent; the linear equation solver of this package does that.
func New(c float64, tms ...X) (Polynomial, error) {
	p := NewConstantPolynomial(c)
	var err error
	for _, t := range tms {
		if t.I < 0 {
			err = fmt.Errorf("%w: %d", ErrNegativeExponent, t.I)
		} else {
			p.SetTerm(t.I, p.Coeff(t.I)+t.C)
		}
	}
	return p.Zap(), err
}

// Must is a helper for literals in tests and tables.
func Must(p Polynomial, err error) Polynomial {
	if err != nil {
		panic(err)
	}
	return p
}

// Polynomial is a sparse polynomial
//
//	c + a.1 x.1 + a.2 x.2 + ... a.n x.n .
//
// We store the coefficients only, keyed by exponent (or by variable id).
// Key 0 is the constant term. The coefficients live in a TreeMap (sorted
// map), so iteration is in ascending key order.
type Polynomial struct {
	Terms *treemap.Map
}

// NewConstantPolynomial creates a Polynomial consisting of just a constant term.
func NewConstantPolynomial(c float64) Polynomial {
	p := Polynomial{Terms: treemap.NewWithIntComparator()}
	p.Terms.Put(0, c)
	return p
}

func (p *Polynomial) checkTerms() {
	if p.Terms == nil {
		p.Terms = treemap.NewWithIntComparator()
		p.Terms.Put(0, 0.0)
	}
}

// SetTerm sets the coefficient for term i. For i=0, sets the constant term.
func (p Polynomial) SetTerm(i int, scale float64) Polynomial {
	p.checkTerms()
	p.Terms.Put(i, scale)
	return p
}

// Coeff gets the coefficient for term i.
//
// Example:
//
//	p = x + 3x²
//
// ⇒
//
//	coeff(2) = 3
func (p Polynomial) Coeff(i int) float64 {
	if p.Terms == nil {
		return 0
	}
	if sc, found := p.Terms.Get(i); found {
		return sc.(float64)
	}
	return 0.0
}

// ConstantValue returns the constant term of a polynomial.
func (p Polynomial) ConstantValue() float64 {
	return p.Coeff(0)
}

// Exponents returns the keys of all stored terms, ascending.
func (p Polynomial) Exponents() []int {
	p.checkTerms()
	keys := p.Terms.Keys()
	exps := make([]int, len(keys))
	for i, k := range keys {
		exps[i] = k.(int)
	}
	return exps
}

// TermCount is the number of non-constant terms.
func (p Polynomial) TermCount() int {
	p.checkTerms()
	n := p.Terms.Size()
	if _, ok := p.Terms.Get(0); ok {
		n--
	}
	return n
}

// Degree is the highest exponent with a non-zero coefficient, 0 for constants.
func (p Polynomial) Degree() int {
	exps := p.Exponents()
	for i := len(exps) - 1; i >= 0; i-- {
		if !ensnano.Is0(p.Coeff(exps[i])) {
			return exps[i]
		}
	}
	return 0
}

// CopyPolynomial makes a copy of a Polynomial.
func (p Polynomial) CopyPolynomial() Polynomial {
	p.checkTerms()
	p1 := NewConstantPolynomial(0.0)
	it := p.Terms.Iterator()
	for it.Next() {
		p1.Terms.Put(it.Key(), it.Value())
	}
	return p1
}

// Zap eliminates all terms with coefficient=0 from a polynomial. The
// constant term is always kept.
func (p Polynomial) Zap() Polynomial {
	p.checkTerms()
	for _, pos := range p.Terms.Keys() {
		if scale, _ := p.Terms.Get(pos); ensnano.Is0(scale.(float64)) {
			p.Terms.Remove(pos)
		}
	}
	if _, ok := p.Terms.Get(0); !ok {
		p.Terms.Put(0, 0.0)
	}
	return p
}

// IsConstant checks wether a Polynomial is a constant, i.e. p = { c }?
// Returns the constant and a flag.
func (p Polynomial) IsConstant() (float64, bool) {
	return p.ConstantValue(), p.TermCount() == 0
}

// === Arithmetic ============================================================

func (p Polynomial) addOrSub(p2 Polynomial, sign float64) Polynomial {
	p1 := p.CopyPolynomial()
	p2.checkTerms()
	it := p2.Terms.Iterator()
	for it.Next() {
		pos := it.Key().(int)
		p1.SetTerm(pos, p1.Coeff(pos)+sign*it.Value().(float64))
	}
	return p1.Zap()
}

// Add adds two Polynomials. Returns a new Polynomial.
func (p Polynomial) Add(p2 Polynomial) Polynomial {
	return p.addOrSub(p2, 1)
}

// Subtract subtracts p2 from p. Returns a new Polynomial.
func (p Polynomial) Subtract(p2 Polynomial) Polynomial {
	return p.addOrSub(p2, -1)
}

// Scale multiplies every coefficient by c. Returns a new Polynomial.
func (p Polynomial) Scale(c float64) Polynomial {
	p1 := p.CopyPolynomial()
	it := p1.Terms.Iterator()
	for it.Next() {
		p1.Terms.Put(it.Key(), ensnano.Zap(it.Value().(float64)*c))
	}
	return p1.Zap()
}

// Multiply multiplies two univariate polynomials.
func (p Polynomial) Multiply(p2 Polynomial) Polynomial {
	p.checkTerms()
	p2.checkTerms()
	r := NewConstantPolynomial(0)
	it := p.Terms.Iterator()
	for it.Next() {
		i, a := it.Key().(int), it.Value().(float64)
		it2 := p2.Terms.Iterator()
		for it2.Next() {
			j, b := it2.Key().(int), it2.Value().(float64)
			r.SetTerm(i+j, r.Coeff(i+j)+a*b)
		}
	}
	return r.Zap()
}

// Eval evaluates the univariate polynomial at t.
func (p Polynomial) Eval(t float64) float64 {
	p.checkTerms()
	// walk exponents downwards, Horner style with gaps
	exps := p.Exponents()
	v := 0.0
	prev := exps[len(exps)-1]
	for i := len(exps) - 1; i >= 0; i-- {
		e := exps[i]
		v *= math.Pow(t, float64(prev-e))
		v += p.Coeff(e)
		prev = e
	}
	return v * math.Pow(t, float64(prev))
}

// Derivative of a univariate polynomial.
func (p Polynomial) Derivative() Polynomial {
	p.checkTerms()
	d := NewConstantPolynomial(0)
	it := p.Terms.Iterator()
	for it.Next() {
		e := it.Key().(int)
		if e > 0 {
			d.SetTerm(e-1, float64(e)*it.Value().(float64))
		}
	}
	return d.Zap()
}

// RealRoots returns the real roots of a univariate polynomial within
// the closed interval [a,b], ascending. Quadratics are solved in closed
// form; higher degrees are bracketed by the roots of the derivative and
// refined by bisection. The zero polynomial reports no roots.
func (p Polynomial) RealRoots(a, b float64) []float64 {
	p = p.CopyPolynomial().Zap()
	roots := p.realRoots(a, b)
	sort.Float64s(roots)
	return dedup(roots)
}

func (p Polynomial) realRoots(a, b float64) []float64 {
	switch p.Degree() {
	case 0:
		return nil
	case 1:
		r := -p.Coeff(0) / p.Coeff(1)
		return within([]float64{r}, a, b)
	case 2:
		return within(quadraticRoots(p.Coeff(2), p.Coeff(1), p.Coeff(0)), a, b)
	}
	// monotone pieces between the critical points
	cuts := append([]float64{a}, p.Derivative().RealRoots(a, b)...)
	cuts = append(cuts, b)
	var roots []float64
	for i := 0; i+1 < len(cuts); i++ {
		if r, ok := bisect(p.Eval, cuts[i], cuts[i+1]); ok {
			roots = append(roots, r)
		}
	}
	return roots
}

func quadraticRoots(a, b, c float64) []float64 {
	if ensnano.Is0(a) {
		if ensnano.Is0(b) {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	// avoid cancellation for the smaller root
	q := -0.5 * (b + math.Copysign(sq, b))
	if q == 0 {
		return []float64{0}
	}
	return []float64{q / a, c / q}
}

func bisect(f func(float64) float64, lo, hi float64) (float64, bool) {
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if (flo < 0) == (fhi < 0) {
		return 0, false
	}
	for i := 0; i < 200 && hi-lo > 1e-15; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}

func within(rs []float64, a, b float64) []float64 {
	var out []float64
	for _, r := range rs {
		if r >= a && r <= b {
			out = append(out, r)
		}
	}
	return out
}

func dedup(rs []float64) []float64 {
	if len(rs) < 2 {
		return rs
	}
	out := rs[:1]
	for _, r := range rs[1:] {
		if math.Abs(r-out[len(out)-1]) > 1e-12 {
			out = append(out, r)
		}
	}
	return out
}

// === Output ================================================================

// VariableResolver links solver variable IDs to "real" variable names.
type VariableResolver interface {
	GetVariableName(int) string     // get real-life name of x.i
	SetVariableSolved(int, float64) // message: x.i is solved
}

// String creates a readable string representation for a Polynomial.
// Uses internal variable representations x.<n>.
func (p Polynomial) String() string {
	return p.TraceString(nil)
}

// TraceString creates a string representation for a Polynomial. Uses a variable name
// resolver to print 'real' variable identifiers. If no resolver is
// present, variables are printed in a generic form: { a.i x.i }.
func (p Polynomial) TraceString(resolv VariableResolver) string {
	var buffer bytes.Buffer
	p.checkTerms()
	it := p.Terms.Iterator()
	for it.Next() {
		pos := it.Key().(int)
		scale := it.Value().(float64)
		if pos == 0 {
			buffer.WriteString(fmt.Sprintf("{ %g } ", ensnano.Round(scale)))
			continue
		}
		buffer.WriteString(fmt.Sprintf("{ %g %s } ", ensnano.Round(scale), TraceStringVar(pos, resolv)))
	}
	return buffer.String()
}

// TraceStringVar is a helper for tracing output. Parameter resolv may be nil.
func TraceStringVar(i int, resolv VariableResolver) string {
	if resolv == nil {
		return fmt.Sprintf("x.%d", i)
	}
	return resolv.GetVariableName(i)
}
