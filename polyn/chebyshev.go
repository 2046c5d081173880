package polyn

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrNoConvergence is returned when a Chebyshev fit cannot reach the
// requested tolerance within the maximum degree.
var ErrNoConvergence = errors.New("chebyshev fit did not converge")

// ErrNotMonotone is returned when sampled data meant to be inverted is not
// strictly increasing.
var ErrNotMonotone = errors.New("sample points are not strictly increasing")

// Chebyshev is a truncated Chebyshev series
//
//	f(x) ≈ Σ c.k T.k(u),  u = (2x − a − b) / (b − a)
//
// valid on the interval [A,B].
type Chebyshev struct {
	Coeffs []float64
	A, B   float64
}

// Degree of the series.
func (c Chebyshev) Degree() int {
	return len(c.Coeffs) - 1
}

// Eval evaluates the series at x with Clenshaw's recurrence. Arguments
// outside [A,B] are extrapolated.
func (c Chebyshev) Eval(x float64) float64 {
	if len(c.Coeffs) == 0 {
		return 0
	}
	u := (2*x - c.A - c.B) / (c.B - c.A)
	var b1, b2 float64
	for k := len(c.Coeffs) - 1; k >= 1; k-- {
		b1, b2 = 2*u*b1-b2+c.Coeffs[k], b1
	}
	return u*b1 - b2 + c.Coeffs[0]
}

const minChebyshevDegree = 16

// FitChebyshev approximates f on [a,b]. The degree is doubled until the
// maximum error on a check grid is below tol, then trailing coefficients
// smaller than tol/10 are dropped.
func FitChebyshev(f func(float64) float64, a, b, tol float64, maxDegree int) (Chebyshev, error) {
	if !(b > a) {
		return Chebyshev{}, fmt.Errorf("%w: empty interval [%g,%g]", ErrNoConvergence, a, b)
	}
	for n := minChebyshevDegree; n <= maxDegree; n *= 2 {
		c := Chebyshev{Coeffs: chebyshevCoeffs(f, a, b, n), A: a, B: b}
		if e := c.maxError(f, 4*n); e < tol {
			c.trim(tol / 10)
			T().Debugf("chebyshev fit on [%g,%g]: degree %d, error %.3g", a, b, c.Degree(), e)
			return c, nil
		}
	}
	return Chebyshev{}, fmt.Errorf("%w: degree %d, tolerance %g", ErrNoConvergence, maxDegree, tol)
}

func chebyshevCoeffs(f func(float64) float64, a, b float64, n int) []float64 {
	values := make([]float64, n)
	for k := 0; k < n; k++ {
		u := math.Cos(math.Pi * (float64(k) + 0.5) / float64(n))
		values[k] = f((b-a)/2*u + (a+b)/2)
	}
	coeffs := make([]float64, n)
	for j := 0; j < n; j++ {
		var s float64
		for k := 0; k < n; k++ {
			s += values[k] * math.Cos(math.Pi*float64(j)*(float64(k)+0.5)/float64(n))
		}
		coeffs[j] = 2 * s / float64(n)
	}
	coeffs[0] /= 2
	return coeffs
}

func (c Chebyshev) maxError(f func(float64) float64, m int) float64 {
	xs := make([]float64, m)
	floats.Span(xs, c.A, c.B)
	var e float64
	for _, x := range xs {
		e = math.Max(e, math.Abs(c.Eval(x)-f(x)))
	}
	return e
}

func (c *Chebyshev) trim(eps float64) {
	n := len(c.Coeffs)
	for n > 1 && math.Abs(c.Coeffs[n-1]) < eps {
		n--
	}
	c.Coeffs = c.Coeffs[:n]
}

// InterpolatePoints fits a Chebyshev series through sampled points (x.i, y.i),
// with x strictly increasing. Between samples the data is read as piecewise
// linear.
func InterpolatePoints(xs, ys []float64, tol float64, maxDegree int) (Chebyshev, error) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return Chebyshev{}, fmt.Errorf("%w: need at least 2 samples", ErrNoConvergence)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return Chebyshev{}, fmt.Errorf("%w: at sample %d", ErrNotMonotone, i)
		}
	}
	f := func(x float64) float64 {
		return LinearLookup(xs, ys, x)
	}
	return FitChebyshev(f, xs[0], xs[len(xs)-1], tol, maxDegree)
}

// LinearLookup interpolates linearly in a table with increasing xs. Queries
// outside the table are clamped to the end values.
func LinearLookup(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	lo, hi := i-1, i
	w := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + w*(ys[hi]-ys[lo])
}
