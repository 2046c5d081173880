package curve

import (
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/polyn"
	"gonum.org/v1/gonum/spatial/r3"
)

// CubicBezier is a Bézier segment with start, two control points and end,
// for t ∈ [0,1].
type CubicBezier struct {
	traits
	Start, Control1, Control2, End r3.Vec
	q0, q1, q2, q3                 r3.Vec // power basis
}

// NewCubicBezier prepares a Bézier segment for evaluation.
func NewCubicBezier(start, control1, control2, end r3.Vec) *CubicBezier {
	b := &CubicBezier{Start: start, Control1: control1, Control2: control2, End: end}
	b.q0 = start
	b.q1 = r3.Scale(3, r3.Sub(control1, start))
	b.q2 = r3.Scale(3, r3.Add(r3.Sub(control2, r3.Scale(2, control1)), start))
	b.q3 = r3.Add(r3.Sub(end, start), r3.Scale(3, r3.Sub(control1, control2)))
	return b
}

// Kind is CubicBezierKind.
func (b *CubicBezier) Kind() Kind { return CubicBezierKind }

// TMin is 0.
func (b *CubicBezier) TMin() float64 { return 0 }

// TMax is 1.
func (b *CubicBezier) TMax() float64 { return 1 }

// Position evaluates q0 + t q1 + t² q2 + t³ q3 in Horner form.
func (b *CubicBezier) Position(t float64) r3.Vec {
	p := r3.Add(b.q2, r3.Scale(t, b.q3))
	p = r3.Add(b.q1, r3.Scale(t, p))
	return r3.Add(b.q0, r3.Scale(t, p))
}

// Speed is the first derivative.
func (b *CubicBezier) Speed(t float64) r3.Vec {
	p := r3.Add(r3.Scale(3*t, b.q3), r3.Scale(2, b.q2))
	return r3.Add(b.q1, r3.Scale(t, p))
}

// Acceleration is the second derivative.
func (b *CubicBezier) Acceleration(t float64) r3.Vec {
	return r3.Add(r3.Scale(6*t, b.q3), r3.Scale(2, b.q2))
}

const inflectionEpsilon = 1e-6

// InflectionPoints returns the parameters in ]0,1[ where speed and
// acceleration are parallel, in ascending order.
//
// speed × acceleration is the vector polynomial
//
//	2 q1×q2 + 6 q1×q3 t + 6 q2×q3 t²
//
// Roots are taken from the coordinate with the largest coefficients and
// accepted only if they zero all three coordinates.
func (b *CubicBezier) InflectionPoints() []float64 {
	c0 := r3.Scale(2, r3.Cross(b.q1, b.q2))
	c1 := r3.Scale(6, r3.Cross(b.q1, b.q3))
	c2 := r3.Scale(6, r3.Cross(b.q2, b.q3))
	coords := [3][3]float64{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}
	var polys [3]polyn.Polynomial
	driver, scale := -1, 0.0
	for k, c := range coords {
		m := math.Max(math.Abs(c[0]), math.Max(math.Abs(c[1]), math.Abs(c[2])))
		if m > scale {
			driver, scale = k, m
		}
		polys[k] = polyn.Must(polyn.New(c[0], polyn.X{I: 1, C: c[1]}, polyn.X{I: 2, C: c[2]}))
	}
	if driver < 0 {
		return nil // a straight segment
	}
	unit := polys[driver].Scale(1 / scale)
	var inflections []float64
	for _, r := range unit.RealRoots(0, 1) {
		if r <= 0 || r >= 1 {
			continue
		}
		accept := true
		for _, p := range polys {
			if math.Abs(p.Eval(r))/scale > inflectionEpsilon {
				accept = false
			}
		}
		if accept {
			inflections = append(inflections, r)
		}
	}
	tracer().Debugf("bezier %s: %d inflection point(s)", ensnano.VecString(b.Start), len(inflections))
	return inflections
}

// --- Piecewise Bézier ------------------------------------------------------

// BezierEnd is a vertex of a piecewise Bézier curve. Segment i runs from
// ends[i].Position to ends[i+1].Position with control points
// ends[i].Position + ends[i].VectorOut and ends[i+1].Position - ends[i+1].VectorIn.
type BezierEnd struct {
	Position  r3.Vec
	VectorIn  r3.Vec
	VectorOut r3.Vec
}

// PiecewiseBezier concatenates cubic Bézier segments. For n ends it is
// defined on [0, n-1], or on [0, n] if cyclic. Beyond the last end and
// before the first one it continues along the end tangents.
type PiecewiseBezier struct {
	traits
	Ends       []BezierEnd
	Cyclic     bool
	tmin, tmax float64
	segments   []*CubicBezier
}

// NewPiecewiseBezier builds the curve through ends. Optional limits tMin
// and tMax override the default parameter interval; pass NaN to keep the
// default.
func NewPiecewiseBezier(ends []BezierEnd, cyclic bool, tMin, tMax float64) *PiecewiseBezier {
	pw := &PiecewiseBezier{Ends: ends, Cyclic: cyclic}
	n := len(ends)
	segs := n - 1
	if cyclic {
		segs = n
	}
	for i := 0; i < segs; i++ {
		from, to := ends[i], ends[(i+1)%n]
		pw.segments = append(pw.segments, NewCubicBezier(from.Position,
			r3.Add(from.Position, from.VectorOut),
			r3.Sub(to.Position, to.VectorIn),
			to.Position))
	}
	pw.tmin, pw.tmax = 0, float64(len(pw.segments))
	if !math.IsNaN(tMin) {
		pw.tmin = tMin
	}
	if !math.IsNaN(tMax) {
		pw.tmax = tMax
	}
	return pw
}

// Kind is PiecewiseBezierKind.
func (pw *PiecewiseBezier) Kind() Kind { return PiecewiseBezierKind }

// TMin is the lower parameter limit.
func (pw *PiecewiseBezier) TMin() float64 { return pw.tmin }

// TMax is the upper parameter limit.
func (pw *PiecewiseBezier) TMax() float64 { return pw.tmax }

// Bounds is PositiveInfinite: the curve may be extended past its last end.
func (pw *PiecewiseBezier) Bounds() Bounds {
	if pw.Cyclic {
		return Finite
	}
	return PositiveInfinite
}

// locate finds the segment of t and the local parameter. Outside the
// segments, u is below 0 or above 1.
func (pw *PiecewiseBezier) locate(t float64) (*CubicBezier, float64) {
	n := len(pw.segments)
	if t < 0 {
		return pw.segments[0], t
	}
	i := int(math.Floor(t))
	if i >= n {
		if pw.Cyclic {
			i = i % n
			return pw.segments[i], t - math.Floor(t)
		}
		return pw.segments[n-1], t - float64(n-1)
	}
	return pw.segments[i], t - float64(i)
}

// Position at t.
func (pw *PiecewiseBezier) Position(t float64) r3.Vec {
	if len(pw.segments) == 0 {
		return pw.single()
	}
	b, u := pw.locate(t)
	switch {
	case u < 0:
		return r3.Add(b.Start, r3.Scale(u, b.Speed(0)))
	case u > 1:
		return r3.Add(b.End, r3.Scale(u-1, b.Speed(1)))
	}
	return b.Position(u)
}

// Speed at t.
func (pw *PiecewiseBezier) Speed(t float64) r3.Vec {
	if len(pw.segments) == 0 {
		return r3.Vec{}
	}
	b, u := pw.locate(t)
	return b.Speed(math.Max(0, math.Min(1, u)))
}

// Acceleration at t. Zero on the straight extensions.
func (pw *PiecewiseBezier) Acceleration(t float64) r3.Vec {
	if len(pw.segments) == 0 {
		return r3.Vec{}
	}
	b, u := pw.locate(t)
	if u < 0 || u > 1 {
		return r3.Vec{}
	}
	return b.Acceleration(u)
}

func (pw *PiecewiseBezier) single() r3.Vec {
	if len(pw.Ends) == 0 {
		return r3.Vec{}
	}
	return pw.Ends[0].Position
}

// --- Tangents from vertices ------------------------------------------------

// Vertex is a point a piecewise Bézier curve passes through. Missing
// tangents are computed.
type Vertex struct {
	Position  r3.Vec
	VectorIn  *r3.Vec
	VectorOut *r3.Vec
}

// TangentMode selects how missing tangents are computed.
type TangentMode int8

// Tangent modes
const (
	ChordTangents TangentMode = iota // 1/3 of the chord between the neighbours
	C2Tangents                       // natural C2 spline through the vertices
)

const defaultTangentNorm = 1. / 3.

// EndsFromVertices computes the ends of a piecewise Bézier curve through vs.
func EndsFromVertices(vs []Vertex, cyclic bool, mode TangentMode) []BezierEnd {
	n := len(vs)
	switch {
	case n == 0:
		return nil
	case n == 1:
		return []BezierEnd{{Position: vs[0].Position}}
	case n == 2 && !cyclic:
		v := r3.Scale(defaultTangentNorm, r3.Sub(vs[1].Position, vs[0].Position))
		return []BezierEnd{
			{Position: vs[0].Position, VectorIn: or(vs[0].VectorIn, v), VectorOut: or(vs[0].VectorOut, v)},
			{Position: vs[1].Position, VectorIn: or(vs[1].VectorIn, v), VectorOut: or(vs[1].VectorOut, v)},
		}
	}
	if mode == C2Tangents {
		if ends, ok := c2Ends(vs, cyclic); ok {
			return ends
		}
		tracer().Infof("C2 tangents not determined, falling back to chord tangents")
	}
	return chordEnds(vs, cyclic)
}

func or(v *r3.Vec, dflt r3.Vec) r3.Vec {
	if v == nil {
		return dflt
	}
	return *v
}

func chordEnds(vs []Vertex, cyclic bool) []BezierEnd {
	n := len(vs)
	ends := make([]BezierEnd, n)
	for i := range vs {
		if !cyclic && (i == 0 || i == n-1) {
			continue
		}
		from, to := vs[(i-1+n)%n].Position, vs[(i+1)%n].Position
		v := r3.Scale(defaultTangentNorm, r3.Sub(to, from))
		ends[i] = BezierEnd{Position: vs[i].Position, VectorIn: or(vs[i].VectorIn, v), VectorOut: or(vs[i].VectorOut, v)}
	}
	if !cyclic {
		// first and last end aim at the nearest inner control point
		c := r3.Sub(ends[1].Position, ends[1].VectorIn)
		v := r3.Scale(0.5, r3.Sub(c, vs[0].Position))
		ends[0] = BezierEnd{Position: vs[0].Position, VectorIn: or(vs[0].VectorIn, v), VectorOut: or(vs[0].VectorOut, v)}
		c = r3.Add(ends[n-2].Position, ends[n-2].VectorOut)
		v = r3.Scale(0.5, r3.Sub(vs[n-1].Position, c))
		ends[n-1] = BezierEnd{Position: vs[n-1].Position, VectorIn: or(vs[n-1].VectorIn, v), VectorOut: or(vs[n-1].VectorOut, v)}
	}
	return ends
}

// c2Ends solves for the derivatives D.i of a C2 cubic spline with unit
// parameter steps:
//
//	D.(i-1) + 4 D.i + D.(i+1) = 3 (P.(i+1) - P.(i-1))
//
// with natural end conditions for open curves. A vertex with a given
// out-vector v contributes D.i = 3v instead. Variable x.(i+1) is D.i.
func c2Ends(vs []Vertex, cyclic bool) ([]BezierEnd, bool) {
	n := len(vs)
	var solved [3][]float64
	for k := 0; k < 3; k++ {
		leq := polyn.NewLinEqSolver()
		for i := 0; i < n; i++ {
			if vs[i].VectorOut != nil {
				p := polyn.Must(polyn.New(-3*coord(*vs[i].VectorOut, k), polyn.X{I: i + 1, C: 1}))
				if err := leq.AddEq(p); err != nil {
					return nil, false
				}
				continue
			}
			var p polyn.Polynomial
			switch {
			case !cyclic && i == 0:
				rhs := 3 * (coord(vs[1].Position, k) - coord(vs[0].Position, k))
				p = polyn.Must(polyn.New(-rhs, polyn.X{I: 1, C: 2}, polyn.X{I: 2, C: 1}))
			case !cyclic && i == n-1:
				rhs := 3 * (coord(vs[n-1].Position, k) - coord(vs[n-2].Position, k))
				p = polyn.Must(polyn.New(-rhs, polyn.X{I: n - 1, C: 1}, polyn.X{I: n, C: 2}))
			default:
				prev, next := (i-1+n)%n, (i+1)%n
				rhs := 3 * (coord(vs[next].Position, k) - coord(vs[prev].Position, k))
				p = polyn.Must(polyn.New(-rhs, polyn.X{I: prev + 1, C: 1},
					polyn.X{I: i + 1, C: 4}, polyn.X{I: next + 1, C: 1}))
			}
			if err := leq.AddEq(p); err != nil {
				tracer().Debugf("C2 tangent system: %v", err)
				return nil, false
			}
		}
		solved[k] = make([]float64, n)
		for i := 0; i < n; i++ {
			d, ok := leq.Solved(i + 1)
			if !ok {
				return nil, false
			}
			solved[k][i] = d
		}
	}
	ends := make([]BezierEnd, n)
	for i := range vs {
		d := r3.Scale(1./3., ensnano.V(solved[0][i], solved[1][i], solved[2][i]))
		ends[i] = BezierEnd{Position: vs[i].Position, VectorIn: or(vs[i].VectorIn, d), VectorOut: or(vs[i].VectorOut, d)}
	}
	return ends, true
}

func coord(v r3.Vec, k int) float64 {
	switch k {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
