/*
Package curve turns analytic space curves into nucleotide frames.

A Curve describes the axis of a helix: position, speed and acceleration as
functions of a parameter t, plus a small set of optional capabilities
(closed-form arc length, a full-turn marker, a translation in the local
frame). Discretize walks a curve at a fixed arc-length step and produces
the positions and frames of the nucleotides of both strands, together with
an AbscissaConverter mapping arc length to nucleotide indices.

The set of curve variants is closed: CubicBezier, PiecewiseBezier, Torus,
TwistedTorus, Twist, InterpolatedCurve and RevolutionSurface. Translated
decorates any of them.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package curve

import (
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'ensnano.curve'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.curve")
}

// Bounds tells how far the parameter of a curve may run.
type Bounds int8

// Parameter intervals
const (
	Finite           Bounds = iota // t ∈ [TMin, TMax]
	PositiveInfinite               // t ∈ [TMin, +∞[, TMax is a current limit
)

func (b Bounds) String() string {
	if b == PositiveInfinite {
		return "positive-infinite"
	}
	return "finite"
}

// Kind enumerates the curve variants.
type Kind int8

// Curve variants
const (
	CubicBezierKind Kind = iota
	PiecewiseBezierKind
	TorusKind
	TwistedTorusKind
	TwistKind
	InterpolatedKind
	RevolutionKind
)

var kindNames = [...]string{"bezier", "piecewise-bezier", "torus", "twisted-torus",
	"twist", "interpolated", "revolution"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Curve is a parametric space curve. Optional capabilities report their
// availability with a boolean.
//
// The interface is sealed; new variants are added in this package.
type Curve interface {
	Kind() Kind
	TMin() float64
	TMax() float64
	Bounds() Bounds
	Position(t float64) r3.Vec
	Speed(t float64) r3.Vec
	Acceleration(t float64) r3.Vec
	// CurvilinearAbscissa is the arc length from t=0 to t, if known in closed form
	// or from a cached interpolation.
	CurvilinearAbscissa(t float64) (float64, bool)
	// InverseCurvilinearAbscissa is the parameter at arc length s.
	InverseCurvilinearAbscissa(s float64) (float64, bool)
	// InitialFrame fixes the "up" direction used to place a translation.
	InitialFrame() (ensnano.Frame, bool)
	// FullTurnAtT is the parameter at which the curve completes a revolution.
	FullTurnAtT() (float64, bool)
	// SubdivisionForT is the segment index of t for curves drawn as several
	// segments in the flat view. Must not decrease with t.
	SubdivisionForT(t float64) (int, bool)
	// Translation is a constant offset, in the local frame of each point.
	Translation() (r3.Vec, bool)
	// TimeMapsSingleton tells that no other helix shares the abscissa
	// converter of this curve.
	TimeMapsSingleton() bool
	sealed()
}

// traits gives every optional capability its "not available" answer.
// Variants embed it and override what they support.
type traits struct{}

func (traits) Bounds() Bounds { return Finite }
func (traits) CurvilinearAbscissa(float64) (float64, bool) { return 0, false }
func (traits) InverseCurvilinearAbscissa(float64) (float64, bool) { return 0, false }
func (traits) InitialFrame() (ensnano.Frame, bool) { return ensnano.Frame{}, false }
func (traits) FullTurnAtT() (float64, bool) { return 0, false }
func (traits) SubdivisionForT(float64) (int, bool) { return 0, false }
func (traits) Translation() (r3.Vec, bool) { return r3.Vec{}, false }
func (traits) TimeMapsSingleton() bool { return false }
func (traits) sealed() {}

// Curvature of c at t, the inverse radius of the osculating circle.
// Points of zero speed have curvature 0.
func Curvature(c Curve, t float64) float64 {
	speed := c.Speed(t)
	d := math.Pow(r3.Norm(speed), 3)
	if d < ensnano.Epsilon {
		return 0
	}
	return r3.Norm(r3.Cross(speed, c.Acceleration(t))) / d
}

// Length measures c between t0 and t1, from the closed form if present and
// else by summing the chords of nbStep samples.
func Length(c Curve, t0, t1 float64, nbStep int) float64 {
	if t0 > t1 {
		tracer().Errorf("bad parameters for length: t0=%g > t1=%g", t0, t1)
		return 0
	}
	if s0, ok := c.CurvilinearAbscissa(t0); ok {
		if s1, ok := c.CurvilinearAbscissa(t1); ok {
			return s1 - s0
		}
	}
	w := newWalker(c, t0, false)
	var l float64
	for i := 1; i <= nbStep; i++ {
		l += w.advanceTo(t0 + float64(i)/float64(nbStep)*(t1-t0))
	}
	return l
}

// Path samples n+1 points of c, evenly spaced in t. Used for previews.
func Path(c Curve, n int) []r3.Vec {
	if n < 1 {
		n = 1
	}
	pts := make([]r3.Vec, n+1)
	t0, t1 := c.TMin(), c.TMax()
	for i := range pts {
		pts[i] = c.Position(t0 + float64(i)/float64(n)*(t1-t0))
	}
	return pts
}

// --- Numeric derivatives ---------------------------------------------------

const (
	derivativeStep   = 1e-6
	accelerationStep = 1e-4
)

func numericSpeed(pos func(float64) r3.Vec, t float64) r3.Vec {
	d := r3.Sub(pos(t+derivativeStep/2), pos(t-derivativeStep/2))
	return r3.Scale(1/derivativeStep, d)
}

func numericAcceleration(pos func(float64) r3.Vec, t float64) r3.Vec {
	h := accelerationStep
	d := r3.Sub(r3.Add(pos(t+h), pos(t-h)), r3.Scale(2, pos(t)))
	return r3.Scale(1/(h*h), d)
}

// --- Translated ------------------------------------------------------------

// Translated moves every point of a curve by Offset, expressed in the frame
// of the point. If Up is set, the frame is re-oriented so that its second
// column is Up before the offset is applied; helices of a Bézier path grid
// use this to keep their place around the shared axis.
type Translated struct {
	Curve
	Offset r3.Vec
	Up     *ensnano.Frame
}

// Translate decorates c with an offset. up may be nil.
func Translate(c Curve, offset r3.Vec, up *ensnano.Frame) Translated {
	return Translated{Curve: c, Offset: offset, Up: up}
}

// Translation returns the offset.
func (tc Translated) Translation() (r3.Vec, bool) {
	return tc.Offset, true
}

// InitialFrame returns the frame fixing "up", if any.
func (tc Translated) InitialFrame() (ensnano.Frame, bool) {
	if tc.Up == nil {
		return tc.Curve.InitialFrame()
	}
	return *tc.Up, true
}

// CurvilinearAbscissa is unknown: the offset changes the arc length.
func (tc Translated) CurvilinearAbscissa(float64) (float64, bool) {
	return 0, false
}

// InverseCurvilinearAbscissa is unknown, see CurvilinearAbscissa.
func (tc Translated) InverseCurvilinearAbscissa(float64) (float64, bool) {
	return 0, false
}
