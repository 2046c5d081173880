package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/polyn"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrBadInterpolation flags a section interpolation that cannot be used.
var ErrBadInterpolation = errors.New("invalid section interpolation")

// Revolution is a section profile swept around the z axis. The section
// is scaled by Scale, placed at distance Radius from the axis and turns
// HalfTurns half turns per revolution.
type Revolution struct {
	Section   Profile
	HalfTurns int
	Radius    float64
	Scale     float64
}

// sectionAngle is the rotation of the section at t; it restarts with every
// revolution.
func (rev Revolution) sectionAngle(t float64) float64 {
	return math.Pi * float64(rev.HalfTurns) * ensnano.Mod(t, 1)
}

// point3D places the section point at parameter u, with the section
// rotated by angle, for time t.
func (rev Revolution) point3D(u, angle, t float64) r3.Vec {
	q := rev.Section.Point(ensnano.Mod(u, 1)).Rotated(angle)
	x := rev.Radius + rev.Scale*q.X()
	sin, cos := math.Sincos(2 * math.Pi * t)
	return r3.Vec{X: cos * x, Y: sin * x, Z: rev.Scale * q.Y()}
}

// --- Interpolated curve ----------------------------------------------------

// Interpolation gives the section parameter as a function of t within one
// revolution. Either Points/Values samples or a Chebyshev series are set.
type Interpolation struct {
	Points   []float64  `json:"points,omitempty"`
	Values   []float64  `json:"values,omitempty"`
	Coeffs   []float64  `json:"coeffs,omitempty"`
	Interval [2]float64 `json:"interval,omitempty"`
}

func (ip Interpolation) chebyshev() (polyn.Chebyshev, error) {
	if len(ip.Coeffs) > 0 {
		if !(ip.Interval[1] > ip.Interval[0]) {
			return polyn.Chebyshev{}, fmt.Errorf("%w: empty interval %v", ErrBadInterpolation, ip.Interval)
		}
		return polyn.Chebyshev{Coeffs: ip.Coeffs, A: ip.Interval[0], B: ip.Interval[1]}, nil
	}
	ch, err := polyn.InterpolatePoints(ip.Points, ip.Values, abscissaTolerance, chebyshevMaxDegree)
	if err != nil {
		return ch, fmt.Errorf("%w: %v", ErrBadInterpolation, err)
	}
	return ch, nil
}

// InterpolatedCurve is a helix on a revolution surface whose position on
// the section is interpolated, one series per revolution. Adjacent series
// are blended over a share Smoothing of each revolution.
type InterpolatedCurve struct {
	traits
	Revolution
	Smoothing     float64
	interpolators []polyn.Chebyshev
	abscissa      segmentAbscissa
}

// NewInterpolatedCurve instantiates the series and fits the arc length of
// every revolution.
func NewInterpolatedCurve(rev Revolution, interpolations []Interpolation, smoothing float64) (*InterpolatedCurve, error) {
	if len(interpolations) == 0 {
		return nil, fmt.Errorf("%w: no interpolation", ErrBadInterpolation)
	}
	ic := &InterpolatedCurve{Revolution: rev, Smoothing: smoothing}
	for i, ip := range interpolations {
		ch, err := ip.chebyshev()
		if err != nil {
			return nil, fmt.Errorf("revolution %d: %w", i, err)
		}
		ic.interpolators = append(ic.interpolators, ch)
	}
	ic.abscissa = fitSegments(ic.Position, len(ic.interpolators))
	return ic, nil
}

func (ic *InterpolatedCurve) Kind() Kind { return InterpolatedKind }
func (ic *InterpolatedCurve) TMin() float64 { return 0 }
func (ic *InterpolatedCurve) TMax() float64 { return float64(len(ic.interpolators)) }

// sectionParam returns the section parameter at t, blending the series of
// neighbouring revolutions close to their junction.
func (ic *InterpolatedCurve) sectionParam(t float64) float64 {
	n := len(ic.interpolators)
	u := ensnano.Mod(t, 1)
	k := int(math.Floor(t))
	cur := ((k % n) + n) % n
	prev, next := (cur+n-1)%n, (cur+1)%n
	a := ic.Smoothing
	var shift float64
	if ic.HalfTurns%2 != 0 {
		shift = 0.5
	}
	switch {
	case u < a:
		v := (1 + u/a) / 2
		v1 := ensnano.Mod(ic.interpolators[prev].Eval(1-a+v*a)+shift, 1)
		v2 := ensnano.Mod(ic.interpolators[cur].Eval(v*a), 1)
		return (1-v)*nearestTurn(v1, v2) + v*v2
	case u > 1-a:
		v := (u - (1 - a)) / a / 2
		v1 := ensnano.Mod(ic.interpolators[cur].Eval(1-a+v*a), 1)
		v2 := ensnano.Mod(ic.interpolators[next].Eval(v*a)-shift, 1)
		return (1-v)*v1 + v*nearestTurn(v2, v1)
	}
	return ic.interpolators[cur].Eval(u)
}

// nearestTurn shifts x by whole turns to within half a turn of ref.
func nearestTurn(x, ref float64) float64 {
	for x > ref+0.5 {
		x--
	}
	for x < ref-0.5 {
		x++
	}
	return x
}

func (ic *InterpolatedCurve) Position(t float64) r3.Vec {
	return ic.point3D(ic.sectionParam(t), ic.sectionAngle(t), t)
}

func (ic *InterpolatedCurve) Speed(t float64) r3.Vec {
	return numericSpeed(ic.Position, t)
}

func (ic *InterpolatedCurve) Acceleration(t float64) r3.Vec {
	return numericAcceleration(ic.Position, t)
}

func (ic *InterpolatedCurve) CurvilinearAbscissa(t float64) (float64, bool) {
	return ic.abscissa.abscissa(t)
}

func (ic *InterpolatedCurve) InverseCurvilinearAbscissa(s float64) (float64, bool) {
	return ic.abscissa.inverse(s)
}

// SubdivisionForT is the index of the revolution.
func (ic *InterpolatedCurve) SubdivisionForT(t float64) (int, bool) {
	return int(math.Floor(math.Min(t, ic.TMax()))), true
}

// FullTurnAtT is the end of the last revolution.
func (ic *InterpolatedCurve) FullTurnAtT() (float64, bool) {
	return ic.TMax(), true
}

func (ic *InterpolatedCurve) TimeMapsSingleton() bool { return true }

// --- Revolution surface ----------------------------------------------------

// RevolutionSurface is a helix at a fixed place of a revolution surface.
// Helix HelixIndex of NbHelices starts at section parameter
// HelixIndex/NbHelices and moves by ShiftPerTurn helix positions per
// revolution, for Turns revolutions.
type RevolutionSurface struct {
	traits
	Revolution
	NbHelices    int
	HelixIndex   int
	ShiftPerTurn int
	Turns        int
	abscissa     segmentAbscissa
}

// NewRevolutionSurface fits the arc length of every revolution.
func NewRevolutionSurface(rev Revolution, nbHelices, helixIndex, shiftPerTurn, turns int) *RevolutionSurface {
	if turns < 1 {
		turns = 1
	}
	if nbHelices < 1 {
		nbHelices = 1
	}
	rs := &RevolutionSurface{
		Revolution: rev,
		NbHelices:  nbHelices, HelixIndex: helixIndex,
		ShiftPerTurn: shiftPerTurn, Turns: turns,
	}
	rs.abscissa = fitSegments(rs.Position, turns)
	return rs
}

func (rs *RevolutionSurface) Kind() Kind { return RevolutionKind }
func (rs *RevolutionSurface) TMin() float64 { return 0 }
func (rs *RevolutionSurface) TMax() float64 { return float64(rs.Turns) }

func (rs *RevolutionSurface) sectionParam(t float64) float64 {
	return (float64(rs.HelixIndex) + float64(rs.ShiftPerTurn)*t) / float64(rs.NbHelices)
}

func (rs *RevolutionSurface) Position(t float64) r3.Vec {
	return rs.point3D(rs.sectionParam(t), math.Pi*float64(rs.HalfTurns)*t, t)
}

func (rs *RevolutionSurface) Speed(t float64) r3.Vec {
	return numericSpeed(rs.Position, t)
}

func (rs *RevolutionSurface) Acceleration(t float64) r3.Vec {
	return numericAcceleration(rs.Position, t)
}

func (rs *RevolutionSurface) CurvilinearAbscissa(t float64) (float64, bool) {
	return rs.abscissa.abscissa(t)
}

func (rs *RevolutionSurface) InverseCurvilinearAbscissa(s float64) (float64, bool) {
	return rs.abscissa.inverse(s)
}

func (rs *RevolutionSurface) SubdivisionForT(t float64) (int, bool) {
	return int(math.Floor(math.Min(t, rs.TMax()))), true
}

func (rs *RevolutionSurface) FullTurnAtT() (float64, bool) {
	return rs.TMax(), true
}

func (rs *RevolutionSurface) TimeMapsSingleton() bool { return true }
