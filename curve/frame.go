package curve

import (
	"math"

	"github.com/npillmayer/ensnano"
	"gonum.org/v1/gonum/spatial/r3"
)

// speedEpsilon bounds the squared speed below which a point counts as
// stationary.
const speedEpsilon = 1e-6

// NextFrame computes the frame of c at t from the frame at the previous
// sample. Frames must be computed strictly in order of t, otherwise the
// frame twists around the tangent.
//
// With prev == nil an arbitrary frame perpendicular to the speed is used to
// start. Where the speed vanishes, or where the new tangent is parallel to
// the previous right vector, the frame is built from the acceleration.
func NextFrame(c Curve, t float64, prev *ensnano.Frame) ensnano.Frame {
	speed := c.Speed(t)
	if r3.Norm2(speed) < speedEpsilon {
		tracer().Debugf("zero speed at t=%g, frame from acceleration", t)
		return accelerationFrame(c, t)
	}
	if prev == nil {
		start := perpendicularBasis(speed)
		return NextFrame(c, t, &start)
	}
	forward := ensnano.Unit(speed)
	up := r3.Cross(forward, prev.Right())
	if r3.Norm2(up) < speedEpsilon {
		tracer().Debugf("tangent flipped onto previous right vector at t=%g", t)
		return accelerationFrame(c, t)
	}
	up = ensnano.Unit(up)
	return ensnano.Frame{r3.Cross(up, forward), up, forward}
}

// accelerationFrame is the fallback for degenerate points. The basis built
// around the acceleration is read back to front.
func accelerationFrame(c Curve, t float64) ensnano.Frame {
	m := perpendicularBasis(c.Acceleration(t))
	return ensnano.Frame{m[2], m[1], m[0]}
}

// perpendicularBasis returns an orthonormal frame whose third column points
// along p. The zero vector yields the identity.
func perpendicularBasis(p r3.Vec) ensnano.Frame {
	if r3.Norm(p) < speedEpsilon {
		return ensnano.IdentityFrame()
	}
	z := ensnano.Unit(p)
	x := ensnano.UnitX
	if math.Abs(z.X) >= 0.9 {
		x = ensnano.UnitY
	}
	y := ensnano.Unit(r3.Cross(z, x))
	x = ensnano.Unit(r3.Cross(y, z))
	return ensnano.Frame{x, y, z}
}

// --- Walking along a curve -------------------------------------------------

// walker moves along a curve in increasing t, carrying the frame and the
// point of the helix axis, translation included.
type walker struct {
	c      Curve
	t      float64
	frame  ensnano.Frame
	point  r3.Vec
	legacy bool
}

func newWalker(c Curve, t float64, legacy bool) *walker {
	w := &walker{c: c, t: t, legacy: legacy}
	if speed := c.Speed(t); legacy && r3.Norm2(speed) >= speedEpsilon {
		w.frame = perpendicularBasis(speed)
	} else {
		w.frame = NextFrame(c, t, nil)
	}
	w.point = w.pointAt(t, w.frame)
	return w
}

// advanceTo moves the walker to t and returns the length of the chord it
// travelled.
func (w *walker) advanceTo(t float64) float64 {
	prev := w.point
	w.t = t
	w.frame = NextFrame(w.c, t, &w.frame)
	w.point = w.pointAt(t, w.frame)
	return ensnano.Dist(prev, w.point)
}

func (w *walker) pointAt(t float64, frame ensnano.Frame) r3.Vec {
	p := w.c.Position(t)
	if offset, ok := w.c.Translation(); ok {
		p = r3.Add(p, w.translationAxis(t, frame).Apply(offset))
	}
	return p
}

// translationAxis is the frame in which the translation of a curve is
// expressed. Curves with an initial frame keep its up vector.
func (w *walker) translationAxis(t float64, frame ensnano.Frame) ensnano.Frame {
	init, ok := w.c.InitialFrame()
	if !ok {
		return frame
	}
	up := init.Up()
	if w.legacy {
		right := ensnano.Unit(r3.Cross(up, frame.Forward()))
		return ensnano.Frame{right, ensnano.Unit(r3.Cross(frame.Forward(), right)), frame.Forward()}
	}
	right := r3.Cross(up, ensnano.Unit(w.c.Speed(t)))
	return ensnano.Frame{right, up, r3.Cross(right, up)}
}
