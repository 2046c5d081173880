package curve

import (
	"math"

	"github.com/npillmayer/ensnano"
	"gonum.org/v1/gonum/spatial/r3"
)

// Twist is a helicoidal curve: a circle of radius Radius around the x axis
// of Orientation, advancing LengthX per unit of t. Helices of a
// hyperboloid grid twisted around their common axis follow a Twist.
type Twist struct {
	traits
	Theta0      float64 // angle at t=0
	Omega       float64 // dθ/dt
	Position0   r3.Vec  // center of the circle at t=0
	Orientation ensnano.Rotor
	LengthX     float64
	Radius      float64
	tmin, tmax  float64
}

// NewTwist creates a twist on [tMin, tMax]. The upper bound is not a hard
// limit: the curve may be prolonged to host more nucleotides.
func NewTwist(theta0, omega float64, position r3.Vec, orientation ensnano.Rotor,
	lengthX, radius, tMin, tMax float64) *Twist {
	return &Twist{
		Theta0: theta0, Omega: omega,
		Position0: position, Orientation: orientation,
		LengthX: lengthX, Radius: radius,
		tmin: tMin, tmax: tMax,
	}
}

func (tw *Twist) Kind() Kind { return TwistKind }
func (tw *Twist) TMin() float64 { return tw.tmin }
func (tw *Twist) TMax() float64 { return tw.tmax }
func (tw *Twist) Bounds() Bounds { return PositiveInfinite }

func (tw *Twist) Position(t float64) r3.Vec {
	sin, cos := math.Sincos(tw.Theta0 + tw.Omega*t)
	p := r3.Vec{X: tw.LengthX * t, Y: tw.Radius * sin, Z: tw.Radius * cos}
	return r3.Add(tw.Orientation.Rotate(p), tw.Position0)
}

func (tw *Twist) Speed(t float64) r3.Vec {
	sin, cos := math.Sincos(tw.Theta0 + tw.Omega*t)
	ro := tw.Radius * tw.Omega
	return tw.Orientation.Rotate(r3.Vec{X: tw.LengthX, Y: ro * cos, Z: -ro * sin})
}

func (tw *Twist) Acceleration(t float64) r3.Vec {
	sin, cos := math.Sincos(tw.Theta0 + tw.Omega*t)
	ro2 := tw.Radius * tw.Omega * tw.Omega
	return tw.Orientation.Rotate(r3.Vec{Y: -ro2 * sin, Z: -ro2 * cos})
}

// CurvilinearAbscissa is linear in t: the speed of a twist is constant.
func (tw *Twist) CurvilinearAbscissa(t float64) (float64, bool) {
	return tw.speedNorm() * t, true
}

// InverseCurvilinearAbscissa is the inverse of CurvilinearAbscissa.
func (tw *Twist) InverseCurvilinearAbscissa(s float64) (float64, bool) {
	v := tw.speedNorm()
	if v < ensnano.Epsilon {
		return 0, false
	}
	return s / v, true
}

func (tw *Twist) speedNorm() float64 {
	return math.Hypot(tw.LengthX, tw.Radius*tw.Omega)
}
