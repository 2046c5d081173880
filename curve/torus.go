package curve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Torus is a helix winding around an elliptic torus, its section turning
// half a turn per revolution (a Möbius band of helices).
//
// Spacing is the distance between the axes of neighbouring helices on the
// section, usually helix radius plus half the inter-helix gap.
type Torus struct {
	traits
	Theta0      float64 // angle shift along the section at t=0
	HalfNbHelix int     // half the number of helices on the section
	BigRadius   float64
	Spacing     float64
	section     *profileTable
}

// torusSection is the unscaled section of a Torus.
var torusSection = Ellipse{SemiMajor: 2, SemiMinor: 1}

// NewTorus creates a torus curve.
func NewTorus(theta0 float64, halfNbHelix int, bigRadius, spacing float64) *Torus {
	return &Torus{
		Theta0:      theta0,
		HalfNbHelix: halfNbHelix,
		BigRadius:   bigRadius,
		Spacing:     spacing,
		section:     newProfileTable(torusSection, profileSamples),
	}
}

func (tor *Torus) Kind() Kind { return TorusKind }
func (tor *Torus) TMin() float64 { return 0 }
func (tor *Torus) TMax() float64 { return 1.1 }
func (tor *Torus) perimeter() float64 { return 4 * tor.Spacing * float64(tor.HalfNbHelix) }

// Position of the helix at t. One revolution takes t = 1/HalfNbHelix.
func (tor *Torus) Position(t float64) r3.Vec {
	p := tor.section.Perimeter()
	scale := tor.perimeter() / p
	theta := 2 * math.Pi * float64(tor.HalfNbHelix) * t
	sPerTheta := (tor.perimeter()/2 - 4*tor.Spacing) / (2 * math.Pi)
	s := 4*tor.Spacing*tor.Theta0/(2*math.Pi) + sPerTheta*theta
	u := tor.section.ParamAt(s / scale)
	q := torusSection.Point(u).Scaled(scale)
	sh, ch := math.Sincos(theta / 2)
	x := q.X()*ch - q.Y()*sh + tor.BigRadius
	sin, cos := math.Sincos(theta)
	return r3.Vec{X: x * cos, Y: q.X()*sh + q.Y()*ch, Z: x * sin}
}

func (tor *Torus) Speed(t float64) r3.Vec {
	return numericSpeed(tor.Position, t)
}

func (tor *Torus) Acceleration(t float64) r3.Vec {
	return numericAcceleration(tor.Position, t)
}

// --- Twisted torus ---------------------------------------------------------

// TwistedTorus is one helix of a bundle revolving around the y axis, with a
// section shape that turns SymmetryPerTurn times per revolution. Helices
// are placed on the section at equal arc-length distances.
type TwistedTorus struct {
	traits
	Section                    Profile
	SymmetryPerTurn            int
	BigRadius                  float64
	NbHelixPerSection          int
	HelixIndexShiftPerTurn     int
	InitialCurvilinearAbscissa float64
	InitialIndexShift          int
	Spacing                    float64
	table                      *profileTable
	scale                      float64
	nbTurnPerHelix             int
}

// NewTwistedTorus scales the section so that NbHelixPerSection helices fit
// on it, and computes how many revolutions a helix needs to close.
func NewTwistedTorus(tt TwistedTorus) *TwistedTorus {
	tt.table = newProfileTable(tt.Section, profileSamples)
	tt.scale = 2 * tt.Spacing * float64(tt.NbHelixPerSection) / tt.table.Perimeter()
	rho := tt.Section.SymmetryOrder()
	// per revolution, every helix moves by total positions on the section
	total := tt.HelixIndexShiftPerTurn + tt.NbHelixPerSection*tt.SymmetryPerTurn/rho
	tt.nbTurnPerHelix = tt.NbHelixPerSection / gcd(tt.NbHelixPerSection, total)
	if tt.nbTurnPerHelix < 1 {
		tt.nbTurnPerHelix = 1
	}
	tracer().Debugf("twisted torus: scale %.4f, %d turns per helix", tt.scale, tt.nbTurnPerHelix)
	return &tt
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b > 0 {
		a, b = b, a%b
	}
	return a
}

func (tt *TwistedTorus) Kind() Kind { return TwistedTorusKind }
func (tt *TwistedTorus) TMin() float64 { return 0 }
func (tt *TwistedTorus) TMax() float64 { return 1 }

// NbTurnPerHelix is the number of revolutions until a helix closes.
func (tt *TwistedTorus) NbTurnPerHelix() int {
	return tt.nbTurnPerHelix
}

func (tt *TwistedTorus) theta(t float64) float64 {
	return float64(tt.nbTurnPerHelix) * t * 2 * math.Pi
}

// objectiveS maps a revolution angle to an arc length on the section.
func (tt *TwistedTorus) objectiveS(theta float64) float64 {
	shift := float64(tt.HelixIndexShiftPerTurn)*theta/(2*math.Pi) + float64(tt.InitialIndexShift)
	return tt.InitialCurvilinearAbscissa + 2*tt.Spacing*shift
}

func (tt *TwistedTorus) Position(t float64) r3.Vec {
	theta := tt.theta(t)
	u := tt.table.ParamAt(tt.objectiveS(theta) / tt.scale)
	q := tt.Section.Point(u).Scaled(tt.scale)
	angle := float64(tt.SymmetryPerTurn) * theta / float64(tt.Section.SymmetryOrder())
	q = q.Rotated(angle)
	sin, cos := math.Sincos(theta)
	return r3.Vec{X: (q.X() + tt.BigRadius) * cos, Y: q.Y(), Z: (q.X() + tt.BigRadius) * sin}
}

func (tt *TwistedTorus) Speed(t float64) r3.Vec {
	return numericSpeed(tt.Position, t)
}

func (tt *TwistedTorus) Acceleration(t float64) r3.Vec {
	return numericAcceleration(tt.Position, t)
}

// SubdivisionForT is the index of the current revolution.
func (tt *TwistedTorus) SubdivisionForT(t float64) (int, bool) {
	return int(math.Floor(float64(tt.nbTurnPerHelix) * t)), true
}

// FullTurnAtT is 1: the helix closes at the end of its parameter range.
func (tt *TwistedTorus) FullTurnAtT() (float64, bool) {
	return 1, true
}

var _ Curve = (*TwistedTorus)(nil)
var _ Curve = (*Torus)(nil)
