package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/jhobby"
)

// Profile is a closed plane curve, the cross section of a revolution
// shape. Point runs once around the curve for u ∈ [0,1).
type Profile interface {
	Point(u float64) ensnano.Pair
	// SymmetryOrder is the order of the rotational symmetry of the profile.
	SymmetryOrder() int
}

// Ellipse is a profile centered at the origin, with the major axis along x.
type Ellipse struct {
	SemiMajor, SemiMinor float64
}

// Point on the ellipse at angle 2πu.
func (e Ellipse) Point(u float64) ensnano.Pair {
	sin, cos := math.Sincos(2 * math.Pi * u)
	return ensnano.P(e.SemiMajor*cos, e.SemiMinor*sin)
}

// SymmetryOrder of an ellipse is 2.
func (e Ellipse) SymmetryOrder() int {
	return 2
}

// HobbyProfile is a closed Hobby spline through a set of knots.
type HobbyProfile struct {
	Knots  []ensnano.Pair
	spline *jhobby.Spline
}

// NewHobbyProfile solves the closed spline through knots.
func NewHobbyProfile(knots []ensnano.Pair) (*HobbyProfile, error) {
	path := jhobby.Open()
	for _, k := range knots {
		path.Knot(k)
	}
	spline, err := jhobby.Solve(path.Cycle())
	if err != nil {
		return nil, fmt.Errorf("section profile: %w", err)
	}
	tracer().Debugf("section profile %s", spline)
	return &HobbyProfile{Knots: knots, spline: spline}, nil
}

// Point on the spline; every knot interval spans the same share of u.
func (hp *HobbyProfile) Point(u float64) ensnano.Pair {
	return hp.spline.Point(u)
}

// SymmetryOrder of a free-form profile is 1.
func (hp *HobbyProfile) SymmetryOrder() int {
	return 1
}

// --- Arc length of profiles ------------------------------------------------

const profileSamples = 100_000

// profileTable tabulates the cumulative arc length of a profile over
// equispaced parameters u.
type profileTable struct {
	profile Profile
	s       []float64 // s[i] is the length from u=0 to u=i/(n-1)
}

func newProfileTable(p Profile, n int) *profileTable {
	pt := &profileTable{profile: p, s: make([]float64, n)}
	prev := p.Point(0)
	for i := 1; i < n; i++ {
		q := p.Point(float64(i) / float64(n-1))
		pt.s[i] = pt.s[i-1] + (q - prev).Abs()
		prev = q
	}
	return pt
}

// Perimeter is the length once around the profile.
func (pt *profileTable) Perimeter() float64 {
	return pt.s[len(pt.s)-1]
}

// ParamAt returns the parameter u at which the arc length from u=0 is s.
// s is taken modulo the perimeter.
func (pt *profileTable) ParamAt(s float64) float64 {
	s = ensnano.Mod(s, pt.Perimeter())
	n := len(pt.s)
	i := sort.SearchFloat64s(pt.s, s)
	if i == 0 {
		return 0
	}
	if i >= n {
		return 1
	}
	w := (s - pt.s[i-1]) / (pt.s[i] - pt.s[i-1])
	return (float64(i-1) + w) / float64(n-1)
}

// AbscissaAt is the arc length from u=0 to u ∈ [0,1].
func (pt *profileTable) AbscissaAt(u float64) float64 {
	n := len(pt.s)
	x := math.Max(0, math.Min(1, u)) * float64(n-1)
	i := int(x)
	if i >= n-1 {
		return pt.Perimeter()
	}
	return pt.s[i] + (x-float64(i))*(pt.s[i+1]-pt.s[i])
}
