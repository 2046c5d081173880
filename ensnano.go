/*
Package ensnano implements the geometric vocabulary shared by the DNA
nanostructure design packages: numeric tolerances, 2D pairs and affine
transforms for the flat view, 3D vectors, rotors and orthonormal frames.

Sub-packages build on it: curve discretizes helix axes into nucleotide
frames, design holds helices and strands, and shift, suggest and roller
run the long computations on a design.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package ensnano

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ensnano'
func tracer() tracing.Trace {
	return tracing.Select("ensnano")
}

// Epsilon is the tolerance of geometric comparisons, in nm or radians.
var Epsilon = 1e-7

// Is0 is true for |x| ≤ Epsilon.
func Is0(x float64) bool {
	return math.Abs(x) <= Epsilon
}

// Zap clamps x to 0 if it is within Epsilon of 0.
func Zap(x float64) float64 {
	if Is0(x) {
		return 0
	}
	return x
}

// Round snaps x to a multiple of Epsilon.
func Round(x float64) float64 {
	return math.Round(x/Epsilon) * Epsilon
}

// Mod returns x modulo m in [0,m), for m > 0.
func Mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// Pair is a point in the flat (2D) view of a design, or a knot of a section
// profile. Complex arithmetic on pairs is plain vector arithmetic.
type Pair complex128

// Origin is (0,0).
var Origin = P(0, 0)

// P makes a pair of x and y.
func P(x, y float64) Pair {
	c := complex(x, y)
	if cmplx.IsNaN(c) || cmplx.IsInf(c) {
		tracer().Errorf("pair (%g,%g) is not finite", x, y)
	}
	return Pair(c)
}

func (p Pair) String() string {
	return fmt.Sprintf("(%g,%g)", real(p), imag(p))
}

// X coordinate
func (p Pair) X() float64 { return real(p) }

// Y coordinate
func (p Pair) Y() float64 { return imag(p) }

// Zap clamps both coordinates.
func (p Pair) Zap() Pair {
	return P(Zap(real(p)), Zap(imag(p)))
}

// Equal is true if p and q are closer than Epsilon in both coordinates.
func (p Pair) Equal(q Pair) bool {
	d := p - q
	return Is0(real(d)) && Is0(imag(d))
}

// Scaled multiplies both coordinates by a.
func (p Pair) Scaled(a float64) Pair {
	return p * Pair(complex(a, 0))
}

// Abs is the euclidean length of p.
func (p Pair) Abs() float64 {
	return cmplx.Abs(complex128(p))
}

// Rotated turns p counter-clockwise around the origin, theta in radians.
func (p Pair) Rotated(theta float64) Pair {
	return p * Pair(cmplx.Rect(1, theta))
}

// AT is an affine transform of the plane, stored as the rows of a 3x3
// matrix with last row (0 0 1). Helices carry one to place themselves in
// the flat view.
type AT [9]float64

// Identity maps every point onto itself.
func Identity() AT {
	return AT{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Translation by p.
func Translation(p Pair) AT {
	return AT{1, 0, p.X(), 0, 1, p.Y(), 0, 0, 1}
}

// Rotation counter-clockwise around the origin, theta in radians.
func Rotation(theta float64) AT {
	sin, cos := math.Sincos(theta)
	return AT{cos, -sin, 0, sin, cos, 0, 0, 0, 1}
}

// Scaling transform, used for the symmetry of a helix in the flat view.
func Scaling(sx, sy float64) AT {
	return AT{sx, 0, 0, 0, sy, 0, 0, 0, 1}
}

// Isometry is a rotation by angle followed by a translation.
func Isometry(translation Pair, angle float64) AT {
	return Rotation(angle).Combine(Translation(translation))
}

func (m AT) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g]", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Combine returns the transform applying m first, then n.
func (m AT) Combine(n AT) AT {
	var o AT
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			o[3*i+j] = n[3*i]*m[j] + n[3*i+1]*m[3+j] + n[3*i+2]*m[6+j]
		}
	}
	return o
}

// Transform maps p.
func (m AT) Transform(p Pair) Pair {
	return P(m[0]*p.X()+m[1]*p.Y()+m[2], m[3]*p.X()+m[4]*p.Y()+m[5])
}
