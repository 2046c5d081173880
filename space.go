package ensnano

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// === Vectors ===============================================================

// V is a quick notation for constructing a 3D vector.
func V(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// Unit axes.
var (
	UnitX = V(1, 0, 0)
	UnitY = V(0, 1, 0)
	UnitZ = V(0, 0, 1)
)

// Unit returns v scaled to length 1. A vector shorter than Epsilon is
// returned unchanged instead of producing NaNs.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < Epsilon {
		return v
	}
	return r3.Scale(1/n, v)
}

// Dist is the euclidean distance between p and q.
func Dist(p, q r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, q))
}

// Lerp interpolates linearly between p (t=0) and q (t=1).
func Lerp(p, q r3.Vec, t float64) r3.Vec {
	return r3.Add(r3.Scale(1-t, p), r3.Scale(t, q))
}

// VecString is a compact Stringer for vectors.
func VecString(v r3.Vec) string {
	return fmt.Sprintf("(%.4g,%.4g,%.4g)", v.X, v.Y, v.Z)
}

// === Rotors ================================================================

// Rotor is a unit quaternion describing a rotation in space.
type Rotor quat.Number

// IdentityRotor is the rotation that leaves every vector unchanged.
func IdentityRotor() Rotor {
	return Rotor{Real: 1}
}

// RotorFromAxisAngle returns the rotation by angle (radians, counterclockwise)
// around axis.
func RotorFromAxisAngle(axis r3.Vec, angle float64) Rotor {
	axis = Unit(axis)
	sin, cos := math.Sincos(angle / 2)
	return Rotor{Real: cos, Imag: sin * axis.X, Jmag: sin * axis.Y, Kmag: sin * axis.Z}
}

// RotorBetween returns the shortest rotation taking direction from onto
// direction to.
func RotorBetween(from, to r3.Vec) Rotor {
	from, to = Unit(from), Unit(to)
	d := r3.Dot(from, to)
	if d > 1-Epsilon {
		return IdentityRotor()
	}
	if d < -1+Epsilon {
		axis := r3.Cross(UnitX, from)
		if r3.Norm2(axis) < Epsilon {
			axis = r3.Cross(UnitY, from)
		}
		return RotorFromAxisAngle(axis, math.Pi)
	}
	c := r3.Cross(from, to)
	q := quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	return Rotor(quat.Scale(1/quat.Abs(q), q))
}

// Rotate applies the rotation to v.
func (r Rotor) Rotate(v r3.Vec) r3.Vec {
	q := quat.Number(r)
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	w := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return V(w.Imag, w.Jmag, w.Kmag)
}

// Then returns the rotor applying r first and s second.
func (r Rotor) Then(s Rotor) Rotor {
	return Rotor(quat.Mul(quat.Number(s), quat.Number(r)))
}

// Inverse is the opposite rotation.
func (r Rotor) Inverse() Rotor {
	return Rotor(quat.Conj(quat.Number(r)))
}

// Normalized rescales r to a unit quaternion. The zero quaternion maps to
// the identity.
func (r Rotor) Normalized() Rotor {
	a := quat.Abs(quat.Number(r))
	if a < Epsilon {
		return IdentityRotor()
	}
	return Rotor(quat.Scale(1/a, quat.Number(r)))
}

// Frame returns the images of the unit axes under r.
func (r Rotor) Frame() Frame {
	return Frame{r.Rotate(UnitX), r.Rotate(UnitY), r.Rotate(UnitZ)}
}

// === Frames ================================================================

// Frame is an orthonormal basis attached to a point of a curve. The columns
// are (right, up, forward); forward is the tangent of the curve.
type Frame [3]r3.Vec

// IdentityFrame has the unit axes as columns.
func IdentityFrame() Frame {
	return Frame{UnitX, UnitY, UnitZ}
}

// Right is the first column.
func (f Frame) Right() r3.Vec { return f[0] }

// Up is the second column.
func (f Frame) Up() r3.Vec { return f[1] }

// Forward is the third column.
func (f Frame) Forward() r3.Vec { return f[2] }

// Apply maps local coordinates to space: v.X·right + v.Y·up + v.Z·forward.
func (f Frame) Apply(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, f[0]), r3.Scale(v.Y, f[1])), r3.Scale(v.Z, f[2]))
}

// Rotated applies a rotor to every column.
func (f Frame) Rotated(r Rotor) Frame {
	return Frame{r.Rotate(f[0]), r.Rotate(f[1]), r.Rotate(f[2])}
}

// IsOrthonormal checks the columns against tolerance tol.
func (f Frame) IsOrthonormal(tol float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(r3.Norm(f[i])-1) > tol {
			return false
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(r3.Dot(f[i], f[j])) > tol {
				return false
			}
		}
	}
	return true
}
