package jhobby

import (
	"math"
	"strings"

	"github.com/npillmayer/ensnano"
)

// segment is a cubic Bézier segment: knot, post-control, pre-control, knot.
type segment [4]ensnano.Pair

func (seg segment) point(t float64) ensnano.Pair {
	u := 1 - t
	return seg[0].Scaled(u*u*u) + seg[1].Scaled(3*u*u*t) + seg[2].Scaled(3*u*t*t) + seg[3].Scaled(t*t*t)
}

func (seg segment) derivative(t float64) ensnano.Pair {
	u := 1 - t
	return (seg[1] - seg[0]).Scaled(3*u*u) + (seg[2] - seg[1]).Scaled(6*u*t) + (seg[3] - seg[2]).Scaled(3*t*t)
}

// Spline is a solved Hobby path, a chain of cubic Bézier segments.
type Spline struct {
	segments []segment
	cycle    bool
}

// N is the number of segments.
func (sp *Spline) N() int {
	return len(sp.segments)
}

// IsCycle is a predicate: is this spline closed?
func (sp *Spline) IsCycle() bool {
	return sp.cycle
}

// PostControl returns the control point after knot i.
func (sp *Spline) PostControl(i int) ensnano.Pair {
	return sp.segments[i][1]
}

// PreControl returns the control point before knot i+1.
func (sp *Spline) PreControl(i int) ensnano.Pair {
	return sp.segments[i][2]
}

// Knot returns knot i.
func (sp *Spline) Knot(i int) ensnano.Pair {
	if i == len(sp.segments) {
		return sp.segments[i-1][3]
	}
	return sp.segments[i][0]
}

// locate maps u ∈ [0,1] to a segment and a local parameter. For cycles u
// wraps around.
func (sp *Spline) locate(u float64) (int, float64) {
	n := float64(len(sp.segments))
	if sp.cycle {
		u = ensnano.Mod(u, 1)
	} else {
		u = math.Max(0, math.Min(1, u))
	}
	x := u * n
	i := int(math.Floor(x))
	if i >= len(sp.segments) {
		i = len(sp.segments) - 1
	}
	return i, x - float64(i)
}

// Point evaluates the spline. Parameter u runs from 0 at the first knot to
// 1 at the last knot (or back at the first, for cycles); every segment
// spans an equal share of u.
func (sp *Spline) Point(u float64) ensnano.Pair {
	i, t := sp.locate(u)
	return sp.segments[i].point(t)
}

// Tangent is the derivative of Point with respect to u.
func (sp *Spline) Tangent(u float64) ensnano.Pair {
	i, t := sp.locate(u)
	return sp.segments[i].derivative(t).Scaled(float64(len(sp.segments)))
}

// Sample returns n points evenly spaced in u. For open splines, the last
// point is the end knot.
func (sp *Spline) Sample(n int) []ensnano.Pair {
	if n < 2 {
		n = 2
	}
	pts := make([]ensnano.Pair, n)
	d := float64(n - 1)
	if sp.cycle {
		d = float64(n)
	}
	for i := range pts {
		pts[i] = sp.Point(float64(i) / d)
	}
	return pts
}

// Length approximates the arc length by chords of nb samples per segment.
func (sp *Spline) Length(nb int) float64 {
	if nb < 1 {
		nb = 1
	}
	var l float64
	for _, seg := range sp.segments {
		prev := seg[0]
		for k := 1; k <= nb; k++ {
			p := seg.point(float64(k) / float64(nb))
			l += (p - prev).Abs()
			prev = p
		}
	}
	return l
}

// String returns the spline in MetaPost notation, with explicit controls.
func (sp *Spline) String() string {
	var b strings.Builder
	for i, seg := range sp.segments {
		if i == 0 {
			b.WriteString(ptstring(seg[0], false))
		}
		b.WriteString(" .. controls ")
		b.WriteString(ptstring(seg[1], true))
		b.WriteString(" and ")
		b.WriteString(ptstring(seg[2], true))
		b.WriteString(" .. ")
		if sp.cycle && i == len(sp.segments)-1 {
			b.WriteString("cycle")
		} else {
			b.WriteString(ptstring(seg[3], false))
		}
	}
	return b.String()
}
