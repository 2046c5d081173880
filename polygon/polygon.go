/*
Package polygon implements closed polygons in the plane.

Polygons are the footprints of helices in the flat view of a design. Boolean
operations on them are delegated to polyclip-go (Martinez-Rueda clipping).

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package polygon

import (
	"fmt"
	"math"
	"strings"

	polyclip "github.com/akavel/polyclip-go"
	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing"
)

// L traces to key 'ensnano.polygon'.
func L() tracing.Trace {
	return tracing.Select("ensnano.polygon")
}

// Polygon is a chain of knots connected by straight lines.
type Polygon struct {
	knots []ensnano.Pair
	cycle bool
}

// NullPolygon creates an empty polygon.
func NullPolygon() *Polygon {
	return &Polygon{}
}

// Knot appends a corner.
func (pg *Polygon) Knot(p ensnano.Pair) *Polygon {
	pg.knots = append(pg.knots, p)
	return pg
}

// Cycle closes the polygon.
func (pg *Polygon) Cycle() *Polygon {
	pg.cycle = true
	return pg
}

// IsCycle is a predicate: is this polygon closed?
func (pg *Polygon) IsCycle() bool {
	return pg.cycle
}

// N is the number of corners.
func (pg *Polygon) N() int {
	return len(pg.knots)
}

// Pt returns corner i, modulo N.
func (pg *Polygon) Pt(i int) ensnano.Pair {
	n := len(pg.knots)
	return pg.knots[((i%n)+n)%n]
}

// Box creates a closed rectangle from two diagonal corners.
func Box(a, b ensnano.Pair) *Polygon {
	x0, x1 := math.Min(a.X(), b.X()), math.Max(a.X(), b.X())
	y0, y1 := math.Min(a.Y(), b.Y()), math.Max(a.Y(), b.Y())
	return NullPolygon().Knot(ensnano.P(x0, y0)).Knot(ensnano.P(x1, y0)).
		Knot(ensnano.P(x1, y1)).Knot(ensnano.P(x0, y1)).Cycle()
}

// Transformed applies an affine transform to every corner.
func (pg *Polygon) Transformed(at ensnano.AT) *Polygon {
	q := &Polygon{cycle: pg.cycle, knots: make([]ensnano.Pair, len(pg.knots))}
	for i, p := range pg.knots {
		q.knots[i] = at.Transform(p)
	}
	return q
}

// Area is the unsigned area of a closed polygon (shoelace formula).
// Open polygons have area 0.
func (pg *Polygon) Area() float64 {
	if !pg.cycle || len(pg.knots) < 3 {
		return 0
	}
	var a float64
	for i := range pg.knots {
		p, q := pg.Pt(i), pg.Pt(i+1)
		a += p.X()*q.Y() - q.X()*p.Y()
	}
	return math.Abs(a) / 2
}

// Contains tells whether p lies inside the closed polygon.
func (pg *Polygon) Contains(p ensnano.Pair) bool {
	if !pg.cycle {
		return false
	}
	return pg.contour().Contains(polyclip.Point{X: p.X(), Y: p.Y()})
}

func (pg *Polygon) contour() polyclip.Contour {
	c := make(polyclip.Contour, 0, len(pg.knots))
	for _, p := range pg.knots {
		c.Add(polyclip.Point{X: p.X(), Y: p.Y()})
	}
	return c
}

func fromContour(c polyclip.Contour) *Polygon {
	pg := NullPolygon()
	for _, p := range c {
		pg.Knot(ensnano.P(p.X, p.Y))
	}
	return pg.Cycle()
}

func clip(op polyclip.Op, a, b *Polygon) []*Polygon {
	if !a.cycle || !b.cycle {
		L().Errorf("clipping open polygons")
		return nil
	}
	subject := polyclip.Polygon{a.contour()}
	result := subject.Construct(op, polyclip.Polygon{b.contour()})
	pgs := make([]*Polygon, 0, len(result))
	for _, c := range result {
		pgs = append(pgs, fromContour(c))
	}
	return pgs
}

// Intersection returns the contours of the common area of a and b.
func Intersection(a, b *Polygon) []*Polygon {
	ra, rb := a.contour().BoundingBox(), b.contour().BoundingBox()
	if !ra.Overlaps(rb) {
		return nil
	}
	return clip(polyclip.INTERSECTION, a, b)
}

// Union returns the contours of the area covered by a or b.
func Union(a, b *Polygon) []*Polygon {
	return clip(polyclip.UNION, a, b)
}

// OverlapArea is the area a and b have in common.
func OverlapArea(a, b *Polygon) float64 {
	var area float64
	for _, pg := range Intersection(a, b) {
		area += pg.Area()
	}
	return area
}

// AsString returns a polygon in MetaPost notation.
func AsString(pg *Polygon) string {
	var b strings.Builder
	for i, p := range pg.knots {
		if i > 0 {
			b.WriteString(" -- ")
		}
		fmt.Fprintf(&b, "(%g,%g)", ensnano.Round(p.X()), ensnano.Round(p.Y()))
	}
	if pg.cycle {
		b.WriteString(" -- cycle")
	}
	return b.String()
}

func (pg *Polygon) String() string {
	return AsString(pg)
}
