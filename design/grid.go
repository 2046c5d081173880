package design

import (
	"fmt"
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/curve"
	"gonum.org/v1/gonum/spatial/r3"
)

// GridKind selects the lattice of a grid.
type GridKind int8

// Grid kinds
const (
	SquareGrid GridKind = iota
	HoneycombGrid
	HyperboloidGrid
)

var gridKindNames = [...]string{"square", "honeycomb", "hyperboloid"}

func (k GridKind) String() string {
	if int(k) < len(gridKindNames) {
		return gridKindNames[k]
	}
	return fmt.Sprintf("grid-kind(%d)", k)
}

// Hyperboloid is a ring of Radius helices joining two circles, the second
// one turned by Shift.
type Hyperboloid struct {
	Radius       int      `json:"radius"` // number of helices
	Shift        float64  `json:"shift"`
	Length       float64  `json:"length"` // in nucleotides
	RadiusShift  float64  `json:"radius_shift"`
	ForcedRadius *float64 `json:"forced_radius,omitempty"`
}

// Grid is a plane of helix positions. Helices on a grid run along the
// x-axis of its orientation; grid coordinates are measured along its z-
// and y-axes.
type Grid struct {
	Position    r3.Vec
	Orientation ensnano.Rotor
	Kind        GridKind
	Hyperboloid *Hyperboloid // for HyperboloidGrid
}

// NewGrid creates a grid of a lattice kind.
func NewGrid(position r3.Vec, orientation ensnano.Rotor, kind GridKind) *Grid {
	return &Grid{Position: position, Orientation: orientation, Kind: kind}
}

// Axis is the direction of the helices on the grid.
func (g *Grid) Axis() r3.Vec {
	return g.Orientation.Rotate(ensnano.UnitX)
}

// Origin is the position of lattice point (x,y) in grid coordinates.
func (g *Grid) Origin(p Parameters, x, y int) ensnano.Pair {
	switch g.Kind {
	case HoneycombGrid:
		return honeycombOrigin(p, x, y)
	case HyperboloidGrid:
		if g.Hyperboloid != nil {
			return g.Hyperboloid.origin2D(p, x)
		}
	}
	s := p.Spacing()
	return ensnano.P(float64(x)*s, -float64(y)*s)
}

func honeycombOrigin(p Parameters, x, y int) ensnano.Pair {
	r := p.InterHelixGap/2 + p.HelixRadius
	upper := -3 * r * float64(y)
	lower := upper - r
	py := upper
	if abs(x)%2 != abs(y)%2 {
		py = lower
	}
	return ensnano.P(float64(x)*r*math.Sqrt(3), py)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PositionHelix is the start of the axis of the helix at (x,y).
func (g *Grid) PositionHelix(p Parameters, x, y int) r3.Vec {
	o := g.Origin(p, x, y)
	zvec := g.Orientation.Rotate(ensnano.UnitZ)
	yvec := g.Orientation.Rotate(ensnano.UnitY)
	return r3.Add(g.Position, r3.Add(r3.Scale(o.X(), zvec), r3.Scale(o.Y(), yvec)))
}

// OrientationHelix is the orientation of the helix at (x,y).
func (g *Grid) OrientationHelix(p Parameters, x, y int) ensnano.Rotor {
	if g.Kind == HyperboloidGrid && g.Hyperboloid != nil {
		return g.Hyperboloid.orientation(p, x).Then(g.Orientation)
	}
	return g.Orientation
}

// Interpolate returns the lattice point closest to (x,y) in grid
// coordinates.
func (g *Grid) Interpolate(p Parameters, x, y float64) (int, int) {
	switch g.Kind {
	case HoneycombGrid:
		r := p.InterHelixGap/2 + p.HelixRadius
		guess := [2]int{int(math.Round(x / (r * math.Sqrt(3)))), int(math.Floor(y / (-3 * r)))}
		best, bestDist := guess, math.Inf(1)
		for dx := -2; dx <= 2; dx++ {
			for dy := -2; dy <= 2; dy++ {
				gx, gy := guess[0]+dx, guess[1]+dy
				d := honeycombOrigin(p, gx, gy) - ensnano.P(x, y)
				if dist := d.Abs(); dist < bestDist {
					best, bestDist = [2]int{gx, gy}, dist
				}
			}
		}
		return best[0], best[1]
	case HyperboloidGrid:
		if g.Hyperboloid != nil && g.Hyperboloid.Radius > 0 {
			angle := math.Pi / float64(g.Hyperboloid.Radius)
			return int(math.Round(math.Atan2(y, x) / angle / 2)), 0
		}
	}
	s := p.Spacing()
	return int(math.Round(x / s)), int(math.Round(y / -s))
}

// LineIntersection projects the intersection of a line with the grid plane
// into grid coordinates.
func (g *Grid) LineIntersection(origin, direction r3.Vec) (ensnano.Pair, bool) {
	normal := g.Axis()
	denom := r3.Dot(direction, normal)
	if math.Abs(denom) < ensnano.Epsilon {
		return 0, false
	}
	d := r3.Dot(r3.Sub(g.Position, origin), normal) / denom
	rel := r3.Sub(r3.Add(origin, r3.Scale(d, direction)), g.Position)
	return ensnano.P(
		r3.Dot(rel, g.Orientation.Rotate(ensnano.UnitZ)),
		r3.Dot(rel, g.Orientation.Rotate(ensnano.UnitY)),
	), true
}

// FindHelixPosition returns the lattice point a straight helix crosses.
func (g *Grid) FindHelixPosition(p Parameters, h *Helix) (int, int, bool) {
	if h.IsCurved() {
		return 0, 0, false
	}
	q, ok := g.LineIntersection(h.Position, h.Direction())
	if !ok {
		return 0, 0, false
	}
	x, y := g.Interpolate(p, q.X(), q.Y())
	return x, y, true
}

// NewHelixOnGrid creates the helix of lattice point (x,y) of grid id.
func (d *Design) NewHelixOnGrid(id, x, y int) (*Helix, error) {
	g, ok := d.Grids.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchGrid, id)
	}
	h := NewHelix(g.PositionHelix(d.Parameters, x, y), g.OrientationHelix(d.Parameters, x, y))
	h.GridPosition = &GridPosition{Grid: id, X: x, Y: y}
	return h, nil
}

// AddHelixOnGrid creates and stores the helix at (x,y) of grid id. It
// fails if the lattice point is taken.
func (d *Design) AddHelixOnGrid(id, x, y int) (int, error) {
	taken := false
	d.Helices.Each(func(_ int, h *Helix) {
		if gp := h.GridPosition; gp != nil && gp.Grid == id && gp.X == x && gp.Y == y {
			taken = true
		}
	})
	if taken {
		return 0, fmt.Errorf("%w: grid %d position (%d,%d) is taken", ErrInvariant, id, x, y)
	}
	h, err := d.NewHelixOnGrid(id, x, y)
	if err != nil {
		return 0, err
	}
	return d.AddHelix(h), nil
}

// --- Hyperboloid -----------------------------------------------------------

// sheetRadius is the radius of the end circles, such that neighbouring
// helices touch at the center of the hyperboloid.
func (hyp *Hyperboloid) sheetRadius(p Parameters) float64 {
	angle := math.Pi / float64(hyp.Radius)
	center := (p.HelixRadius + p.InterHelixGap/2) / math.Sin(angle)
	return 2 * center / math.Sqrt(2+2*math.Cos(hyp.Shift))
}

// GridRadius is the half-width of the square enclosing the section.
func (hyp *Hyperboloid) GridRadius(p Parameters) float64 {
	r := hyp.sheetRadius(p) / 2 * math.Sqrt(2+2*math.Cos(hyp.Shift))
	if hyp.ForcedRadius != nil {
		r = *hyp.ForcedRadius
	}
	return r + p.HelixRadius + p.InterHelixGap/2
}

func (hyp *Hyperboloid) ends(p Parameters, i int) (r3.Vec, r3.Vec) {
	i %= hyp.Radius
	rs := hyp.sheetRadius(p)
	theta := 2 * math.Pi * float64(i) / float64(hyp.Radius)
	sin0, cos0 := math.Sincos(theta)
	sin1, cos1 := math.Sincos(theta + hyp.Shift)
	return ensnano.V(0, rs*sin0, rs*cos0), ensnano.V(hyp.Length*p.ZStep, rs*sin1, rs*cos1)
}

func (hyp *Hyperboloid) origin2D(p Parameters, i int) ensnano.Pair {
	left, right := hyp.ends(p, i)
	mid := ensnano.Lerp(left, right, 0.5)
	return ensnano.P(mid.Z, mid.Y)
}

func (hyp *Hyperboloid) orientation(p Parameters, i int) ensnano.Rotor {
	left, right := hyp.ends(p, i)
	return ensnano.RotorBetween(ensnano.UnitX, r3.Sub(right, left))
}

// MakeHelices creates the helices of the hyperboloid in grid coordinates,
// and returns the number of nucleotides they span.
func (hyp *Hyperboloid) MakeHelices(p Parameters) ([]*Helix, int) {
	helices := make([]*Helix, 0, hyp.Radius)
	for i := 0; i < hyp.Radius; i++ {
		left, right := hyp.ends(p, i)
		h := NewHelix(ensnano.Lerp(left, right, 0.5), ensnano.RotorBetween(ensnano.UnitX, r3.Sub(right, left)))
		helices = append(helices, h)
	}
	return helices, int(hyp.Length)
}

// AddHyperboloid creates a hyperboloid grid and its helices, and returns
// the id of the grid and of the helices.
func (d *Design) AddHyperboloid(position r3.Vec, orientation ensnano.Rotor, hyp Hyperboloid) (int, []int, error) {
	if hyp.Radius < 3 {
		return 0, nil, fmt.Errorf("%w: hyperboloid of %d helices", ErrInvariant, hyp.Radius)
	}
	g := NewGrid(position, orientation, HyperboloidGrid)
	g.Hyperboloid = &hyp
	gid := d.Grids.Push(g)
	helices, _ := hyp.MakeHelices(d.Parameters)
	ids := make([]int, len(helices))
	for i, h := range helices {
		h.Position = r3.Add(orientation.Rotate(h.Position), position)
		h.Orientation = h.Orientation.Then(orientation)
		h.GridPosition = &GridPosition{Grid: gid, X: i}
		ids[i] = d.AddHelix(h)
	}
	tracer().Infof("hyperboloid grid %d with %d helices", gid, len(ids))
	return gid, ids, nil
}

// --- Bézier paths ----------------------------------------------------------

// BezierPath is a piecewise Bézier curve shared by a bundle of helices.
// Each helix is offset from the path by its grid coordinates in a section
// of kind Section.
type BezierPath struct {
	Vertices []curve.Vertex
	Cyclic   bool
	Section  GridKind
}

// Clone copies the path.
func (bp *BezierPath) Clone() *BezierPath {
	c := *bp
	c.Vertices = make([]curve.Vertex, len(bp.Vertices))
	copy(c.Vertices, bp.Vertices)
	return &c
}

// Curve is the axis of the path.
func (bp *BezierPath) Curve() (*curve.PiecewiseBezier, bool) {
	if len(bp.Vertices) < 2 {
		return nil, false
	}
	ends := curve.EndsFromVertices(bp.Vertices, bp.Cyclic, curve.C2Tangents)
	return curve.NewPiecewiseBezier(ends, bp.Cyclic, math.NaN(), math.NaN()), true
}

// HelixCurve is the curve of a helix of the path at grid position gp.
func (bp *BezierPath) HelixCurve(p Parameters, gp *GridPosition) (curve.Curve, bool) {
	axis, ok := bp.Curve()
	if !ok {
		return nil, false
	}
	var offset r3.Vec
	if gp != nil {
		section := Grid{Kind: bp.Section}
		o := section.Origin(p, gp.X, gp.Y)
		offset = ensnano.V(o.X(), o.Y(), 0)
	}
	return curve.Translate(axis, offset, nil), true
}

// AddBezierPath stores a path and returns its id.
func (d *Design) AddBezierPath(bp *BezierPath) int {
	d.BezierPaths = append(d.BezierPaths, bp)
	return len(d.BezierPaths) - 1
}

// AddHelixOnPath creates a helix following path id at section position
// (x,y), discretized at once.
func (d *Design) AddHelixOnPath(path, x, y int) (int, error) {
	if path < 0 || path >= len(d.BezierPaths) {
		return 0, fmt.Errorf("%w: bezier path %d", ErrNotFound, path)
	}
	h := NewHelix(r3.Vec{}, ensnano.IdentityRotor())
	h.PathID = &path
	h.GridPosition = &GridPosition{Grid: -1, X: x, Y: y}
	if err := h.UpdateCurve(d.Parameters, d.Discretization, d.BezierPaths); err != nil {
		return 0, err
	}
	return d.AddHelix(h), nil
}
