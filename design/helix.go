package design

import (
	"fmt"
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/curve"
	"gonum.org/v1/gonum/spatial/r3"
)

// GridPosition places a helix on a grid.
type GridPosition struct {
	Grid    int     `json:"grid"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	AxisPos int     `json:"axis_pos"`
	Roll    float64 `json:"roll"`
}

// Helix is a double helix. Without a curve its axis is the x-axis of its
// orientation, starting at Position. With a curve, nucleotides are read from
// the discretized curve, placed by Position and Orientation unless the curve
// lives in absolute coordinates (helices of a Bézier path).
type Helix struct {
	Position       r3.Vec
	Orientation    ensnano.Rotor
	Isometry2D     *ensnano.AT  // placement in the flat view
	Symmetry       ensnano.Pair // scaling of the flat view, (1,1) by default
	GridPosition   *GridPosition
	Roll           float64
	DeltaBBPT      float64 // correction of the bases per turn
	Curve          *curve.Descriptor
	PathID         *int // Bézier path the helix follows
	InitialNtIndex int
	SupportHelix   *int
	Visible        bool
	Locked         bool // locked for simulations

	discretized *curve.Discretized
	absolute    bool
}

// NewHelix creates a straight helix.
func NewHelix(origin r3.Vec, orientation ensnano.Rotor) *Helix {
	return &Helix{
		Position:    origin,
		Orientation: orientation,
		Symmetry:    ensnano.P(1, 1),
		Visible:     true,
	}
}

// NewCurvedHelix creates a helix following desc. The curve is discretized
// by UpdateCurve.
func NewCurvedHelix(desc *curve.Descriptor) *Helix {
	h := NewHelix(r3.Vec{}, ensnano.IdentityRotor())
	h.Curve = desc
	return h
}

// Clone copies h. The discretized curve is shared.
func (h *Helix) Clone() *Helix {
	c := *h
	if h.Isometry2D != nil {
		iso := *h.Isometry2D
		c.Isometry2D = &iso
	}
	if h.GridPosition != nil {
		gp := *h.GridPosition
		c.GridPosition = &gp
	}
	if h.PathID != nil {
		id := *h.PathID
		c.PathID = &id
	}
	if h.SupportHelix != nil {
		id := *h.SupportHelix
		c.SupportHelix = &id
	}
	return &c
}

// IsCurved is true if the helix carries a discretized curve.
func (h *Helix) IsCurved() bool {
	return h.discretized != nil
}

// Discretized returns the discretized curve, if any.
func (h *Helix) Discretized() (*curve.Discretized, bool) {
	return h.discretized, h.discretized != nil
}

// UpdateCurve instantiates the curve descriptor and discretizes it. Helices
// following a Bézier path get their curve from the path.
func (h *Helix) UpdateCurve(p Parameters, opts curve.DiscretizeOptions, paths []*BezierPath) error {
	switch {
	case h.PathID != nil:
		if *h.PathID < 0 || *h.PathID >= len(paths) {
			return fmt.Errorf("%w: bezier path %d", ErrNotFound, *h.PathID)
		}
		c, ok := paths[*h.PathID].HelixCurve(p, h.GridPosition)
		if !ok {
			h.discretized = nil
			return nil
		}
		h.discretized, h.absolute = curve.Discretize(c, opts), true
	case h.Curve != nil:
		c, err := h.Curve.Instantiate(p.Spacing())
		if err != nil {
			return err
		}
		h.discretized, h.absolute = curve.Discretize(c, opts), false
	default:
		h.discretized = nil
	}
	return nil
}

// UpdateCurves rediscretizes every curved helix.
func (d *Design) UpdateCurves() error {
	var err error
	d.Helices.Each(func(id int, h *Helix) {
		if err != nil {
			return
		}
		if e := h.UpdateCurve(d.Parameters, d.Discretization, d.BezierPaths); e != nil {
			err = fmt.Errorf("helix %d: %w", id, e)
		}
	})
	return err
}

// RollAtPos is the roll of the helix at axis position n.
func (h *Helix) RollAtPos(p Parameters, n int) float64 {
	return h.Roll - float64(n)*h.beta(p)
}

func (h *Helix) beta(p Parameters) float64 {
	return 2 * math.Pi / (p.BasesPerTurn + h.DeltaBBPT)
}

// Theta is the angle of nucleotide n around the axis. The helix turns
// clockwise as n increases; at roll 0 the backward nucleotide 0 is at the
// top.
func (h *Helix) Theta(p Parameters, n int, forward bool) float64 {
	shift := 0.
	if forward {
		shift = p.GrooveAngle
	}
	return h.Roll - float64(n)*h.beta(p) + shift + math.Pi/2
}

// SpacePos is the position of nucleotide n.
func (h *Helix) SpacePos(p Parameters, n int, forward bool) r3.Vec {
	return h.ShiftedSpacePos(p, n, forward, 0)
}

// ShiftedSpacePos is the position of nucleotide n, rotated by shift around
// the axis.
func (h *Helix) ShiftedSpacePos(p Parameters, n int, forward bool, shift float64) r3.Vec {
	n += h.InitialNtIndex
	theta := h.Theta(p, n, forward) + shift
	if h.discretized != nil {
		bpt := p.BasesPerTurn + h.DeltaBBPT
		if pos, ok := h.discretized.NuclPos(n, forward, theta, p.HelixRadius, bpt); ok {
			return h.place(pos)
		}
		tracer().Debugf("nucleotide %d outside of the curve, using straight axis", n)
	}
	incl := 0.
	if !forward {
		incl = p.Inclination
	}
	sin, cos := math.Sincos(theta)
	local := ensnano.V(float64(n)*p.ZStep+incl, sin*p.HelixRadius, cos*p.HelixRadius)
	return r3.Add(h.Orientation.Rotate(local), h.Position)
}

// AxisPosition is the point of the axis at position n.
func (h *Helix) AxisPosition(p Parameters, n int) r3.Vec {
	n += h.InitialNtIndex
	if h.discretized != nil {
		if pos, ok := h.discretized.AxisPos(n); ok {
			return h.place(pos)
		}
	}
	return r3.Add(h.Orientation.Rotate(ensnano.V(float64(n)*p.ZStep, 0, 0)), h.Position)
}

func (h *Helix) place(v r3.Vec) r3.Vec {
	if h.absolute {
		return v
	}
	return r3.Add(h.Orientation.Rotate(v), h.Position)
}

// NormalAtPos is the axis direction at nucleotide n.
func (h *Helix) NormalAtPos(n int, forward bool) r3.Vec {
	if h.discretized != nil {
		if frame, ok := h.discretized.AxisAt(n, forward); ok {
			if h.absolute {
				return frame.Forward()
			}
			return h.Orientation.Rotate(frame.Forward())
		}
	}
	return h.Orientation.Rotate(ensnano.UnitX)
}

// Direction is the axis of a straight helix.
func (h *Helix) Direction() r3.Vec {
	return h.Orientation.Rotate(ensnano.UnitX)
}

// IdealNeighbour returns a straight helix parallel to h, placed so that a
// crossover at position n has the ideal length.
func (h *Helix) IdealNeighbour(p Parameters, n int, forward bool) *Helix {
	axis := h.AxisPosition(p, n)
	dir := ensnano.Unit(r3.Sub(h.SpacePos(p, n, forward), axis))
	nb := NewHelix(r3.Add(r3.Scale(p.Spacing(), dir), axis), h.Orientation)
	nb.Roll = h.Theta(p, n, forward) + math.Pi - nb.Theta(p, 0, forward)
	return nb
}

// Translate moves the helix.
func (h *Helix) Translate(v r3.Vec) {
	h.Position = r3.Add(h.Position, v)
}

// RotateAround rotates the helix by rot around origin.
func (h *Helix) RotateAround(rot ensnano.Rotor, origin r3.Vec) {
	h.Position = r3.Add(rot.Rotate(r3.Sub(h.Position, origin)), origin)
	h.Orientation = h.Orientation.Then(rot)
}

// SetRoll sets the roll.
func (h *Helix) SetRoll(roll float64) { h.Roll = roll }

// AddRoll turns the helix around its axis.
func (h *Helix) AddRoll(delta float64) { h.Roll += delta }

// CurveRange is the interval of positions of a curved helix.
func (h *Helix) CurveRange() (int, int, bool) {
	if h.discretized == nil {
		return 0, 0, false
	}
	lo, hi := h.discretized.Range()
	return lo, hi, true
}
