package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/ensnano"
	"github.com/titanous/json5"
	"gonum.org/v1/gonum/spatial/r3"
)

// Errors of descriptor instantiation
var (
	ErrUnknownCurveType = errors.New("unknown curve type")
	ErrBadDescriptor    = errors.New("invalid curve descriptor")
)

// Descriptor is the serialized form of a curve, a tagged union selected by
// Type. Only the fields of the selected variant are read.
type Descriptor struct {
	Type string `json:"type"`

	// bezier, piecewise-bezier
	Points   [][3]float64 `json:"points,omitempty"`
	Tangents [][3]float64 `json:"tangents,omitempty"`
	Smooth   bool         `json:"smooth,omitempty"`
	Cyclic   bool         `json:"cyclic,omitempty"`
	TMin     *float64     `json:"t_min,omitempty"`
	TMax     *float64     `json:"t_max,omitempty"`

	// torus, twisted-torus
	Theta0                     float64  `json:"theta0,omitempty"`
	HalfNbHelix                int      `json:"half_nb_helix,omitempty"`
	BigRadius                  float64  `json:"big_radius,omitempty"`
	Section                    *Section `json:"section,omitempty"`
	SymmetryPerTurn            int      `json:"symmetry_per_turn,omitempty"`
	NbHelixPerSection          int      `json:"nb_helix_per_section,omitempty"`
	HelixIndexShiftPerTurn     int      `json:"helix_index_shift_per_turn,omitempty"`
	InitialCurvilinearAbscissa float64  `json:"initial_curvilinear_abscissa,omitempty"`
	InitialIndexShift          int      `json:"initial_index_shift,omitempty"`

	// twist
	Omega    float64    `json:"omega,omitempty"`
	Position [3]float64 `json:"position,omitempty"`
	Axis     [3]float64 `json:"axis,omitempty"`
	Angle    float64    `json:"angle,omitempty"`
	LengthX  float64    `json:"length_x,omitempty"`
	Radius   float64    `json:"radius,omitempty"`

	// interpolated, revolution
	HalfTurns      int             `json:"half_turns,omitempty"`
	Scale          float64         `json:"scale,omitempty"`
	Interpolations []Interpolation `json:"interpolations,omitempty"`
	Smoothing      float64         `json:"smoothing,omitempty"`
	NbHelices      int             `json:"nb_helices,omitempty"`
	HelixIndex     int             `json:"helix_index,omitempty"`
	ShiftPerTurn   int             `json:"shift_per_turn,omitempty"`
	Turns          int             `json:"turns,omitempty"`

	// any variant
	Translation *[3]float64 `json:"translation,omitempty"`
}

// Section describes a profile: "ellipse" or "hobby".
type Section struct {
	Type      string       `json:"type"`
	SemiMajor float64      `json:"semi_major,omitempty"`
	SemiMinor float64      `json:"semi_minor,omitempty"`
	Knots     [][2]float64 `json:"knots,omitempty"`
}

// ParseDescriptor reads a descriptor in JSON5.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	desc := &Descriptor{}
	if err := json5.Unmarshal(data, desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}
	return desc, nil
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

func orNaN(x *float64) float64 {
	if x == nil {
		return math.NaN()
	}
	return *x
}

// Instantiate builds the curve. spacing is the distance between the axes
// of neighbouring helices on a section, used by torus variants.
func (desc *Descriptor) Instantiate(spacing float64) (Curve, error) {
	c, err := desc.instantiate(spacing)
	if err != nil {
		return nil, err
	}
	if desc.Translation != nil {
		return Translate(c, vec(*desc.Translation), nil), nil
	}
	return c, nil
}

func (desc *Descriptor) instantiate(spacing float64) (Curve, error) {
	switch desc.Type {
	case CubicBezierKind.String():
		if len(desc.Points) != 4 {
			return nil, fmt.Errorf("%w: bezier needs 4 points, has %d", ErrBadDescriptor, len(desc.Points))
		}
		p := desc.Points
		return NewCubicBezier(vec(p[0]), vec(p[1]), vec(p[2]), vec(p[3])), nil
	case PiecewiseBezierKind.String():
		if len(desc.Points) == 0 {
			return nil, fmt.Errorf("%w: piecewise bezier without points", ErrBadDescriptor)
		}
		if len(desc.Tangents) > 0 && len(desc.Tangents) != len(desc.Points) {
			return nil, fmt.Errorf("%w: %d tangents for %d points", ErrBadDescriptor,
				len(desc.Tangents), len(desc.Points))
		}
		vs := make([]Vertex, len(desc.Points))
		for i, p := range desc.Points {
			vs[i].Position = vec(p)
			if len(desc.Tangents) > 0 {
				v := vec(desc.Tangents[i])
				vs[i].VectorIn, vs[i].VectorOut = &v, &v
			}
		}
		mode := ChordTangents
		if desc.Smooth {
			mode = C2Tangents
		}
		ends := EndsFromVertices(vs, desc.Cyclic, mode)
		return NewPiecewiseBezier(ends, desc.Cyclic, orNaN(desc.TMin), orNaN(desc.TMax)), nil
	case TorusKind.String():
		if desc.HalfNbHelix < 1 {
			return nil, fmt.Errorf("%w: torus needs helices", ErrBadDescriptor)
		}
		return NewTorus(desc.Theta0, desc.HalfNbHelix, desc.BigRadius, spacing), nil
	case TwistedTorusKind.String():
		section, err := desc.Section.profile()
		if err != nil {
			return nil, err
		}
		if desc.NbHelixPerSection < 1 {
			return nil, fmt.Errorf("%w: twisted torus needs helices", ErrBadDescriptor)
		}
		return NewTwistedTorus(TwistedTorus{
			Section:                    section,
			SymmetryPerTurn:            desc.SymmetryPerTurn,
			BigRadius:                  desc.BigRadius,
			NbHelixPerSection:          desc.NbHelixPerSection,
			HelixIndexShiftPerTurn:     desc.HelixIndexShiftPerTurn,
			InitialCurvilinearAbscissa: desc.InitialCurvilinearAbscissa,
			InitialIndexShift:          desc.InitialIndexShift,
			Spacing:                    spacing,
		}), nil
	case TwistKind.String():
		orientation := ensnano.IdentityRotor()
		if axis := vec(desc.Axis); r3.Norm(axis) > ensnano.Epsilon {
			orientation = ensnano.RotorFromAxisAngle(axis, desc.Angle)
		}
		tmin, tmax := 0., 1.
		if desc.TMin != nil {
			tmin = *desc.TMin
		}
		if desc.TMax != nil {
			tmax = *desc.TMax
		}
		return NewTwist(desc.Theta0, desc.Omega, vec(desc.Position), orientation,
			desc.LengthX, desc.Radius, tmin, tmax), nil
	case InterpolatedKind.String():
		rev, err := desc.revolution()
		if err != nil {
			return nil, err
		}
		return NewInterpolatedCurve(rev, desc.Interpolations, desc.Smoothing)
	case RevolutionKind.String():
		rev, err := desc.revolution()
		if err != nil {
			return nil, err
		}
		return NewRevolutionSurface(rev, desc.NbHelices, desc.HelixIndex, desc.ShiftPerTurn, desc.Turns), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCurveType, desc.Type)
}

func (desc *Descriptor) revolution() (Revolution, error) {
	section, err := desc.Section.profile()
	if err != nil {
		return Revolution{}, err
	}
	scale := desc.Scale
	if scale == 0 {
		scale = 1
	}
	return Revolution{Section: section, HalfTurns: desc.HalfTurns, Radius: desc.Radius, Scale: scale}, nil
}

func (sec *Section) profile() (Profile, error) {
	if sec == nil {
		return nil, fmt.Errorf("%w: missing section", ErrBadDescriptor)
	}
	switch sec.Type {
	case "ellipse":
		return Ellipse{SemiMajor: sec.SemiMajor, SemiMinor: sec.SemiMinor}, nil
	case "hobby":
		knots := make([]ensnano.Pair, len(sec.Knots))
		for i, k := range sec.Knots {
			knots[i] = ensnano.P(k[0], k[1])
		}
		hp, err := NewHobbyProfile(knots)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
		}
		return hp, nil
	}
	return nil, fmt.Errorf("%w: section %q", ErrUnknownCurveType, sec.Type)
}
