package jhobby

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ensnano.jhobby'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.jhobby")
}

var (
	// ErrTooFewKnots indicates path knot count is insufficient for solving.
	ErrTooFewKnots = errors.New("path has too few knots")
	// ErrInvalidKnot indicates a knot coordinate contains NaN/Inf.
	ErrInvalidKnot = errors.New("path has invalid knot coordinate")
	// ErrDegenerateSegment indicates two consecutive knots collapse to one point.
	ErrDegenerateSegment = errors.New("path has degenerate segment")
	// ErrUnsolvable indicates the angle equations have no unique solution.
	ErrUnsolvable = errors.New("spline equations not solvable")
)

// Knot is a point of a skeleton path, with the parameters of the joins
// before and after it.
type Knot struct {
	Z                     ensnano.Pair
	Dir                   ensnano.Pair // fixed tangent direction, or NaN
	TensionIn, TensionOut float64      // 1 is neutral
	Curl                  float64      // at the ends of open paths, 1 is neutral
}

func (k Knot) hasDir() bool {
	return !cmplx.IsNaN(complex128(k.Dir))
}

// Path is a skeleton path: knots without control points.
type Path struct {
	knots     []Knot
	cycle     bool
	pendingIn float64 // tension before the next knot, 0 if unset
}

// Open starts an empty path. Extend it with Knot, DirKnot, Tension and
// Curl, then finish with End or Cycle.
func Open() *Path {
	return &Path{}
}

// Knot appends a smooth knot.
func (path *Path) Knot(z ensnano.Pair) *Path {
	k := Knot{
		Z: z, Dir: ensnano.Pair(cmplx.NaN()),
		TensionIn: 1, TensionOut: 1, Curl: 1,
	}
	if path.pendingIn != 0 {
		k.TensionIn, path.pendingIn = path.pendingIn, 0
	}
	path.knots = append(path.knots, k)
	return path
}

// DirKnot appends a knot the spline passes in direction dir.
func (path *Path) DirKnot(z, dir ensnano.Pair) *Path {
	path.Knot(z)
	path.knots[len(path.knots)-1].Dir = dir
	return path
}

// Tension sets the tension after the last knot and before the next one.
// Tensions are clamped to [3/4, 4].
func (path *Path) Tension(out, in float64) *Path {
	if n := len(path.knots); n > 0 {
		path.knots[n-1].TensionOut = clampTension(out)
	}
	path.pendingIn = clampTension(in)
	return path
}

// Curl sets the curl at the last knot, effective at the ends of open paths.
func (path *Path) Curl(c float64) *Path {
	if n := len(path.knots); n > 0 {
		path.knots[n-1].Curl = c
	}
	return path
}

// End finishes an open path.
func (path *Path) End() *Path {
	path.pendingIn = 0
	path.cycle = false
	return path
}

// Cycle closes the path. The first knot must not be repeated.
func (path *Path) Cycle() *Path {
	if path.pendingIn != 0 && len(path.knots) > 0 {
		path.knots[0].TensionIn = path.pendingIn
	}
	path.pendingIn = 0
	path.cycle = true
	return path
}

// IsCycle is a predicate: is this path cyclic?
func (path *Path) IsCycle() bool {
	return path.cycle
}

// N is the knot count.
func (path *Path) N() int {
	return len(path.knots)
}

// Knots returns the knots of the path.
func (path *Path) Knots() []Knot {
	return path.knots
}

// z returns the knot at position (i mod N).
func (path *Path) z(i int) Knot {
	n := path.N()
	return path.knots[((i%n)+n)%n]
}

func clampTension(t float64) float64 {
	return math.Max(0.75, math.Min(4, math.Abs(t)))
}

// validate checks if a path is solvable by Hobby interpolation.
func (path *Path) validate() error {
	n := path.N()
	if path.cycle && n < 3 {
		return fmt.Errorf("%w: cycle needs at least 3 knots, got %d", ErrTooFewKnots, n)
	} else if n < 2 {
		return fmt.Errorf("%w: open path needs at least 2 knots, got %d", ErrTooFewKnots, n)
	}
	for i, k := range path.knots {
		x, y := k.Z.X(), k.Z.Y()
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return fmt.Errorf("%w at knot %d", ErrInvalidKnot, i)
		}
	}
	for i := 0; i < path.segmentCount(); i++ {
		if path.delta(i).Abs() <= ensnano.Epsilon {
			return fmt.Errorf("%w between knots %d and %d", ErrDegenerateSegment, i, (i+1)%n)
		}
	}
	return nil
}

func (path *Path) segmentCount() int {
	if path.cycle {
		return path.N()
	}
	return path.N() - 1
}

func (path *Path) delta(i int) ensnano.Pair {
	return path.z(i+1).Z - path.z(i).Z
}

// String returns the skeleton in MetaPost notation.
func (path *Path) String() string {
	var b strings.Builder
	for i, k := range path.knots {
		if i > 0 {
			b.WriteString(" .. ")
		}
		b.WriteString(ptstring(k.Z, false))
	}
	if path.cycle {
		b.WriteString(" .. cycle")
	}
	return b.String()
}

func ptstring(p ensnano.Pair, iscontrol bool) string {
	if cmplx.IsNaN(complex128(p)) {
		return "(<unknown>)"
	}
	if iscontrol {
		return fmt.Sprintf("(%.4f,%.4f)", round4(p.X()), round4(p.Y()))
	}
	return fmt.Sprintf("(%.4g,%.4g)", round4(p.X()), round4(p.Y()))
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
