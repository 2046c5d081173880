package curve

import (
	"math"

	"github.com/npillmayer/ensnano"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	lengthSamples     = 100_000 // samples for chord-length estimates
	legacyNbStep      = 100
	maxExtensionDelta = 256.
)

// DiscretizeOptions are the parameters of a discretization.
type DiscretizeOptions struct {
	Step        float64 // arc length between consecutive nucleotides, in nm
	NbStep      int     // parameter sub-steps per nucleotide when stepping
	Inclination float64 // arc length from a forward nucleotide to its backward partner
	Legacy      bool    // use the older walk, kept to reproduce old designs
}

// DefaultDiscretizeOptions uses the nominal rise of B-DNA.
func DefaultDiscretizeOptions() DiscretizeOptions {
	return DiscretizeOptions{Step: 0.332, NbStep: 100}
}

// precomputer is implemented by curves whose arc length is worth fitting
// before the walk.
type precomputer interface {
	precomputeAbscissa() bool
}

func (tor *Torus) precomputeAbscissa() bool { return true }
func (tt *TwistedTorus) precomputeAbscissa() bool { return true }

// Discretized holds the nucleotides of a helix following a curve. Forward
// nucleotides are indexed from -NuclT0; index 0 is the first nucleotide at
// t ≥ 0.
type Discretized struct {
	Curve             Curve
	PositionsForward  []r3.Vec
	PositionsBackward []r3.Vec
	AxisForward       []ensnano.Frame
	AxisBackward      []ensnano.Frame
	Curvature         []float64 // per forward nucleotide
	TNucl             []float64 // parameter of each forward nucleotide
	NuclT0            int
	// NuclPosFullTurn is the real nucleotide index at which the curve has
	// made one full turn, valid if HasFullTurn.
	NuclPosFullTurn float64
	HasFullTurn     bool
	// AdditionalSegmentLeft lists the forward indices starting a new
	// segment of the curve.
	AdditionalSegmentLeft []int
	// Converter is set for curves owning their converter.
	Converter *AbscissaConverter
	Step      float64 // effective step, after full-turn adjustment
	opts      DiscretizeOptions
}

// Discretize walks c and places the nucleotides of both strands.
func Discretize(c Curve, opts DiscretizeOptions) *Discretized {
	if opts.NbStep < 1 {
		opts.NbStep = DefaultDiscretizeOptions().NbStep
	}
	d := &Discretized{Curve: c, Step: opts.Step, opts: opts}
	if opts.Legacy {
		d.walkLegacy()
	} else {
		d.walk()
	}
	if c.TimeMapsSingleton() && len(d.TNucl) > 0 {
		conv := NewAbscissaConverter(d.TNucl, d.NuclT0)
		d.Converter = &conv
	}
	tracer().Debugf("discretized %s: %d forward, %d backward nucleotides, step %.5f",
		c.Kind(), len(d.PositionsForward), len(d.PositionsBackward), d.Step)
	return d
}

// strandCursor carries the state of the walk shared by both variants.
type strandCursor struct {
	d          *Discretized
	w          *walker
	nextF      float64
	nextB      float64
	firstFwd   bool
	segment    int
	beforeZero bool
	abscissa   float64
	smallStep  float64
	inverse    func(s float64) (float64, bool)
	stepping   bool // the inverse has failed once
}

func (d *Discretized) newCursor(legacy bool) *strandCursor {
	t := d.Curve.TMin()
	cur := &strandCursor{d: d, w: newWalker(d.Curve, t, legacy), beforeZero: t < 0}
	if d.opts.Inclination >= 0 {
		d.pushForward(cur)
		cur.nextF = d.Step
		cur.nextB = d.opts.Inclination
		cur.firstFwd = true
	} else {
		d.pushBackward(cur)
		cur.nextB = d.Step
		cur.nextF = -d.opts.Inclination
	}
	return cur
}

func (d *Discretized) pushForward(cur *strandCursor) {
	t := cur.w.t
	if cur.beforeZero && t >= 0 {
		cur.beforeZero = false
		d.NuclT0 = len(d.PositionsForward)
	}
	d.TNucl = append(d.TNucl, t)
	if k, ok := d.Curve.SubdivisionForT(t); ok && k != cur.segment {
		cur.segment = k
		d.AdditionalSegmentLeft = append(d.AdditionalSegmentLeft, len(d.PositionsForward))
	}
	d.PositionsForward = append(d.PositionsForward, cur.w.point)
	d.AxisForward = append(d.AxisForward, cur.w.frame)
	d.Curvature = append(d.Curvature, Curvature(d.Curve, t))
}

func (d *Discretized) pushBackward(cur *strandCursor) {
	d.PositionsBackward = append(d.PositionsBackward, cur.w.point)
	d.AxisBackward = append(d.AxisBackward, cur.w.frame)
}

// reach moves the walker to arc length target, by a jump if an inverse is
// known, else in small steps. Stepping stops early when t passes limit.
func (cur *strandCursor) reach(target, limit float64) {
	if cur.inverse != nil {
		if t, ok := cur.inverse(target); ok {
			cur.w.advanceTo(t)
			cur.abscissa = target
			return
		}
		if !cur.stepping {
			cur.stepping = true
			tracer().Infof("no parameter for arc length %.4f on %s, stepping from t=%.4f",
				target, cur.d.Curve.Kind(), cur.w.t)
		}
	}
	for cur.abscissa < target {
		t := cur.w.t + cur.smallStep
		cur.abscissa += cur.w.advanceTo(t)
		if t > limit {
			return
		}
	}
}

// --- Current walk ----------------------------------------------------------

func (d *Discretized) walk() {
	c := d.Curve
	tmin, tmax := c.TMin(), c.TMax()
	fit := d.precompute()
	var length float64
	if fit != nil {
		length = fit.Length()
	} else {
		length = Length(c, tmin, tmax, lengthSamples)
	}
	nbPoints := int(length / d.Step)
	if nbPoints == 0 {
		tracer().Infof("%s of length %.4f is too short for a step of %.4f, no nucleotides",
			c.Kind(), length, d.Step)
		return
	}
	d.adjustStep(fit)

	cur := d.newCursor(false)
	cur.smallStep = (tmax - tmin) / float64(d.opts.NbStep*nbPoints)
	cur.inverse = d.inverseAbscissa(fit)
	for cur.w.t <= tmax {
		target, forward := cur.nextF, true
		if cur.nextB < cur.nextF {
			target, forward = cur.nextB, false
		}
		cur.reach(target, tmax)
		if cur.w.t > tmax {
			break
		}
		if forward {
			d.pushForward(cur)
			cur.nextF = cur.abscissa + d.Step
		} else {
			d.pushBackward(cur)
			cur.nextB = cur.abscissa + d.Step
		}
	}
}

// precompute fits the arc length of curves which ask for it. On failure the
// walk steps through the curve.
func (d *Discretized) precompute() *abscissaFit {
	p, ok := d.Curve.(precomputer)
	if !ok || !p.precomputeAbscissa() {
		return nil
	}
	tmin, tmax := d.Curve.TMin(), d.Curve.TMax()
	w := newWalker(d.Curve, tmin, false)
	sample := func(t float64) r3.Vec {
		w.advanceTo(t)
		return w.point
	}
	fit, err := fitAbscissa(sample, tmin, tmax, 0, abscissaSamples)
	if err != nil {
		tracer().Infof("no abscissa interpolation for %s, stepping instead: %v", d.Curve.Kind(), err)
		return nil
	}
	return fit
}

// inverseAbscissa maps arc length from TMin to a parameter. Arc lengths of
// the curve itself are counted from t=0.
func (d *Discretized) inverseAbscissa(fit *abscissaFit) func(float64) (float64, bool) {
	c := d.Curve
	if s0, ok := c.CurvilinearAbscissa(c.TMin()); ok {
		return func(s float64) (float64, bool) {
			return c.InverseCurvilinearAbscissa(s + s0)
		}
	}
	if fit != nil {
		return func(s float64) (float64, bool) {
			if !fit.Covers(s) {
				return 0, false
			}
			return fit.T(s), true
		}
	}
	return nil
}

// adjustStep changes the step so that a whole number of steps fits into
// the first full turn of the curve.
func (d *Discretized) adjustStep(fit *abscissaFit) {
	c := d.Curve
	tStar, ok := c.FullTurnAtT()
	if !ok {
		return
	}
	var syncLength float64
	if fit != nil && tStar <= c.TMax() {
		syncLength = fit.S(tStar)
	} else {
		syncLength = Length(c, c.TMin(), tStar, lengthSamples)
	}
	L := d.Step
	eps := ensnano.Mod(syncLength, L)
	n := math.Floor(syncLength / L)
	if eps > L/2 {
		L -= (L - eps) / (n + 1)
	} else if n > 0 {
		L += eps / n
	}
	d.Step = L
	d.NuclPosFullTurn = syncLength/L + 1
	d.HasFullTurn = true
	tracer().Debugf("full turn after %.4f nm, step %.5f, nucleotide %.3f", syncLength, L, d.NuclPosFullTurn)
}

// --- Legacy walk -----------------------------------------------------------

// walkLegacy keeps placing backward nucleotides past TMax until both strands
// are balanced, and never adjusts the step.
func (d *Discretized) walkLegacy() {
	c := d.Curve
	tmin, tmax := c.TMin(), c.TMax()
	length := legacyLength(c, tmin, 1, legacyNbStep)
	nbPoints := int(length / d.Step)
	if nbPoints < 1 {
		nbPoints = 1
	}
	cur := d.newCursor(true)
	cur.smallStep = 1 / float64(legacyNbStep*nbPoints)
	cur.inverse = c.InverseCurvilinearAbscissa
	tStar, hasTurn := c.FullTurnAtT()
	incl := d.opts.Inclination
	hardLimit := tmax + (tmax - tmin)
	for cur.w.t <= tmax || cur.nextB < cur.nextF+incl {
		var target float64
		var forward bool
		switch {
		case cur.w.t <= tmax:
			target, forward = math.Min(cur.nextF, cur.nextB), cur.nextF <= cur.nextB
		case cur.firstFwd:
			target, forward = cur.nextB, false
		default:
			target, forward = cur.nextF, true
		}
		cur.reach(target, hardLimit)
		if cur.w.t > hardLimit {
			tracer().Errorf("legacy discretization of %s does not terminate, stopped at t=%g", c.Kind(), cur.w.t)
			break
		}
		if !forward {
			d.pushBackward(cur)
			cur.nextB = cur.abscissa + d.Step
			continue
		}
		if cur.w.t > tmax {
			if !cur.firstFwd {
				break // the forward strand cannot catch up any more
			}
			continue
		}
		d.pushForward(cur)
		cur.nextF = cur.abscissa + d.Step
		if hasTurn && !d.HasFullTurn && cur.w.t > tStar {
			d.NuclPosFullTurn = float64(len(d.PositionsForward) - d.NuclT0)
			d.HasFullTurn = true
		}
	}
	if hasTurn && !d.HasFullTurn {
		d.NuclPosFullTurn = float64(len(d.PositionsForward) - d.NuclT0 + 1)
		d.HasFullTurn = true
	}
}

// legacyLength sums chords of the untranslated curve.
func legacyLength(c Curve, t0, t1 float64, nbStep int) float64 {
	if s0, ok := c.CurvilinearAbscissa(t0); ok {
		if s1, ok := c.CurvilinearAbscissa(t1); ok {
			return s1 - s0
		}
	}
	p := c.Position(t0)
	var l float64
	for i := 1; i <= nbStep; i++ {
		q := c.Position(t0 + float64(i)/float64(nbStep)*(t1-t0))
		l += ensnano.Dist(p, q)
		p = q
	}
	return l
}

// --- Queries ---------------------------------------------------------------

// NbPoints is the number of nucleotide pairs.
func (d *Discretized) NbPoints() int {
	return min(len(d.PositionsForward), len(d.PositionsBackward))
}

// Points are the positions of the forward strand.
func (d *Discretized) Points() []r3.Vec {
	return d.PositionsForward
}

// Index converts a nucleotide position to an index into the arrays.
func (d *Discretized) Index(n int) (int, bool) {
	if n >= 0 {
		return n + d.NuclT0, true
	}
	if -n <= d.NuclT0 {
		return d.NuclT0 + n, true
	}
	return 0, false
}

// AxisPos is the point of the helix axis at nucleotide n.
func (d *Discretized) AxisPos(n int) (r3.Vec, bool) {
	i, ok := d.Index(n)
	if !ok || i >= len(d.PositionsForward) {
		return r3.Vec{}, false
	}
	return d.PositionsForward[i], true
}

// NuclTime is the parameter of nucleotide n.
func (d *Discretized) NuclTime(n int) (float64, bool) {
	i, ok := d.Index(n)
	if !ok || i >= len(d.TNucl) {
		return 0, false
	}
	return d.TNucl[i], true
}

// AxisAt is the frame of nucleotide n on one strand.
func (d *Discretized) AxisAt(n int, forward bool) (ensnano.Frame, bool) {
	i, ok := d.Index(n)
	axis := d.AxisBackward
	if forward {
		axis = d.AxisForward
	}
	if !ok || i >= len(axis) {
		return ensnano.Frame{}, false
	}
	return axis[i], true
}

// NuclPos places nucleotide n of one strand at distance radius from the
// axis, at angle theta in its frame. With a full-turn marker, theta is
// corrected linearly so that the helix is in phase after the full turn.
func (d *Discretized) NuclPos(n int, forward bool, theta, radius, basesPerTurn float64) (r3.Vec, bool) {
	i, ok := d.Index(n)
	axis, positions := d.AxisBackward, d.PositionsBackward
	if forward {
		axis, positions = d.AxisForward, d.PositionsForward
	}
	if !ok || i >= len(axis) {
		return r3.Vec{}, false
	}
	if d.HasFullTurn && d.NuclPosFullTurn != 0 {
		theta += d.phaseCorrection(basesPerTurn) / d.NuclPosFullTurn * float64(n)
	}
	sin, cos := math.Sincos(theta)
	p := axis[i].Apply(r3.Vec{X: -cos * radius, Y: sin * radius})
	return r3.Add(p, positions[i]), true
}

// phaseCorrection is the angle missing at the full turn, in ]-π,π].
func (d *Discretized) phaseCorrection(basesPerTurn float64) float64 {
	var final float64
	if d.opts.Legacy {
		final = -d.NuclPosFullTurn * 2 * math.Pi / basesPerTurn
		return wrapAngle(-ensnano.Mod(final, 2*math.Pi) - math.Pi/2)
	}
	var additional float64
	if n := len(d.AxisForward); n > 0 {
		first, last := d.AxisForward[0], d.AxisForward[n-1]
		additional = math.Atan2(r3.Dot(first.Right(), last.Up()), r3.Dot(first.Right(), last.Right()))
	}
	final = d.NuclPosFullTurn*2*math.Pi/-basesPerTurn + additional
	return wrapAngle(-ensnano.Mod(final, 2*math.Pi))
}

// wrapAngle maps an angle to ]-π,π].
func wrapAngle(a float64) float64 {
	a = ensnano.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Range is the interval of nucleotide positions shown for the helix,
// clamped to [-100,100].
func (d *Discretized) Range() (int, int) {
	lo := max(-d.NuclT0, -100)
	hi := min(lo+d.NbPoints()-1, 100)
	return lo, hi
}

// SegmentStarts are the nucleotide positions starting additional segments.
func (d *Discretized) SegmentStarts() []int {
	starts := make([]int, len(d.AdditionalSegmentLeft))
	for i, left := range d.AdditionalSegmentLeft {
		starts[i] = left - d.NuclT0
	}
	return starts
}

// RightExtension returns a TMax large enough to host nucleotide n. Curves
// with finite bounds cannot be extended.
func (d *Discretized) RightExtension(n int) (float64, bool) {
	c := d.Curve
	if n < d.NbPoints()-d.NuclT0-1 {
		return c.TMax(), true
	}
	if c.Bounds() != PositiveInfinite {
		return 0, false
	}
	objective := float64(n)*d.opts.Step + d.opts.Inclination
	if t, ok := c.InverseCurvilinearAbscissa(objective); ok {
		return t, true
	}
	for delta := 1.; delta < maxExtensionDelta; delta *= 2 {
		tmax := c.TMax() + delta
		if Length(c, 0, tmax, max(n, 1)*legacyNbStep) > objective {
			return tmax, true
		}
	}
	return 0, false
}
