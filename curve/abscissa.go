package curve

import (
	"math"
	"sort"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/polyn"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	abscissaSamples    = 100_000
	abscissaTolerance  = 1e-4
	chebyshevMaxDegree = 512
)

// abscissaFit interpolates the arc length of a curve on [t0,t1] and its
// inverse with Chebyshev series. The sample table is kept to polish the
// inverse.
type abscissaFit struct {
	ts, ss           []float64
	forward, inverse polyn.Chebyshev
}

// fitAbscissa samples n+1 points on [t0,t1], in increasing order of t, and
// fits t → s and s → t. Arc length starts at s0. Fails if the samples are
// not strictly increasing in s, i.e. the curve stops somewhere.
func fitAbscissa(sample func(t float64) r3.Vec, t0, t1, s0 float64, n int) (*abscissaFit, error) {
	fit := &abscissaFit{ts: make([]float64, n+1), ss: make([]float64, n+1)}
	floats.Span(fit.ts, t0, t1)
	prev := sample(t0)
	fit.ss[0] = s0
	for i := 1; i <= n; i++ {
		p := sample(fit.ts[i])
		fit.ss[i] = fit.ss[i-1] + ensnano.Dist(prev, p)
		prev = p
	}
	var err error
	fit.inverse, err = polyn.InterpolatePoints(fit.ss, fit.ts, abscissaTolerance, chebyshevMaxDegree)
	if err != nil {
		return nil, err
	}
	fit.forward, err = polyn.InterpolatePoints(fit.ts, fit.ss, 10*abscissaTolerance, chebyshevMaxDegree)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("abscissa on [%g,%g]: length %.4f, degrees %d/%d", t0, t1,
		fit.ss[n]-s0, fit.forward.Degree(), fit.inverse.Degree())
	return fit, nil
}

// S is the arc length at t.
func (fit *abscissaFit) S(t float64) float64 {
	return fit.forward.Eval(t)
}

// Length is the arc length of the fitted interval.
func (fit *abscissaFit) Length() float64 {
	return fit.ss[len(fit.ss)-1] - fit.ss[0]
}

// Covers tells if s lies within the fitted range.
func (fit *abscissaFit) Covers(s float64) bool {
	return s >= fit.ss[0] && s <= fit.ss[len(fit.ss)-1]
}

// T is the parameter at arc length s. The series estimate is corrected by
// one Newton step on the sample table.
func (fit *abscissaFit) T(s float64) float64 {
	t := fit.inverse.Eval(s)
	n := len(fit.ts)
	i := sort.SearchFloat64s(fit.ts, t)
	if i < 1 || i >= n {
		return math.Max(fit.ts[0], math.Min(fit.ts[n-1], t))
	}
	slope := (fit.ss[i] - fit.ss[i-1]) / (fit.ts[i] - fit.ts[i-1])
	st := polyn.LinearLookup(fit.ts, fit.ss, t)
	if slope > ensnano.Epsilon {
		t += (s - st) / slope
	}
	return t
}

// --- Piecewise fits for closed-form curves -----------------------------------

// segmentAbscissa fits the arc length separately on each unit interval
// [k, k+1] of a curve's parameter, k = 0 … nbSegments-1.
type segmentAbscissa []*abscissaFit

func fitSegments(pos func(float64) r3.Vec, nbSegments int) segmentAbscissa {
	segs := make(segmentAbscissa, 0, nbSegments)
	var s float64
	for k := 0; k < nbSegments; k++ {
		fit, err := fitAbscissa(pos, float64(k), float64(k+1), s, abscissaSamples)
		if err != nil {
			tracer().Infof("no abscissa interpolation for segment %d: %v", k, err)
			return nil
		}
		segs = append(segs, fit)
		s += fit.Length()
	}
	return segs
}

func (segs segmentAbscissa) abscissa(t float64) (float64, bool) {
	if len(segs) == 0 {
		return 0, false
	}
	k := int(math.Floor(t))
	if k == len(segs) {
		k--
	}
	if k < 0 || k >= len(segs) {
		return 0, false
	}
	return segs[k].S(t), true
}

func (segs segmentAbscissa) inverse(s float64) (float64, bool) {
	for _, fit := range segs {
		if fit.Covers(s) {
			return fit.T(s), true
		}
	}
	return 0, false
}
