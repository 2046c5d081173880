package jhobby

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/polyn"
)

// Solve finds the control points of a Hobby spline through the knots of
// path.
//
// The departure angle θ.i at knot i is the angle between the tangent and
// the chord to the next knot. Each knot contributes one linear equation in
// the θs: a fixed direction, a curl condition at the ends of an open path,
// or mock curvature continuity everywhere else. The θs are solved with
// polyn's linear equation solver, where θ.i is variable x.(i+1).
func Solve(path *Path) (*Spline, error) {
	if err := path.validate(); err != nil {
		return nil, err
	}
	n := path.N()
	psi := path.turningAngles()
	leq := polyn.NewLinEqSolver()
	leq.SetVariableResolver(thetaNames(n))
	if !path.cycle && n == 2 && !path.z(0).hasDir() && !path.z(1).hasDir() {
		// curl at both ends of a single segment: a straight line
		leq.AddEqs([]polyn.Polynomial{
			polyn.Must(polyn.New(0, polyn.X{I: 1, C: 1})),
			polyn.Must(polyn.New(0, polyn.X{I: 2, C: 1})),
		})
		n = 0
	}
	for i := 0; i < n; i++ {
		eq := path.angleEquation(i, psi)
		if err := leq.AddEq(eq); err != nil {
			tracer().Errorf("angle equation for knot %d: %v", i, err)
			return nil, fmt.Errorf("%w: %v", ErrUnsolvable, err)
		}
	}
	theta := make([]float64, path.N())
	for i := range theta {
		th, ok := leq.Solved(i + 1)
		if !ok {
			return nil, fmt.Errorf("%w: departure angle at knot %d undetermined", ErrUnsolvable, i)
		}
		theta[i] = th
	}
	tracer().Debugf("θ = %v", theta)
	spline := &Spline{cycle: path.cycle}
	for i := 0; i < path.segmentCount(); i++ {
		spline.segments = append(spline.segments, path.controls(i, theta, psi))
	}
	return spline, nil
}

// turningAngles returns ψ.i, the turn of the chords at knot i. Ends of open
// paths do not turn.
func (path *Path) turningAngles() []float64 {
	n := path.N()
	psi := make([]float64, n)
	for i := 0; i < n; i++ {
		if !path.cycle && (i == 0 || i == n-1) {
			continue
		}
		psi[i] = reduceAngle(arg(path.delta(i)) - arg(path.delta(i-1)))
	}
	return psi
}

// angleEquation returns the equation 0 = p for the departure angle at
// knot i.
func (path *Path) angleEquation(i int, psi []float64) polyn.Polynomial {
	n := path.N()
	k := path.z(i)
	last := !path.cycle && i == n-1
	if k.hasDir() {
		chord := path.delta(i)
		if last {
			chord = path.delta(i - 1)
		}
		theta := reduceAngle(arg(k.Dir) - arg(chord))
		return polyn.Must(polyn.New(-theta, polyn.X{I: i + 1, C: 1}))
	}
	if !path.cycle && i == 0 {
		a, b := 1/path.z(0).TensionOut, 1/path.z(1).TensionIn
		u := curlRatio(k.Curl, a, b)
		// θ.0 + u θ.1 = -u ψ.1
		return polyn.Must(polyn.New(u*psi[1], polyn.X{I: 1, C: 1}, polyn.X{I: 2, C: u}))
	}
	if last {
		a, b := 1/path.z(n-1).TensionIn, 1/path.z(n-2).TensionOut
		f := curlRatio(k.Curl, a, b)
		// θ.m + f θ.(m-1) = 0
		return polyn.Must(polyn.New(0, polyn.X{I: n, C: 1}, polyn.X{I: n - 1, C: f}))
	}
	prev, next := path.z(i-1), path.z(i+1)
	a0, a1 := 1/prev.TensionOut, 1/k.TensionOut
	b1, b2 := 1/k.TensionIn, 1/next.TensionIn
	dprev, dnext := path.delta(i-1).Abs(), path.delta(i).Abs()
	A := a0 / (b1 * b1 * dprev)
	B := (3 - a0) / (b1 * b1 * dprev)
	C := (3 - b2) / (a1 * a1 * dnext)
	D := b2 / (a1 * a1 * dnext)
	psinext := psi[(i+1)%n]
	// A θ.(i-1) + (B+C) θ.i + D θ.(i+1) = -B ψ.i - D ψ.(i+1)
	return polyn.Must(polyn.New(B*psi[i]+D*psinext,
		polyn.X{I: (i-1+n)%n + 1, C: A},
		polyn.X{I: i + 1, C: B + C},
		polyn.X{I: (i+1)%n + 1, C: D}))
}

// curlRatio is the factor between the angle at an end knot and the angle
// at its neighbour. a belongs to the end knot, b to the neighbour.
func curlRatio(curl, a, b float64) float64 {
	c := a * a * curl / (b * b)
	return ((3-a)*c + b) / (a*c + 3 - b)
}

// controls computes the Bézier segment from knot i to knot i+1.
func (path *Path) controls(i int, theta, psi []float64) segment {
	n := path.N()
	j := (i + 1) % n
	z0, z1 := path.z(i), path.z(j)
	th := theta[i]
	phi := -psi[j] - theta[j]
	st, ct := math.Sincos(th)
	sf, cf := math.Sincos(phi)
	alpha := math.Sqrt2 * (st - sf/16) * (sf - st/16) * (ct - cf)
	rho := (2 + alpha) / (1 + 0.618034*ct + 0.381966*cf)
	sigma := (2 - alpha) / (1 + 0.618034*cf + 0.381966*ct)
	d := path.delta(i)
	post := z0.Z + d.Rotated(th).Scaled(rho/(3*z0.TensionOut))
	pre := z1.Z - d.Rotated(-phi).Scaled(sigma/(3*z1.TensionIn))
	return segment{z0.Z, post, pre, z1.Z}
}

func arg(p ensnano.Pair) float64 {
	return cmplx.Phase(complex128(p))
}

// reduceAngle maps an angle to ]-π, π].
func reduceAngle(x float64) float64 {
	x = math.Remainder(x, 2*math.Pi)
	if x <= -math.Pi {
		x += 2 * math.Pi
	}
	return x
}

// thetaNames names the angle variables in traces.
type thetaNames int

func (thetaNames) GetVariableName(i int) string {
	return fmt.Sprintf("θ.%d", i-1)
}

func (thetaNames) SetVariableSolved(int, float64) {}
