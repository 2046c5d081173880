package roller

import (
	"context"
	"errors"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/curve"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// twisted holds two neighbouring helices linked by a crossover 0:5→ to
// 1:0→, with helix 1 rolled away from its ideal position.
func twisted(t *testing.T, roll float64) *design.Design {
	d := design.New()
	d.Parameters = design.LegacyENSnano
	h0 := design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor())
	d.AddHelix(h0)
	h1 := h0.IdealNeighbour(d.Parameters, 5, true)
	h1.AddRoll(roll)
	d.AddHelix(h1)
	_, err := d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 6, Forward: true},
		design.HelixInterval{Helix: 1, Start: 0, End: 6, Forward: true},
	}, false, 0))
	require.NoError(t, err)
	require.Equal(t, 1, d.Xovers.Len())
	return d
}

func energy(sys *System) float64 {
	e := 0.
	for _, xp := range sys.xovers {
		h1 := sys.helices[sys.index[xp.Prime5.Helix]]
		h2 := sys.helices[sys.index[xp.Prime3.Helix]]
		dist := ensnano.Dist(h1.SpacePos(sys.params, xp.Prime5.Position, xp.Prime5.Forward),
			h2.SpacePos(sys.params, xp.Prime3.Position, xp.Prime3.Forward))
		e += KSpring / 2 * (dist - sys.params.DistAC()) * (dist - sys.params.DistAC())
	}
	return e
}

func TestTorqueLowersEnergy(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twisted(t, 0.6)
	sys, err := NewSystem(d, nil)
	require.NoError(t, err)
	t1, t2 := sys.torques(sys.xovers[0])
	const h = 1e-6
	for i, torque := range []float64{t1, t2} {
		e0 := energy(sys)
		sys.helices[i].AddRoll(h)
		e1 := energy(sys)
		sys.helices[i].AddRoll(-h)
		de := (e1 - e0) / h
		if de*torque > 0 {
			t.Errorf("helix %d: torque %g does not lower the energy (dE/droll = %g)", i, torque, de)
		}
	}
}

func TestSolveStabilizes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twisted(t, 0.6)
	sys, err := NewSystem(d, []int{1})
	require.NoError(t, err)
	before := sys.XoverMismatch()
	e0 := energy(sys)
	roll0 := sys.Rolls()[0]
	steps := 0
	st, err := sys.Solve(context.Background(), Options{MaxSteps: 50000}, func(State) { steps++ })
	require.NoError(t, err)
	assert.True(t, st.Stabilized)
	assert.Equal(t, steps, st.Step)
	assert.Less(t, st.Grad, Stable)
	assert.LessOrEqual(t, energy(sys), e0)
	assert.LessOrEqual(t, sys.XoverMismatch(), before)
	assert.Equal(t, roll0, st.Rolls[0], "helix 0 is not a target")
	h1, _ := d.Helices.Get(1)
	assert.Equal(t, h1.Roll, st.Rolls[1])
}

func TestNoCrossoverIsStable(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := design.New()
	d.AddHelix(design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	sys, err := NewSystem(d, nil)
	require.NoError(t, err)
	st, err := sys.Solve(context.Background(), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.True(t, st.Stabilized)
	_, err = NewSystem(d, []int{4})
	assert.True(t, errors.Is(err, design.ErrNoSuchHelix))
}

func TestJob(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twisted(t, 0.4)
	snap := d.Snapshot()
	job := Start(context.Background(), snap, Options{MaxSteps: 50000})
	var latest State
	for st := range job.States() {
		if st.Step <= latest.Step {
			t.Fatalf("state %d delivered after state %d", st.Step, latest.Step)
		}
		latest = st
	}
	last, err := job.Wait()
	require.NoError(t, err)
	assert.Equal(t, snap.ID, last.Design)
	assert.True(t, last.Stabilized)
	assert.Equal(t, last.Step, latest.Step, "the final state is always delivered")
	h1, _ := d.Helices.Get(1)
	before := h1.Roll
	require.NoError(t, Apply(d, last))
	assert.NotEqual(t, before, h1.Roll)
	assert.Error(t, Apply(design.New(), last))
}

func TestCancelJob(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Start(ctx, twisted(t, 0.4).Snapshot(), Options{}).Wait()
	assert.True(t, errors.Is(err, context.Canceled))
	job := Start(context.Background(), twisted(t, 0.4).Snapshot(), Options{MaxSteps: 1 << 30, DT: 1e-9})
	<-job.States()
	job.Cancel()
	_, err = job.Wait()
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTangentOnCurvedHelix(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := design.New()
	h := design.NewCurvedHelix(&curve.Descriptor{
		Type:   "bezier",
		Points: [][3]float64{{0, 0, 0}, {5, 5, 0}, {10, 5, 3}, {15, 0, 3}},
	})
	require.NoError(t, h.UpdateCurve(d.Parameters, d.Discretization, nil))
	d.AddHelix(h)
	lo, hi, ok := h.CurveRange()
	require.True(t, ok)
	require.Greater(t, hi-lo, 20)
	sys, err := NewSystem(d, nil)
	require.NoError(t, err)
	const eps = 1e-6
	for _, n := range []design.Nucl{{Helix: 0, Position: lo + 5, Forward: true}, {Helix: 0, Position: hi - 8}} {
		tangent := sys.tangent(h, n)
		h.AddRoll(eps)
		p1 := h.SpacePos(d.Parameters, n.Position, n.Forward)
		h.AddRoll(-2 * eps)
		p0 := h.SpacePos(d.Parameters, n.Position, n.Forward)
		h.AddRoll(eps)
		want := r3.Scale(1/(2*eps*d.Parameters.HelixRadius), r3.Sub(p1, p0))
		if ensnano.Dist(want, tangent) > 1e-4 {
			t.Errorf("tangent at %v is %v, rolling the helix moves the nucleotide along %v", n, tangent, want)
		}
	}
}
