package jhobby

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func mustSolve(t *testing.T, path *Path) *Spline {
	t.Helper()
	sp, err := Solve(path)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return sp
}

func circlePath() *Path {
	return Open().Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 2)).
		Knot(ensnano.P(3, 1)).Knot(ensnano.P(2, 0)).Cycle()
}

func near(p, q ensnano.Pair, tol float64) bool {
	return (p - q).Abs() <= tol
}

func TestCreatePath(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := Open().Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 2)).Knot(ensnano.P(3, 1)).End()
	if path.N() != 3 || path.IsCycle() {
		t.Fatalf("expected open path of 3 knots, got %d knots, cycle=%v", path.N(), path.IsCycle())
	}
}

func TestAsStringSnapshots(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	openPath := Open().Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 2)).Knot(ensnano.P(3, 1)).End()
	if got, want := openPath.String(), "(1,1) .. (2,2) .. (3,1)"; got != want {
		t.Fatalf("open path string mismatch:\n got: %s\nwant: %s", got, want)
	}
	if got, want := circlePath().String(), "(1,1) .. (2,2) .. (3,1) .. (2,0) .. cycle"; got != want {
		t.Fatalf("cycle string mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestCircleControls(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	sp := mustSolve(t, circlePath())
	t.Logf("spline = %s", sp)
	if sp.N() != 4 {
		t.Fatalf("expected 4 segments, got %d", sp.N())
	}
	const tol = 2e-4
	if c := sp.PostControl(0); !near(c, ensnano.P(1, 1.5523), tol) {
		t.Errorf("post control 0 = %s", c)
	}
	if c := sp.PreControl(0); !near(c, ensnano.P(1.4477, 2), tol) {
		t.Errorf("pre control 1 = %s", c)
	}
	if c := sp.PostControl(2); !near(c, ensnano.P(3, 0.4477), tol) {
		t.Errorf("post control 2 = %s", c)
	}
	// close to the unit circle around (2,1)
	for _, p := range sp.Sample(40) {
		assert.InDelta(t, 1.0, (p - ensnano.P(2, 1)).Abs(), 1e-3)
	}
	assert.InDelta(t, 2*math.Pi, sp.Length(64), 1e-2)
}

func TestOpenPathSymmetry(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	sp := mustSolve(t, Open().Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 2)).Knot(ensnano.P(3, 1)).End())
	post, pre := sp.PostControl(0), sp.PreControl(1)
	assert.InDelta(t, 1.0, post.X(), 1e-6, "start leaves vertically")
	assert.InDelta(t, 3.0, pre.X(), 1e-6, "end arrives vertically")
	assert.InDelta(t, post.Y(), pre.Y(), 1e-6)
	assert.True(t, near(sp.Point(0.5), ensnano.P(2, 2), 1e-9))
	assert.True(t, near(sp.Point(1), ensnano.P(3, 1), 1e-9))
}

func TestTwoKnotsIsStraight(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	sp := mustSolve(t, Open().Knot(ensnano.P(0, 0)).Knot(ensnano.P(3, 0)).End())
	assert.True(t, near(sp.PostControl(0), ensnano.P(1, 0), 1e-6), "got %s", sp.PostControl(0))
	assert.True(t, near(sp.PreControl(0), ensnano.P(2, 0), 1e-6), "got %s", sp.PreControl(0))
}

func TestDirectionKnot(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	sp := mustSolve(t, Open().DirKnot(ensnano.P(0, 0), ensnano.P(0, 1)).Knot(ensnano.P(2, 0)).End())
	d := sp.PostControl(0) - sp.Knot(0)
	assert.InDelta(t, 0.0, d.X(), 1e-6)
	assert.Greater(t, d.Y(), 0.0)
}

func TestTensionClamped(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := Open().Knot(ensnano.P(0, 0)).Tension(10, 0.1).Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 0)).End()
	k := path.Knots()
	assert.Equal(t, 4.0, k[0].TensionOut)
	assert.Equal(t, 0.75, k[1].TensionIn)
	assert.Equal(t, 1.0, k[2].TensionIn)
	tight := mustSolve(t, path)
	loose := mustSolve(t, Open().Knot(ensnano.P(0, 0)).Knot(ensnano.P(1, 1)).Knot(ensnano.P(2, 0)).End())
	if (tight.PostControl(0)-tight.Knot(0)).Abs() >= (loose.PostControl(0)-loose.Knot(0)).Abs() {
		t.Errorf("higher tension should pull the control point towards the knot")
	}
}

func TestValidation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cases := []struct {
		path *Path
		err  error
	}{
		{Open().Knot(ensnano.P(0, 0)).End(), ErrTooFewKnots},
		{Open().Knot(ensnano.P(0, 0)).Knot(ensnano.P(1, 0)).Cycle(), ErrTooFewKnots},
		{Open().Knot(ensnano.P(0, 0)).Knot(ensnano.P(math.NaN(), 0)).End(), ErrInvalidKnot},
		{Open().Knot(ensnano.P(0, 0)).Knot(ensnano.P(0, 0)).Knot(ensnano.P(1, 0)).End(), ErrDegenerateSegment},
	}
	for i, c := range cases {
		if _, err := Solve(c.path); !errors.Is(err, c.err) {
			t.Errorf("case %d: expected %v, got %v", i, c.err, err)
		}
	}
}
