package shift

import (
	"context"
	"errors"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairedDesign has a scaffold on helix 0 → 0..11 and one staple covering
// it completely on the backward strand.
func pairedDesign(t *testing.T, seq string) *design.Design {
	d := design.New()
	d.AddHelix(design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	sc, err := d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 12, Forward: true},
	}, false, 0))
	require.NoError(t, err)
	_, err = d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 12, Forward: false},
	}, false, 0))
	require.NoError(t, err)
	require.NoError(t, d.SetScaffold(sc))
	d.ScaffoldSequence = seq
	return d
}

func TestCountPatterns(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	c := CountPatterns("CCCCCC")
	assert.Equal(t, Counts{G4: 1, G5: 1, G6: 1}, c)
	assert.Equal(t, 1010100, c.Score())
	assert.Equal(t, "1 times G^6 or C^6\n1 times G^5 or C^5\n1 times G^4 or C^4\n", c.Report())
	assert.Equal(t, 2, CountPatterns("ATATATATATATAT").AT, "a run of 14 counts twice")
	assert.Equal(t, 2, CountPatterns("GGGGGGGG").G4)
	assert.Equal(t, 0, CountPatterns("AAAAAA??A").AT, "unknown bases break runs")
	assert.Equal(t, "No bad pattern", Counts{}.Report())
	assert.Equal(t, "3 times (A or T)^7\n", Counts{AT: 3}.Report())
	big := Counts{G4: 120}
	assert.Equal(t, "120 times G^4 or C^4\n", big.Report())
}

func TestOptimizerErrors(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := pairedDesign(t, "")
	_, err := NewOptimizer(d)
	assert.True(t, errors.Is(err, ErrEmptyScaffoldSequence))
	d.ScaffoldSequence = "ACGT"
	missing := 7
	d.ScaffoldID = &missing
	_, err = NewOptimizer(d)
	assert.True(t, errors.Is(err, ErrStrandDoesNotExist))
	d.ScaffoldID = nil
	_, err = NewOptimizer(d)
	assert.True(t, errors.Is(err, ErrNoScaffoldSet))
}

func TestEvaluateShift(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	o, err := NewOptimizer(pairedDesign(t, "CCCCCCATATAT"))
	require.NoError(t, err)
	// staple ATATATGGGGGG
	assert.Equal(t, 1010100, o.Evaluate(0).Score())
	// scaffold CCATATATCCCC
	assert.Equal(t, Counts{G4: 1}, o.Evaluate(8))
	// scaffold CCCATATATCCC
	assert.Equal(t, 0, o.Evaluate(9).Score())
}

func TestRunStopsAtZero(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	o, err := NewOptimizer(pairedDesign(t, "CCCCCCATATAT"))
	require.NoError(t, err)
	var progress []float64
	res, err := o.Run(context.Background(), 1, func(f float64) {
		progress = append(progress, f)
	})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Shift)
	assert.Equal(t, 0, res.Score())
	assert.Equal(t, "No bad pattern", res.Report())
	require.Len(t, progress, 10, "shifts after the first zero are not tried")
	assert.InDelta(t, 9.0/12.0, progress[9], 1e-12)
}

func TestRunKeepsBestShift(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	o, err := NewOptimizer(pairedDesign(t, "GGGGGGGGGGGG"))
	require.NoError(t, err)
	calls := 0
	res, err := o.Run(context.Background(), 5, func(float64) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shift, "all shifts are equal, the first one wins")
	assert.Equal(t, Counts{G4: 3, G5: 1, G6: 1}, res.Counts)
	assert.Equal(t, 3, calls)
	for s := 0; s < o.Len(); s++ {
		if o.Evaluate(s).Score() < res.Score() {
			t.Errorf("shift %d scores better than the result", s)
		}
	}
}

func TestJob(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := pairedDesign(t, "cccccctatata")
	snap := d.Snapshot()
	job := Start(context.Background(), snap, 1)
	res := job.Wait()
	require.NoError(t, res.Err)
	assert.Equal(t, snap.ID, res.Design)
	assert.Equal(t, 0, res.Score())
	require.NoError(t, Apply(d, res))
	assert.Equal(t, res.Shift, d.ScaffoldShift)
	_, open := <-job.Result()
	assert.False(t, open, "one result only")
}

func TestJobErrors(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := pairedDesign(t, "")
	res := Start(context.Background(), d.Snapshot(), 0).Wait()
	assert.True(t, errors.Is(res.Err, ErrEmptyScaffoldSequence))
	assert.Error(t, Apply(d, res))
	//
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = Start(ctx, pairedDesign(t, "ACGT").Snapshot(), 0).Wait()
	assert.True(t, errors.Is(res.Err, context.Canceled))
}
