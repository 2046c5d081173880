package design

import (
	"errors"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoStrandDesign has helices 0 and 1, a forward strand on helix 0 and a
// backward strand on helix 1, both covering positions 0..9.
func twoStrandDesign(t *testing.T) *Design {
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, d.Parameters.Spacing(), 0), ensnano.IdentityRotor()))
	_, err := d.AddStrand(MustStrand([]Domain{fwd(0, 0, 10)}, false, 0))
	require.NoError(t, err)
	_, err = d.AddStrand(MustStrand([]Domain{bwd(1, 0, 10)}, false, 0))
	require.NoError(t, err)
	return d
}

func TestAddStrandChecksHelices(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	_, err := d.AddStrand(MustStrand([]Domain{fwd(7, 0, 10)}, false, 0))
	assert.True(t, errors.Is(err, ErrNoSuchHelix))
	id, err := d.AddStrand(MustStrand([]Domain{fwd(0, 10, 20), bwd(1, 10, 20)}, false, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	s, _ := d.Strands.Get(id)
	assert.Equal(t, Xover(0), s.Junctions[0])
	assert.NoError(t, d.CheckConsistency())
}

func TestAddAndDeleteXover(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	p5, p3 := Nucl{0, 4, true}, Nucl{1, 4, false}
	id, err := d.AddXover(p5, p3)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, 3, d.Strands.Len())
	s, _ := d.Strands.Get(0)
	assert.Equal(t, []Domain{fwd(0, 0, 5), bwd(1, 0, 5)}, s.Domains)
	assert.Equal(t, []Junction{Xover(0), {Kind: Prime3}}, s.Junctions)
	pair, ok := d.Xovers.Get(0)
	require.True(t, ok)
	assert.Equal(t, XoverPair{p5, p3}, pair)
	//
	require.NoError(t, d.DeleteXover(id))
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, 0, d.Xovers.Len())
	assert.Equal(t, 4, d.Strands.Len())
	assert.True(t, errors.Is(d.DeleteXover(id), ErrNoSuchXover))
	// ids are never reused
	id, err = d.AddXover(p5, p3)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.NoError(t, d.CheckConsistency())
}

func TestAddXoverRejectsNeighbours(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	_, err := d.AddXover(Nucl{0, 4, true}, Nucl{0, 5, true})
	assert.Error(t, err)
	_, err = d.AddXover(Nucl{0, 4, true}, Nucl{1, 40, false})
	assert.True(t, errors.Is(err, ErrNoSuchNucl))
	assert.Equal(t, 2, d.Strands.Len(), "a failed edit leaves the design unchanged")
	assert.NoError(t, d.CheckConsistency())
}

func TestMergeIntoCycle(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	require.NoError(t, d.MergeStrands(0, 1))
	require.NoError(t, d.SetScaffold(0))
	require.NoError(t, d.MergeStrands(0, 0))
	require.NoError(t, d.CheckConsistency())
	s, _ := d.Scaffold()
	assert.True(t, s.Cyclic)
	assert.Equal(t, 2, d.Xovers.Len())
	assert.Equal(t, []int{0, 1}, d.Xovers.IDs())
	// opening the cycle keeps the id of the strand and the other crossover
	id, err := d.SplitStrand(Nucl{0, 9, true})
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, []int{1}, d.Xovers.IDs())
	s, _ = d.Strands.Get(0)
	assert.False(t, s.Cyclic)
	p5, _ := s.Prime5End()
	assert.Equal(t, Nucl{1, 9, false}, p5)
}

func TestMergeMovesScaffold(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	require.NoError(t, d.SetScaffold(1))
	require.NoError(t, d.MergeStrands(0, 1))
	require.NotNil(t, d.ScaffoldID)
	assert.Equal(t, 0, *d.ScaffoldID)
	assert.True(t, errors.Is(d.MergeStrands(0, 1), ErrNoSuchStrand))
}

func TestSplitKeepsXoverIDs(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, 3, 0), ensnano.IdentityRotor()))
	_, err := d.AddStrand(MustStrand([]Domain{fwd(0, 0, 8), bwd(1, 0, 8), fwd(0, 8, 16)}, false, 0))
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, d.Xovers.IDs())
	newID, err := d.SplitStrand(Nucl{1, 4, false})
	require.NoError(t, err)
	require.NoError(t, d.CheckConsistency())
	a, _ := d.Strands.Get(0)
	b, _ := d.Strands.Get(newID)
	assert.Equal(t, Xover(0), a.Junctions[0])
	assert.Equal(t, Xover(1), b.Junctions[0])
	_, err = d.SplitStrand(Nucl{0, 15, true})
	assert.Error(t, err, "3' end")
}

func TestDeleteDomain(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, 3, 0), ensnano.IdentityRotor()))
	sid, err := d.AddStrand(MustStrand([]Domain{fwd(0, 0, 8), bwd(1, 0, 8), fwd(0, 8, 16)}, false, 0))
	require.NoError(t, err)
	require.NoError(t, d.SetScaffold(sid))
	require.NoError(t, d.DeleteDomain(sid, 1))
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, 2, d.Strands.Len())
	assert.Equal(t, 0, d.Xovers.Len())
	a, _ := d.Strands.Get(sid)
	assert.Equal(t, []Domain{fwd(0, 0, 8)}, a.Domains)
	assert.True(t, errors.Is(d.DeleteDomain(sid, 3), ErrNotFound))
	require.NoError(t, d.DeleteDomain(sid, 0))
	assert.Nil(t, d.ScaffoldID)
	assert.Equal(t, 1, d.Strands.Len())
}

func TestDeleteDomainKeepsSequence(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, 3, 0), ensnano.IdentityRotor()))
	s := MustStrand([]Domain{fwd(0, 0, 4), bwd(1, 0, 2), fwd(0, 4, 7)}, false, 0)
	s.Sequence, s.Name = "AAAAGGCCC", "kept"
	sid, err := d.AddStrand(s)
	require.NoError(t, err)
	require.NoError(t, d.DeleteDomain(sid, 1))
	require.NoError(t, d.CheckConsistency())
	seqs := map[int]string{}
	d.Strands.Each(func(id int, s *Strand) {
		assert.Equal(t, "kept", s.Name)
		seqs[s.Domains[0].(HelixInterval).Start] = s.Sequence
	})
	assert.Equal(t, map[int]string{0: "AAAA", 4: "CCC"}, seqs)
}

func TestDeleteDomainOfCycleKeepsSequence(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, 3, 0), ensnano.IdentityRotor()))
	s := MustStrand([]Domain{fwd(0, 0, 2), bwd(1, 0, 3), fwd(0, 2, 4)}, false, 0)
	s.Sequence = "AATTTCC"
	sid, err := d.AddStrand(s)
	require.NoError(t, err)
	require.NoError(t, d.MergeStrands(sid, sid))
	require.NoError(t, d.DeleteDomain(sid, 1))
	c, _ := d.Strands.Get(sid)
	assert.False(t, c.Cyclic)
	assert.Equal(t, "CCAA", c.Sequence, "the 3' part comes first once the cycle is opened")
}

func TestDeleteDomainOfCycle(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	require.NoError(t, d.MergeStrands(0, 1))
	require.NoError(t, d.MergeStrands(0, 0))
	require.NoError(t, d.DeleteDomain(0, 0))
	require.NoError(t, d.CheckConsistency())
	s, _ := d.Strands.Get(0)
	assert.False(t, s.Cyclic)
	assert.Equal(t, []Domain{bwd(1, 0, 10)}, s.Domains)
	assert.Equal(t, 0, d.Xovers.Len())
}

func TestDeleteStrand(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	_, err := d.AddXover(Nucl{0, 4, true}, Nucl{1, 4, false})
	require.NoError(t, err)
	require.NoError(t, d.DeleteStrand(0))
	assert.Equal(t, 0, d.Xovers.Len())
	assert.NoError(t, d.CheckConsistency())
	assert.True(t, errors.Is(d.DeleteStrand(0), ErrNoSuchStrand))
}

func TestAddInsertion(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	id, err := d.AddXover(Nucl{0, 4, true}, Nucl{1, 4, false})
	require.NoError(t, err)
	require.NoError(t, d.AddInsertion(Nucl{0, 4, true}, 3))
	require.NoError(t, d.CheckConsistency())
	s, _ := d.Strands.Get(0)
	assert.Equal(t, []Domain{fwd(0, 0, 5), ins(3), bwd(1, 0, 5)}, s.Domains)
	assert.Equal(t, Xover(id), s.Junctions[1], "the crossover keeps its id")
	require.NoError(t, d.AddInsertion(Nucl{0, 1, true}, 2))
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, 13, s.Len(), "the stored strand is replaced, not edited")
	s, _ = d.Strands.Get(0)
	assert.Equal(t, 15, s.Len())
}
