package design

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertionDesign holds helices 0, 1 and 2 and the strand with insertions
// on helices 1 and 2.
func insertionDesign(t *testing.T) (*Design, int) {
	d := New()
	for i := 0; i < 3; i++ {
		d.AddHelix(NewHelix(ensnano.V(0, float64(i)*d.Parameters.Spacing(), 0), ensnano.IdentityRotor()))
	}
	id, err := d.AddStrand(MustStrand(strandWithInsertions(), false, 0))
	require.NoError(t, err)
	return d, id
}

func TestReplaceInsertions(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d, id := insertionDesign(t)
	r, err := d.ReplaceInsertions()
	require.NoError(t, err)
	require.NoError(t, r.CheckConsistency())
	s, _ := d.Strands.Get(id)
	rs, _ := r.Strands.Get(id)
	assert.Equal(t, s.Len(), rs.Len())
	assert.False(t, rs.HasInsertions())
	assert.True(t, s.HasInsertions(), "the original design is unchanged")
	assert.Equal(t, 5, r.Helices.Len())
	assert.Equal(t, fwd(3, 0, 8), rs.Domains[1])
	assert.Equal(t, fwd(4, 0, 5), rs.Domains[3])
	// the new helix is next to the nucleotide before the insertion
	h1, _ := r.Helices.Get(1)
	h3, _ := r.Helices.Get(3)
	gap := ensnano.Dist(h1.SpacePos(r.Parameters, 3, true), h3.SpacePos(r.Parameters, 0, true))
	assert.InDelta(t, r.Parameters.InterHelixGap, gap, 1e-9)
}

func TestReplacePrime5Insertion(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	id, err := d.AddStrand(MustStrand([]Domain{ins(3), bwd(0, 0, 8)}, false, 0))
	require.NoError(t, err)
	r, err := d.ReplaceInsertions()
	require.NoError(t, err)
	rs, _ := r.Strands.Get(id)
	assert.Equal(t, bwd(1, -2, 1), rs.Domains[0])
	assert.Equal(t, 11, rs.Len())
}

func TestReplaceEmptyInsertion(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(NewHelix(ensnano.V(0, d.Parameters.Spacing(), 0), ensnano.IdentityRotor()))
	id, err := d.AddStrand(MustStrand([]Domain{fwd(0, 0, 4), ins(0), bwd(1, 0, 4)}, false, 0))
	require.NoError(t, err)
	s, _ := d.Strands.Get(id)
	assert.False(t, s.HasInsertions(), "an insertion without nucleotides is dropped")
	// an empty insertion slipped past sanitizing
	s.Domains = []Domain{fwd(0, 0, 4), ins(0), bwd(1, 0, 4)}
	s.Junctions = []Junction{{Kind: Adjacent}, {Kind: UnidentifiedXover}, {Kind: Prime3}}
	r, err := d.ReplaceInsertions()
	require.NoError(t, err)
	rs, _ := r.Strands.Get(id)
	assert.False(t, rs.HasInsertions())
	assert.Equal(t, []Domain{fwd(0, 0, 4), bwd(1, 0, 4)}, rs.Domains)
	assert.Equal(t, 2, r.Helices.Len(), "no helix for an empty insertion")
}

func TestReplaceDanglingInsertion(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := New()
	d.AddHelix(NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.Strands.Push(&Strand{Domains: []Domain{ins(3)}, Junctions: []Junction{{Kind: Prime3}}})
	_, err := d.ReplaceInsertions()
	assert.True(t, errors.Is(err, ErrInvariant), "insertion without a helix neighbour")
}

func TestInstantiateInsertions(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d, id := insertionDesign(t)
	_, err := d.AddStrand(MustStrand([]Domain{ins(3), fwd(0, 0, 8)}, false, 0))
	require.NoError(t, err)
	d.InstantiateInsertions()
	d.Strands.Each(func(sid int, s *Strand) {
		for _, dom := range s.Domains {
			ins, ok := dom.(Insertion)
			if !ok {
				continue
			}
			require.Len(t, ins.Instantiation, ins.NbNucl, "strand %d", sid)
			for _, pos := range ins.Instantiation {
				for _, c := range []float64{pos.X, pos.Y, pos.Z} {
					if math.IsNaN(c) || math.IsInf(c, 0) {
						t.Fatalf("strand %d: insertion nucleotide at %v", sid, pos)
					}
				}
			}
		}
	})
	s, _ := d.Strands.Get(id)
	h1, _ := d.Helices.Get(1)
	src := h1.SpacePos(d.Parameters, 3, true)
	first := s.Domains[1].(Insertion).Instantiation[0]
	assert.Less(t, ensnano.Dist(src, first), 3*d.Parameters.DistAC(), "first nucleotide close to its neighbour")
}
