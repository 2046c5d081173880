package suggest

import (
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fwd(h, start, end int) design.HelixInterval {
	return design.HelixInterval{Helix: h, Start: start, End: end, Forward: true}
}

// neighbours holds helix 0 and its ideal neighbour for position 5, so that
// 0:5→ faces 1:0→ at the inter-helix gap.
func neighbours(t *testing.T, strands ...[]design.Domain) *design.Design {
	d := design.New()
	d.Parameters = design.LegacyENSnano
	h0 := design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor())
	d.AddHelix(h0)
	d.AddHelix(h0.IdealNeighbour(d.Parameters, 5, true))
	for _, domains := range strands {
		_, err := d.AddStrand(design.MustStrand(domains, false, 0))
		require.NoError(t, err)
	}
	return d
}

func checkSuggestions(t *testing.T, sugg []Suggestion) {
	seen := make(map[design.Nucl]bool)
	for i, s := range sugg {
		if s.Blue.Helix == s.Red.Helix {
			t.Errorf("suggestion %d on a single helix", i)
		}
		if s.Dist >= CubeSide {
			t.Errorf("suggestion %d too long: %g", i, s.Dist)
		}
		if seen[s.Blue] || seen[s.Red] {
			t.Errorf("suggestion %d reuses a nucleotide", i)
		}
		seen[s.Blue], seen[s.Red] = true, true
	}
}

func TestCubes(t *testing.T) {
	assert.Equal(t, cube{0, -1, 2}, cubeOf(ensnano.V(1.1, -0.1, 2.5)))
	assert.Equal(t, 0, cubeComparator(cube{1, 2, 3}, cube{1, 2, 3}))
	assert.Equal(t, -1, cubeComparator(cube{1, 2, 3}, cube{1, 3, 0}))
	assert.Equal(t, 1, cubeComparator(cube{2, 0, 0}, cube{1, 9, 9}))
}

func TestClosestPairFirst(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := neighbours(t, []design.Domain{fwd(0, 0, 10)}, []design.Domain{fwd(1, -5, 5)})
	sg := New(d, Groups{0: true, 1: false}, DefaultParameters())
	candidates := sg.Candidates()
	require.NotEmpty(t, candidates)
	for i := 1; i < len(candidates); i++ {
		if candidates[i-1].Dist > candidates[i].Dist {
			t.Fatalf("candidates not sorted at %d", i)
		}
	}
	first := candidates[0]
	assert.Equal(t, design.Nucl{Helix: 0, Position: 5, Forward: true}, first.Blue)
	assert.Equal(t, design.Nucl{Helix: 1, Position: 0, Forward: true}, first.Red)
	assert.InDelta(t, d.Parameters.InterHelixGap, first.Dist, 1e-9)
	sugg := sg.Suggestions()
	checkSuggestions(t, sugg)
	assert.Equal(t, first, sugg[0])
	for _, s := range sugg {
		assert.Equal(t, 0, s.Blue.Helix, "blue nucleotides are on helix 0")
	}
}

func TestGroups(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := neighbours(t, []design.Domain{fwd(0, 0, 10)}, []design.Domain{fwd(1, -5, 5)})
	assert.Empty(t, Suggest(d, nil, DefaultParameters()), "no groups, no suggestion")
	assert.Empty(t, Suggest(d, Groups{0: true, 1: true}, DefaultParameters()), "no red nucleotides")
	params := DefaultParameters()
	params.IgnoreGroups = true
	sugg := Suggest(d, nil, params)
	require.NotEmpty(t, sugg)
	checkSuggestions(t, sugg)
	assert.Equal(t, design.Nucl{Helix: 0, Position: 5, Forward: true}, sugg[0].Blue)
	grouped := Suggest(d, Groups{0: true, 1: false}, DefaultParameters())
	assert.Equal(t, len(grouped), len(sugg))
}

func TestFilters(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	groups := Groups{0: true, 1: false}
	d := neighbours(t, []design.Domain{fwd(0, 0, 10)}, []design.Domain{fwd(1, -5, 5)})
	require.NoError(t, d.SetScaffold(0))
	assert.NotEmpty(t, Suggest(d, groups, DefaultParameters()))
	assert.Empty(t, Suggest(d, groups, Parameters{}), "scaffold excluded")
	//
	d = neighbours(t, []design.Domain{fwd(0, 0, 10), fwd(1, -5, 5)})
	assert.Empty(t, Suggest(d, groups, Parameters{IncludeScaffold: true}), "single strand")
	sugg := Suggest(d, groups, DefaultParameters())
	require.NotEmpty(t, sugg)
	xoverEnds := []design.Nucl{{Helix: 0, Position: 9, Forward: true}, {Helix: 1, Position: -5, Forward: true}}
	for _, s := range sugg {
		for _, n := range xoverEnds {
			if s.Blue == n || s.Red == n {
				t.Errorf("crossover end %v suggested", n)
			}
		}
	}
}
