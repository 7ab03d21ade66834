// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/symgraph/graph"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func allConstraints() []graph.Constraint {
	return []graph.Constraint{graph.Match, graph.Varying, graph.Ignore}
}

func TestSetTripleRequiresEndpoints(t *testing.T) {
	store := graph.NewStore()
	a := store.CreateSymbol(1)
	b := store.CreateSymbol(1)
	missing := graph.Symbol{Namespace: 1, Local: 99}
	expect.False(t, store.SetTriple(graph.Triple{a, b, missing}, true))
	expect.False(t, store.SetTriple(graph.Triple{missing, a, b}, true))
	// No partial state was written.
	all := store.QueryTriples(graph.Mask(graph.Varying, graph.Varying, graph.Varying), graph.Triple{})
	expect.EQ(t, len(all), 0)
	// Both endpoints are still releasable, i.e. their subindices are empty.
	expect.True(t, store.ReleaseSymbol(a))
	expect.True(t, store.ReleaseSymbol(b))
}

func TestLinkQueryUnlink(t *testing.T) {
	store := graph.NewStore()
	a := store.CreateSymbol(1)
	b := store.CreateSymbol(1)
	c := store.CreateSymbol(1)
	tr := graph.Triple{a, b, c}
	allVariable := graph.Mask(graph.Varying, graph.Varying, graph.Varying)

	expect.True(t, store.SetTriple(tr, true))
	expect.False(t, store.SetTriple(tr, true), "relinking an existing triple must report no change")
	expect.EQ(t, store.QueryTriples(allVariable, graph.Triple{}), []graph.Triple{tr})

	expect.True(t, store.SetTriple(tr, false))
	expect.False(t, store.SetTriple(tr, false), "re-unlinking must report no change")
	expect.EQ(t, len(store.QueryTriples(allVariable, graph.Triple{})), 0)

	// Unlinking emptied every subindex, so the endpoints release cleanly.
	expect.True(t, store.ReleaseSymbol(a))
	expect.True(t, store.ReleaseSymbol(b))
	expect.True(t, store.ReleaseSymbol(c))
}

func TestGroundQuery(t *testing.T) {
	store := graph.NewStore()
	a := store.CreateSymbol(1)
	b := store.CreateSymbol(2)
	c := store.CreateSymbol(3)
	tr := graph.Triple{a, b, c}
	require.True(t, store.SetTriple(tr, true))
	expect.EQ(t, store.QueryTriples(0, tr), []graph.Triple{tr})
	expect.EQ(t, store.QueryTriplesFlat(0, tr),
		[]graph.Identity{a.Namespace, a.Local, b.Namespace, b.Local, c.Namespace, c.Local})
	// A ground query for an absent triple is empty.
	expect.EQ(t, len(store.QueryTriples(0, graph.Triple{a, c, b})), 0)
}

func TestFixedAttributeQuery(t *testing.T) {
	store := graph.NewStore()
	a := store.CreateSymbol(1)
	b := store.CreateSymbol(2)
	c := store.CreateSymbol(3)
	require.True(t, store.SetTriple(graph.Triple{a, b, c}, true))
	got := store.QueryTriples(graph.Mask(graph.Varying, graph.Match, graph.Varying),
		graph.Triple{{}, b, {}})
	expect.EQ(t, got, []graph.Triple{{a, b, c}})
}

// Every mask that matches an inserted triple must report it exactly once
// when the triple itself is used as the placeholder.
func TestTripleVisibleUnderEveryMask(t *testing.T) {
	store := graph.NewStore()
	a := store.CreateSymbol(1)
	b := store.CreateSymbol(2)
	c := store.CreateSymbol(3)
	tr := graph.Triple{a, b, c}
	require.True(t, store.SetTriple(tr, true))
	for mask := graph.QueryMask(0); mask < graph.NumQueryMasks; mask++ {
		count := 0
		for _, got := range store.QueryTriples(mask, tr) {
			if got == tr {
				count++
			}
		}
		require.Equal(t, 1, count, "mask %d", mask)
	}
}

func TestQueryMaskOutOfRangePanics(t *testing.T) {
	store := graph.NewStore()
	require.Panics(t, func() { store.QueryTriples(graph.NumQueryMasks, graph.Triple{}) })
	require.Panics(t, func() { store.QueryTriples(-1, graph.Triple{}) })
}

// expectedMatches mirrors the query contract over a plain triple set:
// Match positions filter, Varying positions take the stored symbol,
// Ignore positions echo the placeholder.  Results deduplicate.
func expectedMatches(model map[graph.Triple]bool, constraints [3]graph.Constraint, placeholder graph.Triple) []graph.Triple {
	dedup := make(map[graph.Triple]bool)
	for stored := range model {
		matched := true
		for i := 0; i < 3; i++ {
			if constraints[i] == graph.Match && stored[i] != placeholder[i] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		out := placeholder
		for i := 0; i < 3; i++ {
			if constraints[i] == graph.Varying {
				out[i] = stored[i]
			}
		}
		dedup[out] = true
	}
	result := make([]graph.Triple, 0, len(dedup))
	for tr := range dedup {
		result = append(result, tr)
	}
	return result
}

// Randomized cross-check of all 27 query shapes against a brute-force
// model, through link and unlink churn.
func TestQueryMasksExhaustive(t *testing.T) {
	nIter := 30
	nOps := 60
	for iter := 0; iter < nIter; iter++ {
		store := graph.NewStore()
		var universe []graph.Symbol
		for ns := graph.Identity(1); ns <= 3; ns++ {
			for i := 0; i < 3; i++ {
				universe = append(universe, store.CreateSymbol(ns))
			}
		}
		randSymbol := func() graph.Symbol { return universe[rand.Intn(len(universe))] }
		model := make(map[graph.Triple]bool)
		for op := 0; op < nOps; op++ {
			tr := graph.Triple{randSymbol(), randSymbol(), randSymbol()}
			linked := rand.Intn(3) > 0 // bias toward linking
			require.Equal(t, model[tr] != linked, store.SetTriple(tr, linked), "op %d", op)
			if linked {
				model[tr] = true
			} else {
				delete(model, tr)
			}

			placeholder := graph.Triple{randSymbol(), randSymbol(), randSymbol()}
			for _, e := range allConstraints() {
				for _, a := range allConstraints() {
					for _, v := range allConstraints() {
						constraints := [3]graph.Constraint{e, a, v}
						want := expectedMatches(model, constraints, placeholder)
						got := store.QueryTriples(graph.Mask(e, a, v), placeholder)
						require.ElementsMatch(t, want, got, "op %d constraints %v", op, constraints)
					}
				}
			}
		}
	}
}
