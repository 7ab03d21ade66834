// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

// The dispatch tables are a binary contract; these literals are the
// reference contents.
func TestLookupTableContents(t *testing.T) {
	expect.EQ(t, indexLookup, [NumQueryMasks]int{
		orderEAV, orderAVE, orderAVE,
		orderVEA, orderVEA, orderVAE,
		orderVEA, orderVEA, orderVEA,
		orderEAV, orderAVE, orderAVE,
		orderEAV, orderEAV, orderAVE,
		orderEVA, orderVEA, orderVEA,
		orderEAV, orderAEV, orderAVE,
		orderEAV, orderEAV, orderAVE,
		orderEAV, orderEAV, orderEAV,
	})
	expect.EQ(t, searchLookup, [NumQueryMasks]int{
		searchMMM, searchMMV, searchMMI,
		searchMMV, searchMVV, searchMVI,
		searchMMI, searchMVI, searchMII,
		searchMMV, searchMVV, searchMVI,
		searchMVV, searchVVV, searchVVI,
		searchMVI, searchVVI, searchVII,
		searchMMI, searchMVI, searchMII,
		searchMVI, searchVVI, searchVII,
		searchMII, searchVII, searchIII,
	})
	expect.EQ(t, triplePrioritized, triplePermutation{
		{0, 1, 2, 0, 1, 2},
		{1, 2, 0, 2, 0, 1},
		{2, 0, 1, 1, 2, 0},
	})
	expect.EQ(t, tripleNormalized, triplePermutation{
		{0, 2, 1, 0, 1, 2},
		{1, 0, 2, 2, 0, 1},
		{2, 1, 0, 1, 2, 0},
	})
}

// triplePrioritized and tripleNormalized must be inverses per ordering.
func TestPermutationsAreInverses(t *testing.T) {
	probe := Triple{
		{Namespace: 1, Local: 10},
		{Namespace: 2, Local: 20},
		{Namespace: 3, Local: 30},
	}
	for order := 0; order < numOrders; order++ {
		expect.EQ(t, reorderTriple(&tripleNormalized, order, reorderTriple(&triplePrioritized, order, probe)), probe)
		expect.EQ(t, reorderTriple(&triplePrioritized, order, reorderTriple(&tripleNormalized, order, probe)), probe)
	}
}

// The chosen ordering of every mask must place Match positions before
// Varying positions and Varying before Ignore, so the search procedure
// letters line up with the subindex layout.
func TestIndexLookupPlacesKnownPositionsFirst(t *testing.T) {
	for mask := 0; mask < NumQueryMasks; mask++ {
		constraints := [3]Constraint{
			Constraint(mask % 3),
			Constraint(mask / 3 % 3),
			Constraint(mask / 9 % 3),
		}
		order := indexLookup[mask]
		prev := -1
		for pos := 0; pos < 3; pos++ {
			cur := int(constraints[triplePrioritized[pos][order]])
			if cur < prev {
				t.Errorf("mask %d: ordering %d leaves constraint %d after %d", mask, order, cur, prev)
			}
			prev = cur
		}
	}
}
