// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/symgraph/identity"
)

// Subindex orderings.  The first position is the pivot symbol the
// subindex hangs off, the second is the beta key, the third the gamma set
// member.  The first three are the forward rotations of [E, A, V], the
// last three their reversals.
const (
	orderEAV = iota
	orderAVE
	orderVEA
	orderEVA
	orderAEV
	orderVAE
	numOrders
)

// Constraint describes how one triple position participates in a query.
type Constraint int

const (
	// Match requires the position to equal the placeholder symbol.
	Match Constraint = iota
	// Varying enumerates every symbol at the position.
	Varying
	// Ignore marginalises the position away.
	Ignore
)

// QueryMask selects one of the 27 triple query shapes.  It is the base-3
// encoding of the per-position constraints, entity digit least
// significant.
type QueryMask int

// NumQueryMasks is the number of distinct query shapes.
const NumQueryMasks = 27

// Mask combines per-position constraints into a QueryMask.
func Mask(entity, attribute, value Constraint) QueryMask {
	return QueryMask(entity) + 3*QueryMask(attribute) + 9*QueryMask(value)
}

// Query procedures, named after the roles of the pivot, beta and gamma
// positions in the chosen ordering: Match / Variable / Ignore.
const (
	searchMMM = iota
	searchMMI
	searchMII
	searchIII
	searchMMV
	searchMVV
	searchMVI
	searchVII
	searchVVI
	searchVVV
)

// indexLookup maps a query mask to the subindex ordering that places the
// known positions earliest.  Part of the binary contract; do not reorder.
var indexLookup = [NumQueryMasks]int{
	orderEAV, orderAVE, orderAVE,
	orderVEA, orderVEA, orderVAE,
	orderVEA, orderVEA, orderVEA,
	orderEAV, orderAVE, orderAVE,
	orderEAV, orderEAV, orderAVE,
	orderEVA, orderVEA, orderVEA,
	orderEAV, orderAEV, orderAVE,
	orderEAV, orderEAV, orderAVE,
	orderEAV, orderEAV, orderEAV,
}

// searchLookup maps a query mask to the procedure run over the chosen
// ordering.  Part of the binary contract; do not reorder.
var searchLookup = [NumQueryMasks]int{
	searchMMM, searchMMV, searchMMI,
	searchMMV, searchMVV, searchMVI,
	searchMMI, searchMVI, searchMII,
	searchMMV, searchMVV, searchMVI,
	searchMVV, searchVVV, searchVVI,
	searchMVI, searchVVI, searchVII,
	searchMMI, searchMVI, searchMII,
	searchMVI, searchVVI, searchVII,
	searchMII, searchVII, searchIII,
}

// triplePermutation maps triple positions per ordering; column i holds
// the source position of each output position for ordering i.
type triplePermutation [3][numOrders]int

// triplePrioritized maps a caller-supplied EAV triple into a chosen
// ordering; tripleNormalized maps it back.  They are inverses per
// ordering and part of the binary contract.
var triplePrioritized = triplePermutation{
	{0, 1, 2, 0, 1, 2},
	{1, 2, 0, 2, 0, 1},
	{2, 0, 1, 1, 2, 0},
}

var tripleNormalized = triplePermutation{
	{0, 2, 1, 0, 1, 2},
	{1, 0, 2, 2, 0, 1},
	{2, 1, 0, 1, 2, 0},
}

func reorderTriple(perm *triplePermutation, order int, t Triple) Triple {
	return Triple{t[perm[0][order]], t[perm[1][order]], t[perm[2][order]]}
}

// setSubindex links or unlinks one (beta, gamma) edge, pruning empty
// gamma sets so that key presence always implies a nonempty set.  It
// returns whether the subindex changed.
func setSubindex(index betaIndex, beta, gamma Symbol, linked bool) bool {
	gammas, ok := index[beta]
	if linked {
		if !ok {
			gammas = make(gammaSet)
			index[beta] = gammas
		} else if _, dup := gammas[gamma]; dup {
			return false
		}
		gammas[gamma] = struct{}{}
		return true
	}
	if !ok {
		return false
	}
	if _, present := gammas[gamma]; !present {
		return false
	}
	delete(gammas, gamma)
	if len(gammas) == 0 {
		delete(index, beta)
	}
	return true
}

// SetTriple links (linked=true) or unlinks (linked=false) t across all
// six subindices as one atomic operation.  All three endpoints must
// already exist; otherwise nothing is written and false is returned.  The
// result reports whether any subindex changed, i.e. whether the triple
// was new (respectively, present).
func (s *Store) SetTriple(t Triple, linked bool) bool {
	for i := 0; i < 3; i++ {
		if s.symbolHandle(t[i]) == nil {
			return false
		}
	}
	changed := false
	for i := 0; i < 3; i++ {
		handle := s.symbolHandle(t[i])
		if setSubindex(handle.subindices[i], t[(i+1)%3], t[(i+2)%3], linked) {
			changed = true
		}
		if setSubindex(handle.subindices[i+3], t[(i+2)%3], t[(i+1)%3], linked) {
			changed = true
		}
	}
	return changed
}

// QueryTriples returns every triple matching the placeholder t under
// mask, in EAV order.  Positions marked Match must hold the symbol to
// match; Varying and Ignore positions of the placeholder are echoed into
// the corresponding positions of non-enumerated results.
func (s *Store) QueryTriples(mask QueryMask, t Triple) []Triple {
	if mask < 0 || mask >= NumQueryMasks {
		log.Panicf("graph: query mask %d out of range", mask)
	}
	order := indexLookup[mask]
	t = reorderTriple(&triplePrioritized, order, t)
	var result []Triple
	emit := func(t Triple) {
		result = append(result, reorderTriple(&tripleNormalized, order, t))
	}
	switch searchLookup[mask] {
	case searchMMM:
		if handle := s.symbolHandle(t[0]); handle != nil {
			if _, ok := handle.subindices[order][t[1]][t[2]]; ok {
				emit(t)
			}
		}
	case searchMMI:
		if handle := s.symbolHandle(t[0]); handle != nil {
			if _, ok := handle.subindices[order][t[1]]; ok {
				emit(t)
			}
		}
	case searchMII:
		if handle := s.symbolHandle(t[0]); handle != nil && len(handle.subindices[order]) > 0 {
			emit(t)
		}
	case searchIII:
	scan:
		for _, nsHandle := range s.namespaces {
			for _, handle := range nsHandle.symbols {
				if len(handle.subindices[order]) > 0 {
					emit(t)
					break scan
				}
			}
		}
	case searchMMV:
		if handle := s.symbolHandle(t[0]); handle != nil {
			for gamma := range handle.subindices[order][t[1]] {
				t[2] = gamma
				emit(t)
			}
		}
	case searchMVV:
		if handle := s.symbolHandle(t[0]); handle != nil {
			for beta, gammas := range handle.subindices[order] {
				t[1] = beta
				for gamma := range gammas {
					t[2] = gamma
					emit(t)
				}
			}
		}
	case searchMVI:
		if handle := s.symbolHandle(t[0]); handle != nil {
			for beta := range handle.subindices[order] {
				t[1] = beta
				emit(t)
			}
		}
	case searchVII:
		for ns, nsHandle := range s.namespaces {
			for local, handle := range nsHandle.symbols {
				if len(handle.subindices[order]) == 0 {
					continue
				}
				t[0] = Symbol{Namespace: ns, Local: local}
				emit(t)
			}
		}
	case searchVVI:
		for ns, nsHandle := range s.namespaces {
			for local, handle := range nsHandle.symbols {
				t[0] = Symbol{Namespace: ns, Local: local}
				for beta := range handle.subindices[order] {
					t[1] = beta
					emit(t)
				}
			}
		}
	case searchVVV:
		for ns, nsHandle := range s.namespaces {
			for local, handle := range nsHandle.symbols {
				t[0] = Symbol{Namespace: ns, Local: local}
				for beta, gammas := range handle.subindices[order] {
					t[1] = beta
					for gamma := range gammas {
						t[2] = gamma
						emit(t)
					}
				}
			}
		}
	}
	return result
}

// QueryTriplesFlat returns the same matches as QueryTriples flattened to
// identity words, six per triple: namespace and local identity of the
// entity, attribute and value in turn.
func (s *Store) QueryTriplesFlat(mask QueryMask, t Triple) []identity.Identity {
	triples := s.QueryTriples(mask, t)
	result := make([]identity.Identity, 0, 6*len(triples))
	for _, match := range triples {
		for i := 0; i < 3; i++ {
			result = append(result, match[i].Namespace, match[i].Local)
		}
	}
	return result
}
