// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package identity

import (
	"sort"

	"golang.org/x/exp/slices"
)

// RangePool keeps the finite reclaimed ranges in a sorted slice.  All
// mutations are O(log R) searches plus O(R) slice surgery; R stays small in
// practice because adjacent ranges merge eagerly.
type RangePool struct {
	// reclaimed holds the finite free ranges below next, sorted by Begin,
	// pairwise disjoint, each separated from its neighbors and from next by
	// at least one allocated identifier.
	reclaimed []Range
	// next is the lowest identifier never yet issued.
	next Identity
}

// NewRangePool returns a pool with every identifier free.
func NewRangePool() *RangePool {
	return &RangePool{}
}

// Get implements Pool.
func (p *RangePool) Get() Identity {
	return p.next
}

// Full implements Pool.
func (p *RangePool) Full() bool {
	return len(p.reclaimed) == 0 && p.next == 0
}

// Ranges implements Pool.
func (p *RangePool) Ranges() []Range {
	result := make([]Range, 0, len(p.reclaimed)+1)
	result = append(result, Range{Begin: p.next})
	return append(result, p.reclaimed...)
}

// search returns the index of the first reclaimed range with Begin > id.
func (p *RangePool) search(id Identity) int {
	return sort.Search(len(p.reclaimed), func(i int) bool { return p.reclaimed[i].Begin > id })
}

// Remove implements Pool.
func (p *RangePool) Remove(id Identity) bool {
	if id >= p.next {
		if id > p.next {
			p.reclaimed = append(p.reclaimed, Range{Begin: p.next, Length: uintptr(id - p.next)})
		}
		p.next = id + 1
		return true
	}
	k := p.search(id)
	if k == 0 {
		return false
	}
	r := &p.reclaimed[k-1]
	if id >= r.End() {
		return false
	}
	switch {
	case id == r.Begin:
		r.Begin++
		r.Length--
		if r.Length == 0 {
			p.reclaimed = slices.Delete(p.reclaimed, k-1, k)
		}
	case id == r.End()-1:
		r.Length--
	default:
		tail := Range{Begin: id + 1, Length: uintptr(r.End()-id) - 1}
		r.Length = uintptr(id - r.Begin)
		p.reclaimed = slices.Insert(p.reclaimed, k, tail)
	}
	return true
}

// Insert implements Pool.
func (p *RangePool) Insert(id Identity) bool {
	if id >= p.next {
		return false
	}
	if id+1 == p.next {
		p.next = id
		// A reclaimed range may now touch the infinite run.
		if n := len(p.reclaimed); n > 0 && p.reclaimed[n-1].End() == p.next {
			p.next = p.reclaimed[n-1].Begin
			p.reclaimed = p.reclaimed[:n-1]
		}
		return true
	}
	k := p.search(id)
	mergePrev := false
	if k > 0 {
		prev := p.reclaimed[k-1]
		if id < prev.End() {
			return false
		}
		mergePrev = prev.End() == id
	}
	mergeNext := k < len(p.reclaimed) && id+1 == p.reclaimed[k].Begin
	switch {
	case mergePrev && mergeNext:
		p.reclaimed[k-1].Length += 1 + p.reclaimed[k].Length
		p.reclaimed = slices.Delete(p.reclaimed, k, k+1)
	case mergePrev:
		p.reclaimed[k-1].Length++
	case mergeNext:
		p.reclaimed[k].Begin--
		p.reclaimed[k].Length++
	default:
		p.reclaimed = slices.Insert(p.reclaimed, k, Range{Begin: id, Length: 1})
	}
	return true
}
