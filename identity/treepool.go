// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package identity

import (
	"github.com/biogo/store/llrb"
)

// treeRange is an llrb tree element ordered by Begin.
type treeRange Range

// Compare compares two treeRange objects for use in llrb.
func (r treeRange) Compare(c llrb.Comparable) int {
	other := c.(treeRange)
	switch {
	case r.Begin < other.Begin:
		return -1
	case r.Begin > other.Begin:
		return 1
	}
	return 0
}

// TreePool keeps the finite reclaimed ranges in an llrb tree keyed by
// Begin.  Its external behavior is identical to RangePool's; mutations are
// O(log R) without slice surgery.
type TreePool struct {
	reclaimed llrb.Tree
	next      Identity
}

// NewTreePool returns a pool with every identifier free.
func NewTreePool() *TreePool {
	return &TreePool{}
}

// Get implements Pool.
func (p *TreePool) Get() Identity {
	return p.next
}

// Full implements Pool.
func (p *TreePool) Full() bool {
	return p.reclaimed.Len() == 0 && p.next == 0
}

// Ranges implements Pool.
func (p *TreePool) Ranges() []Range {
	result := make([]Range, 0, p.reclaimed.Len()+1)
	result = append(result, Range{Begin: p.next})
	p.reclaimed.Do(func(c llrb.Comparable) bool {
		result = append(result, Range(c.(treeRange)))
		return false
	})
	return result
}

// floor returns the reclaimed range with the greatest Begin <= id, or ok
// false when there is none.
func (p *TreePool) floor(id Identity) (Range, bool) {
	c := p.reclaimed.Floor(treeRange{Begin: id})
	if c == nil {
		return Range{}, false
	}
	return Range(c.(treeRange)), true
}

// Remove implements Pool.
func (p *TreePool) Remove(id Identity) bool {
	if id >= p.next {
		if id > p.next {
			p.reclaimed.Insert(treeRange{Begin: p.next, Length: uintptr(id - p.next)})
		}
		p.next = id + 1
		return true
	}
	r, ok := p.floor(id)
	if !ok || id >= r.End() {
		return false
	}
	switch {
	case id == r.Begin:
		p.reclaimed.Delete(treeRange(r))
		if r.Length > 1 {
			p.reclaimed.Insert(treeRange{Begin: r.Begin + 1, Length: r.Length - 1})
		}
	case id == r.End()-1:
		p.reclaimed.Insert(treeRange{Begin: r.Begin, Length: r.Length - 1})
	default:
		p.reclaimed.Insert(treeRange{Begin: r.Begin, Length: uintptr(id - r.Begin)})
		p.reclaimed.Insert(treeRange{Begin: id + 1, Length: uintptr(r.End()-id) - 1})
	}
	return true
}

// Insert implements Pool.
func (p *TreePool) Insert(id Identity) bool {
	if id >= p.next {
		return false
	}
	if id+1 == p.next {
		p.next = id
		// A reclaimed range may now touch the infinite run.
		if c := p.reclaimed.Max(); c != nil {
			if last := Range(c.(treeRange)); last.End() == p.next {
				p.next = last.Begin
				p.reclaimed.Delete(treeRange(last))
			}
		}
		return true
	}
	prev, hasPrev := p.floor(id)
	if hasPrev && id < prev.End() {
		return false
	}
	mergePrev := hasPrev && prev.End() == id
	var next Range
	mergeNext := false
	if c := p.reclaimed.Ceil(treeRange{Begin: id}); c != nil {
		next = Range(c.(treeRange))
		mergeNext = next.Begin == id+1
	}
	switch {
	case mergePrev && mergeNext:
		p.reclaimed.Delete(treeRange(next))
		p.reclaimed.Insert(treeRange{Begin: prev.Begin, Length: prev.Length + 1 + next.Length})
	case mergePrev:
		p.reclaimed.Insert(treeRange{Begin: prev.Begin, Length: prev.Length + 1})
	case mergeNext:
		p.reclaimed.Delete(treeRange(next))
		p.reclaimed.Insert(treeRange{Begin: id, Length: next.Length + 1})
	default:
		p.reclaimed.Insert(treeRange{Begin: id, Length: 1})
	}
	return true
}
