// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package identity tracks which identifiers of a namespace are free.  The
// free set always covers an infinite suffix [next, inf) of identifiers that
// were never issued, plus zero or more finite reclaimed ranges below next.
// Every range is separated from its neighbors by at least one allocated
// identifier; ranges that would touch are merged after every mutation.
package identity

// Identity is a namespace-local symbol identifier, one machine word wide.
type Identity uintptr

// Range is a run of Length consecutive free identifiers starting at Begin.
// The trailing infinite run is reported with Length == 0.
type Range struct {
	Begin  Identity
	Length uintptr
}

// End returns the first identifier after a finite range.
func (r Range) End() Identity {
	return r.Begin + Identity(r.Length)
}

// Pool is the free set of one namespace.  Two interchangeable
// implementations are provided: RangePool (sorted slice) and TreePool
// (llrb ordered map).
type Pool interface {
	// Get returns the lowest identifier that was never issued.  It is
	// always free, and O(1).
	Get() Identity
	// Remove marks id as in use.  It returns false, leaving the pool
	// unchanged, when id is already in use.
	Remove(id Identity) bool
	// Insert returns id to the free set.  It returns false, leaving the
	// pool unchanged, when id is already free.
	Insert(id Identity) bool
	// Ranges returns the free set.  Element 0 is always the infinite run;
	// the finite reclaimed ranges follow in ascending order.
	Ranges() []Range
	// Full reports whether every identifier is free.
	Full() bool
}
