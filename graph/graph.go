// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/symgraph/identity"
)

// Identity is a namespace or symbol identifier.
type Identity = identity.Identity

// MetaNamespace is the distinguished namespace whose symbols denote
// manifest namespaces: symbol (MetaNamespace, n) existing means namespace
// n is manifest.
const MetaNamespace Identity = 0

// Symbol addresses one atom of the store.
type Symbol struct {
	Namespace Identity
	Local     Identity
}

// Triple is an ordered [entity, attribute, value] tuple of symbols.
type Triple [3]Symbol

// Positions within a Triple.
const (
	Entity = iota
	Attribute
	Value
)

type gammaSet map[Symbol]struct{}
type betaIndex map[Symbol]gammaSet

// symbolHandle is the per-symbol state: the bit payload and the six
// triple subindices.
type symbolHandle struct {
	data       []uintptr
	dataLength uintptr // in bits
	subindices [numOrders]betaIndex
}

func newSymbolHandle() *symbolHandle {
	handle := &symbolHandle{}
	for i := range handle.subindices {
		handle.subindices[i] = make(betaIndex)
	}
	return handle
}

type namespaceHandle struct {
	freePool identity.Pool
	symbols  map[Identity]*symbolHandle
}

// Store is the process-visible owner of all namespaces.  It is not safe
// for concurrent use.
type Store struct {
	namespaces map[Identity]*namespaceHandle
	newPool    func() identity.Pool
}

// Opts configures a Store.
type Opts struct {
	// NewPool constructs the identifier pool of each namespace.  nil
	// selects identity.NewRangePool.
	NewPool func() identity.Pool
}

// NewStore returns an empty store.
func NewStore(optList ...Opts) *Store {
	store := &Store{
		namespaces: make(map[Identity]*namespaceHandle),
		newPool:    func() identity.Pool { return identity.NewRangePool() },
	}
	for _, opts := range optList {
		if opts.NewPool != nil {
			store.newPool = opts.NewPool
		}
	}
	return store
}

func (s *Store) manifestNamespace(ns Identity) *namespaceHandle {
	handle, ok := s.namespaces[ns]
	if !ok {
		handle = &namespaceHandle{freePool: s.newPool(), symbols: make(map[Identity]*symbolHandle)}
		s.namespaces[ns] = handle
	}
	return handle
}

func (s *Store) symbolHandle(sym Symbol) *symbolHandle {
	handle, ok := s.namespaces[sym.Namespace]
	if !ok {
		return nil
	}
	return handle.symbols[sym.Local]
}

// ManifestSymbol ensures that sym exists, creating its namespace first
// when necessary.  Manifesting a meta-namespace symbol (MetaNamespace, n)
// additionally manifests namespace n.  It returns whether sym was newly
// created.
func (s *Store) ManifestSymbol(sym Symbol) bool {
	handle := s.manifestNamespace(sym.Namespace)
	if _, ok := handle.symbols[sym.Local]; ok {
		return false
	}
	handle.symbols[sym.Local] = newSymbolHandle()
	if !handle.freePool.Remove(sym.Local) {
		log.Panicf("graph: identifier %d of namespace %d absent from both the symbol index and the free pool",
			sym.Local, sym.Namespace)
	}
	if sym.Namespace == MetaNamespace {
		s.manifestNamespace(sym.Local)
	}
	return true
}

// CreateSymbol manifests a symbol with the lowest never-issued identifier
// of namespace ns and returns it.  The returned identifier was not
// previously in use.
func (s *Store) CreateSymbol(ns Identity) Symbol {
	handle := s.manifestNamespace(ns)
	sym := Symbol{Namespace: ns, Local: handle.freePool.Get()}
	s.ManifestSymbol(sym)
	return sym
}

// ReleaseSymbol removes sym from the store and returns its identifier to
// the namespace's free pool.  It returns false when the namespace or the
// symbol does not exist.  Releasing a symbol that still carries payload
// bits or subindex entries is a programming error and aborts.
//
// Releasing a meta-namespace symbol (MetaNamespace, n) cascades: every
// triple with an endpoint outside namespace n but touching it is unlinked
// first, then the whole namespace n is dropped, taking its symbols and
// intra-namespace triples with it.
func (s *Store) ReleaseSymbol(sym Symbol) bool {
	nsHandle, ok := s.namespaces[sym.Namespace]
	if !ok {
		return false
	}
	handle, ok := nsHandle.symbols[sym.Local]
	if !ok {
		return false
	}
	if sym.Namespace == MetaNamespace {
		s.unlinkNamespace(sym.Local)
	}
	if handle.dataLength != 0 {
		log.Panicf("graph: releasing symbol (%d, %d) with %d payload bits", sym.Namespace, sym.Local, handle.dataLength)
	}
	for _, subindex := range handle.subindices {
		if len(subindex) != 0 {
			log.Panicf("graph: releasing symbol (%d, %d) that still participates in triples", sym.Namespace, sym.Local)
		}
	}
	delete(nsHandle.symbols, sym.Local)
	if !nsHandle.freePool.Insert(sym.Local) {
		log.Panicf("graph: identifier %d of namespace %d present in both the symbol index and the free pool",
			sym.Local, sym.Namespace)
	}
	if sym.Namespace == MetaNamespace {
		delete(s.namespaces, sym.Local)
	}
	return true
}

// unlinkNamespace removes every triple that touches namespace ns but has
// at least one endpoint outside it.  Triples entirely within ns vanish
// with the namespace map entry; their subindex entries on ns-internal
// symbols need no individual unlinking.
func (s *Store) unlinkNamespace(ns Identity) {
	nsHandle, ok := s.namespaces[ns]
	if !ok {
		return
	}
	// Every triple with an endpoint in ns appears with that endpoint as the
	// pivot of one of the three forward subindices, so scanning those is
	// exhaustive; the set removes the duplicates.
	doomed := make(map[Triple]struct{})
	for local, handle := range nsHandle.symbols {
		pivot := Symbol{Namespace: ns, Local: local}
		for order := 0; order < 3; order++ {
			for beta, gammas := range handle.subindices[order] {
				for gamma := range gammas {
					if beta.Namespace == ns && gamma.Namespace == ns {
						continue
					}
					doomed[reorderTriple(&tripleNormalized, order, Triple{pivot, beta, gamma})] = struct{}{}
				}
			}
		}
	}
	for t := range doomed {
		s.SetTriple(t, false)
	}
}

// QuerySymbols returns the local identifiers of every symbol manifest in
// namespace ns, in unspecified order.
func (s *Store) QuerySymbols(ns Identity) []Identity {
	handle, ok := s.namespaces[ns]
	if !ok {
		return nil
	}
	result := make([]Identity, 0, len(handle.symbols))
	for local := range handle.symbols {
		result = append(result, local)
	}
	return result
}
