// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package graph implements an in-memory symbolic graph store.  Symbols are
  (namespace, local identifier) pairs; each symbol owns an arbitrary-bit-
  length payload and may participate in [entity, attribute, value] triples.
  Triples are indexed in all six orderings so that any of the 27 query
  shapes (match / enumerate / ignore per position) resolves through a
  single subindex without scanning.

  A Store is owned by a single caller; no operation may run concurrently
  with another on the same Store.
*/
package graph
