// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package bitops provides cursors and copy primitives for moving
// arbitrary-length bit runs across machine-word buffers.  Offsets and
// lengths are always expressed in bits; buffers are []uintptr slices of
// which only the first ceil(length / BitsPerWord) words are meaningful.
package bitops
