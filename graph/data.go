// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/grailbio/symgraph/bitops"
)

// GetLength returns the bit length of sym's payload, or 0 when sym does
// not exist.
func (s *Store) GetLength(sym Symbol) uintptr {
	handle := s.symbolHandle(sym)
	if handle == nil {
		return 0
	}
	return handle.dataLength
}

// CreaseLength resizes sym's payload at a bit offset: delta > 0 opens a
// hole of delta bits at offset, shifting the tail right; delta < 0
// removes |delta| bits starting at offset, shifting the tail left.  It
// returns false when sym does not exist or the offset (plus the removed
// run) lies outside the payload.
func (s *Store) CreaseLength(sym Symbol, offset uintptr, delta int) bool {
	handle := s.symbolHandle(sym)
	if handle == nil {
		return false
	}
	var magnitude uintptr
	if delta < 0 {
		magnitude = uintptr(-delta)
		if offset+magnitude > handle.dataLength {
			return false
		}
	} else {
		magnitude = uintptr(delta)
		if offset > handle.dataLength {
			return false
		}
	}
	newLength := uintptr(int(handle.dataLength) + delta)
	newData := make([]uintptr, (newLength+bitops.BitsPerWord-1)/bitops.BitsPerWord)
	// The prefix [0, offset) survives verbatim; the copy below never
	// overlaps because newData is fresh.
	copy(newData, handle.data[:(offset+bitops.BitsPerWord-1)/bitops.BitsPerWord])
	if offset%bitops.BitsPerWord > 0 {
		newData[offset/bitops.BitsPerWord] &= bitops.LSBBitmask(offset % bitops.BitsPerWord)
	}
	if delta < 0 {
		bitops.CopyNonoverlapping(newData, handle.data, offset, offset+magnitude, handle.dataLength-offset-magnitude)
	} else {
		bitops.CopyNonoverlapping(newData, handle.data, offset+magnitude, offset, handle.dataLength-offset)
	}
	handle.dataLength = newLength
	handle.data = newData
	return true
}

// ReadData packs bits [offset, offset+length) of sym's payload into dst,
// ceil(length / BitsPerWord) words, low bits first.  It returns false
// when sym does not exist or the window lies outside the payload.
func (s *Store) ReadData(sym Symbol, offset, length uintptr, dst []uintptr) bool {
	handle := s.symbolHandle(sym)
	if handle == nil || offset+length > handle.dataLength {
		return false
	}
	reader := bitops.NewReader(handle.data, length, offset)
	for i := 0; reader.More(); i++ {
		dst[i] = reader.Next()
	}
	return true
}

// WriteData is the inverse of ReadData: it writes length bits from src
// into sym's payload at offset, preserving all payload bits outside the
// window.
func (s *Store) WriteData(sym Symbol, offset, length uintptr, src []uintptr) bool {
	handle := s.symbolHandle(sym)
	if handle == nil || offset+length > handle.dataLength {
		return false
	}
	writer := bitops.NewWriter(handle.data, length, offset)
	for i := 0; writer.More(); i++ {
		writer.Next(src[i])
	}
	return true
}

// ReplaceData copies length bits from src's payload at srcOffset into
// dst's payload at dstOffset.  Both symbols must exist with sufficient
// payload length.  When dst and src are the same symbol the source window
// is staged through a temporary buffer, so overlapping windows behave
// like a copy between distinct symbols.
func (s *Store) ReplaceData(dst Symbol, dstOffset uintptr, src Symbol, srcOffset, length uintptr) bool {
	dstHandle := s.symbolHandle(dst)
	if dstHandle == nil {
		return false
	}
	srcHandle := s.symbolHandle(src)
	if srcHandle == nil {
		return false
	}
	if dstOffset+length > dstHandle.dataLength || srcOffset+length > srcHandle.dataLength {
		return false
	}
	srcData := srcHandle.data
	if dstHandle == srcHandle {
		srcData = make([]uintptr, (length+bitops.BitsPerWord-1)/bitops.BitsPerWord)
		bitops.CopyNonoverlapping(srcData, srcHandle.data, 0, srcOffset, length)
		srcOffset = 0
	}
	bitops.CopyNonoverlapping(dstHandle.data, srcData, dstOffset, srcOffset, length)
	return true
}
