// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bitops

import (
	"unsafe"

	"github.com/grailbio/base/simd"
)

// BitsPerWord is the number of bits per machine word.
const BitsPerWord = simd.BitsPerWord

// LSBBitmask returns the word with its low n bits set.  n >= BitsPerWord
// yields the all-ones word.
func LSBBitmask(n uintptr) uintptr {
	if n >= BitsPerWord {
		return ^uintptr(0)
	}
	return (uintptr(1) << n) - 1
}

// Reader steps through length bits of src starting at bit offset.  Each
// Next() call yields min(BitsPerWord, remaining) bits packed into the low
// bits of the returned word, zero-extended, and advances the cursor by a
// full word.  A Reader cannot be restarted; construct a new one instead.
type Reader struct {
	src       []uintptr
	remaining int
	shift     uintptr
	index     uintptr
}

// NewReader returns a Reader over bits [offset, offset+length) of src.
func NewReader(src []uintptr, length, offset uintptr) Reader {
	return Reader{
		src:       src,
		remaining: int(length),
		shift:     offset % BitsPerWord,
		index:     offset / BitsPerWord,
	}
}

// More returns whether any bits remain to be read.
func (r *Reader) More() bool {
	return r.remaining > 0
}

// Next returns the next word of bits.  Must not be called when More() is
// false.
func (r *Reader) Next() uintptr {
	dst := r.src[r.index] >> r.shift
	if r.shift > 0 && uintptr(r.remaining) > BitsPerWord-r.shift {
		dst |= r.src[r.index+1] << (BitsPerWord - r.shift)
	}
	if r.remaining < BitsPerWord {
		dst &= LSBBitmask(uintptr(r.remaining))
	}
	r.remaining -= BitsPerWord
	r.index++
	return dst
}

// Writer is the destination-side counterpart of Reader.  Each Next(src)
// call masks the low min(BitsPerWord, remaining) bits of src, clears the
// corresponding destination bits (possibly spanning two words), and ORs
// the masked input in place.  All destination bits outside the window are
// preserved.
type Writer struct {
	dst       []uintptr
	remaining int
	shift     uintptr
	index     uintptr
}

// NewWriter returns a Writer over bits [offset, offset+length) of dst.
func NewWriter(dst []uintptr, length, offset uintptr) Writer {
	return Writer{
		dst:       dst,
		remaining: int(length),
		shift:     offset % BitsPerWord,
		index:     offset / BitsPerWord,
	}
}

// More returns whether any bits remain to be written.
func (w *Writer) More() bool {
	return w.remaining > 0
}

// Next consumes one word of input.  Must not be called when More() is
// false.
func (w *Writer) Next(src uintptr) {
	mask := LSBBitmask(uintptr(w.remaining))
	src &= mask
	w.dst[w.index] &= ^(mask << w.shift)
	w.dst[w.index] |= src << w.shift
	if w.shift > 0 && uintptr(w.remaining) > BitsPerWord-w.shift {
		w.dst[w.index+1] &= ^(mask >> (BitsPerWord - w.shift))
		w.dst[w.index+1] |= src >> (BitsPerWord - w.shift)
	}
	w.remaining -= BitsPerWord
	w.index++
}

// wordsToBytes reinterprets a word slice as its underlying bytes.
func wordsToBytes(src []uintptr) []byte {
	if len(src) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*int(unsafe.Sizeof(src[0])))
}

// CopyNonoverlapping copies length bits of src starting at bit srcOffset
// into dst starting at bit dstOffset.  Bits of dst outside
// [dstOffset, dstOffset+length) are preserved.  The two bit windows must
// not overlap; the result is undefined when they do.
//
// Word-aligned and byte-aligned windows take bulk-copy fast paths; byte
// addressing assumes little-endian word layout (bit k of the buffer is
// bit k%8 of byte k/8).
func CopyNonoverlapping(dst, src []uintptr, dstOffset, srcOffset, length uintptr) {
	if length == 0 {
		return
	}
	if dstOffset%BitsPerWord == 0 && srcOffset%BitsPerWord == 0 {
		dstWords := dst[dstOffset/BitsPerWord:]
		srcWords := src[srcOffset/BitsPerWord:]
		lastIndex := (length + BitsPerWord - 1) / BitsPerWord
		if length%BitsPerWord > 0 {
			lastIndex--
			mask := LSBBitmask(length % BitsPerWord)
			dstWords[lastIndex] = (dstWords[lastIndex] &^ mask) | (srcWords[lastIndex] & mask)
		}
		copy(dstWords[:lastIndex], srcWords[:lastIndex])
	} else if dstOffset%8 == 0 && srcOffset%8 == 0 {
		dstBytes := wordsToBytes(dst)[dstOffset/8:]
		srcBytes := wordsToBytes(src)[srcOffset/8:]
		lastIndex := (length + 7) / 8
		if length%8 > 0 {
			lastIndex--
			mask := byte(LSBBitmask(length % 8))
			dstBytes[lastIndex] = (dstBytes[lastIndex] &^ mask) | (srcBytes[lastIndex] & mask)
		}
		copy(dstBytes[:lastIndex], srcBytes[:lastIndex])
	} else {
		reader := NewReader(src, length, srcOffset)
		writer := NewWriter(dst, length, dstOffset)
		for reader.More() {
			writer.Next(reader.Next())
		}
	}
}
