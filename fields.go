// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// HeapAccess is the narrow surface mark/evacuate/update need onto actual
// backing storage: read/write a header, read/write a single pointer-sized
// field, and bulk-copy words for evacuation. Tests back this with
// FakeMemory (Go maps keyed by address); a real host backs it with the linear-memory primitive
// (spec.md §1, out of scope here).
type HeapAccess interface {
	ReadHeader(addr uintptr) *Header
	WriteHeader(addr uintptr, h *Header)
	ReadValue(addr uintptr) Value
	WriteValue(addr uintptr, v Value)
	CopyWords(dst, src uintptr, words uint32)
}

// payloadStart is the address of an object's first payload word.
func payloadStart(addr uintptr) uintptr {
	return addr + uintptr(headerWords)*WordSize
}

// fieldAddr returns the address of the i'th pointer-sized field following
// an object's header.
func fieldAddr(addr uintptr, i uint32) uintptr {
	return payloadStart(addr) + uintptr(i)*WordSize
}

// FieldAddr is fieldAddr's exported form, for callers outside this
// package (the mutator's generated code, cmd/gcbench, tests) that need to
// address an object's i'th pointer field directly.
func FieldAddr(addr uintptr, i uint32) uintptr {
	return fieldAddr(addr, i)
}

// pointerFieldCount returns how many of an object's payload words are
// themselves Values to be traced, for tags whose entire payload is
// pointer-typed. TagBlob (raw bytes), TagBigInt (scalar limbs), TagNull,
// TagRegion, and the filler tags carry no pointer fields.
func pointerFieldCount(h *Header) uint32 {
	switch tag := h.Tag(); {
	case tag == TagObject:
		return h.Length
	case tag == TagMutBox:
		return 1
	case tag == TagArray || tag.IsArraySlice():
		return h.Length
	default:
		return 0
	}
}
