// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// skew is the fixed offset applied to a pointer to obtain its Value
// encoding. Skewing makes every pointer value odd-aligned relative to a
// word-aligned scalar, so the two encodings never collide: scalars are
// shifted left by one bit with the low bit clear, pointers are addresses
// minus one.
const skew = 1

// Value is a tagged machine word: either an unboxed scalar or a skewed
// pointer to an object header. The low bit distinguishes the two: scalars
// have it clear, pointers (after subtracting skew) have it set.
//
// Value is deliberately a plain uintptr wrapper rather than an interface;
// every GC hot path (barriers, marking, forwarding) is on the allocation
// fast path and cannot afford an interface dispatch or an allocation of
// its own.
type Value uintptr

// NullValue is the scalar zero value, used as a sentinel where spec.md's
// root slots may be temporarily empty (e.g. a continuation table cell
// before first use).
const NullValue Value = 0

// FromPointer skews a raw object address into a Value.
func FromPointer(addr uintptr) Value {
	return Value(addr - skew)
}

// FromScalar packs an unboxed scalar (already shifted by the caller's
// calling convention) into a Value. The core GC never inspects scalar
// payloads; it only needs to tell scalars and pointers apart.
func FromScalar(bits uintptr) Value {
	return Value(bits &^ 1)
}

// IsPtr reports whether v addresses an object header rather than holding
// an unboxed scalar.
func (v Value) IsPtr() bool {
	return v&1 == 1
}

// IsScalar is the complement of IsPtr.
func (v Value) IsScalar() bool {
	return !v.IsPtr()
}

// AsObjAddr returns the unskewed object address a pointer Value refers to.
// Callers must check IsPtr first; calling this on a scalar is a contract
// violation and panics in debug builds.
func (v Value) AsObjAddr() uintptr {
	if Debug && !v.IsPtr() {
		Trap("AsObjAddr: value is not a pointer")
	}
	return uintptr(v) + skew
}

// GEQ reports whether v is a pointer at or above base, i.e. whether it
// addresses the dynamic heap rather than the static segment below it.
func (v Value) GEQ(base uintptr) bool {
	return v.IsPtr() && v.AsObjAddr() >= base
}
