// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// Memory is the host-provided linear-memory primitive the core consumes.
// It is the only collaborator from the "out of scope" list (spec.md §1)
// that the collector calls directly; everything else (bignum, UTF-8, CRC,
// principal-id, serialization, stable memory, LEB128, bitmap/bitrel) is
// never referenced here.
type Memory interface {
	// AllocWords returns n words of fresh, uninitialized storage, or an
	// error if the host is out of address space. The collector turns a
	// non-nil error into a fatal Trap; Memory implementations should not
	// themselves panic.
	AllocWords(n uint32) (Value, error)

	HeapBase() uintptr
	HeapPointer() uintptr
	LastHeapPointer() uintptr
	SetHeapBase(uintptr)
	SetLastHeapPointer(uintptr)
}
