// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// Roots is the pair of root sources spec.md §3 defines: the static root
// array (mutable boxes in the static segment) and the continuation table
// location (a pointer-to-pointer cell), grounded on mgc.go's
// _RootData/_RootBss/_RootFinalizers enumeration reduced to the two roots
// spec.md names.
type Roots struct {
	// StaticRoots holds the addresses of the pointer-sized fields read by
	// VisitRoots/UpdateRoots — e.g. a static mutable box's payload field,
	// not the box's own header address. Callers obtain these via
	// FieldAddr on the box they allocated.
	StaticRoots []uintptr

	// ContinuationTableLocation, if non-zero, is the address of a cell
	// holding a pointer to the continuation table array.
	ContinuationTableLocation uintptr
}

// FieldReader abstracts reading a pointer-sized field at an address, so
// VisitRoots and the mark/update increments can share one walking
// strategy over both real and test heaps.
type FieldReader interface {
	ReadValue(addr uintptr) Value
}

// RootVisitor is called once per root field VisitRoots discovers.
type RootVisitor func(fieldAddr uintptr, v Value)

// VisitRoots enumerates, in order: every static mutable box whose field
// points into the dynamic heap, the continuation table pointer itself
// (its elements are not visited individually; they are reached by
// scanning the table as an ordinary array), and — if remembered is
// non-nil — every
// remembered-set entry, which supplies the additional roots needed for a
// young-generation collection (spec.md §4.8).
func VisitRoots(roots *Roots, heapBase uintptr, remembered *RememberedSet, mem FieldReader, visit RootVisitor) {
	for _, box := range roots.StaticRoots {
		v := mem.ReadValue(box)
		if v.GEQ(heapBase) {
			visit(box, v)
		}
	}

	if roots.ContinuationTableLocation != 0 {
		table := mem.ReadValue(roots.ContinuationTableLocation)
		if table.GEQ(heapBase) {
			visit(roots.ContinuationTableLocation, table)
			// The continuation table is itself an array root: its
			// elements are visited by the caller walking the array's
			// fields via the ordinary object-field path, since VisitRoots
			// only enumerates root *locations*, not transitive fields.
		}
	}

	if remembered != nil {
		remembered.ForEach(func(v Value) {
			visit(0, v)
		})
	}
}
