// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// ForwardIfPossible resolves a Value through forwarding: a static-segment
// pointer (below heapBase) or a scalar is returned unchanged; a
// dynamic-heap pointer is replaced by its header's Forward slot, which is
// a self-reference unless the object was evacuated (I1).
func ForwardIfPossible(access HeapAccess, heapBase uintptr, v Value) Value {
	if !v.GEQ(heapBase) {
		return v
	}
	h := access.ReadHeader(v.AsObjAddr())
	return h.Forward
}

// UpdateRoots rewrites every root pointer through forwarding at the start
// of an Update increment (spec.md §4.5).
func UpdateRoots(access HeapAccess, heapBase uintptr, roots *Roots) {
	for _, box := range roots.StaticRoots {
		v := access.ReadValue(box)
		if v.GEQ(heapBase) {
			access.WriteValue(box, ForwardIfPossible(access, heapBase, v))
		}
	}
	if roots.ContinuationTableLocation != 0 {
		v := access.ReadValue(roots.ContinuationTableLocation)
		if v.GEQ(heapBase) {
			access.WriteValue(roots.ContinuationTableLocation, ForwardIfPossible(access, heapBase, v))
		}
	}
}

// UpdateIncrement walks the heap from phase.Iter's saved position and, for
// every live object outside an evacuated partition, rewrites its pointer
// fields through forwarding and clears its mark bit (spec.md §4.5).
// Originals left behind in evacuated partitions are skipped: they are no
// longer reachable once their forwarding pointer is installed. Arrays are
// sliced exactly as in Mark, using Peek/Advance so a partially-updated
// array is revisited by the next increment rather than skipped.
func UpdateIncrement(heap *PartitionedHeap, access HeapAccess, phase *UpdatePhase, budget *BoundedTime) (done bool) {
	it := ResumeHeapIterator(heap, *phase.Iter, access.ReadHeader)
	for !budget.IsOver() {
		addr, h, ok := it.Peek()
		if !ok {
			*phase.Iter = it.State()
			return true
		}

		p := heap.partitionOf(addr)
		if p.ToBeEvacuated || !h.Marked() {
			budget.Tick(1)
			it.Advance(addr)
			continue
		}

		if updateObject(access, heap.BaseAddress(), budget, addr, h) {
			it.Advance(addr)
		}
		// else: object only partially processed (array slice); the next
		// increment's Peek will re-read it at the same address.
	}
	*phase.Iter = it.State()
	return false
}

// updateObject rewrites addr's pointer fields and reports whether it is
// now fully processed (false means a slice boundary was hit and the
// caller must not advance past it yet).
func updateObject(access HeapAccess, heapBase uintptr, budget *BoundedTime, addr uintptr, h *Header) bool {
	tag := h.Tag()
	if tag == TagArray || tag.IsArraySlice() {
		start := uint32(0)
		if tag.IsArraySlice() {
			start = tag.SliceStart()
		}
		end := start + SliceIncrement
		if end > h.Length {
			end = h.Length
		}
		for i := start; i < end; i++ {
			fa := fieldAddr(addr, i)
			access.WriteValue(fa, ForwardIfPossible(access, heapBase, access.ReadValue(fa)))
		}
		budget.Tick(int64(end - start))
		if end < h.Length {
			h.SetTag(SliceTag(end))
			access.WriteHeader(addr, h)
			return false
		}
		h.SetTag(TagArray)
		h.ClearMarked()
		access.WriteHeader(addr, h)
		return true
	}

	n := pointerFieldCount(h)
	for i := uint32(0); i < n; i++ {
		fa := fieldAddr(addr, i)
		access.WriteValue(fa, ForwardIfPossible(access, heapBase, access.ReadValue(fa)))
	}
	budget.Tick(1)
	h.ClearMarked()
	access.WriteHeader(addr, h)
	return true
}
