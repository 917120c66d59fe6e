// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// MarkObject marks v if it is an unmarked heap pointer, pushing it onto
// the mark stack for later field scanning (spec.md §4.3, step 3). It is a
// no-op on scalars, on pointers below the heap base (static segment), and
// on already-marked objects (P6: idempotent).
func MarkObject(heap *PartitionedHeap, access HeapAccess, stack *MarkStack, v Value) {
	if !v.GEQ(heap.BaseAddress()) {
		return
	}
	addr := v.AsObjAddr()
	h := access.ReadHeader(addr)
	if h.Marked() {
		return
	}
	h.SetMarked()
	access.WriteHeader(addr, h)
	heap.RecordMarkedSpace(h, addr)
	stack.Push(v)
}

// MarkRoots seeds the mark stack from the root set: every static mutable
// box whose field points into the dynamic heap, the continuation table
// cell if it holds such a pointer, and — for the generational variant —
// every remembered-set entry (spec.md §4.3 step 1, §4.8).
func MarkRoots(heap *PartitionedHeap, access HeapAccess, stack *MarkStack, roots *Roots, remembered *RememberedSet) {
	VisitRoots(roots, heap.BaseAddress(), remembered, fieldReaderAdapter{access}, func(_ uintptr, v Value) {
		MarkObject(heap, access, stack, v)
	})
}

type fieldReaderAdapter struct{ access HeapAccess }

func (a fieldReaderAdapter) ReadValue(addr uintptr) Value { return a.access.ReadValue(addr) }

// MarkIncrement runs until either the budget is exhausted or the mark
// stack empties, at which point phase.Complete is set (spec.md §4.3 step
// 5, invariant I3). It never preempts mid-object: the slicing logic below
// only checks the budget between objects and between slice chunks.
func MarkIncrement(heap *PartitionedHeap, access HeapAccess, phase *MarkPhase, budget *BoundedTime) {
	stack := phase.Stack
	for !budget.IsOver() {
		v, ok := stack.Pop()
		if !ok {
			phase.Complete = true
			return
		}
		scanObject(heap, access, stack, budget, v)
	}
}

// scanObject visits v's pointer fields, marking each one reachable. Large
// arrays are scanned in bounded slices (spec.md §4.3 step 4): the array's
// tag is overwritten with a resume cursor and the array is re-pushed,
// rather than enqueuing per-element work, bounding mark-stack growth.
func scanObject(heap *PartitionedHeap, access HeapAccess, stack *MarkStack, budget *BoundedTime, v Value) {
	addr := v.AsObjAddr()
	h := access.ReadHeader(addr)

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
			MarkObject(heap, access, stack, access.ReadValue(fieldAddr(addr, i)))
		}
		budget.Tick(int64(end - start))
		if end < h.Length {
			h.SetTag(SliceTag(end))
			access.WriteHeader(addr, h)
			stack.Push(v)
		} else {
			h.SetTag(TagArray)
			access.WriteHeader(addr, h)
		}
		return
	}

	n := pointerFieldCount(h)
	for i := uint32(0); i < n; i++ {
		MarkObject(heap, access, stack, access.ReadValue(fieldAddr(addr, i)))
	}
	budget.Tick(1)
}
