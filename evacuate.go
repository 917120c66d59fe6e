// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// EvacuateIncrement walks the heap from phase.Iter's saved position,
// copying every marked object in a to_be_evacuated partition to a
// non-evacuated partition and installing a forwarding pointer (spec.md
// §4.4). It reports done=true once the iterator has visited every
// partition, at which point the caller transitions Evacuate → Update.
//
// Tie-breaks, per spec.md §4.4: the allocation partition is never
// evacuated (PlanEvacuations already excludes it); an object already
// forwarded via a dual path is skipped, never re-copied; unmarked objects
// in a to-be-evacuated partition are dead and are left for the partition
// reset to reclaim.
func EvacuateIncrement(heap *PartitionedHeap, access HeapAccess, phase *EvacuatePhase, budget *BoundedTime) (done bool) {
	it := ResumeHeapIterator(heap, *phase.Iter, access.ReadHeader)
	for !budget.IsOver() {
		addr, h, ok := it.NextObject()
		if !ok {
			*phase.Iter = it.State()
			return true
		}

		p := heap.partitionOf(addr)
		if !p.ToBeEvacuated || !h.Marked() || h.IsForwarded(addr) {
			budget.Tick(1)
			continue
		}

		words := BlockSize(h)
		copyAddr := heap.Allocate(words)
		access.CopyWords(copyAddr, addr, words)

		fwd := FromPointer(copyAddr)
		h.Forward = fwd
		access.WriteHeader(addr, h)

		copyHeader := access.ReadHeader(copyAddr)
		copyHeader.Forward = fwd
		copyHeader.SetMarked()
		access.WriteHeader(copyAddr, copyHeader)
		heap.RecordMarkedSpace(copyHeader, copyAddr)

		budget.Tick(int64(words))
	}
	*phase.Iter = it.State()
	return false
}
