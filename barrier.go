// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// PreWrite implements incremental_pre_write_barrier / write_with_barrier
// (spec.md §4.6, §6): it must run BEFORE the pointer store it guards, and
// it performs that store itself so callers never duplicate the dispatch.
//
// Dispatch:
//   - Pause, Stop: plain store, no marking, no forwarding resolution.
//   - Mark: snapshot-at-the-beginning — if the value about to be
//     overwritten is a heap pointer, shade it (mark it) before it is lost,
//     unless marking has already reached closure, in which case a debug
//     build asserts it was already marked (P5: the barrier is a safe
//     overapproximation of what was live at its instant).
//   - Evacuate: plain store; evacuation does not rewrite mutator-visible
//     pointers, only object copies.
//   - Update: the value being written is itself resolved through
//     forwarding before the store, so a mutator write during Update never
//     reintroduces a pointer into an evacuated partition (I5).
//
// Reflecting spec.md §5 ("no parallelism"), this omits mbarrier.go's
// m.inwb re-entrancy guard and acquirem/releasem machinery: those exist
// only because Go's write barrier can itself be invoked reentrantly by a
// preempting GC thread, which cannot happen on this single-threaded host.
func (ctx *GcContext) PreWrite(location uintptr, newValue Value) {
	switch p := ctx.Phase.(type) {
	case *PausePhase, *StopPhase:
		ctx.Access.WriteValue(location, newValue)

	case *MarkPhase:
		old := ctx.Access.ReadValue(location)
		if old.GEQ(ctx.Heap.BaseAddress()) {
			if !p.Complete {
				MarkObject(ctx.Heap, ctx.Access, p.Stack, old)
			} else {
				assert(ctx.Access.ReadHeader(old.AsObjAddr()).Marked(), "PreWrite: mark phase complete but old value unmarked")
			}
		}
		ctx.Access.WriteValue(location, newValue)

	case *EvacuatePhase:
		ctx.Access.WriteValue(location, newValue)

	case *UpdatePhase:
		ctx.Access.WriteValue(location, ForwardIfPossible(ctx.Access, ctx.Heap.BaseAddress(), newValue))

	default:
		Trap("PreWrite: unknown phase")
	}
}

// PostAllocBarrier is invoked after a newly allocated object is fully
// initialized, except for blob payload bytes (spec.md §4.6).
//
//   - Mark: the new object goes through MarkObject: it is marked, its
//     space recorded, and it is pushed on the mark stack, so its fields
//     are scanned like those of any other marked object.
//   - Evacuate: the new object is marked and its space recorded so the
//     in-progress cycle cannot reclaim it; its fields are not scanned.
//   - Update: every pointer field of the new object is resolved through
//     forwarding, since the object may have been allocated from a copy of
//     an evacuated object's fields.
//   - Pause, Stop: no-op.
func (ctx *GcContext) PostAllocBarrier(obj Value) {
	ctx.NotifyAllocation()

	switch p := ctx.Phase.(type) {
	case *PausePhase, *StopPhase:
		return

	case *MarkPhase:
		MarkObject(ctx.Heap, ctx.Access, p.Stack, obj)

	case *EvacuatePhase:
		addr := obj.AsObjAddr()
		h := ctx.Access.ReadHeader(addr)
		if !h.Marked() {
			h.SetMarked()
			ctx.Access.WriteHeader(addr, h)
			ctx.Heap.RecordMarkedSpace(h, addr)
		}

	case *UpdatePhase:
		addr := obj.AsObjAddr()
		h := ctx.Access.ReadHeader(addr)
		n := pointerFieldCount(h)
		for i := uint32(0); i < n; i++ {
			fa := fieldAddr(addr, i)
			ctx.Access.WriteValue(fa, ForwardIfPossible(ctx.Access, ctx.Heap.BaseAddress(), ctx.Access.ReadValue(fa)))
		}

	default:
		Trap("PostAllocBarrier: unknown phase")
	}
}
