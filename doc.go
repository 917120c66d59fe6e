// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc is an incremental, generational, compacting garbage collector
// for a managed-language runtime hosted on a single-threaded, fiber-less
// canister (a WebAssembly-style guest with no OS threads).
//
// The collector runs cooperatively with the mutator on one execution stack:
// there is no parallelism, no atomics, and no STW pause in the traditional
// sense. Instead, GC work is sliced into fixed-cost increments that run
// either at "empty call stack" schedule points (between top-level mutator
// invocations, when no unbarriered pointer can be live on the stack) or
// piggy-backed onto every Nth allocation.
//
// The algorithm decomposes into three phases run once per cycle:
//
//  0. Pause.  No cycle in progress; allocation and pointer writes are
//     unbarriered fast paths.
//  1. Mark.   Snapshot-at-the-beginning tri-color marking from the root
//     set, using a segmented mark stack whose segments are ordinary Go
//     allocations, outside the collected heap.
//     Arrays are scanned in bounded slices so no single increment does
//     unbounded work.
//  2. Evacuate.  Partitions that are mostly garbage are copied out,
//     object-by-object, into the current allocation partition (or a fresh
//     one); each evacuated object's header records a forwarding pointer to
//     its copy.
//  3. Update.  Every reachable pointer field is rewritten through
//     forwarding, mark bits are cleared, and evacuated partitions are
//     freed in one step.
//
// Two barriers keep the mutator's view of the heap consistent with
// whichever phase is active: PreWrite (exported as WriteWithBarrier)
// implements the
// snapshot-at-the-beginning invariant (shade the value about to be
// overwritten, not the value being written), and PostAllocBarrier makes
// newly allocated objects visible to an in-progress Mark or Evacuate.
//
// Package objtable provides the object table for a second variant that
// replaces in-place forwarding pointers with a level of indirection: id
// allocation and release, relocation of an id's address, lookup, and
// table growth into the dynamic heap. It reuses this package's Value,
// Header, PartitionedHeap, HeapAccess and RememberedSet, but it is not
// wired into GcContext: the phase state machine, the barriers and the
// mark/evacuate/update increments here always use forwarding pointers.
package gc
