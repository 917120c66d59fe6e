// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "go.uber.org/zap"

// GcContext is the single owner that aggregates phase state, the
// partitioned heap, and the root set (spec.md §9, "Cyclic references").
// Rather than mgc.go's mutable module-level singletons (PHASE,
// PARTITIONED_HEAP, OBJECT_TABLE), every collaborator here receives a
// *GcContext by reference; there are no back-pointers between components.
//
// Exactly one GcContext exists per running canister; the ABI wrappers in
// this file (InitializeIncrementalGC, ScheduleIncrementalGC, ...) are thin
// extern-style entry points that operate on a package-level instance
// acquired at startup, matching spec.md §6's exported-symbol surface.
type GcContext struct {
	Phase Phase
	Heap  *PartitionedHeap
	Mem   Memory

	Access HeapAccess

	Roots      *Roots
	Remembered *RememberedSet

	lastOccupation uint64

	allocsSincePiggyback int

	log     *zap.SugaredLogger
	metrics *Metrics
}

// NewGcContext wires up a fresh collector instance, starting in Pause.
func NewGcContext(mem Memory, access HeapAccess, heapBase uintptr, roots *Roots, log *zap.Logger, metrics *Metrics) *GcContext {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &GcContext{
		Phase:      &PausePhase{},
		Heap:       NewPartitionedHeap(mem, heapBase),
		Mem:        mem,
		Access:     access,
		Roots:      roots,
		Remembered: NewRememberedSet(),
		log:        log.Sugar(),
		metrics:    metrics,
	}
}

// --- Exported ABI surface (spec.md §6) -------------------------------------

var instance *GcContext

// InitializeIncrementalGC installs the process-wide collector instance.
// Callers that need more than one (e.g. tests) should construct their own
// *GcContext via NewGcContext and call its methods directly instead of
// going through the package-level wrappers.
func InitializeIncrementalGC(ctx *GcContext) {
	instance = ctx
}

// ScheduleIncrementalGC is invoked at safe points; it decides whether to
// start a new cycle or advance the current one, per spec.md §4.1's start
// policy, then runs one empty-call-stack increment.
func ScheduleIncrementalGC() {
	instance.ScheduleIncrementalGC()
}

// IncrementalGC forces an increment regardless of the start policy (used
// with --force-gc, spec.md §6).
func IncrementalGC() {
	if IsPause(instance.Phase) {
		instance.startCycle()
	}
	instance.RunEmptyCallStackIncrement()
}

// StopGCOnUpgrade sets the phase to Stop (spec.md §4.1, terminal state).
func StopGCOnUpgrade() {
	instance.StopGCOnUpgrade()
}

// WriteWithBarrier and PostAllocBarrier are exported per spec.md §6 as
// write_with_barrier and allocation_barrier.
func WriteWithBarrier(location uintptr, newValue Value) {
	instance.PreWrite(location, newValue)
}

func PostAllocBarrier(obj Value) {
	instance.PostAllocBarrier(obj)
}

// --- Instance methods --------------------------------------------------

// ScheduleIncrementalGC decides whether to start a new cycle (spec.md
// §4.1's start policy) and, either way, runs one empty-call-stack
// increment of whatever phase is now active.
func (ctx *GcContext) ScheduleIncrementalGC() {
	if IsPause(ctx.Phase) && ShouldStartCycle(ctx.Heap.Occupied(), ctx.lastOccupation) {
		ctx.startCycle()
	}
	ctx.RunEmptyCallStackIncrement()
}

func (ctx *GcContext) startCycle() {
	ctx.lastOccupation = ctx.Heap.Occupied()
	ctx.Phase = &MarkPhase{Stack: NewMarkStack()}
	mp := ctx.Phase.(*MarkPhase)
	MarkRoots(ctx.Heap, ctx.Access, mp.Stack, ctx.Roots, ctx.Remembered)
	ctx.log.Debugw("gc: started cycle", "occupied", ctx.Heap.Occupied())
	ctx.metrics.CyclesStarted.Inc()
}

// RunEmptyCallStackIncrement runs a LONG-budget increment of the active
// phase. Its precondition (spec.md §4.1) is that no unbarriered pointer
// is live on the mutator's execution stack; the caller (the compiler's
// safe-point machinery) is responsible for only calling this when that
// holds.
func (ctx *GcContext) RunEmptyCallStackIncrement() {
	ctx.runIncrement(NewBoundedTime(LongIncrementLimit))
}

// runPiggybackIncrement runs a SHORT-budget increment, invoked every
// ALLOCATION_INCREMENT_INTERVAL allocations while a cycle is active
// (spec.md §4.6).
func (ctx *GcContext) runPiggybackIncrement() {
	ctx.runIncrement(NewBoundedTime(ShortIncrementLimit))
}

func (ctx *GcContext) runIncrement(budget *BoundedTime) {
	switch p := ctx.Phase.(type) {
	case *PausePhase, *StopPhase:
		// nothing to do
	case *MarkPhase:
		MarkIncrement(ctx.Heap, ctx.Access, p, budget)
		if p.Stack.Empty() && p.Complete {
			ctx.Heap.PlanEvacuations()
			ctx.Phase = &EvacuatePhase{Iter: &HeapIteratorState{Cursor: ctx.Heap.BaseAddress()}}
			ctx.log.Debug("gc: mark complete, planning evacuations")
		}
	case *EvacuatePhase:
		if EvacuateIncrement(ctx.Heap, ctx.Access, p, budget) {
			ctx.Phase = &UpdatePhase{Iter: &HeapIteratorState{Cursor: ctx.Heap.BaseAddress()}}
			UpdateRoots(ctx.Access, ctx.Heap.BaseAddress(), ctx.Roots)
			ctx.log.Debug("gc: evacuation complete")
		}
	case *UpdatePhase:
		if UpdateIncrement(ctx.Heap, ctx.Access, p, budget) {
			ctx.Heap.FreeEvacuatedPartitions()
			ctx.Phase = &PausePhase{}
			ctx.log.Debug("gc: update complete, cycle done")
			ctx.metrics.CyclesCompleted.Inc()
		}
	default:
		Trap("runIncrement: unknown phase")
	}
	ctx.metrics.IncrementSteps.Add(float64(budget.Steps()))
	ctx.metrics.PartitionsLive.Set(float64(len(ctx.Heap.Partitions())))
}

// StopGCOnUpgrade freezes the collector in whatever phase it currently
// occupies (spec.md §4.1). No further transitions occur; PreWrite becomes
// a plain store and PostAllocBarrier a no-op, with no marking and no
// forwarding resolution.
func (ctx *GcContext) StopGCOnUpgrade() {
	ctx.Phase = &StopPhase{}
	ctx.log.Info("gc: stopped on upgrade")
}

// NotifyAllocation counts one allocation toward the piggyback schedule
// (spec.md §4.6). PostAllocBarrier calls it on entry, so every object
// allocated through AllocateObject is counted once.
func (ctx *GcContext) NotifyAllocation() {
	if IsPause(ctx.Phase) || IsStop(ctx.Phase) {
		return
	}
	ctx.allocsSincePiggyback++
	if ctx.allocsSincePiggyback >= AllocationIncrementInterval {
		ctx.allocsSincePiggyback = 0
		ctx.runPiggybackIncrement()
	}
}
