// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// Phase is the collector's discriminated union of states, per DESIGN
// NOTES (spec.md §9): a sum type with per-phase payloads, rather than an
// iota plus a side table of per-phase scratch state the way mgc.go's
// gcphase does it. Go has no sum types, so this is modeled as an
// interface with a private marker method; the concrete *MarkPhase,
// *EvacuatePhase, *UpdatePhase carry the only state that phase needs.
type Phase interface {
	phaseName() string
}

// PausePhase is the initial and steady-state phase: no cycle in progress.
type PausePhase struct{}

func (*PausePhase) phaseName() string { return "pause" }

// MarkPhase holds the mark stack and completion flag for an in-progress
// Mark (spec.md §4.3).
type MarkPhase struct {
	Stack    *MarkStack
	Complete bool
}

func (*MarkPhase) phaseName() string { return "mark" }

// EvacuatePhase holds the resumable heap-iterator cursor for an
// in-progress Evacuate (spec.md §4.4).
type EvacuatePhase struct {
	Iter *HeapIteratorState
}

func (*EvacuatePhase) phaseName() string { return "evacuate" }

// UpdatePhase holds the resumable heap-iterator cursor for an in-progress
// Update (spec.md §4.5).
type UpdatePhase struct {
	Iter *HeapIteratorState
}

func (*UpdatePhase) phaseName() string { return "update" }

// StopPhase is terminal: entered on host upgrade, never left (spec.md
// §4.1). Once here, PreWrite is a plain store and PostAllocBarrier a
// no-op: no marking and no forwarding resolution.
type StopPhase struct{}

func (*StopPhase) phaseName() string { return "stop" }

// IsPause and IsStop are small helpers used at barrier call sites,
// which dispatch on phase far more often than anything else in the
// collector and should not pay for a type switch on every allocation.

func IsPause(p Phase) bool { _, ok := p.(*PausePhase); return ok }
func IsStop(p Phase) bool  { _, ok := p.(*StopPhase); return ok }
