// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// Increment budgets (spec.md §4.1). LONG bounds the empty-call-stack
// increment; SHORT bounds the per-allocation piggyback increment so GC
// progress stays proportional to allocation pressure without waiting for
// a schedule point.
const (
	LongIncrementLimit  = 1_000_000
	ShortIncrementLimit = 50_000

	// ALLOCATION_INCREMENT_INTERVAL: run a SHORT increment every this
	// many allocations while a cycle is active (spec.md §4.6).
	AllocationIncrementInterval = 100

	// SliceIncrement bounds per-pop array scanning work (spec.md §4.3).
	SliceIncrement = 128
)

// BoundedTime counts synthetic work units consumed by an increment. Each
// marked/scanned object, and each array element scanned during slicing,
// contributes one tick. Checked only at loop heads: an increment never
// preempts mid-object (spec.md §5).
type BoundedTime struct {
	steps int64
	limit int64
}

// NewBoundedTime starts a fresh budget of limit ticks.
func NewBoundedTime(limit int64) *BoundedTime {
	return &BoundedTime{limit: limit}
}

// Tick consumes n units of budget.
func (b *BoundedTime) Tick(n int64) {
	b.steps += n
}

// IsOver reports whether the budget has been exhausted.
func (b *BoundedTime) IsOver() bool {
	return b.steps >= b.limit
}

// Steps returns the number of ticks consumed so far, exposed for metrics.
func (b *BoundedTime) Steps() int64 {
	return b.steps
}

// relativeGrowthThreshold and criticalLimit implement spec.md §4.1's start
// policy. EVAC_THRESHOLD and HEAP_GROWTH_RATE were left as an Open
// Question by spec.md (source constants not shown); DESIGN.md records the
// chosen values.
const (
	relativeGrowthThreshold = 0.33
	evacuationThreshold     = 0.50 // "≤ 50% marked" heuristic, spec.md §4.2
)

// criticalLimit approximates usize::MAX - 2*PartitionSize (in bytes) for a
// 32-bit address space host (spec.md §4.1). occupation is tracked in bytes
// (heap.go's Occupied), so the partition size must be converted from words
// to bytes here too.
func criticalLimit() uint64 {
	return ^uint64(0)>>32 - 2*uint64(PartitionSize)*WordSize
}

// ShouldStartCycle implements spec.md §4.1's start policy:
// relative_growth > 0.33 ∧ occupation ≥ PARTITION_SIZE, or
// occupation > CRITICAL_LIMIT. occupation and lastOccupation are both in
// bytes, so the comparison against PartitionSize (a word count) must
// convert it to bytes first.
func ShouldStartCycle(occupation, lastOccupation uint64) bool {
	if occupation > criticalLimit() {
		return true
	}
	if occupation == 0 || occupation <= lastOccupation {
		return false
	}
	relativeGrowth := float64(occupation-lastOccupation) / float64(occupation)
	return relativeGrowth > relativeGrowthThreshold && occupation >= uint64(PartitionSize)*WordSize
}
