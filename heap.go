// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// PartitionSize is a fixed, power-of-two partition size (spec.md §3 calls
// the exact value an implementation choice). 128 KiB keeps a benchmark
// heap of a few hundred MiB comfortably under MaxPartitions while still
// giving the evacuation heuristic (§4.2) enough objects per partition to
// be meaningful, grounded on buildbarn-bb-storage's block_allocator.go
// fixed-block sizing.
const PartitionSize = 128 * 1024 / WordSize // in words

// MaxPartitions bounds the partition array's capacity (spec.md §3).
const MaxPartitions = 1 << 16

// Partition is a fixed-size contiguous region of the dynamic heap and the
// unit of evacuation (spec.md §3), grounded on buildbarn-bb-storage's
// block_allocator.go and Orizon's region_alloc.go region-state machine.
type Partition struct {
	Index            int
	Base             uintptr
	End              uintptr
	Free             uintptr // bump pointer within [Base, End)
	MarkedBytes      uint64
	ToBeEvacuated    bool
	IsAllocPartition bool
}

func newPartition(index int, base uintptr) *Partition {
	return &Partition{
		Index: index,
		Base:  base,
		End:   base + PartitionSize*WordSize,
		Free:  base,
	}
}

// HasSpace reports whether n words still fit in this partition.
func (p *Partition) HasSpace(words uint32) bool {
	return p.Free+uintptr(words)*WordSize <= p.End
}

// bump reserves n words and returns the address they start at.
func (p *Partition) bump(words uint32) uintptr {
	addr := p.Free
	p.Free += uintptr(words) * WordSize
	return addr
}

// reset clears a partition's metadata so it can be reused after its
// contents have been evacuated and freed (spec.md §4.2,
// free_evacuated_partitions).
func (p *Partition) reset() {
	p.Free = p.Base
	p.MarkedBytes = 0
	p.ToBeEvacuated = false
	p.IsAllocPartition = false
}

// occupiedBytes is the portion of the partition currently bump-allocated.
func (p *Partition) occupiedBytes() uint64 {
	return uint64(p.Free - p.Base)
}

// PartitionedHeap owns the partition array, designates one partition as
// the current allocation partition, and tracks total occupied and marked
// size (spec.md §3).
type PartitionedHeap struct {
	mem        Memory
	partitions []*Partition
	allocIndex int

	baseAddress  uintptr
	occupied     uint64
	markedTotal  uint64
}

// NewPartitionedHeap creates a heap whose dynamic region begins at
// baseAddress, pulling partitions from mem as needed.
func NewPartitionedHeap(mem Memory, baseAddress uintptr) *PartitionedHeap {
	h := &PartitionedHeap{mem: mem, baseAddress: baseAddress, allocIndex: -1}
	h.openPartition(baseAddress)
	return h
}

// BaseAddress is the lowest dynamic-heap address; addresses below it are
// static (spec.md §4.2).
func (h *PartitionedHeap) BaseAddress() uintptr {
	return h.baseAddress
}

// AdvanceBase moves the heap's base address forward. It exists for the
// object-table variant (package objtable), whose table grows by consuming
// the block immediately following it and advancing heap_base over that
// space (spec.md §4.7). The forwarding-pointer variant never calls this.
func (h *PartitionedHeap) AdvanceBase(newBase uintptr) {
	h.baseAddress = newBase
}

func (h *PartitionedHeap) openPartition(base uintptr) *Partition {
	if len(h.partitions) >= MaxPartitions {
		Trap("PartitionedHeap: MaxPartitions exceeded")
	}
	p := newPartition(len(h.partitions), base)
	p.IsAllocPartition = true
	if h.allocIndex >= 0 {
		h.partitions[h.allocIndex].IsAllocPartition = false
	}
	h.partitions = append(h.partitions, p)
	h.allocIndex = p.Index
	return p
}

// AllocPartition returns the current allocation partition.
func (h *PartitionedHeap) AllocPartition() *Partition {
	return h.partitions[h.allocIndex]
}

// Partitions exposes the backing array for iteration.
func (h *PartitionedHeap) Partitions() []*Partition {
	return h.partitions
}

// Occupied and Marked report the heap-wide running totals used by the
// scheduler's start policy (spec.md §4.1).
func (h *PartitionedHeap) Occupied() uint64 { return h.occupied }
func (h *PartitionedHeap) Marked() uint64   { return h.markedTotal }

// Allocate bump-allocates words from the current allocation partition,
// opening a fresh one (or reusing a freed, reset partition) when it runs
// out. Failing to find room at all is fatal (spec.md §4.2).
func (h *PartitionedHeap) Allocate(words uint32) uintptr {
	cur := h.AllocPartition()
	if !cur.HasSpace(words) {
		if p := h.findFreePartition(words); p != nil {
			h.promote(p)
			cur = p
		} else {
			fresh, err := h.mem.AllocWords(PartitionSize)
			if err != nil {
				Trapf(err, "PartitionedHeap.Allocate: out of partitions")
			}
			cur = h.openPartition(fresh.AsObjAddr())
		}
	}
	if !cur.HasSpace(words) {
		Trap("PartitionedHeap.Allocate: object larger than a partition")
	}
	addr := cur.bump(words)
	h.occupied += uint64(words) * WordSize
	return addr
}

// findFreePartition looks for a previously-reset (empty) partition with
// enough room, avoiding a fresh host allocation when reclaimed space
// suffices.
func (h *PartitionedHeap) findFreePartition(words uint32) *Partition {
	for _, p := range h.partitions {
		if p.Index != h.allocIndex && p.occupiedBytes() == 0 && p.HasSpace(words) {
			return p
		}
	}
	return nil
}

func (h *PartitionedHeap) promote(p *Partition) {
	h.partitions[h.allocIndex].IsAllocPartition = false
	p.IsAllocPartition = true
	h.allocIndex = p.Index
}

// RecordMarkedSpace adds the live size of obj to its partition's marked
// counter and the heap-wide total (spec.md §4.2).
func (h *PartitionedHeap) RecordMarkedSpace(obj *Header, addr uintptr) {
	size := uint64(BlockSize(obj)) * WordSize
	p := h.partitionOf(addr)
	p.MarkedBytes += size
	h.markedTotal += size
}

func (h *PartitionedHeap) partitionOf(addr uintptr) *Partition {
	for _, p := range h.partitions {
		if addr >= p.Base && addr < p.End {
			return p
		}
	}
	Trap("PartitionedHeap: address not in any partition")
	return nil
}

// PlanEvacuations scans every partition that is not the current
// allocation partition and marks it to_be_evacuated if its marked bytes
// fall at or below EVAC_THRESHOLD of the partition size — the "high
// garbage" heuristic spec.md §4.2 leaves to the implementer.
func (h *PartitionedHeap) PlanEvacuations() {
	threshold := uint64(float64(PartitionSize*WordSize) * evacuationThreshold)
	for _, p := range h.partitions {
		if p.Index == h.allocIndex {
			continue
		}
		if p.occupiedBytes() == 0 {
			continue
		}
		p.ToBeEvacuated = p.MarkedBytes <= threshold
	}
}

// FreeEvacuatedPartitions resets every to_be_evacuated partition after
// Update has rewritten all pointers into it, reclaiming its storage in
// one step (spec.md §4.5).
func (h *PartitionedHeap) FreeEvacuatedPartitions() {
	for _, p := range h.partitions {
		if p.ToBeEvacuated {
			reclaimed := p.occupiedBytes()
			if h.occupied < reclaimed {
				Trap("PartitionedHeap: occupied underflow")
			}
			h.occupied -= reclaimed
			h.markedTotal -= p.MarkedBytes
			p.reset()
		}
	}
}

// HeapIteratorState is a resumable (partition index, cursor) pair so
// Evacuate and Update increment boundaries can suspend and resume a heap walk without
// re-scanning from the start (spec.md §4.2).
type HeapIteratorState struct {
	PartitionIndex int
	Cursor         uintptr
}

// HeapIterator walks partitions in index order and, within each
// partition, blocks linearly by BlockSize, skipping free-space and filler
// tags.
type HeapIterator struct {
	heap  *PartitionedHeap
	state HeapIteratorState
	read  func(addr uintptr) *Header
}

// NewHeapIterator starts a fresh walk from the heap's base address.
func NewHeapIterator(heap *PartitionedHeap, read func(uintptr) *Header) *HeapIterator {
	return ResumeHeapIterator(heap, HeapIteratorState{Cursor: heap.BaseAddress()}, read)
}

// ResumeHeapIterator reconstructs a walker at a previously saved cursor.
func ResumeHeapIterator(heap *PartitionedHeap, state HeapIteratorState, read func(uintptr) *Header) *HeapIterator {
	return &HeapIterator{heap: heap, state: state, read: read}
}

// State snapshots the iterator's current position for a phase payload.
func (it *HeapIterator) State() HeapIteratorState {
	return it.state
}

// Done reports whether the walk has visited every partition.
func (it *HeapIterator) Done() bool {
	return it.state.PartitionIndex >= len(it.heap.partitions)
}

// Peek returns the object at the iterator's current position without
// advancing past it, skipping free-space and filler blocks. Callers that
// need to revisit a partially-processed object across increments (Update's
// array slicing, spec.md §4.5) use Peek + Advance instead of NextObject.
func (it *HeapIterator) Peek() (addr uintptr, h *Header, ok bool) {
	for !it.Done() {
		p := it.heap.partitions[it.state.PartitionIndex]
		if it.state.Cursor == 0 {
			it.state.Cursor = p.Base
		}
		if it.state.Cursor >= p.Free {
			it.state.PartitionIndex++
			it.state.Cursor = 0
			continue
		}
		addr = it.state.Cursor
		h = it.read(addr)
		if h.Tag() == TagFreeSpace || h.Tag() == TagOneWordFiller || h.Tag() == TagFreeBlock {
			it.state.Cursor += uintptr(BlockSize(h)) * WordSize
			continue
		}
		return addr, h, true
	}
	return 0, nil, false
}

// Advance skips past the object last returned by Peek, re-reading its
// header so a caller's in-place tag edits (e.g. restoring TAG_ARRAY after
// a slice completes) are reflected in the skip distance.
func (it *HeapIterator) Advance(addr uintptr) {
	h := it.read(addr)
	it.state.Cursor = addr + uintptr(BlockSize(h))*WordSize
}

// NextObject advances past the current object and returns the next
// non-filler header along with its address, or ok=false when the walk is
// complete.
func (it *HeapIterator) NextObject() (addr uintptr, h *Header, ok bool) {
	addr, h, ok = it.Peek()
	if !ok {
		return 0, nil, false
	}
	it.Advance(addr)
	return addr, h, true
}
