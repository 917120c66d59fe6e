// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package objtable implements the object table of the indirection variant
// (spec.md §4.7): id→address indirection instead of in-place forwarding.
// It provides id allocation and release, MoveObject, GetObjectAddress and
// Grow, built on package gc's Value, Header, PartitionedHeap, HeapAccess
// and RememberedSet. It is not wired into gc.GcContext: the phase state
// machine, barriers and increments in package gc use forwarding pointers
// and never consult a Table.
//
// Grounded on tinygo's gc_extalloc.go / gc_custom_extalloc.go (external
// allocator id indirection with a free list threaded through freed slots)
// and cznic/lldb's falloc.go (handle→address indirection over a flat
// array with its own free-atom list).
package objtable

import gc "github.com/dfinity/motoko-rts-go"

// NullObjectID is the sentinel ending the free stack (spec.md §4.7).
const NullObjectID = gc.Value(^uintptr(0))

// Table is a word-array of length L living at [table_base, table_base +
// L·word), placed between the static segment and the dynamic heap
// (spec.md §3). Each slot holds either a live object's current address or,
// while on the free stack, the next-free id. Base is immutable after
// installation; only the slot count grows (spec.md §4.7 invariants).
type Table struct {
	base    uintptr
	slots   []uintptr
	free    gc.Value
	metrics *gc.Metrics
}

// New installs a table of the given initial length at base.
func New(base uintptr, initialLength uint32) *Table {
	t := &Table{base: base, free: NullObjectID}
	t.slots = make([]uintptr, 0, initialLength)
	t.appendFreeSlots(initialLength)
	return t
}

// SetMetrics attaches a metrics sink whose ObjectTableLen gauge is updated
// whenever the table's slot count changes (New, Grow). Tests and other
// callers that don't care about metrics can leave this unset.
func (t *Table) SetMetrics(m *gc.Metrics) {
	t.metrics = m
	t.reportLen()
}

func (t *Table) reportLen() {
	if t.metrics != nil {
		t.metrics.ObjectTableLen.Set(float64(len(t.slots)))
	}
}

// Base returns the table's fixed base address.
func (t *Table) Base() uintptr { return t.base }

// Len returns the table's current slot count L.
func (t *Table) Len() int { return len(t.slots) }

func (t *Table) slotIndex(id gc.Value) int {
	if gc.Debug && !id.IsPtr() {
		gc.Trap("objtable: id is not a pointer")
	}
	idx := (id.AsObjAddr() - t.base) / gc.WordSize
	if gc.Debug && int(idx) >= len(t.slots) {
		gc.Trap("objtable: id out of range")
	}
	return int(idx)
}

func (t *Table) idOf(index int) gc.Value {
	return gc.FromPointer(t.base + uintptr(index)*gc.WordSize)
}

// NewObjectID pops a free slot, writes address into it, and returns the
// id referring to that slot (spec.md §4.7).
func (t *Table) NewObjectID(address uintptr) gc.Value {
	if t.free == NullObjectID {
		gc.Trap("objtable: free stack exhausted; call Grow first")
	}
	id := t.free
	idx := t.slotIndex(id)
	t.free = gc.Value(t.slots[idx]) // next-free, threaded through the slot
	t.slots[idx] = address
	return id
}

// FreeObjectID returns id to the free stack, threading it onto the
// current top (spec.md §4.7).
func (t *Table) FreeObjectID(id gc.Value) {
	idx := t.slotIndex(id)
	t.slots[idx] = uintptr(t.free)
	t.free = id
}

// MoveObject overwrites id's slot with its new current address, the
// O(1)-relocation operation the object table exists to provide (spec.md
// §4.7, P4).
func (t *Table) MoveObject(id gc.Value, newAddr uintptr) {
	t.slots[t.slotIndex(id)] = newAddr
}

// GetObjectAddress reads id's current address.
func (t *Table) GetObjectAddress(id gc.Value) uintptr {
	return t.slots[t.slotIndex(id)]
}

func (t *Table) appendFreeSlots(n uint32) {
	for i := uint32(0); i < n; i++ {
		idx := len(t.slots)
		t.slots = append(t.slots, uintptr(t.free))
		t.free = t.idOf(idx)
	}
	t.reportLen()
}

// Grow extends the table into the dynamic heap when the free stack is
// empty (spec.md §4.7). It consumes the block immediately following the
// table: a filler is simply absorbed, a real object is relocated to the
// top of the heap via access.CopyWords and heap.Allocate, its table slot
// is updated in place (no reverse address→id search: the object-table
// variant stores each object's own id in its header's Forward field
// rather than a self-forwarding address, since this variant never needs
// in-place forwarding — see DESIGN.md), and — if the relocated object's
// old address was below lastHeapPointer — its id is inserted into the
// young remembered set to preserve old→young edges across the move.
func (t *Table) Grow(heap *gc.PartitionedHeap, access gc.HeapAccess, remembered *gc.RememberedSet, lastHeapPointer uintptr) {
	if t.free != NullObjectID {
		return
	}

	oldBase := heap.BaseAddress()
	h := access.ReadHeader(oldBase)
	size := gc.BlockSize(h)

	switch h.Tag() {
	case gc.TagFreeSpace, gc.TagOneWordFiller, gc.TagFreeBlock:
		// already free; just absorb it into the table.
	default:
		id := h.Forward
		newAddr := heap.Allocate(size)
		access.CopyWords(newAddr, oldBase, size)
		t.MoveObject(id, newAddr)
		if oldBase < lastHeapPointer {
			remembered.Insert(id)
		}
	}

	t.appendFreeSlots(size)
	heap.AdvanceBase(oldBase + uintptr(size)*gc.WordSize)
}
