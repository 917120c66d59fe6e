// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fillPartition tops up the heap's current allocation partition with
// one-word filler objects so the next Allocate call is forced to open a
// fresh partition, letting tests control exactly which partition an
// object lands in.
func fillPartition(heap *PartitionedHeap, mem *FakeMemory) {
	for heap.AllocPartition().HasSpace(headerWords) {
		addr := heap.Allocate(headerWords)
		mem.WriteHeader(addr, NewHeader(addr, TagOneWordFiller, 0))
	}
}

func TestEvacuateIncrementCopiesMarkedObjectsAndForwards(t *testing.T) {
	mem, heap := newTestHeap(t)

	victim := allocObj(heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(victim, 0), NullValue)
	h := mem.ReadHeader(victim)
	h.SetMarked()
	mem.WriteHeader(victim, h)
	heap.RecordMarkedSpace(h, victim)

	srcPartition := heap.partitionOf(victim)
	fillPartition(heap, mem) // force evacuation target into a new partition
	srcPartition.ToBeEvacuated = true

	phase := &EvacuatePhase{Iter: &HeapIteratorState{Cursor: heap.BaseAddress()}}
	for {
		done := EvacuateIncrement(heap, mem, phase, NewBoundedTime(LongIncrementLimit))
		if done {
			break
		}
	}

	newHeader := mem.ReadHeader(victim)
	require.True(t, newHeader.IsForwarded(victim))
	fwd := newHeader.Forward
	require.True(t, fwd.IsPtr())
	require.NotEqual(t, victim, fwd.AsObjAddr())

	copied := mem.ReadHeader(fwd.AsObjAddr())
	require.Equal(t, TagObject, copied.Tag())
	require.True(t, copied.Marked())
}

func TestEvacuateIncrementSkipsUnmarkedObjects(t *testing.T) {
	mem, heap := newTestHeap(t)

	dead := allocObj(heap, mem, TagObject, 1)
	srcPartition := heap.partitionOf(dead)
	fillPartition(heap, mem)
	srcPartition.ToBeEvacuated = true

	phase := &EvacuatePhase{Iter: &HeapIteratorState{Cursor: heap.BaseAddress()}}
	for !EvacuateIncrement(heap, mem, phase, NewBoundedTime(LongIncrementLimit)) {
	}

	require.False(t, mem.ReadHeader(dead).IsForwarded(dead), "unmarked objects in an evacuated partition must not be copied")
}

func TestUpdateIncrementRewritesRootsAndFields(t *testing.T) {
	mem, heap := newTestHeap(t)

	child := allocObj(heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(child, 0), NullValue)
	childHeader := mem.ReadHeader(child)
	childHeader.SetMarked()
	mem.WriteHeader(child, childHeader)
	heap.RecordMarkedSpace(childHeader, child)

	// Flagging child's partition for evacuation must not also sweep up
	// parent: push parent into a fresh, non-evacuated partition first.
	childPartition := heap.partitionOf(child)
	fillPartition(heap, mem)

	parent := allocObj(heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(parent, 0), FromPointer(child))
	parentHeader := mem.ReadHeader(parent)
	parentHeader.SetMarked()
	mem.WriteHeader(parent, parentHeader)
	heap.RecordMarkedSpace(parentHeader, parent)

	box := mem.AllocObject(TagMutBox, 0)
	mem.WriteValue(FieldAddr(box, 0), FromPointer(parent))
	roots := &Roots{StaticRoots: []uintptr{FieldAddr(box, 0)}}

	childPartition.ToBeEvacuated = true

	evPhase := &EvacuatePhase{Iter: &HeapIteratorState{Cursor: heap.BaseAddress()}}
	for !EvacuateIncrement(heap, mem, evPhase, NewBoundedTime(LongIncrementLimit)) {
	}

	UpdateRoots(mem, heap.BaseAddress(), roots)

	updPhase := &UpdatePhase{Iter: &HeapIteratorState{Cursor: heap.BaseAddress()}}
	for !UpdateIncrement(heap, mem, updPhase, NewBoundedTime(LongIncrementLimit)) {
	}

	newChild := mem.ReadHeader(child).Forward
	require.NotEqual(t, FromPointer(child), newChild)

	gotParentField := mem.ReadValue(FieldAddr(parent, 0))
	require.Equal(t, newChild, gotParentField, "parent's field must be rewritten to child's new address")

	require.False(t, mem.ReadHeader(parent).Marked(), "mark bit must be cleared by Update")
}

func TestUpdateIncrementResumesArraySliceAcrossIncrements(t *testing.T) {
	mem, heap := newTestHeap(t)

	length := uint32(SliceIncrement*2 + 5)
	arr := allocObj(heap, mem, TagArray, length)
	for i := uint32(0); i < length; i++ {
		mem.WriteValue(FieldAddr(arr, i), NullValue)
	}
	h := mem.ReadHeader(arr)
	h.SetMarked()
	mem.WriteHeader(arr, h)

	phase := &UpdatePhase{Iter: &HeapIteratorState{Cursor: heap.BaseAddress()}}
	done := UpdateIncrement(heap, mem, phase, NewBoundedTime(int64(SliceIncrement)))
	require.False(t, done)
	require.True(t, mem.ReadHeader(arr).Tag().IsArraySlice(), "a partially updated array must leave a resume marker")

	for !done {
		done = UpdateIncrement(heap, mem, phase, NewBoundedTime(LongIncrementLimit))
	}
	require.Equal(t, TagArray, mem.ReadHeader(arr).Tag())
	require.False(t, mem.ReadHeader(arr).Marked())
}
