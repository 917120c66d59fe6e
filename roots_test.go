// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisitRootsSkipsStaticAndNullFields(t *testing.T) {
	mem, heap := newTestHeap(t)

	inHeap := allocObj(heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(inHeap, 0), NullValue)

	boxToHeap := mem.AllocObject(TagMutBox, 0)
	mem.WriteValue(FieldAddr(boxToHeap, 0), FromPointer(inHeap))

	staticTarget := mem.AllocObject(TagMutBox, 0)
	boxToStatic := mem.AllocObject(TagMutBox, 0)
	mem.WriteValue(FieldAddr(boxToStatic, 0), FromPointer(staticTarget))

	boxEmpty := mem.AllocObject(TagMutBox, 0)
	mem.WriteValue(FieldAddr(boxEmpty, 0), NullValue)

	roots := &Roots{StaticRoots: []uintptr{
		FieldAddr(boxToHeap, 0),
		FieldAddr(boxToStatic, 0),
		FieldAddr(boxEmpty, 0),
	}}

	var visited []Value
	VisitRoots(roots, heap.BaseAddress(), nil, mem, func(_ uintptr, v Value) {
		visited = append(visited, v)
	})

	require.Equal(t, []Value{FromPointer(inHeap)}, visited, "only the dynamic-heap pointer should be visited")
}

func TestVisitRootsIncludesRememberedSetEntries(t *testing.T) {
	mem, heap := newTestHeap(t)
	remembered := NewRememberedSet()
	remembered.Insert(FromPointer(0x99999))

	roots := &Roots{}
	var visited []Value
	VisitRoots(roots, heap.BaseAddress(), remembered, mem, func(_ uintptr, v Value) {
		visited = append(visited, v)
	})

	require.Contains(t, visited, FromPointer(0x99999))
}

func TestVisitRootsIncludesContinuationTable(t *testing.T) {
	mem, heap := newTestHeap(t)
	target := allocObj(heap, mem, TagArray, 0)

	cell := mem.AllocObject(TagMutBox, 0)
	mem.WriteValue(FieldAddr(cell, 0), FromPointer(target))

	roots := &Roots{ContinuationTableLocation: FieldAddr(cell, 0)}
	var visited []Value
	VisitRoots(roots, heap.BaseAddress(), nil, mem, func(_ uintptr, v Value) {
		visited = append(visited, v)
	})

	require.Equal(t, []Value{FromPointer(target)}, visited)
}
