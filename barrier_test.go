// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*GcContext, *FakeMemory) {
	t.Helper()
	mem := NewFakeMemory(0x10000)
	roots := &Roots{}
	ctx := NewGcContext(mem, mem, mem.HeapBase(), roots, nil, nil)
	return ctx, mem
}

func TestPreWriteDuringPauseIsPlainStore(t *testing.T) {
	ctx, mem := newTestContext(t)
	obj := allocObj(ctx.Heap, mem, TagObject, 1)
	field := FieldAddr(obj, 0)

	ctx.PreWrite(field, FromScalar(42<<1))
	require.Equal(t, FromScalar(42<<1), mem.ReadValue(field))
}

func TestPreWriteDuringMarkShadesOverwrittenPointer(t *testing.T) {
	ctx, mem := newTestContext(t)
	victim := allocObj(ctx.Heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(victim, 0), NullValue)

	holder := allocObj(ctx.Heap, mem, TagObject, 1)
	mem.WriteValue(FieldAddr(holder, 0), FromPointer(victim))

	stack := NewMarkStack()
	ctx.Phase = &MarkPhase{Stack: stack}

	ctx.PreWrite(FieldAddr(holder, 0), NullValue)

	require.True(t, mem.ReadHeader(victim).Marked(), "the value about to be overwritten must be shaded before it is lost")
	require.Equal(t, NullValue, mem.ReadValue(FieldAddr(holder, 0)))
}

func TestPreWriteDuringUpdateForwardsNewValue(t *testing.T) {
	ctx, mem := newTestContext(t)
	obj := allocObj(ctx.Heap, mem, TagObject, 1)
	h := mem.ReadHeader(obj)
	evacuated := ctx.Heap.Allocate(BlockSize(h))
	h.Forward = FromPointer(evacuated)
	mem.WriteHeader(obj, h)

	holder := allocObj(ctx.Heap, mem, TagObject, 1)
	ctx.Phase = &UpdatePhase{Iter: &HeapIteratorState{Cursor: ctx.Heap.BaseAddress()}}

	ctx.PreWrite(FieldAddr(holder, 0), FromPointer(obj))
	require.Equal(t, FromPointer(evacuated), mem.ReadValue(FieldAddr(holder, 0)))
}

func TestPostAllocBarrierDuringMarkMarksNewObject(t *testing.T) {
	ctx, mem := newTestContext(t)
	ctx.Phase = &MarkPhase{Stack: NewMarkStack()}

	obj := ctx.AllocateObject(TagObject, 1)
	require.True(t, mem.ReadHeader(obj.AsObjAddr()).Marked())
}

func TestPostAllocBarrierDuringUpdateForwardsFields(t *testing.T) {
	ctx, mem := newTestContext(t)

	target := allocObj(ctx.Heap, mem, TagObject, 1)
	th := mem.ReadHeader(target)
	evacuated := ctx.Heap.Allocate(BlockSize(th))
	th.Forward = FromPointer(evacuated)
	mem.WriteHeader(target, th)

	ctx.Phase = &UpdatePhase{Iter: &HeapIteratorState{Cursor: ctx.Heap.BaseAddress()}}

	addr := ctx.Heap.Allocate(wordsFor(TagObject, 1))
	mem.WriteHeader(addr, NewHeader(addr, TagObject, 1))
	mem.WriteValue(FieldAddr(addr, 0), FromPointer(target))

	ctx.PostAllocBarrier(FromPointer(addr))
	require.Equal(t, FromPointer(evacuated), mem.ReadValue(FieldAddr(addr, 0)))
}
