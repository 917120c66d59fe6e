// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduleIncrementalGCStartsCycleOnGrowth(t *testing.T) {
	mem := NewFakeMemory(0x10000)
	ctx := NewGcContext(mem, mem, mem.HeapBase(), &Roots{}, nil, nil)

	for i := 0; i < PartitionSize/4; i++ {
		ctx.AllocateObject(TagObject, 1)
	}
	require.True(t, IsPause(ctx.Phase))

	ctx.ScheduleIncrementalGC()
	require.False(t, IsPause(ctx.Phase), "sufficient relative growth over one partition must start a cycle")
}

func TestNotifyAllocationDrivesPiggybackIncrement(t *testing.T) {
	mem := NewFakeMemory(0x10000)
	ctx := NewGcContext(mem, mem, mem.HeapBase(), &Roots{}, nil, nil)

	box := mem.AllocObject(TagMutBox, 0)
	boxField := FieldAddr(box, 0)
	ctx.Roots.StaticRoots = []uintptr{boxField}

	target := ctx.AllocateObject(TagObject, 1)
	ctx.PreWrite(boxField, target)

	ctx.startCycle()
	require.IsType(t, &MarkPhase{}, ctx.Phase)
	stepsBefore := ctx.Phase.(*MarkPhase).Stack.Len()
	require.Greater(t, stepsBefore, 0)

	for i := 0; i < AllocationIncrementInterval; i++ {
		ctx.NotifyAllocation()
	}
	require.IsType(t, &EvacuatePhase{}, ctx.Phase, "one piggyback increment finishes marking the single rooted object and moves on to Evacuate")
}

func TestNotifyAllocationIsNoopOutsideACycle(t *testing.T) {
	mem := NewFakeMemory(0x10000)
	ctx := NewGcContext(mem, mem, mem.HeapBase(), &Roots{}, nil, nil)

	for i := 0; i < AllocationIncrementInterval*2; i++ {
		ctx.NotifyAllocation()
	}
	require.True(t, IsPause(ctx.Phase))
}
