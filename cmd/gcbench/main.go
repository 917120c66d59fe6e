// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gcbench drives the incremental collector against a synthetic
// mutator: a churning linked list rooted from a static box, with
// scheduled safe points calling ScheduleIncrementalGC the way a real
// compiler's generated code would. It exists to exercise the collector
// end-to-end outside of unit tests, grounded on storj/storj's and
// ethereum-go-ethereum's cobra+viper command-tree layout.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	gc "github.com/dfinity/motoko-rts-go"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gcbench",
		Short: "Exercise the incremental partitioned-heap GC against a synthetic mutator",
		RunE:  runBench,
	}
	flags := root.Flags()
	flags.Int("nodes", 10_000, "number of linked-list nodes to allocate")
	flags.Int("mutations", 5, "sever one random node's link every this many scheduling ticks")
	flags.Int64("seed", 1, "PRNG seed for the synthetic mutator")
	flags.Bool("debug", false, "enable collector sanity assertions (gc.Debug)")
	_ = viper.BindPFlags(flags)
	return root
}

func runBench(cmd *cobra.Command, args []string) error {
	gc.Debug = viper.GetBool("debug")

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	mem := gc.NewFakeMemory(0x10000)
	metrics := gc.NewNopMetrics()

	rootBox := mem.AllocObject(gc.TagMutBox, 0)
	rootField := gc.FieldAddr(rootBox, 0)
	roots := &gc.Roots{StaticRoots: []uintptr{rootField}}

	ctx := gc.NewGcContext(mem, mem, mem.HeapBase(), roots, logger, metrics)
	gc.InitializeIncrementalGC(ctx)

	nodes := viper.GetInt("nodes")
	mutations := viper.GetInt("mutations")
	rng := rand.New(rand.NewSource(viper.GetInt64("seed")))

	head := gc.NullValue
	var live []gc.Value
	for i := 0; i < nodes; i++ {
		n := ctx.AllocateObject(gc.TagObject, 1) // one field: next
		gc.WriteWithBarrier(gc.FieldAddr(n.AsObjAddr(), 0), head)
		head = n
		live = append(live, n)

		gc.WriteWithBarrier(rootField, head)

		if i%mutations == 0 && len(live) > 1 {
			victim := live[rng.Intn(len(live))]
			gc.WriteWithBarrier(gc.FieldAddr(victim.AsObjAddr(), 0), gc.NullValue)
		}

		ctx.ScheduleIncrementalGC()
	}

	// Drain any cycle still in flight so the final report reflects a
	// settled heap.
	for i := 0; i < 1000 && !gc.IsPause(ctx.Phase); i++ {
		ctx.RunEmptyCallStackIncrement()
	}

	logger.Sugar().Infow("gcbench done",
		"occupied_bytes", ctx.Heap.Occupied(),
		"marked_bytes", ctx.Heap.Marked(),
		"partitions", len(ctx.Heap.Partitions()),
	)
	return nil
}
