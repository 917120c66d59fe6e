// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// wordsFor returns the total block size, in words, for a fresh object of
// the given tag/length, mirroring BlockSize's per-tag arithmetic before a
// header exists to inspect.
func wordsFor(tag Tag, length uint32) uint32 {
	switch tag {
	case TagArray, TagObject, TagBigInt, TagFreeSpace, TagFreeBlock:
		return uint32(headerWords) + length
	case TagBlob:
		return uint32(headerWords) + wordsForBytes(length)
	case TagMutBox, TagNull:
		return uint32(headerWords) + 1
	case TagRegion:
		return uint32(headerWords) + regionWords
	case TagOneWordFiller:
		return uint32(headerWords)
	default:
		Trap("wordsFor: corrupt tag")
		return 0
	}
}

// AllocateObject bump-allocates a fresh object from the partitioned heap,
// writes its header, and runs the post-allocation barrier (spec.md §4.6),
// mirroring mcache.go's allocate-then-initialize-then-notify sequence.
// The caller is responsible for writing the object's payload fields
// before any other mutator code can observe the object (the barrier
// assumes an object is "fully initialized" at this point, per spec.md).
func (ctx *GcContext) AllocateObject(tag Tag, length uint32) Value {
	words := wordsFor(tag, length)
	addr := ctx.Heap.Allocate(words)
	ctx.Access.WriteHeader(addr, NewHeader(addr, tag, length))
	v := FromPointer(addr)
	ctx.PostAllocBarrier(v)
	return v
}
