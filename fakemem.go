// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// FakeMemory is an in-process Memory + HeapAccess implementation backed
// by a Go map keyed by word address, standing in for the host's linear
// memory primitive (spec.md §1, explicitly out of scope). It exists for
// tests and for cmd/gcbench's synthetic mutator; it is not part of the
// collector's public contract.
type FakeMemory struct {
	words      map[uintptr]uintptr // raw words, addressed by byte offset
	headers    map[uintptr]*Header
	staticNext uintptr // bump pointer for the static segment, below heapBase
	next       uintptr // host watermark for dynamic-heap host allocations
	heapBase   uintptr
	lastHeap   uintptr
}

// NewFakeMemory creates an empty address space with the dynamic heap
// starting at heapBase. Partition 0 implicitly claims
// [heapBase, heapBase+PartitionSize*word) without going through
// AllocWords (spec.md §4.2: the heap's own base is where the first
// partition begins), so the host watermark used by AllocWords starts
// immediately after it.
func NewFakeMemory(heapBase uintptr) *FakeMemory {
	return &FakeMemory{
		words:    make(map[uintptr]uintptr),
		headers:  make(map[uintptr]*Header),
		next:     heapBase + PartitionSize*WordSize,
		heapBase: heapBase,
	}
}

func (m *FakeMemory) AllocWords(n uint32) (Value, error) {
	addr := m.next
	m.next += uintptr(n) * WordSize
	return FromPointer(addr), nil
}

func (m *FakeMemory) HeapBase() uintptr            { return m.heapBase }
func (m *FakeMemory) HeapPointer() uintptr         { return m.next }
func (m *FakeMemory) LastHeapPointer() uintptr     { return m.lastHeap }
func (m *FakeMemory) SetHeapBase(v uintptr)        { m.heapBase = v }
func (m *FakeMemory) SetLastHeapPointer(v uintptr) { m.lastHeap = v }

// --- HeapAccess --------------------------------------------------------

func (m *FakeMemory) ReadHeader(addr uintptr) *Header {
	h, ok := m.headers[addr]
	if !ok {
		Trap("FakeMemory: read of uninitialized header")
	}
	cp := *h
	return &cp
}

func (m *FakeMemory) WriteHeader(addr uintptr, h *Header) {
	cp := *h
	m.headers[addr] = &cp
}

func (m *FakeMemory) ReadValue(addr uintptr) Value {
	return Value(m.words[addr])
}

func (m *FakeMemory) WriteValue(addr uintptr, v Value) {
	m.words[addr] = uintptr(v)
}

func (m *FakeMemory) CopyWords(dst, src uintptr, words uint32) {
	if h, ok := m.headers[src]; ok {
		cp := *h
		m.headers[dst] = &cp
	}
	for i := uintptr(0); i < uintptr(words)*WordSize; i += WordSize {
		if v, ok := m.words[src+i]; ok {
			m.words[dst+i] = v
		}
	}
}

// AllocObject is a test/benchmark convenience: bump-allocate a header of
// the given tag/length directly (bypassing PartitionedHeap), used to seed
// static-segment objects strictly below the dynamic heap base — the
// static mutable boxes and the continuation table cell that spec.md §3's
// Roots point at.
func (m *FakeMemory) AllocObject(tag Tag, length uint32) uintptr {
	addr := m.staticNext
	words := wordsFor(tag, length)
	m.staticNext += uintptr(words) * WordSize
	if m.staticNext > m.heapBase {
		Trap("FakeMemory: static segment overflowed into the dynamic heap")
	}
	m.headers[addr] = NewHeader(addr, tag, length)
	return addr
}
