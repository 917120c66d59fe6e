// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// markSegmentSize is the number of Values held in one mark-stack segment,
// grounded on mgcwork.go's _WorkbufSize: large enough to amortize segment
// allocation, small enough not to waste much space on a partially-filled
// top segment.
const markSegmentSize = 512

// markSegment is one node of the segmented mark stack. Unlike mgcwork.go's
// producer/consumer pool of workbufs (needed because Go's GC has many
// concurrent mark workers), spec.md's single cooperative mark stack only
// ever needs one writer, so a plain linked list of segments suffices.
type markSegment struct {
	values [markSegmentSize]Value
	len    int
	next   *markSegment
}

// MarkStack is a segmented stack of Values awaiting scan, growing by
// allocating additional segments from the Go heap itself (not the managed
// heap under collection — mark-stack segments are ordinary Go slices, by
// design: they are scratch state of the collector, not mutator-visible
// objects, and are discarded wholesale when Mark completes, spec.md §4.3).
type MarkStack struct {
	top *markSegment
	n   int
}

// NewMarkStack returns an empty mark stack.
func NewMarkStack() *MarkStack {
	return &MarkStack{}
}

// Empty reports whether the stack holds no pending work (I3).
func (s *MarkStack) Empty() bool {
	return s.n == 0
}

// Len returns the number of pending entries, used for metrics and tests.
func (s *MarkStack) Len() int {
	return s.n
}

// Push is O(1) amortized: it only allocates a new segment when the
// current one is full.
func (s *MarkStack) Push(v Value) {
	if s.top == nil || s.top.len == markSegmentSize {
		seg := &markSegment{next: s.top}
		s.top = seg
	}
	s.top.values[s.top.len] = v
	s.top.len++
	s.n++
}

// Pop is O(1): it removes the top segment once drained.
func (s *MarkStack) Pop() (Value, bool) {
	if s.top == nil {
		return 0, false
	}
	s.top.len--
	v := s.top.values[s.top.len]
	s.n--
	if s.top.len == 0 {
		s.top = s.top.next
	}
	return v, true
}
