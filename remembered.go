// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "github.com/cespare/xxhash/v2"

// initialTableLength is the remembered set's initial bucket count
// (spec.md §4.8, INITIAL_TABLE_LENGTH).
const initialTableLength = 1024

// RememberedSet is a chained hash table of skewed pointer Values written
// into old-generation objects that may refer into the young generation
// (spec.md §3). It is keyed by Value identity and grows by rehashing,
// grounded on aristanetworks-goarista's hash/map.go custom word-keyed hash
// map, using xxhash for bucket hashing per the domain-stack wiring in
// SPEC_FULL.md §2.
type RememberedSet struct {
	buckets [][]Value
	count   int
}

// NewRememberedSet returns an empty remembered set with
// INITIAL_TABLE_LENGTH buckets.
func NewRememberedSet() *RememberedSet {
	return &RememberedSet{buckets: make([][]Value, initialTableLength)}
}

func hashValue(v Value) uint64 {
	var b [8]byte
	u := uint64(v)
	for i := range b {
		b[i] = byte(u >> (8 * i))
	}
	return xxhash.Sum64(b[:])
}

func (s *RememberedSet) bucketIndex(v Value) int {
	return int(hashValue(v) % uint64(len(s.buckets)))
}

// Insert is idempotent on equal values (spec.md §4.8): inserting a value
// already present is a no-op.
func (s *RememberedSet) Insert(v Value) {
	idx := s.bucketIndex(v)
	for _, existing := range s.buckets[idx] {
		if existing == v {
			return
		}
	}
	s.buckets[idx] = append(s.buckets[idx], v)
	s.count++
	if s.count > len(s.buckets)*4 {
		s.rehash()
	}
}

// Contains reports whether v has been inserted.
func (s *RememberedSet) Contains(v Value) bool {
	idx := s.bucketIndex(v)
	for _, existing := range s.buckets[idx] {
		if existing == v {
			return true
		}
	}
	return false
}

// Clear empties the set and resets it to INITIAL_TABLE_LENGTH buckets.
// None of GcContext's cycle transitions calls it.
func (s *RememberedSet) Clear() {
	s.buckets = make([][]Value, initialTableLength)
	s.count = 0
}

// Len reports the number of distinct entries.
func (s *RememberedSet) Len() int {
	return s.count
}

// ForEach calls fn once per entry, in unspecified order, used by
// VisitRoots (spec.md §4.8) to supply additional roots.
func (s *RememberedSet) ForEach(fn func(Value)) {
	for _, bucket := range s.buckets {
		for _, v := range bucket {
			fn(v)
		}
	}
}

func (s *RememberedSet) rehash() {
	old := s.buckets
	s.buckets = make([][]Value, len(old)*2)
	for _, bucket := range old {
		for _, v := range bucket {
			idx := s.bucketIndex(v)
			s.buckets[idx] = append(s.buckets[idx], v)
		}
	}
}
