// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkStackEmpty(t *testing.T) {
	s := NewMarkStack()
	require.True(t, s.Empty())
	_, ok := s.Pop()
	require.False(t, ok)
}

func TestMarkStackLIFOOrder(t *testing.T) {
	s := NewMarkStack()
	for i := 0; i < 3; i++ {
		s.Push(FromScalar(uintptr(i << 1)))
	}
	require.Equal(t, 3, s.Len())

	for i := 2; i >= 0; i-- {
		v, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, FromScalar(uintptr(i<<1)), v)
	}
	require.True(t, s.Empty())
}

func TestMarkStackSpansMultipleSegments(t *testing.T) {
	s := NewMarkStack()
	n := markSegmentSize*2 + 7
	for i := 0; i < n; i++ {
		s.Push(FromScalar(uintptr(i << 1)))
	}
	require.Equal(t, n, s.Len())

	count := 0
	for !s.Empty() {
		_, ok := s.Pop()
		require.True(t, ok)
		count++
	}
	require.Equal(t, n, count)
}
