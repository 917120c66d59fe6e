// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderMarkRoundTrip(t *testing.T) {
	h := NewHeader(0x2000, TagObject, 3)
	require.False(t, h.Marked())
	h.SetMarked()
	require.True(t, h.Marked())
	require.Equal(t, TagObject, h.Tag())
	h.ClearMarked()
	require.False(t, h.Marked())
	require.Equal(t, TagObject, h.Tag())
}

func TestHeaderForwarding(t *testing.T) {
	h := NewHeader(0x2000, TagObject, 3)
	require.False(t, h.IsForwarded(0x2000))
	h.Forward = FromPointer(0x3000)
	require.True(t, h.IsForwarded(0x2000))
}

func TestArraySliceTagRoundTrip(t *testing.T) {
	h := NewHeader(0x2000, TagArray, 500)
	require.Equal(t, TagArray, h.Tag())
	require.False(t, h.Tag().IsArraySlice())

	h.SetTag(SliceTag(128))
	require.True(t, h.Tag().IsArraySlice())
	require.EqualValues(t, 128, h.Tag().SliceStart())
	// Marked bit survives a tag rewrite (it is packed into the same word).
	h.SetMarked()
	require.True(t, h.Marked())
	h.SetTag(SliceTag(256))
	require.True(t, h.Marked())
	require.EqualValues(t, 256, h.Tag().SliceStart())
}

func TestBlockSizeByTag(t *testing.T) {
	require.EqualValues(t, headerWords+5, BlockSize(NewHeader(0, TagArray, 5)))
	require.EqualValues(t, headerWords+2, BlockSize(NewHeader(0, TagBlob, 5))) // 5 bytes -> 2 words
	require.EqualValues(t, headerWords+1, BlockSize(NewHeader(0, TagMutBox, 0)))
	require.EqualValues(t, headerWords, BlockSize(NewHeader(0, TagOneWordFiller, 0)))
}
