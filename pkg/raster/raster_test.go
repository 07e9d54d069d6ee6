package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	r, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 6.0, r.At(2, 1))
	assert.Equal(t, 2.0, r.At(1, 0))

	_, err = FromSlice([]float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestValuesClipsToBounds(t *testing.T) {
	r := New(4, 3)
	for i := range r.Data {
		r.Data[i] = float64(i)
	}
	got := r.Values(image.Rect(2, 1, 10, 10))
	assert.Equal(t, []float64{6, 7, 10, 11}, got)
}

// TestPartitionCoversEveryPixelOnce checks that tile rects are disjoint and complete
func TestPartitionCoversEveryPixelOnce(t *testing.T) {
	testCases := []struct {
		w, h, tw, th int
	}{
		{10, 10, 3, 3},
		{7, 5, 7, 5},
		{9, 4, 2, 5},
		{1, 1, 4, 4},
	}

	for _, tc := range testCases {
		tiles, err := Partition(tc.w, tc.h, tc.tw, tc.th, 2)
		require.NoError(t, err)

		seen := make([]int, tc.w*tc.h)
		for i, tile := range tiles {
			assert.Equal(t, i, tile.Index)
			assert.True(t, tile.Window.In(tile.Bounds))
			assert.True(t, tile.Rect.In(tile.Window))
			for y := tile.Rect.Min.Y; y < tile.Rect.Max.Y; y++ {
				for x := tile.Rect.Min.X; x < tile.Rect.Max.X; x++ {
					seen[y*tc.w+x]++
				}
			}
		}
		for i, n := range seen {
			if n != 1 {
				t.Errorf("%dx%d/%dx%d: pixel %d covered %d times", tc.w, tc.h, tc.tw, tc.th, i, n)
			}
		}
	}
}

func TestPartitionRejectsBadInput(t *testing.T) {
	_, err := Partition(0, 4, 2, 2, 0)
	assert.Error(t, err)
	_, err = Partition(4, 4, 0, 2, 0)
	assert.Error(t, err)
	_, err = Partition(4, 4, 2, 2, -1)
	assert.Error(t, err)
}

func TestTileHalo(t *testing.T) {
	bounds := image.Rect(0, 0, 20, 20)

	inner := NewTile(0, image.Rect(5, 5, 10, 10), bounds, 3)
	assert.Equal(t, 3, inner.Halo())
	assert.Equal(t, image.Rect(2, 2, 13, 13), inner.Window)

	// the left side only has 1 pixel available and does not reach the raster edge
	clipped := Tile{Rect: image.Rect(3, 5, 10, 10), Window: image.Rect(2, 2, 13, 13), Bounds: bounds}
	assert.Equal(t, 1, clipped.Halo())

	// a window clipped by the raster edge has everything there is to read
	nearEdge := NewTile(0, image.Rect(1, 5, 10, 10), bounds, 3)
	assert.Equal(t, 3, nearEdge.Halo())

	corner := NewTile(0, image.Rect(0, 0, 5, 5), bounds, 2)
	assert.Equal(t, 2, corner.Halo())

	whole := WholeTile(bounds)
	assert.Greater(t, whole.Halo(), 1000)
}
