package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCenter(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, Width: 8, Height: 6}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestBoundingBoxContains(t *testing.T) {
	b := NewBoundingBox(10, 10, 5, 5)
	require.True(t, b.Contains(10, 10))
	require.True(t, b.Contains(14, 14))
	require.False(t, b.Contains(15, 12))
	require.False(t, b.Contains(9, 12))
}

func TestBoundingBoxClamp(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want BoundingBox
	}{
		{"inside", NewBoundingBox(10, 10, 20, 20), NewBoundingBox(10, 10, 20, 20)},
		{"negative origin", NewBoundingBox(-5, -10, 20, 20), NewBoundingBox(0, 0, 15, 10)},
		{"far edge overflow", NewBoundingBox(90, 40, 20, 20), NewBoundingBox(90, 40, 10, 10)},
		{"fully outside right", NewBoundingBox(150, 10, 20, 20), NewBoundingBox(100, 10, 0, 20)},
		{"fully outside left", NewBoundingBox(-50, 10, 20, 20), NewBoundingBox(0, 10, 0, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Clamp(100, 50)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, got.Clamp(100, 50))
		})
	}
}

func TestBoundingBoxArea(t *testing.T) {
	require.Equal(t, 200, NewBoundingBox(0, 0, 10, 20).Area())
	require.Equal(t, 0, NewBoundingBox(0, 0, -1, 20).Area())
}
