package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/domain/entity"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func TestRipeness_Bounds(t *testing.T) {
	calc := NewRipenessCalculator(DefaultRipenessConfig())
	colors := []color.RGBA{
		rgb(255, 0, 0), rgb(0, 255, 0), rgb(0, 0, 255), rgb(255, 192, 203),
		rgb(255, 95, 91), rgb(0, 0, 0), rgb(255, 255, 255), rgb(0, 130, 180),
	}
	for _, c := range colors {
		v, err := calc.Calculate(fill(300, 300, c))
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 0.0, "%v", c)
		require.LessOrEqual(t, v, 1.0, "%v", c)
	}
}

func TestRipeness_Anchors(t *testing.T) {
	calc := NewRipenessCalculator(DefaultRipenessConfig())

	green, err := calc.Calculate(fill(300, 300, rgb(0, 255, 0)))
	require.NoError(t, err)
	require.InDelta(t, 0.0, green, 0.001)

	blueish, err := calc.Calculate(fill(300, 300, rgb(0, 130, 180)))
	require.NoError(t, err)
	require.InDelta(t, 0.0, blueish, 0.001)

	ripe, err := calc.Calculate(fill(120, 160, rgb(200, 40, 50)))
	require.NoError(t, err)
	unripe, err := calc.Calculate(fill(120, 160, rgb(150, 120, 60)))
	require.NoError(t, err)
	require.Greater(t, ripe, unripe)
}

func TestRipeness_UsesCenterOnly(t *testing.T) {
	img := fill(90, 90, rgb(0, 255, 0))
	for y := 30; y < 60; y++ {
		for x := 30; x < 60; x++ {
			img.Set(x, y, rgb(200, 40, 50))
		}
	}

	calc := NewRipenessCalculator(DefaultRipenessConfig())
	v, err := calc.Calculate(img)
	require.NoError(t, err)

	center, err := calc.Calculate(fill(30, 30, rgb(200, 40, 50)))
	require.NoError(t, err)
	require.InDelta(t, center, v, 1e-9)
}

func TestRipeness_EmptyImage(t *testing.T) {
	calc := NewRipenessCalculator(DefaultRipenessConfig())
	_, err := calc.Calculate(nil)
	require.ErrorIs(t, err, ErrEmptyImage)
	_, err = calc.Calculate(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, ErrEmptyImage)
}

func TestFromRedness(t *testing.T) {
	require.Equal(t, 1.0, FromRedness(128, 100))
	require.Equal(t, 1.0, FromRedness(127, 100))
	require.InDelta(t, 0.66, FromRedness(64, 100), 0.02)
	require.Equal(t, 0.0, FromRedness(-1, 100))
	require.Equal(t, 0.0, FromRedness(0, 0))
	require.InDelta(t, 128.0/255.0, FromRedness(0, 50), 1e-12)
}

func TestMarketable(t *testing.T) {
	th := DefaultMarketabilityThresholds()
	require.True(t, th.Marketable(entity.Float(0.2), entity.Float(0.1), entity.Float(0.7)))
	require.True(t, th.Marketable(entity.Float(0.1), entity.Float(0.15), entity.Float(0.6)))
	require.False(t, th.Marketable(entity.Float(0.05), entity.Float(0.1), entity.Float(0.7)))
	require.False(t, th.Marketable(entity.Float(0.2), entity.Float(0.2), entity.Float(0.7)))
	require.False(t, th.Marketable(entity.Float(0.2), entity.Float(0.1), entity.Float(0.5)))
	require.False(t, th.Marketable(nil, nil, nil))
	require.False(t, th.MarketableSegment(entity.NewStrawberrySegment(entity.NewBoundingBox(0, 0, 1, 1))))
}
