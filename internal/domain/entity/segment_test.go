package entity

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestStrawberrySegment_ComputedAndInvalidate(t *testing.T) {
	s := NewStrawberrySegment(NewBoundingBox(0, 0, 10, 10))
	for _, a := range Attributes {
		require.False(t, s.Computed(a), a)
	}

	s.Ripeness = Float(0)
	require.True(t, s.Computed(AttributeRipeness))
	v, ok := s.Value(AttributeRipeness)
	require.True(t, ok)
	require.Equal(t, 0.0, v)

	s.Invalidate(AttributeRipeness)
	require.False(t, s.Computed(AttributeRipeness))
}

func TestStrawberrySegment_Value(t *testing.T) {
	s := NewStrawberrySegment(NewBoundingBox(0, 0, 10, 10))
	s.Marketable = Bool(true)
	s.Firmness = Float(FirmnessUnavailable)

	v, ok := s.Value(AttributeMarketability)
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	_, ok = s.Value(AttributeFirmness)
	require.False(t, ok)

	_, ok = s.Value(AttributeBrix)
	require.False(t, ok)
}

func TestStrawberrySegment_Equal(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	a := NewStrawberrySegment(NewBoundingBox(1, 2, 3, 4))
	b := NewStrawberrySegment(NewBoundingBox(1, 2, 3, 4))
	a.Image = solid(3, 4, red)
	b.Image = solid(3, 4, red)
	a.Brix = Float(8.5)
	b.Brix = Float(8.5)
	require.True(t, a.Equal(b))

	b.Image = solid(3, 4, color.RGBA{G: 255, A: 255})
	require.False(t, a.Equal(b))

	b.Image = solid(3, 4, red)
	b.Brix = nil
	require.False(t, a.Equal(b))
}

func TestFeatureRange(t *testing.T) {
	r := NewFeatureRange(10.0, 0.0)
	require.Equal(t, 0.0, r.Min)
	require.True(t, r.Contains(0))
	require.True(t, r.Contains(10))
	require.False(t, r.Contains(10.01))
	require.Equal(t, 0.5, Normalize(r, 5))
	require.Equal(t, 1.0, Normalize(r, 42))
	require.Equal(t, 0.0, Normalize(NewFeatureRange(1.0, 1.0), 1))

	ints := NewFeatureRange(1, 3)
	require.Equal(t, 3, ints.Clip(7))
}

func TestParseDetectorKind(t *testing.T) {
	k, err := ParseDetectorKind("Remote-YOLOX-Segmentation")
	require.NoError(t, err)
	require.Equal(t, DetectorRemoteYOLOX, k)

	k, err = ParseDetectorKind("cloud-ml")
	require.NoError(t, err)
	require.Equal(t, DetectorCloudML, k)

	_, err = ParseDetectorKind("sonar")
	require.Error(t, err)
}

func TestChartConfigurationFrom(t *testing.T) {
	cfg := ChartConfigurationFrom(DefaultPreferences().Visualisation)
	require.Equal(t, "Time (Weeks)", cfg.XLabel)
	require.True(t, cfg.Equal(ChartConfigurationFrom(DefaultPreferences().Visualisation)))

	other := cfg
	other.Function = "x"
	require.False(t, cfg.Equal(other))
}
