package app

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/domain/colorspace"
	"berry-quality/internal/domain/entity"
)

type stubChart struct {
	cfg       entity.ChartConfiguration
	highlight *float64
	calls     int
}

func (c *stubChart) Render(cfg entity.ChartConfiguration, highlight *float64) (image.Image, error) {
	c.calls++
	c.cfg = cfg
	c.highlight = highlight
	return image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)), nil
}

func TestRipenessIndication(t *testing.T) {
	tests := []struct {
		pct, target float64
		want        string
	}{
		{10, 100, "Unripe"},
		{20, 100, "Slightly Ripe"},
		{49.9, 100, "Slightly Ripe"},
		{50, 100, "Mildly Ripe"},
		{70, 100, "Moderately Ripe"},
		{89.99, 100, "Moderately Ripe"},
		{90, 100, "Fully Ripe"},
		{45, 50, "Fully Ripe"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RipenessIndication(tt.pct, tt.target), "pct=%v target=%v", tt.pct, tt.target)
	}
}

func TestTextLines(t *testing.T) {
	s := entity.NewStrawberrySegment(entity.NewBoundingBox(0, 0, 10, 10))
	s.Ripeness = entity.Float(0.8)
	s.Brix = entity.Float(9.5)
	s.Firmness = entity.Float(entity.FirmnessUnavailable)
	s.Marketable = entity.Bool(true)

	prefs := entity.DefaultPreferences().Processing
	prefs.SelectedAttributes = []entity.Attribute{
		entity.AttributeMarketability,
		entity.AttributeFirmness,
		entity.AttributeBrix,
		entity.AttributeRipeness,
	}

	require.Equal(t, []string{
		"Moderately Ripe (80.00%)",
		"Brix: 9.50",
		"Marketable: Yes",
	}, TextLines(s, prefs))

	s.Marketable = entity.Bool(false)
	prefs.SelectedAttributes = []entity.Attribute{entity.AttributeMarketability, entity.AttributeRoundness}
	require.Equal(t, []string{"Marketable: No"}, TextLines(s, prefs))
}

func TestBoxColor(t *testing.T) {
	s := entity.NewStrawberrySegment(entity.NewBoundingBox(0, 0, 10, 10))
	require.Equal(t, color.RGBA{A: 255}, BoxColor(s, entity.AttributeRipeness))

	s.Brix = entity.Float(6)
	require.Equal(t, colorspace.InterpolateColor(6, entity.NewFeatureRange(0.0, 12.0)), BoxColor(s, entity.AttributeBrix))

	s.Marketable = entity.Bool(false)
	require.Equal(t, colorspace.Interpolate(0), BoxColor(s, entity.AttributeMarketability))

	s.Firmness = entity.Float(entity.FirmnessUnavailable)
	require.Equal(t, color.RGBA{A: 255}, BoxColor(s, entity.AttributeFirmness))
}

func TestAnnotator_Draw(t *testing.T) {
	prefs := entity.DefaultPreferences()
	prefs.Processing.DisplayText = true
	prefs.Processing.SelectedAttributes = []entity.Attribute{entity.AttributeRipeness, entity.AttributeBrix}

	p, canvases := newTestProcessor(uniformImage(300, 300), prefs, testCalculators())
	require.NoError(t, p.ImportBoundingBoxes([]entity.BoundingBox{
		entity.NewBoundingBox(10, 200, 45, 30),
		entity.NewBoundingBox(5, 5, 10, 10),
	}))
	require.NoError(t, p.ComputeRipeness(context.Background()))
	require.NoError(t, p.ComputeBrix(context.Background()))

	_, err := p.Annotate(context.Background())
	require.NoError(t, err)

	c := canvases.last
	require.Len(t, c.rects, 2)
	require.Equal(t, image.Rect(10, 200, 55, 230), c.rects[0].rect)
	require.Equal(t, 3, c.rects[0].thickness)
	require.Equal(t, 1, c.rects[1].thickness)
	require.Equal(t, colorspace.Interpolate(0.8), c.rects[0].color)

	require.Len(t, c.texts, 8)
	first := c.texts[:4]
	require.Equal(t, "Moderately Ripe (80.00%)", first[0].text)
	require.Equal(t, image.Pt(10, 150), first[0].org)
	require.Equal(t, TextThickness+2, first[0].thickness)
	require.Equal(t, color.RGBA{A: 255}, first[0].color)
	require.Equal(t, TextThickness, first[1].thickness)
	require.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, first[1].color)
	require.Equal(t, "Brix: 9.50", first[2].text)
	require.Equal(t, image.Pt(10, 200), first[2].org)
}

func TestAnnotator_Detail(t *testing.T) {
	prefs := entity.DefaultPreferences()
	p, _ := newTestProcessor(uniformImage(300, 300), prefs, testCalculators())
	charts := &stubChart{}
	p.deps.Charts = charts

	require.NoError(t, p.ImportBoundingBoxes([]entity.BoundingBox{
		entity.NewBoundingBox(0, 0, 100, 50),
		entity.NewBoundingBox(150, 150, 100, 100),
	}))
	_, err := p.Annotate(context.Background())
	require.NoError(t, err)

	target := p.Segments()[1]
	require.NotNil(t, target.Ripeness)
	require.Nil(t, target.Brix)

	detail, err := p.Annotator().Detail(context.Background(), 200, 210)
	require.NoError(t, err)
	require.Equal(t, 1, detail.Index)
	require.Same(t, target, detail.Segment)
	require.NotNil(t, target.Brix)
	require.NotNil(t, target.Roundness)
	require.True(t, *target.Marketable)
	require.Contains(t, detail.Lines, "Roundness: 0.90")
	require.Equal(t, image.Rect(0, 0, 400, 400), detail.Preview.Bounds())
	require.NotNil(t, detail.Chart)

	require.Equal(t, 1, charts.calls)
	require.InDelta(t, 0.8, *charts.highlight, 1e-9)
	require.Equal(t, "Time (Weeks)", charts.cfg.XLabel)

	require.Nil(t, p.Segments()[0].Brix)

	_, err = p.Annotator().Detail(context.Background(), 120, 120)
	require.ErrorIs(t, err, ErrNoSegment)
}

func TestPreview(t *testing.T) {
	require.Equal(t, image.Rect(0, 0, 800, 400), Preview(uniformImage(100, 50)).Bounds())
	require.Equal(t, image.Rect(0, 0, 600, 150), Preview(uniformImage(1200, 300)).Bounds())
	require.Equal(t, image.Rect(0, 0, 300, 600), Preview(uniformImage(500, 1000)).Bounds())
}
