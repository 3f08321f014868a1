package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/quality"
)

type stubDetector struct {
	boxes []entity.BoundingBox
	err   error
	calls atomic.Int32
}

func (d *stubDetector) Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	d.calls.Add(1)
	return d.boxes, d.err
}

type featureFunc func(img image.Image) (float64, error)

func (f featureFunc) Calculate(img image.Image) (float64, error) { return f(img) }

type regressionFunc func(ctx context.Context, timestamp string, img image.Image) (float64, error)

func (f regressionFunc) Calculate(ctx context.Context, timestamp string, img image.Image) (float64, error) {
	return f(ctx, timestamp, img)
}

func constant(v float64) featureFunc {
	return func(image.Image) (float64, error) { return v, nil }
}

type drawnRect struct {
	rect      image.Rectangle
	color     color.Color
	thickness int
}

type drawnText struct {
	text      string
	org       image.Point
	color     color.Color
	thickness int
}

type recordingCanvas struct {
	w, h  int
	rects []drawnRect
	texts []drawnText
}

func (c *recordingCanvas) Rectangle(r image.Rectangle, col color.Color, thickness int) {
	c.rects = append(c.rects, drawnRect{r, col, thickness})
}
func (c *recordingCanvas) Line(image.Point, image.Point, color.Color, int)        {}
func (c *recordingCanvas) ArrowedLine(image.Point, image.Point, color.Color, int) {}
func (c *recordingCanvas) Circle(image.Point, int, color.Color, int)              {}
func (c *recordingCanvas) Text(text string, org image.Point, _ float64, col color.Color, thickness int) {
	c.texts = append(c.texts, drawnText{text, org, col, thickness})
}
func (c *recordingCanvas) Image() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, c.w, c.h)), nil
}
func (c *recordingCanvas) Close() error { return nil }

type recordingFactory struct {
	mu   sync.Mutex
	last *recordingCanvas
}

func (f *recordingFactory) FromImage(img image.Image) (port.Canvas, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := img.Bounds()
	f.last = &recordingCanvas{w: b.Dx(), h: b.Dy()}
	return f.last, nil
}

func (f *recordingFactory) Blank(w, h int, _ color.Color) (port.Canvas, error) {
	return &recordingCanvas{w: w, h: h}, nil
}

func uniformImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 30, 40, 255
	}
	return img
}

func testCalculators() Calculators {
	return Calculators{
		Brix: regressionFunc(func(context.Context, string, image.Image) (float64, error) {
			return 9.5, nil
		}),
		Firmness: regressionFunc(func(context.Context, string, image.Image) (float64, error) {
			return entity.FirmnessUnavailable, nil
		}),
		Ripeness:      constant(0.8),
		Roundness:     constant(0.9),
		Smoothness:    constant(0.05),
		Marketability: quality.DefaultMarketabilityThresholds(),
	}
}

func newTestProcessor(img image.Image, prefs entity.Preferences, calc Calculators) (*ImageProcessor, *recordingFactory) {
	canvases := &recordingFactory{}
	p := NewImageProcessor(img, "2021-06-25 17:00:00", prefs, ProcessorDeps{
		Calculators: calc,
		Canvases:    canvases,
	})
	return p, canvases
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{4096, 1024, 2048, 512},
		{1000, 3000, 682, 2048},
		{2048, 2048, 2048, 2048},
		{3000, 3000, 2048, 2048},
		{640, 480, 640, 480},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h)
		require.Equal(t, tt.wantW, w)
		require.Equal(t, tt.wantH, h)
	}
}

func TestImageProcessor_Resize(t *testing.T) {
	p, _ := newTestProcessor(uniformImage(4096, 1024), entity.DefaultPreferences(), testCalculators())

	require.NoError(t, p.Resize())
	require.Equal(t, StateResized, p.State())
	require.Equal(t, image.Rect(0, 0, 2048, 512), p.Image().Bounds())

	resized := p.Image()
	require.NoError(t, p.Resize())
	require.Same(t, resized, p.Image())
}

func TestImageProcessor_ResizeMovesOrigin(t *testing.T) {
	src := uniformImage(100, 100).SubImage(image.Rect(10, 20, 60, 70))
	p, _ := newTestProcessor(src, entity.DefaultPreferences(), testCalculators())

	require.NoError(t, p.Resize())
	require.Equal(t, image.Rect(0, 0, 50, 50), p.Image().Bounds())
}

func TestImageProcessor_Process(t *testing.T) {
	det := &stubDetector{boxes: []entity.BoundingBox{
		entity.NewBoundingBox(10, 10, 60, 60),
		entity.NewBoundingBox(150, 50, 100, 100),
	}}
	p, canvases := newTestProcessor(uniformImage(200, 100), entity.DefaultPreferences(), testCalculators())

	out, err := p.Process(context.Background(), det)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, StateAnnotated, p.State())
	require.NotNil(t, p.Annotator())

	segments := p.Segments()
	require.Len(t, segments, 2)
	for _, s := range segments {
		require.InDelta(t, 0.8, *s.Ripeness, 1e-9)
		require.InDelta(t, 9.5, *s.Brix, 1e-9)
		require.InDelta(t, 0.9, *s.Roundness, 1e-9)
		require.InDelta(t, 0.05, *s.Smoothness, 1e-9)
		require.Equal(t, entity.FirmnessUnavailable, *s.Firmness)
		require.True(t, *s.Marketable)
	}
	require.Equal(t, image.Rect(0, 0, 50, 50), segments[1].Image.Bounds())
	require.Len(t, canvases.last.rects, 2)

	require.NoError(t, p.DetectSegments(context.Background(), det))
	require.Equal(t, int32(1), det.calls.Load())
}

func TestImageProcessor_SegmentFailureLeavesMetricUnset(t *testing.T) {
	calc := testCalculators()
	calc.Ripeness = featureFunc(func(img image.Image) (float64, error) {
		if img.Bounds().Dx() < 40 {
			return 0, errors.New("too small")
		}
		return 0.7, nil
	})
	det := &stubDetector{boxes: []entity.BoundingBox{
		entity.NewBoundingBox(0, 0, 80, 80),
		entity.NewBoundingBox(100, 0, 20, 20),
	}}
	p, _ := newTestProcessor(uniformImage(200, 100), entity.DefaultPreferences(), calc)

	_, err := p.Process(context.Background(), det)
	require.NoError(t, err)

	ok, failed := p.Segments()[0], p.Segments()[1]
	require.InDelta(t, 0.7, *ok.Ripeness, 1e-9)
	require.True(t, *ok.Marketable)
	require.Nil(t, failed.Ripeness)
	require.NotNil(t, failed.Brix)
	require.False(t, *failed.Marketable)
}

func TestImageProcessor_DoesNotRecompute(t *testing.T) {
	var calls atomic.Int32
	calc := testCalculators()
	calc.Roundness = featureFunc(func(image.Image) (float64, error) {
		calls.Add(1)
		return 0.5, nil
	})
	p, _ := newTestProcessor(uniformImage(100, 100), entity.DefaultPreferences(), calc)
	p.deps.Pool = NewWorkerPool(2)
	defer p.deps.Pool.Close()

	require.NoError(t, p.ImportBoundingBoxes([]entity.BoundingBox{
		entity.NewBoundingBox(0, 0, 10, 10),
		entity.NewBoundingBox(10, 10, 10, 10),
		entity.NewBoundingBox(20, 20, 10, 10),
	}))
	require.NoError(t, p.ComputeRoundness(context.Background()))
	require.NoError(t, p.ComputeRoundness(context.Background()))
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, StateFeaturesComputed, p.State())
}

func TestImageProcessor_ImportBoundingBoxes(t *testing.T) {
	p, _ := newTestProcessor(uniformImage(100, 100), entity.DefaultPreferences(), testCalculators())

	require.ErrorIs(t, p.ExtractSegmentImages(), ErrNoSegments)

	require.NoError(t, p.ImportBoundingBoxes([]entity.BoundingBox{
		entity.NewBoundingBox(-10, -10, 30, 30),
		entity.NewBoundingBox(300, 300, 10, 10),
	}))
	require.Equal(t, StateSegmentsImported, p.State())
	require.NoError(t, p.ExtractSegmentImages())
	require.Equal(t, StateCropped, p.State())

	segments := p.Segments()
	require.Equal(t, image.Rect(0, 0, 20, 20), segments[0].Image.Bounds())
	require.True(t, segments[1].Image.Bounds().Empty())
	require.Nil(t, segments[0].Ripeness)
	require.Equal(t, entity.NewBoundingBox(-10, -10, 30, 30), segments[0].Box)
}

func TestImageProcessor_MissingCalculatorSkipsMetric(t *testing.T) {
	calc := testCalculators()
	calc.Brix = nil
	p, _ := newTestProcessor(uniformImage(100, 100), entity.DefaultPreferences(), calc)
	require.NoError(t, p.ImportBoundingBoxes([]entity.BoundingBox{entity.NewBoundingBox(0, 0, 50, 50)}))

	require.NoError(t, p.ComputeBrix(context.Background()))
	require.Nil(t, p.Segments()[0].Brix)
}

func TestImageProcessor_DetectorError(t *testing.T) {
	det := &stubDetector{err: errors.New("boom")}
	p, _ := newTestProcessor(uniformImage(100, 100), entity.DefaultPreferences(), testCalculators())

	_, err := p.Process(context.Background(), det)
	require.Error(t, err)
	require.Nil(t, p.Segments())
}

func TestImageProcessor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	det := &stubDetector{boxes: []entity.BoundingBox{entity.NewBoundingBox(0, 0, 10, 10)}}
	p, _ := newTestProcessor(uniformImage(100, 100), entity.DefaultPreferences(), testCalculators())

	_, err := p.Process(ctx, det)
	require.ErrorIs(t, err, context.Canceled)
}

func TestImageProcessor_EmptyImage(t *testing.T) {
	p, _ := newTestProcessor(image.NewRGBA(image.Rectangle{}), entity.DefaultPreferences(), testCalculators())
	require.Error(t, p.Resize())
}
