//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"image"
	"image/color"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// Enabled сообщает, собран ли пакет с OpenCV
const Enabled = false

// ColorDetector заглушка цветового детектора (без OpenCV)
type ColorDetector struct {
	cfg ColorDetectorConfig
}

// NewColorDetector создаёт детектор-заглушку
func NewColorDetector(cfg ColorDetectorConfig) *ColorDetector {
	return &ColorDetector{cfg: cfg}
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *ColorDetector) Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	return nil, ErrGoCVDisabled
}

// RoundnessCalculator заглушка
type RoundnessCalculator struct{}

func NewRoundnessCalculator() *RoundnessCalculator { return &RoundnessCalculator{} }

func (c *RoundnessCalculator) Calculate(img image.Image) (float64, error) {
	return 0, ErrGoCVDisabled
}

// SmoothnessCalculator заглушка
type SmoothnessCalculator struct{}

func NewSmoothnessCalculator() *SmoothnessCalculator { return &SmoothnessCalculator{} }

func (c *SmoothnessCalculator) Calculate(img image.Image) (float64, error) {
	return 0, ErrGoCVDisabled
}

// DNNRunner заглушка исполнителя моделей
type DNNRunner struct {
	store port.AssetStore
}

func NewDNNRunner(store port.AssetStore) *DNNRunner { return &DNNRunner{store: store} }

func (r *DNNRunner) Run(ctx context.Context, model string, input []float32, shape []int) ([]float32, error) {
	return nil, ErrGoCVDisabled
}

func (r *DNNRunner) Close() error { return nil }

// CanvasFactory заглушка фабрики поверхностей
type CanvasFactory struct{}

func NewCanvasFactory() *CanvasFactory { return &CanvasFactory{} }

func (f *CanvasFactory) FromImage(img image.Image) (port.Canvas, error) {
	return nil, ErrGoCVDisabled
}

func (f *CanvasFactory) Blank(width, height int, background color.Color) (port.Canvas, error) {
	return nil, ErrGoCVDisabled
}

var (
	_ port.StrawberryDetector = (*ColorDetector)(nil)
	_ port.FeatureCalculator  = (*RoundnessCalculator)(nil)
	_ port.FeatureCalculator  = (*SmoothnessCalculator)(nil)
	_ port.ModelRunner        = (*DNNRunner)(nil)
	_ port.CanvasFactory      = (*CanvasFactory)(nil)
)
