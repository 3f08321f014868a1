package app

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
	"berry-quality/internal/quality"
)

// MaxPixels наибольшая сторона изображения, с которой работает конвейер
const MaxPixels = 2048

// ProcessorState стадия обработки изображения
type ProcessorState int

const (
	StateCreated ProcessorState = iota
	StateResized
	StateSegmentsDetected
	StateSegmentsImported
	StateCropped
	StateFeaturesComputed
	StateAnnotated
)

var stateNames = map[ProcessorState]string{
	StateCreated:          "created",
	StateResized:          "resized",
	StateSegmentsDetected: "segments_detected",
	StateSegmentsImported: "segments_imported",
	StateCropped:          "cropped",
	StateFeaturesComputed: "features_computed",
	StateAnnotated:        "annotated",
}

func (s ProcessorState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrNoSegments сегменты ещё не найдены и не импортированы
var ErrNoSegments = errors.New("segments are not detected")

// Calculators набор калькуляторов признаков для одного прохода.
// Незаданный калькулятор пропускается, признак остаётся невычисленным.
type Calculators struct {
	Brix          port.RegressionCalculator
	Firmness      port.RegressionCalculator
	Ripeness      port.FeatureCalculator
	Roundness     port.FeatureCalculator
	Smoothness    port.FeatureCalculator
	Marketability quality.MarketabilityThresholds
}

// ProcessorDeps зависимости процессора
type ProcessorDeps struct {
	Calculators Calculators
	Canvases    port.CanvasFactory
	Charts      ChartRenderer
	Pool        *WorkerPool
}

// ImageProcessor проводит одно изображение через все стадии конвейера.
// Каждая стадия идемпотентна и может вызываться отдельно.
type ImageProcessor struct {
	deps      ProcessorDeps
	prefs     entity.Preferences
	timestamp string

	image     image.Image
	state     ProcessorState
	segments  []*entity.StrawberrySegment
	annotated image.Image
	annotator *Annotator
}

// NewImageProcessor создаёт процессор для изображения, снятого в момент timestamp
func NewImageProcessor(img image.Image, timestamp string, prefs entity.Preferences, deps ProcessorDeps) *ImageProcessor {
	return &ImageProcessor{
		deps:      deps,
		prefs:     prefs.Clone(),
		timestamp: timestamp,
		image:     img,
		state:     StateCreated,
	}
}

// State текущая стадия
func (p *ImageProcessor) State() ProcessorState { return p.state }

// Image рабочее изображение (после Resize в координатах рамок)
func (p *ImageProcessor) Image() image.Image { return p.image }

// Timestamp время снимка
func (p *ImageProcessor) Timestamp() string { return p.timestamp }

// Preferences настройки прохода
func (p *ImageProcessor) Preferences() entity.Preferences { return p.prefs }

// Segments найденные сегменты
func (p *ImageProcessor) Segments() []*entity.StrawberrySegment { return p.segments }

// Annotated размеченное изображение, nil до Annotate
func (p *ImageProcessor) Annotated() image.Image { return p.annotated }

// Annotator разметчик последнего Annotate
func (p *ImageProcessor) Annotator() *Annotator { return p.annotator }

func (p *ImageProcessor) advance(s ProcessorState) {
	if s > p.state {
		p.state = s
	}
}

// FitSize размер, вписанный в MaxPixels с сохранением пропорций
func FitSize(width, height int) (int, int) {
	if width <= MaxPixels && height <= MaxPixels {
		return width, height
	}
	if width > height {
		return MaxPixels, int(float64(height) / float64(width) * MaxPixels)
	}
	return int(float64(width) / float64(height) * MaxPixels), MaxPixels
}

// Resize уменьшает изображение, если сторона больше MaxPixels.
// Результат всегда начинается в точке (0, 0).
func (p *ImageProcessor) Resize() error {
	if p.state >= StateResized {
		return nil
	}
	if p.image == nil || p.image.Bounds().Empty() {
		return errors.New("image is empty")
	}

	b := p.image.Bounds()
	w, h := FitSize(b.Dx(), b.Dy())
	if w != b.Dx() || h != b.Dy() {
		p.image = imaging.Resize(p.image, w, h, imaging.Linear)
		logger.WithFields(logrus.Fields{
			"from": fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
			"to":   fmt.Sprintf("%dx%d", w, h),
		}).Debug("image resized")
	} else if b.Min != (image.Point{}) {
		p.image = imaging.Clone(p.image)
	}
	p.advance(StateResized)
	return nil
}

// DetectSegments находит клубнику детектором; повторный вызов не запускает детектор снова
func (p *ImageProcessor) DetectSegments(ctx context.Context, detector port.StrawberryDetector) error {
	if err := p.Resize(); err != nil {
		return err
	}
	if p.segments != nil {
		return nil
	}
	if detector == nil {
		return errors.New("detector is not configured")
	}

	boxes, err := detector.Detect(ctx, p.image)
	if err != nil {
		return fmt.Errorf("detect strawberries: %w", err)
	}
	p.segments = make([]*entity.StrawberrySegment, 0, len(boxes))
	for _, box := range boxes {
		p.segments = append(p.segments, entity.NewStrawberrySegment(box))
	}
	p.advance(StateSegmentsDetected)

	logger.WithFields(logrus.Fields{"segments": len(p.segments)}).Info("strawberries detected")
	return nil
}

// ImportBoundingBoxes заменяет сегменты новыми, содержащими только рамки
func (p *ImageProcessor) ImportBoundingBoxes(boxes []entity.BoundingBox) error {
	if err := p.Resize(); err != nil {
		return err
	}
	p.segments = make([]*entity.StrawberrySegment, 0, len(boxes))
	for _, box := range boxes {
		p.segments = append(p.segments, entity.NewStrawberrySegment(box))
	}
	p.annotated = nil
	p.annotator = nil
	p.state = StateSegmentsImported
	return nil
}

// ExtractSegmentImages вырезает изображение каждой ягоды по рамке, обрезанной границами кадра
func (p *ImageProcessor) ExtractSegmentImages() error {
	if p.segments == nil {
		return ErrNoSegments
	}
	b := p.image.Bounds()
	for _, s := range p.segments {
		if s.Image != nil {
			continue
		}
		box := s.Box.Clamp(b.Dx(), b.Dy())
		s.Image = imaging.Crop(p.image, box.Rect())
	}
	p.advance(StateCropped)
	return nil
}

func (p *ImageProcessor) ensureCropped() error {
	if p.state >= StateCropped {
		return nil
	}
	return p.ExtractSegmentImages()
}

// computeEach вычисляет признак для всех сегментов, где он ещё не задан
func (p *ImageProcessor) computeEach(ctx context.Context, attr entity.Attribute, compute func(ctx context.Context, s *entity.StrawberrySegment) error) error {
	if err := p.ensureCropped(); err != nil {
		return err
	}
	p.deps.Pool.ForEach(len(p.segments), func(i int) {
		s := p.segments[i]
		if s.Computed(attr) || ctx.Err() != nil {
			return
		}
		if err := compute(ctx, s); err != nil {
			logger.WithFields(logrus.Fields{
				"segment":   i,
				"metric":    string(attr),
				"timestamp": p.timestamp,
			}).WithError(err).Warn("metric is not computed")
		}
	})
	p.advance(StateFeaturesComputed)
	return nil
}

func (p *ImageProcessor) computeSegment(ctx context.Context, attr entity.Attribute, s *entity.StrawberrySegment) error {
	if s.Computed(attr) {
		return nil
	}
	return p.metric(attr)(ctx, s)
}

type metricFunc func(ctx context.Context, s *entity.StrawberrySegment) error

func (p *ImageProcessor) metric(attr entity.Attribute) metricFunc {
	calc := p.deps.Calculators

	regression := func(c port.RegressionCalculator, set func(s *entity.StrawberrySegment, v float64)) metricFunc {
		return func(ctx context.Context, s *entity.StrawberrySegment) error {
			if c == nil {
				return fmt.Errorf("%s calculator is not configured", attr)
			}
			v, err := c.Calculate(ctx, p.timestamp, s.Image)
			if err != nil {
				return err
			}
			set(s, v)
			return nil
		}
	}
	feature := func(c port.FeatureCalculator, set func(s *entity.StrawberrySegment, v float64)) metricFunc {
		return func(_ context.Context, s *entity.StrawberrySegment) error {
			if c == nil {
				return fmt.Errorf("%s calculator is not configured", attr)
			}
			v, err := c.Calculate(s.Image)
			if err != nil {
				return err
			}
			set(s, v)
			return nil
		}
	}

	switch attr {
	case entity.AttributeBrix:
		return regression(calc.Brix, func(s *entity.StrawberrySegment, v float64) { s.Brix = entity.Float(v) })
	case entity.AttributeFirmness:
		return regression(calc.Firmness, func(s *entity.StrawberrySegment, v float64) { s.Firmness = entity.Float(v) })
	case entity.AttributeRipeness:
		return feature(calc.Ripeness, func(s *entity.StrawberrySegment, v float64) { s.Ripeness = entity.Float(v) })
	case entity.AttributeRoundness:
		return feature(calc.Roundness, func(s *entity.StrawberrySegment, v float64) { s.Roundness = entity.Float(v) })
	case entity.AttributeSmoothness:
		return feature(calc.Smoothness, func(s *entity.StrawberrySegment, v float64) { s.Smoothness = entity.Float(v) })
	case entity.AttributeMarketability:
		return func(_ context.Context, s *entity.StrawberrySegment) error {
			s.Marketable = entity.Bool(calc.Marketability.MarketableSegment(s))
			return nil
		}
	}
	return func(context.Context, *entity.StrawberrySegment) error {
		return fmt.Errorf("unknown attribute %q", attr)
	}
}

// Compute вычисляет один признак для всех сегментов
func (p *ImageProcessor) Compute(ctx context.Context, attr entity.Attribute) error {
	return p.computeEach(ctx, attr, p.metric(attr))
}

// ComputeBrix сахаристость по климату и изображению
func (p *ImageProcessor) ComputeBrix(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeBrix)
}

// ComputeFirmness твёрдость
func (p *ImageProcessor) ComputeFirmness(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeFirmness)
}

// ComputeRipeness зрелость по цвету
func (p *ImageProcessor) ComputeRipeness(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeRipeness)
}

// ComputeRoundness округлость контура
func (p *ImageProcessor) ComputeRoundness(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeRoundness)
}

// ComputeSmoothness гладкость поверхности
func (p *ImageProcessor) ComputeSmoothness(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeSmoothness)
}

// ComputeMarketability товарность; невычисленные признаки дают «нет»
func (p *ImageProcessor) ComputeMarketability(ctx context.Context) error {
	return p.Compute(ctx, entity.AttributeMarketability)
}

// CompleteSegment досчитывает недостающие признаки одного сегмента в порядке конвейера
func (p *ImageProcessor) CompleteSegment(ctx context.Context, s *entity.StrawberrySegment) {
	if s.Image == nil {
		b := p.image.Bounds()
		s.Image = imaging.Crop(p.image, s.Box.Clamp(b.Dx(), b.Dy()).Rect())
	}
	for _, attr := range entity.Attributes {
		if err := p.computeSegment(ctx, attr, s); err != nil {
			logger.WithFields(logrus.Fields{
				"metric":    string(attr),
				"timestamp": p.timestamp,
			}).WithError(err).Warn("metric is not computed")
		}
	}
}

// Annotate рисует рамки и подписи; признак для цвета рамок досчитывается при необходимости
func (p *ImageProcessor) Annotate(ctx context.Context) (image.Image, error) {
	if err := p.ensureCropped(); err != nil {
		return nil, err
	}
	if attr := p.prefs.Processing.BoxColor; attr != "" {
		if err := p.Compute(ctx, attr); err != nil {
			return nil, err
		}
	}

	annotator := NewAnnotator(p, p.deps.Canvases, p.deps.Charts)
	out, err := annotator.Draw()
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	p.annotated = out
	p.annotator = annotator
	p.advance(StateAnnotated)
	return out, nil
}

// Process выполняет все стадии по порядку и возвращает размеченное изображение
func (p *ImageProcessor) Process(ctx context.Context, detector port.StrawberryDetector) (image.Image, error) {
	if err := p.DetectSegments(ctx, detector); err != nil {
		return nil, err
	}
	if err := p.ExtractSegmentImages(); err != nil {
		return nil, err
	}

	steps := []func(context.Context) error{
		p.ComputeBrix,
		p.ComputeFirmness,
		p.ComputeRipeness,
		p.ComputeRoundness,
		p.ComputeSmoothness,
		p.ComputeMarketability,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Annotate(ctx)
}
