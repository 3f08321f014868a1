package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/colorspace"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// Параметры подписей над рамками
const (
	TextScale     = 2.0
	TextThickness = 4
	LineSpacing   = 50
	strokeDivisor = 15
)

// Размеры превью ягоды в подробном ответе
const (
	previewMaxSide = 600
	previewMinSide = 400
)

// ErrNoSegment в точке нет ни одной ягоды
var ErrNoSegment = errors.New("no strawberry at this point")

var (
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{A: 255}
	neutralColor = color.RGBA{A: 255}
)

// порядок строк подписи
var textAttributes = []entity.Attribute{
	entity.AttributeRipeness,
	entity.AttributeBrix,
	entity.AttributeFirmness,
	entity.AttributeRoundness,
	entity.AttributeSmoothness,
	entity.AttributeMarketability,
}

// SegmentDetail подробности по одной ягоде
type SegmentDetail struct {
	Index   int
	Segment *entity.StrawberrySegment
	Lines   []string
	Preview image.Image
	Chart   image.Image
}

// Annotator рисует разметку и отвечает на запросы по точке изображения
type Annotator struct {
	processor *ImageProcessor
	canvases  port.CanvasFactory
	charts    ChartRenderer
}

// ChartRenderer строит график зрелости с отметкой
type ChartRenderer interface {
	Render(cfg entity.ChartConfiguration, highlight *float64) (image.Image, error)
}

// NewAnnotator создаёт разметчик для процессора
func NewAnnotator(p *ImageProcessor, canvases port.CanvasFactory, charts ChartRenderer) *Annotator {
	return &Annotator{processor: p, canvases: canvases, charts: charts}
}

// Draw рисует рамки и подписи на копии рабочего изображения
func (a *Annotator) Draw() (image.Image, error) {
	if a.canvases == nil {
		return nil, errors.New("canvas factory is not configured")
	}
	c, err := a.canvases.FromImage(a.processor.Image())
	if err != nil {
		return nil, err
	}
	defer c.Close()

	prefs := a.processor.Preferences().Processing
	for _, s := range a.processor.Segments() {
		stroke := max(max(s.Box.Width, s.Box.Height)/strokeDivisor, 1)
		c.Rectangle(s.Box.Rect(), BoxColor(s, prefs.BoxColor), stroke)
	}
	if prefs.DisplayText {
		for _, s := range a.processor.Segments() {
			drawLines(c, s.Box, TextLines(s, prefs))
		}
	}
	return c.Image()
}

func drawLines(c port.Canvas, box entity.BoundingBox, lines []string) {
	org := image.Pt(box.X, box.Y-LineSpacing*len(lines))
	for _, line := range lines {
		org.Y += LineSpacing
		c.Text(line, org, TextScale, outlineColor, TextThickness+2)
		c.Text(line, org, TextScale, textColor, TextThickness)
	}
}

// BoxColor цвет рамки по выбранному признаку; невычисленный признак даёт чёрный
func BoxColor(s *entity.StrawberrySegment, attr entity.Attribute) color.RGBA {
	v, ok := s.Value(attr)
	if !ok {
		return neutralColor
	}
	return colorspace.InterpolateColor(v, attr.Range())
}

// RipenessIndication словесная оценка зрелости; percentage и target в процентах
func RipenessIndication(percentage, target float64) string {
	switch {
	case percentage < target*0.2:
		return "Unripe"
	case percentage < target*0.5:
		return "Slightly Ripe"
	case percentage < target*0.7:
		return "Mildly Ripe"
	case percentage < target*0.9:
		return "Moderately Ripe"
	default:
		return "Fully Ripe"
	}
}

// TextLines строки подписи для выбранных и вычисленных признаков
func TextLines(s *entity.StrawberrySegment, prefs entity.ProcessingPreferences) []string {
	var lines []string
	for _, attr := range textAttributes {
		if !prefs.Selected(attr) {
			continue
		}
		if line, ok := textLine(s, attr, prefs.TargetRipeness); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// DetailLines все вычисленные признаки ягоды
func DetailLines(s *entity.StrawberrySegment, target float64) []string {
	var lines []string
	for _, attr := range textAttributes {
		if line, ok := textLine(s, attr, target); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func textLine(s *entity.StrawberrySegment, attr entity.Attribute, target float64) (string, bool) {
	v, ok := s.Value(attr)
	if !ok {
		return "", false
	}
	switch attr {
	case entity.AttributeRipeness:
		pct := v * 100
		return fmt.Sprintf("%s (%.2f%%)", RipenessIndication(pct, target), pct), true
	case entity.AttributeMarketability:
		if v > 0 {
			return "Marketable: Yes", true
		}
		return "Marketable: No", true
	default:
		return fmt.Sprintf("%s: %.2f", attr, v), true
	}
}

// SegmentAt первая ягода, рамка которой содержит точку
func (a *Annotator) SegmentAt(x, y int) (int, *entity.StrawberrySegment, bool) {
	for i, s := range a.processor.Segments() {
		if s.Box.Contains(x, y) {
			return i, s, true
		}
	}
	return -1, nil, false
}

// Detail досчитывает признаки ягоды в точке и строит график с отметкой её зрелости
func (a *Annotator) Detail(ctx context.Context, x, y int) (*SegmentDetail, error) {
	i, s, ok := a.SegmentAt(x, y)
	if !ok {
		return nil, ErrNoSegment
	}
	a.processor.CompleteSegment(ctx, s)

	prefs := a.processor.Preferences()
	detail := &SegmentDetail{
		Index:   i,
		Segment: s,
		Lines:   DetailLines(s, prefs.Processing.TargetRipeness),
		Preview: Preview(s.Image),
	}

	if a.charts != nil {
		cfg := entity.ChartConfigurationFrom(prefs.Visualisation)
		chartImg, err := a.charts.Render(cfg, s.Ripeness)
		if err != nil {
			logger.WithFields(logrus.Fields{"segment": i}).WithError(err).Warn("chart is not rendered")
		} else {
			detail.Chart = chartImg
		}
	}
	return detail, nil
}

// Preview вписывает изображение ягоды в 600×600 и увеличивает до 400, если оно меньше
func Preview(img image.Image) image.Image {
	if img == nil || img.Bounds().Empty() {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var nw, nh int
	if w > h {
		nw = min(w, previewMaxSide)
		nh = int(float64(h) * (float64(nw) / float64(w)))
	} else {
		nh = min(h, previewMaxSide)
		nw = int(float64(w) * (float64(nh) / float64(h)))
	}
	nw, nh = max(nw, 1), max(nh, 1)
	if nw < previewMinSide && nh < previewMinSide {
		scale := max(float64(previewMinSide)/float64(nw), float64(previewMinSide)/float64(nh))
		nw = int(float64(nw) * scale)
		nh = int(float64(nh) * scale)
	}
	return imaging.Resize(img, nw, nh, imaging.NearestNeighbor)
}
