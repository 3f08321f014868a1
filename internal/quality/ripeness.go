package quality

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"berry-quality/internal/domain/colorspace"
	"berry-quality/internal/domain/port"
)

// Границы канала a* в CIELab
const (
	cielabLowerBound = -128.0
	cielabUpperBound = 127.0
)

// ErrEmptyImage изображение сегмента пустое или не задано
var ErrEmptyImage = errors.New("segment image is empty")

// RipenessConfig параметры расчёта зрелости
type RipenessConfig struct {
	CenterFraction int // доля стороны для центральной области (3 = одна треть)
	Zoom           int // увеличение центральной области
}

// DefaultRipenessConfig параметры по умолчанию
func DefaultRipenessConfig() RipenessConfig {
	return RipenessConfig{CenterFraction: 3, Zoom: 3}
}

// RipenessCalculator оценивает зрелость по красноте центральной части ягоды
type RipenessCalculator struct {
	cfg RipenessConfig
}

// NewRipenessCalculator создаёт калькулятор зрелости
func NewRipenessCalculator(cfg RipenessConfig) *RipenessCalculator {
	if cfg.CenterFraction <= 0 {
		cfg.CenterFraction = 3
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = 1
	}
	return &RipenessCalculator{cfg: cfg}
}

// Calculate возвращает зрелость в [0, 1]
func (c *RipenessCalculator) Calculate(img image.Image) (float64, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, ErrEmptyImage
	}

	center := c.centerRegion(img.Bounds())
	middle := imaging.Crop(img, center)
	zoomed := imaging.Resize(middle, center.Dx()*c.cfg.Zoom, center.Dy()*c.cfg.Zoom, imaging.NearestNeighbor)

	r, g, b := meanRGB(zoomed)
	lightness, redness, _ := colorspace.RGBToLab(r, g, b)
	return FromRedness(redness, lightness), nil
}

func (c *RipenessCalculator) centerRegion(bounds image.Rectangle) image.Rectangle {
	w := max(bounds.Dx()/c.cfg.CenterFraction, 1)
	h := max(bounds.Dy()/c.cfg.CenterFraction, 1)
	x := bounds.Min.X + (bounds.Dx()-w)/2
	y := bounds.Min.Y + (bounds.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func meanRGB(img *image.NRGBA) (r, g, b float64) {
	bounds := img.Bounds()
	var sr, sg, sb float64
	for y := 0; y < bounds.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+bounds.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			sr += float64(row[i])
			sg += float64(row[i+1])
			sb += float64(row[i+2])
		}
	}
	n := float64(bounds.Dx() * bounds.Dy())
	return sr / n, sg / n, sb / n
}

// FromRedness переводит a* (краснота) и L* (светлота) в оценку зрелости.
// Формула нормирована на светлоту; при светлоте около нуля результат нестабилен
// и прижимается к [0, 1].
func FromRedness(redness, lightness float64) float64 {
	switch {
	case redness < 0:
		return 0
	case redness >= cielabUpperBound:
		return 1
	}
	score := (redness*(redness/lightness) - cielabLowerBound) / (cielabUpperBound - cielabLowerBound)
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(math.Max(score, 0), 1)
}

var _ port.FeatureCalculator = (*RipenessCalculator)(nil)
