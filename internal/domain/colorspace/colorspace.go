package colorspace

import (
	"image/color"
	"math"

	"berry-quality/internal/domain/entity"
)

// Опорный белый D65 и пороги CIE, те же что в OpenCV
const (
	whiteX = 0.950456
	whiteZ = 1.088754

	labThreshold = 0.008856
	labKappa     = 903.3
)

// RGBToLab переводит sRGB (0..255) в CIELab (L 0..100, a и b примерно -128..127)
func RGBToLab(r, g, b float64) (l, a, bb float64) {
	rl := linearize(r / 255)
	gl := linearize(g / 255)
	bl := linearize(b / 255)

	x := (0.412453*rl + 0.357580*gl + 0.180423*bl) / whiteX
	y := 0.212671*rl + 0.715160*gl + 0.072169*bl
	z := (0.019334*rl + 0.119193*gl + 0.950227*bl) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	if y > labThreshold {
		l = 116*math.Cbrt(y) - 16
	} else {
		l = labKappa * y
	}
	return l, 500 * (fx - fy), 200 * (fy - fz)
}

func linearize(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	if t > labThreshold {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

// HSVToRGB переводит HSV в шкале OpenCV (H 0..180, S и V 0..255) в RGB
func HSVToRGB(h, s, v float64) color.RGBA {
	hue := math.Mod(h*2, 360)
	if hue < 0 {
		hue += 360
	}
	sat := s / 255
	val := v / 255

	c := val * sat
	x := c * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := val - c

	var r, g, b float64
	switch {
	case hue < 60:
		r, g, b = c, x, 0
	case hue < 120:
		r, g, b = x, c, 0
	case hue < 180:
		r, g, b = 0, c, x
	case hue < 240:
		r, g, b = 0, x, c
	case hue < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

// Interpolate цвет от красного (0) до зелёного (1) по оттенку
func Interpolate(normalized float64) color.RGBA {
	if math.IsNaN(normalized) || normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	return HSVToRGB(normalized*60, 255, 255)
}

// InterpolateColor нормирует значение по диапазону и возвращает цвет
func InterpolateColor(value float64, r entity.FeatureRange[float64]) color.RGBA {
	return Interpolate(entity.Normalize(r, value))
}
