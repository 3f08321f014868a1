package vision

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
)

// ErrGoCVDisabled сборка без тега gocv
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// HSVRange диапазон цвета в шкале OpenCV (H 0..180, S и V 0..255)
type HSVRange struct {
	Low, High [3]float64
}

// ColorDetectorConfig пороги цветового детектора
type ColorDetectorConfig struct {
	MaxSide    int
	RedRanges  []HSVRange
	OpenKernel int
	DilateSize int
	CloseSize  int
	MinRatio   float64 // минимальное отношение высоты к ширине
	MaxRatio   float64
	MinArea    float64 // минимальная площадь компоненты в пикселях
	MinFill    float64 // минимальная доля заполнения ограничивающей рамки
}

// DefaultColorDetectorConfig пороги для красной клубники
func DefaultColorDetectorConfig() ColorDetectorConfig {
	return ColorDetectorConfig{
		MaxSide: 1024,
		RedRanges: []HSVRange{
			{Low: [3]float64{0, 60, 100}, High: [3]float64{10, 255, 255}},
			{Low: [3]float64{165, 60, 100}, High: [3]float64{180, 255, 255}},
		},
		OpenKernel: 30,
		DilateSize: 50,
		CloseSize:  20,
		MinRatio:   0.5,
		MaxRatio:   1.5,
		MinArea:    10000,
		MinFill:    0.5,
	}
}

// AcceptComponent решает, похожа ли связная компонента маски на ягоду:
// отношение сторон строго между MinRatio и MaxRatio, площадь больше MinArea
// и больше MinFill от площади рамки
func (c ColorDetectorConfig) AcceptComponent(width, height int, area float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	ratio := float64(height) / float64(width)
	return ratio > c.MinRatio && ratio < c.MaxRatio &&
		area > c.MinArea &&
		area > c.MinFill*float64(width*height)
}

// FitSize уменьшает размер так, чтобы большая сторона не превышала maxSide
func FitSize(width, height, maxSide int) image.Point {
	if width <= maxSide && height <= maxSide {
		return image.Pt(width, height)
	}
	if width >= height {
		return image.Pt(maxSide, int(float64(maxSide)/float64(width)*float64(height)))
	}
	return image.Pt(int(float64(maxSide)/float64(height)*float64(width)), maxSide)
}

// Float32Bytes упаковывает тензор в байты little-endian для передачи в OpenCV
func Float32Bytes(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
