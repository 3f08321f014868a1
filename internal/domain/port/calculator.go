package port

import (
	"context"
	"image"
)

// FeatureCalculator вычисляет признак по вырезанному изображению клубники
type FeatureCalculator interface {
	Calculate(img image.Image) (float64, error)
}

// RegressionCalculator вычисляет признак по изображению и метке времени снимка
type RegressionCalculator interface {
	Calculate(ctx context.Context, timestamp string, img image.Image) (float64, error)
}
