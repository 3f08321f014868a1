package port

import (
	"context"
	"image"

	"berry-quality/internal/domain/entity"
)

// StrawberryDetector интерфейс детектора клубники
type StrawberryDetector interface {
	// Detect находит клубнику на изображении и возвращает ограничивающие рамки
	Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error)
}
