package brix

import (
	"context"
	"fmt"
	"image"
	"path"

	"github.com/disintegration/imaging"

	"berry-quality/internal/domain/port"
)

// Encoder получает векторное представление изображения ягоды
type Encoder struct {
	runner port.ModelRunner
	cfg    Config
}

// NewEncoder создаёт кодировщик изображений
func NewEncoder(runner port.ModelRunner, cfg Config) *Encoder {
	return &Encoder{runner: runner, cfg: cfg}
}

// Tensor переводит изображение в тензор NHWC размера 1×S×S×3 со значениями в [0, 1]
func (e *Encoder) Tensor(img image.Image) ([]float32, []int) {
	size := e.cfg.EncoderInputSize
	resized := imaging.Resize(img, size, size, imaging.NearestNeighbor)

	input := make([]float32, 0, size*size*3)
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+size*4]
		for i := 0; i < len(row); i += 4 {
			input = append(input,
				float32(row[i])/255,
				float32(row[i+1])/255,
				float32(row[i+2])/255,
			)
		}
	}
	return input, []int{1, size, size, 3}
}

// Encode прогоняет изображение через модель-кодировщик. Пустое изображение вызывает панику.
func (e *Encoder) Encode(ctx context.Context, img image.Image, model string) ([]float32, error) {
	if img == nil {
		panic("encoder input image is nil")
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("encoder input image is empty")
	}

	input, shape := e.Tensor(img)
	out, err := e.runner.Run(ctx, path.Join(e.cfg.EncoderModelsDir, model), input, shape)
	if err != nil {
		return nil, fmt.Errorf("run encoder %s: %w", model, err)
	}
	if len(out) != e.cfg.EmbeddingLength {
		return nil, fmt.Errorf("encoder %s returned %d values, expected %d", model, len(out), e.cfg.EmbeddingLength)
	}
	return out, nil
}
