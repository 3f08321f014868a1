package canvas

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"berry-quality/internal/domain/port"
)

// Factory создаёт поверхности рисования на чистом Go
type Factory struct{}

// NewFactory создаёт фабрику
func NewFactory() *Factory {
	return &Factory{}
}

// FromImage копирует изображение в новую поверхность с началом координат в (0, 0)
func (f *Factory) FromImage(img image.Image) (port.Canvas, error) {
	if img == nil {
		return nil, fmt.Errorf("source image is nil")
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return New(dst), nil
}

// Blank создаёт поверхность, залитую цветом фона
func (f *Factory) Blank(width, height int, background color.Color) (port.Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return New(dst), nil
}

var _ port.CanvasFactory = (*Factory)(nil)
