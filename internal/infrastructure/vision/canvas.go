//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"berry-quality/internal/domain/port"
)

// Canvas рисует на матрице OpenCV
type Canvas struct {
	mat    gocv.Mat
	closed bool
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func (c *Canvas) Rectangle(r image.Rectangle, col color.Color, thickness int) {
	gocv.Rectangle(&c.mat, r, rgba(col), thickness)
}

func (c *Canvas) Line(from, to image.Point, col color.Color, thickness int) {
	gocv.Line(&c.mat, from, to, rgba(col), max(thickness, 1))
}

func (c *Canvas) ArrowedLine(from, to image.Point, col color.Color, thickness int) {
	gocv.ArrowedLine(&c.mat, from, to, rgba(col), max(thickness, 1))
}

func (c *Canvas) Circle(center image.Point, radius int, col color.Color, thickness int) {
	gocv.Circle(&c.mat, center, radius, rgba(col), thickness)
}

func (c *Canvas) Text(text string, org image.Point, scale float64, col color.Color, thickness int) {
	gocv.PutText(&c.mat, text, org, gocv.FontHersheySimplex, scale, rgba(col), max(thickness, 1))
}

func (c *Canvas) Image() (image.Image, error) {
	if c.closed {
		return nil, errors.New("canvas is closed")
	}
	return c.mat.ToImage()
}

func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.mat.Close()
}

// CanvasFactory создаёт поверхности на матрицах OpenCV
type CanvasFactory struct{}

// NewCanvasFactory создаёт фабрику
func NewCanvasFactory() *CanvasFactory {
	return &CanvasFactory{}
}

func (f *CanvasFactory) FromImage(img image.Image) (port.Canvas, error) {
	if img == nil {
		return nil, errors.New("source image is nil")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	return &Canvas{mat: mat}, nil
}

func (f *CanvasFactory) Blank(width, height int, background color.Color) (port.Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	bg := rgba(background)
	mat := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0),
		height, width, gocv.MatTypeCV8UC3)
	return &Canvas{mat: mat}, nil
}

var (
	_ port.Canvas        = (*Canvas)(nil)
	_ port.CanvasFactory = (*CanvasFactory)(nil)
)
