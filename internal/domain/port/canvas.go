package port

import (
	"image"
	"image/color"
)

// Canvas поверхность для рисования разметки и графиков
type Canvas interface {
	Rectangle(r image.Rectangle, c color.Color, thickness int)
	Line(from, to image.Point, c color.Color, thickness int)
	ArrowedLine(from, to image.Point, c color.Color, thickness int)
	// Circle рисует окружность; отрицательная толщина означает заливку
	Circle(center image.Point, radius int, c color.Color, thickness int)
	// Text пишет строку, org задаёт левый нижний угол текста
	Text(text string, org image.Point, scale float64, c color.Color, thickness int)
	Image() (image.Image, error)
	Close() error
}

// CanvasFactory создаёт поверхности для рисования
type CanvasFactory interface {
	FromImage(img image.Image) (Canvas, error)
	Blank(width, height int, background color.Color) (Canvas, error)
}
