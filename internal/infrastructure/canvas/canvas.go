// Package canvas реализует рисование разметки на чистом Go поверх image.RGBA
package canvas

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"berry-quality/internal/domain/port"
)

// Доля длины линии, занимаемая наконечником стрелки
const arrowTipRatio = 0.1

// Масштаб 1 соответствует высоте шрифта около 20 пикселей
const fontScale = 1.5

// Canvas поверхность рисования
type Canvas struct {
	img *image.RGBA
}

// New оборачивает готовое изображение без копирования
func New(img *image.RGBA) *Canvas {
	return &Canvas{img: img}
}

// Rectangle рисует рамку; отрицательная толщина означает заливку
func (c *Canvas) Rectangle(r image.Rectangle, col color.Color, thickness int) {
	r = r.Canon()
	if c.img == nil {
		return
	}
	if thickness < 0 {
		draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	c.Line(image.Pt(x0, y0), image.Pt(x1, y0), col, thickness)
	c.Line(image.Pt(x1, y0), image.Pt(x1, y1), col, thickness)
	c.Line(image.Pt(x1, y1), image.Pt(x0, y1), col, thickness)
	c.Line(image.Pt(x0, y1), image.Pt(x0, y0), col, thickness)
}

// Line рисует отрезок алгоритмом Брезенхэма
func (c *Canvas) Line(from, to image.Point, col color.Color, thickness int) {
	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx, sy := sign(to.X-from.X), sign(to.Y-from.Y)
	e := dx + dy

	x, y := from.X, from.Y
	for {
		c.stamp(x, y, col, thickness)
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// ArrowedLine рисует отрезок с наконечником в точке to
func (c *Canvas) ArrowedLine(from, to image.Point, col color.Color, thickness int) {
	c.Line(from, to, col, thickness)

	length := math.Hypot(float64(to.X-from.X), float64(to.Y-from.Y))
	if length == 0 {
		return
	}
	tip := length * arrowTipRatio
	angle := math.Atan2(float64(from.Y-to.Y), float64(from.X-to.X))
	for _, side := range []float64{math.Pi / 4, -math.Pi / 4} {
		end := image.Pt(
			int(math.Round(float64(to.X)+tip*math.Cos(angle+side))),
			int(math.Round(float64(to.Y)+tip*math.Sin(angle+side))),
		)
		c.Line(to, end, col, thickness)
	}
}

// Circle рисует окружность; отрицательная толщина означает заливку
func (c *Canvas) Circle(center image.Point, radius int, col color.Color, thickness int) {
	if radius <= 0 {
		return
	}
	half := float64(max(thickness, 1)) / 2
	outer := radius + int(math.Ceil(half))
	for dy := -outer; dy <= outer; dy++ {
		for dx := -outer; dx <= outer; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if thickness < 0 {
				if d > float64(radius) {
					continue
				}
			} else if math.Abs(d-float64(radius)) > half {
				continue
			}
			c.set(center.X+dx, center.Y+dy, col)
		}
	}
}

// Text пишет строку растровым шрифтом; org задаёт левый нижний угол (базовую линию).
// Толщина больше 1 утолщает штрихи.
func (c *Canvas) Text(text string, org image.Point, scale float64, col color.Color, thickness int) {
	mask := TextMask(text, scale)
	if mask == nil || c.img == nil {
		return
	}
	top := org.Y - mask.Bounds().Dy() + scaledDescent(scale)
	src := image.NewUniform(col)
	spread := max(thickness, 1) / 2
	for oy := -spread; oy <= spread; oy++ {
		for ox := -spread; ox <= spread; ox++ {
			r := mask.Bounds().Add(image.Pt(org.X+ox, top+oy))
			draw.DrawMask(c.img, r, src, image.Point{}, mask, image.Point{}, draw.Over)
		}
	}
}

// Image возвращает копию текущего изображения
func (c *Canvas) Image() (image.Image, error) {
	if c.img == nil {
		return nil, errors.New("canvas is closed")
	}
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out, nil
}

// Close освобождает изображение
func (c *Canvas) Close() error {
	c.img = nil
	return nil
}

func (c *Canvas) stamp(x, y int, col color.Color, thickness int) {
	if thickness <= 1 {
		c.set(x, y, col)
		return
	}
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	for dy := lo; dy <= hi; dy++ {
		for dx := lo; dx <= hi; dx++ {
			c.set(x+dx, y+dy, col)
		}
	}
}

func (c *Canvas) set(x, y int, col color.Color) {
	if c.img == nil || !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	c.img.Set(x, y, col)
}

// TextMask растеризует строку в альфа-маску с учётом масштаба
func TextMask(text string, scale float64) *image.Alpha {
	if text == "" || scale <= 0 {
		return nil
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Height
	base := image.NewAlpha(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  base,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	factor := scale * fontScale
	w := max(1, int(math.Round(float64(width)*factor)))
	h := max(1, int(math.Round(float64(height)*factor)))
	scaled := image.NewAlpha(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), draw.Src, nil)
	return scaled
}

func scaledDescent(scale float64) int {
	return int(math.Round(float64(basicfont.Face7x13.Descent) * scale * fontScale))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

var _ port.Canvas = (*Canvas)(nil)
