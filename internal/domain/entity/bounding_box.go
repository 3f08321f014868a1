package entity

import "image"

// BoundingBox ограничивающая рамка клубники на изображении
type BoundingBox struct {
	X      int `json:"x"`      // координата X левого верхнего угла
	Y      int `json:"y"`      // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина рамки в пикселях
	Height int `json:"height"` // высота рамки в пикселях
}

// NewBoundingBox создаёт рамку по левому верхнему углу и размерам
func NewBoundingBox(x, y, width, height int) BoundingBox {
	return BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// BoundingBoxFromRect переводит image.Rectangle в рамку
func BoundingBoxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Center возвращает координаты центра рамки
func (b BoundingBox) Center() (x, y int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area площадь рамки
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Rect возвращает рамку как image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Contains проверяет попадание точки в рамку (правая и нижняя границы не включаются)
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Clamp обрезает рамку по границам изображения width×height.
// Отрицательное начало уменьшает размер, выход за дальний край обрезается.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	x, y, w, h := b.X, b.Y, b.Width, b.Height
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x > width {
		x = width
	}
	if y > height {
		y = height
	}
	if x+w > width {
		w = width - x
	}
	if y+h > height {
		h = height - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return BoundingBox{X: x, Y: y, Width: w, Height: h}
}
