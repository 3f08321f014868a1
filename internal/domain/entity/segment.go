package entity

import (
	"image"
)

// FirmnessUnavailable значение твёрдости, пока модель не подключена
const FirmnessUnavailable = -1.0

// StrawberrySegment одна найденная клубника с вычисленными признаками.
// Пустой указатель означает, что признак ещё не вычислен.
type StrawberrySegment struct {
	Box        BoundingBox
	Image      image.Image
	Ripeness   *float64
	Brix       *float64
	Firmness   *float64
	Roundness  *float64
	Smoothness *float64
	Marketable *bool
}

// NewStrawberrySegment создаёт сегмент только с рамкой
func NewStrawberrySegment(box BoundingBox) *StrawberrySegment {
	return &StrawberrySegment{Box: box}
}

// Float возвращает указатель на значение
func Float(v float64) *float64 {
	return &v
}

// Bool возвращает указатель на значение
func Bool(v bool) *bool {
	return &v
}

// Computed проверяет, вычислен ли признак
func (s *StrawberrySegment) Computed(a Attribute) bool {
	switch a {
	case AttributeRipeness:
		return s.Ripeness != nil
	case AttributeBrix:
		return s.Brix != nil
	case AttributeFirmness:
		return s.Firmness != nil
	case AttributeRoundness:
		return s.Roundness != nil
	case AttributeSmoothness:
		return s.Smoothness != nil
	case AttributeMarketability:
		return s.Marketable != nil
	}
	return false
}

// Invalidate сбрасывает признак, чтобы его пересчитали
func (s *StrawberrySegment) Invalidate(a Attribute) {
	switch a {
	case AttributeRipeness:
		s.Ripeness = nil
	case AttributeBrix:
		s.Brix = nil
	case AttributeFirmness:
		s.Firmness = nil
	case AttributeRoundness:
		s.Roundness = nil
	case AttributeSmoothness:
		s.Smoothness = nil
	case AttributeMarketability:
		s.Marketable = nil
	}
}

// Value возвращает числовое значение признака.
// Товарность даёт 1 или 0, твёрдость -1 считается недоступной.
func (s *StrawberrySegment) Value(a Attribute) (float64, bool) {
	var p *float64
	switch a {
	case AttributeRipeness:
		p = s.Ripeness
	case AttributeBrix:
		p = s.Brix
	case AttributeFirmness:
		if s.Firmness == nil || *s.Firmness == FirmnessUnavailable {
			return 0, false
		}
		p = s.Firmness
	case AttributeRoundness:
		p = s.Roundness
	case AttributeSmoothness:
		p = s.Smoothness
	case AttributeMarketability:
		if s.Marketable == nil {
			return 0, false
		}
		if *s.Marketable {
			return 1, true
		}
		return 0, true
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Equal структурное сравнение, включая пиксели изображения
func (s *StrawberrySegment) Equal(o *StrawberrySegment) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Box == o.Box &&
		equalFloat(s.Ripeness, o.Ripeness) &&
		equalFloat(s.Brix, o.Brix) &&
		equalFloat(s.Firmness, o.Firmness) &&
		equalFloat(s.Roundness, o.Roundness) &&
		equalFloat(s.Smoothness, o.Smoothness) &&
		equalBool(s.Marketable, o.Marketable) &&
		equalImages(s.Image, o.Image)
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalImages(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}
