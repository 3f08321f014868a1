package entity

import "cmp"

// FeatureRange замкнутый интервал [Min, Max]
type FeatureRange[T cmp.Ordered] struct {
	Min T `mapstructure:"min" json:"min"`
	Max T `mapstructure:"max" json:"max"`
}

// NewFeatureRange создаёт интервал, упорядочивая границы
func NewFeatureRange[T cmp.Ordered](lo, hi T) FeatureRange[T] {
	if hi < lo {
		lo, hi = hi, lo
	}
	return FeatureRange[T]{Min: lo, Max: hi}
}

// Contains проверяет Min ≤ v ≤ Max
func (r FeatureRange[T]) Contains(v T) bool {
	return r.Min <= v && v <= r.Max
}

// Clip прижимает значение к границам интервала
func (r FeatureRange[T]) Clip(v T) T {
	return max(r.Min, min(v, r.Max))
}

// Span ширина вещественного интервала
func Span(r FeatureRange[float64]) float64 {
	return r.Max - r.Min
}

// Normalize переводит значение в [0, 1] относительно интервала; вырожденный интервал даёт 0
func Normalize(r FeatureRange[float64], v float64) float64 {
	span := Span(r)
	if span <= 0 {
		return 0
	}
	return (r.Clip(v) - r.Min) / span
}
