package quality

import "berry-quality/internal/domain/entity"

// MarketabilityThresholds пороги товарности
type MarketabilityThresholds struct {
	MinRoundness  float64
	MaxSmoothness float64
	MinRipeness   float64
}

// DefaultMarketabilityThresholds пороги по умолчанию
func DefaultMarketabilityThresholds() MarketabilityThresholds {
	return MarketabilityThresholds{
		MinRoundness:  0.1,
		MaxSmoothness: 0.15,
		MinRipeness:   0.6,
	}
}

// Marketable ягода товарна, если все три признака вычислены и проходят пороги
func (t MarketabilityThresholds) Marketable(roundness, smoothness, ripeness *float64) bool {
	if roundness == nil || smoothness == nil || ripeness == nil {
		return false
	}
	return *roundness >= t.MinRoundness && *smoothness <= t.MaxSmoothness && *ripeness >= t.MinRipeness
}

// MarketableSegment применяет пороги к признакам сегмента
func (t MarketabilityThresholds) MarketableSegment(s *entity.StrawberrySegment) bool {
	return t.Marketable(s.Roundness, s.Smoothness, s.Ripeness)
}
