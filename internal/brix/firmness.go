package brix

import (
	"context"
	"image"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// FirmnessCalculator использует ту же схему, что и Brix, но модель твёрдости
// пока не обучена: Calculate всегда возвращает entity.FirmnessUnavailable.
type FirmnessCalculator struct {
	engine *Engine
	prefs  entity.ModelPreferences
}

// NewFirmnessCalculator создаёт калькулятор твёрдости
func NewFirmnessCalculator(engine *Engine, prefs entity.ModelPreferences) *FirmnessCalculator {
	return &FirmnessCalculator{engine: engine, prefs: prefs}
}

// Quantiles квантили климата по весам твёрдости
func (c *FirmnessCalculator) Quantiles(timestamp string) ([]float64, error) {
	excluded, err := ParseExcludedColumns(c.prefs.ExcludedFirmnessColumns)
	if err != nil {
		return nil, err
	}
	return c.engine.Quantiles(QuantileRequest{
		Timestamp:   timestamp,
		ClimateFile: c.prefs.ClimateDataFile,
		WeightsDir:  c.engine.Config().FirmnessWeightsDir,
		WeightsFile: c.prefs.FirmnessWeightsFile,
		Excluded:    excluded,
	})
}

// Calculate возвращает entity.FirmnessUnavailable
func (c *FirmnessCalculator) Calculate(ctx context.Context, timestamp string, img image.Image) (float64, error) {
	return entity.FirmnessUnavailable, nil
}

var _ port.RegressionCalculator = (*FirmnessCalculator)(nil)
