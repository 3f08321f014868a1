package brix

import (
	"context"
	"fmt"
	"image"
	"path"
	"sync"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// Calculator оценивает содержание сахара (Brix) по снимку и климату перед ним
type Calculator struct {
	engine  *Engine
	encoder *Encoder
	runner  port.ModelRunner
	prefs   entity.ModelPreferences

	quantiles []float64
	excluded  []int
	hardcoded bool

	mu    sync.Mutex
	cache map[string]*quantileResult
}

// quantileResult квантили одной метки времени, считаются один раз
type quantileResult struct {
	once   sync.Once
	values []float64
	err    error
}

// Option настраивает калькулятор
type Option func(*Calculator)

// WithQuantiles подставляет готовые квантили вместо расчёта по климату
func WithQuantiles(q []float64) Option {
	return func(c *Calculator) {
		c.quantiles = append([]float64(nil), q...)
	}
}

// WithExcludedColumns фиксирует исключаемые колонки весов вместо настроек
func WithExcludedColumns(idx []int) Option {
	return func(c *Calculator) {
		c.excluded = append([]int(nil), idx...)
		c.hardcoded = true
	}
}

// NewCalculator создаёт калькулятор Brix
func NewCalculator(engine *Engine, runner port.ModelRunner, prefs entity.ModelPreferences, opts ...Option) *Calculator {
	c := &Calculator{
		engine:  engine,
		encoder: NewEncoder(runner, engine.Config()),
		runner:  runner,
		prefs:   prefs,
		cache:   make(map[string]*quantileResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quantiles квантили климата для метки времени. Результат запоминается:
// все ягоды одного снимка используют одни и те же квантили.
func (c *Calculator) Quantiles(timestamp string) ([]float64, error) {
	if c.quantiles != nil {
		return c.quantiles, nil
	}

	c.mu.Lock()
	r, ok := c.cache[timestamp]
	if !ok {
		r = &quantileResult{}
		c.cache[timestamp] = r
	}
	c.mu.Unlock()

	r.once.Do(func() {
		r.values, r.err = c.computeQuantiles(timestamp)
	})
	return r.values, r.err
}

func (c *Calculator) computeQuantiles(timestamp string) ([]float64, error) {
	excluded := c.excluded
	if !c.hardcoded {
		var err error
		excluded, err = ParseExcludedColumns(c.prefs.ExcludedBrixColumns)
		if err != nil {
			return nil, err
		}
	}
	return c.engine.Quantiles(QuantileRequest{
		Timestamp:   timestamp,
		ClimateFile: c.prefs.ClimateDataFile,
		WeightsDir:  c.engine.Config().WeightsDir,
		WeightsFile: c.prefs.WeightsFile,
		Excluded:    excluded,
	})
}

// Calculate возвращает Brix для вырезанного изображения ягоды
func (c *Calculator) Calculate(ctx context.Context, timestamp string, img image.Image) (float64, error) {
	quantiles, err := c.Quantiles(timestamp)
	if err != nil {
		return 0, fmt.Errorf("quantiles: %w", err)
	}

	embedding, err := c.encoder.Encode(ctx, img, c.prefs.EncoderModel)
	if err != nil {
		return 0, err
	}

	input := make([]float32, 0, len(embedding)+len(quantiles))
	input = append(input, embedding...)
	for _, q := range quantiles {
		input = append(input, float32(q))
	}

	cfg := c.engine.Config()
	model := path.Join(cfg.BrixModelsDir, c.prefs.BrixModel)
	out, err := c.runner.Run(ctx, model, input, []int{1, len(input)})
	if err != nil {
		return 0, fmt.Errorf("run regression %s: %w", c.prefs.BrixModel, err)
	}
	if len(out) < 1 {
		return 0, fmt.Errorf("regression %s returned no output", c.prefs.BrixModel)
	}
	return cfg.BrixOutput.Apply(float64(out[0])), nil
}

var _ port.RegressionCalculator = (*Calculator)(nil)
