package brix

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"berry-quality/internal/domain/port"
)

// QuantileRequest параметры расчёта квантилей (или среднего) по климатическим данным
type QuantileRequest struct {
	Timestamp   string // метка времени, округлённая до часа
	ClimateFile string // имя файла в каталоге климатических данных
	WeightsDir  string // каталог весов (Brix или твёрдость)
	WeightsFile string
	Excluded    []int // индексы исключаемых колонок весов
}

// Engine проецирует усреднённые климатические признаки на веса регрессии
type Engine struct {
	store port.AssetStore
	cfg   Config
}

// NewEngine создаёт движок весов
func NewEngine(store port.AssetStore, cfg Config) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Config возвращает конфигурацию движка
func (e *Engine) Config() Config {
	return e.cfg
}

// Quantiles возвращает де-стандартизованные квантили (9 значений) или среднее (1 значение)
func (e *Engine) Quantiles(req QuantileRequest) ([]float64, error) {
	avg, err := e.AverageFeatures(req.ClimateFile, req.Timestamp)
	if err != nil {
		return nil, err
	}

	weightsFile := req.WeightsDir + req.WeightsFile
	lines, err := e.store.ReadLines(weightsFile)
	if err != nil {
		return nil, fmt.Errorf("read weights %s: %w", weightsFile, err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("weights file %s has no rows", weightsFile)
	}
	weights, err := ParseWeights(Rows(lines))
	if err != nil {
		return nil, err
	}
	names := strings.Split(strings.TrimRight(lines[0], "\r"), ",")
	for i, row := range weights {
		if len(row) != len(names) {
			return nil, fmt.Errorf("weights row %d has %d columns, header has %d", i, len(row), len(names))
		}
	}

	if err := CheckColumns(req.Excluded, len(names)); err != nil {
		return nil, fmt.Errorf("excluded columns of %s: %w", weightsFile, err)
	}
	weights = DropColumns(weights, req.Excluded)
	names = DropColumns([][]string{names}, req.Excluded)[0]

	retriever, err := NewFeaturesOrderRetriever(e.store, e.cfg)
	if err != nil {
		return nil, err
	}
	quantiles := Project(weights, avg, retriever.Order(names))

	if err := e.Destandardize(quantiles); err != nil {
		return nil, err
	}
	return quantiles, nil
}

// AverageFeatures среднее каждого климатического признака за окно, заканчивающееся меткой времени
func (e *Engine) AverageFeatures(climateFile, timestamp string) ([]float64, error) {
	name := e.cfg.ClimateDir + climateFile
	lines, err := e.store.ReadLines(name)
	if err != nil {
		return nil, fmt.Errorf("read climate data %s: %w", name, err)
	}

	window, err := LastNRows(Rows(lines), e.cfg.WindowHours, timestamp)
	if err != nil {
		return nil, err
	}
	if len(window) > 0 && len(window[0]) != e.cfg.ClimateRowWidth {
		window = window[1:]
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("climate window for %s is empty", timestamp)
	}

	grid, err := ParseGrid(window)
	if err != nil {
		return nil, fmt.Errorf("parse climate data: %w", err)
	}
	grid = DropColumns(grid, []int{0})
	ReplaceNaN(grid, 0)
	return ColumnMeans(grid), nil
}

// Project считает quantiles[row] = Σ weights[row][c]·avg[order[c]] по сопоставленным колонкам.
// Индекс признака за пределами avg вызывает панику.
func Project(weights [][]float64, avg []float64, order []int) []float64 {
	rows := len(weights)
	out := make([]float64, rows)
	cols := len(order)
	if rows == 0 || cols == 0 {
		return out
	}

	flat := make([]float64, 0, rows*cols)
	for i, row := range weights {
		if len(row) != cols {
			panic(fmt.Sprintf("weights row %d has %d columns, order has %d", i, len(row), cols))
		}
		flat = append(flat, row...)
	}

	gathered := make([]float64, cols)
	for c, idx := range order {
		if idx < 0 {
			continue
		}
		if idx >= len(avg) {
			panic(fmt.Sprintf("feature index %d out of range (%d features)", idx, len(avg)))
		}
		gathered[c] = avg[idx]
	}

	var result mat.VecDense
	result.MulVec(mat.NewDense(rows, cols, flat), mat.NewVecDense(cols, gathered))
	for i := range out {
		out[i] = result.AtVec(i)
	}
	return out
}

// Destandardize переводит значения из стандартных отклонений в реальные единицы
func (e *Engine) Destandardize(values []float64) error {
	switch len(values) {
	case 1:
		values[0] = e.cfg.MeanTable.Apply(values[0])
	case len(e.cfg.QuantileTable):
		for i, s := range e.cfg.QuantileTable {
			values[i] = s.Apply(values[i])
		}
	default:
		return fmt.Errorf("unsupported number of quantiles: %d", len(values))
	}
	return nil
}
