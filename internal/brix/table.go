package brix

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ErrTimestampNotFound метка времени отсутствует в климатических данных
var ErrTimestampNotFound = errors.New("timestamp not found in climate data")

// Rows разбивает строки CSV по запятой, пропуская заголовок
func Rows(lines []string) [][]string {
	if len(lines) <= 1 {
		return nil
	}
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

// LastNRows возвращает n строк, заканчивающихся строкой с заданной меткой времени (включительно)
func LastNRows(rows [][]string, n int, timestamp string) ([][]string, error) {
	for i, row := range rows {
		if len(row) > 0 && row[0] == timestamp {
			return rows[max(i-(n-1), 0) : i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTimestampNotFound, timestamp)
}

// ParseGrid переводит строки в числа. Колонка 0 (метка времени) не разбирается
// и остаётся нулевой, пустые ячейки становятся NaN.
func ParseGrid(rows [][]string) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	grid := make([][]float64, len(rows))
	for i, row := range rows {
		grid[i] = make([]float64, width)
		for j := 1; j < width; j++ {
			if j >= len(row) {
				grid[i][j] = math.NaN()
				continue
			}
			cell := strings.TrimSpace(row[j])
			if cell == "" {
				grid[i][j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			grid[i][j] = v
		}
	}
	return grid, nil
}

// ParseWeights переводит все колонки строк весов в числа
func ParseWeights(rows [][]string) ([][]float64, error) {
	weights := make([][]float64, len(rows))
	for i, row := range rows {
		weights[i] = make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("weights row %d column %d: %w", i, j, err)
			}
			weights[i][j] = v
		}
	}
	return weights, nil
}

// CheckColumns проверяет индексы колонок таблицы ширины width: каждый в
// пределах [0, width) и без повторов
func CheckColumns(exclude []int, width int) error {
	seen := make(map[int]struct{}, len(exclude))
	for _, idx := range exclude {
		if idx < 0 || idx >= width {
			return fmt.Errorf("column index %d out of range [0, %d)", idx, width)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("column index %d listed twice", idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// DropColumns удаляет колонки с указанными индексами, сохраняя порядок остальных.
// Недопустимый или повторный индекс вызывает панику.
func DropColumns[T any](data [][]T, exclude []int) [][]T {
	skip := make(map[int]struct{}, len(exclude))
	for _, idx := range exclude {
		skip[idx] = struct{}{}
	}
	checked := -1
	out := make([][]T, len(data))
	for i, row := range data {
		if len(row) != checked {
			if err := CheckColumns(exclude, len(row)); err != nil {
				panic(fmt.Sprintf("drop columns in row %d: %v", i, err))
			}
			checked = len(row)
		}
		kept := make([]T, 0, len(row))
		for j, v := range row {
			if _, ok := skip[j]; !ok {
				kept = append(kept, v)
			}
		}
		out[i] = kept
	}
	return out
}

// ReplaceNaN заменяет NaN на value
func ReplaceNaN(grid [][]float64, value float64) {
	for _, row := range grid {
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = value
			}
		}
	}
}

// ColumnMeans среднее по каждой колонке
func ColumnMeans(grid [][]float64) []float64 {
	if len(grid) == 0 {
		return nil
	}
	means := make([]float64, len(grid[0]))
	column := make([]float64, len(grid))
	for j := range means {
		for i, row := range grid {
			column[i] = row[j]
		}
		means[j] = stat.Mean(column, nil)
	}
	return means
}

// ParseExcludedColumns разбирает список индексов вида "1, 3"; пустая строка означает отсутствие исключений
func ParseExcludedColumns(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("excluded column %q: %w", p, err)
		}
		out = append(out, idx)
	}
	return out, nil
}
