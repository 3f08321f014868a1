package port

import "context"

// ModelRunner исполнитель нейросетевых моделей
type ModelRunner interface {
	// Run прогоняет тензор формы shape через модель и возвращает выход одной строкой
	Run(ctx context.Context, model string, input []float32, shape []int) ([]float32, error)
}
