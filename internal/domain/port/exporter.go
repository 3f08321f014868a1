package port

import "berry-quality/internal/domain/entity"

// ResultExporter сохраняет результаты обработки
type ResultExporter interface {
	Export(result *entity.ProcessingResult) (string, error)
}
