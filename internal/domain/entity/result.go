package entity

import (
	"image"

	"github.com/google/uuid"
)

// ProcessingResult итог одного прохода обработки изображения.
type ProcessingResult struct {
	ID        uuid.UUID            // идентификатор прохода
	Timestamp string               // время снимка, округлённое до часа
	Segments  []*StrawberrySegment // найденные клубники
	Annotated image.Image          // изображение с разметкой
}

// MarketableCount число товарных ягод
func (r *ProcessingResult) MarketableCount() int {
	n := 0
	for _, s := range r.Segments {
		if s.Marketable != nil && *s.Marketable {
			n++
		}
	}
	return n
}
