// Package export сохраняет результаты обработки в JSON
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// LatestFileName файл с копией данных последнего прохода
const LatestFileName = "data.json"

// PassFileName имя файла данных конкретного прохода
func PassFileName(id uuid.UUID) string {
	return "data-" + id.String() + ".json"
}

// Record данные одной ягоды; невычисленные признаки опускаются
type Record struct {
	BoundingBox   entity.BoundingBox `json:"boundingBox"`
	Ripeness      *float64           `json:"ripeness,omitempty"`
	Brix          *float64           `json:"brix,omitempty"`
	Firmness      *float64           `json:"firmness,omitempty"`
	Roundness     *float64           `json:"roundness,omitempty"`
	Marketability *bool              `json:"marketability,omitempty"`
	Smoothness    *float64           `json:"smoothness,omitempty"`
}

// Document содержимое файла экспорта
type Document struct {
	PassID             string   `json:"pass_id"`
	ImageDate          string   `json:"image_date"`
	StrawberrySegments []Record `json:"strawberrySegments"`
}

// JSONExporter пишет каждый проход в отдельный файл <dir>/data-<pass_id>.json
// и обновляет <dir>/data.json заменой через переименование
type JSONExporter struct {
	dir string
}

// NewJSONExporter создаёт экспортёр
func NewJSONExporter(dir string) *JSONExporter {
	return &JSONExporter{dir: dir}
}

// NewDocument переводит результат в документ экспорта
func NewDocument(result *entity.ProcessingResult) Document {
	doc := Document{
		PassID:             result.ID.String(),
		ImageDate:          result.Timestamp,
		StrawberrySegments: make([]Record, 0, len(result.Segments)),
	}
	for _, s := range result.Segments {
		doc.StrawberrySegments = append(doc.StrawberrySegments, NewRecord(s))
	}
	return doc
}

// NewRecord переводит сегмент в запись; недоступная твёрдость опускается
func NewRecord(s *entity.StrawberrySegment) Record {
	rec := Record{
		BoundingBox:   s.Box,
		Ripeness:      s.Ripeness,
		Brix:          s.Brix,
		Roundness:     s.Roundness,
		Marketability: s.Marketable,
		Smoothness:    s.Smoothness,
	}
	if v, ok := s.Value(entity.AttributeFirmness); ok {
		rec.Firmness = entity.Float(v)
	}
	return rec
}

// Export сохраняет результат и возвращает путь к файлу
func (e *JSONExporter) Export(result *entity.ProcessingResult) (string, error) {
	if result == nil {
		return "", errors.New("nothing to export")
	}
	data, err := json.MarshalIndent(NewDocument(result), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, PassFileName(result.ID))
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(e.dir, LatestFileName), data); err != nil {
		logger.WithError(err).Warn("failed to update latest export")
	}

	logger.WithFields(logrus.Fields{
		"pass_id":  result.ID.String(),
		"path":     path,
		"segments": len(result.Segments),
	}).Info("result exported")
	return path, nil
}

// writeFile пишет во временный файл рядом и переименовывает его в path
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

var _ port.ResultExporter = (*JSONExporter)(nil)
