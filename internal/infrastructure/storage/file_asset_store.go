package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// FileAssetStore читает файлы данных из каталога assets и кэширует их строки.
// Закэшированные срезы не изменяются после загрузки.
type FileAssetStore struct {
	root string

	mu    sync.RWMutex
	lines map[string][]string
}

// NewFileAssetStore создаёт хранилище с корнем root
func NewFileAssetStore(root string) *FileAssetStore {
	return &FileAssetStore{root: root, lines: make(map[string][]string)}
}

// Path полный путь к файлу внутри каталога assets
func (s *FileAssetStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// ReadLines возвращает строки файла (с заголовком), читая диск только при первом обращении
func (s *FileAssetStore) ReadLines(name string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.lines[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	lines, err := s.readFile(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.lines[name]; ok {
		lines = existing
	} else {
		s.lines[name] = lines
	}
	s.mu.Unlock()

	logger.WithFields(logrus.Fields{"asset": name, "lines": len(lines)}).Debug("asset cached")
	return lines, nil
}

func (s *FileAssetStore) readFile(name string) ([]string, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return lines, nil
}

var _ port.AssetStore = (*FileAssetStore)(nil)
