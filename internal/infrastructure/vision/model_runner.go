//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

type loadedNet struct {
	mu  sync.Mutex
	net gocv.Net
}

// DNNRunner исполняет ONNX-модели через модуль dnn OpenCV.
// Загруженные сети кэшируются по имени файла.
type DNNRunner struct {
	store port.AssetStore

	mu   sync.RWMutex
	nets map[string]*loadedNet
}

// NewDNNRunner создаёт исполнитель моделей
func NewDNNRunner(store port.AssetStore) *DNNRunner {
	return &DNNRunner{store: store, nets: make(map[string]*loadedNet)}
}

// Run прогоняет тензор через модель и возвращает копию выхода
func (r *DNNRunner) Run(ctx context.Context, model string, input []float32, shape []int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := r.load(model)
	if err != nil {
		return nil, err
	}

	blob, err := gocv.NewMatWithSizesFromBytes(shape, gocv.MatTypeCV32F, Float32Bytes(input))
	if err != nil {
		return nil, fmt.Errorf("build input tensor for %s: %w", model, err)
	}
	defer blob.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output of %s: %w", model, err)
	}
	return append([]float32(nil), data...), nil
}

func (r *DNNRunner) load(model string) (*loadedNet, error) {
	r.mu.RLock()
	n, ok := r.nets[model]
	r.mu.RUnlock()
	if ok {
		return n, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nets[model]; ok {
		return n, nil
	}

	path := r.store.Path(model)
	net := gocv.ReadNet(path, "")
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load model %s", path)
	}
	logger.WithFields(logrus.Fields{"model": model, "path": path}).Info("model loaded")

	n = &loadedNet{net: net}
	r.nets[model] = n
	return n, nil
}

// Close освобождает загруженные сети
func (r *DNNRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, n := range r.nets {
		n.mu.Lock()
		n.net.Close()
		n.mu.Unlock()
		delete(r.nets, name)
	}
	return nil
}

var _ port.ModelRunner = (*DNNRunner)(nil)
