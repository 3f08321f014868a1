// Package remote содержит детекторы клубники, работающие через внешние HTTP-сервисы
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// Метод сегментации на стороне сервиса
const (
	MethodColor = "color"
	MethodYOLOX = "yolox"
)

const (
	// DefaultMaxSide большая сторона изображения, отправляемого на сервис
	DefaultMaxSide = 640
	// matTypeRGBA тип буфера CV_8UC4, ожидаемый сервисом
	matTypeRGBA = 24
)

// Detector отправляет сырое RGBA-изображение на сервис сегментации
type Detector struct {
	baseURL string
	method  string
	maxSide int
	client  *http.Client
}

// NewDetector создаёт удалённый детектор. Пустой client заменяется клиентом с таймаутом 30 секунд.
func NewDetector(baseURL, method string, client *http.Client) *Detector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Detector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		method:  method,
		maxSide: DefaultMaxSide,
		client:  client,
	}
}

type remoteBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detect возвращает рамки в координатах исходного изображения.
// Ошибки сети и разбора ответа логируются, результат при этом пустой.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	boxes, err := d.detect(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.WithFields(logrus.Fields{
			"detector": d.method,
			"url":      d.baseURL,
		}).WithError(err).Warn("remote segmentation failed")
		return []entity.BoundingBox{}, nil
	}
	return boxes, nil
}

func (d *Detector) detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	size := LongSide(b.Dx(), b.Dy(), d.maxSide)
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("cannot scale %dx%d image", b.Dx(), b.Dy())
	}
	resized := imaging.Resize(img, size.X, size.Y, imaging.Box)
	// ответ пересчитывается по отношению высот
	scale := float32(size.Y) / float32(b.Dy())
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v for %dx%d image", scale, b.Dx(), b.Dy())
	}

	q := url.Values{}
	q.Set("height", fmt.Sprint(size.Y))
	q.Set("width", fmt.Sprint(size.X))
	q.Set("type", fmt.Sprint(matTypeRGBA))
	endpoint := fmt.Sprintf("%s/%s?%s", d.baseURL, d.method, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(resized.Pix))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []entity.BoundingBox{}, nil
	}

	var raw []remoteBox
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	boxes := make([]entity.BoundingBox, 0, len(raw))
	for _, r := range raw {
		boxes = append(boxes, entity.NewBoundingBox(
			int(float32(r.X)/scale),
			int(float32(r.Y)/scale),
			int(float32(r.Width)/scale),
			int(float32(r.Height)/scale),
		))
	}
	return boxes, nil
}

// LongSide масштабирует размер так, чтобы большая сторона стала равна maxSide.
// Меньшая сторона не становится меньше 1; для пустого размера возвращается нулевая точка.
func LongSide(width, height, maxSide int) image.Point {
	if width <= 0 || height <= 0 || maxSide <= 0 {
		return image.Point{}
	}
	if width >= height {
		return image.Pt(maxSide, max(1, int(float64(maxSide)/float64(width)*float64(height))))
	}
	return image.Pt(max(1, int(float64(maxSide)/float64(height)*float64(width))), maxSide)
}

var _ port.StrawberryDetector = (*Detector)(nil)
