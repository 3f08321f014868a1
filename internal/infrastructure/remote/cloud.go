package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// CloudDetector обращается к облачной модели детекции объектов
type CloudDetector struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewCloudDetector создаёт облачный детектор
func NewCloudDetector(endpoint, apiKey string, client *http.Client) *CloudDetector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CloudDetector{endpoint: endpoint, apiKey: apiKey, client: client}
}

type prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

type predictions struct {
	Predictions []prediction `json:"predictions"`
}

// Detect отправляет JPEG в base64 и переводит центры предсказаний в левые верхние углы
func (d *CloudDetector) Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	boxes, err := d.detect(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.WithFields(logrus.Fields{
			"detector": string(entity.DetectorCloudML),
		}).WithError(err).Warn("cloud detection failed")
		return []entity.BoundingBox{}, nil
	}
	return boxes, nil
}

func (d *CloudDetector) detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	var jpeg bytes.Buffer
	if err := imaging.Encode(&jpeg, img, imaging.JPEG, imaging.JPEGQuality(100)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(jpeg.Bytes())

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", d.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewBufferString(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Language", "en-US")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed predictions
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	boxes := make([]entity.BoundingBox, 0, len(parsed.Predictions))
	for _, p := range parsed.Predictions {
		boxes = append(boxes, entity.NewBoundingBox(
			int(p.X-p.Width/2),
			int(p.Y-p.Height/2),
			int(p.Width),
			int(p.Height),
		))
	}
	return boxes, nil
}

var _ port.StrawberryDetector = (*CloudDetector)(nil)
