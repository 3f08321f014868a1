// Package imagecodec декодирует загруженные снимки и кодирует результаты для отправки
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// JPEGQuality качество JPEG для ответов
const JPEGQuality = 90

// ErrEmpty пустые данные
var ErrEmpty = errors.New("image data is empty")

// Decode разбирает JPEG, PNG или WebP и возвращает формат
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodeJPEG кодирует изображение в JPEG
func EncodeJPEG(img image.Image) ([]byte, error) {
	return encode(img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
}

// EncodePNG кодирует изображение в PNG
func EncodePNG(img image.Image) ([]byte, error) {
	return encode(img, imaging.PNG)
}

func encode(img image.Image, format imaging.Format, opts ...imaging.EncodeOption) ([]byte, error) {
	if img == nil {
		return nil, ErrEmpty
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
