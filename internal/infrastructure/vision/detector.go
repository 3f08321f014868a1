//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/logger"
)

// Enabled сообщает, собран ли пакет с OpenCV
const Enabled = true

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ColorDetector находит красную клубнику цветовой сегментацией
type ColorDetector struct {
	cfg ColorDetectorConfig
}

// NewColorDetector создаёт цветовой детектор
func NewColorDetector(cfg ColorDetectorConfig) *ColorDetector {
	return &ColorDetector{cfg: cfg}
}

// Detect возвращает рамки компонент красной маски, прошедших фильтр формы
func (d *ColorDetector) Detect(ctx context.Context, img image.Image) ([]entity.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, nil
	}

	// Уменьшаем изображение для стабильных размеров ядер
	small := mat.Clone()
	defer small.Close()
	if size := FitSize(mat.Cols(), mat.Rows(), d.cfg.MaxSide); size.X != mat.Cols() || size.Y != mat.Rows() {
		gocv.Resize(mat, &small, size, 0, 0, gocv.InterpolationArea)
	}

	mask := d.generateMask(small)
	defer mask.Close()
	d.filterMask(&mask)

	full := gocv.NewMat()
	defer full.Close()
	gocv.Resize(mask, &full, image.Pt(mat.Cols(), mat.Rows()), 0, 0, gocv.InterpolationArea)

	boxes := d.extract(full)
	logger.WithFields(logrus.Fields{
		"detector":     string(entity.DetectorColor),
		"strawberries": len(boxes),
	}).Debug("color segmentation finished")
	return boxes, nil
}

func (d *ColorDetector) generateMask(bgr gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), bgr.Rows(), bgr.Cols(), gocv.MatTypeCV8UC1)
	for _, r := range d.cfg.RedRanges {
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv,
			gocv.NewScalar(r.Low[0], r.Low[1], r.Low[2], 0),
			gocv.NewScalar(r.High[0], r.High[1], r.High[2], 0),
			&part)
		gocv.BitwiseOr(mask, part, &mask)
		part.Close()
	}
	return mask
}

// filterMask убирает шум: открытие, расширение, пересечение с исходной маской,
// закрытие и заливка внешних контуров
func (d *ColorDetector) filterMask(mask *gocv.Mat) {
	reduced := gocv.NewMat()
	defer reduced.Close()

	open := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(d.cfg.OpenKernel, d.cfg.OpenKernel))
	defer open.Close()
	gocv.MorphologyEx(*mask, &reduced, gocv.MorphOpen, open)

	dilate := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(d.cfg.DilateSize, d.cfg.DilateSize))
	defer dilate.Close()
	gocv.MorphologyEx(reduced, &reduced, gocv.MorphDilate, dilate)
	gocv.BitwiseAnd(*mask, reduced, mask)

	closing := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(d.cfg.CloseSize, d.cfg.CloseSize))
	defer closing.Close()
	gocv.MorphologyEx(*mask, mask, gocv.MorphClose, closing)

	contours := gocv.FindContours(*mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	for i := 0; i < contours.Size(); i++ {
		gocv.DrawContours(mask, contours, i, white, -1)
	}
}

// extract разбивает маску на несвязные компоненты и фильтрует их по форме
func (d *ColorDetector) extract(mask gocv.Mat) []entity.BoundingBox {
	remaining := mask.Clone()
	defer remaining.Close()

	contours := gocv.FindContours(remaining, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]entity.BoundingBox, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		filled := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
		gocv.DrawContours(&filled, contours, i, white, -1)

		segment := gocv.NewMat()
		gocv.BitwiseAnd(remaining, filled, &segment)
		gocv.BitwiseXor(remaining, segment, &remaining)

		area := segment.Sum().Val1 / 255
		rect := gocv.BoundingRect(contours.At(i))
		if area > 0 && d.cfg.AcceptComponent(rect.Dx(), rect.Dy(), area) {
			boxes = append(boxes, entity.BoundingBoxFromRect(rect))
		}

		segment.Close()
		filled.Close()
	}
	return boxes
}

var _ port.StrawberryDetector = (*ColorDetector)(nil)
