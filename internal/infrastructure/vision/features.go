//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"berry-quality/internal/domain/port"
)

// Максимальная дисперсия градиента для нормировки гладкости
const maxGradientVariance = 255.0 * 255.0

// RoundnessCalculator отношение площади контура ягоды к площади описанной окружности
type RoundnessCalculator struct{}

// NewRoundnessCalculator создаёт калькулятор округлости
func NewRoundnessCalculator() *RoundnessCalculator {
	return &RoundnessCalculator{}
}

// Calculate возвращает округлость; без контуров результат 0
func (c *RoundnessCalculator) Calculate(img image.Image) (float64, error) {
	gray, err := grayMat(img)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	largest, maxArea := -1, 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > maxArea {
			largest, maxArea = i, area
		}
	}
	if largest < 0 {
		return 0, nil
	}

	_, _, radius := gocv.MinEnclosingCircle(contours.At(largest))
	circle := math.Pi * float64(radius) * float64(radius)
	if circle == 0 {
		return 0, nil
	}
	return maxArea / circle, nil
}

// SmoothnessCalculator нормированная дисперсия модуля градиента Собеля
type SmoothnessCalculator struct{}

// NewSmoothnessCalculator создаёт калькулятор гладкости
func NewSmoothnessCalculator() *SmoothnessCalculator {
	return &SmoothnessCalculator{}
}

// Calculate возвращает дисперсию градиента, делённую на 255²
func (c *SmoothnessCalculator) Calculate(img image.Image) (float64, error) {
	gray, err := grayMat(img)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	gradX := gocv.NewMat()
	defer gradX.Close()
	gocv.Sobel(gray, &gradX, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	gradY := gocv.NewMat()
	defer gradY.Close()
	gocv.Sobel(gray, &gradY, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderDefault)

	magnitude := gocv.NewMat()
	defer magnitude.Close()
	gocv.Magnitude(gradX, gradY, &magnitude)

	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(magnitude, &mean, &std)

	sd := std.GetDoubleAt(0, 0)
	return sd * sd / maxGradientVariance, nil
}

func grayMat(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), fmt.Errorf("segment image is empty")
	}
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("convert image: %w", err)
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

var (
	_ port.FeatureCalculator = (*RoundnessCalculator)(nil)
	_ port.FeatureCalculator = (*SmoothnessCalculator)(nil)
)
