package entity

import (
	"fmt"
	"strings"
)

// Attribute вычисляемый признак клубники
type Attribute string

const (
	AttributeRipeness      Attribute = "Ripeness"
	AttributeBrix          Attribute = "Brix"
	AttributeFirmness      Attribute = "Firmness"
	AttributeMarketability Attribute = "Marketability"
	AttributeRoundness     Attribute = "Roundness"
	AttributeSmoothness    Attribute = "Smoothness"
)

// Attributes все признаки в порядке вычисления
var Attributes = []Attribute{
	AttributeBrix,
	AttributeFirmness,
	AttributeRipeness,
	AttributeRoundness,
	AttributeSmoothness,
	AttributeMarketability,
}

// ParseAttribute разбирает название признака без учёта регистра
func ParseAttribute(s string) (Attribute, error) {
	for _, a := range Attributes {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Range диапазон значений признака для раскраски
func (a Attribute) Range() FeatureRange[float64] {
	switch a {
	case AttributeBrix:
		return NewFeatureRange(0.0, 12.0)
	case AttributeFirmness:
		return NewFeatureRange(0.0, 10.0)
	default:
		return NewFeatureRange(0.0, 1.0)
	}
}

// DetectorKind способ поиска клубники
type DetectorKind string

const (
	DetectorColor       DetectorKind = "color"
	DetectorRemoteColor DetectorKind = "remote-color"
	DetectorRemoteYOLOX DetectorKind = "remote-yolox"
	DetectorCloudML     DetectorKind = "cloud-ml"
)

// DetectorKinds все поддерживаемые детекторы
var DetectorKinds = []DetectorKind{DetectorColor, DetectorRemoteColor, DetectorRemoteYOLOX, DetectorCloudML}

// названия, которые использовались в настройках мобильного приложения
var legacyDetectorNames = map[string]DetectorKind{
	"color-segmentation":        DetectorColor,
	"remote-color-segmentation": DetectorRemoteColor,
	"remote-yolox-segmentation": DetectorRemoteYOLOX,
	"roboflow":                  DetectorCloudML,
}

// ParseDetectorKind разбирает название детектора
func ParseDetectorKind(s string) (DetectorKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, k := range DetectorKinds {
		if key == string(k) {
			return k, nil
		}
	}
	if k, ok := legacyDetectorNames[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown detector %q", s)
}
