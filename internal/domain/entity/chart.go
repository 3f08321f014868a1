package entity

import "fmt"

// DefaultChartSize сторона изображения графика по умолчанию
const DefaultChartSize = 700

// ChartConfiguration неизменяемые параметры графика функции
type ChartConfiguration struct {
	Function string
	Width    int
	Height   int
	XRange   FeatureRange[float64]
	YRange   FeatureRange[float64]
	XLabel   string
	YLabel   string
}

// ChartConfigurationFrom строит конфигурацию графика из настроек визуализации
func ChartConfigurationFrom(v VisualisationPreferences) ChartConfiguration {
	return ChartConfiguration{
		Function: v.RipenessFunction,
		Width:    DefaultChartSize,
		Height:   DefaultChartSize,
		XRange:   v.TimeRange,
		YRange:   v.RipenessRange,
		XLabel:   fmt.Sprintf("Time (%s)", v.TimeUnit),
		YLabel:   v.YLabel,
	}
}

// Equal структурное сравнение конфигураций
func (c ChartConfiguration) Equal(o ChartConfiguration) bool {
	return c == o
}
