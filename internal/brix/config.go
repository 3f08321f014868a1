package brix

import (
	"math"
)

// Standardization среднее и дисперсия для перевода стандартизованного значения в реальные единицы
type Standardization struct {
	Mean     float64
	Variance float64
}

// Apply возвращает mean + value·sqrt(variance) в одинарной точности, как у обученных моделей
func (s Standardization) Apply(value float64) float64 {
	v := float32(value)
	return float64(float32(s.Mean) + float32(float64(v)*math.Sqrt(float64(float32(s.Variance)))))
}

// Config пути к данным и константы конвейера Brix
type Config struct {
	ClimateDir         string
	ClimateNamesFile   string
	WeightsDir         string
	FirmnessWeightsDir string
	AttributeInfoFile  string
	BrixModelsDir      string
	FirmnessModelsDir  string
	EncoderModelsDir   string

	WindowHours      int // длина окна климатических данных (часы)
	ClimateRowWidth  int // ожидаемое число колонок в строке климата
	EncoderInputSize int
	EmbeddingLength  int

	MeanTable     Standardization
	QuantileTable []Standardization
	BrixOutput    Standardization
}

// DefaultConfig конфигурация для стандартной раскладки ресурсов
func DefaultConfig() Config {
	return Config{
		ClimateDir:         "climate-data/",
		ClimateNamesFile:   "climate-data/climate-data.csv",
		WeightsDir:         "weights/",
		FirmnessWeightsDir: "firmness-weights/",
		AttributeInfoFile:  "attribute_information/AttributeInformation.csv",
		BrixModelsDir:      "brix-models",
		FirmnessModelsDir:  "firmness-models",
		EncoderModelsDir:   "encoder-models",

		WindowHours:      336,
		ClimateRowWidth:  25,
		EncoderInputSize: 200,
		EmbeddingLength:  10 * 10 * 9,

		MeanTable: Standardization{Mean: 8.15574002328204, Variance: 1.627314306578812},
		QuantileTable: []Standardization{
			{Mean: 6.910000000000001, Variance: 1.7156857142857143},
			{Mean: 7.290714285714286, Variance: 1.6462137755102046},
			{Mean: 7.629642857142858, Variance: 1.5955034438775508},
			{Mean: 7.834999999999999, Variance: 1.563360714285714},
			{Mean: 8.033928571428572, Variance: 1.4691167091836737},
			{Mean: 8.292142857142858, Variance: 1.5092096938775512},
			{Mean: 8.632857142857143, Variance: 1.5218489795918368},
			{Mean: 8.980714285714287, Variance: 1.8081566326530607},
			{Mean: 9.470714285714285, Variance: 2.457742346938776},
		},
		BrixOutput: Standardization{Mean: 7.94470588, Variance: 2.81376609},
	}
}
