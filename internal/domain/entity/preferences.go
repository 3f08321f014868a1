package entity

// ProcessingPreferences настройки обработки
type ProcessingPreferences struct {
	Detector           DetectorKind `mapstructure:"detector"`
	TargetRipeness     float64      `mapstructure:"target_ripeness"` // в процентах
	BoxColor           Attribute    `mapstructure:"box_color"`
	DisplayText        bool         `mapstructure:"display_text"`
	SelectedAttributes []Attribute  `mapstructure:"selected_attributes"`
}

// ModelPreferences имена файлов данных и моделей
type ModelPreferences struct {
	ClimateDataFile         string `mapstructure:"climate_data_file"`
	WeightsFile             string `mapstructure:"weights_file"`
	FirmnessWeightsFile     string `mapstructure:"firmness_weights_file"`
	BrixModel               string `mapstructure:"brix_model"`
	FirmnessModel           string `mapstructure:"firmness_model"`
	EncoderModel            string `mapstructure:"encoder_model"`
	ExcludedBrixColumns     string `mapstructure:"excluded_brix_columns"`
	ExcludedFirmnessColumns string `mapstructure:"excluded_firmness_columns"`
}

// VisualisationPreferences настройки графика зрелости
type VisualisationPreferences struct {
	RipenessFunction string                `mapstructure:"ripeness_function"`
	RipenessRange    FeatureRange[float64] `mapstructure:"ripeness_range"`
	TimeRange        FeatureRange[float64] `mapstructure:"time_range"`
	TimeUnit         string                `mapstructure:"time_unit"`
	YLabel           string                `mapstructure:"y_label"`
}

// Preferences полный набор настроек пользователя
type Preferences struct {
	Processing    ProcessingPreferences    `mapstructure:"processing"`
	Model         ModelPreferences         `mapstructure:"model"`
	Visualisation VisualisationPreferences `mapstructure:"visualisation"`
}

// DefaultPreferences настройки по умолчанию
func DefaultPreferences() Preferences {
	return Preferences{
		Processing: ProcessingPreferences{
			Detector:           DetectorColor,
			TargetRipeness:     100,
			BoxColor:           AttributeRipeness,
			DisplayText:        false,
			SelectedAttributes: []Attribute{AttributeRipeness, AttributeBrix, AttributeMarketability},
		},
		Model: ModelPreferences{
			ClimateDataFile:     "climate-data-standardized.csv",
			WeightsFile:         "KRR-a100-d1_weights_mean.csv",
			FirmnessWeightsFile: "KRR-a100-d1_weights_mean.csv",
			BrixModel:           "reg_by-m5m4-mean-modelb-by-l1-w0-KRR-a100-d1-all_ckpt_s1.onnx",
			FirmnessModel:       "reg_firmness-mean.onnx",
			EncoderModel:        "image-encoder.onnx",
		},
		Visualisation: VisualisationPreferences{
			RipenessFunction: "1/(1+e^(-x+5))",
			RipenessRange:    NewFeatureRange(0.0, 1.0),
			TimeRange:        NewFeatureRange(0.0, 10.0),
			TimeUnit:         "Weeks",
			YLabel:           "Ripeness",
		},
	}
}

// Selected проверяет, выбран ли признак для вывода текста
func (p ProcessingPreferences) Selected(a Attribute) bool {
	for _, s := range p.SelectedAttributes {
		if s == a {
			return true
		}
	}
	return false
}

// Clone возвращает копию без общих срезов
func (p Preferences) Clone() Preferences {
	c := p
	c.Processing.SelectedAttributes = append([]Attribute(nil), p.Processing.SelectedAttributes...)
	return c
}
