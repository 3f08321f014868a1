package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"berry-quality/internal/domain/entity"
)

type Config struct {
	TelegramToken      string
	HTTPAddr           string
	AssetsDir          string
	ExportDir          string
	PreferencesFile    string
	RemoteDetectorURL  string
	CloudDetectorURL   string
	CloudAPIKey        string
	HTTPTimeout        time.Duration
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Workers            int
	LogLevel           string

	// Preferences настройки по умолчанию для новых пользователей
	Preferences entity.Preferences
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:           getEnvOrDefault("HTTP_ADDR", ":8090"),
		AssetsDir:          getEnvOrDefault("ASSETS_DIR", "assets"),
		ExportDir:          getEnvOrDefault("EXPORT_DIR", "Json-Data"),
		PreferencesFile:    os.Getenv("PREFERENCES_FILE"),
		RemoteDetectorURL:  getEnvOrDefault("REMOTE_DETECTOR_URL", "http://localhost:8080/segmentation"),
		CloudDetectorURL:   getEnvOrDefault("CLOUD_DETECTOR_URL", "https://detect.roboflow.com/strawberry---ripe---not-ripe/3"),
		CloudAPIKey:        os.Getenv("CLOUD_API_KEY"),
		HTTPTimeout:        parseDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 2*time.Minute),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 32*1024*1024),
		Workers:            int(parseIntOrDefault("WORKERS", 0)),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		Preferences:        entity.DefaultPreferences(),
	}

	if cfg.PreferencesFile != "" {
		prefs, err := LoadPreferences(cfg.PreferencesFile, cfg.Preferences)
		if err != nil {
			return nil, err
		}
		cfg.Preferences = prefs
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("WORKERS must be >= 0 (got %d)", cfg.Workers)
	}
	return cfg, nil
}

// LoadPreferences читает YAML-файл настроек поверх defaults
func LoadPreferences(path string, defaults entity.Preferences) (entity.Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	return ParsePreferences(data, defaults)
}

// ParsePreferences разбирает YAML; указанные ключи заменяют значения defaults
func ParsePreferences(data []byte, defaults entity.Preferences) (entity.Preferences, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entity.Preferences{}, fmt.Errorf("parse preferences: %w", err)
	}

	prefs := defaults.Clone()
	if len(raw) == 0 {
		return prefs, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       preferencesHook,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		Result:           &prefs,
	})
	if err != nil {
		return entity.Preferences{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return entity.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}

	if t := prefs.Processing.TargetRipeness; t < 1 || t > 100 {
		return entity.Preferences{}, fmt.Errorf("target_ripeness must be in 1..100 (got %v)", t)
	}
	return prefs, nil
}

var (
	detectorKindType = reflect.TypeOf(entity.DetectorKind(""))
	attributeType    = reflect.TypeOf(entity.Attribute(""))
)

// preferencesHook проверяет названия детекторов и признаков
func preferencesHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case detectorKindType:
		return entity.ParseDetectorKind(data.(string))
	case attributeType:
		return entity.ParseAttribute(data.(string))
	}
	return data, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
