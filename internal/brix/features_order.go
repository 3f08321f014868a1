package brix

import (
	"fmt"
	"regexp"
	"strings"

	"berry-quality/internal/domain/port"
)

var (
	weekSuffixPattern  = regexp.MustCompile(`-\d$`)
	quotedEntryPattern = regexp.MustCompile(`"([^"]*)"`)
)

// FeaturesOrderRetriever сопоставляет колонки весов колонкам климатических признаков.
// Словарь загружается из файла описания атрибутов (разделитель ";"),
// имена признаков берутся из заголовка климатического файла (записи в кавычках).
type FeaturesOrderRetriever struct {
	dictionary   map[string]string
	featureNames []string
}

// NewFeaturesOrderRetriever загружает словарь и имена признаков из хранилища
func NewFeaturesOrderRetriever(store port.AssetStore, cfg Config) (*FeaturesOrderRetriever, error) {
	info, err := store.ReadLines(cfg.AttributeInfoFile)
	if err != nil {
		return nil, fmt.Errorf("read attribute information: %w", err)
	}
	dictionary, err := parseDictionary(info)
	if err != nil {
		return nil, err
	}

	climate, err := store.ReadLines(cfg.ClimateNamesFile)
	if err != nil {
		return nil, fmt.Errorf("read climate header: %w", err)
	}
	if len(climate) == 0 {
		return nil, fmt.Errorf("climate file %s is empty", cfg.ClimateNamesFile)
	}

	return &FeaturesOrderRetriever{
		dictionary:   dictionary,
		featureNames: parseQuotedHeader(climate[0]),
	}, nil
}

func parseDictionary(lines []string) (map[string]string, error) {
	dictionary := make(map[string]string)
	if len(lines) == 0 {
		return dictionary, nil
	}
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 3 {
			return nil, fmt.Errorf("attribute information row %d: expected at least 3 fields, got %d", i+1, len(fields))
		}
		dictionary[fields[0]] = strings.ReplaceAll(fields[2], "\u00a0", " ")
	}
	return dictionary, nil
}

func parseQuotedHeader(header string) []string {
	matches := quotedEntryPattern.FindAllStringSubmatch(header, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// StripWeekSuffix убирает суффикс недели вида "-2" из имени колонки весов
func StripWeekSuffix(name string) string {
	return weekSuffixPattern.ReplaceAllString(name, "")
}

// WeightColumnName имя колонки весов без суффикса недели. Неверный индекс вызывает панику.
func (r *FeaturesOrderRetriever) WeightColumnName(names []string, index int) string {
	if index < 0 || index >= len(names) {
		panic(fmt.Sprintf("invalid weights column index %d", index))
	}
	return StripWeekSuffix(strings.TrimSpace(names[index]))
}

// FeatureColumnIndex индекс климатического признака по имени. Неизвестное имя вызывает панику.
func (r *FeaturesOrderRetriever) FeatureColumnIndex(name string) int {
	for i, n := range r.featureNames {
		if n == name {
			return i
		}
	}
	panic(fmt.Sprintf("invalid feature column name %q", name))
}

// Order для каждой колонки весов возвращает индекс климатического признака
// или -1, если колонки нет в словаре.
func (r *FeaturesOrderRetriever) Order(weightNames []string) []int {
	order := make([]int, len(weightNames))
	for i := range weightNames {
		feature, ok := r.dictionary[r.WeightColumnName(weightNames, i)]
		if !ok {
			order[i] = -1
			continue
		}
		order[i] = r.FeatureColumnIndex(feature)
	}
	return order
}

// FeatureNames имена климатических признаков в порядке колонок
func (r *FeaturesOrderRetriever) FeatureNames() []string {
	return append([]string(nil), r.featureNames...)
}
