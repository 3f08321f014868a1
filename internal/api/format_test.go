package telegram

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/apperrors"
	app "berry-quality/internal/application"
	"berry-quality/internal/domain/entity"
)

func TestFormatSummary(t *testing.T) {
	s := entity.NewStrawberrySegment(entity.NewBoundingBox(10, 20, 30, 40))
	s.Ripeness = entity.Float(0.95)
	s.Brix = entity.Float(8.25)
	s.Marketable = entity.Bool(true)
	empty := entity.NewStrawberrySegment(entity.NewBoundingBox(0, 0, 4, 4))

	text := FormatSummary(&entity.ProcessingResult{
		Timestamp: "2021-06-25 17:00:00",
		Segments:  []*entity.StrawberrySegment{s, empty},
	}, 100)

	require.Contains(t, text, "Найдено ягод: 2, товарных: 1")
	require.Contains(t, text, "2021-06-25 17:00:00")
	require.Contains(t, text, "#1 (25, 40): Fully Ripe (95.00%); Brix: 8.25; Marketable: Yes")
	require.Contains(t, text, "#2 (2, 2): ")
}

func TestFormatSummaryTruncates(t *testing.T) {
	var segments []*entity.StrawberrySegment
	for i := 0; i < 40; i++ {
		s := entity.NewStrawberrySegment(entity.NewBoundingBox(i, i, 10, 10))
		s.Ripeness = entity.Float(0.5)
		s.Brix = entity.Float(7)
		s.Roundness = entity.Float(0.5)
		s.Smoothness = entity.Float(0.5)
		s.Marketable = entity.Bool(false)
		segments = append(segments, s)
	}
	text := FormatSummary(&entity.ProcessingResult{Segments: segments}, 100)
	require.LessOrEqual(t, utf8.RuneCountInString(text), captionLimit)
	require.NotContains(t, text, "#21 ")
}

func TestFormatDetail(t *testing.T) {
	text := FormatDetail(&app.SegmentDetail{
		Index:   0,
		Segment: entity.NewStrawberrySegment(entity.NewBoundingBox(5, 6, 7, 8)),
		Lines:   []string{"Brix: 9.00", "Marketable: No"},
	})
	require.True(t, strings.HasPrefix(text, "🍓 Ягода #1, рамка 7×8 в (5, 6)"))
	require.Contains(t, text, "• Brix: 9.00")
	require.Contains(t, text, "• Marketable: No")
}

func TestFormatSettings(t *testing.T) {
	text := FormatSettings(entity.DefaultPreferences())
	require.Contains(t, text, "Детектор: color")
	require.Contains(t, text, "Цвет рамок: Ripeness")
	require.Contains(t, text, "Подписи: выкл (Ripeness, Brix, Marketability)")
	require.Contains(t, text, "Целевая зрелость: 100%")
}

func TestParseSwitch(t *testing.T) {
	on, err := ParseSwitch("ON")
	require.NoError(t, err)
	require.True(t, on)

	on, err = ParseSwitch("off")
	require.NoError(t, err)
	require.False(t, on)

	_, err = ParseSwitch("maybe")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestParsePoint(t *testing.T) {
	x, y, err := ParsePoint([]string{"120", "45"})
	require.NoError(t, err)
	require.Equal(t, 120, x)
	require.Equal(t, 45, y)

	x, y, err = ParsePoint([]string{"7,8"})
	require.NoError(t, err)
	require.Equal(t, 7, x)
	require.Equal(t, 8, y)

	_, _, err = ParsePoint(nil)
	require.Error(t, err)
	_, _, err = ParsePoint([]string{"a", "1"})
	require.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "plain", userMessage(errors.New("plain")))
	require.Equal(t, "bad: cause", userMessage(apperrors.NewValidationError("bad", errors.New("cause"))))
}
