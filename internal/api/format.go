package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"berry-quality/internal/apperrors"
	app "berry-quality/internal/application"
	"berry-quality/internal/domain/entity"
)

// captionLimit ограничение Telegram на подпись к фото
const captionLimit = 1024

// FormatSummary сводка по результату обработки
func FormatSummary(result *entity.ProcessingResult, target float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍓 Найдено ягод: %d, товарных: %d\n", len(result.Segments), result.MarketableCount())
	fmt.Fprintf(&sb, "🕒 Время снимка: %s\n", result.Timestamp)

	for i, s := range result.Segments {
		if i == maxSummaryLines {
			fmt.Fprintf(&sb, "… и ещё %d\n", len(result.Segments)-maxSummaryLines)
			break
		}
		x, y := s.Box.Center()
		fmt.Fprintf(&sb, "\n#%d (%d, %d): %s", i+1, x, y, strings.Join(app.DetailLines(s, target), "; "))
	}
	return truncate(sb.String(), captionLimit)
}

// FormatDetail подпись к графику по одной ягоде
func FormatDetail(d *app.SegmentDetail) string {
	var sb strings.Builder
	b := d.Segment.Box
	fmt.Fprintf(&sb, "🍓 Ягода #%d, рамка %d×%d в (%d, %d)\n", d.Index+1, b.Width, b.Height, b.X, b.Y)
	for _, line := range d.Lines {
		sb.WriteString("\n• ")
		sb.WriteString(line)
	}
	return truncate(sb.String(), captionLimit)
}

// FormatSettings текущие настройки пользователя
func FormatSettings(p entity.Preferences) string {
	selected := make([]string, 0, len(p.Processing.SelectedAttributes))
	for _, a := range p.Processing.SelectedAttributes {
		selected = append(selected, string(a))
	}
	text := "выкл"
	if p.Processing.DisplayText {
		text = "вкл"
	}
	return fmt.Sprintf(`⚙️ Настройки:
Детектор: %s
Цвет рамок: %s
Подписи: %s (%s)
Целевая зрелость: %.0f%%
Функция зрелости: %s`,
		p.Processing.Detector,
		p.Processing.BoxColor,
		text, strings.Join(selected, ", "),
		p.Processing.TargetRipeness,
		p.Visualisation.RipenessFunction,
	)
}

// ParseSwitch разбирает on/off
func ParseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "yes", "вкл":
		return true, nil
	case "off", "0", "false", "no", "выкл":
		return false, nil
	}
	return false, apperrors.NewValidationError(fmt.Sprintf("expected on or off, got %q", s), nil)
}

// ParsePoint разбирает координаты "x y" или "x,y"
func ParsePoint(args []string) (int, int, error) {
	if len(args) == 1 {
		args = strings.Split(args[0], ",")
	}
	if len(args) != 2 {
		return 0, 0, errors.New("expected two coordinates")
	}
	x, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse y: %w", err)
	}
	return x, y, nil
}

func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
