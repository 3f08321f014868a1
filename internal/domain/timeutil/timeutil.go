package timeutil

import (
	"regexp"
	"strconv"
	"time"
)

// Layout формат метки времени в климатических данных
const Layout = "2006-01-02 15:04:05"

// FallbackYear год, подставляемый в текущее время, если имя файла не содержит даты.
// Климатические данные покрывают только этот сезон.
const FallbackYear = 2021

var imageNamePattern = regexp.MustCompile(`^(\d{4})_(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})_.*$`)

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// SystemClock системные часы
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock часы с фиксированным временем
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// RoundToNearestHour округляет до ближайшего часа: от 30 минут вверх, иначе вниз
func RoundToNearestHour(t time.Time) time.Time {
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if t.Minute() >= 30 {
		return base.Add(time.Hour)
	}
	return base
}

// DaysIn число дней в месяце
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseImageName извлекает время из имени вида YYYY_MMDD_HHMMSS_*.
// Возвращает false, если формат не совпал или компонент даты вне диапазона.
func ParseImageName(name string) (time.Time, bool) {
	m := imageNamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}

	var v [6]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		v[i] = n
	}
	year, month, day, hour, minute, second := v[0], v[1], v[2], v[3], v[4], v[5]

	switch {
	case month < 1 || month > 12:
		return time.Time{}, false
	case day < 1 || day > DaysIn(year, time.Month(month)):
		return time.Time{}, false
	case hour < 0 || hour > 23:
		return time.Time{}, false
	case minute < 0 || minute > 59:
		return time.Time{}, false
	case second < 0 || second > 59:
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), true
}

// Resolver определяет метку времени снимка
type Resolver struct {
	clock Clock
}

// NewResolver создаёт резолвер; nil означает системные часы
func NewResolver(clock Clock) *Resolver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Resolver{clock: clock}
}

// CurrentTime текущее время с годом FallbackYear, округлённое до часа
func (r *Resolver) CurrentTime() string {
	now := r.clock.Now()
	day := min(now.Day(), DaysIn(FallbackYear, now.Month()))
	t := time.Date(FallbackYear, now.Month(), day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	return RoundToNearestHour(t).Format(Layout)
}

// FormatImageName переводит имя файла в метку времени без округления
func (r *Resolver) FormatImageName(name string) string {
	if t, ok := ParseImageName(name); ok {
		return t.Format(Layout)
	}
	return r.CurrentTime()
}

// Timestamp метка времени для поиска в климатических данных, округлённая до часа
func (r *Resolver) Timestamp(name string) string {
	if t, ok := ParseImageName(name); ok {
		return RoundToNearestHour(t).Format(Layout)
	}
	return r.CurrentTime()
}
