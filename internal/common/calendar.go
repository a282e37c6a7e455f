// Package common — calendar.go содержит арифметику календарных дней.
// Стрики считаются в днях календаря пользователя, а не в прошедших секундах:
// переход на летнее время не должен ни рвать, ни склеивать серию.
package common

import "time"

// CalendarDay отбрасывает время и возвращает полночь того же дня в loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween возвращает число календарных дней от a до b (b - a).
// Время суток и часовой пояс значения не имеют: сравниваются только даты.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays сдвигает календарный день на n дней, сохраняя полночь.
func AddDays(day time.Time, n int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+n, 0, 0, 0, 0, day.Location())
}

// DayBounds возвращает [начало дня, начало следующего дня) в loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := CalendarDay(t, loc)
	return start, AddDays(start, 1)
}

// LoadLocation загружает часовой пояс, при ошибке возвращает fallback.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return fallback
	}
	return loc
}
