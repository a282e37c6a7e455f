// Package streak — calculator.go: чистый расчёт стрика по истории завершений.
package streak

import (
	"sort"
	"time"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Compute считает стрик по моментам завершения сессий.
// «Сегодня» и календарь задаются аргументом now: дни берутся в now.Location().
// Несколько завершений в один календарный день считаются одним днём.
func Compute(completions []time.Time, now time.Time) Snapshot {
	if len(completions) == 0 {
		return Snapshot{}
	}
	loc := now.Location()
	days := uniqueDaysDesc(completions, loc)
	today := common.CalendarDay(now, loc)

	last := days[0]
	snap := Snapshot{
		LastActivityDate: &last,
		IsActiveToday:    common.DaysBetween(last, today) == 0,
	}

	present := make(map[string]struct{}, len(days))
	for _, d := range days {
		present[dayKey(d)] = struct{}{}
	}

	// Запись «из будущего» может стоять раньше сегодняшней, поэтому
	// начало серии ищем по множеству дней, а не по days[0].
	var cursor time.Time
	switch {
	case has(present, today):
		cursor = today
	case has(present, common.AddDays(today, -1)):
		cursor = common.AddDays(today, -1)
	}
	if !cursor.IsZero() {
		for has(present, cursor) {
			snap.Current++
			cursor = common.AddDays(cursor, -1)
		}
	}

	run := 1
	snap.Longest = 1
	for i := 1; i < len(days); i++ {
		if common.DaysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > snap.Longest {
			snap.Longest = run
		}
	}
	return snap
}

func uniqueDaysDesc(completions []time.Time, loc *time.Location) []time.Time {
	seen := make(map[string]struct{}, len(completions))
	days := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		d := common.CalendarDay(c, loc)
		k := dayKey(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}

func has(set map[string]struct{}, d time.Time) bool {
	_, ok := set[dayKey(d)]
	return ok
}
