package application

import (
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// SumRange totals ledger amounts over the closed day range [start, end].
// The bounds are normalized so argument order does not matter; days with
// no bucket contribute zero. An empty range is a zero sum, not an error —
// the caller distinguishes "no data" from "$0" with DayBuckets.Has.
func SumRange(buckets domain.DayBuckets, start, end time.Time) domain.Money {
	if end.Before(start) {
		start, end = end, start
	}

	day := startOfDay(start)
	last := startOfDay(end)
	var total domain.Money
	for !day.After(last) {
		total += buckets.Total(domain.DayKeyFor(day))
		day = day.AddDate(0, 0, 1)
	}
	return total
}

func Today(now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	return day, day
}

func Yesterday(now time.Time) (time.Time, time.Time) {
	day := startOfDay(now).AddDate(0, 0, -1)
	return day, day
}

// ThisWeek runs from Monday of the current week through now.
func ThisWeek(now time.Time) (time.Time, time.Time) {
	return startOfWeek(now), startOfDay(now)
}

// LastWeek is the Monday-through-Sunday week before the current one.
func LastWeek(now time.Time) (time.Time, time.Time) {
	start := startOfWeek(now).AddDate(0, 0, -7)
	return start, start.AddDate(0, 0, 6)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	// Monday-based; time.Weekday counts Sunday as 0.
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}
