package domain

import "time"

// DayGap classifies the distance between two activity dates
type DayGap int

const (
	DayGapFirst DayGap = iota
	DayGapSameDay
	DayGapNextDay
	DayGapBroken
	DayGapBackwards
)

// StreakState is the streak-related part of the user aggregate
type StreakState struct {
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate *time.Time
}

// DateOf truncates t to its calendar date in loc. The result is midnight UTC
// of that date so it compares and stores like a DATE column.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// NextStreak computes the streak after a session completed on completionDate.
//
//	no previous date -> 1
//	gap 0            -> unchanged
//	gap 1            -> current + 1
//	gap > 1          -> 1
//
// A negative gap leaves the streak and the last active date untouched.
func NextStreak(prev StreakState, completionDate time.Time) (StreakState, DayGap) {
	completion := time.Date(completionDate.Year(), completionDate.Month(), completionDate.Day(), 0, 0, 0, 0, time.UTC)
	next := prev
	gap := DayGapFirst

	if prev.LastActiveDate == nil {
		next.CurrentStreak = 1
	} else {
		switch days := DaysBetween(*prev.LastActiveDate, completion); {
		case days == 0:
			gap = DayGapSameDay
		case days == 1:
			gap = DayGapNextDay
			next.CurrentStreak = prev.CurrentStreak + 1
		case days > 1:
			gap = DayGapBroken
			next.CurrentStreak = 1
		default:
			gap = DayGapBackwards
		}
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	if gap != DayGapBackwards {
		next.LastActiveDate = &completion
	}

	return next, gap
}
