package domain_test

import (
	"testing"
	"time"

	"github.com/andressep95/focus-service/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	v := date(y, m, d)
	return &v
}

func TestNextStreakTransitions(t *testing.T) {
	t.Parallel()
	today := date(2026, 3, 10)

	cases := []struct {
		name        string
		prev        domain.StreakState
		completion  time.Time
		wantCurrent int
		wantLongest int
		wantGap     domain.DayGap
	}{
		{
			name:        "first completion",
			prev:        domain.StreakState{},
			wantCurrent: 1, wantLongest: 1, wantGap: domain.DayGapFirst,
		},
		{
			name:        "same day leaves streak",
			prev:        domain.StreakState{CurrentStreak: 4, LongestStreak: 4, LastActiveDate: datePtr(2026, 3, 10)},
			wantCurrent: 4, wantLongest: 4, wantGap: domain.DayGapSameDay,
		},
		{
			name:        "next day increments",
			prev:        domain.StreakState{CurrentStreak: 4, LongestStreak: 4, LastActiveDate: datePtr(2026, 3, 9)},
			wantCurrent: 5, wantLongest: 5, wantGap: domain.DayGapNextDay,
		},
		{
			name:        "two day gap resets",
			prev:        domain.StreakState{CurrentStreak: 4, LongestStreak: 9, LastActiveDate: datePtr(2026, 3, 8)},
			wantCurrent: 1, wantLongest: 9, wantGap: domain.DayGapBroken,
		},
		{
			name:        "month boundary counts as next day",
			prev:        domain.StreakState{CurrentStreak: 2, LongestStreak: 2, LastActiveDate: datePtr(2026, 2, 28)},
			completion:  date(2026, 3, 1),
			wantCurrent: 3, wantLongest: 3, wantGap: domain.DayGapNextDay,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			completion := today
			if !tc.completion.IsZero() {
				completion = tc.completion
			}

			next, gap := domain.NextStreak(tc.prev, completion)
			if next.CurrentStreak != tc.wantCurrent {
				t.Fatalf("current streak = %d, want %d", next.CurrentStreak, tc.wantCurrent)
			}
			if next.LongestStreak != tc.wantLongest {
				t.Fatalf("longest streak = %d, want %d", next.LongestStreak, tc.wantLongest)
			}
			if gap != tc.wantGap {
				t.Fatalf("gap = %v, want %v", gap, tc.wantGap)
			}
			if next.LastActiveDate == nil || !next.LastActiveDate.Equal(completion) {
				t.Fatalf("last active date = %v, want %v", next.LastActiveDate, completion)
			}
		})
	}
}

func TestNextStreakBackwardsKeepsState(t *testing.T) {
	t.Parallel()
	prev := domain.StreakState{CurrentStreak: 3, LongestStreak: 5, LastActiveDate: datePtr(2026, 3, 10)}

	next, gap := domain.NextStreak(prev, date(2026, 3, 8))
	if gap != domain.DayGapBackwards {
		t.Fatalf("gap = %v, want backwards", gap)
	}
	if next.CurrentStreak != 3 || next.LongestStreak != 5 {
		t.Fatalf("streak changed on backwards date: %+v", next)
	}
	if !next.LastActiveDate.Equal(date(2026, 3, 10)) {
		t.Fatalf("last active date moved backwards to %v", next.LastActiveDate)
	}
}

func TestLongestStreakNeverDecreases(t *testing.T) {
	t.Parallel()
	state := domain.StreakState{}
	days := []time.Time{
		date(2026, 1, 1), date(2026, 1, 2), date(2026, 1, 3), date(2026, 1, 3),
		date(2026, 1, 7), date(2026, 1, 8), date(2026, 2, 1),
	}

	longest := 0
	for _, d := range days {
		state, _ = domain.NextStreak(state, d)
		if state.LongestStreak < longest {
			t.Fatalf("longest streak decreased from %d to %d on %v", longest, state.LongestStreak, d)
		}
		if state.LongestStreak < state.CurrentStreak {
			t.Fatalf("longest %d below current %d", state.LongestStreak, state.CurrentStreak)
		}
		longest = state.LongestStreak
	}
	if longest != 3 {
		t.Fatalf("expected longest streak 3, got %d", longest)
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC-5", -5*60*60)
	ts := time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC)

	if got := domain.DateOf(ts, time.UTC); !got.Equal(date(2026, 3, 10)) {
		t.Fatalf("utc date = %v", got)
	}
	if got := domain.DateOf(ts, loc); !got.Equal(date(2026, 3, 9)) {
		t.Fatalf("offset date = %v", got)
	}
}
