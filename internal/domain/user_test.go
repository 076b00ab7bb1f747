package domain_test

import (
	"errors"
	"testing"

	"github.com/andressep95/focus-service/internal/domain"
)

func TestApplyCompletion(t *testing.T) {
	t.Parallel()
	u := &domain.User{TotalPoints: 10}

	gap, err := u.ApplyCompletion(15, date(2026, 3, 10), start)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if gap != domain.DayGapFirst || u.TotalPoints != 25 || u.CurrentStreak != 1 || !u.UpdatedAt.Equal(start) {
		t.Fatalf("user after completion = %+v (gap %v)", u, gap)
	}
}

func TestApplyCompletionRefusesOverflow(t *testing.T) {
	t.Parallel()
	u := &domain.User{TotalPoints: domain.MaxTotalPoints - 10, CurrentStreak: 2, LongestStreak: 4, LastActiveDate: datePtr(2026, 3, 9)}

	if _, err := u.ApplyCompletion(11, date(2026, 3, 10), start); !errors.Is(err, domain.ErrPointsOverflow) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("overflowing credit err = %v", err)
	}
	if u.TotalPoints != domain.MaxTotalPoints-10 || u.CurrentStreak != 2 || !u.LastActiveDate.Equal(date(2026, 3, 9)) {
		t.Fatalf("refused credit changed the user: %+v", u)
	}

	if _, err := u.ApplyCompletion(10, date(2026, 3, 10), start); err != nil {
		t.Fatalf("credit up to the limit: %v", err)
	}
	if u.TotalPoints != domain.MaxTotalPoints || u.CurrentStreak != 3 {
		t.Fatalf("user at limit = %+v", u)
	}
}
