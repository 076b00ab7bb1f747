package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Avatar         *string    `json:"avatar,omitempty" db:"avatar"`
	TotalPoints    int        `json:"total_points" db:"total_points"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastActiveDate *time.Time `json:"last_active_date" db:"last_active_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Streak returns the streak part of the aggregate
func (u *User) Streak() StreakState {
	return StreakState{
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
		LastActiveDate: u.LastActiveDate,
	}
}

// MaxTotalPoints is the largest total the users.total_points column holds
const MaxTotalPoints = math.MaxInt32

// ApplyCompletion credits points and advances the streak for a session
// completed on completionDate. A credit that would push the total past
// MaxTotalPoints is refused and the user is left untouched.
func (u *User) ApplyCompletion(points int, completionDate time.Time, now time.Time) (DayGap, error) {
	if points > 0 {
		if points > MaxTotalPoints-u.TotalPoints {
			return 0, fmt.Errorf("%w: %w", ErrValidation, ErrPointsOverflow)
		}
		u.TotalPoints += points
	}

	next, gap := NextStreak(u.Streak(), completionDate)
	u.CurrentStreak = next.CurrentStreak
	u.LongestStreak = next.LongestStreak
	u.LastActiveDate = next.LastActiveDate
	u.UpdatedAt = now

	return gap, nil
}

// LeaderboardEntry is the public ranking view of a user
type LeaderboardEntry struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	CurrentStreak int       `json:"current_streak" db:"current_streak"`
	LongestStreak int       `json:"longest_streak" db:"longest_streak"`
}
