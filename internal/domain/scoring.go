package domain

import "time"

// Scoring constants
const (
	pointsPerPomodoro      = 10
	pointsPerDistraction   = 2
	noDistractionBonus     = 5
	distractionPenaltyTime = 10 * time.Second
	shortStreakThreshold   = 3
	shortStreakBonus       = 5
	weekStreakThreshold    = 7
	weekStreakBonus        = 15
	monthStreakThreshold   = 30
	monthStreakBonus       = 50
)

// CalculatePoints scores a finished session. currentStreak must be the
// user's streak before this session updates it. The three streak bonuses
// stack, so a 30 day streak earns 5+15+50.
func CalculatePoints(pomodoroCount, distractionCount, currentStreak int) int {
	points := pomodoroCount * pointsPerPomodoro

	if currentStreak >= shortStreakThreshold {
		points += shortStreakBonus
	}
	if currentStreak >= weekStreakThreshold {
		points += weekStreakBonus
	}
	if currentStreak >= monthStreakThreshold {
		points += monthStreakBonus
	}

	points -= distractionCount * pointsPerDistraction
	if distractionCount == 0 {
		points += noDistractionBonus
	}

	if points < 0 {
		return 0
	}
	return points
}

// SessionPoints is CalculatePoints applied to a session's counters
func SessionPoints(s *Session, currentStreak int) int {
	return CalculatePoints(s.PomodoroCount, s.DistractionCount, currentStreak)
}

// FocusPercentage estimates attentive time, charging each distraction ten
// seconds. The result is floored at 0 but has no upper clamp. With no
// elapsed time it returns 100.
func FocusPercentage(elapsed time.Duration, distractionCount int) float64 {
	if elapsed <= 0 {
		return 100.0
	}

	total := elapsed.Seconds()
	distracted := float64(distractionCount) * distractionPenaltyTime.Seconds()

	focus := (total - distracted) / total * 100
	if focus < 0 {
		return 0
	}
	return focus
}
