package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a focus session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

const (
	// DefaultPomodoroCount is used when the caller does not send a count
	DefaultPomodoroCount = 1
	// MaxPomodoroCount keeps a session's points far below the INTEGER columns
	MaxPomodoroCount = 1000
)

// IsTerminal reports whether no further transition is allowed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned
}

// Valid reports whether s is one of the known statuses
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusCompleted, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// Transition returns the next status or ErrInvalidTransition.
// Only active sessions may move, and only to a terminal status.
func (s SessionStatus) Transition(to SessionStatus) (SessionStatus, error) {
	if s != SessionStatusActive || !to.IsTerminal() {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

// Session is one timed focus attempt
type Session struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time"`
	Duration         *int          `json:"duration"`
	PomodoroCount    int           `json:"pomodoro_count"`
	DistractionCount int           `json:"distraction_count"`
	DetectedObjects  []string      `json:"detected_objects"`
	PointsEarned     int           `json:"points_earned"`
	FocusPercentage  float64       `json:"focus_percentage"`
	Status           SessionStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewSession builds an active session starting at now
func NewSession(userID uuid.UUID, pomodoroCount int, now time.Time) (*Session, error) {
	if pomodoroCount < 0 {
		return nil, fmt.Errorf("%w: pomodoro_count must be greater than or equal to 0", ErrValidation)
	}
	if pomodoroCount > MaxPomodoroCount {
		return nil, fmt.Errorf("%w: pomodoro_count must be at most %d", ErrValidation, MaxPomodoroCount)
	}

	return &Session{
		ID:               uuid.New(),
		UserID:           userID,
		StartTime:        now,
		PomodoroCount:    pomodoroCount,
		DistractionCount: 0,
		DetectedObjects:  []string{},
		FocusPercentage:  100.0,
		Status:           SessionStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// RecordTick applies one distraction observation.
// A nil labels slice keeps the stored snapshot; a non-nil one replaces it.
func (s *Session) RecordTick(now time.Time, distracted bool, labels []string) error {
	if s.Status != SessionStatusActive {
		return fmt.Errorf("%w: tick on %s session", ErrInvalidTransition, s.Status)
	}

	if distracted {
		s.DistractionCount++
	}
	if labels != nil {
		s.DetectedObjects = append([]string{}, labels...)
	}

	s.FocusPercentage = FocusPercentage(now.Sub(s.StartTime), s.DistractionCount)
	s.UpdatedAt = now
	return nil
}

// Complete closes the session with the given points
func (s *Session) Complete(now time.Time, points int) error {
	if err := s.close(now, SessionStatusCompleted); err != nil {
		return err
	}
	s.PointsEarned = points
	return nil
}

// Abandon closes the session without scoring it
func (s *Session) Abandon(now time.Time) error {
	return s.close(now, SessionStatusAbandoned)
}

func (s *Session) close(now time.Time, to SessionStatus) error {
	next, err := s.Status.Transition(to)
	if err != nil {
		return err
	}

	end := now
	duration := int(end.Sub(s.StartTime) / time.Second)
	if duration < 0 {
		duration = 0
	}

	s.Status = next
	s.EndTime = &end
	s.Duration = &duration
	s.UpdatedAt = now
	return nil
}
