package sqlite

import (
	"time"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/google/uuid"
)

type userModel struct {
	ID             uuid.UUID  `gorm:"type:text;primaryKey"`
	Username       string     `gorm:"size:50;not null;uniqueIndex"`
	Email          string     `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash   string     `gorm:"not null"`
	Avatar         *string    `gorm:"size:500"`
	TotalPoints    int        `gorm:"not null;default:0;index"`
	CurrentStreak  int        `gorm:"not null;default:0"`
	LongestStreak  int        `gorm:"not null;default:0"`
	LastActiveDate *time.Time `gorm:"type:date"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`

	Sessions []sessionModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	ID               uuid.UUID  `gorm:"type:text;primaryKey"`
	UserID           uuid.UUID  `gorm:"type:text;not null;index:idx_sessions_user_created,priority:1"`
	StartTime        time.Time  `gorm:"not null"`
	EndTime          *time.Time `gorm:"default:null"`
	Duration         *int       `gorm:"default:null"`
	PomodoroCount    int        `gorm:"not null"`
	DistractionCount int        `gorm:"not null;default:0"`
	DetectedObjects  []string   `gorm:"type:text;serializer:json"`
	PointsEarned     int        `gorm:"not null;default:0"`
	FocusPercentage  float64    `gorm:"not null;default:100"`
	Status           string     `gorm:"size:20;not null;index"`
	CreatedAt        time.Time  `gorm:"not null;index:idx_sessions_user_created,priority:2,sort:desc"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (sessionModel) TableName() string { return "sessions" }

func newUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Avatar:         u.Avatar,
		TotalPoints:    u.TotalPoints,
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
		LastActiveDate: u.LastActiveDate,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		Avatar:         m.Avatar,
		TotalPoints:    m.TotalPoints,
		CurrentStreak:  m.CurrentStreak,
		LongestStreak:  m.LongestStreak,
		LastActiveDate: utcPtr(m.LastActiveDate),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func newSessionModel(s *domain.Session) *sessionModel {
	labels := s.DetectedObjects
	if labels == nil {
		labels = []string{}
	}

	return &sessionModel{
		ID:               s.ID,
		UserID:           s.UserID,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		Duration:         s.Duration,
		PomodoroCount:    s.PomodoroCount,
		DistractionCount: s.DistractionCount,
		DetectedObjects:  labels,
		PointsEarned:     s.PointsEarned,
		FocusPercentage:  s.FocusPercentage,
		Status:           string(s.Status),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (m *sessionModel) toDomain() *domain.Session {
	labels := m.DetectedObjects
	if labels == nil {
		labels = []string{}
	}

	return &domain.Session{
		ID:               m.ID,
		UserID:           m.UserID,
		StartTime:        m.StartTime.UTC(),
		EndTime:          utcPtr(m.EndTime),
		Duration:         m.Duration,
		PomodoroCount:    m.PomodoroCount,
		DistractionCount: m.DistractionCount,
		DetectedObjects:  labels,
		PointsEarned:     m.PointsEarned,
		FocusPercentage:  m.FocusPercentage,
		Status:           domain.SessionStatus(m.Status),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
