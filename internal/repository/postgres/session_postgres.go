package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sessionColumns = `
	id, user_id, start_time, end_time, duration,
	pomodoro_count, distraction_count, detected_objects,
	points_earned, focus_percentage, status, created_at, updated_at`

type sessionRepository struct {
	db sqlx.ExtContext
}

// NewSessionRepository creates a session repository on a pool or a transaction
func NewSessionRepository(db sqlx.ExtContext) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// sessionRow maps the sessions table; labels travel as a TEXT[]
type sessionRow struct {
	ID               uuid.UUID            `db:"id"`
	UserID           uuid.UUID            `db:"user_id"`
	StartTime        time.Time            `db:"start_time"`
	EndTime          *time.Time           `db:"end_time"`
	Duration         *int                 `db:"duration"`
	PomodoroCount    int                  `db:"pomodoro_count"`
	DistractionCount int                  `db:"distraction_count"`
	DetectedObjects  pq.StringArray       `db:"detected_objects"`
	PointsEarned     int                  `db:"points_earned"`
	FocusPercentage  float64              `db:"focus_percentage"`
	Status           domain.SessionStatus `db:"status"`
	CreatedAt        time.Time            `db:"created_at"`
	UpdatedAt        time.Time            `db:"updated_at"`
}

func toSessionRow(s *domain.Session) sessionRow {
	labels := s.DetectedObjects
	if labels == nil {
		labels = []string{}
	}

	return sessionRow{
		ID:               s.ID,
		UserID:           s.UserID,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		Duration:         s.Duration,
		PomodoroCount:    s.PomodoroCount,
		DistractionCount: s.DistractionCount,
		DetectedObjects:  pq.StringArray(labels),
		PointsEarned:     s.PointsEarned,
		FocusPercentage:  s.FocusPercentage,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (r sessionRow) toDomain() *domain.Session {
	labels := []string(r.DetectedObjects)
	if labels == nil {
		labels = []string{}
	}

	return &domain.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Duration:         r.Duration,
		PomodoroCount:    r.PomodoroCount,
		DistractionCount: r.DistractionCount,
		DetectedObjects:  labels,
		PointsEarned:     r.PointsEarned,
		FocusPercentage:  r.FocusPercentage,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `
		) VALUES (
			:id, :user_id, :start_time, :end_time, :duration,
			:pomodoro_count, :distraction_count, :detected_objects,
			:points_earned, :focus_percentage, :status, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, toSessionRow(session)); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetActiveForUpdate retrieves an active session owned by userID and locks it
func (r *sessionRepository) GetActiveForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1 AND user_id = $2 AND status = $3
		FOR UPDATE`

	var row sessionRow
	err := sqlx.GetContext(ctx, r.db, &row, query, id, userID, domain.SessionStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}

	return row.toDomain(), nil
}

// Update writes every mutable session field
func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	query := `
		UPDATE sessions
		SET end_time = :end_time,
			duration = :duration,
			distraction_count = :distraction_count,
			detected_objects = :detected_objects,
			points_earned = :points_earned,
			focus_percentage = :focus_percentage,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, toSessionRow(session))
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

// ListByUserID returns one page of a user's sessions, newest first, and the total count
func (r *sessionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Session, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM sessions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var rows []sessionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.Session, len(rows))
	for i := range rows {
		sessions[i] = rows[i].toDomain()
	}

	return sessions, total, nil
}
