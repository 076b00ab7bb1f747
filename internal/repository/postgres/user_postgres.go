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

const userColumns = `
	id, username, email, password_hash, avatar,
	total_points, current_streak, longest_streak, last_active_date,
	created_at, updated_at`

// uniqueViolation is the SQLSTATE PostgreSQL reports for duplicate keys
const uniqueViolation = "23505"

type userRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a user repository on a pool or a transaction
func NewUserRepository(db sqlx.ExtContext) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `
		) VALUES (
			:id, :username, :email, :password_hash, :avatar,
			:total_points, :current_streak, :longest_streak, :last_active_date,
			:created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their (lower-cased) email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetForUpdate retrieves a user and holds a row lock until the transaction ends
func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ExistsByEmailOrUsername checks registration uniqueness
func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, email, username); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// UpdateProgress writes the gamification fields of the aggregate
func (r *userRepository) UpdateProgress(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET total_points = $1,
			current_streak = $2,
			longest_streak = $3,
			last_active_date = $4,
			updated_at = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		user.TotalPoints,
		user.CurrentStreak,
		user.LongestStreak,
		formatDate(user.LastActiveDate),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Leaderboard ranks users by total points
func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	query := `
		SELECT id, username, total_points, current_streak, longest_streak
		FROM users
		ORDER BY total_points DESC, username ASC
		LIMIT $1`

	var entries []*domain.LeaderboardEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return entries, nil
}

// formatDate sends DATE values as plain text so the server time zone
// cannot shift them
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
