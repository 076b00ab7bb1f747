package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessionUpdateColumns lists what Update writes, zero values included
var sessionUpdateColumns = []string{
	"end_time", "duration", "distraction_count", "detected_objects",
	"points_earned", "focus_percentage", "status", "updated_at",
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := r.db.WithContext(ctx).Create(newSessionModel(session)).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetActiveForUpdate relies on the single connection for exclusion
func (r *sessionRepository) GetActiveForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Session, error) {
	var m sessionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, string(domain.SessionStatusActive)).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}

	return m.toDomain(), nil
}

func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	result := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("id = ?", session.ID).
		Select(sessionUpdateColumns).
		Updates(newSessionModel(session))
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Session, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.Session, len(models))
	for i := range models {
		sessions[i] = models[i].toDomain()
	}

	return sessions, int(total), nil
}
