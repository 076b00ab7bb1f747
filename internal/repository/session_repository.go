package repository

import (
	"context"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error

	// GetActiveForUpdate returns the active session with id owned by userID and
	// locks its row until the surrounding transaction ends. Any miss is
	// domain.ErrSessionNotFound.
	GetActiveForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Session, error)

	Update(ctx context.Context, session *domain.Session) error
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Session, int, error)
}
