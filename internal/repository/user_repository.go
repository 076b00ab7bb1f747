package repository

import (
	"context"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// GetForUpdate loads the user aggregate and locks it for the rest of the
	// transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProgress persists points and streak fields only
	UpdateProgress(ctx context.Context, user *domain.User) error

	Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error)
}
