package repository

import "context"

// Repositories groups the repositories bound to one transaction
type Repositories struct {
	Users    UserRepository
	Sessions SessionRepository
}

// Store is a transactional persistence handle. WithinTx commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
