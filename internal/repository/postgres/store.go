package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/andressep95/focus-service/internal/repository"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// Store is the PostgreSQL implementation of repository.Store. Row locks taken
// with SELECT ... FOR UPDATE serialize concurrent finalizations per user.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open connection pool
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) Sessions() repository.SessionRepository {
	return NewSessionRepository(s.db)
}

// WithinTx runs fn inside a READ COMMITTED transaction
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op
	defer func() { _ = tx.Rollback() }()

	repos := repository.Repositories{
		Users:    NewUserRepository(tx),
		Sessions: NewSessionRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist yet
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
