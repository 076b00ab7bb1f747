package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/andressep95/focus-service/internal/config"
	"github.com/andressep95/focus-service/internal/repository"
	"github.com/andressep95/focus-service/internal/repository/postgres"
	"github.com/andressep95/focus-service/internal/repository/sqlite"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// openStore connects the configured backend. SQLite migrates on open;
// PostgreSQL only when migrate is set.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", "driver", config.DriverSQLite, "path", cfg.Database.SQLitePath)
		return store, nil

	default:
		db, err := initDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
			logger.Info("schema applied")
		}
		logger.Info("database ready", "driver", config.DriverPostgres, "host", cfg.Database.Host)
		return postgres.NewStore(db), nil
	}
}

// initDB opens PostgreSQL with a few retries while the server comes up
func initDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	const (
		maxRetries    = 5
		retryInterval = 2 * time.Second
	)

	var db *sqlx.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
		if err == nil {
			break
		}

		logger.Warn("database connection failed", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis returns nil when Redis is disabled
func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func loadRSAKeys(cfg *config.Config) ([]byte, []byte, error) {
	privateKey, err := os.ReadFile(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	publicKey, err := os.ReadFile(cfg.JWT.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	if len(privateKey) == 0 || len(publicKey) == 0 {
		return nil, nil, fmt.Errorf("key files must not be empty")
	}

	return privateKey, publicKey, nil
}

// redisPinger adapts a Redis client to the readiness probe
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
