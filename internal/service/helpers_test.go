package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andressep95/focus-service/internal/config"
	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/repository/sqlite"
	"github.com/andressep95/focus-service/pkg/logger"
	"github.com/google/uuid"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testFocusConfig() config.FocusConfig {
	return config.FocusConfig{
		StreakTimezone:  "UTC",
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestSessionService(t *testing.T, clk *testClock) (*SessionService, *sqlite.Store) {
	t.Helper()
	store := openTestStore(t)
	return NewSessionService(store, nil, clk, testFocusConfig(), logger.Discard()), store
}

// seedUser inserts a user with the given streak history
func seedUser(t *testing.T, store *sqlite.Store, name string, streak int, lastActive *time.Time) *domain.User {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	user := &domain.User{
		ID:           uuid.New(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if streak > 0 || lastActive != nil {
		user.CurrentStreak = streak
		user.LongestStreak = streak
		user.LastActiveDate = lastActive
		if err := store.Users().UpdateProgress(ctx, user); err != nil {
			t.Fatalf("seed progress: %v", err)
		}
	}
	return user
}

func intPtr(n int) *int { return &n }

func dayPtr(t time.Time) *time.Time {
	d := domain.DateOf(t, time.UTC)
	return &d
}
