package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andressep95/focus-service/internal/config"
	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/repository"
	"github.com/andressep95/focus-service/pkg/clock"
	"github.com/google/uuid"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// LeaderboardCache is an optional read-through cache for rankings. Get
// reports the generation it looked in; Set must store under that same
// generation so a page read before an Invalidate is never served after it.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, int64, bool, error)
	Set(ctx context.Context, generation int64, limit int, entries []*domain.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

type SessionService struct {
	store  repository.Store
	cache  LeaderboardCache
	clock  clock.Clock
	loc    *time.Location
	cfg    config.FocusConfig
	logger *slog.Logger
}

type TickInput struct {
	DistractionDetected bool
	// DetectedObjects replaces the stored labels when non-nil
	DetectedObjects []string
}

type FinalizeResult struct {
	Session       *domain.Session `json:"session"`
	PointsEarned  int             `json:"points_earned"`
	TotalPoints   int             `json:"total_points"`
	CurrentStreak int             `json:"current_streak"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type HistoryPage struct {
	Sessions   []*domain.Session `json:"sessions"`
	Pagination Pagination        `json:"pagination"`
}

// NewSessionService wires the session lifecycle. cache may be nil.
func NewSessionService(store repository.Store, cache LeaderboardCache, clk clock.Clock, cfg config.FocusConfig, logger *slog.Logger) *SessionService {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	return &SessionService{
		store:  store,
		cache:  cache,
		clock:  clk,
		loc:    loc,
		cfg:    cfg,
		logger: logger,
	}
}

// Start opens an active session. A nil count means one pomodoro.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, pomodoroCount *int) (*domain.Session, error) {
	count := domain.DefaultPomodoroCount
	if pomodoroCount != nil {
		count = *pomodoroCount
	}

	session, err := domain.NewSession(userID, count, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	s.logger.Debug("session started", "session_id", session.ID, "user_id", userID, "pomodoro_count", count)
	return session, nil
}

// RecordTick applies one detector observation to an active session
func (s *SessionService) RecordTick(ctx context.Context, userID, sessionID uuid.UUID, in TickInput) (*domain.Session, error) {
	var updated *domain.Session

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		session, err := repos.Sessions.GetActiveForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}

		if err := session.RecordTick(s.clock.Now(), in.DistractionDetected, in.DetectedObjects); err != nil {
			return err
		}

		if err := repos.Sessions.Update(ctx, session); err != nil {
			return err
		}

		updated = session
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return updated, nil
}

// Finalize completes an active session, credits its points and advances
// the owner's streak in one transaction. The user row is locked before the
// session row.
func (s *SessionService) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*FinalizeResult, error) {
	var result *FinalizeResult
	var gap domain.DayGap

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}

		session, err := repos.Sessions.GetActiveForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		// scored against the streak as it was before this completion
		points := domain.SessionPoints(session, user.CurrentStreak)

		if err := session.Complete(now, points); err != nil {
			return err
		}
		if err := repos.Sessions.Update(ctx, session); err != nil {
			return err
		}

		gap, err = user.ApplyCompletion(points, domain.DateOf(*session.EndTime, s.loc), now)
		if err != nil {
			return err
		}
		if err := repos.Users.UpdateProgress(ctx, user); err != nil {
			return err
		}

		result = &FinalizeResult{
			Session:       session,
			PointsEarned:  points,
			TotalPoints:   user.TotalPoints,
			CurrentStreak: user.CurrentStreak,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		if errors.Is(err, domain.ErrValidation) {
			s.logger.Warn("finalize rejected", "session_id", sessionID, "user_id", userID, "error", err)
			return nil, err
		}
		s.logger.Error("finalize failed", "session_id", sessionID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrFinalizeFailed, domain.ErrPersistence, err)
	}

	if gap == domain.DayGapBackwards {
		s.logger.Warn("completion date before last active date, streak left unchanged",
			"user_id", userID, "session_id", sessionID)
	}

	s.invalidateLeaderboard(ctx)

	s.logger.Info("session completed",
		"session_id", sessionID,
		"user_id", userID,
		"points", result.PointsEarned,
		"total_points", result.TotalPoints,
		"streak", result.CurrentStreak,
	)
	return result, nil
}

// Abandon closes an active session without awarding points or touching
// the streak
func (s *SessionService) Abandon(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	var abandoned *domain.Session

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		session, err := repos.Sessions.GetActiveForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}

		if err := session.Abandon(s.clock.Now()); err != nil {
			return err
		}
		if err := repos.Sessions.Update(ctx, session); err != nil {
			return err
		}

		abandoned = session
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.logger.Info("session abandoned", "session_id", sessionID, "user_id", userID)
	return abandoned, nil
}

// History pages through a user's sessions, newest first. Out of range
// arguments are normalized rather than rejected.
func (s *SessionService) History(ctx context.Context, userID uuid.UUID, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	limit = s.pageSize(limit)

	sessions, total, err := s.store.Sessions().ListByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	return &HistoryPage{
		Sessions: sessions,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// RecentSessions returns the newest sessions of a user
func (s *SessionService) RecentSessions(ctx context.Context, userID uuid.UUID, n int) ([]*domain.Session, error) {
	sessions, _, err := s.store.Sessions().ListByUserID(ctx, userID, n, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return sessions, nil
}

// Leaderboard ranks users by total points, serving from the cache when
// one is configured
func (s *SessionService) Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	limit = leaderboardSize(limit)

	var generation int64
	cacheable := false
	if s.cache != nil {
		entries, gen, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", "error", err)
		} else if ok {
			return entries, nil
		} else {
			generation, cacheable = gen, true
		}
	}

	entries, err := s.store.Users().Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if entries == nil {
		entries = []*domain.LeaderboardEntry{}
	}

	if cacheable {
		if err := s.cache.Set(ctx, generation, limit, entries); err != nil {
			s.logger.Warn("leaderboard cache write failed", "error", err)
		}
	}

	return entries, nil
}

func leaderboardSize(limit int) int {
	if limit < 1 {
		return defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		return maxLeaderboardSize
	}
	return limit
}

func (s *SessionService) pageSize(limit int) int {
	if limit < 1 {
		return s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return limit
}

func (s *SessionService) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

// classify keeps domain errors intact and marks everything else as a
// persistence failure
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}
