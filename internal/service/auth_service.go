package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/repository"
	"github.com/andressep95/focus-service/pkg/clock"
	"github.com/andressep95/focus-service/pkg/hash"
	"github.com/andressep95/focus-service/pkg/jwt"
	"github.com/google/uuid"
)

// recentSessionCount is how many sessions Me returns
const recentSessionCount = 10

// TokenRevoker blacklists token ids until they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	store    repository.Store
	tokens   *jwt.TokenService
	revoker  TokenRevoker
	hasher   *hash.Hasher
	sessions *SessionService
	clock    clock.Clock
	logger   *slog.Logger
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

type Profile struct {
	*domain.User
	Sessions []*domain.Session `json:"sessions"`
}

// NewAuthService wires authentication. revoker may be nil, in which case
// logout only succeeds and tokens live until they expire.
func NewAuthService(
	store repository.Store,
	tokens *jwt.TokenService,
	revoker TokenRevoker,
	hasher *hash.Hasher,
	sessions *SessionService,
	clk clock.Clock,
	logger *slog.Logger,
) *AuthService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &AuthService{
		store:    store,
		tokens:   tokens,
		revoker:  revoker,
		hasher:   hasher,
		sessions: sessions,
		clock:    clk,
		logger:   logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	exists, err := s.store.Users().ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	tokens, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.checkToken(ctx, refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	// the old refresh token must be dead before a new pair goes out
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	return s.tokens.GenerateTokenPair(user)
}

// Logout revokes the access token in use and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, access *domain.Claims, refreshToken string) error {
	if access != nil {
		if err := s.revoke(ctx, access); err != nil {
			return err
		}
	}

	if refreshToken != "" {
		claims, err := s.tokens.ValidateToken(refreshToken, domain.TokenTypeRefresh)
		if err != nil {
			return domain.ErrInvalidToken
		}
		if access != nil && claims.UserID != access.UserID {
			return domain.ErrInvalidToken
		}
		if err := s.revoke(ctx, claims); err != nil {
			return err
		}
	}

	return nil
}

// Authenticate validates an access token for the auth middleware
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error) {
	return s.checkToken(ctx, accessToken, domain.TokenTypeAccess)
}

// Me returns the profile with the most recent sessions
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	sessions, err := s.sessions.RecentSessions(ctx, userID, recentSessionCount)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, Sessions: sessions}, nil
}

func (s *AuthService) checkToken(ctx context.Context, token, tokenType string) (*domain.Claims, error) {
	claims, err := s.tokens.ValidateToken(token, tokenType)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *domain.Claims) error {
	if s.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke token", "user_id", claims.UserID, "error", err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
