package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
)

type sessionStore interface {
	Replace(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService is the registry of live refresh tokens. A user holds at most
// one; issuing a new one supersedes the previous.
type SessionService struct {
	store  sessionStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(store sessionStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Issue records refreshToken as the only live session of userID.
func (s *SessionService) Issue(ctx context.Context, userID, refreshToken string) error {
	now := s.now().UTC()
	err := s.store.Replace(ctx, &models.RefreshToken{
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "refresh token already registered")
	}
	return appErrors.Storage(err)
}

// Lookup returns the live row for token. Expired rows are removed when found.
func (s *SessionService) Lookup(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "refresh token missing")
	}
	rt, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "refresh token not recognised")
		}
		return nil, appErrors.Storage(err)
	}
	if rt.Expired(s.now()) {
		if _, err := s.store.DeleteByToken(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired refresh token", zap.String("user_id", rt.UserID), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "refresh token expired")
	}
	return rt, nil
}

// RevokeByUser deletes every session of userID.
func (s *SessionService) RevokeByUser(ctx context.Context, userID string) error {
	if _, err := s.store.DeleteByUser(ctx, userID); err != nil {
		return appErrors.Storage(err)
	}
	return nil
}

// RevokeByToken deletes the session identified by token, if any.
func (s *SessionService) RevokeByToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.store.DeleteByToken(ctx, token); err != nil {
		return appErrors.Storage(err)
	}
	return nil
}

// SweepExpired deletes every expired row. Lookup already discards expired
// rows it meets; this catches sessions that are never presented again.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, appErrors.Storage(err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
