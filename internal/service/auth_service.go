package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
)

type tokenCodec interface {
	IssuePair(user *models.User) (*models.TokenPair, error)
	VerifyAccessToken(token string) (*models.TokenPayload, bool)
	VerifyRefreshToken(token string) (*models.TokenPayload, bool)
}

type userDirectory interface {
	Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type sessionRegistry interface {
	Issue(ctx context.Context, userID, refreshToken string) error
	Lookup(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeByUser(ctx context.Context, userID string) error
	RevokeByToken(ctx context.Context, token string) error
}

// AuthService runs login, logout and the per-request session resolution.
type AuthService struct {
	users    userDirectory
	tokens   tokenCodec
	sessions sessionRegistry
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userDirectory, tokens tokenCodec, sessions sessionRegistry, metrics *MetricsService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, sessions: sessions, metrics: metrics, logger: logger}
}

// Login authenticates the caller and opens a new session, superseding any
// previous one.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	user, err := s.users.Authenticate(ctx, req)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) || errors.Is(err, appErrors.ErrValidation) {
			s.metrics.RecordLogin(OutcomeRejected)
		} else {
			s.metrics.RecordLogin(OutcomeError)
		}
		return nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		s.metrics.RecordLogin(OutcomeError)
		return nil, err
	}
	s.metrics.RecordLogin(OutcomeSuccess)
	return &models.LoginResult{User: user.Info(), Tokens: *pair}, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue tokens")
	}
	if err := s.sessions.Issue(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Identify returns the user behind a valid access token, or nil. It never
// touches the refresh token.
func (s *AuthService) Identify(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, nil
	}
	payload, ok := s.tokens.VerifyAccessToken(accessToken)
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Resolve classifies a request by its two cookies. The returned error is only
// set for storage failures; every authentication failure is a Denied state.
func (s *AuthService) Resolve(ctx context.Context, accessToken, refreshToken string) (*models.SessionResolution, error) {
	if accessToken == "" && refreshToken == "" {
		return &models.SessionResolution{State: models.SessionUnauthenticated}, nil
	}

	user, err := s.Identify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return &models.SessionResolution{State: models.SessionByAccessToken, User: user}, nil
	}

	if refreshToken == "" {
		return denied("access token invalid and no refresh token"), nil
	}

	row, err := s.sessions.Lookup(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidToken) {
			return denied("refresh token not live"), nil
		}
		return nil, err
	}

	payload, ok := s.tokens.VerifyRefreshToken(refreshToken)
	if !ok {
		return denied("refresh token failed verification"), nil
	}
	if payload.UserID != row.UserID {
		s.logger.Warn("refresh token subject does not own session", zap.String("session_user_id", row.UserID), zap.String("token_user_id", payload.UserID))
		return denied("refresh token subject mismatch"), nil
	}

	user, err = s.users.FindByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			if revokeErr := s.sessions.RevokeByUser(ctx, row.UserID); revokeErr != nil {
				s.logger.Warn("failed to revoke sessions of missing user", zap.String("user_id", row.UserID), zap.Error(revokeErr))
			}
			return denied("session user no longer exists"), nil
		}
		return nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return denied("session user no longer exists"), nil
		}
		return nil, err
	}
	s.metrics.RecordRotation()
	return &models.SessionResolution{State: models.SessionByRefresh, User: user, Tokens: pair}, nil
}

func denied(reason string) *models.SessionResolution {
	return &models.SessionResolution{State: models.SessionDenied, Reason: reason}
}

// Logout revokes the caller's session. The caller is identified by a valid
// access token or by the registry row of the refresh token; an unknown
// refresh token is deleted as is.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if payload, ok := s.tokens.VerifyAccessToken(accessToken); ok {
		return s.sessions.RevokeByUser(ctx, payload.UserID)
	}
	if refreshToken == "" {
		return nil
	}
	row, err := s.sessions.Lookup(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidToken) {
			return s.sessions.RevokeByToken(ctx, refreshToken)
		}
		return err
	}
	return s.sessions.RevokeByUser(ctx, row.UserID)
}

// RevokeUserSessions ends every session of userID. Used by administrators.
// Ids that are not UUIDs cannot name a user and never reach storage.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.RevokeByUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("sessions revoked by administrator", zap.String("user_id", userID))
	return nil
}
