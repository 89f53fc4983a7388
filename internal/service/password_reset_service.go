package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/delivery"
	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository"
	"github.com/noah-isme/devscout-auth/internal/security"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
	"github.com/noah-isme/devscout-auth/pkg/jobs"
)

type resetCodeStore interface {
	Issue(ctx context.Context, code *models.PasswordResetCode) error
	Redeem(ctx context.Context, redemption models.ResetRedemption) error
}

type resetUserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordResetConfig governs the reset-code flow.
type PasswordResetConfig struct {
	CodeTTL time.Duration
	// EchoCode returns the code in the HTTP response. Development only.
	EchoCode bool
}

// PasswordResetService issues and redeems one-time reset codes.
type PasswordResetService struct {
	codes     resetCodeStore
	users     resetUserFinder
	hasher    *security.PasswordHasher
	queue     jobDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PasswordResetConfig
	now       func() time.Time
	generate  func() (string, error)
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(codes resetCodeStore, users resetUserFinder, hasher *security.PasswordHasher, queue jobDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PasswordResetConfig) *PasswordResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = security.NewPasswordHasher(0)
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = time.Hour
	}
	return &PasswordResetService{
		codes:     codes,
		users:     users,
		hasher:    hasher,
		queue:     queue,
		metrics:   metrics,
		validator: registerValidations(validate),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		generate:  security.GenerateResetCode,
	}
}

// IssueCode stores a fresh code for userID, invalidating any outstanding one.
func (s *PasswordResetService) IssueCode(ctx context.Context, userID string) (*models.PasswordResetCode, error) {
	code, err := s.generate()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset code")
	}
	now := s.now().UTC()
	record := &models.PasswordResetCode{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     code,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
		CreatedAt: now,
	}
	if err := s.codes.Issue(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err)
	}
	return record, nil
}

// Request issues a code for the account owning req.Email and queues its
// delivery. A failed enqueue is logged but keeps the issued code.
func (s *PasswordResetService) Request(ctx context.Context, req models.ForgotPasswordRequest) (*models.ResetRequestResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a valid email is required")
	}

	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	record, err := s.IssueCode(ctx, user.ID)
	if err != nil {
		s.metrics.RecordPasswordReset("requested", OutcomeError)
		return nil, err
	}
	s.metrics.RecordPasswordReset("requested", OutcomeSuccess)

	if s.queue != nil {
		job := jobs.Job{
			ID:   record.ID,
			Type: JobTypeResetCode,
			Payload: delivery.ResetCodeMessage{
				UserID:    user.ID,
				Username:  user.Username,
				Email:     user.Email,
				Code:      record.Token,
				ExpiresAt: record.ExpiresAt,
				IssuedAt:  record.CreatedAt,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.metrics.RecordDelivery("dropped")
			s.logger.Error("failed to enqueue reset code delivery", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	result := &models.ResetRequestResult{}
	if s.cfg.EchoCode {
		result.Code = record.Token
	}
	return result, nil
}

// Redeem consumes a valid code and replaces the password. The user's sessions
// are revoked in the same transaction.
func (s *PasswordResetService) Redeem(ctx context.Context, req models.ResetPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ResetCode = strings.TrimSpace(req.ResetCode)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email, resetCode and a password of at least 6 characters are required")
	}

	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if !security.IsResetCodeFormat(req.ResetCode) {
		s.metrics.RecordPasswordReset("redeemed", OutcomeRejected)
		return appErrors.Clone(appErrors.ErrInvalidOrExpiredCode, "")
	}

	hash, salt, err := s.hasher.Hash(req.Password, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	err = s.codes.Redeem(ctx, models.ResetRedemption{
		UserID:       user.ID,
		Code:         req.ResetCode,
		PasswordHash: hash,
		PasswordSalt: salt,
		At:           s.now().UTC(),
	})
	switch {
	case err == nil:
		s.metrics.RecordPasswordReset("redeemed", OutcomeSuccess)
		s.logger.Info("password reset completed", zap.String("user_id", user.ID))
		return nil
	case errors.Is(err, repository.ErrCodeNotRedeemable):
		s.metrics.RecordPasswordReset("redeemed", OutcomeRejected)
		return appErrors.Clone(appErrors.ErrInvalidOrExpiredCode, "")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	default:
		s.metrics.RecordPasswordReset("redeemed", OutcomeError)
		return appErrors.Storage(err)
	}
}

func (s *PasswordResetService) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no account registered with this email")
		}
		return nil, appErrors.Storage(err)
	}
	return user, nil
}
