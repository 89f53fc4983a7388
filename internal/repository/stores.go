package repository

import (
	"context"
	"time"

	"github.com/noah-isme/devscout-auth/internal/models"
)

// UserStore is implemented by UserRepository and memory.UserStore.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateOrFetch(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash, passwordSalt string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id string, avatarURL *string, updatedAt time.Time) (*models.User, error)
}

// SessionStore is implemented by SessionRepository and memory.SessionStore.
type SessionStore interface {
	Replace(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetCodeStore is implemented by PasswordResetRepository and memory.ResetCodeStore.
type ResetCodeStore interface {
	Issue(ctx context.Context, code *models.PasswordResetCode) error
	Redeem(ctx context.Context, redemption models.ResetRedemption) error
}

var (
	_ UserStore      = (*UserRepository)(nil)
	_ SessionStore   = (*SessionRepository)(nil)
	_ ResetCodeStore = (*PasswordResetRepository)(nil)
)
