package models

import "time"

// RefreshToken is the single live session row of a user.
type RefreshToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the row is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// PasswordResetCode is a one-time six digit code.
type PasswordResetCode struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	Used      bool       `db:"used"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// ResetRedemption carries everything the store needs to consume a code and
// replace the password in one transaction. The hash is computed beforehand.
type ResetRedemption struct {
	UserID       string
	Code         string
	PasswordHash string
	PasswordSalt string
	At           time.Time
}

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPayload is the verified claim set of a token.
type TokenPayload struct {
	TokenID   string
	Type      TokenType
	UserID    string
	Username  string
	Email     string
	AvatarURL *string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is a freshly issued access/refresh couple.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
