package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a USER account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Email     string `json:"email" validate:"required,email"`
	ResetCode string `json:"resetCode" validate:"required"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
}

// UpdateAvatarRequest replaces the profile avatar.
type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" validate:"required,url,max=2048"`
}

// LoginResult returns the authenticated user with the issued pair.
type LoginResult struct {
	User   UserInfo
	Tokens TokenPair
}

// ResetRequestResult is returned by the forgot-password flow. Code is only
// populated when echoing is enabled.
type ResetRequestResult struct {
	Code string
}

// JWTClaims is the encoded claim set shared by access and refresh tokens.
// The typ claim and the distinct secrets keep the two from being swapped.
type JWTClaims struct {
	UserID    string    `json:"uid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Type      TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// SessionState is the outcome of resolving a request's cookies.
type SessionState string

const (
	SessionUnauthenticated SessionState = "UNAUTHENTICATED"
	SessionByAccessToken   SessionState = "AUTHENTICATED_BY_ACCESS_TOKEN"
	SessionByRefresh       SessionState = "AUTHENTICATED_BY_REFRESH"
	SessionDenied          SessionState = "DENIED"
)

// Authenticated reports whether the state carries an identity.
func (s SessionState) Authenticated() bool {
	return s == SessionByAccessToken || s == SessionByRefresh
}

// SessionResolution is what the gate acts upon. Tokens is set only after a
// rotation and must be written back as cookies.
type SessionResolution struct {
	State  SessionState
	User   *User
	Tokens *TokenPair
	Reason string
}
