package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/devscout-auth/internal/models"
)

const minSecretBytes = 32

// ErrWeakSecret is returned when a signing secret is too short or reused.
var ErrWeakSecret = errors.New("token secrets must be at least 32 bytes and distinct")

// TokenConfig carries the signing material loaded at startup.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenCodec issues and verifies HS256 access and refresh tokens.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// TokenOption customises a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec validates the secrets and builds a codec.
func NewTokenCodec(cfg TokenConfig, opts ...TokenOption) (*TokenCodec, error) {
	if len(cfg.AccessSecret) < minSecretBytes || len(cfg.RefreshSecret) < minSecretBytes || cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	c := &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL returns the access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken signs a short-lived token for user.
func (c *TokenCodec) IssueAccessToken(user *models.User) (string, time.Time, error) {
	return c.issue(user, models.TokenTypeAccess, c.accessSecret, c.accessTTL)
}

// IssueRefreshToken signs a long-lived token for user.
func (c *TokenCodec) IssueRefreshToken(user *models.User) (string, time.Time, error) {
	return c.issue(user, models.TokenTypeRefresh, c.refreshSecret, c.refreshTTL)
}

// IssuePair signs both tokens for user.
func (c *TokenCodec) IssuePair(user *models.User) (*models.TokenPair, error) {
	access, accessExp, err := c.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := c.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken returns the payload of a valid access token.
func (c *TokenCodec) VerifyAccessToken(token string) (*models.TokenPayload, bool) {
	return c.verify(token, models.TokenTypeAccess, c.accessSecret)
}

// VerifyRefreshToken returns the payload of a valid refresh token.
func (c *TokenCodec) VerifyRefreshToken(token string) (*models.TokenPayload, bool) {
	return c.verify(token, models.TokenTypeRefresh, c.refreshSecret)
}

func (c *TokenCodec) issue(user *models.User, typ models.TokenType, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("issue token: user id required")
	}
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := &models.JWTClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

func (c *TokenCodec) verify(raw string, typ models.TokenType, secret []byte) (*models.TokenPayload, bool) {
	if raw == "" {
		return nil, false
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.Type != typ || claims.UserID == "" || claims.Username == "" || claims.Email == "" || claims.ID == "" {
		return nil, false
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return nil, false
	}

	return &models.TokenPayload{
		TokenID:   claims.ID,
		Type:      claims.Type,
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		AvatarURL: claims.AvatarURL,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}
