package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository"
	"github.com/noah-isme/devscout-auth/internal/security"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
)

type credentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateOrFetch(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash, passwordSalt string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id string, avatarURL *string, updatedAt time.Time) (*models.User, error)
}

// AdminAccount is the reserved account created on its first successful login.
type AdminAccount struct {
	Username string
	Password string
	Email    string
}

const invalidCredentialsMessage = "invalid username or password"

// CredentialService verifies and maintains account credentials.
type CredentialService struct {
	store     credentialStore
	hasher    *security.PasswordHasher
	admin     AdminAccount
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	dummyHash string
	dummySalt string
}

// NewCredentialService constructs a CredentialService instance.
func NewCredentialService(store credentialStore, hasher *security.PasswordHasher, admin AdminAccount, validate *validator.Validate, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = security.NewPasswordHasher(0)
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.Email == "" && admin.Username != "" {
		admin.Email = strings.ToLower(admin.Username) + "@devscout.local"
	}
	svc := &CredentialService{
		store:     store,
		hasher:    hasher,
		admin:     admin,
		validator: registerValidations(validate),
		logger:    logger,
		now:       time.Now,
	}
	// Unknown usernames still pay for one derivation.
	svc.dummyHash, svc.dummySalt, _ = hasher.Hash("devscout-unknown-user", "")
	return svc
}

// Authenticate returns the user owning username when password matches. The
// reserved admin account is bootstrapped on its first successful login.
func (s *CredentialService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}
	username := strings.TrimSpace(req.Username)

	user, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !s.hasher.Verify(req.Password, user.PasswordHash, user.PasswordSalt) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, invalidCredentialsMessage)
		}
		return user, nil
	case errors.Is(err, sql.ErrNoRows):
		if s.isAdminLogin(username, req.Password) {
			return s.bootstrapAdmin(ctx)
		}
		s.hasher.Verify(req.Password, s.dummyHash, s.dummySalt)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, invalidCredentialsMessage)
	default:
		return nil, appErrors.Storage(err)
	}
}

func (s *CredentialService) isAdminLogin(username, password string) bool {
	if s.admin.Username == "" || s.admin.Password == "" {
		return false
	}
	userOK := security.EqualConstantTime(username, s.admin.Username)
	passOK := security.EqualConstantTime(password, s.admin.Password)
	return userOK && passOK
}

func (s *CredentialService) bootstrapAdmin(ctx context.Context) (*models.User, error) {
	hash, salt, err := s.hasher.Hash(s.admin.Password, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	now := s.now().UTC()
	user, err := s.store.CreateOrFetch(ctx, &models.User{
		Username:     s.admin.Username,
		Email:        s.admin.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admin email is already registered")
		}
		return nil, appErrors.Storage(err)
	}
	s.logger.Info("admin account bootstrapped", zap.String("user_id", user.ID))
	return user, nil
}

// Register creates a USER account.
func (s *CredentialService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, registerValidationMessage(err))
	}
	if s.admin.Username != "" && strings.EqualFold(req.Username, s.admin.Username) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	}
	if s.admin.Username != "" && req.Email == s.admin.Email {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	usernameTaken, emailTaken, err := s.store.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	if usernameTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	}
	if emailTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, salt, err := s.hasher.Hash(req.Password, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	now := s.now().UTC()
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already registered")
		}
		return nil, appErrors.Storage(err)
	}
	return user, nil
}

func registerValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid registration payload"
	}
	switch verrs[0].Field() {
	case "Username":
		return "username must be 3-39 characters of letters, digits, '-' or '_'"
	case "Email":
		return "a valid email is required"
	case "Password":
		return "password must be at least 6 characters"
	}
	return "invalid registration payload"
}

// FindByID returns the user or ErrNotFound.
func (s *CredentialService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err)
	}
	return user, nil
}

// FindByEmail returns the user owning email or ErrNotFound.
func (s *CredentialService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no account registered with this email")
		}
		return nil, appErrors.Storage(err)
	}
	return user, nil
}

// UpdatePassword stores an already derived hash and salt.
func (s *CredentialService) UpdatePassword(ctx context.Context, userID, hash, salt string) error {
	if err := s.store.UpdatePassword(ctx, userID, hash, salt, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Storage(err)
	}
	return nil
}

// UpdateAvatar replaces the avatar URL of userID.
func (s *CredentialService) UpdateAvatar(ctx context.Context, userID string, req models.UpdateAvatarRequest) (*models.User, error) {
	req.AvatarURL = strings.TrimSpace(req.AvatarURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "avatarUrl must be a valid URL")
	}
	if !strings.HasPrefix(req.AvatarURL, "https://") && !strings.HasPrefix(req.AvatarURL, "http://") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatarUrl must use http or https")
	}
	user, err := s.store.UpdateAvatar(ctx, userID, &req.AvatarURL, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err)
	}
	return user, nil
}
