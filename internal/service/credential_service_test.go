package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository"
	"github.com/noah-isme/devscout-auth/internal/security"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
)

type mockCredentialRepo struct {
	byUsername      map[string]*models.User
	findErr         error
	existsUsername  bool
	existsEmail     bool
	createErr       error
	created         []*models.User
	bootstrapCalls  int
	updatedPassword map[string]string
}

func newMockCredentialRepo() *mockCredentialRepo {
	return &mockCredentialRepo{byUsername: map[string]*models.User{}, updatedPassword: map[string]string{}}
}

func (m *mockCredentialRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCredentialRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byUsername {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCredentialRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCredentialRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	return m.existsUsername, m.existsEmail, nil
}

func (m *mockCredentialRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-id"
	m.created = append(m.created, user)
	m.byUsername[user.Username] = user
	return nil
}

func (m *mockCredentialRepo) CreateOrFetch(ctx context.Context, user *models.User) (*models.User, error) {
	m.bootstrapCalls++
	if existing, ok := m.byUsername[user.Username]; ok {
		return existing, nil
	}
	user.ID = "admin-id"
	m.byUsername[user.Username] = user
	return user, nil
}

func (m *mockCredentialRepo) UpdatePassword(ctx context.Context, id, passwordHash, passwordSalt string, updatedAt time.Time) error {
	m.updatedPassword[id] = passwordHash
	return nil
}

func (m *mockCredentialRepo) UpdateAvatar(ctx context.Context, id string, avatarURL *string, updatedAt time.Time) (*models.User, error) {
	u, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = avatarURL
	return u, nil
}

var testHasher = security.NewPasswordHasher(security.MinPBKDF2Iterations)

func newTestCredentialService(repo *mockCredentialRepo) *CredentialService {
	return NewCredentialService(repo, testHasher, AdminAccount{Username: "admin", Password: "root-pass", Email: "Admin@DevScout.io"}, nil, zap.NewNop())
}

func seedMockUser(t *testing.T, repo *mockCredentialRepo, username, password string) *models.User {
	t.Helper()
	hash, salt, err := testHasher.Hash(password, "")
	require.NoError(t, err)
	u := &models.User{ID: username + "-id", Username: username, Email: username + "@example.com", PasswordHash: hash, PasswordSalt: salt, Role: models.RoleUser}
	repo.byUsername[username] = u
	return u
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMockCredentialRepo()
	seedMockUser(t, repo, "octocat", "hunter22")
	svc := newTestCredentialService(repo)

	user, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "octocat", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "octocat-id", user.ID)
}

func TestAuthenticateFailuresAreGeneric(t *testing.T) {
	repo := newMockCredentialRepo()
	seedMockUser(t, repo, "octocat", "hunter22")
	svc := newTestCredentialService(repo)

	_, wrongPassword := svc.Authenticate(context.Background(), models.LoginRequest{Username: "octocat", Password: "nope"})
	_, unknownUser := svc.Authenticate(context.Background(), models.LoginRequest{Username: "ghost", Password: "nope"})

	for _, err := range []error{wrongPassword, unknownUser} {
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
		assert.Equal(t, invalidCredentialsMessage, appErr.Message)
	}
}

func TestAuthenticateValidation(t *testing.T) {
	svc := newTestCredentialService(newMockCredentialRepo())
	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "octocat"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthenticateStorageFailure(t *testing.T) {
	repo := newMockCredentialRepo()
	repo.findErr = errors.New("connection refused")
	svc := newTestCredentialService(repo)

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "octocat", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
}

func TestAuthenticateBootstrapsAdmin(t *testing.T) {
	repo := newMockCredentialRepo()
	svc := newTestCredentialService(repo)

	user, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "admin", Password: "root-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "admin@devscout.io", user.Email)
	assert.Equal(t, 1, repo.bootstrapCalls)

	again, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "admin", Password: "root-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, 1, repo.bootstrapCalls)
}

func TestAuthenticateAdminWrongPasswordDoesNotBootstrap(t *testing.T) {
	repo := newMockCredentialRepo()
	svc := newTestCredentialService(repo)

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "admin", Password: "guess"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Zero(t, repo.bootstrapCalls)
}

func TestRegisterCreatesUser(t *testing.T) {
	repo := newMockCredentialRepo()
	svc := newTestCredentialService(repo)

	user, err := svc.Register(context.Background(), models.RegisterRequest{Username: "new_dev-1", Email: " New@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	require.Len(t, repo.created, 1)
	assert.True(t, testHasher.Verify("secret1", user.PasswordHash, user.PasswordSalt))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestCredentialService(newMockCredentialRepo())
	cases := []models.RegisterRequest{
		{Username: "ab", Email: "a@example.com", Password: "secret1"},
		{Username: "has space", Email: "a@example.com", Password: "secret1"},
		{Username: "valid", Email: "not-an-email", Password: "secret1"},
		{Username: "valid", Email: "a@example.com", Password: "12345"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "%+v", req)
	}
}

func TestRegisterConflicts(t *testing.T) {
	repo := newMockCredentialRepo()
	svc := newTestCredentialService(repo)

	repo.existsUsername = true
	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "octocat", Email: "o@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	repo.existsUsername, repo.existsEmail = false, true
	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "octocat", Email: "o@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	repo.existsEmail = false
	repo.createErr = repository.ErrDuplicate
	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "octocat", Email: "o@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "Admin", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestRegisterReservesAdminEmail(t *testing.T) {
	repo := newMockCredentialRepo()
	svc := newTestCredentialService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "squatter", Email: " ADMIN@devscout.io", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.created)

	derived := NewCredentialService(repo, testHasher, AdminAccount{Username: "root", Password: "root-pass"}, nil, zap.NewNop())
	_, err = derived.Register(context.Background(), models.RegisterRequest{Username: "squatter", Email: "root@devscout.local", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	user, err := derived.Authenticate(context.Background(), models.LoginRequest{Username: "root", Password: "root-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "root@devscout.local", user.Email)
}

func TestFindByIDNotFound(t *testing.T) {
	svc := newTestCredentialService(newMockCredentialRepo())
	_, err := svc.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateAvatar(t *testing.T) {
	repo := newMockCredentialRepo()
	seedMockUser(t, repo, "octocat", "hunter22")
	svc := newTestCredentialService(repo)

	user, err := svc.UpdateAvatar(context.Background(), "octocat-id", models.UpdateAvatarRequest{AvatarURL: "https://avatars.example/o.png"})
	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://avatars.example/o.png", *user.AvatarURL)

	_, err = svc.UpdateAvatar(context.Background(), "octocat-id", models.UpdateAvatarRequest{AvatarURL: "javascript:alert(1)"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
