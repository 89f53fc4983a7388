package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/devscout-auth/internal/models"
)

const userColumns = `id, username, email, password_hash, password_salt, role, avatar_url, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "find user by username", `SELECT `+userColumns+` FROM users WHERE username = $1 LIMIT 1`, username)
}

// FindByEmail returns a user by lower-cased email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports which of the two identifiers is taken.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1), EXISTS (SELECT 1 FROM users WHERE email = $2)`
	var usernameTaken, emailTaken bool
	if err := r.db.QueryRowxContext(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return usernameTaken, emailTaken, nil
}

// Create inserts a new user. Unique violations surface as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	prepareUser(user)
	const query = `INSERT INTO users (id, username, email, password_hash, password_salt, role, avatar_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query, userArgs(user)...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateOrFetch inserts user unless the username exists and returns the stored
// row either way. Concurrent callers converge on one record.
func (r *UserRepository) CreateOrFetch(ctx context.Context, user *models.User) (*models.User, error) {
	prepareUser(user)
	const query = `INSERT INTO users (id, username, email, password_hash, password_salt, role, avatar_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (username) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userArgs(user)...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("bootstrap user: %w", err)
	}
	return r.FindByUsername(ctx, user.Username)
}

// UpdatePassword replaces the stored hash and salt.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash, passwordSalt string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, password_salt = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// UpdateAvatar sets or clears the avatar and returns the updated row.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id string, avatarURL *string, updatedAt time.Time) (*models.User, error) {
	var user models.User
	query := `UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, &user, query, id, avatarURL, updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return &user, nil
}

func prepareUser(user *models.User) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
}

func userArgs(user *models.User) []interface{} {
	return []interface{}{user.ID, user.Username, user.Email, user.PasswordHash, user.PasswordSalt, user.Role, user.AvatarURL, user.CreatedAt, user.UpdatedAt}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

