// Package memory holds an in-process implementation of the persistence
// interfaces. One mutex guards all tables, which gives every operation the
// same atomicity the PostgreSQL transactions provide.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository"
)

// Store keeps users, sessions and reset codes in maps.
type Store struct {
	mu         sync.Mutex
	users      map[string]models.User
	sessions   map[string]models.RefreshToken
	resetCodes map[string]models.PasswordResetCode
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]models.User),
		sessions:   make(map[string]models.RefreshToken),
		resetCodes: make(map[string]models.PasswordResetCode),
		now:        time.Now,
	}
}

// PingContext satisfies the readiness probe.
func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// Users returns a view over the user table.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Sessions returns a view over the refresh token table.
func (s *Store) Sessions() *SessionStore { return &SessionStore{s: s} }

// ResetCodes returns a view over the reset code table.
func (s *Store) ResetCodes() *ResetCodeStore { return &ResetCodeStore{s: s} }

var (
	_ repository.UserStore      = (*UserStore)(nil)
	_ repository.SessionStore   = (*SessionStore)(nil)
	_ repository.ResetCodeStore = (*ResetCodeStore)(nil)
)

// UserStore mirrors repository.UserRepository.
type UserStore struct{ s *Store }

func (u *UserStore) find(match func(models.User) bool) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if match(user) {
			cp := user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return u.find(func(user models.User) bool { return user.Username == username })
}

func (u *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return u.find(func(user models.User) bool { return user.Email == email })
}

func (u *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (u *UserStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	var usernameTaken, emailTaken bool
	for _, user := range u.s.users {
		usernameTaken = usernameTaken || user.Username == username
		emailTaken = emailTaken || user.Email == email
	}
	return usernameTaken, emailTaken, nil
}

func (u *UserStore) Create(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.s.insertUserLocked(user)
}

func (u *UserStore) CreateOrFetch(_ context.Context, user *models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username {
			cp := existing
			return &cp, nil
		}
	}
	if err := u.s.insertUserLocked(user); err != nil {
		return nil, err
	}
	cp := u.s.users[user.ID]
	return &cp, nil
}

func (u *UserStore) UpdatePassword(_ context.Context, id, passwordHash, passwordSalt string, updatedAt time.Time) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash, user.PasswordSalt, user.UpdatedAt = passwordHash, passwordSalt, updatedAt
	u.s.users[id] = user
	return nil
}

func (u *UserStore) UpdateAvatar(_ context.Context, id string, avatarURL *string, updatedAt time.Time) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if avatarURL != nil {
		v := *avatarURL
		avatarURL = &v
	}
	user.AvatarURL, user.UpdatedAt = avatarURL, updatedAt
	u.s.users[id] = user
	return &user, nil
}

func (s *Store) insertUserLocked(user *models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	s.users[user.ID] = *user
	return nil
}

// SessionStore mirrors repository.SessionRepository.
type SessionStore struct{ s *Store }

func (ss *SessionStore) Replace(_ context.Context, token *models.RefreshToken) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if _, ok := ss.s.users[token.UserID]; !ok {
		return sql.ErrNoRows
	}
	if existing, taken := ss.s.sessions[token.Token]; taken && existing.UserID != token.UserID {
		return repository.ErrDuplicate
	}
	ss.s.deleteSessionsLocked(token.UserID)
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = ss.s.now().UTC()
	}
	ss.s.sessions[token.Token] = *token
	return nil
}

func (ss *SessionStore) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	rt, ok := ss.s.sessions[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rt, nil
}

func (ss *SessionStore) DeleteByToken(_ context.Context, token string) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if _, ok := ss.s.sessions[token]; !ok {
		return 0, nil
	}
	delete(ss.s.sessions, token)
	return 1, nil
}

func (ss *SessionStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	return ss.s.deleteSessionsLocked(userID), nil
}

func (ss *SessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	var n int64
	for key, rt := range ss.s.sessions {
		if rt.Expired(now) {
			delete(ss.s.sessions, key)
			n++
		}
	}
	return n, nil
}

// Count returns the number of sessions held by userID.
func (ss *SessionStore) Count(userID string) int {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	n := 0
	for _, rt := range ss.s.sessions {
		if rt.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) deleteSessionsLocked(userID string) int64 {
	var n int64
	for key, rt := range s.sessions {
		if rt.UserID == userID {
			delete(s.sessions, key)
			n++
		}
	}
	return n
}

// ResetCodeStore mirrors repository.PasswordResetRepository.
type ResetCodeStore struct{ s *Store }

func (rs *ResetCodeStore) Issue(_ context.Context, code *models.PasswordResetCode) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	if _, ok := rs.s.users[code.UserID]; !ok {
		return sql.ErrNoRows
	}
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = rs.s.now().UTC()
	}
	usedAt := code.CreatedAt
	for id, existing := range rs.s.resetCodes {
		if existing.UserID == code.UserID && !existing.Used {
			existing.Used, existing.UsedAt = true, &usedAt
			rs.s.resetCodes[id] = existing
		}
	}
	stored := *code
	stored.Used, stored.UsedAt = false, nil
	rs.s.resetCodes[stored.ID] = stored
	return nil
}

func (rs *ResetCodeStore) Redeem(_ context.Context, red models.ResetRedemption) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	var matchID string
	for id, code := range rs.s.resetCodes {
		if code.UserID == red.UserID && code.Token == red.Code && !code.Used && code.ExpiresAt.After(red.At) {
			matchID = id
			break
		}
	}
	if matchID == "" {
		return repository.ErrCodeNotRedeemable
	}
	user, ok := rs.s.users[red.UserID]
	if !ok {
		return sql.ErrNoRows
	}

	code := rs.s.resetCodes[matchID]
	at := red.At
	code.Used, code.UsedAt = true, &at
	rs.s.resetCodes[matchID] = code

	user.PasswordHash, user.PasswordSalt, user.UpdatedAt = red.PasswordHash, red.PasswordSalt, red.At
	rs.s.users[user.ID] = user

	rs.s.deleteSessionsLocked(red.UserID)
	return nil
}

// Unused returns the user's codes that have not been consumed.
func (rs *ResetCodeStore) Unused(userID string) []models.PasswordResetCode {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	var out []models.PasswordResetCode
	for _, code := range rs.s.resetCodes {
		if code.UserID == userID && !code.Used {
			out = append(out, code)
		}
	}
	return out
}
