package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/repository/memory"
	"github.com/noah-isme/devscout-auth/pkg/jobs"
)

func seedStoreUser(t *testing.T, store *memory.Store, username, password string) *models.User {
	t.Helper()
	hash, salt, err := testHasher.Hash(password, "")
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: hash, PasswordSalt: salt, Role: models.RoleUser}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []jobs.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]jobs.Job(nil), q.jobs...)
}
