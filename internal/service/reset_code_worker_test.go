package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/devscout-auth/internal/delivery"
	"github.com/noah-isme/devscout-auth/pkg/jobs"
)

type stubSender struct {
	sent []delivery.ResetCodeMessage
	err  error
}

func (s *stubSender) Name() string { return "stub" }

func (s *stubSender) Send(_ context.Context, msg delivery.ResetCodeMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestResetCodeWorkerDelivers(t *testing.T) {
	sender := &stubSender{}
	metrics := NewMetricsService()
	worker := NewResetCodeWorker(sender, metrics, nil)

	msg := delivery.ResetCodeMessage{UserID: "u1", Email: "u1@example.com", Code: "123456"}
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: msg}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "123456", sender.sent[0].Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deliveries.WithLabelValues(OutcomeSuccess)))
}

func TestResetCodeWorkerReturnsSendError(t *testing.T) {
	sender := &stubSender{err: errors.New("broker down")}
	metrics := NewMetricsService()
	worker := NewResetCodeWorker(sender, metrics, nil)

	err := worker.Handle(context.Background(), jobs.Job{Payload: delivery.ResetCodeMessage{UserID: "u1"}})
	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deliveries.WithLabelValues(OutcomeError)))
}

func TestResetCodeWorkerDropsUnknownPayload(t *testing.T) {
	sender := &stubSender{}
	metrics := NewMetricsService()
	worker := NewResetCodeWorker(sender, metrics, nil)

	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{Payload: "junk"}))
	assert.Empty(t, sender.sent)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deliveries.WithLabelValues(OutcomeRejected)))
}

func TestResetCodeWorkerGiveUpLogs(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	worker := NewResetCodeWorker(&stubSender{}, nil, zap.New(core))

	worker.GiveUp(jobs.Job{ID: "j1", Attempt: 3, Payload: delivery.ResetCodeMessage{UserID: "u1"}}, errors.New("boom"))

	entries := logs.FilterMessage("reset code delivery abandoned").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
}
