package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/delivery"
	"github.com/noah-isme/devscout-auth/pkg/jobs"
)

// JobTypeResetCode tags queued reset code deliveries.
const JobTypeResetCode = "auth.reset_code"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ResetCodeWorker delivers queued reset codes through a Sender.
type ResetCodeWorker struct {
	sender  delivery.Sender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewResetCodeWorker constructs the queue handler.
func NewResetCodeWorker(sender delivery.Sender, metrics *MetricsService, logger *zap.Logger) *ResetCodeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetCodeWorker{sender: sender, metrics: metrics, logger: logger}
}

// Handle is a jobs.Handler.
func (w *ResetCodeWorker) Handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(delivery.ResetCodeMessage)
	if !ok {
		w.metrics.RecordDelivery(OutcomeRejected)
		w.logger.Error("unexpected reset code payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		w.metrics.RecordDelivery(OutcomeError)
		return err
	}
	w.metrics.RecordDelivery(OutcomeSuccess)
	w.logger.Debug("reset code delivered", zap.String("job_id", job.ID), zap.String("sender", w.sender.Name()), zap.String("user_id", msg.UserID))
	return nil
}

// GiveUp is passed as the queue's OnGiveUp hook.
func (w *ResetCodeWorker) GiveUp(job jobs.Job, err error) {
	userID := ""
	if msg, ok := job.Payload.(delivery.ResetCodeMessage); ok {
		userID = msg.UserID
	}
	w.logger.Error("reset code delivery abandoned", zap.String("job_id", job.ID), zap.String("user_id", userID), zap.Int("attempts", job.Attempt), zap.Error(err))
}
