package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/security"
)

// LogSender is the development sender. It never writes the full code.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Name implements Sender.
func (s *LogSender) Name() string { return "log" }

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg ResetCodeMessage) error {
	s.logger.Info("password reset code issued",
		zap.String("user_id", msg.UserID),
		zap.String("code", security.MaskResetCode(msg.Code)),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}
