package delivery

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 10000

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSender appends reset codes to a Redis stream consumed by the
// notification worker.
type RedisStreamSender struct {
	client streamAdder
	stream string
	maxLen int64
}

// NewRedisStreamSender builds a sender on stream.
func NewRedisStreamSender(client streamAdder, stream string) *RedisStreamSender {
	return &RedisStreamSender{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

// Name implements Sender.
func (s *RedisStreamSender) Name() string { return "redis" }

// Send implements Sender.
func (s *RedisStreamSender) Send(ctx context.Context, msg ResetCodeMessage) error {
	payload, err := encode(msg)
	if err != nil {
		return fmt.Errorf("encode reset code message: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"user_id": msg.UserID,
			"email":   msg.Email,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", s.stream, err)
	}
	return nil
}
