package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes reset codes to a topic keyed by user id, so codes of
// one user stay ordered within a partition.
type KafkaSender struct {
	writer messageWriter
	topic  string
}

// NewKafkaWriter builds the segmentio writer used in production.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}

// NewKafkaSender wraps writer. The writer must already target topic.
func NewKafkaSender(writer messageWriter, topic string) *KafkaSender {
	return &KafkaSender{writer: writer, topic: topic}
}

// Name implements Sender.
func (s *KafkaSender) Name() string { return "kafka" }

// Send implements Sender.
func (s *KafkaSender) Send(ctx context.Context, msg ResetCodeMessage) error {
	payload, err := encode(msg)
	if err != nil {
		return fmt.Errorf("encode reset code message: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.UserID),
		Value: payload,
		Time:  msg.IssuedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("auth.reset_code")},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
