package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/delivery"
	"github.com/noah-isme/devscout-auth/internal/handler"
	"github.com/noah-isme/devscout-auth/internal/repository"
	"github.com/noah-isme/devscout-auth/internal/repository/memory"
	"github.com/noah-isme/devscout-auth/pkg/cache"
	"github.com/noah-isme/devscout-auth/pkg/config"
	"github.com/noah-isme/devscout-auth/pkg/database"
)

type repositories struct {
	users    repository.UserStore
	sessions repository.SessionStore
	resets   repository.ResetCodeStore
	pinger   handler.Pinger
	closer   io.Closer
}

func openRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		if cfg.IsProduction() {
			log.Warn("in-memory storage selected in production; data is lost on restart")
		}
		store := memory.NewStore()
		return &repositories{
			users:    store.Users(),
			sessions: store.Sessions(),
			resets:   store.ResetCodes(),
			pinger:   store,
		}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &repositories{
		users:    repository.NewUserRepository(db),
		sessions: repository.NewSessionRepository(db),
		resets:   repository.NewPasswordResetRepository(db),
		pinger:   db,
		closer:   db,
	}, nil
}

func newSender(ctx context.Context, cfg *config.Config, log *zap.Logger) (delivery.Sender, io.Closer, error) {
	switch cfg.Delivery.Driver {
	case config.DeliveryRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return delivery.NewRedisStreamSender(client, cfg.Delivery.RedisStream), client, nil
	case config.DeliveryKafka:
		sender := delivery.NewKafkaSender(delivery.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Delivery.KafkaTopic), cfg.Delivery.KafkaTopic)
		return sender, sender, nil
	default:
		return delivery.NewLogSender(log), nil, nil
	}
}
