package main

import (
	"context"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/handler"
	"github.com/noah-isme/devscout-auth/internal/middleware"
	"github.com/noah-isme/devscout-auth/internal/security"
	"github.com/noah-isme/devscout-auth/internal/server"
	"github.com/noah-isme/devscout-auth/internal/service"
	"github.com/noah-isme/devscout-auth/pkg/config"
	"github.com/noah-isme/devscout-auth/pkg/cookie"
	"github.com/noah-isme/devscout-auth/pkg/jobs"
	"github.com/noah-isme/devscout-auth/pkg/logger"
)

// @title DevScout Auth API
// @version 1.0.0
// @description Authentication and session lifecycle for DevScout
// @BasePath /api/auth
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer

	repos, err := openRepositories(rootCtx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open storage", zap.Error(err))
	}
	if repos.closer != nil {
		closers = append(closers, repos.closer)
	}

	sender, senderCloser, err := newSender(rootCtx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init reset code delivery", zap.Error(err))
	}
	if senderCloser != nil {
		closers = append(closers, senderCloser)
	}

	codec, err := security.NewTokenCodec(security.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessExpiration,
		RefreshTTL:    cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		logr.Fatal("invalid token configuration", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	hasher := security.NewPasswordHasher(cfg.Auth.PBKDF2Iterations)

	credentials := service.NewCredentialService(repos.users, hasher, service.AdminAccount{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
		Email:    cfg.Auth.AdminEmail,
	}, validate, logr)
	sessions := service.NewSessionService(repos.sessions, codec.RefreshTTL(), logr)
	auth := service.NewAuthService(credentials, codec, sessions, metrics, logr)

	worker := service.NewResetCodeWorker(sender, metrics, logr)
	queue := jobs.NewQueue("reset-codes", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Delivery.Workers,
		BufferSize: cfg.Delivery.BufferSize,
		MaxRetries: cfg.Delivery.MaxRetries,
		RetryDelay: cfg.Delivery.RetryDelay,
		OnGiveUp:   worker.GiveUp,
		Logger:     logr,
	})
	queue.Start(rootCtx)

	resets := service.NewPasswordResetService(repos.resets, repos.users, hasher, queue, metrics, validate, logr, service.PasswordResetConfig{
		CodeTTL:  cfg.Auth.ResetCodeTTL,
		EchoCode: cfg.EchoResetCode(),
	})

	cookies := cookie.NewManager(cookie.Config{
		Domain:     cfg.Cookie.Domain,
		Secure:     cfg.IsProduction(),
		AccessTTL:  codec.AccessTTL(),
		RefreshTTL: codec.RefreshTTL(),
	})
	gate := middleware.NewSessionGate(middleware.DefaultRouteTable(cfg.APIPrefix), auth, cookies, metrics, logr)

	router := server.NewRouter(cfg, logr, metrics, gate, server.Handlers{
		Auth:    handler.NewAuthHandler(auth, credentials, resets, cookies, logr),
		Profile: handler.NewProfileHandler(credentials),
		Admin:   handler.NewAdminHandler(auth),
		Metrics: handler.NewMetricsHandler(metrics, repos.pinger, logr),
	})
	httpServer := server.NewHTTPServer(cfg, logr, router)

	go func() {
		if err := httpServer.Start(); err != nil {
			logr.Error("http server failed", zap.Error(err))
			stop()
		}
	}()
	go sessions.RunSweeper(rootCtx, cfg.Auth.SessionSweepInterval)

	<-rootCtx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logr.Error("close failed", zap.Error(err))
		}
	}
	logr.Info("server exited cleanly")
}
