// cmd/api/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/api/middleware"
	"logiledger-api-server/internal/api/routes"
	"logiledger-api-server/internal/database"
	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/s3"
	"logiledger-api-server/internal/service"
	"logiledger-api-server/internal/socket"
	"logiledger-api-server/internal/store"
	"logiledger-api-server/internal/store/memstore"
	"logiledger-api-server/internal/store/mongostore"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	hub := socket.NewHub()
	publishers := events.Fanout{events.HubPublisher{Hub: hub}}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		logrus.WithField("exchange", cfg.RabbitMQ.Exchange).Info("Publishing domain events to RabbitMQ")
	}

	var files service.FileStore
	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("init s3 uploader: %w", err)
		}
		files = uploader
		logrus.WithField("bucket", cfg.S3.Bucket).Info("Invoice files stored in S3")
	}

	var limiter middleware.Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		logrus.WithFields(logrus.Fields{"requests": cfg.RateLimit.Requests, "window": cfg.RateLimit.Window}).Info("Rate limiting enabled")
	}

	svcs := service.New(service.Options{
		Store:           st,
		Events:          publishers,
		RadiusKm:        cfg.Matching.RadiusKm,
		PartnerRadiusKm: cfg.Matching.PartnerRadiusKm,
	}, service.AccountConfig{
		JWTSecret:     cfg.JWT.Secret,
		JWTExpiration: cfg.JWT.Expiration,
	}, files)

	router, err := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		Services: svcs,
		Hub:      hub,
		Limiter:  limiter,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Starting API server on port %s", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore builds the configured backend. There is no fallback between drivers.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logrus.Warn("Using in-memory storage; data is lost on restart")
		return memstore.New(), nil
	case config.StorageMongo, "":
		db, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		logrus.WithField("database", cfg.Mongo.DBName).Info("Connected to MongoDB")
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func closeStore(st store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to close store")
	}
}
