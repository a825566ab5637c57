package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ShoaibAJ01/zameerrealstates/internal/auth"
	"github.com/ShoaibAJ01/zameerrealstates/internal/config"
	"github.com/ShoaibAJ01/zameerrealstates/internal/events"
	"github.com/ShoaibAJ01/zameerrealstates/internal/handlers"
	"github.com/ShoaibAJ01/zameerrealstates/internal/logger"
	"github.com/ShoaibAJ01/zameerrealstates/internal/metrics"
	"github.com/ShoaibAJ01/zameerrealstates/internal/middleware"
	"github.com/ShoaibAJ01/zameerrealstates/internal/presence"
	"github.com/ShoaibAJ01/zameerrealstates/internal/repository"
	"github.com/ShoaibAJ01/zameerrealstates/internal/service"
	"github.com/ShoaibAJ01/zameerrealstates/internal/ws"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	tokens, err := auth.NewValidator(cfg.JWT.Algorithm, cfg.JWT.HSSecret, cfg.JWT.PublicKeyPath)
	if err != nil {
		zl.Fatalw("jwt validator init", "err", err)
	}

	var store repository.Store
	var mongoStore *repository.MongoStore
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
		mongoStore, err = repository.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			zl.Fatalw("mongo init", "err", err)
		}
		store = mongoStore
	} else {
		zl.Warn("no mongo uri configured, using in-memory store")
		store = repository.NewMemoryStore()
	}

	var mirror ws.PresenceMirror
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		mirror = presence.New(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)
	}

	var producer service.Publisher
	var kafkaProducer *events.Producer
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "" {
		kafkaProducer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		producer = kafkaProducer
	}

	svc := service.NewChatService(store, producer, zl)
	hub := ws.NewHub(mirror, zl)
	notifier := ws.NewNotifier(hub)
	gateway := ws.NewGateway(hub, notifier, svc, tokens, ws.Options{
		PingInterval:    cfg.PingInterval,
		WriteDeadline:   cfg.WriteDeadline,
		MaxMessageSize:  cfg.WS.MaxMessageSizeBytes,
		RateLimitPerSec: cfg.WS.RateLimitPerSec,
	}, zl)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	h := handlers.NewChatHandler(svc, hub, notifier, zl)
	handlers.Register(app, h, gateway, middleware.JWTAuth(tokens))

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			zl.Infow("metrics listening", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				zl.Errorw("metrics server", "err", err)
			}
		}()
	}

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.Port
		zl.Infow("chat service listening", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zl.Fatalw("server error", "err", err)
	case s := <-sig:
		zl.Infow("signal received", "signal", s.String())
	}

	if err := app.Shutdown(); err != nil {
		zl.Errorw("fiber shutdown", "err", err)
	}
	if kafkaProducer != nil {
		_ = kafkaProducer.Close()
	}
	if mongoStore != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = mongoStore.Disconnect(ctx)
		cancel()
	}
	zl.Info("shut down")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
