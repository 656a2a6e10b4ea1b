package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/application"
	"github.com/SARVESHVARADKAR123/chatbox/internal/auth"
	"github.com/SARVESHVARADKAR123/chatbox/internal/cache"
	"github.com/SARVESHVARADKAR123/chatbox/internal/config"
	"github.com/SARVESHVARADKAR123/chatbox/internal/eventing"
	"github.com/SARVESHVARADKAR123/chatbox/internal/kafka"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
	"github.com/SARVESHVARADKAR123/chatbox/internal/outbox"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository/memory"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository/postgres"
	grpc_transport "github.com/SARVESHVARADKAR123/chatbox/internal/transport/grpc"
	"github.com/SARVESHVARADKAR123/chatbox/internal/tx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("chatbox", "info")
		observability.Log.Fatal("failed to load config", zap.Error(err))
	}

	// Observability
	observability.InitLogger(cfg.ServiceName, cfg.LogLevel)
	log := observability.Log
	defer func() { _ = log.Sync() }()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	// Redis serves the conversation cache and the broadcast channel.
	var cacheClient *cache.Cache
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr)
		defer cacheClient.Close()
	}

	// Storage
	var (
		repo       repository.Repository
		transactor tx.Transactor
		pinger     observability.Pinger
		db         *sql.DB
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		store := memory.New()
		repo, transactor, pinger = store, store, store
		log.Warn("using in-memory storage; data is lost on restart")
	default:
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close()

		repo = &postgres.Repository{
			DB:         db,
			Cache:      cacheClient,
			UsersTable: cfg.UsersTable,
		}
		transactor = &tx.Manager{DB: db}
		pinger = db
	}

	// Cancellable context for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event dispatch
	var dispatchers eventing.Multi
	var producer *kafka.Producer
	if cfg.BroadcastEnabled {
		if cfg.UsesRedisBroadcast() {
			dispatchers = append(dispatchers, eventing.NewRedisBroadcaster(cacheClient.Client))
		}
		if cfg.UsesOutbox() {
			dispatchers = append(dispatchers, eventing.NewOutboxDispatcher(repo))

			if cfg.KafkaBrokers != "" {
				producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
				if err != nil {
					log.Fatal("kafka producer failed", zap.Error(err))
				}
				defer producer.Close()

				worker := &outbox.Worker{
					DB:         db,
					Producer:   producer,
					BatchSize:  cfg.OutboxBatchSize,
					PollDelay:  cfg.OutboxPollDelay,
					MaxRetries: cfg.OutboxMaxRetries,
				}
				go worker.Start(ctx)
			} else {
				log.Warn("KAFKA_BROKERS not set; outbox events are stored but not relayed")
			}
		}
	}

	var dispatcher eventing.Dispatcher = dispatchers
	if len(dispatchers) == 1 {
		dispatcher = dispatchers[0]
	}

	app, err := application.New(repo, transactor, dispatcher, application.Options{
		AutoPromotePublic: cfg.AutoPromotePublic,
		BroadcastEnabled:  cfg.BroadcastEnabled,
		UsersTable:        cfg.UsersTable,
	})
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}

	// HTTP Server for Observability (Metrics & Health)
	obs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           observability.NewRouter(cfg.ServiceName, pinger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("HTTP observability server started", zap.String("addr", cfg.HTTPAddr))
		if err := obs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP observability server failed", zap.Error(err))
		}
	}()

	// gRPC Server
	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = &auth.Verifier{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}
	}
	server := grpc_transport.New(app, verifier)
	go func() {
		if err := server.Start(cfg.GRPCAddr); err != nil {
			log.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	// Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down...")
	cancel()

	server.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP observability shutdown failed", zap.Error(err))
	}
	if producer != nil {
		producer.Flush(5000)
	}

	log.Info("shutdown complete")
}
