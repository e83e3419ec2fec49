package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Emmyblinks655/taskpay-rewards/internal/catalog"
	"github.com/Emmyblinks655/taskpay-rewards/internal/config"
	"github.com/Emmyblinks655/taskpay-rewards/internal/db"
	"github.com/Emmyblinks655/taskpay-rewards/internal/events"
	"github.com/Emmyblinks655/taskpay-rewards/internal/fulfillment"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/provider"
	"github.com/Emmyblinks655/taskpay-rewards/internal/server"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

// @title TaskPay Rewards API
// @version 1.0
// @description Order fulfillment and wallet ledger for VTU purchases.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting TaskPay Rewards")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Logging)

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	var rdb *redis.Client
	var feed *events.RedisFeed
	publishers := events.Multi{}
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		feed = events.NewRedisFeed(rdb, events.DefaultStreamKey)
		publishers = append(publishers, feed)
		logger.Info("Redis connected", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency keys and the event feed are disabled")
	}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publishers = append(publishers, rabbit)
		logger.Info("RabbitMQ publisher initialized", "exchange", cfg.EventsExchange)
	}
	var publisher events.Publisher = events.Noop{}
	if len(publishers) > 0 {
		publisher = publishers
	}
	defer publisher.Close()

	txm := db.NewTxManager(database)
	walletService := wallet.NewService(txm, wallet.NewRepository(database))
	catalogRepo := catalog.NewCachedRepository(catalog.NewRepository(database), cfg.Cache.MaxSize, cfg.Cache.TTL)
	defer catalogRepo.Close()
	orderRepo := order.NewRepository(database)
	providerRepo := provider.NewRepository(database)

	var keys *provider.KeyBox
	if cfg.Fulfillment.ProviderKeySecret != "" {
		keys, err = provider.NewKeyBox(cfg.Fulfillment.ProviderKeySecret)
		if err != nil {
			logger.Fatalf("Failed to initialize provider key box: %v", err)
		}
	}
	adapters := provider.NewAdapters()
	adapters.Register(provider.KindHTTP, provider.NewHTTPAdapter(cfg.Fulfillment.ProviderTimeout, keys))
	adapters.Register(provider.KindSimulated, provider.NewSimulatedAdapter(time.Now().UnixNano()))

	orchestrator := fulfillment.NewOrchestrator(fulfillment.Deps{
		Tx:        txm,
		Catalog:   catalogRepo,
		Wallet:    walletService,
		Orders:    orderRepo,
		Registry:  providerRepo,
		Logs:      providerRepo,
		Adapter:   adapters,
		Publisher: publisher,
	}, fulfillment.Config{
		MaxAttempts:       cfg.Fulfillment.MaxAttempts,
		ProviderTimeout:   cfg.Fulfillment.ProviderTimeout,
		CommissionPercent: cfg.Fulfillment.ReferralCommissionPercent,
	})

	srv := server.New(server.Deps{
		DB:           database,
		Redis:        rdb,
		Config:       cfg,
		Wallet:       walletService,
		Catalog:      catalogRepo,
		Orders:       orderRepo,
		Logs:         providerRepo,
		Orchestrator: orchestrator,
		Feed:         feed,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
