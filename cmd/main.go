package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"pohrebni-vence.cz/storefront/internal/router"
	"pohrebni-vence.cz/storefront/pkg/auth"
	"pohrebni-vence.cz/storefront/pkg/cart"
	"pohrebni-vence.cz/storefront/pkg/checkout"
	"pohrebni-vence.cz/storefront/pkg/delivery"
	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/logging"
	"pohrebni-vence.cz/storefront/pkg/metrics"
	"pohrebni-vence.cz/storefront/pkg/mongo"
	"pohrebni-vence.cz/storefront/pkg/postgres"
	"pohrebni-vence.cz/storefront/pkg/redis"
	"pohrebni-vence.cz/storefront/pkg/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || os.Getenv("ENV") == "production" {
			log.Printf("Error loading .env file: %v", err)
		}
	}

	cfg, err := global.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, FilePath: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *global.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	cacheStore, err := redis.NewStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheStore.Close()

	calendar, err := delivery.NewCalendar(cfg.DeliveryCutoffHour)
	if err != nil {
		return fmt.Errorf("delivery calendar: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	cache := cart.NewCache(cacheStore, logger, m)
	carts := cart.NewService(repo, repo, cache, logger)

	engine := router.NewEngine(router.Deps{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Store:    repo,
		Cache:    cacheStore,
		Carts:    carts,
		Checkout: checkout.NewService(repo, cache, calendar, logger),
		Calendar: calendar,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *global.Config, logger *slog.Logger) (store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case global.StorePostgres:
		s, err := postgres.Connect(connectCtx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	case global.StoreMongo:
		s, err := mongo.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return s, nil
	default:
		if cfg.IsProduction() {
			logger.Warn("no database configured, carts are kept in memory")
		}
		return store.NewMemoryStore(), nil
	}
}
