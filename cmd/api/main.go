package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shippingcalc/internal/carrier"
	"shippingcalc/internal/config"
	"shippingcalc/internal/db"
	"shippingcalc/internal/logging"
	"shippingcalc/internal/rate"
	"shippingcalc/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var store carrier.Store
	switch cfg.CarrierStore {
	case "memory":
		store = carrier.NewMemoryStore()
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			logger.Fatal("failed to connect db", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			cancel()
			logger.Fatal("database ping failed", zap.Error(err))
		}
		if err := db.Migrate(ctx, pool); err != nil {
			cancel()
			logger.Fatal("database migration failed", zap.Error(err))
		}
		cancel()
		store = carrier.NewPGStore(pool)
	}

	sel := rate.NewSelector(cfg.Rates.Currency)
	sel.NoCarriers.PriceCents = cfg.Rates.NoCarriersCents
	sel.Infeasible.PriceCents = cfg.Rates.InfeasibleCents
	errFallback := rate.ErrorFallback
	errFallback.PriceCents = cfg.Rates.ErrorCents

	strategy := rate.StrategyByName(cfg.Rates.SplitStrategy)
	mode := rate.ModeByName(cfg.Rates.Mode)

	calc := rate.NewCalculator(sel, strategy)
	calc.MaxUnits = cfg.Rates.MaxCartUnits

	h := server.New(server.Options{
		Store:            store,
		Calculator:       calc,
		Mode:             mode,
		Normalizer:       server.NewNormalizer(cfg.Rates.CountryCodes, cfg.Rates.DefaultCountry),
		ErrorFallback:    errFallback,
		ShopifyAPISecret: cfg.ShopifyAPISecret,
		Logger:           logger,
		Environment:      cfg.Environment,
		Version:          cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("carrier_store", cfg.CarrierStore),
			zap.Stringer("rate_mode", mode),
			zap.Stringer("split_strategy", strategy),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
