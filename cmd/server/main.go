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
	"go.uber.org/zap/zapcore"

	"github.com/catalogrecon/backend/config"
	httpDelivery "github.com/catalogrecon/backend/internal/delivery/http"
	"github.com/catalogrecon/backend/internal/domain"
	"github.com/catalogrecon/backend/internal/infrastructure/cache"
	"github.com/catalogrecon/backend/internal/infrastructure/distributor"
	"github.com/catalogrecon/backend/internal/infrastructure/postgres"
	"github.com/catalogrecon/backend/internal/infrastructure/upstream"
	"github.com/catalogrecon/backend/internal/infrastructure/wordpress"
	"github.com/catalogrecon/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting CatalogRecon backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshotCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer closeCache()

	// Storefront catalog
	wpClient := wordpress.NewClient(upstream.Config{
		BaseURL:           cfg.WordPress.GraphQLURL,
		AuthToken:         cfg.WordPress.AuthToken,
		RequestsPerSecond: cfg.WordPress.RequestsPerSecond,
		Burst:             cfg.WordPress.Burst,
		Timeout:           cfg.WordPress.Timeout,
	}, logger)
	if cfg.WordPress.Debug || cfg.Server.Environment == "development" {
		wpClient.SetDebug(true)
		logger.Debug("WordPress client debug mode enabled")
	}

	slugIndex := usecase.NewSlugIndex(wpClient, usecase.SlugIndexConfig{
		TTL:      cfg.Matching.SlugTTL,
		PageSize: cfg.WordPress.PageSize,
		MaxPages: cfg.WordPress.MaxPages,
	}, logger)

	matcher := usecase.NewSlugMatcher(slugIndex, usecase.MatchConfig{
		SegmentWeight:      cfg.Matching.SegmentWeight,
		CharWeight:         cfg.Matching.CharWeight,
		RelevanceFloor:     cfg.Matching.RelevanceFloor,
		DefaultLimit:       cfg.Matching.DefaultLimit,
		EnableDebugLogging: cfg.Matching.Debug,
	}, logger)

	catalog := usecase.NewCatalogService(snapshotCache, wpClient, usecase.CatalogServiceConfig{
		CacheTTL:           cfg.Cache.TTL,
		PageSize:           cfg.WordPress.PageSize,
		MaxPages:           cfg.WordPress.MaxPages,
		MinSKUPrefixLength: cfg.Variations.MinSKUPrefix,
	}, logger)

	logger.Info("Matching configured",
		zap.Float64("segment_weight", cfg.Matching.SegmentWeight),
		zap.Float64("char_weight", cfg.Matching.CharWeight),
		zap.Float64("relevance_floor", cfg.Matching.RelevanceFloor),
		zap.Duration("slug_ttl", cfg.Matching.SlugTTL),
	)

	// Stock sync needs both the distributor feed and the stock cache database
	var stockSync httpDelivery.StockSyncer
	if cfg.StockSyncEnabled() {
		db, err := postgres.NewConnection(cfg.Database.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		feed := distributor.NewClient(upstream.Config{
			BaseURL:           cfg.Distributor.BaseURL,
			AuthToken:         cfg.Distributor.APIKey,
			RequestsPerSecond: cfg.Distributor.RequestsPerSecond,
			Burst:             cfg.Distributor.Burst,
			Timeout:           cfg.Distributor.Timeout,
		}, logger)

		syncService := usecase.NewStockSyncService(catalog, feed, postgres.NewStockRepo(db), usecase.StockSyncConfig{
			PageSize:          cfg.Distributor.PageSize,
			MaxPages:          cfg.Distributor.MaxPages,
			LowStockThreshold: cfg.Stock.LowThreshold,
		}, logger)
		stockSync = syncService

		if cfg.Stock.SyncInterval > 0 {
			go syncService.RunLoop(ctx, cfg.Stock.SyncInterval)
			logger.Info("Stock sync loop started", zap.Duration("interval", cfg.Stock.SyncInterval))
		}
	} else {
		logger.Warn("Stock sync disabled: distributor base URL or database DSN not set")
	}

	handler := httpDelivery.NewHandler(matcher, slugIndex, catalog, stockSync, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newLogger builds a production logger in production and a development logger otherwise
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Server.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stdout"}

	return zcfg.Build()
}

// newCache selects the snapshot cache backend and returns its close function
func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return redisCache, func() { redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache()
	return memoryCache, func() { memoryCache.Close() }, nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
