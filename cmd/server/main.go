package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/api"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/cache"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/config"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/scheduler"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/services"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/storage"
	"github.com/bobby-s-dev/wardrobe-advisor/pkg/client"
)

func main() {
	zapConfig := zap.NewProductionConfig()
	logger, _ := zapConfig.Build()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Wardrobe Advisor Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := zapConfig.Level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		logger.Warn("Invalid log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	}

	categories, err := config.LoadCategories(cfg.Wardrobe.CategoriesFile)
	if err != nil {
		logger.Fatal("Failed to load category model", zap.Error(err))
	}

	ctx := context.Background()

	store, closeStore := provideStore(ctx, cfg, categories, logger)
	defer closeStore()

	observationCache, outfitCache, closeCache := provideCaches(ctx, cfg, logger)
	defer closeCache()

	clientConfig := client.ClientConfig{
		Timeout:        cfg.WeatherAPI.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	openMeteo := client.NewOpenMeteoClient(cfg.WeatherAPI.OpenMeteoURL, cfg.WeatherAPI.GeocodingURL, clientConfig, logger)
	providers := []services.WeatherProvider{openMeteo}
	logger.Info("Open-Meteo client initialized")

	if cfg.WeatherAPI.OpenWeatherAPIKey != "" {
		providers = append(providers, client.NewOpenWeatherClient(
			cfg.WeatherAPI.OpenWeatherAPIKey,
			cfg.WeatherAPI.OpenWeatherURL,
			clientConfig,
			logger,
		))
		logger.Info("OpenWeatherMap fallback client initialized")
	}

	weatherService, err := services.NewWeatherService(providers, openMeteo, observationCache, cfg.WeatherAPI.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize weather service", zap.Error(err))
	}
	wardrobeService := services.NewWardrobeService(store, weatherService, outfitCache, logger)

	var status api.StatusReporter
	var warmUp *scheduler.Scheduler
	if cfg.Scheduler.Spec != "" && len(cfg.Scheduler.DefaultCities) > 0 {
		warmUp = scheduler.NewScheduler(weatherService, cfg.Scheduler.DefaultCities, cfg.Scheduler.Spec, logger)
		if err := warmUp.Start(); err != nil {
			logger.Error("Failed to start scheduler", zap.Error(err))
			warmUp = nil
		} else {
			status = warmUp
		}
	}

	app := newApp(cfg, logger)

	handler := api.NewHandler(weatherService, wardrobeService, status, logger)
	api.SetupRoutes(app, handler, logger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if warmUp != nil {
		warmUp.Stop()
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newApp(cfg *config.Config, logger *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: api.NewErrorHandler(logger),
	})
}

// provideStore connects to Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func provideStore(ctx context.Context, cfg *config.Config, categories []models.ClothCategory, logger *zap.Logger) (services.WardrobeStore, func()) {
	fallback := func() (services.WardrobeStore, func()) {
		return storage.NewMemoryStore(categories), func() {}
	}
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL not set, using memory store")
		return fallback()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Invalid database URL", zap.Error(err))
	}
	if cfg.Database.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.Database.PoolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Fatal("Database ping failed", zap.Error(err))
	}

	pg := storage.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		logger.Fatal("Database migration failed", zap.Error(err))
	}
	if err := pg.SeedCategories(ctx, categories); err != nil {
		pool.Close()
		logger.Fatal("Failed to seed categories", zap.Error(err))
	}

	logger.Info("Postgres store enabled", zap.Int32("max_conns", poolConfig.MaxConns))
	return pg, pool.Close
}

// provideCaches uses Redis for observations and outfits when REDIS_URL is
// set. Without it observations live in process and outfits are not cached.
func provideCaches(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.ObservationCache, services.OutfitCache, func()) {
	memory := func() (services.ObservationCache, services.OutfitCache, func()) {
		c := services.NewWeatherCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
		return c, nil, c.Stop
	}
	if cfg.Redis.URL == "" {
		logger.Info("REDIS_URL not set, using in-process observation cache")
		return memory()
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL, using in-process cache", zap.Error(err))
		return memory()
	}
	rdb := redis.NewClient(opt)
	shared := cache.NewCache(rdb, cfg.Cache.Duration)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shared.Ping(pingCtx); err != nil {
		rdb.Close()
		logger.Error("Redis ping failed, using in-process cache", zap.Error(err))
		return memory()
	}

	logger.Info("Redis cache enabled")
	return shared, shared, func() { rdb.Close() }
}
