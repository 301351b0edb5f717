package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/recommender"
	"github.com/bobby-s-dev/wardrobe-advisor/pkg/client"
)

var (
	// ErrWeatherUnavailable means every provider failed or timed out.
	ErrWeatherUnavailable = errors.New("weather unavailable")
	// ErrLocationNotFound means the city name could not be resolved.
	ErrLocationNotFound = client.ErrLocationNotFound
)

// WeatherProvider fetches the current observation for a coordinate pair.
type WeatherProvider interface {
	Name() string
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error)
}

// CityProvider is implemented by providers that resolve cities themselves.
type CityProvider interface {
	CurrentByCity(ctx context.Context, city string) (*models.WeatherObservation, error)
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Search(ctx context.Context, name string) (*models.Location, error)
}

// WeatherService serves current observations from an ordered list of
// providers, trying each in turn until one answers.
type WeatherService struct {
	providers     []WeatherProvider
	geocoder      Geocoder
	cache         ObservationCache
	timeout       time.Duration
	logger        *zap.Logger
	mu            sync.RWMutex
	lastFetchTime time.Time
	successCount  int
	failureCount  int
	cacheHits     int
}

func NewWeatherService(providers []WeatherProvider, geocoder Geocoder, cache ObservationCache, timeout time.Duration, logger *zap.Logger) (*WeatherService, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no weather providers configured")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WeatherService{
		providers: providers,
		geocoder:  geocoder,
		cache:     cache,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

func (s *WeatherService) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	key := coordinateKey(lat, lon)
	if obs, ok := s.fromCache(ctx, key); ok {
		return obs, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs, err := s.fetchCoordinates(fetchCtx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, obs)
	return obs, nil
}

func (s *WeatherService) CurrentByCity(ctx context.Context, city string) (*models.WeatherObservation, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: empty city name", ErrLocationNotFound)
	}

	key := cityKey(city)
	if obs, ok := s.fromCache(ctx, key); ok {
		return obs, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs, err := s.fetchCity(fetchCtx, city)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, obs)
	return obs, nil
}

// WarmUp refreshes the cached observation for each city concurrently.
func (s *WeatherService) WarmUp(ctx context.Context, cities []string) error {
	s.mu.Lock()
	s.lastFetchTime = time.Now()
	s.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, len(cities))
	startTime := time.Now()

	for _, city := range cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			obs, err := s.fetchCity(fetchCtx, city)
			if err != nil {
				s.logger.Error("Failed to warm weather for city",
					zap.String("city", city),
					zap.Error(err))
				errs <- err
				return
			}
			s.store(ctx, cityKey(city), obs)
		}(city)
	}

	wg.Wait()
	close(errs)

	failed := len(errs)
	s.logger.Info("Weather warm-up completed",
		zap.Int("cities", len(cities)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(startTime)))

	if failed > 0 {
		return fmt.Errorf("%d of %d cities failed to refresh", failed, len(cities))
	}
	return nil
}

func (s *WeatherService) fetchCity(ctx context.Context, city string) (*models.WeatherObservation, error) {
	if s.geocoder != nil {
		loc, err := s.geocoder.Search(ctx, city)
		if err == nil {
			obs, err := s.fetchCoordinates(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				return nil, err
			}
			obs.City = loc.Name
			return obs, nil
		}
		if errors.Is(err, ErrLocationNotFound) {
			return nil, err
		}
		s.logger.Warn("Geocoding failed, trying providers with city lookup",
			zap.String("city", city),
			zap.Error(err))
	}

	var lastErr error
	for _, p := range s.providers {
		cp, ok := p.(CityProvider)
		if !ok {
			continue
		}
		obs, err := cp.CurrentByCity(ctx, city)
		if err == nil {
			s.recordSuccess()
			return s.complete(obs), nil
		}
		if errors.Is(err, ErrLocationNotFound) {
			return nil, err
		}
		s.logger.Warn("Failed to fetch current weather from source",
			zap.String("source", p.Name()),
			zap.String("city", city),
			zap.Error(err))
		lastErr = err
	}

	s.recordFailure()
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider can resolve %q", city)
	}
	return nil, fmt.Errorf("%w: %w", ErrWeatherUnavailable, lastErr)
}

func (s *WeatherService) fetchCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	var lastErr error
	for _, p := range s.providers {
		obs, err := p.CurrentByCoordinates(ctx, lat, lon)
		if err == nil {
			s.recordSuccess()
			return s.complete(obs), nil
		}
		s.logger.Warn("Failed to fetch current weather from source",
			zap.String("source", p.Name()),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		lastErr = err
	}

	s.recordFailure()
	return nil, fmt.Errorf("%w: %w", ErrWeatherUnavailable, lastErr)
}

// complete fills display fields that a WMO-coded source leaves empty.
func (s *WeatherService) complete(obs *models.WeatherObservation) *models.WeatherObservation {
	if obs.Source != models.SourceOpenWeather && obs.Description == "" {
		obs.Summary, obs.Description, obs.Icon = recommender.DescribeWMO(obs.ConditionCode, obs.IsDaytime)
	}
	return obs
}

func (s *WeatherService) fromCache(ctx context.Context, key string) (*models.WeatherObservation, bool) {
	if s.cache == nil {
		return nil, false
	}
	obs, ok, err := s.cache.GetObservation(ctx, key)
	if err != nil {
		s.logger.Warn("Observation cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if ok {
		s.mu.Lock()
		s.cacheHits++
		s.mu.Unlock()
		s.logger.Debug("Cache hit for current weather", zap.String("key", key))
	}
	return obs, ok
}

func (s *WeatherService) store(ctx context.Context, key string, obs *models.WeatherObservation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetObservation(ctx, key, obs); err != nil {
		s.logger.Warn("Observation cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *WeatherService) recordSuccess() {
	s.mu.Lock()
	s.successCount++
	s.mu.Unlock()
}

func (s *WeatherService) recordFailure() {
	s.mu.Lock()
	s.failureCount++
	s.mu.Unlock()
}

func (s *WeatherService) GetLastFetchTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchTime
}

func (s *WeatherService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}

	stats := map[string]interface{}{
		"last_fetch_time": s.lastFetchTime,
		"success_count":   s.successCount,
		"failure_count":   s.failureCount,
		"cache_hits":      s.cacheHits,
		"providers":       names,
	}
	if sc, ok := s.cache.(interface{ GetStats() map[string]interface{} }); ok {
		stats["cache_stats"] = sc.GetStats()
	}
	return stats
}
