package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

// ObservationCache stores recent observations keyed by location.
type ObservationCache interface {
	GetObservation(ctx context.Context, key string) (*models.WeatherObservation, bool, error)
	SetObservation(ctx context.Context, key string, obs *models.WeatherObservation) error
}

func coordinateKey(lat, lon float64) string {
	return fmt.Sprintf("coord:%.2f:%.2f", lat, lon)
}

func cityKey(city string) string {
	return "city:" + strings.ToLower(strings.TrimSpace(city))
}

type CacheItem struct {
	Observation models.WeatherObservation
	ExpiresAt   time.Time
}

// WeatherCache is the in-process ObservationCache with TTL and size bound.
type WeatherCache struct {
	mu              sync.RWMutex
	items           map[string]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

func NewWeatherCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *WeatherCache {
	cache := &WeatherCache{
		items:           make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func (c *WeatherCache) SetObservation(_ context.Context, key string, obs *models.WeatherObservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := time.Now().Add(c.defaultDuration)
	c.items[key] = CacheItem{
		Observation: *obs,
		ExpiresAt:   expiresAt,
	}

	c.logger.Debug("Observation cached",
		zap.String("key", key),
		zap.Time("expires_at", expiresAt))
	return nil
}

func (c *WeatherCache) GetObservation(_ context.Context, key string) (*models.WeatherObservation, bool, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	now := time.Now()
	if now.After(item.ExpiresAt) {
		c.removeExpired(key, now)
		return nil, false, nil
	}

	obs := item.Observation
	return &obs, true, nil
}

// removeExpired deletes key only if the entry stored now is still expired,
// so a write that landed after the read survives.
func (c *WeatherCache) removeExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok && now.After(item.ExpiresAt) {
		delete(c.items, key)
	}
}

func (c *WeatherCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest observation from cache",
			zap.String("key", oldestKey))
	}
}

func (c *WeatherCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *WeatherCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *WeatherCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *WeatherCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"backend":          "memory",
		"items":            len(c.items),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
