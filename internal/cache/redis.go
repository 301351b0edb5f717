package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

const (
	defaultObservationTTL = 10 * time.Minute
	defaultOutfitTTL      = 10 * time.Minute
)

// Cache keeps observations and composed outfits in Redis so every server
// instance shares them.
type Cache struct {
	client         *redis.Client
	observationTTL time.Duration
	outfitTTL      time.Duration
}

// NewCache falls back to the default TTL when observationTTL is not
// positive; Redis would keep a zero-TTL key forever.
func NewCache(client *redis.Client, observationTTL time.Duration) *Cache {
	if observationTTL <= 0 {
		observationTTL = defaultObservationTTL
	}
	return &Cache{
		client:         client,
		observationTTL: observationTTL,
		outfitTTL:      defaultOutfitTTL,
	}
}

func observationKey(key string) string {
	return "weather:" + key
}

func outfitKey(userID int64, key string) string {
	return fmt.Sprintf("outfit:user:%d:%s", userID, key)
}

func (c *Cache) GetObservation(ctx context.Context, key string) (*models.WeatherObservation, bool, error) {
	var obs models.WeatherObservation
	ok, err := c.get(ctx, observationKey(key), &obs)
	if err != nil || !ok {
		return nil, false, err
	}
	return &obs, true, nil
}

func (c *Cache) SetObservation(ctx context.Context, key string, obs *models.WeatherObservation) error {
	return c.set(ctx, observationKey(key), obs, c.observationTTL)
}

func (c *Cache) GetOutfit(ctx context.Context, userID int64, key string) (*models.Outfit, bool, error) {
	var outfit models.Outfit
	ok, err := c.get(ctx, outfitKey(userID, key), &outfit)
	if err != nil || !ok {
		return nil, false, err
	}
	return &outfit, true, nil
}

func (c *Cache) SetOutfit(ctx context.Context, userID int64, key string, outfit models.Outfit) error {
	return c.set(ctx, outfitKey(userID, key), outfit, c.outfitTTL)
}

// ClearUserOutfits drops every cached outfit for the user. Called whenever
// the user's wardrobe or wear history changes.
func (c *Cache) ClearUserOutfits(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("outfit:user:%d:*", userID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"backend":         "redis",
		"observation_ttl": c.observationTTL.String(),
		"outfit_ttl":      c.outfitTTL.String(),
	}
}

func (c *Cache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}
