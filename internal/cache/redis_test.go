package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "weather:city:seoul", observationKey("city:seoul"))
	require.Equal(t, "outfit:user:42:open-meteo:61:8", outfitKey(42, "open-meteo:61:8"))
}

func TestNewCacheClampsNonPositiveTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	require.Equal(t, defaultObservationTTL, NewCache(client, 0).observationTTL)
	require.Equal(t, defaultObservationTTL, NewCache(client, -time.Second).observationTTL)
	require.Equal(t, 2*time.Minute, NewCache(client, 2*time.Minute).observationTTL)
}

// newTestCache connects to REDIS_URL and skips when it is unset.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	c := NewCache(client, time.Minute)
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestObservationRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetObservation(ctx, "coord:test:missing")
	require.NoError(t, err)
	require.False(t, ok)

	obs := &models.WeatherObservation{TemperatureCelsius: 8, ConditionCode: 61, Source: models.SourceOpenMeteo}
	require.NoError(t, c.SetObservation(ctx, "coord:test:1", obs))

	got, ok, err := c.GetObservation(ctx, "coord:test:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 8, got.TemperatureCelsius)
	require.Equal(t, 61, got.ConditionCode)
}

func TestClearUserOutfits(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()

	outfit := models.Outfit{UserID: userID, Source: models.SourceRuleBased}
	require.NoError(t, c.SetOutfit(ctx, userID, "a", outfit))
	require.NoError(t, c.SetOutfit(ctx, userID, "b", outfit))
	require.NoError(t, c.SetOutfit(ctx, userID+1, "a", outfit))

	require.NoError(t, c.ClearUserOutfits(ctx, userID))

	_, ok, err := c.GetOutfit(ctx, userID, "a")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = c.GetOutfit(ctx, userID+1, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.ClearUserOutfits(ctx, userID+1))
}
