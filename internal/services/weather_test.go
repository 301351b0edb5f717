package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

type stubProvider struct {
	name   string
	obs    *models.WeatherObservation
	err    error
	cities map[string]*models.WeatherObservation
	delay  time.Duration

	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	obs := *p.obs
	obs.Latitude, obs.Longitude = lat, lon
	return &obs, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubCityProvider struct {
	stubProvider
}

func (p *stubCityProvider) CurrentByCity(_ context.Context, city string) (*models.WeatherObservation, error) {
	if obs, ok := p.cities[city]; ok {
		cp := *obs
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, city)
}

type stubGeocoder struct {
	locations map[string]models.Location
	err       error
}

func (g *stubGeocoder) Search(_ context.Context, name string) (*models.Location, error) {
	if g.err != nil {
		return nil, g.err
	}
	loc, ok := g.locations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
	}
	return &loc, nil
}

func rainyObservation() *models.WeatherObservation {
	return &models.WeatherObservation{
		TemperatureCelsius: 8,
		FeelsLikeCelsius:   8,
		ConditionCode:      61,
		IsDaytime:          true,
		Source:             models.SourceOpenMeteo,
	}
}

func newTestWeatherService(t *testing.T, geocoder Geocoder, providers ...WeatherProvider) (*WeatherService, *WeatherCache) {
	t.Helper()
	cache := NewWeatherCache(time.Minute, 10, zap.NewNop())
	t.Cleanup(cache.Stop)
	svc, err := NewWeatherService(providers, geocoder, cache, time.Second, zap.NewNop())
	require.NoError(t, err)
	return svc, cache
}

func TestWeatherServiceFillsDescriptionAndCaches(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, obs: rainyObservation()}
	svc, _ := newTestWeatherService(t, nil, primary)
	ctx := context.Background()

	obs, err := svc.CurrentByCoordinates(ctx, 37.5665, 126.978)
	require.NoError(t, err)
	require.Equal(t, 8, obs.TemperatureCelsius)
	require.NotEmpty(t, obs.Description)
	require.NotEmpty(t, obs.Icon)

	_, err = svc.CurrentByCoordinates(ctx, 37.5665, 126.978)
	require.NoError(t, err)
	require.Equal(t, 1, primary.callCount())
	require.Equal(t, 1, svc.GetStats()["cache_hits"])
}

func TestWeatherServiceFailsOver(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, err: errors.New("HTTP 503")}
	fallbackObs := rainyObservation()
	fallbackObs.Source = models.SourceOpenWeather
	fallbackObs.ConditionCode = 500
	fallbackObs.Description = "light rain"
	fallback := &stubProvider{name: models.SourceOpenWeather, obs: fallbackObs}
	svc, _ := newTestWeatherService(t, nil, primary, fallback)

	obs, err := svc.CurrentByCoordinates(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, models.SourceOpenWeather, obs.Source)
	require.Equal(t, "light rain", obs.Description)
	require.Equal(t, 1, primary.callCount())
	require.Equal(t, 1, fallback.callCount())
}

func TestWeatherServiceUnavailable(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, err: errors.New("HTTP 503")}
	svc, _ := newTestWeatherService(t, nil, primary)

	_, err := svc.CurrentByCoordinates(context.Background(), 1, 2)
	require.True(t, errors.Is(err, ErrWeatherUnavailable))
	require.Equal(t, 1, svc.GetStats()["failure_count"])
}

func TestWeatherServiceTimeout(t *testing.T) {
	slow := &stubProvider{name: models.SourceOpenMeteo, obs: rainyObservation(), delay: time.Minute}
	cache := NewWeatherCache(time.Minute, 10, zap.NewNop())
	defer cache.Stop()
	svc, err := NewWeatherService([]WeatherProvider{slow}, nil, cache, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.CurrentByCoordinates(context.Background(), 1, 2)
	require.True(t, errors.Is(err, ErrWeatherUnavailable))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestWeatherServiceCityViaGeocoder(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, obs: rainyObservation()}
	geocoder := &stubGeocoder{locations: map[string]models.Location{
		"Seoul": {Name: "Seoul", Country: "South Korea", Latitude: 37.566, Longitude: 126.978},
	}}
	svc, _ := newTestWeatherService(t, geocoder, primary)

	obs, err := svc.CurrentByCity(context.Background(), "Seoul")
	require.NoError(t, err)
	require.Equal(t, "Seoul", obs.City)
	require.Equal(t, 37.566, obs.Latitude)

	_, err = svc.CurrentByCity(context.Background(), "Atlantis")
	require.True(t, errors.Is(err, ErrLocationNotFound))
	require.False(t, errors.Is(err, ErrWeatherUnavailable))

	_, err = svc.CurrentByCity(context.Background(), "  ")
	require.True(t, errors.Is(err, ErrLocationNotFound))
}

func TestWeatherServiceCityFallsBackWhenGeocodingIsDown(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, obs: rainyObservation()}
	londonObs := rainyObservation()
	londonObs.Source = models.SourceOpenWeather
	londonObs.ConditionCode = 771
	londonObs.City = "London"
	fallback := &stubCityProvider{stubProvider{
		name:   models.SourceOpenWeather,
		obs:    londonObs,
		cities: map[string]*models.WeatherObservation{"London": londonObs},
	}}
	geocoder := &stubGeocoder{err: errors.New("HTTP 502")}
	svc, _ := newTestWeatherService(t, geocoder, primary, fallback)

	obs, err := svc.CurrentByCity(context.Background(), "London")
	require.NoError(t, err)
	require.Equal(t, 771, obs.ConditionCode)
	require.Equal(t, 0, primary.callCount())
}

func TestWeatherServiceWarmUp(t *testing.T) {
	primary := &stubProvider{name: models.SourceOpenMeteo, obs: rainyObservation()}
	geocoder := &stubGeocoder{locations: map[string]models.Location{
		"Seoul":  {Name: "Seoul", Latitude: 37.566, Longitude: 126.978},
		"London": {Name: "London", Latitude: 51.5, Longitude: -0.12},
	}}
	svc, cache := newTestWeatherService(t, geocoder, primary)
	ctx := context.Background()

	require.NoError(t, svc.WarmUp(ctx, []string{"Seoul", "London"}))
	require.False(t, svc.GetLastFetchTime().IsZero())

	_, ok, err := cache.GetObservation(ctx, cityKey("seoul"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.CurrentByCity(ctx, "London")
	require.NoError(t, err)
	require.Equal(t, 2, primary.callCount())

	require.Error(t, svc.WarmUp(ctx, []string{"Atlantis"}))
}

func TestNewWeatherServiceRequiresProvider(t *testing.T) {
	_, err := NewWeatherService(nil, nil, nil, 0, zap.NewNop())
	require.Error(t, err)
}
