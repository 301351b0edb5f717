package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

type OpenMeteoClient struct {
	*BaseClient
	baseURL      string
	geocodingURL string
	language     string
}

type OpenMeteoCurrentResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	CurrentWeather   *struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		IsDay       int     `json:"is_day"`
	} `json:"current_weather"`
}

type GeocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

func NewOpenMeteoClient(baseURL, geocodingURL string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	return &OpenMeteoClient{
		BaseClient:   NewBaseClient(models.SourceOpenMeteo, config, logger),
		baseURL:      baseURL,
		geocodingURL: geocodingURL,
		language:     "en",
	}
}

// CurrentByCoordinates returns the observation without description or icon;
// those are derived from the WMO code by the caller.
func (c *OpenMeteoClient) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current_weather", "true")
	q.Set("timezone", "auto")

	var response OpenMeteoCurrentResponse
	if err := c.GetJSON(ctx, c.baseURL+"/forecast?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}
	if response.CurrentWeather == nil {
		return nil, fmt.Errorf("failed to fetch current weather: response has no current_weather block")
	}

	cw := response.CurrentWeather
	// times are local wall clock because of timezone=auto
	zone := time.FixedZone("", response.UTCOffsetSeconds)
	observedAt, err := time.ParseInLocation("2006-01-02T15:04", cw.Time, zone)
	if err != nil {
		observedAt = time.Now()
	}
	observedAt = observedAt.UTC()
	temperature := roundHalfUp(cw.Temperature)

	return &models.WeatherObservation{
		TemperatureCelsius: temperature,
		// Open-Meteo's current_weather block has no apparent temperature
		FeelsLikeCelsius: temperature,
		ConditionCode:    cw.WeatherCode,
		IsDaytime:        cw.IsDay == 1,
		Source:           models.SourceOpenMeteo,
		WindSpeed:        cw.WindSpeed,
		Latitude:         lat,
		Longitude:        lon,
		ObservedAt:       observedAt,
	}, nil
}

// Search resolves a city name to its best matching coordinates.
func (c *OpenMeteoClient) Search(ctx context.Context, name string) (*models.Location, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", c.language)

	var response GeocodingResponse
	if err := c.GetJSON(ctx, c.geocodingURL+"/search?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", name, err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
	}

	r := response.Results[0]
	return &models.Location{
		Name:      r.Name,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
