package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

type OpenWeatherCurrentResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
	Cod  int    `json:"cod"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	return &OpenWeatherClient{
		BaseClient: NewBaseClient(models.SourceOpenWeather, config, logger),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

func (c *OpenWeatherClient) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	return c.current(ctx, q)
}

func (c *OpenWeatherClient) CurrentByCity(ctx context.Context, city string) (*models.WeatherObservation, error) {
	q := url.Values{}
	q.Set("q", city)
	obs, err := c.current(ctx, q)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, city)
		}
		return nil, err
	}
	return obs, nil
}

func (c *OpenWeatherClient) current(ctx context.Context, q url.Values) (*models.WeatherObservation, error) {
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var response OpenWeatherCurrentResponse
	if err := c.GetJSON(ctx, c.baseURL+"/weather?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}
	if response.Cod != 200 {
		return nil, fmt.Errorf("API error: %d", response.Cod)
	}
	if len(response.Weather) == 0 {
		return nil, fmt.Errorf("API error: response has no weather conditions")
	}

	condition := response.Weather[0]
	return &models.WeatherObservation{
		TemperatureCelsius: roundHalfUp(response.Main.Temp),
		FeelsLikeCelsius:   roundHalfUp(response.Main.FeelsLike),
		ConditionCode:      condition.ID,
		IsDaytime:          isDaytime(condition.Icon, response.Dt, response.Sys.Sunrise, response.Sys.Sunset),
		Source:             models.SourceOpenWeather,
		// metres per second -> km/h, the unit Open-Meteo reports
		WindSpeed:   response.Wind.Speed * 3.6,
		Summary:     condition.Main,
		Description: condition.Description,
		Icon:        condition.Icon,
		City:        response.Name,
		Latitude:    response.Coord.Lat,
		Longitude:   response.Coord.Lon,
		ObservedAt:  time.Unix(response.Dt, 0).UTC(),
	}, nil
}

// isDaytime prefers the icon suffix ("01d"/"01n") and falls back to the
// sunrise/sunset window.
func isDaytime(icon string, dt, sunrise, sunset int64) bool {
	switch {
	case strings.HasSuffix(icon, "d"):
		return true
	case strings.HasSuffix(icon, "n"):
		return false
	}
	return dt >= sunrise && dt < sunset
}
