package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/services"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/storage"
)

type stubWeather struct {
	obs *models.WeatherObservation
	err error
}

func (w *stubWeather) CurrentByCoordinates(_ context.Context, lat, lon float64) (*models.WeatherObservation, error) {
	if w.err != nil {
		return nil, w.err
	}
	obs := *w.obs
	obs.Latitude, obs.Longitude = lat, lon
	return &obs, nil
}

func (w *stubWeather) CurrentByCity(_ context.Context, city string) (*models.WeatherObservation, error) {
	if w.err != nil {
		return nil, w.err
	}
	if city == "Atlantis" {
		return nil, fmt.Errorf("%w: %s", services.ErrLocationNotFound, city)
	}
	obs := *w.obs
	obs.City = city
	return &obs, nil
}

func (w *stubWeather) GetLastFetchTime() time.Time { return time.Time{} }

func (w *stubWeather) GetStats() map[string]interface{} {
	return map[string]interface{}{"success_count": 1}
}

type testServer struct {
	app     *fiber.App
	weather *stubWeather
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	categories := []models.ClothCategory{
		{ID: 1, Name: "bottom", LayerOrder: 10, Mandatory: true},
		{ID: 2, Name: "top", LayerOrder: 20, Mandatory: true},
		{ID: 4, Name: "outer", LayerOrder: 40},
	}
	weather := &stubWeather{obs: &models.WeatherObservation{
		TemperatureCelsius: 8,
		FeelsLikeCelsius:   8,
		ConditionCode:      61,
		IsDaytime:          true,
		Source:             models.SourceOpenMeteo,
	}}
	logger := zap.NewNop()
	wardrobe := services.NewWardrobeService(storage.NewMemoryStore(categories), weather, nil, logger)

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger)})
	SetupRoutes(app, NewHandler(weather, wardrobe, nil, logger), logger)
	return &testServer{app: app, weather: weather}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) addGarment(t *testing.T, userID int, body string) int64 {
	t.Helper()
	code, out := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/garments", userID), body)
	require.Equal(t, http.StatusCreated, code, out)
	return int64(out["id"].(float64))
}

func (s *testServer) seedRainyWardrobe(t *testing.T) (raincoat, tshirt, jeans int64) {
	raincoat = s.addGarment(t, 1, `{"name":"raincoat","category_id":4,"temperature_range":{"min":0,"max":15},"weather_tags":["RAINY"]}`)
	tshirt = s.addGarment(t, 1, `{"name":"t-shirt","category_id":2,"temperature_range":{"min":5,"max":30}}`)
	jeans = s.addGarment(t, 1, `{"name":"jeans","category_id":1,"temperature_range":{"min":0,"max":25}}`)
	s.addGarment(t, 1, `{"name":"linen shirt","category_id":2,"temperature_range":{"min":25,"max":40}}`)
	return
}

func itemIDs(t *testing.T, outfit map[string]interface{}) []int64 {
	t.Helper()
	items := outfit["items"].([]interface{})
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		garment := item.(map[string]interface{})["garment"].(map[string]interface{})
		ids = append(ids, int64(garment["id"].(float64)))
	}
	return ids
}

func TestGetWeather(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/weather?lat=37.56&lon=126.97", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "RAINY", out["weather_type"])
	require.Equal(t, "COLD", out["temperature_level"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/weather?lat=91&lon=0", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/weather?lat=abc&lon=0", "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestGetWeatherByCity(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/weather/city?name=Seoul", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Seoul", out["city"])

	code, out = s.do(t, http.MethodGet, "/api/v1/weather/city?name=Atlantis", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "LOCATION_NOT_FOUND", out["reason"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/weather/city", "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestWeatherUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.weather.err = fmt.Errorf("%w: %w", services.ErrWeatherUnavailable, errors.New("HTTP 503"))

	code, out := s.do(t, http.MethodGet, "/api/v1/users/1/recommendation?city=Seoul", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "WEATHER_UNAVAILABLE", out["reason"])
	require.Equal(t, false, out["success"])
}

func TestGetCategoriesOrderedByLayer(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, code)
	categories := out["categories"].([]interface{})
	require.Len(t, categories, 3)
	require.Equal(t, "bottom", categories[0].(map[string]interface{})["name"])
	require.Equal(t, "outer", categories[2].(map[string]interface{})["name"])
}

func TestRecommendation(t *testing.T) {
	s := newTestServer(t)
	raincoat, tshirt, jeans := s.seedRainyWardrobe(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/users/1/recommendation?lat=37.56&lon=126.97", "")
	require.Equal(t, http.StatusOK, code, out)

	outfit := out["outfit"].(map[string]interface{})
	require.Equal(t, []int64{jeans, tshirt, raincoat}, itemIDs(t, outfit))
	require.Equal(t, "rule_based", outfit["source"])
	require.Equal(t, "RAINY", out["weather"].(map[string]interface{})["weather_type"])
}

func TestRecommendationFailures(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/users/1/recommendation?city=Seoul", "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "NO_SUITABLE_GARMENTS", out["reason"])

	s.addGarment(t, 1, `{"name":"jeans","category_id":1}`)
	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/recommendation?city=Seoul", "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "MISSING_LAYER:top", out["reason"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/1/recommendation", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/zero/recommendation?city=Seoul", "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestGarmentLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.addGarment(t, 1, `{"name":"parka","category_id":4,"weather_tags":["snowy","WINDY"],"is_favorite":true}`)

	code, out := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/1/garments/%d/wear", id), "")
	require.Equal(t, http.StatusNoContent, code, out)

	code, out = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/1/garments/%d/active", id), `{"active":false}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, out["is_active"])
	require.Equal(t, float64(1), out["wear_count"])

	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/garments?active=true", "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, out["garments"])

	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/garments", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out["garments"], 1)

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/2/garments/%d/active", id), `{"active":true}`)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/1/garments/%d/active", id), `{}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestAddGarmentValidation(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/users/1/garments", `{"name":"cape","category_id":1,"weather_tags":["FOGGY"]}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/1/garments", `{"name":"","category_id":1}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/1/garments", `{"name":"cape","category_id":99}`)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/1/garments", `not json`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestOutfits(t *testing.T) {
	s := newTestServer(t)
	raincoat, tshirt, jeans := s.seedRainyWardrobe(t)

	body := fmt.Sprintf(`{"name":"commute","garment_ids":[%d,%d,%d],"weather_category":"RAINY","temperature":8,"source":"rule_based","worn":true}`,
		raincoat, tshirt, jeans)
	code, out := s.do(t, http.MethodPost, "/api/v1/users/1/outfits", body)
	require.Equal(t, http.StatusCreated, code, out)
	require.Equal(t, []int64{jeans, tshirt, raincoat}, itemIDs(t, out))

	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/outfits?weather=rainy&temperature=10", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out["outfits"], 1)

	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/outfits?weather=SNOWY", "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, out["outfits"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/1/outfits?temperature=warm", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/1/outfits", `{"garment_ids":[1],"source":"ai"}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, out = s.do(t, http.MethodGet, "/api/v1/users/1/garments", "")
	require.Equal(t, http.StatusOK, code)
	for _, g := range out["garments"].([]interface{}) {
		garment := g.(map[string]interface{})
		if int64(garment["id"].(float64)) == raincoat {
			require.Equal(t, float64(1), garment["wear_count"])
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "healthy", out["status"])

	code, out = s.do(t, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), out["metrics"].(map[string]interface{})["success_count"])

	code, out = s.do(t, http.MethodGet, "/api/v1/nowhere", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Endpoint not found", out["error"])
}
