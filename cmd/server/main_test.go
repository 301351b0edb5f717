package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/config"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/services"
)

func TestNewAppRendersServiceErrorsAsJSON(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ReadTimeout = time.Second
	cfg.Server.WriteTimeout = time.Second

	app := newApp(cfg, zap.NewNop())
	require.Equal(t, time.Second, app.Config().ReadTimeout)

	app.Get("/down", func(c *fiber.Ctx) error {
		return services.ErrWeatherUnavailable
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/down", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "WEATHER_UNAVAILABLE", body["reason"])
	require.Equal(t, false, body["success"])
}
