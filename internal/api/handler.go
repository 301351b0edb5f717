package api

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/recommender"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/services"
)

// WeatherLookup is the weather side of the API.
type WeatherLookup interface {
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error)
	CurrentByCity(ctx context.Context, city string) (*models.WeatherObservation, error)
	GetLastFetchTime() time.Time
	GetStats() map[string]interface{}
}

// StatusReporter is implemented by background components that expose state
// on the health endpoint.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	weather   WeatherLookup
	wardrobe  *services.WardrobeService
	scheduler StatusReporter
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(weather WeatherLookup, wardrobe *services.WardrobeService, scheduler StatusReporter, logger *zap.Logger) *Handler {
	return &Handler{
		weather:   weather,
		wardrobe:  wardrobe,
		scheduler: scheduler,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetWeather handles GET /api/v1/weather?lat=&lon=
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	lat, lon, err := coordinates(c)
	if err != nil {
		return err
	}

	obs, err := h.weather.CurrentByCoordinates(c.UserContext(), lat, lon)
	if err != nil {
		return err
	}
	return c.JSON(report(obs))
}

// GetWeatherByCity handles GET /api/v1/weather/city?name=
func (h *Handler) GetWeatherByCity(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name parameter is required")
	}

	obs, err := h.weather.CurrentByCity(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(report(obs))
}

// GetCategories handles GET /api/v1/categories
func (h *Handler) GetCategories(c *fiber.Ctx) error {
	model, err := h.wardrobe.Categories(c.UserContext())
	if err != nil {
		return err
	}

	categories := make([]models.ClothCategory, 0, len(model))
	for _, cat := range model {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].LayerOrder != categories[j].LayerOrder {
			return categories[i].LayerOrder < categories[j].LayerOrder
		}
		return categories[i].ID < categories[j].ID
	})

	return c.JSON(fiber.Map{
		"categories": categories,
	})
}

// ListGarments handles GET /api/v1/users/:userID/garments
func (h *Handler) ListGarments(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	garments, err := h.wardrobe.ListGarments(c.UserContext(), userID, c.QueryBool("active", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"garments": garments,
	})
}

type garmentRequest struct {
	Name             string                  `json:"name"`
	CategoryID       int64                   `json:"category_id"`
	Brand            string                  `json:"brand"`
	Color            string                  `json:"color"`
	TemperatureRange models.TemperatureRange `json:"temperature_range"`
	WeatherTags      []string                `json:"weather_tags"`
	IsFavorite       bool                    `json:"is_favorite"`
}

// AddGarment handles POST /api/v1/users/:userID/garments
func (h *Handler) AddGarment(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	var req garmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tags := make([]models.WeatherCategory, 0, len(req.WeatherTags))
	for _, t := range req.WeatherTags {
		tag, ok := models.ParseWeatherCategory(t)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown weather tag: "+t)
		}
		tags = append(tags, tag)
	}

	garment, err := h.wardrobe.AddGarment(c.UserContext(), userID, models.Garment{
		Name:             req.Name,
		CategoryID:       req.CategoryID,
		Brand:            req.Brand,
		Color:            req.Color,
		TemperatureRange: req.TemperatureRange,
		WeatherTags:      tags,
		IsFavorite:       req.IsFavorite,
	})
	if err != nil {
		return err
	}

	h.logger.Info("Garment added",
		zap.Int64("user_id", userID),
		zap.Int64("garment_id", garment.ID))
	return c.Status(fiber.StatusCreated).JSON(garment)
}

// SetGarmentActive handles PATCH /api/v1/users/:userID/garments/:garmentID/active
func (h *Handler) SetGarmentActive(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}
	garmentID, err := idParam(c, "garmentID")
	if err != nil {
		return err
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must contain a boolean \"active\" field")
	}

	garment, err := h.wardrobe.SetGarmentActive(c.UserContext(), userID, garmentID, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(garment)
}

// RecordWear handles POST /api/v1/users/:userID/garments/:garmentID/wear
func (h *Handler) RecordWear(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}
	garmentID, err := idParam(c, "garmentID")
	if err != nil {
		return err
	}

	if err := h.wardrobe.RecordWear(c.UserContext(), userID, []int64{garmentID}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetRecommendation handles GET /api/v1/users/:userID/recommendation
// with either city= or lat= and lon=.
func (h *Handler) GetRecommendation(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	var loc services.LocationQuery
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		loc.City = city
	} else {
		lat, lon, err := coordinates(c)
		if err != nil {
			return err
		}
		loc.Latitude, loc.Longitude = &lat, &lon
	}

	rec, err := h.wardrobe.Recommend(c.UserContext(), userID, loc)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// SaveOutfit handles POST /api/v1/users/:userID/outfits
func (h *Handler) SaveOutfit(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	var req services.SaveOutfitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Source != "" && req.Source != models.SourceManual && req.Source != models.SourceRuleBased {
		return fiber.NewError(fiber.StatusBadRequest, "source must be manual or rule_based")
	}

	outfit, err := h.wardrobe.SaveOutfit(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(outfit)
}

// ListOutfits handles GET /api/v1/users/:userID/outfits?weather=&temperature=
func (h *Handler) ListOutfits(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	var filter models.OutfitFilter
	if w := c.Query("weather"); w != "" {
		category, ok := models.ParseWeatherCategory(w)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown weather category: "+w)
		}
		filter.WeatherCategory = &category
	}
	if t := c.Query("temperature"); t != "" {
		temp, err := strconv.Atoi(t)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "temperature must be an integer")
		}
		filter.Temperature = &temp
	}

	outfits, err := h.wardrobe.ListOutfits(c.UserContext(), userID, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"outfits": outfits,
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_fetch": h.weather.GetLastFetchTime(),
		"uptime":     time.Since(h.startTime).String(),
	}
	if h.scheduler != nil {
		body["scheduler"] = h.scheduler.GetStatus()
	}
	return c.JSON(body)
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.weather.GetStats(),
		"timestamp": time.Now(),
	})
}

func report(obs *models.WeatherObservation) models.WeatherReport {
	category, band := recommender.Classify(*obs)
	return models.WeatherReport{
		WeatherObservation: *obs,
		Category:           category,
		ComfortBand:        band,
	}
}

func coordinates(c *fiber.Ctx) (float64, float64, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "lon must be a number between -180 and 180")
	}
	return lat, lon, nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}
