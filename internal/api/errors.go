package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/recommender"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/services"
)

// NewErrorHandler maps service errors onto HTTP statuses.
func NewErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, reason := classify(err)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP error", fields...)
		} else {
			logger.Debug("HTTP error", fields...)
		}

		body := fiber.Map{
			"error":   err.Error(),
			"success": false,
		}
		if reason != "" {
			body["reason"] = reason
		}
		return c.Status(code).JSON(body)
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, ""
	}

	switch {
	case errors.Is(err, recommender.ErrInconsistentCategoryModel):
		return fiber.StatusInternalServerError, recommender.Reason(err)
	case errors.Is(err, recommender.ErrMissingLayer),
		errors.Is(err, recommender.ErrNoSuitableGarments):
		return fiber.StatusUnprocessableEntity, recommender.Reason(err)
	case errors.Is(err, services.ErrLocationNotFound):
		return fiber.StatusNotFound, "LOCATION_NOT_FOUND"
	case errors.Is(err, services.ErrWeatherUnavailable):
		return fiber.StatusServiceUnavailable, "WEATHER_UNAVAILABLE"
	case errors.Is(err, models.ErrGarmentNotFound),
		errors.Is(err, models.ErrCategoryNotFound):
		return fiber.StatusNotFound, ""
	case errors.Is(err, models.ErrInvalidGarment),
		errors.Is(err, models.ErrInvalidOutfit):
		return fiber.StatusBadRequest, ""
	}
	return fiber.StatusInternalServerError, ""
}
