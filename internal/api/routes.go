package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, handler *Handler, log *zap.Logger) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/metrics", handler.GetMetrics)
	api.Get("/categories", handler.GetCategories)

	weather := api.Group("/weather")
	weather.Get("/", handler.GetWeather)
	weather.Get("/city", handler.GetWeatherByCity)

	users := api.Group("/users/:userID")
	users.Get("/garments", handler.ListGarments)
	users.Post("/garments", handler.AddGarment)
	users.Patch("/garments/:garmentID/active", handler.SetGarmentActive)
	users.Post("/garments/:garmentID/wear", handler.RecordWear)
	users.Get("/recommendation", handler.GetRecommendation)
	users.Get("/outfits", handler.ListOutfits)
	users.Post("/outfits", handler.SaveOutfit)

	app.Use(func(c *fiber.Ctx) error {
		log.Debug("Route not found", zap.String("path", c.Path()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}
