package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/gateway/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, gateway *service.Gateway, batch *service.BatchOrchestrator, health *service.HealthReporter, registry service.ModelRegistry) {
	handler := NewHandler(gateway, batch, health, registry)

	// Health and model inventory
	app.Get("/health", handler.HealthCheck)
	app.Get("/models", handler.ListModels)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Post("/predict/personalization", handler.PredictPersonalization)
		api.Post("/predict/route", handler.PredictRoute)
		api.Post("/predict/outage_eta", handler.PredictOutageETA)
		api.Post("/predict/image_triage", handler.PredictImageTriage)
		api.Post("/predict/batch", handler.PredictBatch)
	}
}
