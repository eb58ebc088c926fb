package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/gateway/internal/domain"
	"github.com/smartcity/gateway/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	gateway  *service.Gateway
	batch    *service.BatchOrchestrator
	health   *service.HealthReporter
	registry service.ModelRegistry
}

// NewHandler creates a new handler
func NewHandler(gateway *service.Gateway, batch *service.BatchOrchestrator, health *service.HealthReporter, registry service.ModelRegistry) *Handler {
	return &Handler{
		gateway:  gateway,
		batch:    batch,
		health:   health,
		registry: registry,
	}
}

// HealthCheck returns aggregated service health. Degraded is a normal
// 200 answer; health reporting never fails.
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(h.health.Report(c.Context()))
}

// ListModels returns per-domain model type descriptors, null when absent
func (h *Handler) ListModels(c *fiber.Ctx) error {
	descriptors := h.registry.Descriptors()
	models := make(map[string]*string, len(descriptors))
	for name, desc := range descriptors {
		if desc == "" {
			models[name] = nil
			continue
		}
		d := desc
		models[name] = &d
	}
	return c.JSON(fiber.Map{"models": models})
}

// PredictPersonalization answers whether to send an air-quality alert
func (h *Handler) PredictPersonalization(c *fiber.Ctx) error {
	var req domain.PersonalizationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.gateway.PredictPersonalization(c.Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(resp)
}

// PredictRoute recommends a route given traffic and incidents
func (h *Handler) PredictRoute(c *fiber.Ctx) error {
	var req domain.RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.gateway.PredictRoute(c.Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(resp)
}

// PredictOutageETA estimates time to restoration for a utility outage
func (h *Handler) PredictOutageETA(c *fiber.Ctx) error {
	var req domain.OutageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.gateway.PredictOutageETA(c.Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(resp)
}

// PredictImageTriage labels a street-condition photo uploaded as a
// single multipart file
func (h *Handler) PredictImageTriage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}

	resp, err := h.gateway.PredictImageTriage(c.Context(), domain.ImageTriageRequest{Image: blob})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(resp)
}

// PredictBatch runs any subset of the four domains in one call with
// per-item failure isolation
func (h *Handler) PredictBatch(c *fiber.Ctx) error {
	var req domain.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	return c.JSON(h.batch.PredictBatch(c.Context(), req))
}

// toHTTPError maps gateway errors onto HTTP statuses. Only request errors
// reach this point; degraded answers are ordinary 200 responses.
func toHTTPError(err error) error {
	if domain.IsRequestError(err) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}

// ErrorHandler renders every error as a {"detail": ...} body. Request
// errors carry their explanatory detail; anything else is masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		detail = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"detail": detail,
	})
}
