package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/handlers"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/middleware"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(
	app *fiber.App,
	webhookHandler *handlers.WebhookHandler,
	eventsHandler *handlers.EventsHandler,
	errorsHandler *handlers.ErrorsHandler,
	healthHandler *handlers.HealthHandler,
	apiKey string,
) {
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	webhooks := api.Group("/webhooks")
	webhooks.Post("/delivery", webhookHandler.HandleDelivery)
	webhooks.Post("/delivery/batch", webhookHandler.HandleBatch)
	webhooks.Post("/providers/:provider", webhookHandler.HandleProvider)
	webhooks.Get("/events/:logId", eventsHandler.GetEventsByLog)

	// The error/query surface requires the API key credential
	errs := api.Group("/errors", middleware.APIKey(apiKey))
	errs.Get("/status", errorsHandler.GetStatus)
	errs.Get("/recent", errorsHandler.GetRecent)
	errs.Get("/by-level/:level", errorsHandler.GetByLevel)
	errs.Get("/by-endpoint/:endpoint", errorsHandler.GetByEndpoint)
	errs.Get("/stats", errorsHandler.GetStats)
	errs.Get("/range", errorsHandler.GetRange)
	errs.Get("/:errorId", errorsHandler.GetByID)
}
