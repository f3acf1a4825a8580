package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/httperr"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/query"
)

// ErrorsHandler serves the event-log read surface behind the API key:
// recent events, filters by type/endpoint/range, and aggregate stats.
type ErrorsHandler struct {
	Query  *query.Service
	Logger *zap.Logger
}

// NewErrorsHandler creates a new errors handler with dependencies
func NewErrorsHandler(q *query.Service, logger *zap.Logger) *ErrorsHandler {
	return &ErrorsHandler{
		Query:  q,
		Logger: logger,
	}
}

// GetStatus handles GET /api/errors/status
func (h *ErrorsHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.Query.StoreStatus(c.Context())
	if err != nil {
		h.Logger.Error("Failed to load store status", zap.Error(err))
		return httperr.Respond(c, httperr.Storage(err))
	}
	return c.JSON(fiber.Map{"success": true, "data": status})
}

// GetRecent handles GET /api/errors/recent
func (h *ErrorsHandler) GetRecent(c *fiber.Ctx) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	events, qerr := h.Query.Recent(c.Context(), limit, offset)
	if qerr != nil {
		h.Logger.Error("Failed to query recent events", zap.Error(qerr))
		return httperr.Respond(c, httperr.Storage(qerr))
	}
	return c.JSON(fiber.Map{"success": true, "data": events})
}

// GetByLevel handles GET /api/errors/by-level/:level where level is a
// canonical event type
func (h *ErrorsHandler) GetByLevel(c *fiber.Ctx) error {
	eventType, err := models.ParseEventType(c.Params("level"))
	if err != nil {
		return httperr.Respond(c, httperr.Validation(err.Error()))
	}

	limit, offset, perr := parsePagination(c)
	if perr != nil {
		return httperr.Respond(c, perr)
	}

	events, qerr := h.Query.ByType(c.Context(), eventType, limit, offset)
	if qerr != nil {
		h.Logger.Error("Failed to query events by type",
			zap.String("event_type", string(eventType)),
			zap.Error(qerr),
		)
		return httperr.Respond(c, httperr.Storage(qerr))
	}
	return c.JSON(fiber.Map{"success": true, "data": events})
}

// GetByEndpoint handles GET /api/errors/by-endpoint/:endpoint where
// endpoint is a provider name or "api"
func (h *ErrorsHandler) GetByEndpoint(c *fiber.Ctx) error {
	endpoint := c.Params("endpoint")

	limit, offset, perr := parsePagination(c)
	if perr != nil {
		return httperr.Respond(c, perr)
	}

	events, qerr := h.Query.BySource(c.Context(), endpoint, limit, offset)
	if qerr != nil {
		h.Logger.Error("Failed to query events by endpoint",
			zap.String("endpoint", endpoint),
			zap.Error(qerr),
		)
		return httperr.Respond(c, httperr.Storage(qerr))
	}
	return c.JSON(fiber.Map{"success": true, "data": events})
}

// GetStats handles GET /api/errors/stats
func (h *ErrorsHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.Query.Stats(c.Context())
	if err != nil {
		h.Logger.Error("Failed to aggregate event stats", zap.Error(err))
		return httperr.Respond(c, httperr.Storage(err))
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// GetRange handles GET /api/errors/range?startTime=&endTime= with
// inclusive ISO-8601 bounds
func (h *ErrorsHandler) GetRange(c *fiber.Ctx) error {
	start, err := time.Parse(time.RFC3339, c.Query("startTime"))
	if err != nil {
		return httperr.Respond(c, httperr.Validation("startTime must be a valid ISO-8601 timestamp"))
	}
	end, err := time.Parse(time.RFC3339, c.Query("endTime"))
	if err != nil {
		return httperr.Respond(c, httperr.Validation("endTime must be a valid ISO-8601 timestamp"))
	}
	if end.Before(start) {
		return httperr.Respond(c, httperr.Validation("endTime must not precede startTime"))
	}

	events, qerr := h.Query.Range(c.Context(), start, end)
	if qerr != nil {
		h.Logger.Error("Failed to query events by range", zap.Error(qerr))
		return httperr.Respond(c, httperr.Storage(qerr))
	}
	return c.JSON(fiber.Map{"success": true, "data": events})
}

// GetByID handles GET /api/errors/:errorId
func (h *ErrorsHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("errorId"), 10, 64)
	if err != nil || id <= 0 {
		return httperr.Respond(c, httperr.Validation("errorId must be a positive integer"))
	}

	event, qerr := h.Query.ByID(c.Context(), id)
	if qerr != nil {
		if errors.Is(qerr, query.ErrEventNotFound) {
			return httperr.Respond(c, httperr.NotFound("event not found"))
		}
		h.Logger.Error("Failed to load event",
			zap.Int64("event_id", id),
			zap.Error(qerr),
		)
		return httperr.Respond(c, httperr.Storage(qerr))
	}
	return c.JSON(fiber.Map{"success": true, "data": event})
}

// parsePagination reads limit/offset query parameters with defaults
func parsePagination(c *fiber.Ctx) (int, int, error) {
	limit := 25
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return 0, 0, httperr.Validation("limit must be a positive integer")
		}
		limit = parsed
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			return 0, 0, httperr.Validation("offset must be a non-negative integer")
		}
		offset = parsed
	}

	return limit, offset, nil
}
