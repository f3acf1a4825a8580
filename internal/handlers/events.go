package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/httperr"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/query"
)

// EventsHandler serves the per-delivery event stream for the UI timeline
type EventsHandler struct {
	Query  *query.Service
	Logger *zap.Logger
}

// NewEventsHandler creates a new events handler with dependencies
func NewEventsHandler(q *query.Service, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		Query:  q,
		Logger: logger,
	}
}

// GetEventsByLog handles GET /api/webhooks/events/:logId?userId=
// Returns the full event stream for one delivery, ascending by id.
func (h *EventsHandler) GetEventsByLog(c *fiber.Ctx) error {
	logID, err := strconv.ParseInt(c.Params("logId"), 10, 64)
	if err != nil || logID <= 0 {
		return httperr.Respond(c, httperr.Validation("logId must be a positive integer"))
	}

	userIDStr := c.Query("userId")
	if userIDStr == "" {
		return httperr.Respond(c, httperr.Validation("userId query parameter is required"))
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return httperr.Respond(c, httperr.Validation("userId must be a positive integer"))
	}

	events, err := h.Query.EventsByLog(c.Context(), userID, logID)
	if err != nil {
		h.Logger.Error("Failed to query events for log",
			zap.Int64("log_id", logID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return httperr.Respond(c, httperr.Storage(err))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"logId":   logID,
		"events":  events,
	})
}
