package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/config"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/httperr"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/metrics"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/provider"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/publisher"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/reconcile"
)

// SendGrid-style signature headers
const (
	sendGridSignatureHeader = "X-Twilio-Email-Event-Webhook-Signature"
	sendGridTimestampHeader = "X-Twilio-Email-Event-Webhook-Timestamp"
)

// WebhookHandler handles delivery event ingestion
type WebhookHandler struct {
	Engine    *reconcile.Engine
	Providers *config.ProviderConfig
	Publisher *publisher.Publisher
	Logger    *zap.Logger
}

// NewWebhookHandler creates a new webhook handler with dependencies
func NewWebhookHandler(engine *reconcile.Engine, providers *config.ProviderConfig, pub *publisher.Publisher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		Engine:    engine,
		Providers: providers,
		Publisher: pub,
		Logger:    logger,
	}
}

// DeliveryEventInput is the canonical ingestion body. The single-event
// path names the type "event"; batch items may use "eventType".
type DeliveryEventInput struct {
	UserID    int64                  `json:"userId"`
	LogID     int64                  `json:"logId"`
	Email     string                 `json:"email"`
	Event     string                 `json:"event"`
	EventType string                 `json:"eventType"`
	Timestamp *time.Time             `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (in *DeliveryEventInput) eventName() string {
	if in.Event != "" {
		return in.Event
	}
	return in.EventType
}

// validate checks required fields and the canonical vocabulary, and
// converts the input into an engine event. Nothing is persisted on
// validation failure.
func (in *DeliveryEventInput) validate() (*reconcile.Event, error) {
	var missing []string
	if in.UserID == 0 {
		missing = append(missing, "userId")
	}
	if in.LogID == 0 {
		missing = append(missing, "logId")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.eventName() == "" {
		missing = append(missing, "event")
	}
	if len(missing) > 0 {
		return nil, httperr.Validation(fmt.Sprintf("missing required fields: %v", missing))
	}

	eventType, err := models.ParseEventType(in.eventName())
	if err != nil {
		return nil, httperr.Validation(err.Error())
	}

	return &reconcile.Event{
		UserID:    in.UserID,
		LogID:     in.LogID,
		Email:     in.Email,
		Type:      eventType,
		Source:    "api",
		Timestamp: in.Timestamp,
		Metadata:  in.Metadata,
	}, nil
}

// HandleDelivery handles POST /api/webhooks/delivery
func (h *WebhookHandler) HandleDelivery(c *fiber.Ctx) error {
	metrics.EventsReceived.WithLabelValues("api").Inc()

	var input DeliveryEventInput
	if err := c.BodyParser(&input); err != nil {
		metrics.EventsFailed.WithLabelValues("api", "malformed_body").Inc()
		return httperr.Respond(c, httperr.Validation("request body must be valid JSON"))
	}

	ev, err := input.validate()
	if err != nil {
		metrics.EventsFailed.WithLabelValues("api", "validation").Inc()
		return httperr.Respond(c, err)
	}

	if err := h.apply(c, "api", *ev); err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// BatchInput wraps the batch ingestion body. Items stay raw so one
// malformed element never aborts its siblings.
type BatchInput struct {
	Events []json.RawMessage `json:"events"`
}

// HandleBatch handles POST /api/webhooks/delivery/batch.
// Items are processed sequentially and independently; the response is
// 200 with per-event accounting even when some items fail.
func (h *WebhookHandler) HandleBatch(c *fiber.Ctx) error {
	var batch BatchInput
	if err := json.Unmarshal(c.Body(), &batch); err != nil || batch.Events == nil {
		return httperr.Respond(c, httperr.Validation("events must be an array"))
	}

	processed := 0
	failed := 0

	for _, raw := range batch.Events {
		metrics.EventsReceived.WithLabelValues("api").Inc()

		var input DeliveryEventInput
		if err := json.Unmarshal(raw, &input); err != nil {
			metrics.EventsFailed.WithLabelValues("api", "malformed_body").Inc()
			failed++
			continue
		}

		ev, err := input.validate()
		if err != nil {
			metrics.EventsFailed.WithLabelValues("api", "validation").Inc()
			failed++
			continue
		}

		if err := h.apply(c, "api", *ev); err != nil {
			failed++
			continue
		}
		processed++
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"processed": processed,
		"failed":    failed,
		"message":   fmt.Sprintf("Processed %d events, %d failed", processed, failed),
	})
}

// HandleProvider handles POST /api/webhooks/providers/:provider with a
// raw provider payload. Signature verification runs ahead of
// normalization; a request failing verification never reaches the engine.
func (h *WebhookHandler) HandleProvider(c *fiber.Ctx) error {
	kind, err := provider.ParseKind(c.Params("provider"))
	if err != nil {
		return httperr.Respond(c, httperr.NotFound("unknown provider"))
	}
	prov, _ := provider.For(kind)

	source := string(kind)
	metrics.EventsReceived.WithLabelValues(source).Inc()

	raw := c.Body()

	if err := h.verify(c, kind, prov, raw); err != nil {
		metrics.EventsFailed.WithLabelValues(source, "auth").Inc()
		return httperr.Respond(c, err)
	}

	payloads, err := prov.Normalize(raw)
	if err != nil {
		metrics.EventsFailed.WithLabelValues(source, "parse").Inc()
		h.Logger.Warn("Failed to normalize provider payload",
			zap.String("provider", source),
			zap.Error(err),
		)
		return httperr.Respond(c, httperr.Parse(err.Error(), err))
	}

	// SendGrid posts arrays natively, so its path always uses batch
	// accounting. Single-payload providers keep single-event semantics.
	if len(payloads) > 1 || kind == provider.KindSendGrid {
		return h.applyProviderBatch(c, source, payloads)
	}

	ev, aerr := h.attribute(source, payloads[0])
	if aerr != nil {
		metrics.EventsFailed.WithLabelValues(source, "unattributed").Inc()
		return httperr.Respond(c, aerr)
	}
	if err := h.apply(c, source, *ev); err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// verify runs the provider's signing scheme against the configured secret
func (h *WebhookHandler) verify(c *fiber.Ctx, kind provider.Kind, prov provider.Provider, raw []byte) error {
	switch kind {
	case provider.KindSendGrid:
		if h.Providers.SendGridSecret == "" {
			return httperr.Auth(fiber.StatusForbidden, "provider is not configured")
		}
		signed := provider.Signed{
			Body:      raw,
			Timestamp: c.Get(sendGridTimestampHeader),
			Signature: c.Get(sendGridSignatureHeader),
		}
		if !prov.Verify(signed, h.Providers.SendGridSecret) {
			return httperr.Auth(fiber.StatusUnauthorized, "invalid signature")
		}

	case provider.KindMailgun:
		if h.Providers.MailgunSecret == "" {
			return httperr.Auth(fiber.StatusForbidden, "provider is not configured")
		}
		signed, ok := provider.ParseSignature(raw)
		if !ok {
			return httperr.Auth(fiber.StatusUnauthorized, "signature block is missing")
		}
		if !prov.Verify(signed, h.Providers.MailgunSecret) {
			return httperr.Auth(fiber.StatusUnauthorized, "invalid signature")
		}

	case provider.KindSES:
		// Envelope parse is the trust boundary. When a topic ARN is
		// configured, pin the claimed source to it.
		if h.Providers.SESTopicArn != "" && provider.TopicArn(raw) != h.Providers.SESTopicArn {
			return httperr.Auth(fiber.StatusForbidden, "unexpected SNS topic")
		}
	}

	return nil
}

// attribute converts a normalized payload into an engine event,
// rejecting payloads whose custom fields carry no user/log attribution
func (h *WebhookHandler) attribute(source string, p provider.Payload) (*reconcile.Event, error) {
	if p.UserID == 0 || p.LogID == 0 {
		return nil, httperr.Validation("payload carries no user_id/log_id attribution")
	}
	return &reconcile.Event{
		UserID:    p.UserID,
		LogID:     p.LogID,
		Email:     p.Email,
		Type:      p.Event,
		Source:    source,
		Timestamp: p.Timestamp,
		Metadata:  p.Metadata,
	}, nil
}

func (h *WebhookHandler) applyProviderBatch(c *fiber.Ctx, source string, payloads []provider.Payload) error {
	processed := 0
	failed := 0

	for _, p := range payloads {
		ev, err := h.attribute(source, p)
		if err != nil {
			metrics.EventsFailed.WithLabelValues(source, "unattributed").Inc()
			failed++
			continue
		}
		if err := h.apply(c, source, *ev); err != nil {
			failed++
			continue
		}
		processed++
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"processed": processed,
		"failed":    failed,
		"message":   fmt.Sprintf("Processed %d events, %d failed", processed, failed),
	})
}

// apply runs one event through the reconciliation engine, records
// metrics, and fans the applied event out to the publisher
func (h *WebhookHandler) apply(c *fiber.Ctx, source string, ev reconcile.Event) error {
	start := time.Now()
	record, err := h.Engine.Apply(c.Context(), ev)
	metrics.ApplyDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, reconcile.ErrLogNotFound) {
			metrics.EventsFailed.WithLabelValues(source, "not_found").Inc()
			return httperr.NotFound("delivery log not found")
		}
		metrics.EventsFailed.WithLabelValues(source, "storage").Inc()
		h.Logger.Error("Failed to apply delivery event",
			zap.Int64("log_id", ev.LogID),
			zap.String("event_type", string(ev.Type)),
			zap.Error(err),
		)
		return httperr.Storage(err)
	}

	metrics.EventsApplied.WithLabelValues(source, string(ev.Type)).Inc()
	h.Publisher.PublishApplied(record)

	return nil
}
