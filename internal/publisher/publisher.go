package publisher

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/config"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/rabbitmq"
)

// AppliedEvent is the message published for each reconciled event so the
// dashboard's analytics pipeline can consume deltas without polling.
type AppliedEvent struct {
	MessageID string    `json:"message_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	LogID     int64     `json:"log_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher fans applied events out to RabbitMQ. Fire-and-forget:
// ingestion success never depends on publish success. A nil Publisher
// is valid and publishes nothing.
type Publisher struct {
	conn       *rabbitmq.Connection
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func New(conn *rabbitmq.Connection, cfg *config.RabbitMQConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}
}

// PublishApplied publishes one reconciled event. Failures are logged
// and dropped.
func (p *Publisher) PublishApplied(event *models.WebhookEvent) {
	if p == nil || p.conn == nil {
		return
	}

	msg := AppliedEvent{
		MessageID: uuid.NewString(),
		EventID:   event.ID,
		UserID:    event.UserID,
		LogID:     event.LogID,
		EventType: event.EventType,
		Source:    event.Source,
		Timestamp: event.Timestamp,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to marshal applied event",
			zap.Int64("event_id", event.ID),
			zap.Error(err),
		)
		return
	}

	if err := p.conn.Publish(p.exchange, p.routingKey, body); err != nil {
		p.logger.Warn("Failed to publish applied event, dropping",
			zap.Int64("event_id", event.ID),
			zap.String("exchange", p.exchange),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("Applied event published",
		zap.Int64("event_id", event.ID),
		zap.String("routing_key", p.routingKey),
	)
}
