package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// ErrLogNotFound marks an event whose log_id does not reference an
// existing delivery log. No webhook_events row is written in that case:
// an event is never logged for a row it cannot be attributed to.
var ErrLogNotFound = errors.New("delivery log not found")

const (
	genericBounceMessage    = "Email bounced"
	genericComplaintMessage = "Recipient marked the message as spam"
)

// Event is one canonical delivery event ready to be applied
type Event struct {
	UserID    int64
	LogID     int64
	Email     string
	Type      models.EventType
	Source    string
	Timestamp *time.Time
	Metadata  map[string]interface{}
}

// Engine is the state-transition authority for delivery status.
// It appends one immutable webhook_events row per event and applies
// the status rule for the event type, both inside one transaction.
type Engine struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewEngine(db *gorm.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Apply records ev against its delivery log. Events are applied in
// receipt order regardless of their reported timestamp: a delivered
// arriving after a bounced moves status back to sent (last-write-wins).
func (e *Engine) Apply(ctx context.Context, ev Event) (*models.WebhookEvent, error) {
	var record *models.WebhookEvent

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.DeliveryLog
		err := tx.Where("id = ? AND user_id = ?", ev.LogID, ev.UserID).First(&log).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("failed to load delivery log: %w", err)
		}

		timestamp := time.Now().UTC()
		if ev.Timestamp != nil {
			timestamp = ev.Timestamp.UTC()
		}
		metadata := ev.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		source := ev.Source
		if source == "" {
			source = "api"
		}

		record = &models.WebhookEvent{
			UserID:    ev.UserID,
			LogID:     ev.LogID,
			EventType: string(ev.Type),
			Source:    source,
			Timestamp: timestamp,
			Metadata:  metadata,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to append webhook event: %w", err)
		}

		updates := statusUpdates(ev.Type, metadata)
		if updates == nil {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		if err := tx.Model(&models.DeliveryLog{}).
			Where("id = ?", ev.LogID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update delivery log status: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	e.logger.Debug("Delivery event applied",
		zap.Int64("log_id", ev.LogID),
		zap.Int64("user_id", ev.UserID),
		zap.String("event_type", string(ev.Type)),
	)

	return record, nil
}

// statusUpdates returns the delivery_logs column updates for an event
// type, or nil when the type never changes status (sent/opened/clicked).
func statusUpdates(eventType models.EventType, metadata map[string]interface{}) map[string]interface{} {
	switch eventType {
	case models.EventDelivered:
		return map[string]interface{}{
			"status": models.StatusSent,
		}
	case models.EventBounced:
		return map[string]interface{}{
			"status":        models.StatusBounced,
			"error_message": bounceReason(metadata),
		}
	case models.EventComplained:
		return map[string]interface{}{
			"status":        models.StatusBounced,
			"error_message": genericComplaintMessage,
		}
	}
	return nil
}

func bounceReason(metadata map[string]interface{}) string {
	if reason, ok := metadata["reason"].(string); ok && reason != "" {
		return reason
	}
	return genericBounceMessage
}
