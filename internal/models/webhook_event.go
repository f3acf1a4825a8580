package models

import (
	"time"
)

// WebhookEvent is one provider notification about a DeliveryLog.
// Rows are append-only: created exclusively by the reconciliation
// engine, never updated or deleted. Multiple rows may reference the
// same log_id (the event stream for one delivery).
type WebhookEvent struct {
	ID        int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64                  `gorm:"not null;index" json:"user_id"`
	LogID     int64                  `gorm:"not null;index" json:"log_id"`
	Log       *DeliveryLog           `gorm:"foreignKey:LogID" json:"log,omitempty"`
	EventType string                 `gorm:"not null;index" json:"event_type"`
	Source    string                 `gorm:"not null;default:'api'" json:"source"`
	Timestamp time.Time              `gorm:"not null;index" json:"timestamp"`
	Metadata  map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CreatedAt time.Time              `gorm:"not null" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
