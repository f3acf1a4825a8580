package models

import (
	"time"
)

// DeliveryLog status values. The row itself is owned by the email-sending
// subsystem; this service only moves status and error_message in response
// to provider events.
const (
	StatusQueued  = "queued"
	StatusSent    = "sent"
	StatusBounced = "bounced"
	StatusFailed  = "failed"
)

type DeliveryLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	Email        string    `gorm:"not null" json:"email"`
	Status       string    `gorm:"not null;default:'queued'" json:"status"`
	ErrorMessage *string   `json:"error_message"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
