package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// ErrEventNotFound marks a lookup for a webhook event id that does not exist
var ErrEventNotFound = errors.New("webhook event not found")

// Service exposes read-only projections over the webhook event store.
// Every call re-derives from the authoritative store; there is no cache.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EventsByLog returns the full event stream for one delivery, ascending by id
func (s *Service) EventsByLog(ctx context.Context, userID, logID int64) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("log_id = ? AND user_id = ?", logID, userID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events for log %d: %w", logID, err)
	}
	return events, nil
}

// Recent returns the newest events first
func (s *Service) Recent(ctx context.Context, limit, offset int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	return events, nil
}

// ByType returns events of one canonical type, newest first
func (s *Service) ByType(ctx context.Context, eventType models.EventType, limit, offset int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("event_type = ?", string(eventType)).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type %s: %w", eventType, err)
	}
	return events, nil
}

// BySource returns events received through one source endpoint
// (a provider name or "api"), newest first
func (s *Service) BySource(ctx context.Context, source string, limit, offset int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events by source %s: %w", source, err)
	}
	return events, nil
}

// Range returns events whose timestamp falls inside the inclusive bounds
func (s *Service) Range(ctx context.Context, start, end time.Time) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events by time range: %w", err)
	}
	return events, nil
}

// ByID returns one event by its storage-assigned id
func (s *Service) ByID(ctx context.Context, id int64) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := s.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return &event, nil
}

// Stats returns counts-by-type across the whole event log
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	type row struct {
		EventType string
		Count     int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Select("event_type, COUNT(*) as count").
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate event stats: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.EventType] = r.Count
	}
	return stats, nil
}

// Status summarizes the event store for the status endpoint
type Status struct {
	TotalEvents int64      `json:"total_events"`
	OldestEvent *time.Time `json:"oldest_event,omitempty"`
	NewestEvent *time.Time `json:"newest_event,omitempty"`
}

// StoreStatus returns total event count and the stream's time bounds
func (s *Service) StoreStatus(ctx context.Context) (*Status, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.WebhookEvent{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	status := &Status{TotalEvents: total}
	if total == 0 {
		return status, nil
	}

	var oldest, newest models.WebhookEvent
	if err := s.db.WithContext(ctx).Order("timestamp ASC").First(&oldest).Error; err != nil {
		return nil, fmt.Errorf("failed to load oldest event: %w", err)
	}
	if err := s.db.WithContext(ctx).Order("timestamp DESC").First(&newest).Error; err != nil {
		return nil, fmt.Errorf("failed to load newest event: %w", err)
	}
	status.OldestEvent = &oldest.Timestamp
	status.NewestEvent = &newest.Timestamp

	return status, nil
}
