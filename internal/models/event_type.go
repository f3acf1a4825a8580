package models

import (
	"fmt"
	"strings"
)

// EventType represents the canonical delivery event vocabulary
type EventType string

const (
	EventSent       EventType = "sent"
	EventDelivered  EventType = "delivered"
	EventOpened     EventType = "opened"
	EventClicked    EventType = "clicked"
	EventBounced    EventType = "bounced"
	EventComplained EventType = "complained"
)

// ParseEventType parses a string into an EventType.
// Returns an error if the event type is unknown; unknown values are
// rejected at the boundary and never stored.
func ParseEventType(name string) (EventType, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	validTypes := []EventType{
		EventSent,
		EventDelivered,
		EventOpened,
		EventClicked,
		EventBounced,
		EventComplained,
	}

	for _, eventType := range validTypes {
		if string(eventType) == name {
			return eventType, nil
		}
	}

	return "", fmt.Errorf("unknown delivery event type: %s", name)
}
