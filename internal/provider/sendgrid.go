package provider

import (
	"encoding/json"
	"time"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// sendGridEvent is one element of SendGrid's flat event array.
// Custom args set at send time (user_id, log_id) are flattened into
// the event object by the provider.
type sendGridEvent struct {
	Email       string   `json:"email"`
	Event       string   `json:"event"`
	Timestamp   int64    `json:"timestamp"`
	SGMessageID string   `json:"sg_message_id"`
	UserAgent   string   `json:"useragent"`
	IP          string   `json:"ip"`
	URL         string   `json:"url"`
	Reason      string   `json:"reason"`
	UserID      looseInt `json:"user_id"`
	LogID       looseInt `json:"log_id"`
}

// normalizeSendGrid parses SendGrid's native array-of-events body.
// The event name is taken verbatim: SendGrid is configured to post the
// canonical vocabulary directly.
func normalizeSendGrid(rawBody []byte) ([]Payload, error) {
	var events []sendGridEvent
	if err := json.Unmarshal(rawBody, &events); err != nil {
		return nil, &ParseError{Provider: KindSendGrid, Reason: "body is not an event array", Err: err}
	}
	if len(events) == 0 {
		return nil, &ParseError{Provider: KindSendGrid, Reason: "event array is empty"}
	}

	payloads := make([]Payload, 0, len(events))
	for _, ev := range events {
		eventType, err := models.ParseEventType(ev.Event)
		if err != nil {
			return nil, &ParseError{Provider: KindSendGrid, Reason: "unrecognized event type", Err: err}
		}

		metadata := map[string]interface{}{}
		if ev.UserAgent != "" {
			metadata["user_agent"] = ev.UserAgent
		}
		if ev.IP != "" {
			metadata["ip"] = ev.IP
		}
		if ev.URL != "" {
			metadata["url"] = ev.URL
		}
		if ev.Reason != "" {
			metadata["reason"] = ev.Reason
		}
		if ev.SGMessageID != "" {
			metadata["message_id"] = ev.SGMessageID
		}
		metadata["provider"] = string(KindSendGrid)

		var ts *time.Time
		if ev.Timestamp > 0 {
			t := time.Unix(ev.Timestamp, 0).UTC()
			ts = &t
		}

		payloads = append(payloads, Payload{
			UserID:    int64(ev.UserID),
			LogID:     int64(ev.LogID),
			Email:     ev.Email,
			Event:     eventType,
			Timestamp: ts,
			Metadata:  metadata,
			MessageID: ev.SGMessageID,
		})
	}

	return payloads, nil
}
