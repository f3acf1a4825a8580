package provider

import (
	"encoding/json"
	"time"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// mailgunBody is Mailgun's webhook envelope: a signature block beside
// the event payload nested under "event-data".
type mailgunBody struct {
	Signature mailgunSignature `json:"signature"`
	EventData mailgunEventData `json:"event-data"`
}

type mailgunSignature struct {
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

type mailgunEventData struct {
	Event          string                 `json:"event"`
	Timestamp      float64                `json:"timestamp"`
	Recipient      string                 `json:"recipient"`
	IP             string                 `json:"ip"`
	URL            string                 `json:"url"`
	UserVariables  map[string]looseInt    `json:"user-variables"`
	ClientInfo     mailgunClientInfo      `json:"client-info"`
	Message        mailgunMessage         `json:"message"`
	DeliveryStatus map[string]interface{} `json:"delivery-status"`
}

type mailgunClientInfo struct {
	UserAgent string `json:"user-agent"`
}

type mailgunMessage struct {
	Headers map[string]string `json:"headers"`
}

// ParseSignature extracts only the signature block from a raw Mailgun
// body so verification can run ahead of full normalization.
func ParseSignature(rawBody []byte) (Signed, bool) {
	var body mailgunBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return Signed{}, false
	}
	sig := body.Signature
	if sig.Signature == "" {
		return Signed{}, false
	}
	return Signed{
		Timestamp: sig.Timestamp,
		Token:     sig.Token,
		Signature: sig.Signature,
	}, true
}

// normalizeMailgun parses Mailgun's nested event-data shape. The event
// name is defensively lowercased and trimmed before matching the
// canonical vocabulary. The message id sits at a deeply nested header
// path; a missing id degrades to "unknown" since it is informational only.
func normalizeMailgun(rawBody []byte) ([]Payload, error) {
	var body mailgunBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, &ParseError{Provider: KindMailgun, Reason: "malformed body", Err: err}
	}

	data := body.EventData
	if data.Event == "" {
		return nil, &ParseError{Provider: KindMailgun, Reason: "event-data.event is missing"}
	}

	eventType, err := models.ParseEventType(data.Event)
	if err != nil {
		return nil, &ParseError{Provider: KindMailgun, Reason: "unrecognized event type", Err: err}
	}

	messageID := data.Message.Headers["message-id"]
	if messageID == "" {
		messageID = "unknown"
	}

	metadata := map[string]interface{}{
		"provider":   string(KindMailgun),
		"message_id": messageID,
	}
	if data.ClientInfo.UserAgent != "" {
		metadata["user_agent"] = data.ClientInfo.UserAgent
	}
	if data.IP != "" {
		metadata["ip"] = data.IP
	}
	if data.URL != "" {
		metadata["url"] = data.URL
	}
	if reason := deliveryStatusReason(data.DeliveryStatus); reason != "" {
		metadata["reason"] = reason
	}

	var ts *time.Time
	if data.Timestamp > 0 {
		t := time.Unix(int64(data.Timestamp), 0).UTC()
		ts = &t
	}

	return []Payload{{
		UserID:    int64(data.UserVariables["user_id"]),
		LogID:     int64(data.UserVariables["log_id"]),
		Email:     data.Recipient,
		Event:     eventType,
		Timestamp: ts,
		Metadata:  metadata,
		MessageID: messageID,
	}}, nil
}

// deliveryStatusReason pulls a human-readable failure reason out of
// Mailgun's delivery-status object, preferring description over message.
func deliveryStatusReason(status map[string]interface{}) string {
	if status == nil {
		return ""
	}
	if desc, ok := status["description"].(string); ok && desc != "" {
		return desc
	}
	if msg, ok := status["message"].(string); ok && msg != "" {
		return msg
	}
	return ""
}
