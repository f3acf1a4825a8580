package provider

import (
	"encoding/json"
	"time"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// snsEnvelope is the SNS transport wrapper. Message is itself a
// JSON-encoded string and needs a second parse pass.
type snsEnvelope struct {
	Type      string `json:"Type"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp"`
}

// sesMessage is the inner SES notification carried in the envelope.
type sesMessage struct {
	EventType string `json:"eventType"`
	Mail      struct {
		MessageID   string                `json:"messageId"`
		Destination []string              `json:"destination"`
		Tags        map[string][]looseInt `json:"tags"`
	} `json:"mail"`
	Bounce struct {
		BounceType        string `json:"bounceType"`
		BouncedRecipients []struct {
			DiagnosticCode string `json:"diagnosticCode"`
		} `json:"bouncedRecipients"`
	} `json:"bounce"`
	Complaint struct {
		ComplaintFeedbackType string `json:"complaintFeedbackType"`
	} `json:"complaint"`
}

// normalizeSES unwraps the SNS envelope, re-parses the inner Message
// string, and lowercases eventType to match the canonical vocabulary.
// Multi-recipient notifications are not fanned out: the system tracks
// one log row per send, so only the first destination is taken.
func normalizeSES(rawBody []byte) ([]Payload, error) {
	var envelope snsEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, &ParseError{Provider: KindSES, Reason: "malformed SNS envelope", Err: err}
	}
	if envelope.Message == "" {
		return nil, &ParseError{Provider: KindSES, Reason: "envelope Message is empty"}
	}

	var msg sesMessage
	if err := json.Unmarshal([]byte(envelope.Message), &msg); err != nil {
		return nil, &ParseError{Provider: KindSES, Reason: "inner Message is not valid JSON", Err: err}
	}

	eventType, err := models.ParseEventType(msg.EventType)
	if err != nil {
		return nil, &ParseError{Provider: KindSES, Reason: "unrecognized event type", Err: err}
	}

	if len(msg.Mail.Destination) == 0 {
		return nil, &ParseError{Provider: KindSES, Reason: "mail.destination is empty"}
	}

	metadata := map[string]interface{}{
		"provider": string(KindSES),
	}
	if envelope.TopicArn != "" {
		metadata["topic_arn"] = envelope.TopicArn
	}
	if msg.Mail.MessageID != "" {
		metadata["message_id"] = msg.Mail.MessageID
	}
	if reason := sesFailureReason(&msg, eventType); reason != "" {
		metadata["reason"] = reason
	}

	var ts *time.Time
	if envelope.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, envelope.Timestamp); err == nil {
			t = t.UTC()
			ts = &t
		}
	}

	return []Payload{{
		UserID:    firstTag(msg.Mail.Tags, "user_id"),
		LogID:     firstTag(msg.Mail.Tags, "log_id"),
		Email:     msg.Mail.Destination[0],
		Event:     eventType,
		Timestamp: ts,
		Metadata:  metadata,
		MessageID: msg.Mail.MessageID,
	}}, nil
}

// TopicArn reports the SNS topic the raw body claims to originate from,
// for the optional source pin check.
func TopicArn(rawBody []byte) string {
	var envelope snsEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return ""
	}
	return envelope.TopicArn
}

func sesFailureReason(msg *sesMessage, eventType models.EventType) string {
	switch eventType {
	case models.EventBounced:
		if len(msg.Bounce.BouncedRecipients) > 0 && msg.Bounce.BouncedRecipients[0].DiagnosticCode != "" {
			return msg.Bounce.BouncedRecipients[0].DiagnosticCode
		}
		return msg.Bounce.BounceType
	case models.EventComplained:
		return msg.Complaint.ComplaintFeedbackType
	}
	return ""
}

func firstTag(tags map[string][]looseInt, key string) int64 {
	values := tags[key]
	if len(values) == 0 {
		return 0
	}
	return int64(values[0])
}
