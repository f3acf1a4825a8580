package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

func sesEnvelope(t *testing.T, inner map[string]interface{}) []byte {
	t.Helper()
	message, err := json.Marshal(inner)
	require.NoError(t, err)
	envelope, err := json.Marshal(map[string]interface{}{
		"Type":      "Notification",
		"TopicArn":  "arn:aws:sns:us-east-1:123456789012:delivery-events",
		"Message":   string(message),
		"Timestamp": "2023-11-14T22:13:20Z",
	})
	require.NoError(t, err)
	return envelope
}

func TestNormalizeSES(t *testing.T) {
	body := sesEnvelope(t, map[string]interface{}{
		"eventType": "Bounced",
		"mail": map[string]interface{}{
			"messageId":   "ses-msg-1",
			"destination": []string{"first@example.com", "second@example.com"},
			"tags": map[string][]string{
				"user_id": {"3"},
				"log_id":  {"12"},
			},
		},
		"bounce": map[string]interface{}{
			"bounceType": "Permanent",
			"bouncedRecipients": []map[string]string{
				{"diagnosticCode": "smtp; 550 user unknown"},
			},
		},
	})

	payloads, err := normalizeSES(body)
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	p := payloads[0]
	// eventType is lowercased to match the canonical vocabulary
	assert.Equal(t, models.EventBounced, p.Event)
	// multi-recipient notifications are not fanned out
	assert.Equal(t, "first@example.com", p.Email)
	assert.Equal(t, int64(3), p.UserID)
	assert.Equal(t, int64(12), p.LogID)
	assert.Equal(t, "ses-msg-1", p.MessageID)
	assert.Equal(t, "smtp; 550 user unknown", p.Metadata["reason"])
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:delivery-events", p.Metadata["topic_arn"])
	require.NotNil(t, p.Timestamp)
	assert.Equal(t, "2023-11-14T22:13:20Z", p.Timestamp.Format("2006-01-02T15:04:05Z"))
}

func TestNormalizeSESComplaint(t *testing.T) {
	body := sesEnvelope(t, map[string]interface{}{
		"eventType": "Complained",
		"mail": map[string]interface{}{
			"messageId":   "ses-msg-2",
			"destination": []string{"user@example.com"},
			"tags":        map[string][]string{"user_id": {"3"}, "log_id": {"13"}},
		},
		"complaint": map[string]interface{}{"complaintFeedbackType": "abuse"},
	})

	payloads, err := normalizeSES(body)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, models.EventComplained, payloads[0].Event)
	assert.Equal(t, "abuse", payloads[0].Metadata["reason"])
}

func TestNormalizeSESRejects(t *testing.T) {
	t.Run("outer envelope not json", func(t *testing.T) {
		_, err := normalizeSES([]byte(`not json`))
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindSES, pe.Provider)
	})

	t.Run("empty Message", func(t *testing.T) {
		_, err := normalizeSES([]byte(`{"Type":"Notification","Message":""}`))
		require.Error(t, err)
	})

	t.Run("inner Message not json", func(t *testing.T) {
		_, err := normalizeSES([]byte(`{"Type":"Notification","Message":"{broken"}`))
		require.Error(t, err)
	})

	t.Run("unknown event type", func(t *testing.T) {
		body := sesEnvelope(t, map[string]interface{}{
			"eventType": "Rendering Failure",
			"mail": map[string]interface{}{
				"destination": []string{"user@example.com"},
			},
		})
		_, err := normalizeSES(body)
		require.Error(t, err)
	})

	t.Run("empty destination", func(t *testing.T) {
		body := sesEnvelope(t, map[string]interface{}{
			"eventType": "Delivered",
			"mail":      map[string]interface{}{"destination": []string{}},
		})
		_, err := normalizeSES(body)
		require.Error(t, err)
	})
}

func TestTopicArn(t *testing.T) {
	body := sesEnvelope(t, map[string]interface{}{"eventType": "Delivered"})
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:delivery-events", TopicArn(body))
	assert.Empty(t, TopicArn([]byte(`not json`)))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" SendGrid ")
	require.NoError(t, err)
	assert.Equal(t, KindSendGrid, kind)

	_, err = ParseKind("postmark")
	assert.Error(t, err)
}
