package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

// Kind identifies an email provider whose webhooks we accept
type Kind string

const (
	KindSendGrid Kind = "sendgrid"
	KindMailgun  Kind = "mailgun"
	KindSES      Kind = "ses"
)

// ParseKind parses a route parameter into a provider Kind
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindSendGrid:
		return KindSendGrid, nil
	case KindMailgun:
		return KindMailgun, nil
	case KindSES:
		return KindSES, nil
	}
	return "", fmt.Errorf("unknown provider: %s", name)
}

// Payload is the canonical shape every provider payload normalizes into.
// UserID/LogID come from the custom attribution fields the sender attached
// at send time (custom args, user-variables, message tags); zero means the
// provider did not carry them and the event cannot be attributed.
type Payload struct {
	UserID    int64
	LogID     int64
	Email     string
	Event     models.EventType
	Timestamp *time.Time
	Metadata  map[string]interface{}
	MessageID string
}

// ParseError marks a payload that could not be normalized. On batch
// paths it counts as a single failed item and never aborts siblings.
type ParseError struct {
	Provider Kind
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s payload: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s payload: %s", e.Provider, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Signed carries the raw inputs a provider's signing scheme covers.
// Which fields are populated depends on the provider.
type Signed struct {
	Body      []byte
	Timestamp string
	Token     string
	Signature string
}

// NormalizeFunc converts one raw provider body into canonical payloads.
// SendGrid posts arrays natively, so normalization always yields a slice.
type NormalizeFunc func(rawBody []byte) ([]Payload, error)

// VerifyFunc checks payload authenticity against the configured secret.
// It never returns an error: malformed input is simply unauthentic.
type VerifyFunc func(in Signed, secret string) bool

// Provider binds a Kind to its parsing and verification functions.
// Adding a provider means adding a Kind plus one entry here, not
// editing a shared branch.
type Provider struct {
	Kind      Kind
	Normalize NormalizeFunc
	Verify    VerifyFunc
}

var providers = map[Kind]Provider{
	KindSendGrid: {Kind: KindSendGrid, Normalize: normalizeSendGrid, Verify: verifySendGrid},
	KindMailgun:  {Kind: KindMailgun, Normalize: normalizeMailgun, Verify: verifyMailgun},
	KindSES:      {Kind: KindSES, Normalize: normalizeSES, Verify: verifySES},
}

// For returns the Provider for a Kind
func For(kind Kind) (Provider, bool) {
	p, ok := providers[kind]
	return p, ok
}
