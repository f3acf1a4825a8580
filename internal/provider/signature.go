package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// verifySendGrid checks a SendGrid-style signature:
// base64(HMAC-SHA256(secret, timestamp || rawBody)) compared in constant
// time against the header-supplied value.
func verifySendGrid(in Signed, secret string) bool {
	if secret == "" || in.Signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(in.Timestamp))
	mac.Write(in.Body)
	expected := mac.Sum(nil)

	supplied, err := base64.StdEncoding.DecodeString(in.Signature)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, supplied)
}

// verifyMailgun checks a Mailgun-style signature:
// hex(HMAC-SHA256(secret, timestamp || token)) compared in constant time.
func verifyMailgun(in Signed, secret string) bool {
	if secret == "" || in.Signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(in.Timestamp))
	mac.Write([]byte(in.Token))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(in.Signature)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, supplied)
}

// verifySES has no HMAC scheme: the SNS envelope parse is the trust
// boundary and authenticity is delegated to the transport (allow-listed
// source). The optional TopicArn pin is checked after normalization.
func verifySES(in Signed, secret string) bool {
	return true
}
