package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendGridSign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func mailgunSign(secret, timestamp, token string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySendGrid(t *testing.T) {
	secret := "sg-secret"
	timestamp := "1700000000"
	body := []byte(`[{"email":"user@example.com","event":"delivered"}]`)

	valid := Signed{
		Body:      body,
		Timestamp: timestamp,
		Signature: sendGridSign(secret, timestamp, body),
	}

	assert.True(t, verifySendGrid(valid, secret))

	t.Run("wrong secret fails", func(t *testing.T) {
		assert.False(t, verifySendGrid(valid, "other-secret"))
	})

	t.Run("single byte mutation fails", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(valid.Signature)
		require.NoError(t, err)
		raw[0] ^= 0x01
		mutated := valid
		mutated.Signature = base64.StdEncoding.EncodeToString(raw)
		assert.False(t, verifySendGrid(mutated, secret))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		tampered := valid
		tampered.Body = []byte(`[{"email":"user@example.com","event":"bounced"}]`)
		assert.False(t, verifySendGrid(tampered, secret))
	})

	t.Run("tampered timestamp fails", func(t *testing.T) {
		tampered := valid
		tampered.Timestamp = "1700000001"
		assert.False(t, verifySendGrid(tampered, secret))
	})

	t.Run("non-base64 signature returns false", func(t *testing.T) {
		bad := valid
		bad.Signature = "!!not-base64!!"
		assert.False(t, verifySendGrid(bad, secret))
	})

	t.Run("non-utf8 body never panics", func(t *testing.T) {
		bad := valid
		bad.Body = []byte{0xff, 0xfe, 0x00, 0x80}
		assert.False(t, verifySendGrid(bad, secret))
	})

	t.Run("empty signature fails", func(t *testing.T) {
		bad := valid
		bad.Signature = ""
		assert.False(t, verifySendGrid(bad, secret))
	})

	t.Run("empty secret fails", func(t *testing.T) {
		assert.False(t, verifySendGrid(valid, ""))
	})
}

func TestVerifyMailgun(t *testing.T) {
	secret := "mg-secret"
	timestamp := "1700000000"
	token := "a1b2c3d4e5"

	valid := Signed{
		Timestamp: timestamp,
		Token:     token,
		Signature: mailgunSign(secret, timestamp, token),
	}

	assert.True(t, verifyMailgun(valid, secret))

	t.Run("wrong secret fails", func(t *testing.T) {
		assert.False(t, verifyMailgun(valid, "other-secret"))
	})

	t.Run("single byte mutation fails", func(t *testing.T) {
		raw, err := hex.DecodeString(valid.Signature)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0x01
		mutated := valid
		mutated.Signature = hex.EncodeToString(raw)
		assert.False(t, verifyMailgun(mutated, secret))
	})

	t.Run("truncated signature returns false", func(t *testing.T) {
		bad := valid
		bad.Signature = valid.Signature[:10]
		assert.False(t, verifyMailgun(bad, secret))
	})

	t.Run("non-hex signature returns false", func(t *testing.T) {
		bad := valid
		bad.Signature = "zzzz"
		assert.False(t, verifyMailgun(bad, secret))
	})

	t.Run("wrong token fails", func(t *testing.T) {
		bad := valid
		bad.Token = "other-token"
		assert.False(t, verifyMailgun(bad, secret))
	})
}
