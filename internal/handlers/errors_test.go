package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

func getWithKey(t *testing.T, app *fiber.App, path, key string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestErrorsSurfaceRequiresAPIKey(t *testing.T) {
	app, _ := newTestApp(t)

	resp := getWithKey(t, app, "/api/errors/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getWithKey(t, app, "/api/errors/stats", "wrong-key")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = getWithKey(t, app, "/api/errors/stats", testAPIKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorsEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	log := seedLog(t, db, 1, models.StatusSent)

	timestamps := map[string]string{
		"sent":      "2023-11-14T12:00:00Z",
		"delivered": "2023-11-14T12:01:00Z",
		"opened":    "2023-11-14T12:02:00Z",
		"bounced":   "2023-11-14T12:03:00Z",
	}
	for event, ts := range timestamps {
		body := fmt.Sprintf(`{"userId":1,"logId":%d,"email":"user@example.com","event":"%s","timestamp":"%s"}`,
			log.ID, event, ts)
		resp := postJSON(t, app, "/api/webhooks/delivery", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("status", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/status", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].(map[string]interface{})
		assert.Equal(t, float64(4), data["total_events"])
	})

	t.Run("recent", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/recent?limit=2", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].([]interface{})
		assert.Len(t, data, 2)
	})

	t.Run("recent rejects bad limit", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/recent?limit=-1", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("by-level", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/by-level/bounced", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].([]interface{})
		assert.Len(t, data, 1)
	})

	t.Run("by-level rejects unknown", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/by-level/critical", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("by-endpoint", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/by-endpoint/api", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].([]interface{})
		assert.Len(t, data, 4)
	})

	t.Run("stats", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/stats", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["bounced"])
	})

	t.Run("range", func(t *testing.T) {
		resp := getWithKey(t, app,
			"/api/errors/range?startTime=2023-11-14T12:01:00Z&endTime=2023-11-14T12:02:00Z", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeBody(t, resp)["data"].([]interface{})
		assert.Len(t, data, 2)
	})

	t.Run("range rejects invalid dates", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/range?startTime=yesterday&endTime=today", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = getWithKey(t, app, "/api/errors/range?startTime=2023-11-14T12:01:00Z", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = getWithKey(t, app,
			"/api/errors/range?startTime=2023-11-14T12:02:00Z&endTime=2023-11-14T12:01:00Z", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("by id", func(t *testing.T) {
		resp := getWithKey(t, app, "/api/errors/1", testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = getWithKey(t, app, "/api/errors/999", testAPIKey)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = getWithKey(t, app, "/api/errors/abc", testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "disabled", services["rabbitmq"])
}
