package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/booking-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Integration.PushGatewayURL = srv.URL + "/push"
	cfg.Integration.SMSGatewayURL = srv.URL + "/sms"
	cfg.Integration.GatewayToken = "secret"

	logger := zerolog.Nop()
	return NewClient(cfg, &logger)
}

func TestSendSMS(t *testing.T) {
	var got SMSMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sms", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := client.SendSMS(context.Background(), SMSMessage{To: "+46700000000", Body: "New job #5"})

	require.NoError(t, err)
	assert.Equal(t, SMSMessage{To: "+46700000000", Body: "New job #5"}, got)
}

func TestSendPush(t *testing.T) {
	var got PushMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/push", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	err := client.SendPush(context.Background(), PushMessage{UserID: 9, Title: "New job", Body: "Job #5"})

	require.NoError(t, err)
	assert.Equal(t, int64(9), got.UserID)
	assert.Equal(t, "New job", got.Title)
}

func TestSendSMS_GatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "number blocked", http.StatusUnprocessableEntity)
	})

	err := client.SendSMS(context.Background(), SMSMessage{To: "+46700000000", Body: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "number blocked")
}
