// Package notify delivers push and SMS notifications to translators
// through the notification provider's HTTP gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deppfellow/booking-api/internal/config"
	"github.com/deppfellow/booking-api/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Channel names used in metrics and logs.
const (
	ChannelPush = "push"
	ChannelSMS  = "sms"
)

// PushMessage is a push notification addressed to a single user.
type PushMessage struct {
	UserID  int64          `json:"user_id"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data,omitempty"`
	Sound   string         `json:"sound,omitempty"`
	Expires int64          `json:"expires_at,omitempty"`
}

// SMSMessage is a text message to one phone number.
type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Client posts notifications to the gateway endpoints.
type Client struct {
	pushURL string
	smsURL  string
	token   string
	http    *http.Client
	logger  *zerolog.Logger
}

// NewClient creates a gateway client from the integration config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		pushURL: cfg.Integration.PushGatewayURL,
		smsURL:  cfg.Integration.SMSGatewayURL,
		token:   cfg.Integration.GatewayToken,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// SendPush delivers msg through the push gateway.
func (c *Client) SendPush(ctx context.Context, msg PushMessage) error {
	err := c.post(ctx, c.pushURL, msg)
	metrics.RecordNotification(ChannelPush, err)
	return err
}

// SendSMS delivers msg through the SMS gateway.
func (c *Client) SendSMS(ctx context.Context, msg SMSMessage) error {
	err := c.post(ctx, c.smsURL, msg)
	metrics.RecordNotification(ChannelSMS, err)
	return err
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "gateway request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Msg("notification delivered")

	return nil
}
