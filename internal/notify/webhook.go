package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Webhook headers.
const (
	HeaderEventType = "X-Event-Type"
	HeaderEventID   = "X-Event-ID"
	HeaderSignature = "X-Signature"
)

// WebhookPoster delivers workflow webhooks.
type WebhookPoster interface {
	PostWebhook(ctx context.Context, eventType string, payload interface{}) bool
}

// WebhookClient posts JSON payloads to a single workflow endpoint.
type WebhookClient struct {
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookClient returns a client for url. An empty secret disables signing.
func NewWebhookClient(url, secret string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
}

// Sign returns the X-Signature value for body: "sha256=" and the hex HMAC.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// PostWebhook reports whether the endpoint answered 2xx. Failures are logged.
func (w *WebhookClient) PostWebhook(ctx context.Context, eventType string, payload interface{}) bool {
	if w.url == "" {
		return false
	}
	eventID := uuid.NewString()
	logger := log.With().Str("event_type", eventType).Str("event_id", eventID).Logger()

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("webhook payload encoding failed")
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("webhook request build failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, eventType)
	req.Header.Set(HeaderEventID, eventID)
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("webhook delivery failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn().Err(fmt.Errorf("status %d", resp.StatusCode)).Msg("webhook rejected")
		return false
	}
	logger.Debug().Msg("webhook delivered")
	return true
}
