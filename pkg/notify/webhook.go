package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookMailer posts notifications to a generic HTTP webhook as JSON.
type WebhookMailer struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookMailer creates a generic webhook mailer.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewWebhookMailer(url, secret string) *WebhookMailer {
	return &WebhookMailer{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookMailer) Name() string { return "webhook" }

func (w *WebhookMailer) Send(ctx context.Context, recipients []string, subject, body string) error {
	payload := webhookPayload{
		Event:      "log_notification",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mailsink/1.0")

	if w.secret != "" {
		sig := computeHMAC(data, []byte(w.secret))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

type webhookPayload struct {
	Event      string   `json:"event"`
	Timestamp  string   `json:"timestamp"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
