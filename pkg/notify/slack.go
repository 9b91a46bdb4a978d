package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okanacar/mailsink/pkg/severity"
)

// SlackMailer posts notifications to a Slack incoming webhook. The
// recipient list is informational only; delivery targets are decided
// by the webhook configuration on the Slack side.
type SlackMailer struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackMailer creates a Slack webhook mailer.
func NewSlackMailer(webhookURL, channel string) *SlackMailer {
	return &SlackMailer{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackMailer) Name() string { return "slack" }

func (s *SlackMailer) Send(ctx context.Context, recipients []string, subject, body string) error {
	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: attachmentColor(subject),
				Title: subject,
				Text:  body,
				Fields: []slackField{
					{Title: "Recipients", Value: strings.Join(recipients, ", "), Short: false},
				},
				Footer: "mailsink",
				Ts:     time.Now().Unix(),
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

// attachmentColor picks the attachment color from the uppercased
// severity name that subjects carry.
func attachmentColor(subject string) string {
	for l := severity.Emergency; l >= severity.Error; l-- {
		if strings.Contains(subject, strings.ToUpper(l.String())) {
			return "#cc0000" // red
		}
	}
	if strings.Contains(subject, strings.ToUpper(severity.Warning.String())) {
		return "#ff9900" // orange
	}
	return "#36a64f" // green
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
