package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"LeadScout/internal/ports"
)

// Sender posts alerts to a Slack-compatible incoming webhook.
type Sender struct {
	url    string
	client *http.Client
}

var _ ports.Sender = (*Sender)(nil)

type payload struct {
	Text        string `json:"text"`
	UnfurlLinks bool   `json:"unfurl_links"`
	UnfurlMedia bool   `json:"unfurl_media"`
}

// NewSender builds a sender for url. A zero timeout defaults to 5s.
func NewSender(url string, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sender{url: url, client: &http.Client{Timeout: timeout}}
}

// Send delivers text. Any 2xx status counts as delivered.
func (s *Sender) Send(ctx context.Context, text string) error {
	if s.url == "" {
		return fmt.Errorf("webhook url is not configured")
	}

	body, err := json.Marshal(payload{Text: text, UnfurlLinks: true, UnfurlMedia: true})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error %s: %s", resp.Status, bytes.TrimSpace(detail))
	}
	return nil
}
