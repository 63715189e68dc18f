package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LeadScout/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Sender posts lead alerts to a Telegram chat via the bot API.
type Sender struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Sender = (*Sender)(nil)

// NewSender registers bot token and chat identifier.
func NewSender(botToken, chatID string) *Sender {
	return &Sender{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Send posts a Slack-formatted alert as a Telegram HTML message.
func (s *Sender) Send(ctx context.Context, text string) error {
	if s.botToken == "" || s.chatID == "" || s.client == nil {
		return fmt.Errorf("telegram sender misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	form := url.Values{}
	form.Set("chat_id", s.chatID)
	form.Set("text", toHTML(text))
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
