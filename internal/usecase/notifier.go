package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/metrics"
	"LeadScout/internal/ports"
	"LeadScout/internal/schema"
)

var messageSchema = schema.Schema{
	Name:        "generate_csm_message",
	Description: "Generate a friendly, informative Slack message for CSMs about a new lead",
	Parameters: schema.Object(map[string]any{
		"greeting":           describedString("Friendly greeting for CSMs"),
		"main_points":        schema.StringArray("Key points about why this lead is valuable"),
		"action_suggestions": schema.StringArray("Suggested actions CSMs can take"),
		"urgency_level": map[string]any{
			"type":        "string",
			"enum":        []string{string(domain.UrgencyHigh), string(domain.UrgencyMedium), string(domain.UrgencyLow)},
			"description": "How urgent is this information",
		},
	}, "greeting", "main_points", "action_suggestions", "urgency_level"),
}

const messagePrompt = `Generate a friendly, informative Slack message for Customer Success Managers about this lead:

Company: %s
Title: %s
Description: %s

Value Types: %s
Suggested Actions: %s

Additional Context:
- Relevance Score: %d
- Value Explanation: %s

Create a message that has a friendly, conversational tone, highlights why this news matters for CSMs,
suggests specific actions, includes relevant financial or organizational insights and stays professional.

Generate the message structure using the generate_csm_message function.`

// Notifier renders an alert for a committed lead and delivers it through the configured sender.
type Notifier struct {
	gen     ports.TextGenerator
	sender  ports.Sender
	metrics *metrics.Recorder
	log     *slog.Logger
}

// NewNotifier wires generation and delivery.
func NewNotifier(gen ports.TextGenerator, sender ports.Sender, rec *metrics.Recorder, log *slog.Logger) *Notifier {
	return &Notifier{gen: gen, sender: sender, metrics: rec, log: logging.OrDiscard(log)}
}

// Notify reports whether the alert was delivered. It never retries.
func (n *Notifier) Notify(ctx context.Context, lead domain.Lead) bool {
	if n.sender == nil {
		n.log.Warn("no notification channel configured", "id", lead.ID)
		return false
	}

	text := n.Compose(ctx, lead)
	if err := n.sender.Send(ctx, text); err != nil {
		n.metrics.Notification(false)
		n.log.Error("notification delivery failed", "id", lead.ID, "url", lead.URL, "error", err)
		return false
	}

	n.metrics.Notification(true)
	n.log.Info("notification delivered", "id", lead.ID, "company", lead.Company)
	return true
}

// Compose returns the generated message, or the fixed fallback when generation fails in any way.
func (n *Notifier) Compose(ctx context.Context, lead domain.Lead) string {
	msg, err := generateInto[domain.Message](ctx, n.gen, alertPrompt(lead), messageSchema)
	if err != nil {
		n.log.Warn("message generation failed, using fallback", "id", lead.ID, "error", err)
		return FallbackMessage(lead)
	}
	return RenderMessage(lead, msg)
}

// RenderMessage formats msg as Slack mrkdwn.
func RenderMessage(lead domain.Lead, msg domain.Message) string {
	var b strings.Builder

	greeting := strings.TrimSpace(msg.Greeting)
	if greeting == "" {
		greeting = "Hi CSM team!"
	}
	b.WriteString(greeting + "\n\n")
	b.WriteString(alertHeader(lead) + "\n\n")

	b.WriteString("*Why this matters:*\n")
	for _, point := range msg.MainPoints {
		b.WriteString("• " + point + "\n")
	}

	b.WriteString("\n*Suggested Actions:*\n")
	for _, action := range msg.ActionSuggestions {
		b.WriteString("📌 " + action + "\n")
	}

	fmt.Fprintf(&b, "\n%s *Urgency Level:* %s", urgencyEmoji(msg.UrgencyLevel), titleCase(string(msg.UrgencyLevel)))
	return b.String()
}

// FallbackMessage depends only on the lead's company, title and url.
func FallbackMessage(lead domain.Lead) string {
	return alertHeader(lead) + "\n\nCheck the article for potential opportunities.\n" + lead.URL
}

func alertHeader(lead domain.Lead) string {
	return fmt.Sprintf("🔍 *New Lead Alert for %s*\n<%s|%s>", lead.Company, lead.URL, lead.Title)
}

func alertPrompt(lead domain.Lead) domain.Prompt {
	return domain.Prompt{
		System: "You are a helpful assistant that creates engaging, actionable Slack messages for Customer Success Managers.",
		User: fmt.Sprintf(messagePrompt,
			lead.Company, lead.Title, lead.Description,
			joinOr(valueTypeStrings(lead.ValueTypes), "None specified"),
			joinOr(lead.ActionItems, "None specified"),
			lead.Score(), lead.ValueExplanation),
	}
}

func urgencyEmoji(u domain.Urgency) string {
	switch u {
	case domain.UrgencyHigh:
		return "🚨"
	case domain.UrgencyMedium:
		return "⚡"
	default:
		return "ℹ️"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func valueTypeStrings(types []domain.ValueType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
