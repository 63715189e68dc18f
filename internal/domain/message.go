package domain

// Prompt is a system+user message pair for a generation call.
type Prompt struct {
	System string
	User   string
}

// Urgency is the notifier's three-level urgency scale.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Message is the structured alert produced by the generation step.
type Message struct {
	Greeting          string   `json:"greeting"`
	MainPoints        []string `json:"main_points"`
	ActionSuggestions []string `json:"action_suggestions"`
	UrgencyLevel      Urgency  `json:"urgency_level"`
}
