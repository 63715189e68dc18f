package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
	"LeadScout/internal/schema"
)

// ChatGPTClient implements ports.TextGenerator backed by OpenAI-compatible chat completions.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.TextGenerator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatGPTClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice *toolChoice   `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate returns the assistant's free-text reply.
func (c *ChatGPTClient) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	resp, err := c.complete(ctx, chatRequest{
		Model:    c.model,
		Messages: messages(prompt),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chatgpt returned empty content")
	}
	return text, nil
}

// GenerateStructured forces a single function call named after s and returns its validated arguments.
func (c *ChatGPTClient) GenerateStructured(ctx context.Context, prompt domain.Prompt, s schema.Schema) (json.RawMessage, error) {
	choice := &toolChoice{Type: "function"}
	choice.Function.Name = s.Name

	resp, err := c.complete(ctx, chatRequest{
		Model:    c.model,
		Messages: messages(prompt),
		Tools: []chatTool{{
			Type: "function",
			Function: toolFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		}},
		ToolChoice: choice,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, domain.ErrNoStructuredOutput
	}

	call := resp.Choices[0].Message.ToolCalls[0].Function
	if call.Name != s.Name {
		return nil, fmt.Errorf("%w: unexpected function %q", domain.ErrNoStructuredOutput, call.Name)
	}

	raw := json.RawMessage(call.Arguments)
	if err := s.Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *ChatGPTClient) complete(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chatgpt response: %w", err)
	}
	return &out, nil
}

func messages(prompt domain.Prompt) []chatMessage {
	out := make([]chatMessage, 0, 2)
	if system := strings.TrimSpace(prompt.System); system != "" {
		out = append(out, chatMessage{Role: "system", Content: system})
	}
	return append(out, chatMessage{Role: "user", Content: prompt.User})
}
