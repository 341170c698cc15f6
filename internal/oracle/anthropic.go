// Package oracle is the client for the text-classification service. It
// sends one context document per call under a call-site system prompt and
// turns the reply into a structured document, keeping malformed replies
// (ParseError) distinct from transport failures (ErrTransport).
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	anthropicVersion = "2023-06-01"
)

// Classifier classifies a context document under an intent.
type Classifier interface {
	Classify(ctx context.Context, intent Intent, document string) (map[string]any, error)
}

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Anthropic classifies documents with the Anthropic Messages API. It makes
// exactly one request and one parse attempt per call.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewAnthropic creates a classifier backed by the Messages API.
func NewAnthropic(cfg AnthropicConfig, logger *slog.Logger) *Anthropic {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		logger:     logger,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Classify sends document as the only user turn and parses the reply.
func (c *Anthropic) Classify(ctx context.Context, intent Intent, document string) (map[string]any, error) {
	text, err := c.complete(ctx, intent, document)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(text)
	if err != nil {
		c.logger.Warn("classifier reply not parseable", "intent", intent.Name, "error", err)
		return nil, err
	}
	return doc, nil
}

func (c *Anthropic) complete(ctx context.Context, intent Intent, document string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: %w: missing api key", ErrTransport, ErrNotConfigured)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       c.model,
		MaxTokens:   intent.MaxTokens,
		Temperature: intent.Temperature,
		System:      intent.Prompt,
		Messages:    []anthropicMessage{{Role: "user", Content: document}},
	})
	if err != nil {
		return "", fmt.Errorf("oracle: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readProviderError(resp)
	}

	var wire anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrTransport, err)
	}

	var text strings.Builder
	for _, block := range wire.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	c.logger.Debug("classifier replied",
		"intent", intent.Name,
		"model", wire.Model,
		"stop_reason", wire.StopReason,
		"duration", time.Since(start))
	return text.String(), nil
}

// readProviderError reads {"error":{"type":"...","message":"..."}} bodies,
// falling back to the raw body text.
func readProviderError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &ProviderError{
			StatusCode: resp.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}
	return &ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
}
