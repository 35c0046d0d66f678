package chat

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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// OpenAIClient calls the OpenAI chat completions endpoint.
type OpenAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	temperature float64
	maxTokens   int

	// Overridable for testing.
	baseURL string
}

// NewOpenAIClient creates an OpenAI client from cfg.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	c := &OpenAIClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		baseURL:     cfg.BaseURL,
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultOpenAIBaseURL
	}
	return c
}

// Complete sends one system and one user message and returns the first
// choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()

	body, err := json.Marshal(openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newError(KindUnavailable, fmt.Errorf("request failed: %w", err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindUnavailable, fmt.Errorf("reading response: %w", err))
	}

	var parsed openAIResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil && resp.StatusCode == http.StatusOK {
			return "", newError(KindUnavailable, fmt.Errorf("parsing response: %w", err))
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyOpenAI(resp.StatusCode, parsed.Error)
	}

	if len(parsed.Choices) == 0 {
		return "", newError(KindEmpty, fmt.Errorf("no choices returned"))
	}
	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", newError(KindEmpty, fmt.Errorf("empty completion"))
	}

	slog.Debug("chat completion", "provider", ProviderOpenAI, "model", c.model,
		"duration", time.Since(start), "reply_len", len(reply))
	return reply, nil
}

// classifyOpenAI maps an error response to a Kind by status and error code.
func classifyOpenAI(status int, apiErr *openAIError) *Error {
	var code, msg string
	if apiErr != nil {
		code, msg = apiErr.Code, apiErr.Message
	}
	err := fmt.Errorf("status %d: %s", status, msg)

	switch {
	case status == http.StatusUnauthorized, code == "invalid_api_key":
		return newError(KindInvalidKey, err)
	case status == http.StatusTooManyRequests, code == "insufficient_quota", code == "rate_limit_exceeded":
		return newError(KindQuota, err)
	default:
		return newError(KindUnavailable, err)
	}
}
