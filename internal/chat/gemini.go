package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls Google's Gemini API through the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGeminiClient creates a Gemini client from cfg.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Complete generates a reply to user under the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr(c.temperature),
			MaxOutputTokens:   c.maxTokens,
		},
	)
	if err != nil {
		return "", classifyGemini(err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", newError(KindEmpty, fmt.Errorf("empty completion"))
	}

	slog.Debug("chat completion", "provider", ProviderGemini, "model", c.model,
		"duration", time.Since(start), "reply_len", len(reply))
	return reply, nil
}

// classifyGemini maps a genai error to a Kind by HTTP status code.
func classifyGemini(err error) *Error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	return newError(kindForStatus(code), err)
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindInvalidKey
	case http.StatusTooManyRequests:
		return KindQuota
	default:
		return KindUnavailable
	}
}
