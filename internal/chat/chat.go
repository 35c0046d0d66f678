// Package chat answers animal and species questions through a hosted
// language model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SystemPrompt scopes the assistant to animal and species topics.
const SystemPrompt = "You are a specialized chatbot that answers questions about animals and species. " +
	"You can provide information about habitat, diet, conservation status, behavior, physical characteristics, " +
	"and other animal-related facts. If a user asks about something unrelated to animals or species, " +
	"politely remind them that you specialize in species-related queries only. " +
	"Be friendly, informative, and accurate in your responses."

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
	defaultTimeout     = 30 * time.Second
)

// Completer produces a reply to a single user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Kind classifies a provider failure.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotConfigured
	KindInvalidKey
	KindQuota
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindInvalidKey:
		return "invalid_key"
	case KindQuota:
		return "quota"
	case KindEmpty:
		return "empty"
	case KindUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified provider failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "chat: " + e.Kind.String()
	}
	return fmt.Sprintf("chat: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Fallback returns the sentence shown to the user for a failure kind.
func Fallback(k Kind) string {
	switch k {
	case KindNotConfigured:
		return "I apologize, but the chatbot service is not configured. Please add OPENAI_API_KEY to your .env file."
	case KindInvalidKey:
		return "I apologize, but there's an issue with the API key. Please check OPENAI_API_KEY in your .env file."
	case KindQuota:
		return "I apologize, but the API quota has been exceeded. Please try again later."
	case KindEmpty:
		return "I apologize, but I couldn't generate a response. Please try again."
	case KindUnavailable:
		return "I apologize, but I'm experiencing technical difficulties. Please try again later."
	}
	return Fallback(KindUnavailable)
}

// Service relays user messages to a Completer.
type Service struct {
	completer Completer
	timeout   time.Duration
}

// NewService creates a Service. A nil completer means no provider is
// configured and every reply is the not-configured sentence.
func NewService(c Completer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{completer: c, timeout: timeout}
}

// Configured reports whether a provider is available.
func (s *Service) Configured() bool {
	return s.completer != nil
}

// Reply answers the trimmed message. Classified provider failures become a fallback
// sentence with a nil error; only unexpected failures return an error.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	if s.completer == nil {
		return Fallback(KindNotConfigured), nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.completer.Complete(ctx, SystemPrompt, strings.TrimSpace(message))
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return Fallback(ce.Kind), nil
		}
		return "", err
	}

	return reply, nil
}
