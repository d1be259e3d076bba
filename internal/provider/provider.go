// Package provider defines the contracts shared by the remote text
// generation services.
package provider

import (
	"context"
	stderrors "errors"
	"fmt"

	"complaint-router/internal/common/errors"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the streaming provider.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// UserPrompt builds a single-message request.
func UserPrompt(content string, maxTokens int, temperature float64) ChatRequest {
	return ChatRequest{
		Messages:    []Message{{Role: "user", Content: content}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// StreamGenerator is implemented by the token-authenticated streaming provider.
type StreamGenerator interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, req ChatRequest) (string, error)
}

// PromptGenerator is implemented by the chat completion provider. An empty
// model selects the provider default.
type PromptGenerator interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Error is returned by every provider call that does not yield usable text.
type Error struct {
	Provider string
	Err      *errors.StandardError
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps cause as a provider failure.
func NewError(provider, message string, cause error) *Error {
	return &Error{
		Provider: provider,
		Err:      errors.NewProviderError(message, cause).WithMetadata("provider", provider),
	}
}

func NotConfigured(provider string) *Error {
	return &Error{Provider: provider, Err: errors.NewProviderNotConfiguredError(provider)}
}

// IsNotConfigured reports whether err came from a provider without credentials.
func IsNotConfigured(err error) bool {
	var pe *Error
	return stderrors.As(err, &pe) && pe.Err.Code == errors.ErrCodeProviderNotConfigured
}
