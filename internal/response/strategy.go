package response

import (
	"context"
	"strings"

	"complaint-router/internal/models"
	"complaint-router/internal/prompts"
	"complaint-router/internal/provider"
	"complaint-router/internal/textnorm"
)

const (
	streamMaxTokens   = 300
	streamTemperature = 0.7
)

// Request carries everything a strategy may put into its prompt.
type Request struct {
	Complaint string
	Category  models.Category
	Priority  models.Priority
	Language  string
	Helpline  string
	Info      models.DepartmentInfo
}

func (r Request) promptData() prompts.ReplyData {
	return prompts.ReplyData{
		Helpline:     r.Helpline,
		Complaint:    r.Complaint,
		Category:     string(r.Category),
		Priority:     string(r.Priority),
		Language:     r.Language,
		Department:   r.Info.Department,
		Contact:      r.Info.Contact,
		Emergency:    r.Info.Emergency,
		ResponseTime: r.Info.ResponseTime,
	}
}

// ReplyStrategy produces a reply or an error. Available reports whether the
// strategy should be attempted at all.
type ReplyStrategy interface {
	Name() string
	Available() bool
	Reply(ctx context.Context, req Request) (string, error)
}

// StreamStrategy asks the streaming provider for the reply. Zero MaxTokens
// selects 300 and a nil Temperature selects 0.7.
type StreamStrategy struct {
	Generator   provider.StreamGenerator
	MaxTokens   int
	Temperature *float64
}

func (s StreamStrategy) Name() string { return s.Generator.Name() }

func (s StreamStrategy) Available() bool { return s.Generator != nil && s.Generator.Configured() }

func (s StreamStrategy) Reply(ctx context.Context, req Request) (string, error) {
	prompt, err := prompts.Render(prompts.ReplyStream, req.promptData())
	if err != nil {
		return "", err
	}
	maxTokens, temperature := s.MaxTokens, streamTemperature
	if maxTokens <= 0 {
		maxTokens = streamMaxTokens
	}
	if s.Temperature != nil {
		temperature = *s.Temperature
	}
	return s.Generator.Generate(ctx, provider.UserPrompt(prompt, maxTokens, temperature))
}

// ChatStrategy asks the chat completion provider and cleans its output.
type ChatStrategy struct {
	Generator provider.PromptGenerator
}

func (s ChatStrategy) Name() string { return s.Generator.Name() }

func (s ChatStrategy) Available() bool { return s.Generator != nil && s.Generator.Configured() }

func (s ChatStrategy) Reply(ctx context.Context, req Request) (string, error) {
	prompt, err := prompts.Render(prompts.ReplyChat, req.promptData())
	if err != nil {
		return "", err
	}
	out, err := s.Generator.Generate(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return textnorm.Clean(out), nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
