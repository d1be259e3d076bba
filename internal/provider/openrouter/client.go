// Package openrouter calls the OpenRouter chat completions API.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	httpclient "complaint-router/internal/common/http"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/provider"
)

const Name = "openrouter"

type Config struct {
	APIKey       string
	URL          string
	DefaultModel string
	Referer      string
	Title        string
	MaxTokens    int
	Temperature  *float64 // nil selects 0.7
	Timeout      time.Duration
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type Client struct {
	cfg        Config
	httpClient *httpclient.Client
	logger     logger.Logger
}

func New(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Temperature == nil {
		t := 0.7
		cfg.Temperature = &t
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "deepseek/deepseek-chat"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewClient(cfg.Timeout),
		logger:     logger.ForComponent(log, Name),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.URL != ""
}

// Generate sends prompt as a single user message and returns the raw content
// of the first choice. Callers clean the text themselves.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if !c.Configured() {
		return "", provider.NotConfigured(Name)
	}
	if model == "" {
		model = c.cfg.DefaultModel
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}
	if c.cfg.Referer != "" {
		headers["HTTP-Referer"] = c.cfg.Referer
	}
	if c.cfg.Title != "" {
		headers["X-Title"] = c.cfg.Title
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.URL, headers, chatRequest{
		Model:       model,
		Messages:    []provider.Message{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: *c.cfg.Temperature,
	})
	if err != nil {
		return "", provider.NewError(Name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Chat API returned error status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   httpclient.ReadErrorBody(resp),
		})
		return "", provider.NewError(Name, fmt.Sprintf("API error: %d", resp.StatusCode), nil)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", provider.NewError(Name, "malformed response body", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || out.Choices[0].Message.Content == nil {
		return "", provider.NewError(Name, "response has no choices[0].message.content", nil)
	}
	return *out.Choices[0].Message.Content, nil
}
