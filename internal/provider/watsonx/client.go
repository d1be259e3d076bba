// Package watsonx calls a deployed watsonx.ai service through its streaming
// endpoint, authenticating with a cached IAM bearer token.
package watsonx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "complaint-router/internal/common/http"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/provider"
	"complaint-router/internal/textnorm"
)

const Name = "watsonx"

// TokenProvider hands out bearer tokens. auth.TokenCache implements it.
type TokenProvider interface {
	Get(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

type Config struct {
	APIKey    string
	StreamURL string
	// HeaderTimeout is the longest wait for the response to begin.
	HeaderTimeout time.Duration
}

type Client struct {
	cfg        Config
	tokens     TokenProvider
	httpClient *httpclient.Client
	logger     logger.Logger
}

func New(cfg Config, tokens TokenProvider, log logger.Logger) *Client {
	if cfg.HeaderTimeout <= 0 {
		cfg.HeaderTimeout = 60 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: httpclient.NewStreamingClient(cfg.HeaderTimeout),
		logger:     logger.ForComponent(log, Name),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.StreamURL != "" && c.tokens != nil
}

// Generate sends req and returns the cleaned concatenation of the streamed
// text fragments.
func (c *Client) Generate(ctx context.Context, req provider.ChatRequest) (string, error) {
	if !c.Configured() {
		return "", provider.NotConfigured(Name)
	}

	token, err := c.tokens.Get(ctx)
	if err != nil {
		return "", provider.NewError(Name, "authentication failed", err)
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.StreamURL, map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "text/event-stream",
	}, req)
	if err != nil {
		return "", provider.NewError(Name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate(ctx)
		}
		body := httpclient.ReadErrorBody(resp)
		c.logger.Warn("Streaming API returned error status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   body,
		})
		return "", provider.NewError(Name, fmt.Sprintf("API error: %d", resp.StatusCode), nil)
	}

	text, err := ReadStream(resp.Body)
	if err != nil {
		return "", provider.NewError(Name, "stream error", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", provider.NewError(Name, "empty response", nil)
	}

	return textnorm.Clean(text), nil
}
