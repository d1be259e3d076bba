// internal/common/auth/iam.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"complaint-router/internal/common/errors"
	httpclient "complaint-router/internal/common/http"
)

const (
	apiKeyGrantType  = "urn:ibm:params:oauth:grant-type:apikey"
	defaultExpiresIn = 3600
)

// Token is the result of one token exchange.
type Token struct {
	AccessToken string
	ExpiresIn   int // seconds
}

// TokenSource performs a token exchange.
type TokenSource interface {
	GetToken(ctx context.Context) (*Token, error)
}

// TokenResponse is the IAM identity endpoint payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Expiration   int64  `json:"expiration"`
}

// IAMClient exchanges an API key for a bearer token.
type IAMClient struct {
	tokenURL   string
	apiKey     string
	httpClient *httpclient.Client
}

func NewIAMClient(tokenURL, apiKey string, timeout time.Duration) *IAMClient {
	return &IAMClient{
		tokenURL:   tokenURL,
		apiKey:     apiKey,
		httpClient: httpclient.NewClient(timeout),
	}
}

// GetToken posts the API key grant. A non-200 status or a response without
// access_token is an AuthError.
func (c *IAMClient) GetToken(ctx context.Context) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", apiKeyGrantType)
	form.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewAuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAuthError(
			fmt.Sprintf("IAM authentication failed: %d", resp.StatusCode),
			fmt.Errorf("%s", httpclient.ReadErrorBody(resp)),
		).WithMetadata("status", resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, errors.NewAuthError("failed to decode token response", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.NewAuthError("failed to obtain access token", nil)
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return &Token{AccessToken: tokenResp.AccessToken, ExpiresIn: expiresIn}, nil
}
