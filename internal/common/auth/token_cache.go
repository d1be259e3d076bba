// internal/common/auth/token_cache.go
package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"complaint-router/internal/common/logger"
)

// ExpiryMargin is subtracted from the reported lifetime so a token is never
// used right at its deadline.
const ExpiryMargin = 300 * time.Second

// TokenStore shares tokens between replicas. A miss returns an empty token
// and a nil error.
type TokenStore interface {
	Load(ctx context.Context) (accessToken string, expiresAt time.Time, err error)
	Save(ctx context.Context, accessToken string, expiresAt time.Time) error
	Delete(ctx context.Context) error
}

// TokenCache holds one access token. Readers share an RWMutex; refreshes are
// coalesced so concurrent callers that find the cache empty or expired wait
// on a single exchange and share its result.
type TokenCache struct {
	source TokenSource
	store  TokenStore
	logger logger.Logger
	now    func() time.Time
	onFill func(origin string)

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
}

type Option func(*TokenCache)

func WithStore(store TokenStore) Option {
	return func(c *TokenCache) { c.store = store }
}

func WithLogger(l logger.Logger) Option {
	return func(c *TokenCache) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) { c.now = now }
}

// WithFillHook is called with "exchange" or "store" whenever the cache is
// filled from outside memory.
func WithFillHook(fn func(origin string)) Option {
	return func(c *TokenCache) { c.onFill = fn }
}

func NewTokenCache(source TokenSource, opts ...Option) *TokenCache {
	c := &TokenCache{
		source: source,
		logger: logger.NewNoOpLogger(),
		now:    time.Now,
		onFill: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a valid token, exchanging a new one when the cache is empty or
// expired.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		if tok, ok := c.loadShared(ctx); ok {
			return tok, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token, for example after the provider rejected
// it with 401.
func (c *TokenCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx); err != nil {
			c.logger.Warn("Token store delete failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Expiry reports when the cached token stops being served.
func (c *TokenCache) Expiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" && c.now().Before(c.expiry) {
		return c.token, true
	}
	return "", false
}

func (c *TokenCache) set(token string, expiry time.Time) {
	c.mu.Lock()
	c.token = token
	c.expiry = expiry
	c.mu.Unlock()
}

func (c *TokenCache) loadShared(ctx context.Context) (string, bool) {
	if c.store == nil {
		return "", false
	}
	tok, expiresAt, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("Token store load failed", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	if tok == "" || !c.now().Before(expiresAt) {
		return "", false
	}
	c.set(tok, expiresAt)
	c.onFill("store")
	return tok, true
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	// The exchange serves every waiter, so it must not die with the first
	// caller's request. The source applies its own timeout.
	ctx = context.WithoutCancel(ctx)

	c.logger.Info("Refreshing access token", nil)
	tok, err := c.source.GetToken(ctx)
	if err != nil {
		c.logger.Error("Token exchange failed", map[string]interface{}{"error": err.Error()})
		return "", err
	}

	expiry := c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - ExpiryMargin)
	c.set(tok.AccessToken, expiry)
	c.onFill("exchange")

	if c.store != nil {
		if err := c.store.Save(ctx, tok.AccessToken, expiry); err != nil {
			c.logger.Warn("Token store save failed", map[string]interface{}{"error": err.Error()})
		}
	}

	c.logger.Info("Access token obtained", map[string]interface{}{"expiresAt": expiry.UTC().Format(time.RFC3339)})
	return tok.AccessToken, nil
}
