// Package auth obtains OAuth2 client-credential tokens for outgoing requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ClientCred caches a token and refreshes it once it expires.
type ClientCred struct {
	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewClientCred prepares a token source. No request is made until a token
// is needed.
func NewClientCred(conf Conf) *ClientCred {
	cfg := conf.toOauth2Config()
	return &ClientCred{src: cfg.TokenSource(context.Background())}
}

// Token returns a valid access token, fetching a new one when needed.
func (c *ClientCred) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, err := c.src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return tok, nil
}

// SetAuthHeader adds the bearer token to r.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}
