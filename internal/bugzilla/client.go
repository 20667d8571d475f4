// Package bugzilla talks to the Bugzilla REST API: paginated bug search and
// per-bug change history.
package bugzilla

import (
	"time"

	"github.com/gyaneshwarpardhi/trackstats/internal/transport"
)

// Accept is the media type Bugzilla REST responds with.
const Accept = "application/json"

const (
	DefaultMaxAttempts = 10
	DefaultRetryDelay  = 10 * time.Second
)

// Client wraps a transport.Client with Bugzilla endpoints.
type Client struct {
	api         *transport.Client
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets how many times a malformed history payload is requested in
// total and how long to wait between attempts.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// New creates a Client. api must be rooted at the REST base, e.g.
// https://bugzilla.mozilla.org/rest.
func New(api *transport.Client, opts ...Option) *Client {
	c := &Client{
		api:         api,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
