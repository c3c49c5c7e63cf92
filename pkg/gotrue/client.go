package gotrue

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to a single GoTrue deployment.
type Client struct {
	BaseURL    string
	APIKey     string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a client for the project at baseURL authenticating with
// the public apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithServiceKey returns a copy of the client able to call admin endpoints.
func (c *Client) WithServiceKey(key string) *Client {
	cp := *c
	cp.ServiceKey = key
	return &cp
}

// HasServiceKey reports whether admin endpoints are callable.
func (c *Client) HasServiceKey() bool { return c.ServiceKey != "" }
