package httpclient

import (
	"context"
	"net/http"
	"time"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// APIClient asks for JSON and identifies the harvester.
	// Used for the YouTube Data API.
	APIClient ClientType = "api"

	// FeedClient asks for Atom/RSS. Used for the public channel upload feeds.
	FeedClient ClientType = "feed"
)

const userAgent = "yt-harvest/1.0"

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
}

// NewClient creates a new HTTP client with the specified type.
// No timeout is set; callers bound requests through their context.
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithTimeout(clientType, 0)
}

// NewClientWithTimeout is NewClient with an overall per-request timeout (0 = none).
func NewClientWithTimeout(clientType ClientType, timeout time.Duration) *HTTPClient {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
	}
}

// Do executes an HTTP request with the appropriate headers for the client type
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests bound to ctx
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)

	switch c.clientType {
	case APIClient:
		req.Header.Set("Accept", "application/json")

	case FeedClient:
		req.Header.Set("Accept", "application/atom+xml, application/rss+xml;q=0.9, */*;q=0.5")

	default:
		// Default: User-Agent only
	}
}
