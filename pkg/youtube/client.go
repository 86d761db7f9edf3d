// Package youtube is a thin adapter over the YouTube Data API v3 REST endpoints.
//
// Each call issues exactly one HTTP request and returns the decoded response
// body. There is no retry and no backoff: a failed call surfaces as *APIError.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"yt-harvest/pkg/httpclient"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/metrics"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Default parts requested per resource.
var (
	ChannelParts       = []string{"snippet", "contentDetails", "statistics"}
	PlaylistParts      = []string{"snippet", "contentDetails"}
	PlaylistItemParts  = []string{"snippet"}
	VideoParts         = []string{"snippet", "contentDetails", "statistics"}
	CommentThreadParts = []string{"snippet"}
)

// Config wires a Client.
type Config struct {
	// APIKey is the static developer key. Required.
	APIKey string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// RequestsPerSecond paces requests client-side. 0 means unlimited.
	RequestsPerSecond float64
	// HTTPClient defaults to an APIClient-typed httpclient.
	HTTPClient *httpclient.HTTPClient
	Logger     *zerolog.Logger
}

// Client issues typed requests against the API.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpclient.HTTPClient
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a client authenticated by a static API key.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests per second must be non-negative")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpclient.NewClient(httpclient.APIClient)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	log := logging.Component("youtube")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}, nil
}

// ListChannels calls channels.list for a single channel id.
func (c *Client) ListChannels(ctx context.Context, channelID string, parts ...string) (*ChannelListResponse, error) {
	params := url.Values{}
	params.Set("part", joinParts(parts, ChannelParts))
	params.Set("id", channelID)

	var out ChannelListResponse
	if err := c.get(ctx, "channels", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlaylists calls playlists.list for one page of a channel's playlists.
func (c *Client) ListPlaylists(ctx context.Context, channelID, pageToken string, maxResults int64) (*PlaylistListResponse, error) {
	params := url.Values{}
	params.Set("part", joinParts(nil, PlaylistParts))
	params.Set("channelId", channelID)
	setPaging(params, pageToken, maxResults)

	var out PlaylistListResponse
	if err := c.get(ctx, "playlists", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlaylistItems calls playlistItems.list for one page of a playlist.
func (c *Client) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int64) (*PlaylistItemListResponse, error) {
	params := url.Values{}
	params.Set("part", joinParts(nil, PlaylistItemParts))
	params.Set("playlistId", playlistID)
	setPaging(params, pageToken, maxResults)

	var out PlaylistItemListResponse
	if err := c.get(ctx, "playlistItems", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVideos calls videos.list for a single video id.
func (c *Client) ListVideos(ctx context.Context, videoID string, parts ...string) (*VideoListResponse, error) {
	params := url.Values{}
	params.Set("part", joinParts(parts, VideoParts))
	params.Set("id", videoID)

	var out VideoListResponse
	if err := c.get(ctx, "videos", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCommentThreads calls commentThreads.list for the first page of a video's
// top-level comments. Later pages are never requested.
func (c *Client) ListCommentThreads(ctx context.Context, videoID string, maxResults int64) (*CommentThreadListResponse, error) {
	params := url.Values{}
	params.Set("part", joinParts(nil, CommentThreadParts))
	params.Set("videoId", videoID)
	setPaging(params, "", maxResults)

	var out CommentThreadListResponse
	if err := c.get(ctx, "commentThreads", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs one GET against resource and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.APIRequests.WithLabelValues(resource, "error").Inc()
		return &APIError{Resource: resource, Message: err.Error(), Err: err}
	}

	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/" + resource + "?" + params.Encode()

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		metrics.APIRequests.WithLabelValues(resource, "error").Inc()
		return &APIError{Resource: resource, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		apiErr := newAPIError(resource, err)
		metrics.APIRequests.WithLabelValues(resource, "error").Inc()
		c.log.Debug().
			Str("resource", resource).
			Int("status", apiErr.Status).
			Str("reason", apiErr.Reason).
			Msg("api call failed")
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.APIRequests.WithLabelValues(resource, "error").Inc()
		return &APIError{
			Resource: resource,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("decode response: %v", err),
			Err:      err,
		}
	}

	metrics.APIRequests.WithLabelValues(resource, "ok").Inc()
	return nil
}

func joinParts(parts, defaults []string) string {
	if len(parts) == 0 {
		parts = defaults
	}
	return strings.Join(parts, ",")
}

func setPaging(params url.Values, pageToken string, maxResults int64) {
	if maxResults > 0 {
		params.Set("maxResults", strconv.FormatInt(maxResults, 10))
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
}
