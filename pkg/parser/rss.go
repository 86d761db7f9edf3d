package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"yt-harvest/pkg/httpclient"
)

// DefaultFeedURL serves the latest uploads of a channel as Atom.
const DefaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

const videoGUIDPrefix = "yt:video:"

// RSSParser handles channel upload feed parsing operations
type RSSParser struct {
	feedParser *gofeed.Parser
	client     *httpclient.HTTPClient
	feedURL    string
}

// NewRSSParser creates a parser against DefaultFeedURL
func NewRSSParser() *RSSParser {
	return NewRSSParserWithURL(httpclient.NewClientWithTimeout(httpclient.FeedClient, 30*time.Second), DefaultFeedURL)
}

// NewRSSParserWithURL creates a parser with a custom client and feed endpoint
func NewRSSParserWithURL(client *httpclient.HTTPClient, feedURL string) *RSSParser {
	return &RSSParser{
		feedParser: gofeed.NewParser(),
		client:     client,
		feedURL:    feedURL,
	}
}

// Uploads fetches and parses the upload feed of a channel.
// The feed only lists the most recent uploads (about 15).
func (p *RSSParser) Uploads(ctx context.Context, channelID string) ([]FeedEntry, error) {
	feedURL := p.feedURL + "?channel_id=" + url.QueryEscape(channelID)

	resp, err := p.client.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code fetching feed: %d", resp.StatusCode)
	}

	feed, err := p.feedParser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := videoID(item)
		if id == "" {
			continue
		}
		entry := FeedEntry{
			VideoID: id,
			Title:   item.Title,
			Link:    item.Link,
		}
		if item.PublishedParsed != nil {
			entry.Published = item.PublishedParsed.UTC()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// videoID prefers the yt:videoId extension and falls back to the entry id.
func videoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if vals := yt["videoId"]; len(vals) > 0 && vals[0].Value != "" {
			return vals[0].Value
		}
	}
	if strings.HasPrefix(item.GUID, videoGUIDPrefix) {
		return strings.TrimPrefix(item.GUID, videoGUIDPrefix)
	}
	return ""
}
