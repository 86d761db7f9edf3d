package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yt-harvest/pkg/httpclient"
)

const uploadsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <id>yt:channel:UC123</id>
 <yt:channelId>UC123</yt:channelId>
 <title>Test Channel</title>
 <entry>
  <id>yt:video:vid1</id>
  <yt:videoId>vid1</yt:videoId>
  <title>First upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=vid1"/>
  <published>2024-03-01T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:vid2</id>
  <title>Second upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=vid2"/>
  <published>2024-03-02T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>something-else</id>
  <title>Not a video</title>
 </entry>
</feed>`

func TestRSSParser_Uploads(t *testing.T) {
	var gotChannel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotChannel = r.URL.Query().Get("channel_id")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(uploadsFeed))
	}))
	defer server.Close()

	p := NewRSSParserWithURL(httpclient.NewClient(httpclient.FeedClient), server.URL)
	entries, err := p.Uploads(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("Uploads failed: %v", err)
	}

	if gotChannel != "UC123" {
		t.Errorf("Expected channel_id UC123, got %q", gotChannel)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].VideoID != "vid1" || entries[1].VideoID != "vid2" {
		t.Errorf("Unexpected video ids: %q, %q", entries[0].VideoID, entries[1].VideoID)
	}
	if entries[0].Title != "First upload" {
		t.Errorf("Expected title 'First upload', got %q", entries[0].Title)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !entries[0].Published.Equal(want) {
		t.Errorf("Expected published %v, got %v", want, entries[0].Published)
	}
}

func TestRSSParser_Uploads_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewRSSParserWithURL(httpclient.NewClient(httpclient.FeedClient), server.URL)
	if _, err := p.Uploads(context.Background(), "UCmissing"); err == nil {
		t.Fatal("Expected error for 404 status, got nil")
	}
}

func TestRSSParser_Uploads_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	p := NewRSSParserWithURL(httpclient.NewClient(httpclient.FeedClient), server.URL)
	if _, err := p.Uploads(context.Background(), "UC123"); err == nil {
		t.Fatal("Expected parse error, got nil")
	}
}
