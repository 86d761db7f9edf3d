package parser

import "time"

// FeedEntry is one upload listed in a channel's public feed
type FeedEntry struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}
