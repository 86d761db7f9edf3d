package harvest

import (
	"context"
	"errors"
	"fmt"

	"yt-harvest/pkg/parser"
)

// ErrNotHarvested is returned by Stale for a channel with nothing staged.
var ErrNotHarvested = errors.New("channel not harvested")

// FeedSource lists a channel's most recent public uploads.
type FeedSource interface {
	Uploads(ctx context.Context, channelID string) ([]parser.FeedEntry, error)
}

// StaleReport lists feed uploads missing from the staged videos.
type StaleReport struct {
	ChannelID string             `json:"channel_id"`
	InFeed    int                `json:"in_feed"`
	Staged    int                `json:"staged"`
	Missing   []parser.FeedEntry `json:"missing"`
}

// IsStale reports whether any recent upload is missing from the store.
func (r *StaleReport) IsStale() bool {
	return len(r.Missing) > 0
}

// Stale compares the channel's upload feed with what is staged. It spends no
// API quota.
func (s *Service) Stale(ctx context.Context, channelID string) (*StaleReport, error) {
	if s.feed == nil {
		return nil, fmt.Errorf("no feed source configured")
	}

	exists, err := s.store.ChannelExists(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("check channel %s: %w", channelID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotHarvested, channelID)
	}

	staged, err := s.store.VideoIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("staged videos of %s: %w", channelID, err)
	}
	entries, err := s.feed.Uploads(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("upload feed of %s: %w", channelID, err)
	}

	known := make(map[string]struct{}, len(staged))
	for _, id := range staged {
		known[id] = struct{}{}
	}

	report := &StaleReport{
		ChannelID: channelID,
		InFeed:    len(entries),
		Staged:    len(staged),
		Missing:   []parser.FeedEntry{},
	}
	for _, e := range entries {
		if _, ok := known[e.VideoID]; !ok {
			report.Missing = append(report.Missing, e)
		}
	}

	s.log.Info().
		Str("channel_id", channelID).
		Int("in_feed", report.InFeed).
		Int("missing", len(report.Missing)).
		Msg("staleness checked")
	return report, nil
}
