package harvest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-harvest/pkg/parser"
)

func TestStale_ListsMissingUploads(t *testing.T) {
	store := newFakeStore()
	store.existing["UC1"] = true
	store.staged["UC1"] = []string{"V1", "V2"}
	feed := &fakeFeed{entries: []parser.FeedEntry{
		{VideoID: "V9", Title: "new one"},
		{VideoID: "V2"},
		{VideoID: "V1"},
	}}

	svc, err := NewService(Config{API: newFakeAPI(), Store: store, Feed: feed})
	require.NoError(t, err)

	report, err := svc.Stale(context.Background(), "UC1")
	require.NoError(t, err)
	assert.True(t, report.IsStale())
	assert.Equal(t, 3, report.InFeed)
	assert.Equal(t, 2, report.Staged)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "V9", report.Missing[0].VideoID)
}

func TestStale_UpToDate(t *testing.T) {
	store := newFakeStore()
	store.existing["UC1"] = true
	store.staged["UC1"] = []string{"V1"}
	svc, err := NewService(Config{API: newFakeAPI(), Store: store, Feed: &fakeFeed{entries: []parser.FeedEntry{{VideoID: "V1"}}}})
	require.NoError(t, err)

	report, err := svc.Stale(context.Background(), "UC1")
	require.NoError(t, err)
	assert.False(t, report.IsStale())
	assert.NotNil(t, report.Missing)
}

func TestStale_NotHarvested(t *testing.T) {
	svc, err := NewService(Config{API: newFakeAPI(), Store: newFakeStore(), Feed: &fakeFeed{}})
	require.NoError(t, err)

	_, err = svc.Stale(context.Background(), "UC1")
	assert.True(t, errors.Is(err, ErrNotHarvested))
}

func TestStale_FeedError(t *testing.T) {
	store := newFakeStore()
	store.existing["UC1"] = true
	svc, err := NewService(Config{API: newFakeAPI(), Store: store, Feed: &fakeFeed{err: errors.New("timeout")}})
	require.NoError(t, err)

	_, err = svc.Stale(context.Background(), "UC1")
	assert.Error(t, err)
}

func TestStale_NoFeedConfigured(t *testing.T) {
	svc, err := NewService(Config{API: newFakeAPI(), Store: newFakeStore()})
	require.NoError(t, err)

	_, err = svc.Stale(context.Background(), "UC1")
	assert.Error(t, err)
}
