package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-harvest/pkg/youtube"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestService(t *testing.T, api API, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{
		API:   api,
		Store: store,
		Now:   func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

// threeVideoChannel has two playlists over two pages and three uploads over two pages.
func threeVideoChannel(t *testing.T) *fakeAPI {
	api := newFakeAPI()
	api.channels["UC1"] = channelItem(t, "UC1", "Gophers", "UU1")
	api.playlistPages = [][]youtube.PlaylistItem{
		{playlistItem(t, "PL1", "UC1", "Gophers")},
		{playlistItem(t, "PL2", "UC1", "Gophers")},
	}
	api.uploadPages = [][]youtube.PlaylistEntry{
		{uploadEntry(t, "V1"), uploadEntry(t, "V2")},
		{uploadEntry(t, "V3")},
	}
	for _, id := range []string{"V1", "V2", "V3"} {
		api.videos[id] = videoItem(t, id, "UC1", "Gophers")
	}
	api.comments["V1"] = []youtube.CommentThread{commentThread(t, "C1", "V1"), commentThread(t, "C2", "V1")}
	api.comments["V3"] = []youtube.CommentThread{commentThread(t, "C3", "V3")}
	return api
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Config{Store: newFakeStore()})
	assert.Error(t, err)

	_, err = NewService(Config{API: newFakeAPI()})
	assert.Error(t, err)

	svc, err := NewService(Config{API: newFakeAPI(), Store: newFakeStore()})
	require.NoError(t, err)
	assert.EqualValues(t, DefaultCommentPageSize, svc.commentPageSize)
}

func TestHarvest_Counts(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	svc := newTestService(t, api, store)

	report, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)

	assert.Equal(t, StatusHarvested, report.Status)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Playlists)
	assert.Equal(t, 3, report.Videos)
	assert.Equal(t, 3, report.Comments)
	assert.LessOrEqual(t, report.Comments, report.Videos*DefaultCommentPageSize)

	assert.Equal(t, 1, report.Requests[StageChannel])
	assert.Equal(t, 2, report.Requests[StagePlaylists])
	assert.Equal(t, 2, report.Requests[StageVideoIDs])
	assert.Equal(t, 3, report.Requests[StageVideos])
	assert.Equal(t, 3, api.calls["commentThreads"])
	assert.Equal(t, "UU1", api.uploadsListID)
	for _, max := range api.commentMaxes {
		assert.EqualValues(t, DefaultCommentPageSize, max)
	}

	require.Len(t, store.saved, 1)
	h := store.saved[0]
	assert.Equal(t, "UC1", h.Channel.ID)
	assert.Equal(t, fixedNow, h.Channel.LastHarvested)
	assert.Equal(t, report.RunID, h.Channel.HarvestRunID)
	assert.Len(t, h.Playlists, 2)
	assert.Equal(t, []string{"V1", "V2", "V3"}, h.VideoIDs())
	assert.Len(t, h.Comments, 3)

	require.Len(t, report.CommentOutcomes, 3)
	assert.Equal(t, CommentOutcome{VideoID: "V1", Status: CommentsOK, Count: 2}, report.CommentOutcomes[0])
	assert.Equal(t, CommentOutcome{VideoID: "V2", Status: CommentsEmpty, Count: 0}, report.CommentOutcomes[1])
	assert.Equal(t, CommentsOK, report.CommentOutcomes[2].Status)
	assert.Zero(t, report.FailedComments())
}

func TestHarvest_ExistingChannelIsNoOp(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	store.existing["UC1"] = true
	svc := newTestService(t, api, store)

	report, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Equal(t, StatusExists, report.Status)
	assert.Zero(t, api.totalCalls())
	assert.Empty(t, store.saved)
}

func TestHarvest_SecondRunIsNoOp(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	svc := newTestService(t, api, store)

	_, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)
	callsAfterFirst := api.totalCalls()

	report, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Equal(t, StatusExists, report.Status)
	assert.Equal(t, callsAfterFirst, api.totalCalls())
	assert.Len(t, store.saved, 1)
}

func TestHarvest_ChannelNotFound(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	svc := newTestService(t, api, store)

	_, err := svc.Harvest(context.Background(), "UCmissing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelNotFound))
	assert.Equal(t, 1, api.totalCalls())
	assert.Empty(t, store.saved)
}

func TestHarvest_NoPlaylistsAndCommentsDisabled(t *testing.T) {
	api := newFakeAPI()
	api.channels["UC2"] = channelItem(t, "UC2", "Quiet", "UU2")
	api.uploadPages = [][]youtube.PlaylistEntry{{uploadEntry(t, "A"), uploadEntry(t, "B"), uploadEntry(t, "C")}}
	for _, id := range []string{"A", "B", "C"} {
		api.videos[id] = videoItem(t, id, "UC2", "Quiet")
	}
	disabled := &youtube.APIError{Resource: "commentThreads", Status: 403, Reason: youtube.ReasonCommentsDisabled, Message: "disabled"}
	api.commentErrs["A"] = disabled
	api.commentErrs["B"] = disabled
	api.comments["C"] = []youtube.CommentThread{commentThread(t, "CC1", "C")}

	store := newFakeStore()
	svc := newTestService(t, api, store)

	report, err := svc.Harvest(context.Background(), "UC2")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Playlists)
	assert.Equal(t, 3, report.Videos)
	assert.Equal(t, 1, report.Comments)
	assert.Equal(t, 2, report.FailedComments())

	require.Len(t, report.CommentOutcomes, 3)
	assert.Equal(t, CommentsFailed, report.CommentOutcomes[0].Status)
	assert.Equal(t, CommentsFailed, report.CommentOutcomes[1].Status)
	assert.Equal(t, CommentsOK, report.CommentOutcomes[2].Status)

	for _, e := range report.CommentErrors {
		assert.True(t, youtube.HasReason(e, youtube.ReasonCommentsDisabled))
	}

	require.Len(t, store.saved, 1)
	assert.Empty(t, store.saved[0].Playlists)
	assert.Len(t, store.saved[0].Comments, 1)
}

func TestHarvest_SingleCommentFailureIsIsolated(t *testing.T) {
	api := threeVideoChannel(t)
	api.commentErrs["V3"] = errors.New("connection reset")
	store := newFakeStore()
	svc := newTestService(t, api, store)

	report, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Videos)
	assert.Equal(t, 2, report.Comments)
	require.Len(t, report.CommentErrors, 1)
	assert.Equal(t, "V3", report.CommentErrors[0].VideoID)

	outcome := report.CommentOutcomes[2]
	assert.Equal(t, CommentsFailed, outcome.Status)
	var fetchErr *CommentFetchError
	require.True(t, errors.As(outcome.Err, &fetchErr))
	assert.Equal(t, "V3", fetchErr.VideoID)

	for _, c := range store.saved[0].Comments {
		assert.NotEqual(t, "V3", c.VideoID)
	}
}

func TestHarvest_PlaylistFailureAbortsRun(t *testing.T) {
	api := threeVideoChannel(t)
	api.playlistErr = &youtube.APIError{Resource: "playlists", Status: 403, Reason: youtube.ReasonQuotaExceeded}
	store := newFakeStore()
	svc := newTestService(t, api, store)

	_, err := svc.Harvest(context.Background(), "UC1")
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StagePlaylists, stageErr.Stage)
	assert.True(t, youtube.HasReason(err, youtube.ReasonQuotaExceeded))
	assert.Zero(t, api.calls["videos"])
	assert.Empty(t, store.saved)
}

func TestHarvest_VideoFailureAbortsRun(t *testing.T) {
	api := threeVideoChannel(t)
	api.videoErr = errors.New("boom")
	store := newFakeStore()
	svc := newTestService(t, api, store)

	_, err := svc.Harvest(context.Background(), "UC1")
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageVideos, stageErr.Stage)
	assert.Zero(t, api.calls["commentThreads"])
	assert.Empty(t, store.saved)
}

func TestHarvest_UnresolvedVideoIsSkipped(t *testing.T) {
	api := threeVideoChannel(t)
	delete(api.videos, "V2")
	store := newFakeStore()
	svc := newTestService(t, api, store)

	report, err := svc.Harvest(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Videos)
	assert.Equal(t, 3, api.calls["videos"])
	assert.Equal(t, []string{"V1", "V3"}, store.saved[0].VideoIDs())

	// Comments are still requested for every harvested id.
	assert.Equal(t, 3, api.calls["commentThreads"])
	require.Len(t, report.CommentOutcomes, 3)
	assert.Equal(t, CommentOutcome{VideoID: "V2", Status: CommentsEmpty}, report.CommentOutcomes[1])
}

func TestHarvest_StoreFailure(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	svc := newTestService(t, api, store)

	_, err := svc.Harvest(context.Background(), "UC1")
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageStore, stageErr.Stage)
}

func TestRefresh_ReplacesStagedChannel(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	store.existing["UC1"] = true
	svc := newTestService(t, api, store)

	report, err := svc.Refresh(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Equal(t, StatusHarvested, report.Status)
	assert.Equal(t, []string{"UC1"}, store.deleted)
	assert.Equal(t, []string{"delete UC1", "save UC1"}, store.ops)
	require.Len(t, store.saved, 1)
	assert.Equal(t, 3, report.Videos)
}

func TestRefresh_FailedFetchKeepsStagedChannel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(api *fakeAPI)
	}{
		{"quota exceeded on playlists", func(api *fakeAPI) {
			api.playlistErr = &youtube.APIError{Resource: "playlists", Status: 403, Reason: youtube.ReasonQuotaExceeded}
		}},
		{"video lookup fails", func(api *fakeAPI) { api.videoErr = errors.New("backend error") }},
		{"channel gone", func(api *fakeAPI) { delete(api.channels, "UC1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := threeVideoChannel(t)
			tt.setup(api)
			store := newFakeStore()
			store.existing["UC1"] = true
			store.staged["UC1"] = []string{"OLD1", "OLD2"}
			svc := newTestService(t, api, store)

			_, err := svc.Refresh(context.Background(), "UC1")
			require.Error(t, err)

			assert.Empty(t, store.deleted)
			assert.Empty(t, store.saved)
			assert.True(t, store.existing["UC1"])
			assert.Equal(t, []string{"OLD1", "OLD2"}, store.staged["UC1"])
		})
	}
}

func TestRefresh_DeleteFailureSavesNothing(t *testing.T) {
	api := threeVideoChannel(t)
	store := newFakeStore()
	store.existing["UC1"] = true
	store.delErr = errors.New("mongo unavailable")
	svc := newTestService(t, api, store)

	_, err := svc.Refresh(context.Background(), "UC1")
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageStore, stageErr.Stage)
	assert.Empty(t, store.saved)
	assert.Equal(t, 3, api.calls["commentThreads"])
}
