package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"yt-harvest/pkg/domain"
	"yt-harvest/pkg/parser"
	"yt-harvest/pkg/youtube"
)

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func channelItem(t *testing.T, id, name, uploads string) youtube.ChannelItem {
	return decode[youtube.ChannelItem](t, fmt.Sprintf(`{
		"id": %q,
		"snippet": {"title": %q, "description": "about"},
		"contentDetails": {"relatedPlaylists": {"uploads": %q}},
		"statistics": {"viewCount": "100", "subscriberCount": "10", "videoCount": "3"}
	}`, id, name, uploads))
}

func playlistItem(t *testing.T, id, channelID, channelName string) youtube.PlaylistItem {
	return decode[youtube.PlaylistItem](t, fmt.Sprintf(`{
		"id": %q,
		"snippet": {"title": "list %s", "channelId": %q, "channelTitle": %q, "publishedAt": "2023-01-02T03:04:05Z"},
		"contentDetails": {"itemCount": 2}
	}`, id, id, channelID, channelName))
}

func uploadEntry(t *testing.T, videoID string) youtube.PlaylistEntry {
	return decode[youtube.PlaylistEntry](t, fmt.Sprintf(`{
		"id": "pi-%s",
		"snippet": {"title": "t", "resourceId": {"kind": "youtube#video", "videoId": %q}}
	}`, videoID, videoID))
}

func videoItem(t *testing.T, id, channelID, channelName string) youtube.VideoItem {
	return decode[youtube.VideoItem](t, fmt.Sprintf(`{
		"id": %q,
		"snippet": {"channelId": %q, "channelTitle": %q, "title": "video %s", "publishedAt": "2024-05-06T07:08:09Z",
			"thumbnails": {"default": {"url": "https://i.ytimg.com/%s.jpg"}}},
		"contentDetails": {"duration": "PT3M", "definition": "hd", "caption": "false"},
		"statistics": {"viewCount": "42", "likeCount": "4", "commentCount": "2", "favoriteCount": "0"}
	}`, id, channelID, channelName, id, id))
}

func commentThread(t *testing.T, commentID, videoID string) youtube.CommentThread {
	return decode[youtube.CommentThread](t, fmt.Sprintf(`{
		"id": %q,
		"snippet": {"videoId": %q, "topLevelComment": {"id": %q, "snippet": {
			"videoId": %q, "textDisplay": "nice", "authorDisplayName": "gopher", "publishedAt": "2024-05-07T00:00:00Z"}}}
	}`, commentID, videoID, commentID, videoID))
}

// fakeAPI serves canned responses and counts calls per resource.
type fakeAPI struct {
	channels      map[string]youtube.ChannelItem
	playlistPages [][]youtube.PlaylistItem
	uploadPages   [][]youtube.PlaylistEntry
	videos        map[string]youtube.VideoItem
	comments      map[string][]youtube.CommentThread
	commentErrs   map[string]error

	playlistErr error
	videoErr    error

	calls         map[string]int
	commentMaxes  []int64
	uploadsListID string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		channels:    map[string]youtube.ChannelItem{},
		videos:      map[string]youtube.VideoItem{},
		comments:    map[string][]youtube.CommentThread{},
		commentErrs: map[string]error{},
		calls:       map[string]int{},
	}
}

func (f *fakeAPI) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func pageIndex(token string) int {
	if token == "" {
		return 0
	}
	n, _ := strconv.Atoi(token[1:])
	return n
}

func nextToken(i, pages int) string {
	if i+1 >= pages {
		return ""
	}
	return fmt.Sprintf("p%d", i+1)
}

func (f *fakeAPI) ListChannels(ctx context.Context, channelID string, parts ...string) (*youtube.ChannelListResponse, error) {
	f.calls["channels"]++
	resp := &youtube.ChannelListResponse{}
	if item, ok := f.channels[channelID]; ok {
		resp.Items = []youtube.ChannelItem{item}
	}
	return resp, nil
}

func (f *fakeAPI) ListPlaylists(ctx context.Context, channelID, pageToken string, maxResults int64) (*youtube.PlaylistListResponse, error) {
	f.calls["playlists"]++
	if f.playlistErr != nil {
		return nil, f.playlistErr
	}
	if len(f.playlistPages) == 0 {
		return &youtube.PlaylistListResponse{}, nil
	}
	i := pageIndex(pageToken)
	return &youtube.PlaylistListResponse{
		Items:         f.playlistPages[i],
		NextPageToken: nextToken(i, len(f.playlistPages)),
	}, nil
}

func (f *fakeAPI) ListPlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int64) (*youtube.PlaylistItemListResponse, error) {
	f.calls["playlistItems"]++
	f.uploadsListID = playlistID
	if len(f.uploadPages) == 0 {
		return &youtube.PlaylistItemListResponse{}, nil
	}
	i := pageIndex(pageToken)
	return &youtube.PlaylistItemListResponse{
		Items:         f.uploadPages[i],
		NextPageToken: nextToken(i, len(f.uploadPages)),
	}, nil
}

func (f *fakeAPI) ListVideos(ctx context.Context, videoID string, parts ...string) (*youtube.VideoListResponse, error) {
	f.calls["videos"]++
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	resp := &youtube.VideoListResponse{}
	if item, ok := f.videos[videoID]; ok {
		resp.Items = []youtube.VideoItem{item}
	}
	return resp, nil
}

func (f *fakeAPI) ListCommentThreads(ctx context.Context, videoID string, maxResults int64) (*youtube.CommentThreadListResponse, error) {
	f.calls["commentThreads"]++
	f.commentMaxes = append(f.commentMaxes, maxResults)
	if err := f.commentErrs[videoID]; err != nil {
		return nil, err
	}
	return &youtube.CommentThreadListResponse{Items: f.comments[videoID]}, nil
}

// fakeStore records writes in memory.
type fakeStore struct {
	existing map[string]bool
	staged   map[string][]string
	saved    []*domain.Harvest
	deleted  []string
	saveErr  error
	delErr   error

	// ops records writes in order, e.g. "delete UC1", "save UC1".
	ops []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: map[string]bool{}, staged: map[string][]string{}}
}

func (s *fakeStore) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	return s.existing[channelID], nil
}

func (s *fakeStore) SaveHarvest(ctx context.Context, h *domain.Harvest) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ops = append(s.ops, "save "+h.Channel.ID)
	s.saved = append(s.saved, h)
	s.existing[h.Channel.ID] = true
	s.staged[h.Channel.ID] = h.VideoIDs()
	return nil
}

func (s *fakeStore) DeleteChannel(ctx context.Context, channelID string) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.ops = append(s.ops, "delete "+channelID)
	s.deleted = append(s.deleted, channelID)
	delete(s.existing, channelID)
	delete(s.staged, channelID)
	return nil
}

func (s *fakeStore) VideoIDs(ctx context.Context, channelID string) ([]string, error) {
	return s.staged[channelID], nil
}

type fakeFeed struct {
	entries []parser.FeedEntry
	err     error
}

func (f *fakeFeed) Uploads(ctx context.Context, channelID string) ([]parser.FeedEntry, error) {
	return f.entries, f.err
}
