// Package harvest sequences the API calls that collect one channel's metadata
// and hands the result to the document store.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yt-harvest/pkg/domain"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/metrics"
	"yt-harvest/pkg/normalize"
	"yt-harvest/pkg/paginate"
	"yt-harvest/pkg/youtube"
)

// DefaultCommentPageSize caps the top-level comments fetched per video.
const DefaultCommentPageSize = 50

// API is the subset of the YouTube adapter the harvester calls.
type API interface {
	ListChannels(ctx context.Context, channelID string, parts ...string) (*youtube.ChannelListResponse, error)
	ListPlaylists(ctx context.Context, channelID, pageToken string, maxResults int64) (*youtube.PlaylistListResponse, error)
	ListPlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int64) (*youtube.PlaylistItemListResponse, error)
	ListVideos(ctx context.Context, videoID string, parts ...string) (*youtube.VideoListResponse, error)
	ListCommentThreads(ctx context.Context, videoID string, maxResults int64) (*youtube.CommentThreadListResponse, error)
}

// Store is where harvested records are staged.
type Store interface {
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	SaveHarvest(ctx context.Context, h *domain.Harvest) error
	DeleteChannel(ctx context.Context, channelID string) error
	VideoIDs(ctx context.Context, channelID string) ([]string, error)
}

// Status is the terminal state of a run.
type Status string

const (
	StatusHarvested Status = "harvested"
	StatusExists    Status = "exists"
)

// CommentStatus classifies one video's comment fetch.
type CommentStatus string

const (
	CommentsOK     CommentStatus = "ok"
	CommentsEmpty  CommentStatus = "empty"
	CommentsFailed CommentStatus = "failed"
)

// CommentOutcome is the per-video result of the comment stage.
type CommentOutcome struct {
	VideoID string        `json:"video_id"`
	Status  CommentStatus `json:"status"`
	Count   int           `json:"count"`
	Reason  string        `json:"reason,omitempty"`
	Err     error         `json:"-"`
}

// Report summarizes a run.
type Report struct {
	RunID     string `json:"run_id,omitempty"`
	ChannelID string `json:"channel_id"`
	Status    Status `json:"status"`

	Playlists int `json:"playlists"`
	Videos    int `json:"videos"`
	Comments  int `json:"comments"`

	// Requests counts API calls issued per stage.
	Requests map[Stage]int `json:"requests,omitempty"`

	CommentOutcomes []CommentOutcome    `json:"comment_outcomes,omitempty"`
	CommentErrors   []*CommentFetchError `json:"-"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// FailedComments returns the number of videos whose comment fetch failed.
func (r *Report) FailedComments() int {
	return len(r.CommentErrors)
}

// Config wires a Service.
type Config struct {
	API   API
	Store Store

	// CommentPageSize defaults to DefaultCommentPageSize.
	CommentPageSize int64

	// Feed is used by Stale. Optional.
	Feed FeedSource

	Logger *zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs harvests, one channel at a time.
type Service struct {
	api             API
	store           Store
	feed            FeedSource
	commentPageSize int64
	log             zerolog.Logger
	now             func() time.Time
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	pageSize := cfg.CommentPageSize
	if pageSize <= 0 {
		pageSize = DefaultCommentPageSize
	}
	log := logging.Component("harvest")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		api:             cfg.API,
		store:           cfg.Store,
		feed:            cfg.Feed,
		commentPageSize: pageSize,
		log:             log,
		now:             now,
	}, nil
}

// Harvest collects one channel and stages it. If the channel is already
// staged nothing is fetched or written and the report carries StatusExists.
func (s *Service) Harvest(ctx context.Context, channelID string) (*Report, error) {
	exists, err := s.store.ChannelExists(ctx, channelID)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("check channel %s: %w", channelID, err)
	}
	if exists {
		metrics.HarvestRuns.WithLabelValues("exists").Inc()
		s.log.Warn().Str("channel_id", channelID).Msg("channel already harvested, skipping")
		return &Report{ChannelID: channelID, Status: StatusExists}, nil
	}

	report, err := s.run(ctx, channelID, false)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("failed").Inc()
		return report, err
	}
	metrics.HarvestRuns.WithLabelValues("ok").Inc()
	return report, nil
}

// Refresh harvests the channel again and replaces whatever is staged for it.
// The staged documents are deleted only after every API stage has succeeded,
// so a failed refresh leaves the previous harvest in place.
func (s *Service) Refresh(ctx context.Context, channelID string) (*Report, error) {
	report, err := s.run(ctx, channelID, true)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("failed").Inc()
		return report, err
	}
	metrics.HarvestRuns.WithLabelValues("ok").Inc()
	return report, nil
}

// run fetches the whole channel into memory, then stages it. With replace set,
// the channel's previous documents are deleted between the two steps.
func (s *Service) run(ctx context.Context, channelID string, replace bool) (*Report, error) {
	started := s.now()
	report := &Report{
		RunID:     uuid.NewString(),
		ChannelID: channelID,
		Requests:  make(map[Stage]int),
		StartedAt: started,
	}
	log := s.log.With().Str("channel_id", channelID).Str("run_id", report.RunID).Logger()

	channel, err := s.fetchChannel(ctx, channelID, report)
	if err != nil {
		return report, err
	}
	channel.LastHarvested = started.UTC()
	channel.HarvestRunID = report.RunID
	log.Info().Str("channel_name", channel.Name).Msg("channel fetched")

	playlists, err := s.fetchPlaylists(ctx, channelID, report)
	if err != nil {
		return report, err
	}
	log.Info().Int("playlists", len(playlists)).Msg("playlists fetched")

	videoIDs, err := s.fetchVideoIDs(ctx, channel.UploadsPlaylistID, report)
	if err != nil {
		return report, err
	}
	log.Info().Int("video_ids", len(videoIDs)).Msg("upload list fetched")

	videos, err := s.fetchVideos(ctx, videoIDs, report)
	if err != nil {
		return report, err
	}
	log.Info().Int("videos", len(videos)).Msg("video details fetched")

	comments := s.fetchComments(ctx, videoIDs, report, log)
	log.Info().
		Int("comments", len(comments)).
		Int("failed_videos", report.FailedComments()).
		Msg("comments fetched")

	h := &domain.Harvest{
		Channel:   channel,
		Playlists: playlists,
		Videos:    videos,
		Comments:  comments,
	}
	if replace {
		if err := s.store.DeleteChannel(ctx, channelID); err != nil {
			return report, &StageError{Stage: StageStore, Err: fmt.Errorf("delete staged channel: %w", err)}
		}
		log.Info().Msg("previous staging deleted for refresh")
	}
	if err := s.store.SaveHarvest(ctx, h); err != nil {
		return report, &StageError{Stage: StageStore, Err: err}
	}

	report.Status = StatusHarvested
	report.Playlists = len(playlists)
	report.Videos = len(videos)
	report.Comments = len(comments)
	report.Duration = s.now().Sub(started)

	log.Info().
		Int("playlists", report.Playlists).
		Int("videos", report.Videos).
		Int("comments", report.Comments).
		Dur("duration", report.Duration).
		Msg("harvest complete")
	return report, nil
}

func (s *Service) fetchChannel(ctx context.Context, channelID string, report *Report) (domain.Channel, error) {
	report.Requests[StageChannel]++
	resp, err := s.api.ListChannels(ctx, channelID)
	if err != nil {
		return domain.Channel{}, &StageError{Stage: StageChannel, Err: err}
	}
	if len(resp.Items) == 0 {
		return domain.Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	channel, err := normalize.Channel(resp.Items[0])
	if err != nil {
		return domain.Channel{}, &StageError{Stage: StageChannel, Err: err}
	}
	return channel, nil
}

func (s *Service) fetchPlaylists(ctx context.Context, channelID string, report *Report) ([]domain.Playlist, error) {
	items, stats, err := paginate.All(ctx, func(ctx context.Context, token string) (paginate.Page[youtube.PlaylistItem], error) {
		resp, err := s.api.ListPlaylists(ctx, channelID, token, paginate.MaxPageSize)
		if err != nil {
			return paginate.Page[youtube.PlaylistItem]{}, err
		}
		return paginate.Page[youtube.PlaylistItem]{Items: resp.Items, NextToken: resp.NextPageToken}, nil
	})
	report.Requests[StagePlaylists] += stats.Requests
	if err != nil {
		return nil, &StageError{Stage: StagePlaylists, Err: err}
	}

	playlists := make([]domain.Playlist, 0, len(items))
	for _, item := range items {
		p, err := normalize.Playlist(item)
		if err != nil {
			return nil, &StageError{Stage: StagePlaylists, Err: err}
		}
		playlists = append(playlists, p)
	}
	return playlists, nil
}

func (s *Service) fetchVideoIDs(ctx context.Context, uploadsPlaylistID string, report *Report) ([]string, error) {
	if uploadsPlaylistID == "" {
		return nil, &StageError{Stage: StageVideoIDs, Err: &normalize.Error{Kind: "channel", Field: "contentDetails.relatedPlaylists.uploads"}}
	}

	entries, stats, err := paginate.All(ctx, func(ctx context.Context, token string) (paginate.Page[youtube.PlaylistEntry], error) {
		resp, err := s.api.ListPlaylistItems(ctx, uploadsPlaylistID, token, paginate.MaxPageSize)
		if err != nil {
			return paginate.Page[youtube.PlaylistEntry]{}, err
		}
		return paginate.Page[youtube.PlaylistEntry]{Items: resp.Items, NextToken: resp.NextPageToken}, nil
	})
	report.Requests[StageVideoIDs] += stats.Requests
	if err != nil {
		return nil, &StageError{Stage: StageVideoIDs, Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		id := e.VideoID()
		if id == "" {
			return nil, &StageError{Stage: StageVideoIDs, Err: &normalize.Error{Kind: "playlistItem", Field: "snippet.resourceId.videoId"}}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// fetchVideos issues one videos.list call per id. Ids the API no longer
// resolves (deleted or private uploads) contribute no record.
func (s *Service) fetchVideos(ctx context.Context, ids []string, report *Report) ([]domain.Video, error) {
	videos := make([]domain.Video, 0, len(ids))
	for _, id := range ids {
		report.Requests[StageVideos]++
		resp, err := s.api.ListVideos(ctx, id)
		if err != nil {
			return nil, &StageError{Stage: StageVideos, Err: fmt.Errorf("video %s: %w", id, err)}
		}
		for _, item := range resp.Items {
			v, err := normalize.Video(item)
			if err != nil {
				return nil, &StageError{Stage: StageVideos, Err: err}
			}
			videos = append(videos, v)
		}
		if len(resp.Items) == 0 {
			s.log.Debug().Str("video_id", id).Msg("video not returned by api")
		}
	}
	return videos, nil
}

// fetchComments issues one commentThreads.list call per harvested video id,
// including ids whose videos.list returned nothing.
func (s *Service) fetchComments(ctx context.Context, videoIDs []string, report *Report, log zerolog.Logger) []domain.Comment {
	var all []domain.Comment
	for _, id := range videoIDs {
		comments, err := s.commentsFor(ctx, id)
		outcome := CommentOutcome{VideoID: id, Count: len(comments)}
		switch {
		case err != nil:
			fetchErr := &CommentFetchError{VideoID: id, Err: err}
			outcome.Status = CommentsFailed
			outcome.Reason = failureReason(err)
			outcome.Err = fetchErr
			report.CommentErrors = append(report.CommentErrors, fetchErr)
			metrics.CommentFetchFailures.Inc()
			log.Warn().Err(err).Str("video_id", id).Str("reason", outcome.Reason).Msg("comment fetch failed, continuing")
		case len(comments) == 0:
			outcome.Status = CommentsEmpty
		default:
			outcome.Status = CommentsOK
		}
		report.CommentOutcomes = append(report.CommentOutcomes, outcome)
		all = append(all, comments...)
	}
	return all
}

// commentsFor fetches and normalizes the first page of a video's top-level
// comments. Any failure, including a malformed thread, discards the page.
func (s *Service) commentsFor(ctx context.Context, videoID string) ([]domain.Comment, error) {
	resp, err := s.api.ListCommentThreads(ctx, videoID, s.commentPageSize)
	if err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(resp.Items))
	for _, thread := range resp.Items {
		c, err := normalize.Comment(thread)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// failureReason prefers the API's machine-readable reason over the message.
func failureReason(err error) string {
	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) && apiErr.Reason != "" {
		return apiErr.Reason
	}
	return err.Error()
}
