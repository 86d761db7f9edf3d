package harvest

import (
	"errors"
	"fmt"
)

// ErrChannelNotFound is returned when channels.list yields no item for the id.
var ErrChannelNotFound = errors.New("channel not found")

// Stage names a step of a harvest run.
type Stage string

const (
	StageChannel   Stage = "channel"
	StagePlaylists Stage = "playlists"
	StageVideoIDs  Stage = "video_ids"
	StageVideos    Stage = "videos"
	StageStore     Stage = "store"
)

// StageError is a failure that aborted a run at the given stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("harvest stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CommentFetchError records a per-video comment failure. It is collected in
// the Report and never aborts a run.
type CommentFetchError struct {
	VideoID string
	Err     error
}

func (e *CommentFetchError) Error() string {
	return fmt.Sprintf("comments for video %s: %v", e.VideoID, e.Err)
}

func (e *CommentFetchError) Unwrap() error { return e.Err }
