// Package normalize maps raw YouTube API items to flat domain records.
//
// Every function is pure. A missing identifier is an *Error; missing optional
// fields become nil or the zero value.
package normalize

import (
	"fmt"
	"strconv"
	"time"

	"yt-harvest/pkg/domain"
	"yt-harvest/pkg/youtube"
)

// Error reports a load-bearing field absent from an otherwise successful response.
type Error struct {
	Kind  string
	Field string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize %s: required field %q missing", e.Kind, e.Field)
}

// Channel flattens a channels.list item.
func Channel(item youtube.ChannelItem) (domain.Channel, error) {
	if item.ID == "" {
		return domain.Channel{}, &Error{Kind: "channel", Field: "id"}
	}

	ch := domain.Channel{ID: item.ID}
	if s := item.Snippet; s != nil {
		ch.Name = s.Title
		ch.Description = s.Description
	}
	if st := item.Statistics; st != nil {
		ch.Subscribers = countOrZero(st.SubscriberCount)
		ch.Views = countOrZero(st.ViewCount)
		ch.TotalVideos = countOrZero(st.VideoCount)
	}
	if cd := item.ContentDetails; cd != nil {
		ch.UploadsPlaylistID = cd.RelatedPlaylists.Uploads
	}
	return ch, nil
}

// Playlist flattens a playlists.list item.
func Playlist(item youtube.PlaylistItem) (domain.Playlist, error) {
	if item.ID == "" {
		return domain.Playlist{}, &Error{Kind: "playlist", Field: "id"}
	}

	pl := domain.Playlist{ID: item.ID}
	if s := item.Snippet; s != nil {
		pl.Title = s.Title
		pl.ChannelID = s.ChannelID
		pl.ChannelName = s.ChannelTitle
		pl.PublishedAt = Timestamp(s.PublishedAt)
	}
	if cd := item.ContentDetails; cd != nil && cd.ItemCount != nil {
		pl.VideoCount = *cd.ItemCount
	}
	return pl, nil
}

// Video flattens a videos.list item.
func Video(item youtube.VideoItem) (domain.Video, error) {
	if item.ID == "" {
		return domain.Video{}, &Error{Kind: "video", Field: "id"}
	}

	v := domain.Video{ID: item.ID}
	if s := item.Snippet; s != nil {
		v.ChannelName = s.ChannelTitle
		v.ChannelID = s.ChannelID
		v.Title = s.Title
		if len(s.Tags) > 0 {
			v.Tags = append([]string(nil), s.Tags...)
		}
		v.Thumbnail = s.Thumbnails["default"].URL
		if s.Description != nil {
			d := *s.Description
			v.Description = &d
		}
		v.PublishedAt = Timestamp(s.PublishedAt)
	}
	if cd := item.ContentDetails; cd != nil {
		v.Duration = cd.Duration
		v.Definition = cd.Definition
		v.CaptionStatus = cd.Caption
	}
	if st := item.Statistics; st != nil {
		v.Views = optionalCount(st.ViewCount)
		v.Likes = optionalCount(st.LikeCount)
		v.Comments = optionalCount(st.CommentCount)
		v.FavoriteCount = optionalCount(st.FavoriteCount)
	}
	return v, nil
}

// Comment flattens the top-level comment of a commentThreads.list item.
func Comment(thread youtube.CommentThread) (domain.Comment, error) {
	if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
		return domain.Comment{}, &Error{Kind: "comment", Field: "snippet.topLevelComment"}
	}
	top := thread.Snippet.TopLevelComment
	if top.ID == "" {
		return domain.Comment{}, &Error{Kind: "comment", Field: "id"}
	}

	c := domain.Comment{ID: top.ID, VideoID: thread.Snippet.VideoID}
	if s := top.Snippet; s != nil {
		if s.VideoID != "" {
			c.VideoID = s.VideoID
		}
		c.Text = s.TextDisplay
		c.Author = s.AuthorDisplayName
		c.PublishedAt = Timestamp(s.PublishedAt)
	}
	return c, nil
}

// Timestamp parses an RFC 3339 timestamp into UTC. Empty or malformed input
// yields the zero time.
func Timestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func optionalCount(s *string) *int64 {
	if s == nil {
		return nil
	}
	n, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func countOrZero(s *string) int64 {
	if n := optionalCount(s); n != nil {
		return *n
	}
	return 0
}
