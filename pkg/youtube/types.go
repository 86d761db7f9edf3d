package youtube

// Response shapes of the YouTube Data API v3 as decoded from the wire.
//
// Only the fields the harvester reads are declared. Fields the API may omit
// (statistics hidden by the owner, missing descriptions) are pointers so the
// normalizers can tell "absent" from "zero".

// PageInfo is the paging summary every list response carries.
type PageInfo struct {
	TotalResults   int64 `json:"totalResults"`
	ResultsPerPage int64 `json:"resultsPerPage"`
}

// ChannelListResponse is the body of channels.list.
type ChannelListResponse struct {
	Items         []ChannelItem `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo      `json:"pageInfo"`
}

type ChannelItem struct {
	ID             string                 `json:"id"`
	Snippet        *ChannelSnippet        `json:"snippet,omitempty"`
	ContentDetails *ChannelContentDetails `json:"contentDetails,omitempty"`
	Statistics     *ChannelStatistics     `json:"statistics,omitempty"`
}

type ChannelSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CustomURL   string `json:"customUrl,omitempty"`
	PublishedAt string `json:"publishedAt"`
}

type ChannelContentDetails struct {
	RelatedPlaylists struct {
		Uploads string `json:"uploads"`
	} `json:"relatedPlaylists"`
}

// ChannelStatistics counts are decimal strings on the wire.
type ChannelStatistics struct {
	ViewCount             *string `json:"viewCount,omitempty"`
	SubscriberCount       *string `json:"subscriberCount,omitempty"`
	HiddenSubscriberCount bool    `json:"hiddenSubscriberCount"`
	VideoCount            *string `json:"videoCount,omitempty"`
}

// PlaylistListResponse is the body of playlists.list.
type PlaylistListResponse struct {
	Items         []PlaylistItem `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo       `json:"pageInfo"`
}

type PlaylistItem struct {
	ID             string                  `json:"id"`
	Snippet        *PlaylistSnippet        `json:"snippet,omitempty"`
	ContentDetails *PlaylistContentDetails `json:"contentDetails,omitempty"`
}

type PlaylistSnippet struct {
	Title        string `json:"title"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

type PlaylistContentDetails struct {
	ItemCount *int64 `json:"itemCount,omitempty"`
}

// PlaylistItemListResponse is the body of playlistItems.list.
type PlaylistItemListResponse struct {
	Items         []PlaylistEntry `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo        `json:"pageInfo"`
}

// PlaylistEntry is one element of a playlist (playlistItem resource).
type PlaylistEntry struct {
	ID      string `json:"id"`
	Snippet *struct {
		Title      string `json:"title"`
		ResourceID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
	} `json:"snippet,omitempty"`
	ContentDetails *struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails,omitempty"`
}

// VideoID returns the referenced video id, preferring snippet.resourceId.
func (e PlaylistEntry) VideoID() string {
	if e.Snippet != nil && e.Snippet.ResourceID.VideoID != "" {
		return e.Snippet.ResourceID.VideoID
	}
	if e.ContentDetails != nil {
		return e.ContentDetails.VideoID
	}
	return ""
}

// VideoListResponse is the body of videos.list.
type VideoListResponse struct {
	Items         []VideoItem `json:"items"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo    `json:"pageInfo"`
}

type VideoItem struct {
	ID             string               `json:"id"`
	Snippet        *VideoSnippet        `json:"snippet,omitempty"`
	ContentDetails *VideoContentDetails `json:"contentDetails,omitempty"`
	Statistics     *VideoStatistics     `json:"statistics,omitempty"`
}

type VideoSnippet struct {
	ChannelID    string               `json:"channelId"`
	ChannelTitle string               `json:"channelTitle"`
	Title        string               `json:"title"`
	Description  *string              `json:"description,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails,omitempty"`
	PublishedAt  string               `json:"publishedAt"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

type VideoContentDetails struct {
	Duration   string `json:"duration"`
	Definition string `json:"definition"`
	Caption    string `json:"caption"`
}

type VideoStatistics struct {
	ViewCount     *string `json:"viewCount,omitempty"`
	LikeCount     *string `json:"likeCount,omitempty"`
	CommentCount  *string `json:"commentCount,omitempty"`
	FavoriteCount *string `json:"favoriteCount,omitempty"`
}

// CommentThreadListResponse is the body of commentThreads.list.
type CommentThreadListResponse struct {
	Items         []CommentThread `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo        `json:"pageInfo"`
}

type CommentThread struct {
	ID      string `json:"id"`
	Snippet *struct {
		VideoID         string           `json:"videoId"`
		TopLevelComment *CommentResource `json:"topLevelComment,omitempty"`
		TotalReplyCount int64            `json:"totalReplyCount"`
	} `json:"snippet,omitempty"`
}

type CommentResource struct {
	ID      string `json:"id"`
	Snippet *struct {
		VideoID           string `json:"videoId"`
		TextDisplay       string `json:"textDisplay"`
		AuthorDisplayName string `json:"authorDisplayName"`
		PublishedAt       string `json:"publishedAt"`
	} `json:"snippet,omitempty"`
}
