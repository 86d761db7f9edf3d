package analytics

import "time"

// Query names accepted by Service.Run.
const (
	QueryVideosWithChannel    = "videos-with-channel"
	QueryChannelsByVideoCount = "channels-by-video-count"
	QueryTopViewed            = "top-viewed"
	QueryCommentsPerVideo     = "comments-per-video"
	QueryTopLiked             = "top-liked"
	QueryLikesPerChannel      = "likes-per-channel"
	QueryViewsPerChannel      = "views-per-channel"
	QueryPublishedInYear      = "published-in-year"
	QueryAverageDuration      = "average-duration"
	QueryTopCommented         = "top-commented"
)

// Names lists every query in dashboard order.
var Names = []string{
	QueryVideosWithChannel,
	QueryChannelsByVideoCount,
	QueryTopViewed,
	QueryCommentsPerVideo,
	QueryTopLiked,
	QueryLikesPerChannel,
	QueryViewsPerChannel,
	QueryPublishedInYear,
	QueryAverageDuration,
	QueryTopCommented,
}

// TopLimit bounds the "top N" queries.
const TopLimit = 10

type VideoChannel struct {
	Title       string `json:"title"`
	ChannelName string `json:"channel_name"`
}

type ChannelVideoCount struct {
	ChannelName string `json:"channel_name"`
	TotalVideos int64  `json:"total_videos"`
}

// VideoMetric is a video ranked by one counter (views, likes or comments).
type VideoMetric struct {
	Title       string `json:"title"`
	ChannelName string `json:"channel_name"`
	Value       int64  `json:"value"`
}

type VideoComment struct {
	VideoID string `json:"video_id"`
	Text    string `json:"comment_text"`
}

// ChannelMetric is a per-channel total.
type ChannelMetric struct {
	ChannelName string `json:"channel_name"`
	Value       int64  `json:"value"`
}

type PublishedVideo struct {
	Title       string    `json:"title"`
	ChannelName string    `json:"channel_name"`
	PublishedAt time.Time `json:"published_date"`
}

// ChannelDuration is the mean video length of a channel. Videos whose
// duration cannot be parsed are left out of the mean.
type ChannelDuration struct {
	ChannelName  string  `json:"channel_name"`
	AverageHours float64 `json:"average_duration_hours"`
	Videos       int     `json:"videos"`
}

const (
	sqlVideosWithChannel = `SELECT Title, Channel_Name FROM videos ORDER BY Channel_Name, Video_Id`

	sqlChannelsByVideoCount = `SELECT Channel_Name, Total_Videos FROM channels ORDER BY Total_Videos DESC, Channel_Name`

	sqlTopViewed = `SELECT Title, Channel_Name, Views FROM videos WHERE Views IS NOT NULL ORDER BY Views DESC, Video_Id LIMIT $1`

	sqlCommentsPerVideo = `SELECT Video_Id, Comment_Text FROM comments ORDER BY Video_Id, Comment_Id`

	sqlTopLiked = `SELECT Title, Channel_Name, Likes FROM videos WHERE Likes IS NOT NULL ORDER BY Likes DESC, Video_Id LIMIT $1`

	sqlLikesPerChannel = `
SELECT Channel_Name, SUM(Likes) AS Total_Likes
FROM videos
WHERE Likes IS NOT NULL
GROUP BY Channel_Name
ORDER BY Total_Likes DESC, Channel_Name`

	sqlViewsPerChannel = `SELECT Channel_Name, Views FROM channels ORDER BY Views DESC, Channel_Name`

	sqlPublishedBetween = `
SELECT Title, Channel_Name, Published_Date
FROM videos
WHERE Published_Date >= $1 AND Published_Date < $2
ORDER BY Published_Date, Video_Id`

	sqlDurations = `SELECT Channel_Name, Duration FROM videos WHERE Duration IS NOT NULL ORDER BY Channel_Name`

	sqlTopCommented = `SELECT Title, Channel_Name, Comments FROM videos WHERE Comments IS NOT NULL ORDER BY Comments DESC, Video_Id LIMIT $1`
)
