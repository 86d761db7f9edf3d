package domain

import "time"

// Video holds the details of one uploaded video.
//
// Counters are pointers because the API omits them when the owner disables
// them; nil means "not reported", which is different from zero.
type Video struct {
	ChannelName string    `bson:"Channel_Name" json:"channel_name"`
	ChannelID   string    `bson:"Channel_Id" json:"channel_id"`
	ID          string    `bson:"Video_Id" json:"video_id"`
	Title       string    `bson:"Title" json:"title"`
	Tags        []string  `bson:"Tags" json:"tags"`
	Thumbnail   string    `bson:"Thumbnail" json:"thumbnail"`
	Description *string   `bson:"Description" json:"description"`
	PublishedAt time.Time `bson:"Published_Date" json:"published_date"`

	// Duration is the ISO 8601 duration string as reported, e.g. "PT4M13S".
	Duration string `bson:"Duration" json:"duration"`

	Views         *int64 `bson:"Views" json:"views"`
	Likes         *int64 `bson:"Likes" json:"likes"`
	Comments      *int64 `bson:"Comments" json:"comments"`
	FavoriteCount *int64 `bson:"Favorite_Count" json:"favorite_count"`

	Definition    string `bson:"Definition" json:"definition"`
	CaptionStatus string `bson:"Caption_Status" json:"caption_status"`
}

// Comment is a top-level comment on a video. Replies are never harvested.
type Comment struct {
	ID          string    `bson:"Comment_Id" json:"comment_id"`
	VideoID     string    `bson:"Video_Id" json:"video_id"`
	Text        string    `bson:"Comment_Text" json:"comment_text"`
	Author      string    `bson:"Comment_Author" json:"comment_author"`
	PublishedAt time.Time `bson:"Comment_Published" json:"comment_published"`
}
