package domain

import "time"

// Channel represents one harvested channel as stored in the channels collection.
type Channel struct {
	Name        string `bson:"Channel_Name" json:"channel_name"`
	ID          string `bson:"Channel_Id" json:"channel_id"`
	Subscribers int64  `bson:"Subscribers" json:"subscribers"`
	Views       int64  `bson:"Views" json:"views"`
	TotalVideos int64  `bson:"Total_Videos" json:"total_videos"`
	Description string `bson:"Channel_Description" json:"channel_description"`

	// UploadsPlaylistID references the platform-maintained uploads playlist.
	UploadsPlaylistID string `bson:"Playlist_Id" json:"playlist_id"`

	// LastHarvested is when the run that produced this document started.
	LastHarvested time.Time `bson:"Last_Harvested,omitempty" json:"last_harvested,omitempty"`
	HarvestRunID  string    `bson:"Harvest_Run_Id,omitempty" json:"harvest_run_id,omitempty"`
}

// Playlist is one playlist owned by a channel.
// ChannelID and ChannelName are copied from the API response, not checked against Channel.
type Playlist struct {
	ID          string    `bson:"Playlist_Id" json:"playlist_id"`
	Title       string    `bson:"Title" json:"title"`
	ChannelID   string    `bson:"Channel_Id" json:"channel_id"`
	ChannelName string    `bson:"Channel_Name" json:"channel_name"`
	PublishedAt time.Time `bson:"PublishedAt" json:"published_at"`
	VideoCount  int64     `bson:"Video_Count" json:"video_count"`
}
