package domain

// Harvest bundles the four record collections produced by one harvest run.
type Harvest struct {
	Channel   Channel
	Playlists []Playlist
	Videos    []Video
	Comments  []Comment
}

// VideoIDs returns the ids of the harvested videos in harvest order.
func (h *Harvest) VideoIDs() []string {
	ids := make([]string, 0, len(h.Videos))
	for _, v := range h.Videos {
		ids = append(ids, v.ID)
	}
	return ids
}
