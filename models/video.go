package models

import (
	"time"
)

// ResolvedStream is the result of a successful extraction: a playable URL
// plus the metadata the player needs. The URL typically expires upstream
// within a few hours; entries are single-use and never refreshed in place.
type ResolvedStream struct {
	VideoID     string    `json:"video_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Duration    int64     `json:"duration,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Uploader    string    `json:"uploader,omitempty"`
	ViewCount   int64     `json:"view_count,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// IsPlayable reports whether the stream carries a usable URL. An entry with
// an empty URL must never be returned as a success.
func (s *ResolvedStream) IsPlayable() bool {
	return s != nil && s.URL != ""
}

// VideoSummary is the lightweight listing form of a video. It never carries
// a resolved stream URL; callers resolve on demand.
type VideoSummary struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// VideoGroup is an ordered, named collection of video summaries. The
// thumbnail is derived from the first member.
type VideoGroup struct {
	Name      string         `json:"name"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	Videos    []VideoSummary `json:"videos"`
}

// Channel is a persisted channel configuration entry.
type Channel struct {
	ID        int64     `json:"id"`
	ChannelID string    `json:"channel_id"`
	Name      string    `json:"channel_name"`
	About     string    `json:"description,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a persisted video group row; Videos are stored separately as
// GroupVideo entries ordered by position.
type Group struct {
	ID         int64     `json:"id"`
	Name       string    `json:"group_name"`
	About      string    `json:"description,omitempty"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	VideoCount int       `json:"video_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// GroupVideo is one video membership inside a group.
type GroupVideo struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"-"`
	VideoID   string    `json:"video_id"`
	Title     string    `json:"video_title"`
	Thumbnail string    `json:"video_thumbnail,omitempty"`
	Position  int       `json:"position"`
	AddedAt   time.Time `json:"added_at"`
}

// Summary converts a group membership row to the listing form.
func (gv *GroupVideo) Summary() VideoSummary {
	return VideoSummary{
		VideoID:   gv.VideoID,
		Title:     gv.Title,
		Thumbnail: gv.Thumbnail,
	}
}

// DefaultThumbnail returns the standard thumbnail URL for a video id, used
// when an upstream response does not carry one.
func DefaultThumbnail(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}
