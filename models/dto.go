package models

import "time"

// ExtractResponse is the wire form of a single-video extraction, matching
// the backend API contract consumed by the TV client.
type ExtractResponse struct {
	Success     bool   `json:"success"`
	VideoID     string `json:"video_id,omitempty"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Duration    int64  `json:"duration,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Uploader    string `json:"uploader,omitempty"`
	ViewCount   int64  `json:"view_count,omitempty"`
	ExtractedAt string `json:"extracted_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewExtractResponse creates the wire form of a resolved stream.
func NewExtractResponse(s *ResolvedStream) *ExtractResponse {
	return &ExtractResponse{
		Success:     true,
		VideoID:     s.VideoID,
		URL:         s.URL,
		Title:       s.Title,
		Duration:    s.Duration,
		Thumbnail:   s.Thumbnail,
		Uploader:    s.Uploader,
		ViewCount:   s.ViewCount,
		ExtractedAt: s.ExtractedAt.Format(time.RFC3339),
	}
}

// Stream converts a wire response back to the domain form. Returns nil for
// unsuccessful or URL-less payloads.
func (r *ExtractResponse) Stream() *ResolvedStream {
	if r == nil || !r.Success || r.URL == "" {
		return nil
	}
	extractedAt, err := time.Parse(time.RFC3339, r.ExtractedAt)
	if err != nil {
		extractedAt = time.Now()
	}
	return &ResolvedStream{
		VideoID:     r.VideoID,
		URL:         r.URL,
		Title:       r.Title,
		Duration:    r.Duration,
		Thumbnail:   r.Thumbnail,
		Uploader:    r.Uploader,
		ViewCount:   r.ViewCount,
		ExtractedAt: extractedAt,
	}
}

// ListResponse is the wire form of playlist/channel enumeration.
type ListResponse struct {
	Success       bool           `json:"success"`
	PlaylistID    string         `json:"playlist_id,omitempty"`
	PlaylistTitle string         `json:"playlist_title,omitempty"`
	Videos        []VideoSummary `json:"videos"`
	Count         int            `json:"count"`
	Error         string         `json:"error,omitempty"`
}

// GroupsResponse is the wire form of the group listing endpoint.
type GroupsResponse struct {
	Success bool         `json:"success"`
	Groups  []VideoGroup `json:"groups"`
	Count   int          `json:"count"`
}
