// Package embedded wraps the kkdai/youtube client as the last-resort
// extraction source. It is slower and more fragile than the mirror tiers,
// but independent of any third-party instance staying up.
package embedded

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/pkg/errors"

	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/resolver"
)

const sourceName = "embedded"

type Source struct {
	client *youtube.Client
}

// New expects an HTTP client whose transport injects browser headers to
// keep upstream bot detection quiet.
func New(httpClient *http.Client) *Source {
	return &Source{
		client: &youtube.Client{HTTPClient: httpClient},
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) ResolveVideo(ctx context.Context, videoID string) (stream *models.ResolvedStream, err error) {
	// The library can panic on unexpected upstream payloads; nothing below
	// the orchestrator may crash a resolution, so convert to a failure.
	defer func() {
		if r := recover(); r != nil {
			stream = nil
			err = resolver.NewSourceError(sourceName, resolver.ReasonMalformed,
				errors.Errorf("library panic: %v", r))
		}
	}()

	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}

	if video.HLSManifestURL != "" {
		return s.stream(video, videoID, video.HLSManifestURL), nil
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}
	// Highest resolution first; sort is stable so equal heights keep their
	// first-seen order.
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Height > formats[j].Height
	})

	streamURL, err := s.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, err)
	}
	if streamURL == "" {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}

	return s.stream(video, videoID, streamURL), nil
}

func (s *Source) stream(video *youtube.Video, videoID, streamURL string) *models.ResolvedStream {
	thumb := models.DefaultThumbnail(videoID)
	if len(video.Thumbnails) > 0 {
		thumb = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return &models.ResolvedStream{
		VideoID:     videoID,
		URL:         streamURL,
		Title:       video.Title,
		Duration:    int64(video.Duration / time.Second),
		Thumbnail:   thumb,
		Uploader:    video.Author,
		ViewCount:   int64(video.Views),
		ExtractedAt: time.Now(),
	}
}

func (s *Source) ListPlaylist(ctx context.Context, playlistID string) (videos []models.VideoSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			videos = nil
			err = resolver.NewSourceError(sourceName, resolver.ReasonMalformed,
				errors.Errorf("library panic: %v", r))
		}
	}()

	playlist, err := s.client.GetPlaylistContext(ctx, playlistID)
	if err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}
	if len(playlist.Videos) == 0 {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}

	videos = make([]models.VideoSummary, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		thumb := models.DefaultThumbnail(entry.ID)
		if len(entry.Thumbnails) > 0 {
			thumb = entry.Thumbnails[len(entry.Thumbnails)-1].URL
		}
		videos = append(videos, models.VideoSummary{
			VideoID:   entry.ID,
			Title:     entry.Title,
			Thumbnail: thumb,
		})
	}
	return videos, nil
}
