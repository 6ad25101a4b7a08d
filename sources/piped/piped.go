// Package piped extracts streams through Piped API mirrors.
package piped

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/mirror"
	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/resolver"
	"github.com/jjutv/tubesource/sources/quality"
	"github.com/jjutv/tubesource/validation"
)

const sourceName = "piped"

type Source struct {
	endpoints []string
	client    *http.Client
	log       logrus.FieldLogger
}

func New(endpoints []string, client *http.Client, log logrus.FieldLogger) *Source {
	return &Source{endpoints: endpoints, client: client, log: log}
}

func (s *Source) Name() string { return sourceName }

type streamsResponse struct {
	Title        string        `json:"title"`
	Duration     int64         `json:"duration"`
	Thumbnail    string        `json:"thumbnailUrl"`
	Uploader     string        `json:"uploader"`
	Views        int64         `json:"views"`
	HLS          string        `json:"hls"`
	VideoStreams []videoStream `json:"videoStreams"`
}

type videoStream struct {
	URL       string `json:"url"`
	Quality   string `json:"quality"`
	VideoOnly bool   `json:"videoOnly"`
}

func (s *Source) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	body, endpoint, ok := mirror.First(ctx, s.log, s.endpoints, func(ctx context.Context, base string) (*http.Response, error) {
		return s.get(ctx, base+"/streams/"+url.PathEscape(videoID))
	})
	if !ok {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			resolver.ErrMirrorsExhausted)
	}

	var resp streamsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonMalformed, err)
	}

	streamURL := pickStreamURL(&resp)
	if streamURL == "" {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}

	s.log.WithFields(logrus.Fields{
		"mirror":   endpoint,
		"video_id": videoID,
	}).Debug("Piped stream resolved")

	return &models.ResolvedStream{
		VideoID:     videoID,
		URL:         streamURL,
		Title:       resp.Title,
		Duration:    resp.Duration,
		Thumbnail:   resp.Thumbnail,
		Uploader:    resp.Uploader,
		ViewCount:   resp.Views,
		ExtractedAt: time.Now(),
	}, nil
}

// pickStreamURL prefers the HLS manifest, which supports adaptive bitrate
// playback, over any single progressive file. Among progressive candidates
// the highest resolution wins, ties by first-seen order.
func pickStreamURL(resp *streamsResponse) string {
	if resp.HLS != "" {
		return resp.HLS
	}

	labels := make([]string, 0, len(resp.VideoStreams))
	urls := make([]string, 0, len(resp.VideoStreams))
	for _, vs := range resp.VideoStreams {
		if vs.VideoOnly || vs.URL == "" {
			continue
		}
		labels = append(labels, vs.Quality)
		urls = append(urls, vs.URL)
	}
	if i := quality.BestIndex(labels); i >= 0 {
		return urls[i]
	}
	return ""
}

type playlistResponse struct {
	Name           string          `json:"name"`
	RelatedStreams []relatedStream `json:"relatedStreams"`
}

type relatedStream struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

func (s *Source) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	body, _, ok := mirror.First(ctx, s.log, s.endpoints, func(ctx context.Context, base string) (*http.Response, error) {
		return s.get(ctx, base+"/playlists/"+url.PathEscape(playlistID))
	})
	if !ok {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			resolver.ErrMirrorsExhausted)
	}

	var resp playlistResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonMalformed, err)
	}

	videos := make([]models.VideoSummary, 0, len(resp.RelatedStreams))
	for _, rs := range resp.RelatedStreams {
		id := videoIDFromWatchURL(rs.URL)
		if id == "" {
			continue
		}
		thumb := rs.Thumbnail
		if thumb == "" {
			thumb = models.DefaultThumbnail(id)
		}
		videos = append(videos, models.VideoSummary{
			VideoID:   id,
			Title:     rs.Title,
			Thumbnail: thumb,
		})
	}
	if len(videos) == 0 {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}
	return videos, nil
}

// videoIDFromWatchURL recovers the video id from the relative watch URLs
// Piped returns ("/watch?v=...").
func videoIDFromWatchURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	id := u.Query().Get("v")
	if !validation.IsVideoID(id) {
		return ""
	}
	return id
}

func (s *Source) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}
