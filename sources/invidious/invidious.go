// Package invidious extracts streams through Invidious API mirrors.
package invidious

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
)

const sourceName = "invidious"

type Source struct {
	endpoints []string
	client    *http.Client
	log       logrus.FieldLogger
}

func New(endpoints []string, client *http.Client, log logrus.FieldLogger) *Source {
	return &Source{endpoints: endpoints, client: client, log: log}
}

func (s *Source) Name() string { return sourceName }

type videoResponse struct {
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	LengthSeconds int64          `json:"lengthSeconds"`
	ViewCount     int64          `json:"viewCount"`
	HLSURL        string         `json:"hlsUrl"`
	FormatStreams []formatStream `json:"formatStreams"`
	Thumbnails    []thumbnail    `json:"videoThumbnails"`
}

type formatStream struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
	Quality    string `json:"qualityLabel"`
}

type thumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

func (s *Source) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	body, _, ok := mirror.First(ctx, s.log, s.endpoints, func(ctx context.Context, base string) (*http.Response, error) {
		return s.get(ctx, base+"/api/v1/videos/"+url.PathEscape(videoID))
	})
	if !ok {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			resolver.ErrMirrorsExhausted)
	}

	var resp videoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonMalformed, err)
	}

	streamURL := pickStreamURL(&resp)
	if streamURL == "" {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}

	return &models.ResolvedStream{
		VideoID:     videoID,
		URL:         streamURL,
		Title:       resp.Title,
		Duration:    resp.LengthSeconds,
		Thumbnail:   bestThumbnail(resp.Thumbnails, videoID),
		Uploader:    resp.Author,
		ViewCount:   resp.ViewCount,
		ExtractedAt: time.Now(),
	}, nil
}

// HLS first; otherwise the best muxed formatStream by resolution, ties by
// first-seen order.
func pickStreamURL(resp *videoResponse) string {
	if resp.HLSURL != "" {
		return resp.HLSURL
	}

	labels := make([]string, 0, len(resp.FormatStreams))
	urls := make([]string, 0, len(resp.FormatStreams))
	for _, fs := range resp.FormatStreams {
		if fs.URL == "" {
			continue
		}
		label := fs.Resolution
		if label == "" {
			label = fs.Quality
		}
		labels = append(labels, label)
		urls = append(urls, fs.URL)
	}
	if i := quality.BestIndex(labels); i >= 0 {
		return urls[i]
	}
	return ""
}

func bestThumbnail(thumbs []thumbnail, videoID string) string {
	for _, t := range thumbs {
		if t.Quality == "high" && t.URL != "" {
			return t.URL
		}
	}
	for _, t := range thumbs {
		if t.URL != "" {
			return t.URL
		}
	}
	return models.DefaultThumbnail(videoID)
}

type playlistResponse struct {
	Title  string `json:"title"`
	Videos []struct {
		VideoID    string      `json:"videoId"`
		Title      string      `json:"title"`
		Thumbnails []thumbnail `json:"videoThumbnails"`
	} `json:"videos"`
}

func (s *Source) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	body, _, ok := mirror.First(ctx, s.log, s.endpoints, func(ctx context.Context, base string) (*http.Response, error) {
		return s.get(ctx, base+"/api/v1/playlists/"+url.PathEscape(playlistID))
	})
	if !ok {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			resolver.ErrMirrorsExhausted)
	}

	var resp playlistResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonMalformed, err)
	}

	videos := make([]models.VideoSummary, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		if v.VideoID == "" {
			continue
		}
		videos = append(videos, models.VideoSummary{
			VideoID:   v.VideoID,
			Title:     v.Title,
			Thumbnail: bestThumbnail(v.Thumbnails, v.VideoID),
		})
	}
	if len(videos) == 0 {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}
	return videos, nil
}

func (s *Source) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}
