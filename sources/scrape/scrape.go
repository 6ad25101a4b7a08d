// Package scrape extracts streams straight from public page HTML. It tries
// the canonical watch page, the embed page and the mobile page in turn; the
// first page whose embedded player JSON parses wins.
package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/resolver"
)

const sourceName = "scrape"

const maxPageBytes = 16 << 20

type Source struct {
	client *http.Client
	log    logrus.FieldLogger
}

// New expects a client whose transport injects browser headers; default Go
// client headers get the scrape flagged quickly.
func New(client *http.Client, log logrus.FieldLogger) *Source {
	return &Source{client: client, log: log}
}

func (s *Source) Name() string { return sourceName }

func pageForms(videoID string) []string {
	id := url.QueryEscape(videoID)
	return []string{
		"https://www.youtube.com/watch?v=" + id,
		"https://www.youtube.com/embed/" + id,
		"https://m.youtube.com/watch?v=" + id,
	}
}

func (s *Source) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	var lastErr error

	for _, pageURL := range pageForms(videoID) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		html, err := s.fetch(ctx, pageURL)
		if err != nil {
			lastErr = err
			s.log.WithFields(logrus.Fields{
				"page":  pageURL,
				"error": err,
			}).Debug("Page fetch failed")
			continue
		}

		raw, ok := extractPlayerResponse(html)
		if !ok {
			s.log.WithField("page", pageURL).Debug("No player response in page")
			continue
		}
		parsed, ok := parsePlayerResponse(raw)
		if !ok {
			s.log.WithField("page", pageURL).Debug("Player response had no usable stream")
			continue
		}

		if parsed.VideoID == "" {
			parsed.VideoID = videoID
		}
		if parsed.Thumbnail == "" {
			parsed.Thumbnail = models.DefaultThumbnail(videoID)
		}
		return &models.ResolvedStream{
			VideoID:     parsed.VideoID,
			URL:         parsed.URL,
			Title:       parsed.Title,
			Duration:    parsed.Duration,
			Thumbnail:   parsed.Thumbnail,
			Uploader:    parsed.Uploader,
			ViewCount:   parsed.ViewCount,
			ExtractedAt: time.Now(),
		}, nil
	}

	if lastErr != nil {
		// fetch already classifies status failures; keep that class instead
		// of re-wrapping as transport.
		var srcErr *resolver.SourceError
		if errors.As(lastErr, &srcErr) {
			return nil, srcErr
		}
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonTransport, lastErr)
	}
	return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
}

// ListPlaylist is a degraded enumeration: it scans the playlist page for
// embedded video ids. Titles are not recoverable from the scan; thumbnails
// fall back to the derived default.
func (s *Source) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	pageURL := "https://www.youtube.com/playlist?list=" + url.QueryEscape(playlistID)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		var srcErr *resolver.SourceError
		if errors.As(err, &srcErr) {
			return nil, srcErr
		}
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}

	ids := VideoIDs(html)
	if len(ids) == 0 {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}

	videos := make([]models.VideoSummary, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, models.VideoSummary{
			VideoID:   id,
			Thumbnail: models.DefaultThumbnail(id),
		})
	}
	return videos, nil
}

func (s *Source) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return "", resolver.NewSourceError(sourceName, resolver.ReasonUpstreamStatus,
			&statusError{resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
