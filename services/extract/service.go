// Package extract is the server-side extraction service: result cache in
// front, yt-dlp as the workhorse, and the public-source resolution chain as
// graceful degradation when yt-dlp itself is blocked.
package extract

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/cache"
	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/validation"
)

type Service interface {
	Extract(ctx context.Context, rawVideoID string) (*models.ResolvedStream, error)
	Playlist(ctx context.Context, rawPlaylistID string, maxResults int) (string, []models.VideoSummary, error)
	Channel(ctx context.Context, rawChannelID string, maxResults int) ([]models.VideoSummary, error)
	ClearCache() int
	CacheSize() int
}

// Runner is the yt-dlp surface the service consumes; narrowed for tests.
type Runner interface {
	Extract(ctx context.Context, videoID string) (*models.ResolvedStream, error)
	Playlist(ctx context.Context, playlistID string, maxResults int) (string, []models.VideoSummary, error)
	Channel(ctx context.Context, channelID string, maxResults int) ([]models.VideoSummary, error)
}

// Fallback is the public-source resolution chain, consulted only after
// yt-dlp fails. May be nil when no fallback sources are configured.
type Fallback interface {
	ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error)
	ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error)
}

type Config struct {
	MaxResults int
}

type service struct {
	cache     *cache.Cache
	runner    Runner
	fallback  Fallback
	validator *validation.Validator
	config    Config
	log       logrus.FieldLogger
}

func NewService(
	resultCache *cache.Cache,
	runner Runner,
	fallback Fallback,
	validator *validation.Validator,
	cfg Config,
	log logrus.FieldLogger,
) Service {
	return &service{
		cache:     resultCache,
		runner:    runner,
		fallback:  fallback,
		validator: validator,
		config:    cfg,
		log:       log,
	}
}

func (s *service) Extract(ctx context.Context, rawVideoID string) (*models.ResolvedStream, error) {
	const op = "ExtractService.Extract"

	// Invalid input never reaches the network.
	videoID, err := s.validator.NormalizeVideoID(rawVideoID)
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{
		"operation": op,
		"video_id":  videoID,
	})

	if stream, ok := s.cache.Get(videoID); ok {
		logger.Info("Returning cached stream")
		return stream, nil
	}

	stream, runnerErr := s.runner.Extract(ctx, videoID)
	if runnerErr == nil && stream.IsPlayable() {
		s.cache.Put(videoID, stream)
		logger.WithField("title", stream.Title).Info("Extracted stream")
		return stream, nil
	}
	logger.WithField("error", runnerErr).Warn("Extraction failed, trying fallback chain")

	if s.fallback != nil {
		stream, err := s.fallback.ResolveVideo(ctx, videoID)
		if err == nil && stream.IsPlayable() {
			// Fallback results are served from the same cache: the caller
			// cannot tell which tier produced the URL, and both expire.
			s.cache.Put(videoID, stream)
			logger.WithField("title", stream.Title).Info("Resolved via fallback chain")
			return stream, nil
		}
		logger.WithField("error", err).Warn("Fallback chain exhausted")
	}

	return nil, errors.Unavailable(op, runnerErr, "Could not extract video URL")
}

func (s *service) Playlist(ctx context.Context, rawPlaylistID string, maxResults int) (string, []models.VideoSummary, error) {
	const op = "ExtractService.Playlist"

	playlistID, err := s.validator.NormalizePlaylistID(rawPlaylistID)
	if err != nil {
		return "", nil, err
	}
	if maxResults <= 0 {
		maxResults = s.config.MaxResults
	}

	logger := s.log.WithFields(logrus.Fields{
		"operation":   op,
		"playlist_id": playlistID,
	})

	title, videos, runnerErr := s.runner.Playlist(ctx, playlistID, maxResults)
	if runnerErr == nil && len(videos) > 0 {
		logger.WithField("count", len(videos)).Info("Fetched playlist")
		return title, videos, nil
	}
	logger.WithField("error", runnerErr).Warn("Playlist fetch failed, trying fallback chain")

	if s.fallback != nil {
		videos, err := s.fallback.ListPlaylist(ctx, playlistID)
		if err == nil && len(videos) > 0 {
			if len(videos) > maxResults {
				videos = videos[:maxResults]
			}
			logger.WithField("count", len(videos)).Info("Listed playlist via fallback chain")
			return "", videos, nil
		}
		logger.WithField("error", err).Warn("Fallback chain exhausted for playlist")
	}

	return "", nil, errors.Unavailable(op, runnerErr, "Could not fetch playlist")
}

func (s *service) Channel(ctx context.Context, rawChannelID string, maxResults int) ([]models.VideoSummary, error) {
	const op = "ExtractService.Channel"

	channelID, err := s.validator.NormalizeChannelID(rawChannelID)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = s.config.MaxResults
	}

	videos, err := s.runner.Channel(ctx, channelID, maxResults)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"operation":  op,
			"channel_id": channelID,
			"error":      err,
		}).Error("Channel fetch failed")
		return nil, errors.Unavailable(op, err, "Could not fetch channel videos")
	}
	return videos, nil
}

func (s *service) ClearCache() int {
	n := s.cache.Clear()
	s.log.WithField("evicted", n).Info("Cache cleared")
	return n
}

func (s *service) CacheSize() int {
	return s.cache.Len()
}
