// Package resolver turns video and playlist identifiers into playable
// streams by walking an ordered chain of extraction sources.
package resolver

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/models"
)

// Extractor is one upstream source. Implementations must absorb their own
// transport, status and parse failures and report them as errors from these
// methods; they must never panic across this boundary.
type Extractor interface {
	Name() string
	ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error)
	ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error)
}

// Resolver tries its extractors strictly in declared order and returns the
// first success. Sequential by design: fan-out would multiply load on public
// mirrors and the deployment targets are small boxes.
type Resolver struct {
	extractors []Extractor
	log        logrus.FieldLogger
}

func New(log logrus.FieldLogger, extractors ...Extractor) *Resolver {
	return &Resolver{extractors: extractors, log: log}
}

// Sources returns the names of the configured extractors in priority order.
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}

// ResolveVideo walks the chain for a single canonical video id. Each source
// runs to completion before the next begins; the only non-source failure is
// context cancellation.
func (r *Resolver) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	for _, e := range r.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stream, err := e.ResolveVideo(ctx, videoID)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"source":   e.Name(),
				"video_id": videoID,
				"error":    err,
			}).Warn("Source failed, trying next")
			continue
		}
		if !stream.IsPlayable() {
			// A source must not report success with an empty URL; treat it
			// as if it had returned no stream.
			r.log.WithFields(logrus.Fields{
				"source":   e.Name(),
				"video_id": videoID,
			}).Warn("Source returned unplayable stream, trying next")
			continue
		}

		r.log.WithFields(logrus.Fields{
			"source":   e.Name(),
			"video_id": videoID,
		}).Info("Resolved video")
		return stream, nil
	}

	return nil, ErrAllSourcesExhausted
}

// ListPlaylist walks the chain for playlist enumeration. Sources that do not
// support listing report an error and are skipped.
func (r *Resolver) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	for _, e := range r.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		videos, err := e.ListPlaylist(ctx, playlistID)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"source":      e.Name(),
				"playlist_id": playlistID,
				"error":       err,
			}).Warn("Source failed to list playlist, trying next")
			continue
		}
		if len(videos) == 0 {
			continue
		}

		r.log.WithFields(logrus.Fields{
			"source":      e.Name(),
			"playlist_id": playlistID,
			"count":       len(videos),
		}).Info("Listed playlist")
		return videos, nil
	}

	return nil, ErrAllSourcesExhausted
}
