// Package backend is the client for the authoritative extraction server,
// the only source in the chain considered reliable. The server performs the
// actual extraction and owns the result cache; this client just speaks its
// JSON API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/resolver"
)

const sourceName = "backend"

type Source struct {
	baseURL    string
	client     *http.Client
	maxResults int
}

func New(baseURL string, client *http.Client, maxResults int) *Source {
	return &Source{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     client,
		maxResults: maxResults,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	var resp models.ExtractResponse
	q := url.Values{"video_id": {videoID}}
	if err := s.getJSON(ctx, "/api/extract?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			errors.New(orUnknown(resp.Error)))
	}
	stream := resp.Stream()
	if stream == nil {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream, resolver.ErrNoStream)
	}
	return stream, nil
}

func (s *Source) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	q := url.Values{
		"playlist_id": {playlistID},
		"max_results": {strconv.Itoa(s.maxResults)},
	}
	var resp models.ListResponse
	if err := s.getJSON(ctx, "/api/playlist?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			errors.New(orUnknown(resp.Error)))
	}
	return resp.Videos, nil
}

// ListChannel enumerates a channel's recent uploads via the backend.
func (s *Source) ListChannel(ctx context.Context, channel string) ([]models.VideoSummary, error) {
	q := url.Values{"max_results": {strconv.Itoa(s.maxResults)}}
	var resp models.ListResponse
	path := "/api/channel/" + url.PathEscape(channel) + "?" + q.Encode()
	if err := s.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resolver.NewSourceError(sourceName, resolver.ReasonNoStream,
			errors.New(orUnknown(resp.Error)))
	}
	return resp.Videos, nil
}

// Groups fetches the configured video groups from the backend.
func (s *Source) Groups(ctx context.Context) ([]models.VideoGroup, error) {
	var resp models.GroupsResponse
	if err := s.getJSON(ctx, "/api/groups", &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// ClearCache asks the backend to drop its result cache.
func (s *Source) ClearCache(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/cache/clear", nil)
	if err != nil {
		return errors.Wrap(err, "build cache clear request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resolver.NewSourceError(sourceName, resolver.ReasonUpstreamStatus,
			fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// Healthy probes the backend liveness endpoint; any 2xx is healthy.
func (s *Source) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (s *Source) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "build backend request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resolver.NewSourceError(sourceName, resolver.ReasonTransport, err)
	}

	// The backend reports extraction failures as JSON with success=false,
	// some behind non-2xx statuses. Prefer the typed body when it decodes.
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return resolver.NewSourceError(sourceName, resolver.ReasonUpstreamStatus,
				fmt.Errorf("status %d", resp.StatusCode))
		}
		return resolver.NewSourceError(sourceName, resolver.ReasonMalformed, err)
	}
	return nil
}

func orUnknown(msg string) string {
	if msg == "" {
		return "extraction failed"
	}
	return msg
}
