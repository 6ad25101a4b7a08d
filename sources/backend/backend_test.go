package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjutv/tubesource/resolver"
)

func TestResolveVideoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/extract", r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("video_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"video_id": "dQw4w9WgXcQ",
			"url": "https://cdn/hls.m3u8",
			"title": "Never Gonna Give You Up",
			"duration": 212,
			"uploader": "Rick Astley"
		}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	stream, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/hls.m3u8", stream.URL)
	assert.Equal(t, "Never Gonna Give You Up", stream.Title)
	assert.Equal(t, int64(212), stream.Duration)
	assert.True(t, stream.IsPlayable())
}

func TestResolveVideoExtractionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "error": "Video unavailable"}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, sourceName, srcErr.Source)
	assert.Equal(t, resolver.ReasonNoStream, srcErr.Reason)
	assert.Contains(t, err.Error(), "Video unavailable")
}

func TestResolveVideoSuccessWithoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "video_id": "dQw4w9WgXcQ", "url": ""}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonNoStream, srcErr.Reason)
}

func TestResolveVideoMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error page</html>`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonMalformed, srcErr.Reason)
}

func TestResolveVideoUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonUpstreamStatus, srcErr.Reason)
}

func TestResolveVideoServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := New(srv.URL, &http.Client{}, 50)

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonTransport, srcErr.Reason)
}

func TestListPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/playlist", r.URL.Path)
		assert.Equal(t, "PLabc123def456ghi", r.URL.Query().Get("playlist_id"))
		assert.Equal(t, "25", r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(`{
			"success": true,
			"videos": [
				{"video_id": "dQw4w9WgXcQ", "title": "one"},
				{"video_id": "aaaaaaaaaaa", "title": "two"}
			]
		}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 25)

	videos, err := s.ListPlaylist(context.Background(), "PLabc123def456ghi")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "dQw4w9WgXcQ", videos[0].VideoID)
}

func TestListChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/channel/@blippi", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "videos": [{"video_id": "dQw4w9WgXcQ", "title": "t"}]}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	videos, err := s.ListChannel(context.Background(), "@blippi")
	require.NoError(t, err)
	require.Len(t, videos, 1)
}

func TestGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "groups": [{"id": 1, "name": "Bedtime"}]}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	groups, err := s.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Bedtime", groups[0].Name)
}

func TestClearCache(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	s := New(srv.URL, srv.Client(), 50)

	require.NoError(t, s.ClearCache(context.Background()))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/cache/clear", path)
}

func TestHealthy(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer up.Close()
	assert.True(t, New(up.URL, up.Client(), 50).Healthy(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	assert.False(t, New(down.URL, down.Client(), 50).Healthy(context.Background()))
}
