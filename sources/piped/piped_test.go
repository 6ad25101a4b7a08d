package piped

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjutv/tubesource/resolver"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestResolveVideoPrefersHLS(t *testing.T) {
	srv := jsonServer(t, `{
		"title": "Never Gonna Give You Up",
		"duration": 212,
		"thumbnailUrl": "https://img/t.jpg",
		"uploader": "Rick Astley",
		"views": 1000000,
		"hls": "https://pipedproxy/hls.m3u8",
		"videoStreams": [
			{"url": "https://pipedproxy/1080.mp4", "quality": "1080p", "videoOnly": false}
		]
	}`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	stream, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://pipedproxy/hls.m3u8", stream.URL)
	assert.Equal(t, "Never Gonna Give You Up", stream.Title)
	assert.Equal(t, int64(212), stream.Duration)
	assert.Equal(t, "Rick Astley", stream.Uploader)
	assert.Equal(t, int64(1000000), stream.ViewCount)
	assert.WithinDuration(t, time.Now(), stream.ExtractedAt, time.Minute)
}

func TestResolveVideoPicksBestProgressive(t *testing.T) {
	srv := jsonServer(t, `{
		"title": "T",
		"hls": "",
		"videoStreams": [
			{"url": "https://p/360.mp4", "quality": "360p", "videoOnly": false},
			{"url": "https://p/1080-vo.mp4", "quality": "1080p", "videoOnly": true},
			{"url": "https://p/720.mp4", "quality": "720p", "videoOnly": false},
			{"url": "https://p/720-dup.mp4", "quality": "720p", "videoOnly": false}
		]
	}`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	stream, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	// Video-only streams are unusable, and among equal resolutions the
	// first-seen candidate wins.
	assert.Equal(t, "https://p/720.mp4", stream.URL)
}

func TestResolveVideoFallsToSecondMirror(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()
	alive := jsonServer(t, `{"title":"T","hls":"https://p/hls.m3u8"}`)
	defer alive.Close()

	s := New([]string{dead.URL, alive.URL}, alive.Client(), testLog())

	stream, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://p/hls.m3u8", stream.URL)
}

func TestResolveVideoHTMLMirrorIsSkipped(t *testing.T) {
	landing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>instance retired</body></html>"))
	}))
	defer landing.Close()
	alive := jsonServer(t, `{"title":"T","hls":"https://p/hls.m3u8"}`)
	defer alive.Close()

	s := New([]string{landing.URL, alive.URL}, alive.Client(), testLog())

	stream, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://p/hls.m3u8", stream.URL)
}

func TestResolveVideoAllMirrorsDown(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	s := New([]string{dead.URL}, dead.Client(), testLog())

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, sourceName, srcErr.Source)
	assert.Equal(t, resolver.ReasonNoStream, srcErr.Reason)
	assert.ErrorIs(t, err, resolver.ErrMirrorsExhausted)
}

func TestResolveVideoNoUsableStream(t *testing.T) {
	srv := jsonServer(t, `{"title":"T","hls":"","videoStreams":[]}`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonNoStream, srcErr.Reason)
}

func TestResolveVideoMalformedJSON(t *testing.T) {
	srv := jsonServer(t, `{"title": truncated`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	_, err := s.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonMalformed, srcErr.Reason)
}

func TestListPlaylist(t *testing.T) {
	srv := jsonServer(t, `{
		"name": "Mix",
		"relatedStreams": [
			{"url": "/watch?v=dQw4w9WgXcQ", "title": "one", "thumbnail": "https://img/1.jpg"},
			{"url": "/watch?v=notanid", "title": "bad id"},
			{"url": "/watch?v=aaaaaaaaaaa", "title": "two"}
		]
	}`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	videos, err := s.ListPlaylist(context.Background(), "PLabc123def456ghi")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "dQw4w9WgXcQ", videos[0].VideoID)
	assert.Equal(t, "https://img/1.jpg", videos[0].Thumbnail)
	assert.Equal(t, "aaaaaaaaaaa", videos[1].VideoID)
	// Missing thumbnails fall back to the derived one.
	assert.Contains(t, videos[1].Thumbnail, "aaaaaaaaaaa")
}

func TestListPlaylistEmpty(t *testing.T) {
	srv := jsonServer(t, `{"name":"Mix","relatedStreams":[]}`)
	defer srv.Close()

	s := New([]string{srv.URL}, srv.Client(), testLog())

	_, err := s.ListPlaylist(context.Background(), "PLabc123def456ghi")
	var srcErr *resolver.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, resolver.ReasonNoStream, srcErr.Reason)
}

func TestVideoIDFromWatchURL(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", videoIDFromWatchURL("/watch?v=dQw4w9WgXcQ"))
	assert.Empty(t, videoIDFromWatchURL("/watch?v=short"))
	assert.Empty(t, videoIDFromWatchURL("/playlist?list=PLx"))
	assert.Empty(t, videoIDFromWatchURL("://bad"))
}
