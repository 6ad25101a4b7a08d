package resolver

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjutv/tubesource/models"
)

type fakeExtractor struct {
	name string

	resolveCalls int
	listCalls    int

	stream *models.ResolvedStream
	videos []models.VideoSummary
	err    error
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) ResolveVideo(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	f.resolveCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func (f *fakeExtractor) ListPlaylist(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.videos, nil
}

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func playable(id string) *models.ResolvedStream {
	return &models.ResolvedStream{
		VideoID:     id,
		URL:         "https://x/hls.m3u8",
		Title:       "T",
		ExtractedAt: time.Now(),
	}
}

func TestResolveVideoFirstSuccessShortCircuits(t *testing.T) {
	first := &fakeExtractor{name: "a", stream: playable("dQw4w9WgXcQ")}
	second := &fakeExtractor{name: "b", stream: playable("dQw4w9WgXcQ")}

	r := New(testLog(), first, second)

	stream, err := r.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://x/hls.m3u8", stream.URL)
	assert.Equal(t, "T", stream.Title)

	assert.Equal(t, 1, first.resolveCalls)
	assert.Zero(t, second.resolveCalls, "later extractors must not be invoked after a success")
}

func TestResolveVideoFallsThroughInOrder(t *testing.T) {
	first := &fakeExtractor{name: "a", err: NewSourceError("a", ReasonTransport, nil)}
	second := &fakeExtractor{name: "b", err: NewSourceError("b", ReasonNoStream, ErrNoStream)}
	third := &fakeExtractor{name: "c", stream: playable("dQw4w9WgXcQ")}

	r := New(testLog(), first, second, third)

	stream, err := r.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", stream.VideoID)
	assert.Equal(t, 1, first.resolveCalls)
	assert.Equal(t, 1, second.resolveCalls)
	assert.Equal(t, 1, third.resolveCalls)
}

func TestResolveVideoAllSourcesFail(t *testing.T) {
	first := &fakeExtractor{name: "a", err: NewSourceError("a", ReasonUpstreamStatus, nil)}
	second := &fakeExtractor{name: "b", err: NewSourceError("b", ReasonMalformed, nil)}

	r := New(testLog(), first, second)

	stream, err := r.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
}

func TestResolveVideoUnplayableResultIsFailure(t *testing.T) {
	// A source must never win with an empty URL.
	empty := &fakeExtractor{name: "a", stream: &models.ResolvedStream{VideoID: "dQw4w9WgXcQ"}}
	good := &fakeExtractor{name: "b", stream: playable("dQw4w9WgXcQ")}

	r := New(testLog(), empty, good)

	stream, err := r.ResolveVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.True(t, stream.IsPlayable())
	assert.Equal(t, 1, good.resolveCalls)
}

func TestResolveVideoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeExtractor{name: "a", stream: playable("dQw4w9WgXcQ")}
	r := New(testLog(), src)

	_, err := r.ResolveVideo(ctx, "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.resolveCalls)
}

func TestListPlaylistFirstSuccessShortCircuits(t *testing.T) {
	videos := []models.VideoSummary{
		{VideoID: "aaaaaaaaaaa", Title: "one"},
		{VideoID: "bbbbbbbbbbb", Title: "two"},
	}
	first := &fakeExtractor{name: "a", err: NewSourceError("a", ReasonTransport, nil)}
	second := &fakeExtractor{name: "b", videos: videos}
	third := &fakeExtractor{name: "c", videos: videos}

	r := New(testLog(), first, second, third)

	got, err := r.ListPlaylist(context.Background(), "PLabc123def456ghi")
	require.NoError(t, err)
	assert.Equal(t, videos, got)
	assert.Zero(t, third.listCalls)
}

func TestListPlaylistAllFail(t *testing.T) {
	first := &fakeExtractor{name: "a", err: NewSourceError("a", ReasonTransport, nil)}

	r := New(testLog(), first)

	_, err := r.ListPlaylist(context.Background(), "PLabc123def456ghi")
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
}

func TestSources(t *testing.T) {
	r := New(testLog(),
		&fakeExtractor{name: "backend"},
		&fakeExtractor{name: "piped"},
		&fakeExtractor{name: "scrape"},
	)
	assert.Equal(t, []string{"backend", "piped", "scrape"}, r.Sources())
}

func TestSourceErrorString(t *testing.T) {
	err := NewSourceError("piped", ReasonMalformed, assert.AnError)
	assert.Contains(t, err.Error(), "piped")
	assert.Contains(t, err.Error(), "malformed response")
	assert.ErrorIs(t, err, assert.AnError)
}
