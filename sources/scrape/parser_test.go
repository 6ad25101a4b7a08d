package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlayerResponse(t *testing.T) {
	page := `<html><script>var ytInitialPlayerResponse = {"videoDetails":{"title":"brace } in \"string\""},"streamingData":{"formats":[]}};</script></html>`

	raw, ok := extractPlayerResponse(page)
	require.True(t, ok)
	assert.Equal(t, `{"videoDetails":{"title":"brace } in \"string\""},"streamingData":{"formats":[]}}`, raw)
}

func TestExtractPlayerResponseMarkerAbsent(t *testing.T) {
	_, ok := extractPlayerResponse("<html><body>consent page</body></html>")
	assert.False(t, ok)
}

func TestExtractPlayerResponseTruncated(t *testing.T) {
	_, ok := extractPlayerResponse(`ytInitialPlayerResponse = {"a":{"b":1}`)
	assert.False(t, ok)
}

func TestParsePlayerResponsePrefersHLS(t *testing.T) {
	raw := `{
		"streamingData": {
			"hlsManifestUrl": "https://yt/hls.m3u8",
			"formats": [{"url": "https://yt/720.mp4", "qualityLabel": "720p"}]
		},
		"videoDetails": {
			"videoId": "dQw4w9WgXcQ",
			"title": "T",
			"author": "A",
			"lengthSeconds": "212",
			"viewCount": "1000",
			"thumbnail": {"thumbnails": [{"url": "https://yt/small.jpg"}, {"url": "https://yt/big.jpg"}]}
		}
	}`

	v, ok := parsePlayerResponse(raw)
	require.True(t, ok)
	assert.Equal(t, "https://yt/hls.m3u8", v.URL)
	assert.Equal(t, "dQw4w9WgXcQ", v.VideoID)
	assert.Equal(t, int64(212), v.Duration)
	assert.Equal(t, int64(1000), v.ViewCount)
	// Thumbnail lists are ordered smallest to largest.
	assert.Equal(t, "https://yt/big.jpg", v.Thumbnail)
}

func TestParsePlayerResponseBestFormat(t *testing.T) {
	raw := `{
		"streamingData": {
			"formats": [
				{"url": "https://yt/360.mp4", "qualityLabel": "360p"},
				{"url": "https://yt/720.mp4", "height": 720},
				{"url": "", "qualityLabel": "1080p"}
			]
		},
		"videoDetails": {"videoId": "dQw4w9WgXcQ", "title": "T"}
	}`

	v, ok := parsePlayerResponse(raw)
	require.True(t, ok)
	// URL-less formats are skipped; height fills in a missing label.
	assert.Equal(t, "https://yt/720.mp4", v.URL)
}

func TestParsePlayerResponseNoStream(t *testing.T) {
	_, ok := parsePlayerResponse(`{"videoDetails":{"videoId":"dQw4w9WgXcQ"}}`)
	assert.False(t, ok)

	_, ok = parsePlayerResponse(`not json`)
	assert.False(t, ok)
}

func TestVideoIDs(t *testing.T) {
	page := `
		<a href="/watch?v=dQw4w9WgXcQ">one</a>
		<img src="https://i.ytimg.com/vi/aaaaaaaaaaa/hqdefault.jpg">
		<a href="/watch?v=dQw4w9WgXcQ">repeat</a>
		<iframe src="https://www.youtube.com/embed/bbbbbbbbbbb"></iframe>
		<a href="https://youtu.be/ccccccccccc">short</a>
	`

	ids := VideoIDs(page)
	// De-duplicated, first-seen order preserved.
	assert.Equal(t, []string{"dQw4w9WgXcQ", "aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}, ids)
}

func TestVideoIDsNone(t *testing.T) {
	assert.Empty(t, VideoIDs("<html><body>nothing here</body></html>"))
	// A bare 11-char token without a URL anchor is not an id.
	assert.Empty(t, VideoIDs("dQw4w9WgXcQ"))
}
