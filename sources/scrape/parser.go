package scrape

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/jjutv/tubesource/sources/quality"
)

// playerResponse is the subset of the player JSON embedded in watch pages
// that the scraper cares about. Field presence varies by page form and over
// time; everything here is optional.
type playerResponse struct {
	StreamingData struct {
		HLSManifestURL string   `json:"hlsManifestUrl"`
		Formats        []format `json:"formats"`
	} `json:"streamingData"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
		ViewCount     string `json:"viewCount"`
		Thumbnail     struct {
			Thumbnails []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
}

type format struct {
	URL          string `json:"url"`
	QualityLabel string `json:"qualityLabel"`
	Height       int    `json:"height"`
	MimeType     string `json:"mimeType"`
}

const playerResponseMarker = "ytInitialPlayerResponse"

// extractPlayerResponse locates the player JSON object embedded in a page
// body by scanning balanced braces from the marker assignment. Returns
// ok=false when the marker is absent or the JSON is truncated.
func extractPlayerResponse(html string) (string, bool) {
	idx := strings.Index(html, playerResponseMarker)
	if idx < 0 {
		return "", false
	}
	start := strings.IndexByte(html[idx:], '{')
	if start < 0 {
		return "", false
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(html); i++ {
		c := html[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return html[start : i+1], true
			}
		}
	}
	return "", false
}

// parsePlayerResponse decodes the embedded player JSON and selects the
// playable URL: the HLS manifest when present, otherwise the best muxed
// progressive format by resolution with ties going to first-seen order.
func parsePlayerResponse(raw string) (*parsedVideo, bool) {
	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil, false
	}

	streamURL := pr.StreamingData.HLSManifestURL
	if streamURL == "" {
		labels := make([]string, 0, len(pr.StreamingData.Formats))
		urls := make([]string, 0, len(pr.StreamingData.Formats))
		for _, f := range pr.StreamingData.Formats {
			if f.URL == "" {
				continue
			}
			label := f.QualityLabel
			if label == "" && f.Height > 0 {
				label = strconv.Itoa(f.Height) + "p"
			}
			labels = append(labels, label)
			urls = append(urls, f.URL)
		}
		if i := quality.BestIndex(labels); i >= 0 {
			streamURL = urls[i]
		}
	}
	if streamURL == "" {
		return nil, false
	}

	v := &parsedVideo{
		VideoID:  pr.VideoDetails.VideoID,
		URL:      streamURL,
		Title:    pr.VideoDetails.Title,
		Uploader: pr.VideoDetails.Author,
	}
	if n, err := strconv.ParseInt(pr.VideoDetails.LengthSeconds, 10, 64); err == nil {
		v.Duration = n
	}
	if n, err := strconv.ParseInt(pr.VideoDetails.ViewCount, 10, 64); err == nil {
		v.ViewCount = n
	}
	if thumbs := pr.VideoDetails.Thumbnail.Thumbnails; len(thumbs) > 0 {
		v.Thumbnail = thumbs[len(thumbs)-1].URL
	}
	return v, true
}

type parsedVideo struct {
	VideoID   string
	URL       string
	Title     string
	Duration  int64
	ViewCount int64
	Uploader  string
	Thumbnail string
}

// Fixed-width id scan: the 11-character identifier alphabet anchored to the
// URL forms pages embed ids in.
var videoIDScanRe = regexp.MustCompile(`(?:watch\?v=|/vi/|/embed/|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// VideoIDs extracts video ids embedded in a document, de-duplicated while
// preserving first-seen order.
func VideoIDs(html string) []string {
	matches := videoIDScanRe.FindAllStringSubmatch(html, -1)
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
