package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jjutv/tubesource/errors"
)

// Identifier grammars. A canonical video id is exactly 11 characters of the
// URL-safe alphabet; playlist and channel ids are longer but share it.
var (
	videoIDRe    = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	playlistIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{12,}$`)
	channelIDRe  = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	channelRawRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	watchPathRe = regexp.MustCompile(`^/(?:embed|shorts|live|v)/([a-zA-Z0-9_-]{11})`)
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// NormalizeVideoID extracts the canonical 11-character video id from raw
// input: an already-canonical id, a watch/embed/shorts/live URL, or a
// youtu.be short link. Idempotent on canonical ids.
func (v *Validator) NormalizeVideoID(raw string) (string, error) {
	const op = "Validator.NormalizeVideoID"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.InvalidInput(op, nil, "video id is required")
	}
	if videoIDRe.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errors.InvalidInput(op, err, "not a recognized video id or URL")
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDRe.MatchString(id) {
			return id, nil
		}
	case strings.HasSuffix(host, "youtube.com"):
		if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
			return id, nil
		}
		if m := watchPathRe.FindStringSubmatch(u.Path); m != nil {
			return m[1], nil
		}
	}

	return "", errors.InvalidInput(op, nil, "not a recognized video id or URL")
}

// NormalizePlaylistID extracts a playlist id from raw input. Matches, in
// order: a list= query parameter, a /p/ path segment, or the whole string
// verbatim if it is already a well-formed id. First match wins.
func (v *Validator) NormalizePlaylistID(raw string) (string, error) {
	const op = "Validator.NormalizePlaylistID"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.InvalidInput(op, nil, "playlist id is required")
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		if id := u.Query().Get("list"); playlistIDRe.MatchString(id) {
			return id, nil
		}
		if idx := strings.Index(u.Path, "/p/"); idx >= 0 {
			id := strings.Trim(u.Path[idx+len("/p/"):], "/")
			if playlistIDRe.MatchString(id) {
				return id, nil
			}
		}
	}

	if playlistIDRe.MatchString(raw) {
		return raw, nil
	}

	return "", errors.InvalidInput(op, nil, "not a recognized playlist id")
}

// NormalizeChannelID extracts a channel id or handle from raw input:
// a /channel/UC... URL, a bare UC... id, an @handle, or a bare name that
// already fits the identifier alphabet (accepted verbatim).
func (v *Validator) NormalizeChannelID(raw string) (string, error) {
	const op = "Validator.NormalizeChannelID"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.InvalidInput(op, nil, "channel id is required")
	}
	if channelIDRe.MatchString(raw) {
		return raw, nil
	}
	if strings.HasPrefix(raw, "@") && len(raw) > 1 {
		return raw, nil
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		if idx := strings.Index(u.Path, "/channel/"); idx >= 0 {
			id := strings.Trim(u.Path[idx+len("/channel/"):], "/")
			if i := strings.IndexByte(id, '/'); i >= 0 {
				id = id[:i]
			}
			if channelIDRe.MatchString(id) {
				return id, nil
			}
		}
		if idx := strings.Index(u.Path, "/@"); idx >= 0 {
			handle := strings.Trim(u.Path[idx+1:], "/")
			if i := strings.IndexByte(handle, '/'); i >= 0 {
				handle = handle[:i]
			}
			if len(handle) > 1 {
				return handle, nil
			}
		}
	}

	if channelRawRe.MatchString(raw) {
		return raw, nil
	}

	return "", errors.InvalidInput(op, nil, "not a recognized channel id")
}

// IsVideoID reports whether s is a canonical 11-character video id.
func IsVideoID(s string) bool {
	return videoIDRe.MatchString(s)
}
