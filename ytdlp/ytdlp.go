// Package ytdlp shells out to yt-dlp, which does the actual extraction work
// server-side. All invocations produce JSON on stdout; anything else is an
// invocation failure.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jjutv/tubesource/httpclient"
	"github.com/jjutv/tubesource/models"
)

type Config struct {
	Path        string
	Timeout     time.Duration
	CookiesFile string

	// Outbound politeness limit against the upstream site.
	RequestsPerMinute int
	Burst             int
}

type Runner struct {
	config  Config
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

func NewRunner(cfg Config, log logrus.FieldLogger) (*Runner, error) {
	if _, err := exec.LookPath(cfg.Path); err != nil {
		return nil, errors.Wrapf(err, "yt-dlp binary not found at %q", cfg.Path)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Runner{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst),
		log:     log,
	}, nil
}

// videoInfo is the slice of yt-dlp's info JSON the server consumes.
type videoInfo struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Duration  float64      `json:"duration"`
	Thumbnail string       `json:"thumbnail"`
	Uploader  string       `json:"uploader"`
	ViewCount int64        `json:"view_count"`
	Formats   []formatInfo `json:"formats"`
}

type formatInfo struct {
	URL    string `json:"url"`
	ACodec string `json:"acodec"`
	VCodec string `json:"vcodec"`
}

type playlistInfo struct {
	Title   string `json:"title"`
	Entries []struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		Thumbnail string  `json:"thumbnail"`
		Duration  float64 `json:"duration"`
	} `json:"entries"`
}

// Extract resolves a single video to its best playable URL.
func (r *Runner) Extract(ctx context.Context, videoID string) (*models.ResolvedStream, error) {
	const op = "ytdlp.Extract"

	out, err := r.run(ctx,
		"--dump-single-json",
		"--no-playlist",
		"--format", "best",
		"https://www.youtube.com/watch?v="+videoID,
	)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, errors.Wrap(err, op+": decode info")
	}

	streamURL := pickURL(&info)
	if streamURL == "" {
		return nil, errors.New(op + ": no playable URL in extraction output")
	}

	return &models.ResolvedStream{
		VideoID:     videoID,
		URL:         streamURL,
		Title:       info.Title,
		Duration:    int64(info.Duration),
		Thumbnail:   info.Thumbnail,
		Uploader:    info.Uploader,
		ViewCount:   info.ViewCount,
		ExtractedAt: time.Now(),
	}, nil
}

// pickURL mirrors the selection the legacy server used: the top-level url
// when present, else the first format carrying both audio and video, else
// the last listed format.
func pickURL(info *videoInfo) string {
	if info.URL != "" {
		return info.URL
	}
	for _, f := range info.Formats {
		if f.URL != "" && f.ACodec != "none" && f.VCodec != "none" {
			return f.URL
		}
	}
	if n := len(info.Formats); n > 0 {
		return info.Formats[n-1].URL
	}
	return ""
}

// Playlist enumerates a playlist without resolving the member streams.
func (r *Runner) Playlist(ctx context.Context, playlistID string, maxResults int) (string, []models.VideoSummary, error) {
	const op = "ytdlp.Playlist"

	title, videos, err := r.flatList(ctx,
		"https://www.youtube.com/playlist?list="+playlistID, maxResults)
	if err != nil {
		return "", nil, errors.Wrap(err, op)
	}
	return title, videos, nil
}

// Channel enumerates a channel's uploads. Accepts a UC... id, an @handle,
// or a bare name.
func (r *Runner) Channel(ctx context.Context, channelID string, maxResults int) ([]models.VideoSummary, error) {
	const op = "ytdlp.Channel"

	_, videos, err := r.flatList(ctx, channelURL(channelID), maxResults)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return videos, nil
}

// channelURL builds the uploads URL for a channel identifier. Bare names
// are addressed through the handle URL form, which the site resolves for
// legacy usernames too.
func channelURL(channelID string) string {
	switch {
	case strings.HasPrefix(channelID, "@"):
		return "https://www.youtube.com/" + channelID + "/videos"
	case strings.HasPrefix(channelID, "UC") && len(channelID) == 24:
		return "https://www.youtube.com/channel/" + channelID + "/videos"
	default:
		return "https://www.youtube.com/@" + channelID + "/videos"
	}
}

func (r *Runner) flatList(ctx context.Context, listURL string, maxResults int) (string, []models.VideoSummary, error) {
	out, err := r.run(ctx,
		"--dump-single-json",
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(maxResults),
		listURL,
	)
	if err != nil {
		return "", nil, err
	}

	var info playlistInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return "", nil, errors.Wrap(err, "decode playlist info")
	}

	videos := make([]models.VideoSummary, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry.ID == "" {
			continue
		}
		thumb := entry.Thumbnail
		if thumb == "" {
			thumb = models.DefaultThumbnail(entry.ID)
		}
		videos = append(videos, models.VideoSummary{
			VideoID:   entry.ID,
			Title:     entry.Title,
			Thumbnail: thumb,
		})
		if len(videos) >= maxResults {
			break
		}
	}
	return info.Title, videos, nil
}

func (r *Runner) run(ctx context.Context, args ...string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmdArgs := append([]string{
		"--no-warnings",
		"--user-agent", httpclient.UserAgent,
	}, args...)
	if r.config.CookiesFile != "" {
		cmdArgs = append([]string{"--cookies", r.config.CookiesFile}, cmdArgs...)
	}

	cmd := exec.CommandContext(ctx, r.config.Path, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithField("args", cmdArgs).Debug("Running yt-dlp")

	if err := cmd.Run(); err != nil {
		r.log.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderr.String(),
		}).Error("yt-dlp invocation failed")
		return nil, errors.Wrapf(err, "yt-dlp failed (stderr: %s)", stderr.String())
	}

	output := stdout.Bytes()
	if err := validateJSONOutput(output); err != nil {
		r.log.WithField("error", err).Error("yt-dlp produced invalid JSON")
		return nil, err
	}
	return output, nil
}

func validateJSONOutput(output []byte) error {
	var jsonTest interface{}
	if err := json.Unmarshal(output, &jsonTest); err != nil {
		return errors.Wrap(err, "invalid JSON output")
	}
	return nil
}
