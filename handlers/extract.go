package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/services/extract"
)

type ExtractHandler struct {
	service extract.Service
	version string
}

func NewExtractHandler(service extract.Service, version string) *ExtractHandler {
	return &ExtractHandler{service: service, version: version}
}

// Extract resolves a video id to a playable stream URL.
// GET /api/extract?video_id=<id>
func (h *ExtractHandler) Extract(c *fiber.Ctx) error {
	videoID := c.Query("video_id")
	if videoID == "" {
		videoID = firstBodyValue(c, "video_id")
	}
	if videoID == "" {
		return errors.InvalidInput("ExtractHandler.Extract", nil, "video_id is required")
	}

	stream, err := h.service.Extract(c.Context(), videoID)
	if err != nil {
		return err
	}

	return c.JSON(models.NewExtractResponse(stream))
}

// Playlist enumerates a playlist.
// GET /api/playlist?playlist_id=<id>&max_results=<n>
func (h *ExtractHandler) Playlist(c *fiber.Ctx) error {
	playlistID := c.Query("playlist_id")
	if playlistID == "" {
		playlistID = firstBodyValue(c, "playlist_id")
	}
	if playlistID == "" {
		return errors.InvalidInput("ExtractHandler.Playlist", nil, "playlist_id is required")
	}
	maxResults := c.QueryInt("max_results", 0)

	title, videos, err := h.service.Playlist(c.Context(), playlistID, maxResults)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"playlist_id":    playlistID,
		"playlist_title": title,
		"videos":         videos,
		"count":          len(videos),
		"fetched_at":     time.Now().Format(time.RFC3339),
	})
}

// Channel enumerates a channel's recent uploads.
// GET /api/channel/:name?max_results=<n>
func (h *ExtractHandler) Channel(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return errors.InvalidInput("ExtractHandler.Channel", nil, "channel name is required")
	}
	maxResults := c.QueryInt("max_results", 0)

	videos, err := h.service.Channel(c.Context(), name, maxResults)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"videos":     videos,
		"count":      len(videos),
		"fetched_at": time.Now().Format(time.RFC3339),
	})
}

// ClearCache drops the result cache. Administrative; not part of the
// normal resolution flow.
// POST /api/cache/clear
func (h *ExtractHandler) ClearCache(c *fiber.Ctx) error {
	n := h.service.ClearCache()
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Cleared %d cache entries", n),
	})
}

// Health is the liveness probe; any 2xx means healthy.
// GET /
func (h *ExtractHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "online",
		"service":       "tubesource extraction server",
		"version":       h.version,
		"cache_entries": h.service.CacheSize(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// firstBodyValue reads a key from a JSON or form body, mirroring the query
// parameter fallback the legacy clients rely on.
func firstBodyValue(c *fiber.Ctx, key string) string {
	var body map[string]string
	if err := c.BodyParser(&body); err == nil {
		if v, ok := body[key]; ok {
			return v
		}
	}
	return c.FormValue(key)
}
