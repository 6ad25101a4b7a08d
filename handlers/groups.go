package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/services/groups"
)

type GroupsHandler struct {
	service groups.Service
}

func NewGroupsHandler(service groups.Service) *GroupsHandler {
	return &GroupsHandler{service: service}
}

// Groups returns every configured group expanded into its video listing.
// An empty listing is a valid state ("nothing configured"), not an error.
// GET /api/groups
func (h *GroupsHandler) Groups(c *fiber.Ctx) error {
	list, err := h.service.ListGroupsWithVideos(c.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.VideoGroup{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"groups":  list,
		"count":   len(list),
	})
}

type createGroupRequest struct {
	Name  string `json:"group_name"`
	About string `json:"description"`
}

// CreateGroup creates an empty group.
// POST /api/groups
func (h *GroupsHandler) CreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput("GroupsHandler.CreateGroup", err, "No data provided")
	}

	group, err := h.service.CreateGroup(c.Context(), req.Name, req.About)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Group created successfully",
		"group":   group,
	})
}

// DeleteGroup removes a group and its memberships.
// DELETE /api/groups/:id
func (h *GroupsHandler) DeleteGroup(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.InvalidInput("GroupsHandler.DeleteGroup", err, "invalid group id")
	}

	if err := h.service.DeleteGroup(c.Context(), int64(id)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Group deleted successfully",
	})
}

// GroupVideos lists one group's members in position order.
// GET /api/groups/:id/videos
func (h *GroupsHandler) GroupVideos(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.InvalidInput("GroupsHandler.GroupVideos", err, "invalid group id")
	}

	group, videos, err := h.service.GroupVideos(c.Context(), int64(id))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"group":   group,
		"videos":  videos,
		"count":   len(videos),
	})
}

type addVideoRequest struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"video_title"`
	Thumbnail string `json:"video_thumbnail"`
}

// AddGroupVideo appends a video to a group.
// POST /api/groups/:id/videos
func (h *GroupsHandler) AddGroupVideo(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.InvalidInput("GroupsHandler.AddGroupVideo", err, "invalid group id")
	}

	var req addVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput("GroupsHandler.AddGroupVideo", err, "No data provided")
	}

	video, err := h.service.AddGroupVideo(c.Context(), int64(id), req.VideoID, req.Title, req.Thumbnail)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Video added to group successfully",
		"video":   video,
	})
}

// RemoveGroupVideo deletes one membership row.
// DELETE /api/groups/:id/videos/:vid
func (h *GroupsHandler) RemoveGroupVideo(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.InvalidInput("GroupsHandler.RemoveGroupVideo", err, "invalid group id")
	}
	vid, err := c.ParamsInt("vid")
	if err != nil {
		return errors.InvalidInput("GroupsHandler.RemoveGroupVideo", err, "invalid video id")
	}

	if err := h.service.RemoveGroupVideo(c.Context(), int64(id), int64(vid)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Video deleted successfully",
	})
}

// Channels lists the configured channels.
// GET /api/channels
func (h *GroupsHandler) Channels(c *fiber.Ctx) error {
	channels, err := h.service.ListChannels(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"channels": channels,
		"count":    len(channels),
	})
}

type addChannelRequest struct {
	ChannelID string `json:"channel_id"`
	Name      string `json:"channel_name"`
	About     string `json:"description"`
	Thumbnail string `json:"thumbnail"`
}

// AddChannel registers a channel.
// POST /api/channels
func (h *GroupsHandler) AddChannel(c *fiber.Ctx) error {
	var req addChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput("GroupsHandler.AddChannel", err, "No data provided")
	}

	channel, err := h.service.AddChannel(c.Context(), req.ChannelID, req.Name, req.About, req.Thumbnail)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Channel added successfully",
		"channel": channel,
	})
}

// DeleteChannel removes a channel registration.
// DELETE /api/channels/:id
func (h *GroupsHandler) DeleteChannel(c *fiber.Ctx) error {
	channelID := c.Params("id")
	if channelID == "" {
		return errors.InvalidInput("GroupsHandler.DeleteChannel", nil, "channel id is required")
	}

	if err := h.service.DeleteChannel(c.Context(), channelID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Channel deleted successfully",
	})
}
