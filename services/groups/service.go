// Package groups manages the persisted channel and video-group
// configuration that drives the TV client's listing screens.
package groups

import (
	"context"

	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
	"github.com/jjutv/tubesource/repository"
	"github.com/jjutv/tubesource/validation"
)

type Service interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	ListGroupsWithVideos(ctx context.Context) ([]models.VideoGroup, error)
	CreateGroup(ctx context.Context, name, about string) (*models.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	GroupVideos(ctx context.Context, groupID int64) (*models.Group, []models.GroupVideo, error)
	AddGroupVideo(ctx context.Context, groupID int64, videoID, title, thumbnail string) (*models.GroupVideo, error)
	RemoveGroupVideo(ctx context.Context, groupID, videoRowID int64) error

	ListChannels(ctx context.Context) ([]models.Channel, error)
	AddChannel(ctx context.Context, channelID, name, about, thumbnail string) (*models.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
}

type service struct {
	repo      repository.Repository
	validator *validation.Validator
}

func NewService(repo repository.Repository, validator *validation.Validator) Service {
	return &service{repo: repo, validator: validator}
}

func (s *service) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.repo.ListGroups(ctx)
}

func (s *service) ListGroupsWithVideos(ctx context.Context) ([]models.VideoGroup, error) {
	return s.repo.ListGroupsWithVideos(ctx)
}

func (s *service) CreateGroup(ctx context.Context, name, about string) (*models.Group, error) {
	const op = "GroupService.CreateGroup"

	if name == "" {
		return nil, errors.InvalidInput(op, nil, "group_name is required")
	}

	group := &models.Group{Name: name, About: about}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *service) DeleteGroup(ctx context.Context, id int64) error {
	const op = "GroupService.DeleteGroup"

	deleted, err := s.repo.DeleteGroup(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NotFound(op, nil, "Group not found")
	}
	return nil
}

func (s *service) GroupVideos(ctx context.Context, groupID int64) (*models.Group, []models.GroupVideo, error) {
	group, err := s.repo.FindGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	videos, err := s.repo.ListGroupVideos(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, videos, nil
}

func (s *service) AddGroupVideo(ctx context.Context, groupID int64, videoID, title, thumbnail string) (*models.GroupVideo, error) {
	const op = "GroupService.AddGroupVideo"

	// Reject a malformed id at configuration time, not at resolution time.
	canonical, err := s.validator.NormalizeVideoID(videoID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, errors.InvalidInput(op, nil, "video_title is required")
	}
	if thumbnail == "" {
		thumbnail = models.DefaultThumbnail(canonical)
	}

	if _, err := s.repo.FindGroup(ctx, groupID); err != nil {
		return nil, err
	}

	video := &models.GroupVideo{
		GroupID:   groupID,
		VideoID:   canonical,
		Title:     title,
		Thumbnail: thumbnail,
	}
	if err := s.repo.AddGroupVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *service) RemoveGroupVideo(ctx context.Context, groupID, videoRowID int64) error {
	const op = "GroupService.RemoveGroupVideo"

	removed, err := s.repo.RemoveGroupVideo(ctx, groupID, videoRowID)
	if err != nil {
		return err
	}
	if !removed {
		return errors.NotFound(op, nil, "Video not found")
	}
	return nil
}

func (s *service) ListChannels(ctx context.Context) ([]models.Channel, error) {
	return s.repo.ListChannels(ctx)
}

func (s *service) AddChannel(ctx context.Context, channelID, name, about, thumbnail string) (*models.Channel, error) {
	const op = "GroupService.AddChannel"

	canonical, err := s.validator.NormalizeChannelID(channelID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.InvalidInput(op, nil, "channel_name is required")
	}

	channel := &models.Channel{
		ChannelID: canonical,
		Name:      name,
		About:     about,
		Thumbnail: thumbnail,
	}
	if err := s.repo.AddChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *service) DeleteChannel(ctx context.Context, channelID string) error {
	const op = "GroupService.DeleteChannel"

	deleted, err := s.repo.DeleteChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NotFound(op, nil, "Channel not found")
	}
	return nil
}
