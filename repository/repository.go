package repository

import (
	"context"

	"github.com/jjutv/tubesource/models"
)

// ChannelRepository persists channel configuration entries.
type ChannelRepository interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	AddChannel(ctx context.Context, channel *models.Channel) error
	DeleteChannel(ctx context.Context, channelID string) (bool, error)
}

// GroupRepository persists video groups and their ordered memberships.
type GroupRepository interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id int64) (bool, error)
	FindGroup(ctx context.Context, id int64) (*models.Group, error)

	ListGroupVideos(ctx context.Context, groupID int64) ([]models.GroupVideo, error)
	AddGroupVideo(ctx context.Context, video *models.GroupVideo) error
	RemoveGroupVideo(ctx context.Context, groupID, videoRowID int64) (bool, error)

	// ListGroupsWithVideos returns every group expanded into its listing
	// form, ordered by member position.
	ListGroupsWithVideos(ctx context.Context) ([]models.VideoGroup, error)
}

// Repository is the combined persistence surface the services consume.
type Repository interface {
	ChannelRepository
	GroupRepository
}
