package sqlite

import (
	"context"
	"database/sql"

	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
)

func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	const op = "sqlite.ListGroups"

	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.group_name, g.description, g.thumbnail, g.created_at,
		       COUNT(gv.id) AS video_count
		FROM video_groups g
		LEFT JOIN group_videos gv ON g.id = gv.group_id
		GROUP BY g.id
		ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query groups")
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, errors.Internal(op, err, "failed to scan group")
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "group iteration failed")
	}
	return groups, nil
}

func scanGroup(rows *sql.Rows) (*models.Group, error) {
	var g models.Group
	var about, thumbnail sql.NullString
	if err := rows.Scan(&g.ID, &g.Name, &about, &thumbnail, &g.CreatedAt, &g.VideoCount); err != nil {
		return nil, err
	}
	g.About = about.String
	g.Thumbnail = thumbnail.String
	return &g, nil
}

func (r *Repository) CreateGroup(ctx context.Context, group *models.Group) error {
	const op = "sqlite.CreateGroup"

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO video_groups (group_name, description, thumbnail)
		VALUES (?, ?, ?)`,
		group.Name, group.About, group.Thumbnail)
	if err != nil {
		return errors.Internal(op, err, "failed to insert group")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "failed to read inserted group id")
	}
	group.ID = id
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	const op = "sqlite.DeleteGroup"

	// group_videos rows go with the group via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM video_groups WHERE id = ?`, id)
	if err != nil {
		return false, errors.Internal(op, err, "failed to delete group")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Internal(op, err, "failed to read affected rows")
	}
	return n > 0, nil
}

func (r *Repository) FindGroup(ctx context.Context, id int64) (*models.Group, error) {
	const op = "sqlite.FindGroup"

	row := r.db.QueryRowContext(ctx, `
		SELECT g.id, g.group_name, g.description, g.thumbnail, g.created_at,
		       COUNT(gv.id) AS video_count
		FROM video_groups g
		LEFT JOIN group_videos gv ON g.id = gv.group_id
		WHERE g.id = ?
		GROUP BY g.id`, id)

	var g models.Group
	var about, thumbnail sql.NullString
	err := row.Scan(&g.ID, &g.Name, &about, &thumbnail, &g.CreatedAt, &g.VideoCount)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "Group not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to scan group")
	}
	g.About = about.String
	g.Thumbnail = thumbnail.String
	return &g, nil
}

func (r *Repository) ListGroupVideos(ctx context.Context, groupID int64) ([]models.GroupVideo, error) {
	const op = "sqlite.ListGroupVideos"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, video_id, video_title, video_thumbnail, position, added_at
		FROM group_videos
		WHERE group_id = ?
		ORDER BY position ASC`, groupID)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query group videos")
	}
	defer rows.Close()

	var videos []models.GroupVideo
	for rows.Next() {
		var v models.GroupVideo
		var thumbnail sql.NullString
		if err := rows.Scan(&v.ID, &v.GroupID, &v.VideoID, &v.Title, &thumbnail, &v.Position, &v.AddedAt); err != nil {
			return nil, errors.Internal(op, err, "failed to scan group video")
		}
		v.Thumbnail = thumbnail.String
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "group video iteration failed")
	}
	return videos, nil
}

// AddGroupVideo appends a video at the next position. The first member's
// thumbnail becomes the group thumbnail.
func (r *Repository) AddGroupVideo(ctx context.Context, video *models.GroupVideo) error {
	const op = "sqlite.AddGroupVideo"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var maxPos sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM group_videos WHERE group_id = ?`,
		video.GroupID).Scan(&maxPos)
	if err != nil {
		return errors.Internal(op, err, "failed to read max position")
	}
	position := 1
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO group_videos (group_id, video_id, video_title, video_thumbnail, position)
		VALUES (?, ?, ?, ?, ?)`,
		video.GroupID, video.VideoID, video.Title, video.Thumbnail, position)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict(op, err, "Video already exists in this group")
		}
		return errors.Internal(op, err, "failed to insert group video")
	}

	if position == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE video_groups SET thumbnail = ? WHERE id = ?`,
			video.Thumbnail, video.GroupID); err != nil {
			return errors.Internal(op, err, "failed to update group thumbnail")
		}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "failed to read inserted video id")
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit group video insert")
	}

	video.ID = id
	video.Position = position
	return nil
}

// RemoveGroupVideo deletes one membership row and re-derives the group
// thumbnail from the remaining first member.
func (r *Repository) RemoveGroupVideo(ctx context.Context, groupID, videoRowID int64) (bool, error) {
	const op = "sqlite.RemoveGroupVideo"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM group_videos WHERE group_id = ? AND id = ?`,
		groupID, videoRowID)
	if err != nil {
		return false, errors.Internal(op, err, "failed to delete group video")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Internal(op, err, "failed to read affected rows")
	}

	var thumbnail sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT video_thumbnail FROM group_videos
		WHERE group_id = ?
		ORDER BY position ASC
		LIMIT 1`, groupID).Scan(&thumbnail)
	if err != nil && err != sql.ErrNoRows {
		return false, errors.Internal(op, err, "failed to read replacement thumbnail")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE video_groups SET thumbnail = ? WHERE id = ?`,
		thumbnail.String, groupID); err != nil {
		return false, errors.Internal(op, err, "failed to update group thumbnail")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Internal(op, err, "failed to commit group video delete")
	}
	return n > 0, nil
}

func (r *Repository) ListGroupsWithVideos(ctx context.Context) ([]models.VideoGroup, error) {
	const op = "sqlite.ListGroupsWithVideos"

	groups, err := r.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.VideoGroup, 0, len(groups))
	for _, g := range groups {
		rows, err := r.ListGroupVideos(ctx, g.ID)
		if err != nil {
			return nil, errors.Internal(op, err, "failed to expand group")
		}
		videos := make([]models.VideoSummary, 0, len(rows))
		for _, row := range rows {
			videos = append(videos, row.Summary())
		}
		result = append(result, models.VideoGroup{
			Name:      g.Name,
			Thumbnail: g.Thumbnail,
			Videos:    videos,
		})
	}
	return result, nil
}
