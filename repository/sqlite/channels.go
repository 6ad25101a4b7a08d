package sqlite

import (
	"context"
	"database/sql"

	"github.com/mattn/go-sqlite3"

	"github.com/jjutv/tubesource/errors"
	"github.com/jjutv/tubesource/models"
)

// Repository implements repository.Repository over SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func (r *Repository) ListChannels(ctx context.Context) ([]models.Channel, error) {
	const op = "sqlite.ListChannels"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel_id, channel_name, description, thumbnail, created_at
		FROM channels
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query channels")
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		var about, thumbnail sql.NullString
		if err := rows.Scan(&c.ID, &c.ChannelID, &c.Name, &about, &thumbnail, &c.CreatedAt); err != nil {
			return nil, errors.Internal(op, err, "failed to scan channel")
		}
		c.About = about.String
		c.Thumbnail = thumbnail.String
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "channel iteration failed")
	}
	return channels, nil
}

func (r *Repository) AddChannel(ctx context.Context, channel *models.Channel) error {
	const op = "sqlite.AddChannel"

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO channels (channel_id, channel_name, description, thumbnail)
		VALUES (?, ?, ?, ?)`,
		channel.ChannelID, channel.Name, channel.About, channel.Thumbnail)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict(op, err, "Channel already exists")
		}
		return errors.Internal(op, err, "failed to insert channel")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "failed to read inserted channel id")
	}
	channel.ID = id
	return nil
}

func (r *Repository) DeleteChannel(ctx context.Context, channelID string) (bool, error) {
	const op = "sqlite.DeleteChannel"

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM channels WHERE channel_id = ?`, channelID)
	if err != nil {
		return false, errors.Internal(op, err, "failed to delete channel")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Internal(op, err, "failed to read affected rows")
	}
	return n > 0, nil
}
