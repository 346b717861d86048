package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type ChannelRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewChannelRepository(sqlDB *sql.DB, logger zerolog.Logger) *ChannelRepository {
	return &ChannelRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *ChannelRepository) All(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, joined_at FROM channels ORDER BY joined_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.JoinedAt); err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed channel row")
			continue
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channels: %w", err)
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}

func (r *ChannelRepository) Exists(ctx context.Context, channelID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM channels WHERE id = ?", channelID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ChannelRepository) Add(ctx context.Context, channel *domain.Channel) error {
	joinedAt := channel.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO channels (id, name, joined_at) VALUES (?, ?, ?)",
		channel.ID, channel.Name, joinedAt)
	return err
}
