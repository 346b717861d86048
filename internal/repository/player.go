package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// All returns every tracked player in stable account-id order. Reports and
// tie-breaking depend on this order being deterministic.
func (r *PlayerRepository) All(ctx context.Context) ([]domain.Player, error) {
	return r.queryPlayers(ctx,
		"SELECT account_id, names, current_rank, created_at, updated_at FROM players ORDER BY account_id")
}

// ByChannel returns the players registered to one channel, in stable order.
func (r *PlayerRepository) ByChannel(ctx context.Context, channelID string) ([]domain.Player, error) {
	return r.queryPlayers(ctx, `
		SELECT p.account_id, p.names, p.current_rank, p.created_at, p.updated_at
		FROM players p
		JOIN player_channels pc ON pc.account_id = p.account_id
		WHERE pc.channel_id = ?
		ORDER BY p.account_id`, channelID)
}

func (r *PlayerRepository) queryPlayers(ctx context.Context, q string, args ...any) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var (
			p     domain.Player
			names string
		)
		if err := rows.Scan(&p.AccountID, &names, &p.CurrentRank, &p.CreatedAt, &p.UpdatedAt); err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed player row")
			continue
		}
		if err := json.Unmarshal([]byte(names), &p.Names); err != nil {
			r.logger.Warn().Err(err).Int64("account_id", p.AccountID).Msg("skipping player with malformed names")
			continue
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	if players == nil {
		players = []domain.Player{}
	}
	return players, nil
}

func (r *PlayerRepository) Get(ctx context.Context, accountID int64) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT account_id, names, current_rank, created_at, updated_at FROM players WHERE account_id = ?",
		accountID)

	var (
		p     domain.Player
		names string
	)
	err := row.Scan(&p.AccountID, &names, &p.CurrentRank, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(names), &p.Names); err != nil {
		return nil, fmt.Errorf("malformed names for player %d: %w", accountID, err)
	}
	return &p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	names, err := json.Marshal(player.Names)
	if err != nil {
		return fmt.Errorf("failed to encode names: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO players (account_id, names, current_rank, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			names = excluded.names,
			current_rank = excluded.current_rank,
			updated_at = excluded.updated_at`,
		player.AccountID, string(names), player.CurrentRank, now, now)
	return err
}

func (r *PlayerRepository) UpdateRank(ctx context.Context, accountID int64, rank int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE players SET current_rank = ?, updated_at = ? WHERE account_id = ?",
		rank, time.Now().UTC(), accountID)
	return err
}

func (r *PlayerRepository) LinkChannel(ctx context.Context, accountID int64, channelID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO player_channels (account_id, channel_id) VALUES (?, ?)",
		accountID, channelID)
	return err
}

// Unlink removes the player's link to one channel; when no channel
// references remain the player record itself is deleted. Returns whether
// the player was fully removed.
func (r *PlayerRepository) Unlink(ctx context.Context, accountID int64, channelID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM player_channels WHERE account_id = ? AND channel_id = ?",
		accountID, channelID); err != nil {
		return false, err
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM player_channels WHERE account_id = ?", accountID).Scan(&remaining); err != nil {
		return false, err
	}

	removed := remaining == 0
	if removed {
		if _, err := tx.ExecContext(ctx, "DELETE FROM players WHERE account_id = ?", accountID); err != nil {
			return false, err
		}
		r.logger.Info().Int64("account_id", accountID).Msg("player removed, no channel links remain")
	}

	return removed, tx.Commit()
}

// Remove deletes the player and every channel link.
func (r *PlayerRepository) Remove(ctx context.Context, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM player_channels WHERE account_id = ?", accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM players WHERE account_id = ?", accountID); err != nil {
		return err
	}
	return tx.Commit()
}
