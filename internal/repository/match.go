package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// MatchRepository owns the canonical matchlog. Writes are full-record
// replacements: the matchlog row and its match_players sublist are synced
// in one transaction, idempotent on match id.
type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const matchColumns = "match_id, win, solo, ended_at, duration, mode, created_at, updated_at"

// All loads every stored match with participant lists attached. A row that
// fails to scan is logged and skipped; it never aborts the load.
func (r *MatchRepository) All(ctx context.Context) ([]domain.Match, error) {
	return r.query(ctx, "SELECT "+matchColumns+" FROM matchlog ORDER BY match_id")
}

// Since loads matches that ended at or after t. Undated matches are not
// returned; callers that need them use All.
func (r *MatchRepository) Since(ctx context.Context, t time.Time) ([]domain.Match, error) {
	return r.query(ctx,
		"SELECT "+matchColumns+" FROM matchlog WHERE ended_at IS NOT NULL AND ended_at >= ? ORDER BY match_id", t)
}

func (r *MatchRepository) query(ctx context.Context, q string, args ...any) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchlog: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	index := make(map[int64]int)

	for rows.Next() {
		var (
			m       domain.Match
			win     int64
			solo    sql.NullInt64
			endedAt sql.NullTime
		)
		if err := rows.Scan(&m.MatchID, &win, &solo, &endedAt, &m.Duration, &m.Mode, &m.CreatedAt, &m.UpdatedAt); err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed matchlog row")
			continue
		}
		m.Win = win != 0
		if solo.Valid {
			s := solo.Int64 != 0
			m.Solo = &s
		}
		if endedAt.Valid {
			t := endedAt.Time.UTC()
			m.EndedAt = &t
		}
		index[m.MatchID] = len(matches)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matchlog: %w", err)
	}

	if len(matches) == 0 {
		return []domain.Match{}, nil
	}

	if err := r.attachPlayers(ctx, matches, index); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *MatchRepository) attachPlayers(ctx context.Context, matches []domain.Match, index map[int64]int) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT match_id, account_id FROM match_players ORDER BY match_id, position")
	if err != nil {
		return fmt.Errorf("failed to query match players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var matchID, accountID int64
		if err := rows.Scan(&matchID, &accountID); err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed match_players row")
			continue
		}
		if i, ok := index[matchID]; ok {
			matches[i].PlayerIDs = append(matches[i].PlayerIDs, accountID)
		}
	}
	return rows.Err()
}

// UpsertBatch writes new and changed matches in one transaction, chunked by
// DBBatchSize. Participant sublists are rewritten wholesale so a stored
// record always matches what the caller handed in.
func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for i := 0; i < len(matches); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(matches) {
			end = len(matches)
		}

		for _, match := range matches[i:end] {
			if err := upsertMatchTx(ctx, tx, match, now); err != nil {
				return fmt.Errorf("failed to upsert match %d: %w", match.MatchID, err)
			}
		}
	}

	return tx.Commit()
}

func upsertMatchTx(ctx context.Context, tx *sql.Tx, match domain.Match, now time.Time) error {
	var solo any
	if match.Solo != nil {
		solo = boolToInt(*match.Solo)
	}
	var endedAt any
	if match.EndedAt != nil {
		endedAt = match.EndedAt.UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO matchlog (match_id, win, solo, ended_at, duration, mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			win = excluded.win,
			solo = excluded.solo,
			ended_at = excluded.ended_at,
			duration = excluded.duration,
			mode = excluded.mode,
			updated_at = excluded.updated_at`,
		match.MatchID, boolToInt(match.Win), solo, endedAt, match.Duration, match.Mode, now, now)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_players WHERE match_id = ?", match.MatchID); err != nil {
		return err
	}
	for pos, accountID := range match.PlayerIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO match_players (match_id, account_id, position) VALUES (?, ?, ?)",
			match.MatchID, accountID, pos)
		if err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
