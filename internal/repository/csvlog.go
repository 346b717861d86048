package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// CSVMatchLog is the flat-file match store backend: one row per match, the
// participant list as a ';'-delimited sublist. It satisfies the same store
// contract as MatchRepository so the two backends are interchangeable.
type CSVMatchLog struct {
	path   string
	logger zerolog.Logger
}

var csvHeader = []string{"match_id", "player_ids", "win_status", "solo_status", "endtime", "duration", "match_mode"}

func NewCSVMatchLog(path string, logger zerolog.Logger) *CSVMatchLog {
	return &CSVMatchLog{path: path, logger: logger}
}

func (l *CSVMatchLog) All(ctx context.Context) ([]domain.Match, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []domain.Match{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open match log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read match log: %w", err)
	}

	matches := []domain.Match{}
	for i, record := range records {
		if i == 0 && len(record) > 0 && record[0] == "match_id" {
			continue
		}
		match, err := parseCSVRow(record)
		if err != nil {
			l.logger.Warn().Err(err).Int("row", i+1).Msg("skipping malformed match log row")
			continue
		}
		matches = append(matches, *match)
	}
	return matches, nil
}

// UpsertBatch merges the given matches into the log by match id and
// rewrites the whole file. Append semantics are not enough here: an update
// must replace its row.
func (l *CSVMatchLog) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	existing, err := l.All(ctx)
	if err != nil {
		return err
	}

	index := make(map[int64]int, len(existing))
	for i, m := range existing {
		index[m.MatchID] = i
	}
	for _, m := range matches {
		if i, ok := index[m.MatchID]; ok {
			existing[i] = m
		} else {
			index[m.MatchID] = len(existing)
			existing = append(existing, m)
		}
	}

	return l.rewrite(existing)
}

func (l *CSVMatchLog) rewrite(matches []domain.Match) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create match log: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return err
	}
	for _, m := range matches {
		if err := writer.Write(formatCSVRow(&m)); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

func parseCSVRow(record []string) (*domain.Match, error) {
	if len(record) < 7 {
		return nil, fmt.Errorf("expected 7 fields, got %d", len(record))
	}

	matchID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad match_id %q: %w", record[0], err)
	}

	var playerIDs []int64
	for _, part := range strings.Split(record[1], ";") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad player id %q: %w", part, err)
		}
		playerIDs = append(playerIDs, id)
	}

	win := record[2] == "1" || strings.EqualFold(record[2], "true")

	var solo *bool
	switch strings.TrimSpace(record[3]) {
	case "1":
		v := true
		solo = &v
	case "0":
		v := false
		solo = &v
	}

	var endedAt *time.Time
	if record[4] != "" {
		t, err := time.Parse(time.RFC3339, record[4])
		if err != nil {
			return nil, fmt.Errorf("bad endtime %q: %w", record[4], err)
		}
		t = t.UTC()
		endedAt = &t
	}

	duration := 0
	if record[5] != "" {
		duration, err = strconv.Atoi(record[5])
		if err != nil {
			return nil, fmt.Errorf("bad duration %q: %w", record[5], err)
		}
	}

	mode := 0
	if record[6] != "" {
		if v, err := strconv.Atoi(record[6]); err == nil {
			mode = v
		}
	}

	return &domain.Match{
		MatchID:   matchID,
		PlayerIDs: playerIDs,
		Win:       win,
		Solo:      solo,
		EndedAt:   endedAt,
		Duration:  duration,
		Mode:      mode,
	}, nil
}

func formatCSVRow(m *domain.Match) []string {
	ids := make([]string, len(m.PlayerIDs))
	for i, id := range m.PlayerIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	win := "0"
	if m.Win {
		win = "1"
	}

	solo := ""
	if m.Solo != nil {
		if *m.Solo {
			solo = "1"
		} else {
			solo = "0"
		}
	}

	endtime := ""
	if m.EndedAt != nil {
		endtime = m.EndedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		strconv.FormatInt(m.MatchID, 10),
		strings.Join(ids, ";"),
		win,
		solo,
		endtime,
		strconv.Itoa(m.Duration),
		strconv.Itoa(m.Mode),
	}
}
