package service

import (
	"context"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// StatsService reads the match store and roster and produces structured
// summaries. It is independent from the reconciler; the two are composed
// only through the store.
type StatsService struct {
	store  MatchStore
	roster Roster
	logger zerolog.Logger
}

func NewStatsService(store MatchStore, roster Roster, logger zerolog.Logger) *StatsService {
	return &StatsService{store: store, roster: roster, logger: logger}
}

// Summary aggregates the stored matches for a scope's roster over the
// given window. The roster is fetched fresh per call; there is no cached
// player state between report cycles.
func (s *StatsService) Summary(ctx context.Context, scope string, window Window) (*Summary, []domain.Player, error) {
	players, err := s.loadRoster(ctx, scope)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roster: %w", err)
	}

	matches, err := s.store.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load match store: %w", err)
	}

	summary := Summarize(matches, players, window, time.Now().UTC())
	s.logger.Debug().
		Str("scope", scope).
		Str("window", window.String()).
		Int("players", len(players)).
		Int("games", summary.TotalGames).
		Msg("summary computed")
	return summary, players, nil
}

// RecentSoloLosers finds scoped players who lost a solo match within the
// trailing solo-loss window.
func (s *StatsService) RecentSoloLosers(ctx context.Context, scope string) ([]domain.Player, error) {
	players, err := s.loadRoster(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	matches, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load match store: %w", err)
	}

	return SoloLosers(matches, players, time.Now().UTC()), nil
}

func (s *StatsService) loadRoster(ctx context.Context, scope string) ([]domain.Player, error) {
	if scope == ScopeAll {
		return s.roster.All(ctx)
	}
	return s.roster.ByChannel(ctx, scope)
}
