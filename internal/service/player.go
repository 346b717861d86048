package service

import (
	"context"
	"errors"
	"fmt"

	"dota-tracker/internal/api"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
	"dota-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrAccountInvalid is returned when the external source cannot resolve an
// account id to a real profile during registration.
var ErrAccountInvalid = errors.New("account id does not resolve to a valid profile")

// ProfileSource resolves account ids to public profiles and rank tiers.
type ProfileSource interface {
	PlayerProfile(ctx context.Context, accountID int64) (*api.ProfileResponse, error)
}

type PlayerService struct {
	profiles ProfileSource
	players  *repository.PlayerRepository
	channels *repository.ChannelRepository
	logger   zerolog.Logger
}

func NewPlayerService(profiles ProfileSource, players *repository.PlayerRepository, channels *repository.ChannelRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{profiles: profiles, players: players, channels: channels, logger: logger}
}

// Register validates the account against the external source, then creates
// or updates the player and links it to the channel. A nickname is stored
// under the given platform; when empty, the profile's persona name is used.
func (s *PlayerService) Register(ctx context.Context, accountID int64, channelID, platform, nickname string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	profile, err := s.profiles.PlayerProfile(ctx, accountID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("account_id", accountID).Msg("profile lookup failed")
		return nil, fmt.Errorf("%w: %d", ErrAccountInvalid, accountID)
	}
	if profile.Profile == nil || profile.Profile.PersonaName == "" {
		return nil, fmt.Errorf("%w: %d", ErrAccountInvalid, accountID)
	}

	if nickname == "" {
		nickname = profile.Profile.PersonaName
	}

	player, err := s.players.Get(ctx, accountID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player = &domain.Player{
			AccountID: accountID,
			Names:     map[string]string{platform: nickname},
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	} else {
		player.Names[platform] = nickname
	}

	if profile.RankTier != nil {
		player.CurrentRank = *profile.RankTier
	}

	if err := s.players.Upsert(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}
	if err := s.players.LinkChannel(ctx, accountID, channelID); err != nil {
		return nil, fmt.Errorf("failed to link channel: %w", err)
	}

	s.logger.Info().
		Int64("account_id", accountID).
		Str("channel_id", channelID).
		Str("nickname", nickname).
		Msg("player registered")
	return player, nil
}

// Unregister unlinks the player from one channel; the player record is
// deleted once no channel references remain. Returns whether the player
// was fully removed.
func (s *PlayerService) Unregister(ctx context.Context, accountID int64, channelID string) (bool, error) {
	removed, err := s.players.Unlink(ctx, accountID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink player: %w", err)
	}
	return removed, nil
}

// RefreshRanks re-reads every scoped player's rank tier from the external
// source and persists the ones that moved. Lookup failures leave the
// stored rank untouched.
func (s *PlayerService) RefreshRanks(ctx context.Context, scope string) ([]domain.RankChange, error) {
	var players []domain.Player
	var err error
	if scope == ScopeAll {
		players, err = s.players.All(ctx)
	} else {
		players, err = s.players.ByChannel(ctx, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	ranks := make([]*int, len(players))

	g, gCtx := errgroup.WithContext(ctx)
	for i, player := range players {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gCtx, constants.ExternalAPITimeout)
			defer cancel()

			profile, err := s.profiles.PlayerProfile(lookupCtx, player.AccountID)
			if err != nil {
				s.logger.Warn().Err(err).Int64("account_id", player.AccountID).Msg("rank lookup failed")
				return nil
			}
			rank := 0
			if profile.RankTier != nil {
				rank = *profile.RankTier
			}
			ranks[i] = &rank
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var changes []domain.RankChange
	for i := range players {
		if ranks[i] == nil || *ranks[i] == players[i].CurrentRank {
			continue
		}
		change := domain.RankChange{
			Player:  &players[i],
			OldRank: players[i].CurrentRank,
			NewRank: *ranks[i],
		}
		if err := s.players.UpdateRank(ctx, players[i].AccountID, change.NewRank); err != nil {
			return nil, fmt.Errorf("failed to update rank for %d: %w", players[i].AccountID, err)
		}
		players[i].CurrentRank = change.NewRank
		changes = append(changes, change)

		s.logger.Info().
			Int64("account_id", players[i].AccountID).
			Int("old_rank", change.OldRank).
			Int("new_rank", change.NewRank).
			Msg("rank changed")
	}
	return changes, nil
}

// ensure the concrete clients satisfy the service interfaces
var (
	_ ProfileSource = (*api.OpenDotaClient)(nil)
	_ MatchSource   = (*api.OpenDotaClient)(nil)
	_ SoloResolver  = (*api.StratzClient)(nil)
	_ MatchStore    = (*repository.MatchRepository)(nil)
	_ MatchStore    = (*repository.CSVMatchLog)(nil)
	_ Roster        = (*repository.PlayerRepository)(nil)
)
