package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dota-tracker/internal/api"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ScopeAll reconciles the full tracked roster instead of one channel's.
const ScopeAll = "all"

// ErrReconcileInFlight is returned when a pass is already running for the
// requested scope. Callers retry on their next schedule tick; queueing a
// second pass would only re-read what the first one just wrote.
var ErrReconcileInFlight = errors.New("reconciliation already in flight for scope")

// MatchSource is the primary external match feed.
type MatchSource interface {
	RecentMatches(ctx context.Context, accountID int64, lookbackDays int) ([]api.RawMatch, error)
	RequestParse(ctx context.Context, matchID int64) error
}

// SoloResolver answers whether a player queued alone for a match. A nil
// result means unknown and is retried on a later pass.
type SoloResolver interface {
	SoloStatus(ctx context.Context, matchID, accountID int64) (*bool, error)
}

// MatchStore is the persisted matchlog. UpsertBatch must be idempotent on
// match id.
type MatchStore interface {
	All(ctx context.Context) ([]domain.Match, error)
	UpsertBatch(ctx context.Context, matches []domain.Match) error
}

// Roster provides the players in a reconciliation scope.
type Roster interface {
	All(ctx context.Context) ([]domain.Player, error)
	ByChannel(ctx context.Context, channelID string) ([]domain.Player, error)
}

// Reconciler produces an up-to-date deduplicated matchlog for a roster and
// lookback window: fetch raw matches per player, merge by match id, resolve
// solo status, diff against the store, persist only new or changed records.
type Reconciler struct {
	source   MatchSource
	resolver SoloResolver
	store    MatchStore
	roster   Roster
	logger   zerolog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

func NewReconciler(source MatchSource, resolver SoloResolver, store MatchStore, roster Roster, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		source:   source,
		resolver: resolver,
		store:    store,
		roster:   roster,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Result summarizes one reconciliation pass.
type Result struct {
	PassID  string
	Scope   string
	Players int
	Fetched int
	New     int
	Updated int
}

// workingMatch pairs a merged candidate record with the player whose fetch
// first surfaced it; that player is the enrichment lookup subject.
type workingMatch struct {
	match    *domain.Match
	fetcher  int64
	unparsed bool
}

// Reconcile runs one pass for the given scope. At most one pass per scope
// runs at a time. Nothing is written until the full working set is built,
// so cancellation before the persist step never corrupts the store.
func (r *Reconciler) Reconcile(ctx context.Context, scope string, lookbackDays int) (*Result, error) {
	if !r.acquire(scope) {
		return nil, fmt.Errorf("%w: %s", ErrReconcileInFlight, scope)
	}
	defer r.release(scope)

	passID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	logger := r.logger.With().Str("pass_id", passID).Str("scope", scope).Logger()

	players, err := r.loadRoster(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if len(players) == 0 {
		logger.Info().Msg("no players in scope, nothing to reconcile")
		return &Result{PassID: passID, Scope: scope}, nil
	}

	stored, err := r.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load match store: %w", err)
	}
	existing := make(map[int64]*domain.Match, len(stored))
	for i := range stored {
		existing[stored[i].MatchID] = &stored[i]
	}
	logger.Debug().Int("players", len(players)).Int("stored", len(stored)).Msg("pass starting")

	raw, fetched := r.fetchAll(ctx, logger, players, lookbackDays)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working, order := r.merge(players, raw, existing, lookbackDays)

	if err := r.enrich(ctx, logger, working, order); err != nil {
		return nil, err
	}

	var toWrite []domain.Match
	var created, updated int
	for _, matchID := range order {
		w := working[matchID]
		prev, ok := existing[matchID]
		switch {
		case !ok:
			created++
			toWrite = append(toWrite, *w.match)
		case matchChanged(prev, w.match):
			updated++
			toWrite = append(toWrite, *w.match)
		}
	}

	if err := r.store.UpsertBatch(ctx, toWrite); err != nil {
		return nil, fmt.Errorf("failed to persist matches: %w", err)
	}

	r.requestParses(ctx, logger, working, order)

	logger.Info().
		Int("players", len(players)).
		Int("fetched", fetched).
		Int("new", created).
		Int("updated", updated).
		Msg("reconciliation pass complete")

	return &Result{
		PassID:  passID,
		Scope:   scope,
		Players: len(players),
		Fetched: fetched,
		New:     created,
		Updated: updated,
	}, nil
}

func (r *Reconciler) acquire(scope string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[scope] {
		return false
	}
	r.inflight[scope] = true
	return true
}

func (r *Reconciler) release(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, scope)
}

func (r *Reconciler) loadRoster(ctx context.Context, scope string) ([]domain.Player, error) {
	if scope == ScopeAll {
		return r.roster.All(ctx)
	}
	return r.roster.ByChannel(ctx, scope)
}

// fetchAll fans out one recent-matches fetch per player and joins before
// returning. A failed fetch degrades to no data for that player; the pass
// continues for everyone else.
func (r *Reconciler) fetchAll(ctx context.Context, logger zerolog.Logger, players []domain.Player, lookbackDays int) ([][]api.RawMatch, int) {
	results := make([][]api.RawMatch, len(players))

	g, gCtx := errgroup.WithContext(ctx)
	for i, player := range players {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gCtx, constants.ExternalAPITimeout)
			defer cancel()

			matches, err := r.source.RecentMatches(fetchCtx, player.AccountID, lookbackDays)
			if err != nil {
				logger.Warn().Err(err).Int64("account_id", player.AccountID).Msg("recent matches fetch failed, continuing without")
				return nil
			}
			results[i] = matches
			return nil
		})
	}
	// fetch errors are absorbed above; Wait only fails on ctx cancellation
	_ = g.Wait()

	fetched := 0
	for _, rs := range results {
		fetched += len(rs)
	}
	return results, fetched
}

// merge folds per-player raw fetches into one working set keyed by match
// id. Two tracked players reporting the same match converge on a single
// record regardless of fetch order; participant lists start from the
// stored record so they only ever grow.
func (r *Reconciler) merge(players []domain.Player, raw [][]api.RawMatch, existing map[int64]*domain.Match, lookbackDays int) (map[int64]*workingMatch, []int64) {
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	working := make(map[int64]*workingMatch)
	var order []int64

	for i, player := range players {
		for _, rawMatch := range raw[i] {
			endTime := rawMatch.EndTime()
			if endTime.Before(cutoff) {
				continue
			}

			if w, ok := working[rawMatch.MatchID]; ok {
				w.match.AddPlayer(player.AccountID)
				continue
			}

			m := &domain.Match{
				MatchID:  rawMatch.MatchID,
				Win:      rawMatch.PlayerWon(),
				EndedAt:  &endTime,
				Duration: rawMatch.Duration,
				Mode:     rawMatch.GameMode,
			}
			if prev, ok := existing[rawMatch.MatchID]; ok {
				m.PlayerIDs = append(m.PlayerIDs, prev.PlayerIDs...)
				if prev.SoloKnown() {
					m.Solo = prev.Solo
				}
			}
			m.AddPlayer(player.AccountID)

			working[rawMatch.MatchID] = &workingMatch{
				match:    m,
				fetcher:  player.AccountID,
				unparsed: rawMatch.Version == nil,
			}
			order = append(order, rawMatch.MatchID)
		}
	}

	return working, order
}

// enrich resolves solo status for matches that do not already carry a
// known value, at most one lookup per match per pass, throttled to respect
// the enrichment API's rate limit. A failed lookup leaves the status
// unknown; the match is written anyway and retried next pass.
func (r *Reconciler) enrich(ctx context.Context, logger zerolog.Logger, working map[int64]*workingMatch, order []int64) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.EnrichmentConcurrency)

	for _, matchID := range order {
		w := working[matchID]
		if w.match.SoloKnown() {
			continue
		}
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gCtx, constants.ExternalAPITimeout)
			defer cancel()

			solo, err := r.resolver.SoloStatus(lookupCtx, w.match.MatchID, w.fetcher)
			if err != nil {
				logger.Warn().Err(err).Int64("match_id", w.match.MatchID).Msg("solo lookup failed, leaving unknown")
				return nil
			}
			w.match.Solo = solo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// matchChanged compares a stored record to a freshly merged one. A nil
// new-side field carries no information and skips that field's comparison;
// an absent new value over a present old one is never a change.
func matchChanged(prev, next *domain.Match) bool {
	if prev.Win != next.Win {
		return true
	}
	if next.Solo != nil {
		if prev.Solo == nil || *prev.Solo != *next.Solo {
			return true
		}
	}
	if next.EndedAt != nil {
		if prev.EndedAt == nil || !prev.EndedAt.Equal(*next.EndedAt) {
			return true
		}
	}
	if next.Duration != 0 && prev.Duration != next.Duration {
		return true
	}
	if next.Mode != 0 && prev.Mode != next.Mode {
		return true
	}
	for _, id := range next.PlayerIDs {
		if !prev.HasPlayer(id) {
			return true
		}
	}
	return false
}

// requestParses asks the source to parse replays for matches that still
// have no version. Best effort: failures are logged and forgotten.
func (r *Reconciler) requestParses(ctx context.Context, logger zerolog.Logger, working map[int64]*workingMatch, order []int64) {
	for _, matchID := range order {
		w := working[matchID]
		if !w.unparsed {
			continue
		}
		parseCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		err := r.source.RequestParse(parseCtx, w.match.MatchID)
		cancel()
		if err != nil {
			logger.Debug().Err(err).Int64("match_id", w.match.MatchID).Msg("parse request failed")
		}
	}
}
