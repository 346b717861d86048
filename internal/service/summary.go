package service

import (
	"math"
	"time"

	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
)

// Window selects the trailing time range a summary covers.
type Window int

const (
	WindowDay Window = iota
	WindowWeek
	WindowAllTime
)

func (w Window) String() string {
	switch w {
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	default:
		return "all-time"
	}
}

func (w Window) duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// PlayerStats is one player's aggregate for a window. Losses are derived
// from games and wins so wins+losses==games holds by construction. Rates
// are percentages rounded to one decimal and only meaningful when Games>0.
type PlayerStats struct {
	AccountID     int64
	Games         int
	Wins          int
	Losses        int
	SoloGames     int
	TotalDuration int // seconds
	WinRate       float64
	LossRate      float64
}

// Superlative names the first player in roster order to reach the maximum
// of some counter.
type Superlative struct {
	AccountID int64
	Count     int
}

// RateLeader names the player holding the extreme of a rate metric.
// Players with zero games are never candidates.
type RateLeader struct {
	AccountID int64
	Rate      float64
}

// Summary is the structured aggregation output. Rendering it into chat
// text is the report package's concern, not this one's.
type Summary struct {
	Window      Window
	GeneratedAt time.Time

	TotalGames int
	TotalWins  int
	WinRate    float64

	// Players holds one entry per roster member in roster order,
	// including zero-game players so daily reports can show them idle.
	Players []PlayerStats

	MostGames  *Superlative
	MostWins   *Superlative
	MostLosses *Superlative
	MostSolo   *Superlative

	BestWinRate   *RateLeader
	WorstLossRate *RateLeader

	LongestMatch *domain.Match

	// ModeCounts tallies counted matches per game mode code.
	ModeCounts map[int]int
}

// Summarize folds a match set into per-player aggregates and roster-wide
// superlatives for the given window. A match counts toward a player iff the
// player participated and the match end time falls inside the window.
// Undated matches cannot be placed in a time window and are excluded from
// day/week aggregation; they do count toward all-time totals.
func Summarize(matches []domain.Match, roster []domain.Player, window Window, now time.Time) *Summary {
	summary := &Summary{
		Window:      window,
		GeneratedAt: now,
		ModeCounts:  make(map[int]int),
	}

	var counted []*domain.Match
	for i := range matches {
		if inWindow(&matches[i], window, now) {
			counted = append(counted, &matches[i])
		}
	}

	summary.TotalGames = len(counted)
	for _, m := range counted {
		if m.Win {
			summary.TotalWins++
		}
		summary.ModeCounts[m.Mode]++
	}
	if summary.TotalGames > 0 {
		summary.WinRate = roundRate(float64(summary.TotalWins) / float64(summary.TotalGames) * 100)
	}

	summary.Players = make([]PlayerStats, 0, len(roster))
	for _, player := range roster {
		stats := PlayerStats{AccountID: player.AccountID}
		for _, m := range counted {
			if !m.HasPlayer(player.AccountID) {
				continue
			}
			stats.Games++
			if m.Win {
				stats.Wins++
			}
			if m.Solo != nil && *m.Solo {
				stats.SoloGames++
			}
			stats.TotalDuration += m.Duration
		}
		stats.Losses = stats.Games - stats.Wins
		if stats.Games > 0 {
			stats.WinRate = roundRate(float64(stats.Wins) / float64(stats.Games) * 100)
			stats.LossRate = roundRate(float64(stats.Losses) / float64(stats.Games) * 100)
		}
		summary.Players = append(summary.Players, stats)
	}

	summary.MostGames = topCounter(summary.Players, func(s *PlayerStats) int { return s.Games })
	summary.MostWins = topCounter(summary.Players, func(s *PlayerStats) int { return s.Wins })
	summary.MostLosses = topCounter(summary.Players, func(s *PlayerStats) int { return s.Losses })
	summary.MostSolo = topCounter(summary.Players, func(s *PlayerStats) int { return s.SoloGames })

	summary.BestWinRate = topRate(summary.Players, func(s *PlayerStats) float64 { return s.WinRate })
	summary.WorstLossRate = topRate(summary.Players, func(s *PlayerStats) float64 { return s.LossRate })

	summary.LongestMatch = longestMatch(counted)

	return summary
}

// SoloLosers returns the players who lost a solo match that ended within
// the trailing solo-loss window, one entry per player no matter how many
// such losses they have. Matches with unknown solo status never qualify.
func SoloLosers(matches []domain.Match, roster []domain.Player, now time.Time) []domain.Player {
	var losers []domain.Player
	for _, player := range roster {
		for i := range matches {
			m := &matches[i]
			if !m.HasPlayer(player.AccountID) {
				continue
			}
			if m.Solo == nil || !*m.Solo || m.Win {
				continue
			}
			if !m.EndedWithin(now, constants.SoloLossWindow) {
				continue
			}
			losers = append(losers, player)
			break
		}
	}
	return losers
}

func inWindow(m *domain.Match, window Window, now time.Time) bool {
	if window == WindowAllTime {
		// undated matches count here: they happened, we just cannot date them
		return true
	}
	return m.EndedWithin(now, window.duration())
}

// topCounter picks the first player in roster order holding the maximum of
// the counter; ties resolve to the earliest player, keeping output
// deterministic. Nil when nobody has a positive count.
func topCounter(players []PlayerStats, count func(*PlayerStats) int) *Superlative {
	var top *Superlative
	for i := range players {
		c := count(&players[i])
		if c > 0 && (top == nil || c > top.Count) {
			top = &Superlative{AccountID: players[i].AccountID, Count: c}
		}
	}
	return top
}

// topRate picks the first player in roster order holding the maximum rate.
// Zero-game players carry no rates and are excluded from candidacy.
func topRate(players []PlayerStats, rate func(*PlayerStats) float64) *RateLeader {
	var top *RateLeader
	for i := range players {
		if players[i].Games == 0 {
			continue
		}
		r := rate(&players[i])
		if top == nil || r > top.Rate {
			top = &RateLeader{AccountID: players[i].AccountID, Rate: r}
		}
	}
	return top
}

// longestMatch finds the longest counted match; duration ties resolve to
// the lowest match id.
func longestMatch(matches []*domain.Match) *domain.Match {
	var longest *domain.Match
	for _, m := range matches {
		if longest == nil ||
			m.Duration > longest.Duration ||
			(m.Duration == longest.Duration && m.MatchID < longest.MatchID) {
			longest = m
		}
	}
	return longest
}

func roundRate(x float64) float64 {
	return math.Round(x*10) / 10
}
