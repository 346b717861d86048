package domain

import (
	"strconv"
	"time"
)

// Player is a tracked squad member, keyed by their external account id.
type Player struct {
	AccountID   int64
	Names       map[string]string // platform ("telegram", "discord", ...) -> display name
	CurrentRank int               // rank tier code, 0 = unknown
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the player's name for the given platform, falling
// back to any available name and finally the account id.
func (p *Player) DisplayName(platform string) string {
	if name, ok := p.Names[platform]; ok && name != "" {
		return name
	}
	for _, name := range p.Names {
		if name != "" {
			return name
		}
	}
	return strconv.FormatInt(p.AccountID, 10)
}

// Match is one canonical match record in the matchlog. Only tracked players
// appear in PlayerIDs; the list grows across ingestion passes and never
// shrinks. Solo is nil until the enrichment source resolves it.
type Match struct {
	MatchID   int64
	PlayerIDs []int64
	Win       bool
	Solo      *bool
	EndedAt   *time.Time
	Duration  int // seconds
	Mode      int // game mode code, 0 = unknown
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPlayer reports whether accountID participated in the match.
func (m *Match) HasPlayer(accountID int64) bool {
	for _, id := range m.PlayerIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// AddPlayer appends accountID to the participant list if absent.
func (m *Match) AddPlayer(accountID int64) {
	if !m.HasPlayer(accountID) {
		m.PlayerIDs = append(m.PlayerIDs, accountID)
	}
}

// SoloKnown reports whether solo status has been resolved. A resolved
// status is immutable; reconciliation never re-queries it.
func (m *Match) SoloKnown() bool {
	return m.Solo != nil
}

// EndedWithin reports whether the match ended inside the trailing window
// [now-d, now]. Undated matches are never inside any window.
func (m *Match) EndedWithin(now time.Time, d time.Duration) bool {
	if m.EndedAt == nil {
		return false
	}
	return now.Sub(*m.EndedAt) <= d
}

// Channel is a chat group that references a set of registered players.
// Channels do not own players; the relationship is many-to-many.
type Channel struct {
	ID       string
	Name     string
	JoinedAt time.Time
}

// RankChange records a rank tier transition detected during a refresh.
type RankChange struct {
	Player  *Player
	OldRank int
	NewRank int
}
