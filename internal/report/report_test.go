package report

import (
	"strings"
	"testing"
	"time"

	"dota-tracker/internal/domain"
	"dota-tracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func reportRoster() []domain.Player {
	return []domain.Player{
		{AccountID: 101, Names: map[string]string{"telegram": "kuro"}, CurrentRank: 75},
		{AccountID: 102, Names: map[string]string{"telegram": "miracle"}, CurrentRank: 80},
	}
}

func reportMatch(matchID int64, players []int64, win bool, solo *bool, endedAgo time.Duration, duration int) domain.Match {
	end := reportNow.Add(-endedAgo)
	return domain.Match{
		MatchID:   matchID,
		PlayerIDs: players,
		Win:       win,
		Solo:      solo,
		EndedAt:   &end,
		Duration:  duration,
		Mode:      22,
	}
}

func TestDailyShowsIdlePlayers(t *testing.T) {
	roster := reportRoster()
	solo := true
	matches := []domain.Match{
		reportMatch(1, []int64{101}, true, &solo, time.Hour, 2000),
	}

	text := Daily(service.Summarize(matches, roster, service.WindowDay, reportNow), roster, "telegram")

	assert.Contains(t, text, "kuro")
	assert.Contains(t, text, "played 1 games (1 won, 0 lost)")
	assert.Contains(t, text, "1 solo")
	assert.Contains(t, text, "miracle")
	assert.Contains(t, text, "took the day off")
}

func TestDailyNoSoloGames(t *testing.T) {
	roster := reportRoster()
	matches := []domain.Match{
		reportMatch(1, []int64{101}, false, nil, time.Hour, 2000),
	}

	text := Daily(service.Summarize(matches, roster, service.WindowDay, reportNow), roster, "telegram")
	assert.Contains(t, text, "no solo games")
	assert.Contains(t, text, "(0 won, 1 lost)")
}

func TestWeeklyEmptyWindow(t *testing.T) {
	roster := reportRoster()
	text := Weekly(service.Summarize(nil, roster, service.WindowWeek, reportNow), roster, "telegram")
	assert.Equal(t, "No games found in the last week.", text)
}

func TestWeeklySuperlativesAndLongestGame(t *testing.T) {
	roster := reportRoster()
	solo := true
	matches := []domain.Match{
		reportMatch(1, []int64{101, 102}, true, nil, time.Hour, 2400),
		reportMatch(2, []int64{101}, false, &solo, 2*time.Hour, 4000),
		reportMatch(3, []int64{102}, true, nil, 3*time.Hour, 1800),
	}

	text := Weekly(service.Summarize(matches, roster, service.WindowWeek, reportNow), roster, "telegram")

	assert.Contains(t, text, "Games played: 3")
	assert.Contains(t, text, "Most games: kuro (2)")
	assert.Contains(t, text, "Most losses: kuro (1)")
	assert.Contains(t, text, "Most solo games: kuro (1)")
	assert.Contains(t, text, "Best winrate: miracle (100.0%)")
	assert.Contains(t, text, "Longest game:")
	assert.Contains(t, text, "Duration: 66m 40s")
	assert.Contains(t, text, "Match ID: 2")
	assert.Contains(t, text, "Our side lost")
}

func TestAllTimeModeBreakdown(t *testing.T) {
	roster := reportRoster()
	matches := []domain.Match{
		reportMatch(1, []int64{101}, true, nil, time.Hour, 1800),
	}

	text := AllTime(service.Summarize(matches, roster, service.WindowAllTime, reportNow), roster, "telegram")
	assert.Contains(t, text, "Total matches: 1")
	assert.Contains(t, text, "Game modes:")
	assert.Contains(t, text, domain.ModeName(22))
}

func TestRankChanges(t *testing.T) {
	roster := reportRoster()
	changes := []domain.RankChange{
		{Player: &roster[0], OldRank: 74, NewRank: 75},
		{Player: &roster[1], OldRank: 80, NewRank: 73},
	}

	text := RankChanges(changes, "telegram")
	require.True(t, strings.HasPrefix(text, "Rank changes:"))
	assert.Contains(t, text, "kuro ranked up")
	assert.Contains(t, text, "miracle dropped")
}

func TestRankChangesCalibration(t *testing.T) {
	roster := reportRoster()
	text := RankChanges([]domain.RankChange{{Player: &roster[0], OldRank: 0, NewRank: 42}}, "telegram")
	assert.Contains(t, text, "kuro is now calibrated at")
}

func TestRankChangesEmpty(t *testing.T) {
	assert.Empty(t, RankChanges(nil, "telegram"))
}

func TestSoloLossNotice(t *testing.T) {
	roster := reportRoster()
	text := SoloLossNotice(roster[:1], "telegram")
	assert.Contains(t, text, "kuro")
	assert.Contains(t, text, "NT")

	assert.Empty(t, SoloLossNotice(nil, "telegram"))
}

func TestDisplayNameFallsBackToAccountID(t *testing.T) {
	summary := service.Summarize([]domain.Match{
		reportMatch(1, []int64{101, 999}, true, nil, time.Hour, 1800),
	}, []domain.Player{{AccountID: 101, Names: map[string]string{"telegram": "kuro"}}}, service.WindowWeek, reportNow)

	text := Weekly(summary, []domain.Player{{AccountID: 101, Names: map[string]string{"telegram": "kuro"}}}, "telegram")
	assert.Contains(t, text, "999") // untracked participant rendered by id
}
