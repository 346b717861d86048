// Package report renders structured summaries into chat text. The
// aggregation engine's contract is the structured numbers; everything in
// here is presentation only.
package report

import (
	"fmt"
	"strings"

	"dota-tracker/internal/domain"
	"dota-tracker/internal/service"
)

func nameIndex(roster []domain.Player) map[int64]*domain.Player {
	index := make(map[int64]*domain.Player, len(roster))
	for i := range roster {
		index[roster[i].AccountID] = &roster[i]
	}
	return index
}

func displayName(index map[int64]*domain.Player, accountID int64, platform string) string {
	if p, ok := index[accountID]; ok {
		return p.DisplayName(platform)
	}
	return fmt.Sprintf("%d", accountID)
}

func formatDuration(seconds int) string {
	minutes, secs := seconds/60, seconds%60
	return fmt.Sprintf("%dm %02ds", minutes, secs)
}

// Daily renders the trailing-24h report: one line per player, including
// the ones with no games.
func Daily(summary *service.Summary, roster []domain.Player, platform string) string {
	index := nameIndex(roster)

	var b strings.Builder
	b.WriteString("Stats for the last 24 hours:\n")
	b.WriteString("---------------------------\n")

	for _, stats := range summary.Players {
		player := index[stats.AccountID]
		name := displayName(index, stats.AccountID, platform)
		rank := ""
		if player != nil {
			rank = fmt.Sprintf(" (%s)", domain.RankName(player.CurrentRank))
		}

		if stats.Games == 0 {
			fmt.Fprintf(&b, "%s%s took the day off\n", name, rank)
			continue
		}

		solo := "no solo games"
		if stats.SoloGames > 0 {
			solo = fmt.Sprintf("%d solo", stats.SoloGames)
		}
		fmt.Fprintf(&b, "%s%s played %d games (%d won, %d lost), %s spent, %s. WP, GN!\n",
			name, rank, stats.Games, stats.Wins, stats.Losses,
			formatDuration(stats.TotalDuration), solo)
	}
	return b.String()
}

// Weekly renders the trailing-7-day report with roster-wide superlatives.
func Weekly(summary *service.Summary, roster []domain.Player, platform string) string {
	if summary.TotalGames == 0 {
		return "No games found in the last week."
	}

	index := nameIndex(roster)

	var b strings.Builder
	b.WriteString("Weekly report:\n")
	fmt.Fprintf(&b, "Games played: %d\n", summary.TotalGames)
	fmt.Fprintf(&b, "Won: %d (%.1f%%)\n", summary.TotalWins, summary.WinRate)

	if s := summary.MostGames; s != nil {
		fmt.Fprintf(&b, "Most games: %s (%d)\n", displayName(index, s.AccountID, platform), s.Count)
	}
	if s := summary.MostWins; s != nil {
		fmt.Fprintf(&b, "Most wins: %s (%d)\n", displayName(index, s.AccountID, platform), s.Count)
	}
	if s := summary.MostLosses; s != nil {
		fmt.Fprintf(&b, "Most losses: %s (%d)\n", displayName(index, s.AccountID, platform), s.Count)
	}
	if s := summary.MostSolo; s != nil {
		fmt.Fprintf(&b, "Most solo games: %s (%d)\n", displayName(index, s.AccountID, platform), s.Count)
	}
	if r := summary.BestWinRate; r != nil {
		fmt.Fprintf(&b, "Best winrate: %s (%.1f%%)\n", displayName(index, r.AccountID, platform), r.Rate)
	}
	if r := summary.WorstLossRate; r != nil {
		fmt.Fprintf(&b, "Worst lossrate: %s (%.1f%%)\n", displayName(index, r.AccountID, platform), r.Rate)
	}

	b.WriteString("Player stats:\n")
	for _, stats := range summary.Players {
		if stats.Games == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s - games: %d, wins: %d (%.1f%%), losses: %d (%.1f%%), solo: %d\n",
			displayName(index, stats.AccountID, platform),
			stats.Games, stats.Wins, stats.WinRate, stats.Losses, stats.LossRate, stats.SoloGames)
	}

	b.WriteString(longestMatchSection(summary, index, platform))
	return b.String()
}

// AllTime renders the full-history report with the game mode breakdown.
func AllTime(summary *service.Summary, roster []domain.Player, platform string) string {
	index := nameIndex(roster)

	var b strings.Builder
	b.WriteString("ALL TIME\n")
	fmt.Fprintf(&b, "Total matches: %d\n", summary.TotalGames)

	if len(summary.ModeCounts) > 0 {
		b.WriteString("\nGame modes:\n")
		for mode, count := range summary.ModeCounts {
			fmt.Fprintf(&b, "- %s: %d\n", domain.ModeName(mode), count)
		}
	}

	b.WriteString("\nPlayer stats:\n")
	for _, stats := range summary.Players {
		if stats.Games == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d games, %.1f%% WR, %d solo\n",
			displayName(index, stats.AccountID, platform),
			stats.Games, stats.WinRate, stats.SoloGames)
	}

	b.WriteString(longestMatchSection(summary, index, platform))
	return b.String()
}

func longestMatchSection(summary *service.Summary, index map[int64]*domain.Player, platform string) string {
	m := summary.LongestMatch
	if m == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nLongest game:\n")
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(m.Duration))
	fmt.Fprintf(&b, "Mode: %s\n", domain.ModeName(m.Mode))
	if m.Win {
		b.WriteString("Our side won\n")
	} else {
		b.WriteString("Our side lost\n")
	}
	if m.EndedAt != nil {
		fmt.Fprintf(&b, "Ended: %s\n", m.EndedAt.Format("2006-01-02 15:04"))
	}

	names := make([]string, len(m.PlayerIDs))
	for i, id := range m.PlayerIDs {
		names[i] = displayName(index, id, platform)
	}
	fmt.Fprintf(&b, "Players: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Match ID: %d", m.MatchID)
	return b.String()
}

// RankChanges renders rank transitions detected during a refresh.
func RankChanges(changes []domain.RankChange, platform string) string {
	if len(changes) == 0 {
		return ""
	}

	var lines []string
	for _, change := range changes {
		name := change.Player.DisplayName(platform)
		switch {
		case change.OldRank == 0:
			lines = append(lines, fmt.Sprintf("%s is now calibrated at %s!", name, domain.RankName(change.NewRank)))
		case change.OldRank < change.NewRank:
			lines = append(lines, fmt.Sprintf("%s ranked up from %s to %s, congratulations!",
				name, domain.RankName(change.OldRank), domain.RankName(change.NewRank)))
		default:
			lines = append(lines, fmt.Sprintf("%s dropped from %s to %s. NT, better luck next time!",
				name, domain.RankName(change.OldRank), domain.RankName(change.NewRank)))
		}
	}
	return "Rank changes:\n" + strings.Join(lines, "\n")
}

// SoloLossNotice renders the solo-loss taunt, one line per afflicted
// player. Empty when nobody qualifies.
func SoloLossNotice(losers []domain.Player, platform string) string {
	if len(losers) == 0 {
		return ""
	}
	var lines []string
	for i := range losers {
		lines = append(lines, fmt.Sprintf("%s, NT, that solo queue is rough :(", losers[i].DisplayName(platform)))
	}
	return strings.Join(lines, "\n")
}
