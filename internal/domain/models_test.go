package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	p := Player{AccountID: 101, Names: map[string]string{"telegram": "kuro", "discord": "KuroKy"}}
	assert.Equal(t, "kuro", p.DisplayName("telegram"))
	assert.Equal(t, "KuroKy", p.DisplayName("discord"))

	// unknown platform falls back to any name, never the empty string
	single := Player{AccountID: 101, Names: map[string]string{"telegram": "kuro"}}
	assert.Equal(t, "kuro", single.DisplayName("discord"))

	nameless := Player{AccountID: 101}
	assert.Equal(t, "101", nameless.DisplayName("telegram"))
}

func TestMatchAddPlayerDeduplicates(t *testing.T) {
	m := Match{MatchID: 1}
	m.AddPlayer(101)
	m.AddPlayer(102)
	m.AddPlayer(101)
	assert.Equal(t, []int64{101, 102}, m.PlayerIDs)
	assert.True(t, m.HasPlayer(101))
	assert.False(t, m.HasPlayer(103))
}

func TestMatchEndedWithin(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	end := now.Add(-30 * time.Minute)
	m := Match{EndedAt: &end}
	assert.True(t, m.EndedWithin(now, time.Hour))
	assert.False(t, m.EndedWithin(now, 10*time.Minute))

	// the window boundary is inclusive
	boundary := now.Add(-time.Hour)
	m = Match{EndedAt: &boundary}
	assert.True(t, m.EndedWithin(now, time.Hour))

	undated := Match{}
	assert.False(t, undated.EndedWithin(now, 24*time.Hour))
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "Ranked All Pick", ModeName(ModeRankedAllPick))
	assert.Equal(t, "Turbo", ModeName(ModeTurbo))
	assert.Equal(t, "Unknown", ModeName(999))
}

func TestRankName(t *testing.T) {
	assert.Equal(t, "Uncalibrated", RankName(0))
	assert.Equal(t, "Herald 1", RankName(11))
	assert.Equal(t, "Archon 2", RankName(42))
	assert.Equal(t, "Immortal", RankName(80))
	assert.Equal(t, "Uncalibrated", RankName(95)) // out of range medal
}
