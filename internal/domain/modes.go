package domain

import "strconv"

// Game mode codes as reported by the match source.
const (
	ModeUnknown       = 0
	ModeAllPick       = 1
	ModeCaptainsMode  = 2
	ModeRandomDraft   = 3
	ModeSingleDraft   = 4
	ModeAllRandom     = 5
	ModeRankedAllPick = 22
	ModeTurbo         = 23
)

var modeNames = map[int]string{
	ModeUnknown:       "Unknown",
	ModeAllPick:       "All Pick",
	ModeCaptainsMode:  "Captains Mode",
	ModeRandomDraft:   "Random Draft",
	ModeSingleDraft:   "Single Draft",
	ModeAllRandom:     "All Random",
	16:                "Captains Draft",
	18:                "Ability Draft",
	20:                "All Random Deathmatch",
	21:                "1v1 Mid",
	ModeRankedAllPick: "Ranked All Pick",
	ModeTurbo:         "Turbo",
}

// ModeName returns a human readable name for a game mode code.
func ModeName(mode int) string {
	if name, ok := modeNames[mode]; ok {
		return name
	}
	return "Unknown"
}

// Rank tier codes: tens digit is the medal, ones digit the star count.
var rankMedals = map[int]string{
	0: "Uncalibrated",
	1: "Herald",
	2: "Guardian",
	3: "Crusader",
	4: "Archon",
	5: "Legend",
	6: "Ancient",
	7: "Divine",
	8: "Immortal",
}

// RankName renders a rank tier code such as 42 as "Archon 2".
func RankName(tier int) string {
	medal, ok := rankMedals[tier/10]
	if !ok || tier == 0 {
		return rankMedals[0]
	}
	star := tier % 10
	if star == 0 {
		return medal
	}
	return medal + " " + strconv.Itoa(star)
}
