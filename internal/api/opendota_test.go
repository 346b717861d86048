package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestRawMatchPlayerWon(t *testing.T) {
	cases := []struct {
		name       string
		slot       int
		radiantWin bool
		want       bool
	}{
		{"radiant slot, radiant wins", 0, true, true},
		{"radiant slot, dire wins", 127, false, false},
		{"dire slot, dire wins", 128, false, true},
		{"dire slot, radiant wins", 132, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := RawMatch{PlayerSlot: tc.slot, RadiantWin: tc.radiantWin}
			assert.Equal(t, tc.want, m.PlayerWon())
		})
	}
}

func TestRawMatchEndTime(t *testing.T) {
	m := RawMatch{StartTime: 1767225600, Duration: 2400} // 2026-01-01 00:00:00 UTC
	end := m.EndTime()
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 40, 0, 0, time.UTC), end)
	assert.Equal(t, time.UTC, end.Location())
}

func TestRawMatchDecodeOmittedFields(t *testing.T) {
	// unparsed games come back without version or party_size
	raw := `{"match_id":12345,"player_slot":130,"radiant_win":false,"start_time":1767225600,"duration":1800,"game_mode":22}`

	var m RawMatch
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Equal(t, int64(12345), m.MatchID)
	assert.True(t, m.PlayerWon())
	assert.Nil(t, m.Version)
	assert.Nil(t, m.PartySize)
}

func TestProfileResponseDecode(t *testing.T) {
	raw := `{"profile":{"account_id":101,"personaname":"kuro","avatarfull":"http://a"},"rank_tier":75}`

	var p ProfileResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.NotNil(t, p.Profile)
	assert.Equal(t, "kuro", p.Profile.PersonaName)
	require.NotNil(t, p.RankTier)
	assert.Equal(t, 75, *p.RankTier)

	// uncalibrated accounts have a null rank tier
	var empty ProfileResponse
	require.NoError(t, json.Unmarshal([]byte(`{"profile":null,"rank_tier":null}`), &empty))
	assert.Nil(t, empty.Profile)
	assert.Nil(t, empty.RankTier)
}

func TestUpdateRateLimitFromHeaders(t *testing.T) {
	c := NewOpenDotaClient()

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	resp.Header.Set("X-Rate-Limit-Remaining-Minute", "42")
	resp.Header.Set("X-Rate-Limit-Remaining-Day", "1337")

	c.updateRateLimit(resp)

	info := c.GetRateLimitInfo()
	assert.Equal(t, 42, info.RemainingMinute)
	assert.Equal(t, 1337, info.RemainingDay)
	assert.False(t, info.UpdatedAt.IsZero())
}

func TestUpdateRateLimitIgnoresMissingHeaders(t *testing.T) {
	c := NewOpenDotaClient()
	before := c.GetRateLimitInfo()

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	c.updateRateLimit(resp)

	after := c.GetRateLimitInfo()
	assert.Equal(t, before.RemainingMinute, after.RemainingMinute)
	assert.Equal(t, before.RemainingDay, after.RemainingDay)
}
