package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

const openDotaBaseURL = "https://api.opendota.com/api"

// OpenDotaClient talks to the primary match source. It returns coarse
// per-player match rows; party composition needs the enrichment client.
type OpenDotaClient struct {
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	RemainingMinute int `json:"remaining_minute"`
	RemainingDay    int `json:"remaining_day"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewOpenDotaClient() *OpenDotaClient {
	return &OpenDotaClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			RemainingMinute: 60,
			RemainingDay:    2000,
			UpdatedAt:       time.Now(),
		},
	}
}

func (c *OpenDotaClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *OpenDotaClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if minute := string(resp.Header.Peek("X-Rate-Limit-Remaining-Minute")); minute != "" {
		if val, err := strconv.Atoi(minute); err == nil {
			c.rateLimit.RemainingMinute = val
		}
	}
	if day := string(resp.Header.Peek("X-Rate-Limit-Remaining-Day")); day != "" {
		if val, err := strconv.Atoi(day); err == nil {
			c.rateLimit.RemainingDay = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// RawMatch is one row of a player's recent-match listing. Fields that the
// source may omit for unparsed games are pointers.
type RawMatch struct {
	MatchID    int64  `json:"match_id"`
	PlayerSlot int    `json:"player_slot"`
	RadiantWin bool   `json:"radiant_win"`
	StartTime  int64  `json:"start_time"`
	Duration   int    `json:"duration"`
	GameMode   int    `json:"game_mode"`
	PartySize  *int   `json:"party_size"`
	Version    *int   `json:"version"`
	HeroID     int    `json:"hero_id"`
	LobbyType  int    `json:"lobby_type"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
}

// PlayerWon reports whether the fetching player's side won. Slots below
// 128 are radiant.
func (m *RawMatch) PlayerWon() bool {
	isRadiant := m.PlayerSlot < 128
	return isRadiant == m.RadiantWin
}

// EndTime derives the match end from start time plus duration. Both fields
// come from the same raw record.
func (m *RawMatch) EndTime() time.Time {
	return time.Unix(m.StartTime, 0).UTC().Add(time.Duration(m.Duration) * time.Second)
}

type ProfileResponse struct {
	Profile  *Profile `json:"profile"`
	RankTier *int     `json:"rank_tier"`
}

type Profile struct {
	AccountID   int64  `json:"account_id"`
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatarfull"`
}

// RecentMatches fetches matches the account played within the trailing
// lookbackDays window.
func (c *OpenDotaClient) RecentMatches(ctx context.Context, accountID int64, lookbackDays int) ([]RawMatch, error) {
	url := fmt.Sprintf("%s/players/%d/matches?date=%d", openDotaBaseURL, accountID, lookbackDays)
	matches, err := doGet[[]RawMatch](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return *matches, nil
}

// PlayerProfile resolves an account id to its public profile. Used to
// validate registrations and to read the current rank tier.
func (c *OpenDotaClient) PlayerProfile(ctx context.Context, accountID int64) (*ProfileResponse, error) {
	url := fmt.Sprintf("%s/players/%d", openDotaBaseURL, accountID)
	return doGet[ProfileResponse](ctx, c, url)
}

// RequestParse asks the source to schedule replay parsing for a match that
// still has no version. Best effort.
func (c *OpenDotaClient) RequestParse(ctx context.Context, matchID int64) error {
	url := fmt.Sprintf("%s/request/%d", openDotaBaseURL, matchID)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)

	if err := c.do(ctx, req, resp); err != nil {
		return err
	}

	c.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("API error: %d", resp.StatusCode())
	}
	return nil
}

func (c *OpenDotaClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline, ok := ctx.Deadline()
	if ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}

func doGet[T any](ctx context.Context, client *OpenDotaClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := client.do(ctx, req, resp); err != nil {
		return nil, err
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
