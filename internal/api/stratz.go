package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dota-tracker/internal/config"

	"github.com/valyala/fasthttp"
)

const stratzGraphQLURL = "https://api.stratz.com/graphql"

const soloQueryTemplate = `
query {
  match(id: MATCH_ID) {
    players {
      steamAccountId
      partyId
    }
  }
}`

// StratzClient answers the fine-grained question the primary source cannot:
// was this player partied up in this specific match.
type StratzClient struct {
	token  string
	client *fasthttp.Client
}

func NewStratzClient(cfg *config.Config) *StratzClient {
	return &StratzClient{
		token: cfg.StratzToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

type soloResponse struct {
	Data struct {
		Match *struct {
			Players []struct {
				SteamAccountID int64  `json:"steamAccountId"`
				PartyID        *int64 `json:"partyId"`
			} `json:"players"`
		} `json:"match"`
	} `json:"data"`
}

// SoloStatus resolves whether accountID queued alone for the given match.
// Returns nil when the match data is missing or the player is not among
// its participants; nil means unknown, never false.
func (c *StratzClient) SoloStatus(ctx context.Context, matchID, accountID int64) (*bool, error) {
	query := strings.Replace(soloQueryTemplate, "MATCH_ID", fmt.Sprintf("%d", matchID), 1)

	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(stratzGraphQLURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "STRATZ_API")
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result soloResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}

	if result.Data.Match == nil {
		return nil, nil
	}

	for _, player := range result.Data.Match.Players {
		if player.SteamAccountID == accountID {
			solo := player.PartyID == nil
			return &solo, nil
		}
	}

	// player not among the match's participants
	return nil, nil
}
