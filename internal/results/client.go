// Package results fetches final stat lines and game scores from the
// external results API. Responses are delayed and imperfectly keyed, so
// callers match rows back to picks by normalized name and date.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"picktrack/tracking/internal/metrics"
	"picktrack/tracking/internal/models"
)

// Client is the results API client
type Client struct {
	baseURL     string
	apiKey      string
	loc         *time.Location
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new results API client. The API reports event days
// as zone-less timestamps, so loc names the timezone they are read in —
// it must match the reference timezone used for calendar-day matching.
func NewClient(baseURL, apiKey string, timeout time.Duration, loc *time.Location) *Client {
	// Max 10 concurrent requests
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	if loc == nil {
		loc = time.UTC
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		loc:         loc,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retry, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	return nil, lastErr
}

// do performs a single attempt; the bool reports whether the error is
// retryable
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	// Rate limiting: acquire semaphore
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.rateLimiter:
	}
	defer func() { c.rateLimiter <- struct{}{} }()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "picktrack/1.0")

	log.Debug().
		Str("url", url).
		Str("method", req.Method).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(url, "error", time.Since(start).Seconds())
		return nil, true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	metrics.RecordAPICall(url, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, false, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(body))

	default:
		return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

// playerGameStat is the wire shape of one player stat line
type playerGameStat struct {
	Name     string  `json:"Name"`
	Team     string  `json:"Team"`
	Day      string  `json:"Day"`
	IsClosed bool    `json:"IsClosed"`
	Points   float64 `json:"Points"`
	Rebounds float64 `json:"Rebounds"`
	Assists  float64 `json:"Assists"`
	Steals   float64 `json:"Steals"`
	Blocks   float64 `json:"BlockedShots"`
	Threes   float64 `json:"ThreePointersMade"`
	Minutes  float64 `json:"Minutes"`
}

// gameScore is the wire shape of one game result
type gameScore struct {
	Day       string `json:"Day"`
	Status    string `json:"Status"`
	HomeTeam  string `json:"HomeTeam"`
	AwayTeam  string `json:"AwayTeam"`
	HomeScore *int   `json:"HomeTeamScore"`
	AwayScore *int   `json:"AwayTeamScore"`
}

// PlayerLines fetches player stat lines for a calendar date
func (c *Client) PlayerLines(ctx context.Context, date time.Time) ([]models.PlayerLine, error) {
	path := fmt.Sprintf("stats/json/PlayerGameStatsByDate/%s", date.Format("2006-01-02"))

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player stat lines: %w", err)
	}

	var raw []playerGameStat
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player stat lines: %w", err)
	}

	lines := make([]models.PlayerLine, 0, len(raw))
	for _, r := range raw {
		eventDate, err := c.parseDay(r.Day)
		if err != nil {
			eventDate = date
		}
		lines = append(lines, models.PlayerLine{
			PlayerName: r.Name,
			TeamCode:   r.Team,
			EventDate:  eventDate,
			Final:      r.IsClosed,
			Stats: map[string]float64{
				"points":   r.Points,
				"rebounds": r.Rebounds,
				"assists":  r.Assists,
				"steals":   r.Steals,
				"blocks":   r.Blocks,
				"threes":   r.Threes,
				"minutes":  r.Minutes,
				"pra":      r.Points + r.Rebounds + r.Assists,
			},
		})
	}

	log.Debug().
		Str("date", date.Format("2006-01-02")).
		Int("count", len(lines)).
		Msg("Player stat lines fetched")

	return lines, nil
}

// TeamResults fetches game results for a calendar date, expanded to one
// row per team
func (c *Client) TeamResults(ctx context.Context, date time.Time) ([]models.TeamResult, error) {
	path := fmt.Sprintf("scores/json/GamesByDate/%s", date.Format("2006-01-02"))

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game results: %w", err)
	}

	var raw []gameScore
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game results: %w", err)
	}

	var results []models.TeamResult
	for _, g := range raw {
		if g.HomeScore == nil || g.AwayScore == nil {
			continue
		}
		eventDate, err := c.parseDay(g.Day)
		if err != nil {
			eventDate = date
		}
		final := g.Status == "Final" || g.Status == "F/OT"

		results = append(results,
			models.TeamResult{
				TeamCode:      g.HomeTeam,
				Opponent:      g.AwayTeam,
				EventDate:     eventDate,
				PointsFor:     *g.HomeScore,
				PointsAgainst: *g.AwayScore,
				Final:         final,
			},
			models.TeamResult{
				TeamCode:      g.AwayTeam,
				Opponent:      g.HomeTeam,
				EventDate:     eventDate,
				PointsFor:     *g.AwayScore,
				PointsAgainst: *g.HomeScore,
				Final:         final,
			},
		)
	}

	log.Debug().
		Str("date", date.Format("2006-01-02")).
		Int("count", len(results)).
		Msg("Game results fetched")

	return results, nil
}

// parseDay reads the API's Day field. The field usually carries no zone
// ("2026-03-01T00:00:00"); parsing it as UTC would shift the row onto
// the previous calendar day in a western reference timezone, so the
// zone-less form is read in the client's configured location.
func (c *Client) parseDay(day string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, day); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", day, c.loc)
}
