package results

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picktrack/tracking/internal/normalize"
)

func TestPlayerLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "/stats/json/PlayerGameStatsByDate/2026-03-01", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"Name":"Jayson Tatum","Team":"BOS","Day":"2026-03-01T00:00:00","IsClosed":true,
			 "Points":31,"Rebounds":8,"Assists":5,"Steals":1,"BlockedShots":0,"ThreePointersMade":4,"Minutes":36},
			{"Name":"Jaylen Brown","Team":"BOS","Day":"2026-03-01T00:00:00","IsClosed":false,
			 "Points":12,"Rebounds":3,"Assists":2,"Steals":0,"BlockedShots":1,"ThreePointersMade":1,"Minutes":18}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, time.UTC)

	lines, err := client.PlayerLines(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Jayson Tatum", lines[0].PlayerName)
	assert.Equal(t, "BOS", lines[0].TeamCode)
	assert.True(t, lines[0].Final)
	assert.Equal(t, 31.0, lines[0].Stats["points"])
	assert.Equal(t, 44.0, lines[0].Stats["pra"], "points+rebounds+assists")

	assert.False(t, lines[1].Final, "in-progress lines are not final")
}

func TestPlayerLines_ZonelessDayReadInReferenceTimezone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"Name":"Jayson Tatum","Team":"BOS","Day":"2026-03-01T00:00:00","IsClosed":true,"Points":31}
		]`))
	}))
	defer server.Close()

	eastern, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	client := NewClient(server.URL, "test-key", 5*time.Second, eastern)

	lines, err := client.PlayerLines(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, eastern))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// The API's Day carries no zone. Read as UTC it would land on
	// Feb 28 in Eastern and never match a March 1 tip.
	assert.True(t, lines[0].EventDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, eastern)))

	tip := time.Date(2026, 3, 1, 19, 30, 0, 0, eastern)
	assert.True(t, normalize.SameDay(lines[0].EventDate, tip, eastern),
		"result day must land on the pick's Eastern calendar day")
}

func TestTeamResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scores/json/GamesByDate/2026-03-01", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"Day":"2026-03-01T00:00:00","Status":"Final","HomeTeam":"BOS","AwayTeam":"NYK","HomeTeamScore":112,"AwayTeamScore":104},
			{"Day":"2026-03-01T00:00:00","Status":"Scheduled","HomeTeam":"MIA","AwayTeam":"ORL","HomeTeamScore":null,"AwayTeamScore":null}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, time.UTC)

	results, err := client.TeamResults(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// final game expands to a row per team; the scoreless game is dropped
	require.Len(t, results, 2)
	assert.Equal(t, "BOS", results[0].TeamCode)
	assert.Equal(t, "NYK", results[0].Opponent)
	assert.Equal(t, 8.0, results[0].Margin())
	assert.Equal(t, 216.0, results[0].Total())
	assert.Equal(t, "NYK", results[1].TeamCode)
	assert.Equal(t, -8.0, results[1].Margin())
	assert.True(t, results[0].Final)
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, time.UTC)
	client.retryDelay = 10 * time.Millisecond

	_, err := client.PlayerLines(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", 5*time.Second, time.UTC)
	client.retryDelay = 10 * time.Millisecond

	_, err := client.PlayerLines(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth errors are not retried")
}
