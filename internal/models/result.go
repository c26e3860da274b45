package models

import "time"

// PlayerLine is one player's stat line for a single game, as reported by
// the results source
type PlayerLine struct {
	PlayerName string             `json:"player_name"`
	TeamCode   string             `json:"team_code"`
	EventDate  time.Time          `json:"event_date"`
	Stats      map[string]float64 `json:"stats"`
	Final      bool               `json:"final"`
}

// TeamResult is one team's side of a final (or in-progress) game result
type TeamResult struct {
	TeamCode      string    `json:"team_code"`
	TeamName      string    `json:"team_name"`
	Opponent      string    `json:"opponent"`
	EventDate     time.Time `json:"event_date"`
	PointsFor     int       `json:"points_for"`
	PointsAgainst int       `json:"points_against"`
	Final         bool      `json:"final"`
}

// Margin returns the team's winning margin (negative when it lost)
func (t *TeamResult) Margin() float64 {
	return float64(t.PointsFor - t.PointsAgainst)
}

// Total returns the combined score of the game
func (t *TeamResult) Total() float64 {
	return float64(t.PointsFor + t.PointsAgainst)
}
