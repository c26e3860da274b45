package models

// ModelSummary aggregates terminal picks for one model (or one
// model+category bucket when Category is set)
type ModelSummary struct {
	Model    string `json:"model"`
	Category string `json:"category,omitempty"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Pushes int `json:"pushes"`
	Voids  int `json:"voids"`

	// WinRate excludes pushes and voids from the denominator
	WinRate float64 `json:"win_rate"`

	UnitsStaked   float64 `json:"units_staked"`
	UnitsReturned float64 `json:"units_returned"`
	ROI           float64 `json:"roi"`

	// AvgCLV is mean (closing implied prob - taken implied prob) over
	// picks that recorded a closing price; positive means we beat the close
	AvgCLV     float64 `json:"avg_clv"`
	CLVSamples int     `json:"clv_samples"`
}

// Graded returns the number of picks counted in the win rate
func (s *ModelSummary) Graded() int {
	return s.Wins + s.Losses
}
