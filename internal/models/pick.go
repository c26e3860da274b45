package models

import (
	"fmt"
	"time"
)

// Pick status lifecycle: pending -> {won, lost, push, void}.
// Terminal states are only re-opened via the manual correction tool.
const (
	StatusPending = "pending"
	StatusWon     = "won"
	StatusLost    = "lost"
	StatusPush    = "push"
	StatusVoid    = "void"
)

// Bet categories
const (
	CategorySpread     = "spread"
	CategoryTotal      = "total"
	CategoryPlayerProp = "player_prop"
)

// Bet sides
const (
	SideOver  = "over"
	SideUnder = "under"
	SideCover = "cover"
)

// Pick represents a single wager recommendation tracked through settlement
type Pick struct {
	ID      string `json:"id" db:"id"`
	Model   string `json:"model" db:"model"`
	Subject string `json:"subject" db:"subject"`

	TeamCode *string `json:"team_code,omitempty" db:"team_code"`
	Opponent *string `json:"opponent,omitempty" db:"opponent"`

	Category string  `json:"category" db:"category"`
	Side     string  `json:"side" db:"side"`
	StatType string  `json:"stat_type,omitempty" db:"stat_type"`
	Line     float64 `json:"line" db:"line"`

	// American odds at the time the pick was recorded
	Price int `json:"price" db:"price"`
	// American odds at market close, when CLV tracking captured one
	ClosingPrice *int `json:"closing_price,omitempty" db:"closing_price"`

	Stake     float64   `json:"stake" db:"stake"`
	EventTime time.Time `json:"event_time" db:"event_time"`

	Status        string     `json:"status" db:"status"`
	ObservedValue *float64   `json:"observed_value,omitempty" db:"observed_value"`
	ProfitLoss    *float64   `json:"profit_loss,omitempty" db:"profit_loss"`
	GradedAt      *time.Time `json:"graded_at,omitempty" db:"graded_at"`
	SettledBy     *string    `json:"settled_by,omitempty" db:"settled_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the pick is in a settled state
func (p *Pick) Terminal() bool {
	return TerminalStatus(p.Status)
}

// TerminalStatus reports whether status is a settled state
func TerminalStatus(status string) bool {
	switch status {
	case StatusWon, StatusLost, StatusPush, StatusVoid:
		return true
	}
	return false
}

// Validate checks the fields a model must supply when recording a pick
func (p *Pick) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pick is missing an id")
	}
	if p.Model == "" {
		return fmt.Errorf("pick %s is missing a model name", p.ID)
	}
	if p.Subject == "" {
		return fmt.Errorf("pick %s is missing a subject", p.ID)
	}

	switch p.Category {
	case CategorySpread:
		if p.Side != SideCover {
			return fmt.Errorf("pick %s: spread picks use side %q, got %q", p.ID, SideCover, p.Side)
		}
	case CategoryTotal:
		if p.Side != SideOver && p.Side != SideUnder {
			return fmt.Errorf("pick %s: total picks need an over/under side, got %q", p.ID, p.Side)
		}
	case CategoryPlayerProp:
		if p.Side != SideOver && p.Side != SideUnder {
			return fmt.Errorf("pick %s: prop picks need an over/under side, got %q", p.ID, p.Side)
		}
		if p.StatType == "" {
			return fmt.Errorf("pick %s: prop picks need a stat type", p.ID)
		}
	default:
		return fmt.Errorf("pick %s: unknown category %q", p.ID, p.Category)
	}

	if p.Price > -100 && p.Price < 100 {
		return fmt.Errorf("pick %s: price %d is not valid American odds", p.ID, p.Price)
	}
	if p.Stake <= 0 {
		return fmt.Errorf("pick %s: stake must be positive", p.ID)
	}
	if p.EventTime.IsZero() {
		return fmt.Errorf("pick %s: event time is required", p.ID)
	}

	return nil
}

// Settlement carries the terminal state applied to a pending pick
type Settlement struct {
	Status        string
	ObservedValue *float64
	ProfitLoss    float64
	SettledBy     string
}

// PickInput is the shape models submit when recording a new pick
type PickInput struct {
	Model        string    `json:"model"`
	Subject      string    `json:"subject"`
	TeamCode     string    `json:"team_code,omitempty"`
	Opponent     string    `json:"opponent,omitempty"`
	Category     string    `json:"category"`
	Side         string    `json:"side"`
	StatType     string    `json:"stat_type,omitempty"`
	Line         float64   `json:"line"`
	Price        int       `json:"price"`
	ClosingPrice *int      `json:"closing_price,omitempty"`
	Stake        float64   `json:"stake"`
	EventTime    time.Time `json:"event_time"`
}

// ToPick converts the input into a pending Pick with the given id
func (in *PickInput) ToPick(id string) *Pick {
	p := &Pick{
		ID:           id,
		Model:        in.Model,
		Subject:      in.Subject,
		Category:     in.Category,
		Side:         in.Side,
		StatType:     in.StatType,
		Line:         in.Line,
		Price:        in.Price,
		ClosingPrice: in.ClosingPrice,
		Stake:        in.Stake,
		EventTime:    in.EventTime,
		Status:       StatusPending,
	}
	if in.TeamCode != "" {
		tc := in.TeamCode
		p.TeamCode = &tc
	}
	if in.Opponent != "" {
		op := in.Opponent
		p.Opponent = &op
	}
	return p
}
