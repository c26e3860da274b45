// Package report renders the static HTML dashboard.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"
	"picktrack/tracking/internal/stats"
)

const recentLimit = 25

var tmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
	"units": func(f float64) string {
		if f >= 0 {
			return fmt.Sprintf("+%.2fu", f)
		}
		return fmt.Sprintf("%.2fu", f)
	},
	"num": func(p *float64) string {
		if p == nil {
			return "–"
		}
		return fmt.Sprintf("%.1f", *p)
	},
	"unitsPtr": func(p *float64) string {
		if p == nil {
			return "–"
		}
		if *p >= 0 {
			return fmt.Sprintf("+%.2fu", *p)
		}
		return fmt.Sprintf("%.2fu", *p)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pick Tracking</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2rem; background: #0f1216; color: #e6e8eb; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { padding: 0.4rem 0.9rem; text-align: left; border-bottom: 1px solid #2a2f36; }
th { color: #9aa3ad; font-weight: 600; }
.won { color: #4caf50; } .lost { color: #ef5350; } .push, .void { color: #9aa3ad; }
h2 { margin-top: 2rem; }
.meta { color: #9aa3ad; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Pick Tracking</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}} &middot; {{.Pending}} pending</p>

<h2>Model Performance</h2>
<table>
<tr><th>Model</th><th>Record</th><th>Win Rate</th><th>Units</th><th>ROI</th><th>Avg CLV</th></tr>
{{range .Summaries}}
<tr>
<td>{{.Model}}</td>
<td>{{.Wins}}-{{.Losses}}{{if .Pushes}}-{{.Pushes}}{{end}}</td>
<td>{{pct .WinRate}}</td>
<td>{{units .UnitsReturned}}</td>
<td>{{pct .ROI}}</td>
<td>{{if .CLVSamples}}{{pct .AvgCLV}}{{else}}&ndash;{{end}}</td>
</tr>
{{end}}
</table>

<h2>Recent Settled Picks</h2>
<table>
<tr><th>Date</th><th>Model</th><th>Subject</th><th>Bet</th><th>Line</th><th>Result</th><th>Status</th><th>P/L</th></tr>
{{range .Recent}}
<tr>
<td>{{.EventTime.Format "Jan 2"}}</td>
<td>{{.Model}}</td>
<td>{{.Subject}}</td>
<td>{{.Category}} {{.Side}}{{if .StatType}} {{.StatType}}{{end}}</td>
<td>{{printf "%.1f" .Line}}</td>
<td>{{num .ObservedValue}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{unitsPtr .ProfitLoss}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

type dashboardData struct {
	GeneratedAt time.Time
	Pending     int
	Summaries   []models.ModelSummary
	Recent      []*models.Pick
}

// Render writes the dashboard HTML to path, atomically
func Render(ctx context.Context, store pickstore.Store, path string) error {
	summaries, err := stats.Summarize(ctx, store)
	if err != nil {
		return err
	}

	terminal, err := store.ListTerminal(ctx)
	if err != nil {
		return fmt.Errorf("failed to list settled picks: %w", err)
	}

	// ListTerminal is ordered oldest first; take the tail, newest first
	recent := make([]*models.Pick, 0, recentLimit)
	for i := len(terminal) - 1; i >= 0 && len(recent) < recentLimit; i-- {
		recent = append(recent, terminal[i])
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count picks: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dashboardData{
		GeneratedAt: time.Now(),
		Pending:     counts[models.StatusPending],
		Summaries:   summaries,
		Recent:      recent,
	}); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dashboard dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace dashboard: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("models", len(summaries)).
		Int("recent", len(recent)).
		Msg("Dashboard rendered")

	return nil
}
