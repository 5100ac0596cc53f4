package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// HTML snapshot report
// ════════════════════════════════════════════════════════════════════

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Title    string      // custom report title (optional)
	ChartCfg ChartConfig // chart rendering config
	Now      time.Time   // report timestamp; zero means now
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{ChartCfg: DefaultChartConfig()}
}

// ReportData is the template model.
type ReportData struct {
	Title       string
	GeneratedAt string
	Market      string

	Risers    []ConstituentRow
	Fallers   []ConstituentRow
	LargeCaps []ConstituentRow

	Lowest       *models.PriceObservation
	LowestPrice  string
	Observations int

	IndexChart   template.HTML
	RisersChart  template.HTML
	FallersChart template.HTML
}

// ConstituentRow is a display-ready constituent.
type ConstituentRow struct {
	Rank      int
	Name      string
	Change    string
	Positive  bool
	MarketCap string
}

// GenerateHTML renders a snapshot as a standalone HTML page.
func GenerateHTML(snap *models.IndexSnapshot, cfg ReportConfig) (string, error) {
	if snap == nil {
		return "", errors.New("snapshot is nil")
	}

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(snap, cfg)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildReportData(snap *models.IndexSnapshot, cfg ReportConfig) ReportData {
	now := cfg.Now
	if now.IsZero() {
		now = utils.NowLondon()
	}
	if cfg.ChartCfg.Width == 0 {
		cfg.ChartCfg = DefaultChartConfig()
	}
	title := cfg.Title
	if title == "" {
		title = snap.Index + " snapshot"
	}

	data := ReportData{
		Title:        title,
		GeneratedAt:  utils.FormatDateTimeLondon(now),
		Market:       utils.MarketStatusAt(now),
		Risers:       constituentRows(snap.TopRisers),
		Fallers:      constituentRows(snap.TopFallers),
		LargeCaps:    constituentRows(snap.LargeCaps),
		Lowest:       snap.LowestMonthly,
		Observations: len(snap.Observations),
	}
	if snap.LowestMonthly != nil {
		data.LowestPrice = utils.FormatGrouped(snap.LowestMonthly.Price)
	}

	// Chart SVG is generated here from numbers and escaped labels.
	chart := cfg.ChartCfg
	chart.Title = snap.Index + " monthly"
	data.IndexChart = template.HTML(IndexChart(snap.Observations, snap.LowestMonthly, chart))
	chart.Title = "Top risers"
	data.RisersChart = template.HTML(ChangeBarChart(snap.TopRisers, chart))
	chart.Title = "Top fallers"
	data.FallersChart = template.HTML(ChangeBarChart(snap.TopFallers, chart))

	return data
}

func constituentRows(items []models.Constituent) []ConstituentRow {
	rows := make([]ConstituentRow, 0, len(items))
	for i, c := range items {
		rows = append(rows, ConstituentRow{
			Rank:      i + 1,
			Name:      c.Name,
			Change:    utils.FormatPct(c.PercentageChange),
			Positive:  c.PercentageChange >= 0,
			MarketCap: utils.FormatGBPCompact(c.MarketCap),
		})
	}
	return rows
}
