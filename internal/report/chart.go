// Package report turns scraped results into artifacts: indented JSON files,
// console tables, SVG charts and a standalone HTML snapshot report that can
// be printed to PDF with a headless browser.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG charts
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	LineColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns the chart defaults used by the HTML report.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       360,
		MarginTop:    40,
		MarginRight:  40,
		MarginBottom: 60,
		MarginLeft:   80,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		LineColor:    "#2563eb",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// IndexChart draws the index price series in page order and circles the
// lowest point. Observations arrive newest or oldest first depending on the
// chart; they are plotted as given.
func IndexChart(obs []models.PriceObservation, lowest *models.PriceObservation, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(obs) == 0 {
		return emptySVG(cfg, "No index values")
	}
	if cfg.Title == "" {
		cfg.Title = "Index level"
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, o := range obs {
		minVal = math.Min(minVal, o.Price)
		maxVal = math.Max(maxVal, o.Price)
	}
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	xAt := func(i int) float64 {
		if len(obs) == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(len(obs)-1)
	}
	yAt := func(v float64) float64 {
		return float64(py+ph) - (v-minVal)/vRange*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)

	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := yAt(val)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, escapeXML(utils.FormatGrouped(val)))
	}

	parts := make([]string, 0, len(obs))
	for i, o := range obs {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		parts = append(parts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yAt(o.Price)))
	}
	fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(parts, " "), cfg.LineColor)

	interval := len(obs) / 6
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < len(obs); i += interval {
		x := xAt(i)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="end" transform="rotate(-35,%.1f,%d)">%s</text>`,
			x, py+ph+16, cfg.FontSize-1, cfg.TextColor, x, py+ph+16, escapeXML(obs[i].PeriodLabel))
	}

	if lowest != nil {
		for i, o := range obs {
			if o == *lowest {
				x, y := xAt(i), yAt(o.Price)
				fmt.Fprintf(&sb, `<circle class="lowest" cx="%.1f" cy="%.1f" r="5" fill="#dc2626"/>`, x, y)
				fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="#dc2626" text-anchor="middle">%s</text>`,
					x, y+18, cfg.FontSize, escapeXML(o.PeriodLabel))
				break
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ChangeBarChart draws one horizontal bar per constituent for its daily
// percentage change, green for gains and red for losses.
func ChangeBarChart(items []models.Constituent, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No constituents")
	}
	cfg.MarginLeft = 180
	if cfg.Title == "" {
		cfg.Title = "Change %"
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := 0.0, 0.0
	for _, c := range items {
		minVal = math.Min(minVal, c.PercentageChange)
		maxVal = math.Max(maxVal, c.PercentageChange)
	}
	valRange := maxVal - minVal
	if valRange < 0.001 {
		valRange = 1
	}
	zeroX := float64(px) + (-minVal/valRange)*float64(pw)

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 24)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
		zeroX, py, zeroX, py+ph)

	for i, c := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		bw := math.Abs(c.PercentageChange) / valRange * float64(pw)
		bx, color := zeroX, "#16a34a"
		if c.PercentageChange < 0 {
			bx, color = zeroX-bw, "#dc2626"
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(c.Name))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			math.Max(bx+bw, zeroX)+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(utils.FormatPct(c.PercentageChange)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	fmt.Fprintf(sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
