package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

// Kind identifies one output artifact.
type Kind string

const (
	KindTopRisers     Kind = "risers"
	KindTopFallers    Kind = "fallers"
	KindMarketCap     Kind = "market-cap"
	KindLowestMonthly Kind = "lowest-month"
	KindSnapshot      Kind = "snapshot"
	KindNews          Kind = "news"
)

var filenames = map[Kind]string{
	KindTopRisers:     "highestTop10Constituents.json",
	KindTopFallers:    "lowestTop10Constituents.json",
	KindMarketCap:     "constituentsWithMarketCap.json",
	KindLowestMonthly: "lowestMonthlyAverage.json",
	KindSnapshot:      "snapshot.json",
	KindNews:          "news.json",
}

// Filename returns the JSON file name for an artifact kind.
func Filename(k Kind) string {
	if name, ok := filenames[k]; ok {
		return name
	}
	return string(k) + ".json"
}

// WriteJSON writes v to path as two-space indented JSON, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("data written to file")
	return nil
}

// WriteKind writes v to Filename(k) under dir and returns the path.
func WriteKind(dir string, k Kind, v any) (string, error) {
	path := filepath.Join(dir, Filename(k))
	return path, WriteJSON(path, v)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// ConstituentTable prints constituents with formatted change and market cap.
func ConstituentTable(w io.Writer, title string, items []models.Constituent) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"#", "Name", "Change", "Market cap"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for i, c := range items {
		t.AppendRow(table.Row{i + 1, c.Name, utils.FormatPct(c.PercentageChange), utils.FormatGBPCompact(c.MarketCap)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d constituents", len(items)), "", ""})
	t.Render()
}

// ObservationTable prints chart observations and marks the lowest.
func ObservationTable(w io.Writer, title string, obs []models.PriceObservation, lowest *models.PriceObservation) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Period", "Index", ""})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, o := range obs {
		mark := ""
		if lowest != nil && o == *lowest {
			mark = "lowest"
		}
		t.AppendRow(table.Row{o.PeriodLabel, utils.FormatGrouped(o.Price), mark})
	}
	t.Render()
}

// NewsTable prints headlines, newest first.
func NewsTable(w io.Writer, articles []models.NewsArticle) {
	t := newTable(w, "Market news")
	t.AppendHeader(table.Row{"Published", "Source", "Title"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 80}})
	for _, a := range articles {
		published := ""
		if !a.PublishedAt.IsZero() {
			published = utils.FormatDateTimeLondon(a.PublishedAt)
		}
		t.AppendRow(table.Row{published, a.Source, a.Title})
	}
	t.Render()
}
