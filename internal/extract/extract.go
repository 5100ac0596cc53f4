// Package extract converts raw text scraped from the index pages into typed
// records. Table cells become Constituents and chart accessibility labels
// become PriceObservations. Nothing in this package performs I/O.
package extract

import (
	"regexp"
	"strings"

	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

var (
	// pricePattern captures the number following "is", e.g. "... is 7 123,45 on ...".
	// RE2's \s is ASCII only; \p{Zs} adds the non-breaking grouping spaces.
	pricePattern = regexp.MustCompile(`is[\s\p{Zs}]+([\d\s\p{Zs},]+)`)
	// datePattern captures a "<day> <month-name> <year>" triple.
	datePattern = regexp.MustCompile(`(\d{1,2} [A-Za-z]+ \d{4})`)
	// leadingDay matches the day-of-month token of a datePattern match.
	leadingDay = regexp.MustCompile(`^\d{1,2} `)
)

// Extractor parses constituents table rows. UnitMultiplier scales the market
// cap column into absolute currency units (1e6 for a table reported in
// millions). It is applied as given, so a zero multiplier yields zero caps.
type Extractor struct {
	UnitMultiplier float64
}

// ParseRow parses one row with the extractor's multiplier.
func (e Extractor) ParseRow(row models.RowText) models.Constituent {
	return ParseConstituentRow(row.Name, row.PercentChange, row.MarketCap, e.UnitMultiplier)
}

// TopN parses the first n rows in their given order. Rows are not sorted;
// the order is whatever the page showed, typically after a sort click.
func (e Extractor) TopN(rows []models.RowText, n int) []models.Constituent {
	if n <= 0 {
		return []models.Constituent{}
	}
	if n > len(rows) {
		n = len(rows)
	}

	out := make([]models.Constituent, 0, n)
	for _, row := range rows[:n] {
		out = append(out, e.ParseRow(row))
	}
	return out
}

// ParseConstituentRow builds a Constituent from trimmed cell text.
//
// Numeric cells are parsed leniently: grouping commas are dropped, the leading
// numeric prefix is read, and anything unparseable becomes 0. An empty name is
// kept as is; callers check Constituent.Valid.
func ParseConstituentRow(nameText, percentText, marketCapText string, unitMultiplier float64) models.Constituent {
	pct := utils.ParseLenientFloat(utils.StripGrouping(percentText))
	mcap := utils.ParseLenientFloat(utils.StripGrouping(marketCapText))

	return models.Constituent{
		Name:             strings.TrimSpace(nameText),
		PercentageChange: pct,
		MarketCap:        mcap * unitMultiplier,
	}
}

// ExtractTopN returns the first n rows as Constituents, market cap unscaled.
func ExtractTopN(rows []models.RowText, n int) []models.Constituent {
	return Extractor{UnitMultiplier: 1}.TopN(rows, n)
}

// ParsePriceObservation reads a chart point label such as
// "Price of base FTSE 100 is 7 123,45 on 15 March 2022". It reports false
// unless both the price and the month could be extracted.
func ParsePriceObservation(label string) (models.PriceObservation, bool) {
	m := pricePattern.FindStringSubmatch(label)
	if m == nil {
		return models.PriceObservation{}, false
	}
	raw := strings.Replace(utils.StripSpaces(m[1]), ",", ".", 1)
	price, ok := utils.ParseLeadingFloat(raw)
	if !ok {
		return models.PriceObservation{}, false
	}

	date := datePattern.FindString(label)
	if date == "" {
		return models.PriceObservation{}, false
	}
	period := leadingDay.ReplaceAllString(date, "")

	return models.PriceObservation{Price: price, PeriodLabel: period}, true
}

// ParsePriceObservations parses every label and keeps the ones that succeed,
// in input order.
func ParsePriceObservations(labels []string) []models.PriceObservation {
	out := make([]models.PriceObservation, 0, len(labels))
	for _, label := range labels {
		if obs, ok := ParsePriceObservation(label); ok {
			out = append(out, obs)
		}
	}
	return out
}

// LowestObservation returns the observation with the smallest price. Ties keep
// the earliest one.
func LowestObservation(obs []models.PriceObservation) (models.PriceObservation, bool) {
	if len(obs) == 0 {
		return models.PriceObservation{}, false
	}
	lowest := obs[0]
	for _, o := range obs[1:] {
		if o.Price < lowest.Price {
			lowest = o
		}
	}
	return lowest, true
}
