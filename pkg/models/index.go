// Package models holds the plain record types produced by lsewatch.
package models

import "math"

// Constituent represents one listed instrument of the tracked index as read
// from a constituents table row.
type Constituent struct {
	Name             string  `json:"name"`
	PercentageChange float64 `json:"percentageChange"`
	MarketCap        float64 `json:"marketCap"` // absolute currency units, after the unit multiplier
}

// Valid reports whether the record is usable. Only the name can make a
// record unusable; numeric fields always resolve to a finite number.
func (c Constituent) Valid() bool {
	return c.Name != "" && isFinite(c.PercentageChange) && isFinite(c.MarketCap)
}

// RowText is the raw, trimmed cell text of one constituents table row.
type RowText struct {
	Name          string `json:"name"`
	PercentChange string `json:"percentChange"`
	MarketCap     string `json:"marketCap"`
}

// PriceObservation is one point of the index time-series chart.
type PriceObservation struct {
	Price       float64 `json:"price"`
	PeriodLabel string  `json:"monthYear"` // e.g. "March 2022"
}

// IndexSnapshot bundles everything scraped in one pass over the index pages.
type IndexSnapshot struct {
	Index         string             `json:"index"`
	TopRisers     []Constituent      `json:"top_risers,omitempty"`
	TopFallers    []Constituent      `json:"top_fallers,omitempty"`
	LargeCaps     []Constituent      `json:"large_caps,omitempty"`
	LowestMonthly *PriceObservation  `json:"lowest_monthly,omitempty"`
	Observations  []PriceObservation `json:"observations,omitempty"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
