// Package datasource drives the London Stock Exchange pages through a
// browser.Driver. HomePage and FTSE100Page are page objects; FTSE100Page is
// also the pagination.PageProvider and pagination.ChartProvider used by the
// scraping workflows. News reads market headlines from RSS feeds.
package datasource

import (
	"errors"
	"fmt"
)

// DefaultBaseURL is the London Stock Exchange homepage.
const DefaultBaseURL = "https://www.londonstockexchange.com/"

// IndexName is the index the page objects navigate to.
const IndexName = "FTSE 100"

// --- Sentinel errors ---

var (
	// ErrUnexpectedPage is returned when a navigation lands on the wrong URL.
	ErrUnexpectedPage = errors.New("unexpected page")

	// ErrSortNotApplied is returned when the table header does not reflect
	// the requested sort order.
	ErrSortNotApplied = errors.New("sort order not applied")

	// ErrNoObservations is returned when the chart yields no parseable
	// price labels.
	ErrNoObservations = errors.New("no valid index values found")
)

// Selectors for the London Stock Exchange markup.
const (
	selMarketsHeader    = "h2.bold-font-weight.title"
	selCookieButton     = "button"
	selQuickLinkFTSE    = "table.table-in-rich-text td:nth-child(2) a"
	selIndexTable       = "table.full-width"
	selTableRows        = "table.full-width tbody tr"
	selCellName         = "td.instrument-name"
	selCellChange       = "td.instrument-percentualchange"
	selCellMarketCap    = "td.instrument-marketcapitalization"
	selPercentHeader    = "th.percentualchange.hide-on-landscape > span:first-of-type"
	selMarketCapHeader  = "th"
	selSortOption       = "li > div"
	selPageNumber       = "a.page-number"
	selActivePageNumber = "a.page-number.active"
	selFromYearInput    = `input[aria-label="Year in from date"]`
	selPeriodicity      = "div.periodicity"
	selPeriodicityItem  = "div"
	selChartRoot        = ".highcharts-root"
	selChartLoader      = "div.v-loader__item"
	selChartLabels      = `[aria-label*="Price of base"]`
)

// Visible texts used to narrow selectors.
const (
	textAcceptCookies = "Accept all cookies"
	textConstituents  = "Constituents"
	textMarketCap     = "Market cap (m)"
	textHighToLow     = "Highest – lowest"
	textLowToHigh     = "Lowest – highest"
)

// Header classes reported by the percentage change column.
const (
	ClassSortedHighToLow = "indented clickable"
	ClassSortedLowToHigh = "indented clickable reverse"
)

// SortOrder is a constituents table sort direction.
type SortOrder int

const (
	SortHighToLow SortOrder = iota
	SortLowToHigh
)

func (o SortOrder) String() string {
	switch o {
	case SortHighToLow:
		return "high_to_low"
	case SortLowToHigh:
		return "low_to_high"
	default:
		return fmt.Sprintf("SortOrder(%d)", int(o))
	}
}

// optionText is the dropdown entry that selects the order.
func (o SortOrder) optionText() string {
	if o == SortLowToHigh {
		return textLowToHigh
	}
	return textHighToLow
}

// headerClass is the percentage change header class once the order applies.
func (o SortOrder) headerClass() string {
	if o == SortLowToHigh {
		return ClassSortedLowToHigh
	}
	return ClassSortedHighToLow
}
