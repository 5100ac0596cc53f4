// Package pagination walks a paginated constituents listing page by page and
// collects the rows whose market cap exceeds a threshold.
//
// The walk is an explicit state machine:
//
//	ReadingPage → Filtering → CheckingNextPage → (ReadingPage | Done)
//
// An empty page, a last page, or a navigation that cannot be confirmed all end
// the walk. The records gathered so far are returned in every case. The walk
// itself has no iteration cap: a PageProvider that never reports a last page
// is a caller defect, and callers that need a bound impose it at the provider.
package pagination

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/lsewatch/internal/extract"
	"github.com/seenimoa/lsewatch/pkg/models"
)

// PageProvider exposes the rows of the currently displayed page and
// navigation between pages. Implementations must only return rows from a
// stable, fully rendered page.
type PageProvider interface {
	// CurrentPageRowTexts returns the raw cell text of every row on the page.
	CurrentPageRowTexts(ctx context.Context) ([]models.RowText, error)

	// HasNextPage reports whether a page after pageIndex (1-based) exists.
	HasNextPage(ctx context.Context, pageIndex int) (bool, error)

	// GoToNextPage navigates to pageIndex+1 and reports whether the
	// navigation was confirmed complete.
	GoToNextPage(ctx context.Context, pageIndex int) (bool, error)
}

// ChartProvider exposes the accessibility labels of the time-series chart.
type ChartProvider interface {
	CurrentChartLabels(ctx context.Context) ([]string, error)
}

// StopReason tells why a walk ended.
type StopReason string

const (
	StopEmptyPage         StopReason = "empty_page"
	StopLastPage          StopReason = "last_page"
	StopNavigationStalled StopReason = "navigation_stalled"
	StopReadFailed        StopReason = "read_failed"
)

// Result is the outcome of one walk.
type Result struct {
	Records []models.Constituent `json:"records"`
	Pages   int                  `json:"pages"` // pages whose rows were read
	Stop    StopReason           `json:"stop"`
}

type state int

const (
	stateReadingPage state = iota
	stateFiltering
	stateCheckingNextPage
	stateDone
)

func (s state) String() string {
	switch s {
	case stateReadingPage:
		return "reading_page"
	case stateFiltering:
		return "filtering"
	case stateCheckingNextPage:
		return "checking_next_page"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Aggregator runs threshold walks. The zero value logs to the global logger.
type Aggregator struct {
	Logger *zerolog.Logger
}

// CollectExceedingThreshold walks every page of p and returns the
// constituents whose scaled market cap is strictly greater than threshold,
// in page order.
func CollectExceedingThreshold(ctx context.Context, p PageProvider, threshold, unitMultiplier float64) ([]models.Constituent, error) {
	res, err := Aggregator{}.Collect(ctx, p, threshold, unitMultiplier)
	return res.Records, err
}

// Collect is CollectExceedingThreshold with walk details.
//
// A failed or errored GoToNextPage ends the walk without an error so the
// records already collected are kept. A HasNextPage error does the same. A
// CurrentPageRowTexts error is returned alongside the partial result.
func (a Aggregator) Collect(ctx context.Context, p PageProvider, threshold, unitMultiplier float64) (Result, error) {
	logger := a.logger()
	ex := extract.Extractor{UnitMultiplier: unitMultiplier}

	res := Result{Records: []models.Constituent{}}
	var (
		st      = stateReadingPage
		page    = 1
		rows    []models.RowText
		readErr error
	)

	for st != stateDone {
		logger.Trace().Int("page", page).Stringer("state", st).Msg("pagination step")
		switch st {
		case stateReadingPage:
			rows, readErr = p.CurrentPageRowTexts(ctx)
			if readErr != nil {
				res.Stop = StopReadFailed
				st = stateDone
				continue
			}
			if len(rows) == 0 {
				res.Stop = StopEmptyPage
				st = stateDone
				continue
			}
			res.Pages++
			st = stateFiltering

		case stateFiltering:
			kept := 0
			for _, row := range rows {
				c := ex.ParseRow(row)
				if c.MarketCap > threshold {
					res.Records = append(res.Records, c)
					kept++
				}
			}
			logger.Debug().Int("page", page).Int("rows", len(rows)).Int("kept", kept).
				Msg("constituents above threshold on page")
			st = stateCheckingNextPage

		case stateCheckingNextPage:
			st = a.advance(ctx, p, &page, &res, logger)
		}
	}

	if readErr != nil {
		return res, fmt.Errorf("read page %d: %w", page, readErr)
	}
	return res, nil
}

// advance performs the CheckingNextPage step and returns the next state.
func (a Aggregator) advance(ctx context.Context, p PageProvider, page *int, res *Result, logger *zerolog.Logger) state {
	more, err := p.HasNextPage(ctx, *page)
	if err != nil {
		logger.Warn().Err(err).Int("page", *page).Msg("next page check failed; stopping")
		res.Stop = StopNavigationStalled
		return stateDone
	}
	if !more {
		res.Stop = StopLastPage
		return stateDone
	}

	ok, err := p.GoToNextPage(ctx, *page)
	if err != nil || !ok {
		logger.Warn().Err(err).Int("page", *page).Int("next", *page+1).
			Msg("navigation to next page not confirmed; returning partial results")
		res.Stop = StopNavigationStalled
		return stateDone
	}
	*page++
	return stateReadingPage
}

func (a Aggregator) logger() *zerolog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return &log.Logger
}
