package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/internal/extract"
	"github.com/seenimoa/lsewatch/internal/pagination"
	"github.com/seenimoa/lsewatch/pkg/models"
	"github.com/seenimoa/lsewatch/pkg/utils"
)

// Workflows runs the end-to-end scraping scenarios. Every call opens its own
// driver session, lands on the homepage and follows the quick link to the
// index page before doing its work, so calls may run concurrently.
type Workflows struct {
	Open     browser.Factory
	BaseURL  string
	MaxPages int
	Logger   *zerolog.Logger
	Now      func() time.Time // defaults to utils.NowLondon
}

// LowestMonthly is the result of LowestMonthlyAverage.
type LowestMonthly struct {
	FromYear     int                       `json:"fromYear"`
	Lowest       models.PriceObservation   `json:"lowest"`
	Observations []models.PriceObservation `json:"observations"`
}

// TopRisers returns the first n constituents with the table sorted by
// percentage change, highest first.
func (w *Workflows) TopRisers(ctx context.Context, n int) ([]models.Constituent, error) {
	var out []models.Constituent
	err := w.session(ctx, "top_risers", func(ctx context.Context, p *FTSE100Page) error {
		if err := p.NavigateToConstituents(ctx); err != nil {
			return err
		}
		cls, err := p.PercentageChangeHeaderClass(ctx)
		if err != nil {
			return err
		}
		if cls != ClassSortedHighToLow {
			if err := p.SortPercentageChange(ctx, SortHighToLow); err != nil {
				return err
			}
		}
		out, err = topN(ctx, p, n)
		return err
	})
	return out, err
}

// TopFallers returns the first n constituents with the table sorted by
// percentage change, lowest first.
func (w *Workflows) TopFallers(ctx context.Context, n int) ([]models.Constituent, error) {
	var out []models.Constituent
	err := w.session(ctx, "top_fallers", func(ctx context.Context, p *FTSE100Page) error {
		if err := p.NavigateToConstituents(ctx); err != nil {
			return err
		}
		if err := p.SortPercentageChange(ctx, SortLowToHigh); err != nil {
			return err
		}
		var err error
		out, err = topN(ctx, p, n)
		return err
	})
	return out, err
}

func topN(ctx context.Context, p *FTSE100Page, n int) ([]models.Constituent, error) {
	rows, err := p.CurrentPageRowTexts(ctx)
	if err != nil {
		return nil, err
	}
	return extract.ExtractTopN(rows, n), nil
}

// MarketCapExceeding sorts the table by market cap and walks every page,
// keeping constituents whose market cap times multiplier is strictly greater
// than threshold.
func (w *Workflows) MarketCapExceeding(ctx context.Context, threshold, multiplier float64) (pagination.Result, error) {
	var res pagination.Result
	err := w.session(ctx, "market_cap", func(ctx context.Context, p *FTSE100Page) error {
		if err := p.NavigateToConstituents(ctx); err != nil {
			return err
		}
		if err := p.SortMarketCapHighToLow(ctx); err != nil {
			return err
		}
		var err error
		res, err = pagination.Aggregator{Logger: p.Logger}.Collect(ctx, p, threshold, multiplier)
		return err
	})
	return res, err
}

// LowestMonthlyAverage sets the chart to start years ago at the given
// periodicity and returns the lowest price point. Engines that cannot drive
// the chart controls read the chart as served. It returns ErrNoObservations
// when no label parses.
func (w *Workflows) LowestMonthlyAverage(ctx context.Context, years int, periodicity string) (LowestMonthly, error) {
	res := LowestMonthly{FromYear: utils.YearsAgo(w.now(), years)}
	err := w.session(ctx, "lowest_month", func(ctx context.Context, p *FTSE100Page) error {
		if err := w.configureChart(ctx, p, res.FromYear, periodicity); err != nil {
			return err
		}
		labels, err := p.CurrentChartLabels(ctx)
		if err != nil {
			return err
		}
		res.Observations = extract.ParsePriceObservations(labels)
		lowest, ok := extract.LowestObservation(res.Observations)
		if !ok {
			return fmt.Errorf("%d chart labels: %w", len(labels), ErrNoObservations)
		}
		res.Lowest = lowest
		return nil
	})
	return res, err
}

func (w *Workflows) configureChart(ctx context.Context, p *FTSE100Page, fromYear int, periodicity string) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"from year", func(ctx context.Context) error { return p.EnterFromDateYear(ctx, fromYear) }},
		{"periodicity", func(ctx context.Context) error { return p.SelectPeriodicity(ctx, periodicity) }},
	}
	for _, s := range steps {
		err := s.run(ctx)
		if errors.Is(err, browser.ErrNotSupported) {
			w.logger().Warn().Err(err).Str("step", s.name).Msg("engine cannot drive chart controls; reading chart as served")
			return p.WaitChartLoaded(ctx)
		}
		if err != nil {
			return fmt.Errorf("chart %s: %w", s.name, err)
		}
		if err := p.WaitChartLoaded(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotOptions selects what Snapshot gathers.
type SnapshotOptions struct {
	TopN                int
	MarketCapThreshold  float64
	MarketCapMultiplier float64
	ChartYears          int
	Periodicity         string
	Parallel            int // concurrent sessions; zero runs all at once
}

// Snapshot runs all four workflows concurrently, each on its own session. A
// chart without observations leaves LowestMonthly nil; any other failure
// cancels the rest and is returned.
func (w *Workflows) Snapshot(ctx context.Context, opts SnapshotOptions) (*models.IndexSnapshot, error) {
	snap := &models.IndexSnapshot{Index: IndexName}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}

	g.Go(func() error {
		var err error
		snap.TopRisers, err = w.TopRisers(ctx, opts.TopN)
		return err
	})
	g.Go(func() error {
		var err error
		snap.TopFallers, err = w.TopFallers(ctx, opts.TopN)
		return err
	})
	g.Go(func() error {
		res, err := w.MarketCapExceeding(ctx, opts.MarketCapThreshold, opts.MarketCapMultiplier)
		snap.LargeCaps = res.Records
		return err
	})
	g.Go(func() error {
		res, err := w.LowestMonthlyAverage(ctx, opts.ChartYears, opts.Periodicity)
		if errors.Is(err, ErrNoObservations) {
			w.logger().Warn().Err(err).Msg("snapshot without lowest month")
			return nil
		}
		if err != nil {
			return err
		}
		snap.LowestMonthly = &res.Lowest
		snap.Observations = res.Observations
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// session opens a driver, lands on the index page and runs fn.
func (w *Workflows) session(ctx context.Context, name string, fn func(context.Context, *FTSE100Page) error) error {
	logger := w.logger().With().Str("workflow", name).Logger()
	start := time.Now()

	d, err := w.Open(ctx)
	if err != nil {
		return fmt.Errorf("%s: open browser: %w", name, err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn().Err(err).Msg("close browser")
		}
	}()

	if err := NewHomePage(d, w.BaseURL).Goto(ctx); err != nil {
		return fmt.Errorf("%s: homepage: %w", name, err)
	}
	page := NewFTSE100Page(d)
	page.MaxPages = w.MaxPages
	page.Logger = &logger
	if err := page.NavigateToFTSE100(ctx); err != nil {
		return fmt.Errorf("%s: index page: %w", name, err)
	}

	if err := fn(ctx, page); err != nil {
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("workflow failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Info().Dur("took", time.Since(start)).Msg("workflow done")
	return nil
}

func (w *Workflows) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return utils.NowLondon()
}

func (w *Workflows) logger() *zerolog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return &log.Logger
}
