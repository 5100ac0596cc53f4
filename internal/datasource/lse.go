package datasource

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/internal/pagination"
	"github.com/seenimoa/lsewatch/pkg/models"
)

var (
	reIndexURL        = regexp.MustCompile(`ftse-100`)
	reConstituentsURL = regexp.MustCompile(`ftse-100/constituents`)
)

// HomePage is the exchange landing page.
type HomePage struct {
	d       browser.Driver
	baseURL string
}

// NewHomePage returns the landing page object. An empty baseURL uses
// DefaultBaseURL.
func NewHomePage(d browser.Driver, baseURL string) *HomePage {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HomePage{d: d, baseURL: baseURL}
}

// Goto opens the homepage and dismisses the cookie banner when it shows.
func (h *HomePage) Goto(ctx context.Context) error {
	if err := h.d.Goto(ctx, h.baseURL); err != nil {
		return err
	}
	if err := h.d.WaitIdle(ctx); err != nil {
		return err
	}

	cookies := browser.Target{CSS: selCookieButton, Text: textAcceptCookies}
	visible, err := h.d.Visible(ctx, cookies)
	if err != nil {
		return err
	}
	if visible {
		if err := h.d.Click(ctx, cookies); err != nil && !errors.Is(err, browser.ErrNotSupported) {
			return fmt.Errorf("accept cookies: %w", err)
		}
	}
	return nil
}

// Title returns the document title.
func (h *HomePage) Title(ctx context.Context) (string, error) {
	return h.d.Title(ctx)
}

// MarketsHeader returns the "Markets latest" section heading.
func (h *HomePage) MarketsHeader(ctx context.Context) (string, error) {
	return h.d.Text(ctx, browser.CSSTarget(selMarketsHeader))
}

// FTSE100Page is the index overview and constituents table.
//
// It implements pagination.PageProvider over the constituents table and
// pagination.ChartProvider over the index chart.
type FTSE100Page struct {
	d browser.Driver

	// MaxPages bounds the walk: HasNextPage reports false once this many
	// pages have been read. Zero means unbounded.
	MaxPages int

	Logger *zerolog.Logger
}

var (
	_ pagination.PageProvider  = (*FTSE100Page)(nil)
	_ pagination.ChartProvider = (*FTSE100Page)(nil)
)

// NewFTSE100Page returns the index page object.
func NewFTSE100Page(d browser.Driver) *FTSE100Page {
	return &FTSE100Page{d: d}
}

// NavigateToFTSE100 follows the homepage quick link to the index page.
func (p *FTSE100Page) NavigateToFTSE100(ctx context.Context) error {
	return p.follow(ctx, browser.CSSTarget(selQuickLinkFTSE), reIndexURL)
}

// NavigateToConstituents opens the constituents tab.
func (p *FTSE100Page) NavigateToConstituents(ctx context.Context) error {
	link := browser.Target{CSS: "a", Text: textConstituents, Exact: true}
	return p.follow(ctx, link, reConstituentsURL)
}

func (p *FTSE100Page) follow(ctx context.Context, link browser.Target, want *regexp.Regexp) error {
	if err := p.d.WaitVisible(ctx, link); err != nil {
		return err
	}
	if err := p.d.Click(ctx, link); err != nil {
		return err
	}
	if err := p.d.WaitIdle(ctx); err != nil {
		return err
	}
	if u := p.d.URL(); !want.MatchString(u) {
		return fmt.Errorf("%w: %s does not match %s", ErrUnexpectedPage, u, want)
	}
	return nil
}

// PercentageChangeHeaderClass returns the class attribute of the percentage
// change column header, which encodes the current sort order.
func (p *FTSE100Page) PercentageChangeHeaderClass(ctx context.Context) (string, error) {
	if err := p.d.WaitVisible(ctx, browser.CSSTarget(selIndexTable)); err != nil {
		return "", err
	}
	cls, _, err := p.d.Attribute(ctx, browser.CSSTarget(selPercentHeader), "class")
	return cls, err
}

// SortPercentageChange orders the table by percentage change and checks the
// header reflects it.
func (p *FTSE100Page) SortPercentageChange(ctx context.Context, order SortOrder) error {
	header := browser.CSSTarget(selPercentHeader)
	option := browser.Target{CSS: selSortOption, Text: order.optionText()}
	if err := p.pick(ctx, header, option); err != nil {
		return fmt.Errorf("sort percentage change %s: %w", order, err)
	}

	cls, err := p.PercentageChangeHeaderClass(ctx)
	if err != nil {
		return err
	}
	if cls != order.headerClass() {
		return fmt.Errorf("%w: header class %q, want %q", ErrSortNotApplied, cls, order.headerClass())
	}
	return nil
}

// SortMarketCapHighToLow orders the table by market cap, largest first.
func (p *FTSE100Page) SortMarketCapHighToLow(ctx context.Context) error {
	header := browser.Target{CSS: selMarketCapHeader, Text: textMarketCap}
	option := browser.Target{CSS: selSortOption, Text: textHighToLow}
	if err := p.pick(ctx, header, option); err != nil {
		return fmt.Errorf("sort market cap: %w", err)
	}
	return nil
}

// pick opens a dropdown and clicks one of its options.
func (p *FTSE100Page) pick(ctx context.Context, opener, option browser.Target) error {
	if err := p.d.WaitVisible(ctx, opener); err != nil {
		return err
	}
	if err := p.d.Click(ctx, opener); err != nil {
		return err
	}
	if err := p.d.WaitVisible(ctx, option); err != nil {
		return err
	}
	if err := p.d.Click(ctx, option); err != nil {
		return err
	}
	return p.d.WaitIdle(ctx)
}

// EnterFromDateYear types the chart's start year and submits it.
func (p *FTSE100Page) EnterFromDateYear(ctx context.Context, year int) error {
	input := browser.CSSTarget(selFromYearInput)
	if err := p.d.WaitVisible(ctx, input); err != nil {
		return err
	}
	return p.d.Fill(ctx, input, strconv.Itoa(year), true)
}

// SelectPeriodicity picks a chart periodicity such as "Monthly".
func (p *FTSE100Page) SelectPeriodicity(ctx context.Context, option string) error {
	item := browser.Target{CSS: selPeriodicityItem, Text: option, Exact: true}
	return p.pick(ctx, browser.CSSTarget(selPeriodicity), item)
}

// WaitChartLoaded waits for the chart loader to clear and the chart to render.
func (p *FTSE100Page) WaitChartLoaded(ctx context.Context) error {
	if err := p.d.WaitHidden(ctx, selChartLoader); err != nil {
		return err
	}
	if err := p.d.WaitVisible(ctx, browser.CSSTarget(selChartRoot)); err != nil {
		return err
	}
	return p.d.WaitIdle(ctx)
}

// CurrentPageRowTexts returns the trimmed cell text of every table row.
func (p *FTSE100Page) CurrentPageRowTexts(ctx context.Context) ([]models.RowText, error) {
	if err := p.d.WaitIdle(ctx); err != nil {
		return nil, err
	}
	cells, err := p.d.Rows(ctx, selTableRows, selCellName, selCellChange, selCellMarketCap)
	if err != nil {
		return nil, fmt.Errorf("read constituents table: %w", err)
	}
	rows := make([]models.RowText, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, models.RowText{Name: c[0], PercentChange: c[1], MarketCap: c[2]})
	}
	return rows, nil
}

// HasNextPage reports whether a visible, enabled link to page pageIndex+1
// exists.
func (p *FTSE100Page) HasNextPage(ctx context.Context, pageIndex int) (bool, error) {
	if p.MaxPages > 0 && pageIndex >= p.MaxPages {
		p.logger().Debug().Int("page", pageIndex).Int("max_pages", p.MaxPages).Msg("page limit reached")
		return false, nil
	}

	link := pageLink(pageIndex + 1)
	visible, err := p.d.Visible(ctx, link)
	if err != nil || !visible {
		return false, err
	}
	return p.d.Enabled(ctx, link)
}

// GoToNextPage clicks the link to page pageIndex+1 and confirms the table
// re-rendered: the active page marker shows the new number or, when the
// markup has no marker, the first row changed.
func (p *FTSE100Page) GoToNextPage(ctx context.Context, pageIndex int) (bool, error) {
	next := pageIndex + 1
	before, err := p.firstRowName(ctx)
	if err != nil {
		return false, err
	}

	if err := p.d.Click(ctx, pageLink(next)); err != nil {
		return false, err
	}
	if err := p.d.WaitIdle(ctx); err != nil {
		return false, err
	}

	n, err := p.d.Count(ctx, selActivePageNumber)
	if err != nil {
		return false, err
	}
	if n > 0 {
		active, err := p.d.Text(ctx, browser.CSSTarget(selActivePageNumber))
		if err != nil {
			return false, err
		}
		return active == strconv.Itoa(next), nil
	}

	after, err := p.firstRowName(ctx)
	if err != nil {
		return false, err
	}
	return after != "" && after != before, nil
}

// CurrentChartLabels returns the aria-label of every chart price point once
// the chart has finished loading.
func (p *FTSE100Page) CurrentChartLabels(ctx context.Context) ([]string, error) {
	if err := p.d.WaitHidden(ctx, selChartLoader); err != nil {
		return nil, err
	}
	return p.d.Attributes(ctx, selChartLabels, "aria-label")
}

func (p *FTSE100Page) firstRowName(ctx context.Context) (string, error) {
	rows, err := p.d.Rows(ctx, selTableRows, selCellName)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[0][0], nil
}

func (p *FTSE100Page) logger() *zerolog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return &log.Logger
}

func pageLink(n int) browser.Target {
	return browser.Target{CSS: selPageNumber, Text: strconv.Itoa(n), Exact: true}
}
