package datasource

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/pkg/models"
)

func TestHomePage(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	d := browser.NewStatic(fixtureOptions())
	home := NewHomePage(d, srv.URL+"/")

	if err := home.Goto(ctx); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	title, err := home.Title(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if title != "London Stock Exchange homepage | London Stock Exchange" {
		t.Errorf("title = %q", title)
	}
	header, err := home.MarketsHeader(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if header != "Markets latest" {
		t.Errorf("markets header = %q", header)
	}
}

func TestNavigateToFTSE100WrongPage(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{quickLink: "/?index=ftse-250"})
	ctx := context.Background()
	d := browser.NewStatic(fixtureOptions())
	if err := NewHomePage(d, srv.URL+"/").Goto(ctx); err != nil {
		t.Fatal(err)
	}

	err := NewFTSE100Page(d).NavigateToFTSE100(ctx)
	if !errors.Is(err, ErrUnexpectedPage) {
		t.Fatalf("err = %v, want ErrUnexpectedPage", err)
	}
}

func TestConstituentsTable(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)

	if err := page.NavigateToConstituents(ctx); err != nil {
		t.Fatalf("NavigateToConstituents: %v", err)
	}
	cls, err := page.PercentageChangeHeaderClass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cls != ClassSortedHighToLow {
		t.Errorf("header class = %q, want %q", cls, ClassSortedHighToLow)
	}

	rows, err := page.CurrentPageRowTexts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.RowText{
		{Name: "Alpha plc", PercentChange: "+3.10%", MarketCap: "12,500.00"},
		{Name: "Golf plc", PercentChange: "+2.00%", MarketCap: "1,000.00"},
		{Name: "Echo plc", PercentChange: "+1.25%", MarketCap: "3,100.00"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSortPercentageChangeLowToHigh(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)
	if err := page.NavigateToConstituents(ctx); err != nil {
		t.Fatal(err)
	}

	if err := page.SortPercentageChange(ctx, SortLowToHigh); err != nil {
		t.Fatalf("SortPercentageChange: %v", err)
	}
	rows, err := page.CurrentPageRowTexts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 || rows[0].Name != "Foxtrot plc" {
		t.Errorf("first row after low-to-high sort = %+v", rows)
	}
}

func TestPagination(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)
	if err := page.NavigateToConstituents(ctx); err != nil {
		t.Fatal(err)
	}
	if err := page.SortMarketCapHighToLow(ctx); err != nil {
		t.Fatalf("SortMarketCapHighToLow: %v", err)
	}

	for i := 1; i <= 2; i++ {
		more, err := page.HasNextPage(ctx, i)
		if err != nil || !more {
			t.Fatalf("HasNextPage(%d) = %v, %v; want true", i, more, err)
		}
		ok, err := page.GoToNextPage(ctx, i)
		if err != nil || !ok {
			t.Fatalf("GoToNextPage(%d) = %v, %v; want true", i, ok, err)
		}
	}

	rows, err := page.CurrentPageRowTexts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Charlie plc" {
		t.Errorf("last page rows = %+v", rows)
	}
	more, err := page.HasNextPage(ctx, 3)
	if err != nil || more {
		t.Errorf("HasNextPage(3) = %v, %v; want false", more, err)
	}
}

// rowsFailDriver fails every Rows call and counts clicks. Other methods are
// unimplemented.
type rowsFailDriver struct {
	browser.Driver
	clicks int
}

func (d *rowsFailDriver) Rows(context.Context, string, ...string) ([][]string, error) {
	return nil, errors.New("table detached")
}

func (d *rowsFailDriver) Click(context.Context, browser.Target) error {
	d.clicks++
	return nil
}

func TestGoToNextPageUnreadableTable(t *testing.T) {
	d := &rowsFailDriver{}
	ok, err := NewFTSE100Page(d).GoToNextPage(context.Background(), 1)
	if err == nil || ok {
		t.Fatalf("GoToNextPage = %v, %v; want false with error", ok, err)
	}
	if d.clicks != 0 {
		t.Errorf("clicked %d times before the table could be read", d.clicks)
	}
}

func TestHasNextPageMaxPages(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)
	if err := page.NavigateToConstituents(ctx); err != nil {
		t.Fatal(err)
	}

	page.MaxPages = 1
	more, err := page.HasNextPage(ctx, 1)
	if err != nil || more {
		t.Errorf("HasNextPage with MaxPages=1 = %v, %v; want false", more, err)
	}
}

func TestCurrentChartLabels(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)

	if err := page.WaitChartLoaded(ctx); err != nil {
		t.Fatalf("WaitChartLoaded: %v", err)
	}
	labels, err := page.CurrentChartLabels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fixtureChartLabels, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestChartControlsNeedScriptingEngine(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	ctx := context.Background()
	_, page := openIndexPage(t, srv)

	if err := page.EnterFromDateYear(ctx, 2022); !errors.Is(err, browser.ErrNotSupported) {
		t.Errorf("EnterFromDateYear err = %v, want ErrNotSupported", err)
	}
	if err := page.SelectPeriodicity(ctx, "Monthly"); !errors.Is(err, browser.ErrNotSupported) {
		t.Errorf("SelectPeriodicity err = %v, want ErrNotSupported", err)
	}
}

func TestSortOrderString(t *testing.T) {
	if got := SortLowToHigh.String(); got != "low_to_high" {
		t.Errorf("SortLowToHigh = %q", got)
	}
	if got := SortOrder(9).String(); !strings.HasPrefix(got, "SortOrder(") {
		t.Errorf("unknown order = %q", got)
	}
}
