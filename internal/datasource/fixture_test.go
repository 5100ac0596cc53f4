package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/lsewatch/internal/browser"
)

// fixtureRow is one constituent served by the fixture site.
type fixtureRow struct {
	name    string
	pct     float64
	pctText string
	mcap    float64
	capText string
}

var fixtureRows = []fixtureRow{
	{"Alpha plc", 3.10, "+3.10%", 12500, "12,500.00"},
	{"Bravo Group plc", -2.40, "-2.40%", 6900, "6,900.00"},
	{"Charlie plc", 0.50, "+0.50%", 250.75, "250.75"},
	{"Delta Holdings plc", -0.80, "-0.80%", 45000, "45,000.00"},
	{"Echo plc", 1.25, "+1.25%", 3100, "3,100.00"},
	{"Foxtrot plc", -4.05, "-4.05%", 8250.5, "8,250.50"},
	{"Golf plc", 2.00, "+2.00%", 1000, "1,000.00"},
}

const fixturePageSize = 3

var fixtureChartLabels = []string{
	"Price of base FTSE 100 is 7 452,10. 1 November 2022, Monthly",
	"Price of base FTSE 100 is 6 826,15. 1 October 2022, Monthly",
	"Price of base FTSE 100 is 7 101,00. 1 December 2022, Monthly",
	"Price of base FTSE 100 is unavailable",
}

// fixtureSite mimics the exchange pages closely enough for the http engine:
// every control the page objects click is a link or carries data-href.
type fixtureSite struct {
	quickLink   string   // href of the FTSE 100 quick link
	chartLabels []string // nil serves fixtureChartLabels
	noChart     bool
}

func newFixtureSite(t *testing.T, site fixtureSite) *httptest.Server {
	t.Helper()
	if site.quickLink == "" {
		site.quickLink = "/indices/ftse-100"
	}
	if site.chartLabels == nil && !site.noChart {
		site.chartLabels = fixtureChartLabels
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeHTML(w, "London Stock Exchange homepage | London Stock Exchange", `
<div id="cookie-banner"><button>Accept all cookies</button></div>
<h2 class="bold-font-weight title">Markets latest </h2>
<table class="table-in-rich-text"><tr>
  <td>Indices</td><td><a href="`+site.quickLink+`">View FTSE 100</a></td>
</tr></table>`)
	})
	mux.HandleFunc("/indices/ftse-100", func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		b.WriteString(`<nav><a href="/indices/ftse-100/constituents/table">Constituents</a></nav>
<input aria-label="Year in from date" value="2024">
<div class="periodicity"><div>Daily</div><div>Monthly</div></div>
<div class="v-loader" style="display:none"><div class="v-loader__item"></div></div>
<svg class="highcharts-root">`)
		for _, l := range site.chartLabels {
			fmt.Fprintf(&b, `<path aria-label="%s"></path>`, l)
		}
		b.WriteString(`</svg>`)
		writeHTML(w, "FTSE 100 | London Stock Exchange", b.String())
	})
	mux.HandleFunc("/indices/ftse-100/constituents/table", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeHTML(w, "FTSE 100 constituents", constituentsHTML(q.Get("sort"), q.Get("menu"), q.Get("page")))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func constituentsHTML(sortKey, menu, pageParam string) string {
	if sortKey == "" {
		sortKey = "desc"
	}
	page, _ := strconv.Atoi(pageParam)
	if page < 1 {
		page = 1
	}

	rows := append([]fixtureRow(nil), fixtureRows...)
	switch sortKey {
	case "asc":
		sort.Slice(rows, func(i, j int) bool { return rows[i].pct < rows[j].pct })
	case "mcap":
		sort.Slice(rows, func(i, j int) bool { return rows[i].mcap > rows[j].mcap })
	default:
		sort.Slice(rows, func(i, j int) bool { return rows[i].pct > rows[j].pct })
	}

	headerClass := ClassSortedHighToLow
	if sortKey == "asc" {
		headerClass = ClassSortedLowToHigh
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<table class="full-width"><thead><tr>
<th class="instrument-name">Name</th>
<th class="percentualchange hide-on-landscape"><span class="%s" data-href="?sort=%s&amp;menu=pct">Change %%</span><span>sort</span></th>
<th class="marketcap" data-href="?sort=%s&amp;menu=mcap">Market cap (m)</th>
</tr></thead><tbody>`, headerClass, sortKey, sortKey)

	start := (page - 1) * fixturePageSize
	for i := start; i < start+fixturePageSize && i < len(rows); i++ {
		r := rows[i]
		fmt.Fprintf(&b, `<tr><td class="instrument-name"> %s </td><td class="instrument-percentualchange">%s</td><td class="instrument-marketcapitalization">%s</td></tr>`,
			r.name, r.pctText, r.capText)
	}
	b.WriteString(`</tbody></table>`)

	switch menu {
	case "pct":
		b.WriteString(`<ul><li><div data-href="?sort=desc">Highest – lowest</div></li><li><div data-href="?sort=asc">Lowest – highest</div></li></ul>`)
	case "mcap":
		b.WriteString(`<ul><li><div data-href="?sort=mcap">Highest – lowest</div></li></ul>`)
	}

	pages := (len(rows) + fixturePageSize - 1) / fixturePageSize
	b.WriteString(`<div class="paginator">`)
	for p := 1; p <= pages; p++ {
		cls := "page-number"
		if p == page {
			cls += " active"
		}
		fmt.Fprintf(&b, `<a class="%s" href="?sort=%s&amp;page=%d">%d</a>`, cls, sortKey, p, p)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func writeHTML(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

func fixtureOptions() browser.Options {
	return browser.Options{Engine: browser.EngineHTTP, Timeout: 5 * time.Second, RequestsPerSecond: 1000}
}

func fixtureWorkflows(srv *httptest.Server) *Workflows {
	nop := zerolog.Nop()
	return &Workflows{
		Open:    browser.NewFactory(fixtureOptions()),
		BaseURL: srv.URL + "/",
		Logger:  &nop,
		Now:     func() time.Time { return time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC) },
	}
}

// openIndexPage lands a fresh static driver on the index page.
func openIndexPage(t *testing.T, srv *httptest.Server) (*HomePage, *FTSE100Page) {
	t.Helper()
	ctx := context.Background()
	d := browser.NewStatic(fixtureOptions())
	home := NewHomePage(d, srv.URL+"/")
	if err := home.Goto(ctx); err != nil {
		t.Fatalf("home Goto: %v", err)
	}
	page := NewFTSE100Page(d)
	nop := zerolog.Nop()
	page.Logger = &nop
	if err := page.NavigateToFTSE100(ctx); err != nil {
		t.Fatalf("NavigateToFTSE100: %v", err)
	}
	return home, page
}
