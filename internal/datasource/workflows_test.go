package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seenimoa/lsewatch/internal/browser"
	"github.com/seenimoa/lsewatch/internal/pagination"
	"github.com/seenimoa/lsewatch/pkg/models"
)

func TestTopRisers(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	w := fixtureWorkflows(srv)

	got, err := w.TopRisers(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopRisers: %v", err)
	}
	want := []models.Constituent{
		{Name: "Alpha plc", PercentageChange: 3.1, MarketCap: 12500},
		{Name: "Golf plc", PercentageChange: 2, MarketCap: 1000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopRisers mismatch (-want +got):\n%s", diff)
	}
}

func TestTopFallers(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	w := fixtureWorkflows(srv)

	got, err := w.TopFallers(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopFallers: %v", err)
	}
	// Only the first page is read, so ten asks for more than it shows.
	want := []models.Constituent{
		{Name: "Foxtrot plc", PercentageChange: -4.05, MarketCap: 8250.5},
		{Name: "Bravo Group plc", PercentageChange: -2.4, MarketCap: 6900},
		{Name: "Delta Holdings plc", PercentageChange: -0.8, MarketCap: 45000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopFallers mismatch (-want +got):\n%s", diff)
	}
}

func TestMarketCapExceeding(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})

	tests := []struct {
		name      string
		maxPages  int
		threshold float64
		wantNames []string
		wantPages int
	}{
		{
			name:      "all pages",
			threshold: 5e9,
			wantNames: []string{"Delta Holdings plc", "Alpha plc", "Foxtrot plc", "Bravo Group plc"},
			wantPages: 3,
		},
		{
			name:      "page limit",
			maxPages:  1,
			threshold: 5e9,
			wantNames: []string{"Delta Holdings plc", "Alpha plc", "Foxtrot plc"},
			wantPages: 1,
		},
		{
			name:      "strictly greater",
			threshold: 45e9,
			wantNames: []string{},
			wantPages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fixtureWorkflows(srv)
			w.MaxPages = tt.maxPages

			res, err := w.MarketCapExceeding(context.Background(), tt.threshold, 1e6)
			if err != nil {
				t.Fatalf("MarketCapExceeding: %v", err)
			}
			names := make([]string, 0, len(res.Records))
			for _, c := range res.Records {
				names = append(names, c.Name)
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
			if res.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", res.Pages, tt.wantPages)
			}
			if res.Stop != pagination.StopLastPage {
				t.Errorf("Stop = %s, want %s", res.Stop, pagination.StopLastPage)
			}
		})
	}
}

func TestMarketCapScaled(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	w := fixtureWorkflows(srv)

	res, err := w.MarketCapExceeding(context.Background(), 40e9, 1e6)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Constituent{{Name: "Delta Holdings plc", PercentageChange: -0.8, MarketCap: 45e9}}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLowestMonthlyAverage(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	w := fixtureWorkflows(srv)

	got, err := w.LowestMonthlyAverage(context.Background(), 3, "Monthly")
	if err != nil {
		t.Fatalf("LowestMonthlyAverage: %v", err)
	}
	if got.FromYear != 2022 {
		t.Errorf("FromYear = %d, want 2022", got.FromYear)
	}
	want := models.PriceObservation{Price: 6826.15, PeriodLabel: "October 2022"}
	if got.Lowest != want {
		t.Errorf("Lowest = %+v, want %+v", got.Lowest, want)
	}
	if len(got.Observations) != 3 {
		t.Errorf("Observations = %d, want 3", len(got.Observations))
	}
}

func TestLowestMonthlyAverageNoObservations(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{noChart: true})
	w := fixtureWorkflows(srv)

	_, err := w.LowestMonthlyAverage(context.Background(), 3, "Monthly")
	if !errors.Is(err, ErrNoObservations) {
		t.Fatalf("err = %v, want ErrNoObservations", err)
	}
}

func TestSnapshot(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{})
	w := fixtureWorkflows(srv)

	snap, err := w.Snapshot(context.Background(), SnapshotOptions{
		TopN:                3,
		MarketCapThreshold:  7e9,
		MarketCapMultiplier: 1e6,
		ChartYears:          3,
		Periodicity:         "Monthly",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Index != IndexName {
		t.Errorf("Index = %q", snap.Index)
	}
	if len(snap.TopRisers) != 3 || len(snap.TopFallers) != 3 {
		t.Errorf("risers/fallers = %d/%d, want 3/3", len(snap.TopRisers), len(snap.TopFallers))
	}
	if len(snap.LargeCaps) != 3 {
		t.Errorf("LargeCaps = %d, want 3", len(snap.LargeCaps))
	}
	if snap.LowestMonthly == nil || snap.LowestMonthly.PeriodLabel != "October 2022" {
		t.Errorf("LowestMonthly = %+v", snap.LowestMonthly)
	}
}

func TestSnapshotWithoutChart(t *testing.T) {
	srv := newFixtureSite(t, fixtureSite{noChart: true})
	w := fixtureWorkflows(srv)

	snap, err := w.Snapshot(context.Background(), SnapshotOptions{TopN: 1, MarketCapMultiplier: 1e6, ChartYears: 3, Parallel: 2})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.LowestMonthly != nil {
		t.Errorf("LowestMonthly = %+v, want nil", snap.LowestMonthly)
	}
}

func TestWorkflowOpenError(t *testing.T) {
	boom := errors.New("no browser")
	w := &Workflows{Open: func(context.Context) (browser.Driver, error) { return nil, boom }}

	if _, err := w.TopRisers(context.Background(), 5); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
