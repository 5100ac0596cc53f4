package pagination

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/seenimoa/lsewatch/pkg/models"
)

// fakeProvider serves scripted pages. Navigation to a page listed in
// stallAt reports failure; navErr/hasErr inject errors.
type fakeProvider struct {
	pages   [][]models.RowText
	current int // 0-based index into pages
	stallAt map[int]bool
	navErr  error
	hasErr  error
	readErr map[int]error

	reads   int
	navs    []int
	hasNext []int
}

func (f *fakeProvider) CurrentPageRowTexts(_ context.Context) ([]models.RowText, error) {
	f.reads++
	if err := f.readErr[f.current+1]; err != nil {
		return nil, err
	}
	if f.current >= len(f.pages) {
		return nil, nil
	}
	return f.pages[f.current], nil
}

func (f *fakeProvider) HasNextPage(_ context.Context, pageIndex int) (bool, error) {
	f.hasNext = append(f.hasNext, pageIndex)
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return pageIndex < len(f.pages), nil
}

func (f *fakeProvider) GoToNextPage(_ context.Context, pageIndex int) (bool, error) {
	f.navs = append(f.navs, pageIndex)
	if f.navErr != nil {
		return false, f.navErr
	}
	if f.stallAt[pageIndex+1] {
		return false, nil
	}
	f.current = pageIndex
	return true, nil
}

func rows(caps ...string) []models.RowText {
	out := make([]models.RowText, 0, len(caps))
	for _, c := range caps {
		out = append(out, models.RowText{Name: "C" + c, PercentChange: "0.5", MarketCap: c})
	}
	return out
}

func names(cs []models.Constituent) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func quietAggregator() Aggregator {
	l := zerolog.New(io.Discard)
	return Aggregator{Logger: &l}
}

func TestCollectThreePagesStopsOnEmpty(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{
		rows("8", "3", "12"),
		rows("6", "9"),
		{},
	}}

	res, err := quietAggregator().Collect(context.Background(), p, 7_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	if diff := cmp.Diff([]string{"C8", "C12", "C9"}, names(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Records[1].MarketCap != 12_000_000 {
		t.Errorf("MarketCap = %v, want 12000000", res.Records[1].MarketCap)
	}
	if res.Stop != StopEmptyPage {
		t.Errorf("Stop = %q, want %q", res.Stop, StopEmptyPage)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if p.reads != 3 {
		t.Errorf("reads = %d, want 3 (stop after the empty third page)", p.reads)
	}
}

func TestCollectStopsOnLastPage(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{rows("10"), rows("20")}}

	res, err := quietAggregator().Collect(context.Background(), p, 0, 1)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if res.Stop != StopLastPage {
		t.Errorf("Stop = %q, want %q", res.Stop, StopLastPage)
	}
	if diff := cmp.Diff([]int{1, 2}, p.hasNext); diff != "" {
		t.Errorf("HasNextPage calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, p.navs); diff != "" {
		t.Errorf("GoToNextPage calls (-want +got):\n%s", diff)
	}
}

func TestCollectNavigationStallKeepsFirstPage(t *testing.T) {
	p := &fakeProvider{
		pages:   [][]models.RowText{rows("50"), rows("60"), rows("70"), rows("80"), rows("90")},
		stallAt: map[int]bool{2: true},
	}

	got, err := CollectExceedingThreshold(context.Background(), p, 1, 1)
	if err != nil {
		t.Fatalf("CollectExceedingThreshold() error: %v", err)
	}
	if diff := cmp.Diff([]string{"C50"}, names(got)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, p.navs); diff != "" {
		t.Errorf("GoToNextPage calls (-want +got):\n%s", diff)
	}
}

func TestCollectNavigationErrorIsNotFatal(t *testing.T) {
	p := &fakeProvider{
		pages:  [][]models.RowText{rows("50"), rows("60")},
		navErr: errors.New("click intercepted"),
	}

	res, err := quietAggregator().Collect(context.Background(), p, 1, 1)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if res.Stop != StopNavigationStalled {
		t.Errorf("Stop = %q, want %q", res.Stop, StopNavigationStalled)
	}
	if len(res.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(res.Records))
	}
}

func TestCollectHasNextErrorStops(t *testing.T) {
	p := &fakeProvider{
		pages:  [][]models.RowText{rows("50"), rows("60")},
		hasErr: errors.New("locator detached"),
	}

	res, err := quietAggregator().Collect(context.Background(), p, 1, 1)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if res.Stop != StopNavigationStalled {
		t.Errorf("Stop = %q, want %q", res.Stop, StopNavigationStalled)
	}
	if len(p.navs) != 0 {
		t.Errorf("GoToNextPage called %d times, want 0", len(p.navs))
	}
}

func TestCollectReadErrorReturnsPartial(t *testing.T) {
	readFail := errors.New("table not rendered")
	p := &fakeProvider{
		pages:   [][]models.RowText{rows("50"), rows("60"), rows("70")},
		readErr: map[int]error{2: readFail},
	}

	res, err := quietAggregator().Collect(context.Background(), p, 1, 1)
	if !errors.Is(err, readFail) {
		t.Fatalf("Collect() error = %v, want %v", err, readFail)
	}
	if res.Stop != StopReadFailed {
		t.Errorf("Stop = %q, want %q", res.Stop, StopReadFailed)
	}
	if diff := cmp.Diff([]string{"C50"}, names(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestCollectThresholdIsStrict(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{rows("7", "7.000001", "6.999999")}}

	got, err := CollectExceedingThreshold(context.Background(), p, 7_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("CollectExceedingThreshold() error: %v", err)
	}
	if diff := cmp.Diff([]string{"C7.000001"}, names(got)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestCollectZeroAndNegativeThreshold(t *testing.T) {
	// "x" parses to 0 and so behaves like "0".
	tests := []struct {
		threshold float64
		want      []string
	}{
		{0, []string{"C5"}},
		{-1, []string{"C0", "C5", "Cx"}},
	}

	for _, tt := range tests {
		p := &fakeProvider{pages: [][]models.RowText{rows("0", "5", "x")}}
		got, err := CollectExceedingThreshold(context.Background(), p, tt.threshold, 1)
		if err != nil {
			t.Fatalf("threshold %v: error %v", tt.threshold, err)
		}
		if diff := cmp.Diff(tt.want, names(got)); diff != "" {
			t.Errorf("threshold %v (-want +got):\n%s", tt.threshold, diff)
		}
	}
}

func TestCollectZeroMultiplierExcludesAll(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{rows("8", "12")}}

	got, err := CollectExceedingThreshold(context.Background(), p, 1, 0)
	if err != nil {
		t.Fatalf("CollectExceedingThreshold() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no records", names(got))
	}
}

func TestCollectNoQualifyingRecords(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{rows("1", "2"), rows("3")}}

	got, err := CollectExceedingThreshold(context.Background(), p, 100, 1)
	if err != nil {
		t.Fatalf("CollectExceedingThreshold() error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestCollectKeepsDuplicates(t *testing.T) {
	p := &fakeProvider{pages: [][]models.RowText{rows("10"), rows("10")}}

	got, err := CollectExceedingThreshold(context.Background(), p, 1, 1)
	if err != nil {
		t.Fatalf("CollectExceedingThreshold() error: %v", err)
	}
	if diff := cmp.Diff([]string{"C10", "C10"}, names(got)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}
