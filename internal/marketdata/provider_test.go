package marketdata

import (
	"math"
	"testing"
	"time"

	"quantdash/internal/model"
)

func TestReduceToSeries(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []model.DailyBar{
		// Out of order on purpose.
		{Ticker: "T", Date: base.AddDate(0, 0, 2), Close: 103},
		{Ticker: "T", Date: base, Close: 100},
		// Gap rows the source should have removed already.
		{Ticker: "T", Date: base.AddDate(0, 0, 1), Close: 0},
		{Ticker: "T", Date: base.AddDate(0, 0, 3), Close: math.NaN()},
		// Duplicate date — later row wins.
		{Ticker: "T", Date: base.AddDate(0, 0, 2), Close: 103.5},
		{Ticker: "T", Date: base.AddDate(0, 0, 4), Close: 105},
	}

	series := ReduceToSeries(bars)
	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}

	for i := 1; i < len(series); i++ {
		if !series[i-1].Date.Before(series[i].Date) {
			t.Errorf("dates not strictly increasing at %d", i)
		}
	}
	wantCloses := []float64{100, 103.5, 105}
	for i, want := range wantCloses {
		if series[i].Close != want {
			t.Errorf("close[%d]: expected %.2f, got %.2f", i, want, series[i].Close)
		}
	}
}

func TestReduceToSeries_Empty(t *testing.T) {
	if series := ReduceToSeries(nil); len(series) != 0 {
		t.Fatalf("expected empty series, got %d", len(series))
	}
	// All rows invalid → empty, the terminal "no data" condition.
	bars := []model.DailyBar{{Ticker: "T", Date: time.Now(), Close: -1}}
	if series := ReduceToSeries(bars); len(series) != 0 {
		t.Fatalf("expected empty series from invalid rows, got %d", len(series))
	}
}

func TestSeriesKey(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	got := seriesKey("NSE:3045", start, end)
	want := "series:NSE:3045:2024-01-02:2024-06-30"
	if got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
}

func TestSplitTicker(t *testing.T) {
	p := NewSmartAPIProvider(nil, "NSE", nil)

	if ex, tok := p.splitTicker("BSE:500325"); ex != "BSE" || tok != "500325" {
		t.Errorf("expected BSE/500325, got %s/%s", ex, tok)
	}
	if ex, tok := p.splitTicker("3045"); ex != "NSE" || tok != "3045" {
		t.Errorf("expected default exchange NSE/3045, got %s/%s", ex, tok)
	}
}
