package backtest

import (
	"math"
	"testing"
	"time"

	"quantdash/internal/model"
)

func makeSeries(closes ...float64) model.PriceSeries {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = model.PricePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return series
}

// settledRSI is an all-defined RSI column for tests that exercise the
// signal-lag semantics in isolation.
func settledRSI(n int) []float64 {
	rsi := make([]float64, n)
	for i := range rsi {
		rsi[i] = 50
	}
	return rsi
}

func TestComputeReturns_LagUsesPriorSignal(t *testing.T) {
	// Single crossing at index 2: the position flips from short to long.
	// The crossing-day return must still be earned by the pre-crossing
	// (short) signal — the new position only earns from the next day.
	series := makeSeries(100, 110, 105, 115)
	signal := []model.Position{model.NoPosition, model.Short, model.Long, model.Long}

	records := ComputeReturns(series, signal, settledRSI(len(series)))
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// t=2: lagged signal is Short
	wantMarket := 105.0/110.0 - 1
	if math.Abs(records[0].MarketReturn-wantMarket) > 1e-12 {
		t.Errorf("record 0 market: expected %.8f, got %.8f", wantMarket, records[0].MarketReturn)
	}
	if math.Abs(records[0].StrategyReturn-(-wantMarket)) > 1e-12 {
		t.Errorf("record 0 strategy: expected pre-crossing short to earn %.8f, got %.8f",
			-wantMarket, records[0].StrategyReturn)
	}

	// t=3: lagged signal is Long
	wantMarket = 115.0/105.0 - 1
	if math.Abs(records[1].StrategyReturn-wantMarket) > 1e-12 {
		t.Errorf("record 1 strategy: expected %.8f, got %.8f", wantMarket, records[1].StrategyReturn)
	}
}

func TestComputeReturns_SkipsUndefinedSignal(t *testing.T) {
	series := makeSeries(100, 102, 104, 106)
	signal := []model.Position{model.NoPosition, model.NoPosition, model.Long, model.Long}

	records := ComputeReturns(series, signal, settledRSI(len(series)))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].Date.Equal(series[3].Date) {
		t.Errorf("expected first usable date %v, got %v", series[3].Date, records[0].Date)
	}
}

func TestComputeReturns_SkipsRSIWarmup(t *testing.T) {
	// The signal settles at index 1 but the RSI only at index 4: rows
	// before the RSI is defined are excluded, so the slower column
	// dictates where the usable history starts.
	series := makeSeries(100, 102, 104, 106, 108, 110)
	signal := []model.Position{
		model.NoPosition, model.Long, model.Long, model.Long, model.Long, model.Long,
	}
	rsi := []float64{
		model.Missing(), model.Missing(), model.Missing(), model.Missing(), 80, 82,
	}

	records := ComputeReturns(series, signal, rsi)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].Date.Equal(series[4].Date) {
		t.Errorf("expected first usable date %v, got %v", series[4].Date, records[0].Date)
	}

	// With the RSI missing everywhere, nothing is usable.
	if records := ComputeReturns(series, signal, make([]float64, 0)); len(records) != 0 {
		t.Fatalf("expected empty records without an RSI column, got %d", len(records))
	}
	allMissing := make([]float64, len(series))
	for i := range allMissing {
		allMissing[i] = model.Missing()
	}
	if records := ComputeReturns(series, signal, allMissing); len(records) != 0 {
		t.Fatalf("expected empty records with all-missing RSI, got %d", len(records))
	}
}

func TestComputeReturns_EmptyOnShortHistory(t *testing.T) {
	// All signals undefined — no usable rows at all.
	series := makeSeries(100, 102)
	signal := []model.Position{model.NoPosition, model.NoPosition}

	if records := ComputeReturns(series, signal, settledRSI(len(series))); len(records) != 0 {
		t.Fatalf("expected empty records, got %d", len(records))
	}

	// Single-point series can never produce a return.
	if records := ComputeReturns(makeSeries(100), []model.Position{model.Long}, settledRSI(1)); len(records) != 0 {
		t.Fatalf("expected empty records for single point, got %d", len(records))
	}
}
