package indicator

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

func countMissing(col []float64) int {
	n := 0
	for _, v := range col {
		if model.IsMissing(v) {
			n++
		}
	}
	return n
}

func TestCompute_AlignmentAndWarmup(t *testing.T) {
	series := makeSeries(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	p := Params{ShortWindow: 3, LongWindow: 5, RSIWindow: 4}

	ind, err := Compute(series, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if ind.Len() != len(series) {
		t.Fatalf("expected %d rows, got %d", len(series), ind.Len())
	}

	// First window-1 SMA entries and first window RSI entries are missing.
	if got := countMissing(ind.SMAShort); got != p.ShortWindow-1 {
		t.Errorf("sma_short: expected %d missing, got %d", p.ShortWindow-1, got)
	}
	if got := countMissing(ind.SMALong); got != p.LongWindow-1 {
		t.Errorf("sma_long: expected %d missing, got %d", p.LongWindow-1, got)
	}
	if got := countMissing(ind.RSI); got != p.RSIWindow {
		t.Errorf("rsi: expected %d missing, got %d", p.RSIWindow, got)
	}

	// Missing entries are a prefix, not scattered.
	for i, v := range ind.SMALong {
		if i < p.LongWindow-1 && !model.IsMissing(v) {
			t.Errorf("sma_long[%d]: expected missing during warm-up, got %.4f", i, v)
		}
		if i >= p.LongWindow-1 && model.IsMissing(v) {
			t.Errorf("sma_long[%d]: expected value after warm-up", i)
		}
	}
}

func TestCompute_SMAValues(t *testing.T) {
	series := makeSeries(100, 102, 101, 105, 110)
	ind, err := Compute(series, Params{ShortWindow: 2, LongWindow: 3, RSIWindow: 14})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantShort := []float64{math.NaN(), 101, 101.5, 103, 107.5}
	wantLong := []float64{math.NaN(), math.NaN(), 101, 102 + 2.0/3.0, 105 + 1.0/3.0}

	for i := range series {
		checkCell(t, "sma_short", i, ind.SMAShort[i], wantShort[i])
		checkCell(t, "sma_long", i, ind.SMALong[i], wantLong[i])
	}
}

func TestCompute_RSIKnownValues(t *testing.T) {
	// Changes: +2, -1, +4 with window 2.
	// Seed averages over first 2 changes: gain=1.0, loss=0.5 → RSI=66.67.
	// Wilder step on +4: gain=(1*1+4)/2=2.5, loss=(0.5*1+0)/2=0.25 → RSI=90.91.
	series := makeSeries(100, 102, 101, 105)
	ind, err := Compute(series, Params{ShortWindow: 2, LongWindow: 3, RSIWindow: 2})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !model.IsMissing(ind.RSI[0]) || !model.IsMissing(ind.RSI[1]) {
		t.Fatal("expected first rsi_window entries to be missing")
	}
	if got, want := ind.RSI[2], 100-100.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("rsi[2]: expected %.6f, got %.6f", want, got)
	}
	if got, want := ind.RSI[3], 100-100.0/11.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("rsi[3]: expected %.6f, got %.6f", want, got)
	}
}

func TestCompute_RSISaturatesWithoutLosses(t *testing.T) {
	series := makeSeries(100, 101, 102, 103, 104, 105)
	ind, err := Compute(series, Params{ShortWindow: 2, LongWindow: 3, RSIWindow: 3})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i := 3; i < len(series); i++ {
		if ind.RSI[i] != 100.0 {
			t.Errorf("rsi[%d]: expected saturation at 100 with no losses, got %.4f", i, ind.RSI[i])
		}
	}
}

func TestCompute_WindowLongerThanSeries(t *testing.T) {
	series := makeSeries(100, 101, 102)
	ind, err := Compute(series, Params{ShortWindow: 2, LongWindow: 10, RSIWindow: 10})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// No error — the oversized columns are simply all-missing.
	if got := countMissing(ind.SMALong); got != len(series) {
		t.Errorf("sma_long: expected all %d entries missing, got %d", len(series), got)
	}
	if got := countMissing(ind.RSI); got != len(series) {
		t.Errorf("rsi: expected all %d entries missing, got %d", len(series), got)
	}
}

func TestCompute_InvalidWindows(t *testing.T) {
	series := makeSeries(100, 101, 102)
	cases := []Params{
		{ShortWindow: 0, LongWindow: 3, RSIWindow: 14},
		{ShortWindow: 2, LongWindow: -1, RSIWindow: 14},
		{ShortWindow: 2, LongWindow: 3, RSIWindow: 0},
	}
	for _, p := range cases {
		if _, err := Compute(series, p); err == nil {
			t.Errorf("expected error for params %+v", p)
		}
	}
}

func checkCell(t *testing.T, col string, i int, got, want float64) {
	t.Helper()
	if math.IsNaN(want) {
		if !model.IsMissing(got) {
			t.Errorf("%s[%d]: expected missing, got %.6f", col, i, got)
		}
		return
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s[%d]: expected %.6f, got %.6f", col, i, want, got)
	}
}
