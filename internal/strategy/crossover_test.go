package strategy

import (
	"math"
	"testing"

	"quantdash/internal/model"
)

func TestComputeSignal(t *testing.T) {
	nan := math.NaN()
	ind := model.IndicatorSet{
		SMAShort: []float64{nan, 101, 105, 100, 100},
		SMALong:  []float64{nan, nan, 102, 103, 100},
		RSI:      []float64{nan, nan, nan, nan, nan},
	}

	got := ComputeSignal(ind)
	want := []model.Position{
		model.NoPosition, // short SMA missing
		model.NoPosition, // long SMA missing
		model.Long,       // 105 > 102
		model.Short,      // 100 < 103
		model.Short,      // tie resolves to short
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d signals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("signal[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestComputeSignal_OnlyValidValues(t *testing.T) {
	ind := model.IndicatorSet{
		SMAShort: []float64{100, 101, 102, 103},
		SMALong:  []float64{101, 100, 102.5, 103},
		RSI:      []float64{50, 50, 50, 50},
	}

	for i, sig := range ComputeSignal(ind) {
		if sig != model.Long && sig != model.Short {
			t.Errorf("signal[%d]: expected +1 or -1 with defined inputs, got %d", i, sig)
		}
	}
}
