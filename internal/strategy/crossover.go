// Package strategy derives discrete position signals from indicator columns.
package strategy

import (
	"quantdash/internal/model"
)

// ComputeSignal derives the SMA crossover position for each date:
// Long (+1) where sma_short > sma_long, Short (-1) otherwise.
//
// The tie sma_short == sma_long resolves to Short — a documented tie-break,
// not "no position". Dates where either SMA is still warming up carry
// model.NoPosition. No smoothing and no hysteresis: the signal flips on every
// crossing, noise included.
func ComputeSignal(ind model.IndicatorSet) []model.Position {
	signal := make([]model.Position, ind.Len())
	for i := range signal {
		short, long := ind.SMAShort[i], ind.SMALong[i]
		if model.IsMissing(short) || model.IsMissing(long) {
			signal[i] = model.NoPosition
			continue
		}
		if short > long {
			signal[i] = model.Long
		} else {
			signal[i] = model.Short
		}
	}
	return signal
}
