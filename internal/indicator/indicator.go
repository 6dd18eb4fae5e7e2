// Package indicator computes the per-date indicator columns (trailing SMAs
// and Wilder RSI) over a daily PriceSeries.
//
// The output is aligned 1:1 with the input series. Dates inside the warm-up
// span of a rolling computation carry model.Missing() instead of a value —
// insufficient history is a defined state, not an error. A window longer than
// the whole series simply yields an all-missing column.
package indicator

import (
	"fmt"

	"quantdash/internal/model"
)

// Params holds the window lengths for one indicator computation.
// ShortWindow < LongWindow is NOT enforced: the pipeline stays correct with
// any positive integers, but the crossover signal degrades if short >= long.
type Params struct {
	ShortWindow int `json:"short_window"`
	LongWindow  int `json:"long_window"`
	RSIWindow   int `json:"rsi_window"`
}

// Validate rejects non-positive windows. This is the only parameter misuse
// that aborts instead of degrading.
func (p Params) Validate() error {
	if p.ShortWindow <= 0 {
		return fmt.Errorf("indicator: short window must be positive, got %d", p.ShortWindow)
	}
	if p.LongWindow <= 0 {
		return fmt.Errorf("indicator: long window must be positive, got %d", p.LongWindow)
	}
	if p.RSIWindow <= 0 {
		return fmt.Errorf("indicator: rsi window must be positive, got %d", p.RSIWindow)
	}
	return nil
}

// Compute derives the SMA and RSI columns for the series. Pure function:
// the series is never mutated and the returned columns are freshly owned.
func Compute(series model.PriceSeries, p Params) (model.IndicatorSet, error) {
	if err := p.Validate(); err != nil {
		return model.IndicatorSet{}, err
	}

	out := model.IndicatorSet{
		SMAShort: make([]float64, len(series)),
		SMALong:  make([]float64, len(series)),
		RSI:      make([]float64, len(series)),
	}

	short := newSMA(p.ShortWindow)
	long := newSMA(p.LongWindow)
	rs := newRSI(p.RSIWindow)

	for i, pt := range series {
		short.update(pt.Close)
		long.update(pt.Close)
		rs.update(pt.Close)

		out.SMAShort[i] = readyValue(short.ready(), short.value)
		out.SMALong[i] = readyValue(long.ready(), long.value)
		out.RSI[i] = readyValue(rs.ready(), rs.value)
	}

	return out, nil
}

func readyValue(ready bool, value func() float64) float64 {
	if !ready {
		return model.Missing()
	}
	return value()
}
