// Package backtest evaluates a signal over a daily price history: per-period
// returns with the execution lag applied, compounded performance curves, and
// summary risk/return metrics against a buy-and-hold baseline.
package backtest

import (
	"quantdash/internal/model"
)

// ComputeReturns derives the usable backtest rows from a series, its aligned
// signal and the RSI column (all three aligned 1:1 with the series).
//
// For each date t:
//
//	market_return[t]   = close[t]/close[t-1] - 1
//	strategy_return[t] = signal[t-1] * market_return[t]
//
// The one-period lag is mandatory: the position is decided at the close of
// t-1 and earns the return realized on day t. Collapsing it to the same-day
// signal silently leaks look-ahead bias into the results.
//
// A row needs every column defined: the lagged signal, the market return and
// the RSI for that date. Rows lacking any of them are excluded entirely, not
// zero-filled, so the usable history starts one day after the slowest
// column's warm-up — the long SMA or the RSI, whichever settles later. With
// fewer than 2 usable dates the result is empty; downstream metrics treat
// that as insufficient data.
func ComputeReturns(series model.PriceSeries, signal []model.Position, rsi []float64) []model.ReturnRecord {
	n := len(series)
	if len(signal) < n {
		n = len(signal)
	}
	if len(rsi) < n {
		n = len(rsi)
	}

	var records []model.ReturnRecord
	for t := 1; t < n; t++ {
		lagged := signal[t-1]
		if lagged == model.NoPosition || model.IsMissing(rsi[t]) {
			continue
		}
		market := series[t].Close/series[t-1].Close - 1
		records = append(records, model.ReturnRecord{
			Date:           series[t].Date,
			MarketReturn:   market,
			StrategyReturn: float64(lagged) * market,
		})
	}
	return records
}
