// Package model defines the data contracts shared by the analytics pipeline:
// price series, indicator columns, position signals, return records and
// performance summaries.
//
// Missing values in float64 columns are represented as math.NaN(). A missing
// value is a defined, expected state (warm-up rows, unavailable statistics),
// never an error.
package model

import (
	"math"
	"time"
)

// PricePoint is one daily observation of an instrument's closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`  // UTC, midnight-aligned
	Close float64   `json:"close"` // > 0 by precondition
}

// PriceSeries is an ordered daily close-price history.
// Invariants (enforced by the producer, assumed by the pipeline):
// dates strictly increasing, closes positive, source gaps already removed.
// The pipeline never mutates a PriceSeries.
type PriceSeries []PricePoint

// Closes returns the close prices as a fresh slice.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Position is a directional signal: long (+1), short (-1) or NoPosition when
// the inputs required to decide are still warming up.
type Position int

const (
	NoPosition Position = 0
	Long       Position = 1
	Short      Position = -1
)

// IndicatorSet holds per-date indicator columns aligned 1:1 with the
// PriceSeries they were computed from. Warm-up entries are NaN.
type IndicatorSet struct {
	SMAShort []float64 `json:"sma_short"` // NaN for the first shortWindow-1 dates
	SMALong  []float64 `json:"sma_long"`  // NaN for the first longWindow-1 dates
	RSI      []float64 `json:"rsi"`       // NaN for the first rsiWindow dates
}

// Len returns the number of aligned rows.
func (is IndicatorSet) Len() int { return len(is.SMAShort) }

// ReturnRecord is one usable backtest row: the lagged signal, the RSI and
// the day-over-day market return were all available on this date.
type ReturnRecord struct {
	Date           time.Time `json:"date"`
	MarketReturn   float64   `json:"market_return"`
	StrategyReturn float64   `json:"strategy_return"`
}

// PerformancePoint is one point on the compounded equity curves.
type PerformancePoint struct {
	Date               time.Time `json:"date"`
	CumulativeMarket   float64   `json:"cumulative_market"`
	CumulativeStrategy float64   `json:"cumulative_strategy"`
}

// SummaryMetrics are the headline risk/return numbers for a strategy run.
// A NaN field means "not computable" (empty history or zero variance) and
// must be rendered distinctly from a real value.
type SummaryMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// Computable reports whether all three metrics carry real values.
func (m SummaryMetrics) Computable() bool {
	return !math.IsNaN(m.TotalReturn) && !math.IsNaN(m.AnnualizedReturn) && !math.IsNaN(m.SharpeRatio)
}

// Missing is the canonical missing-value marker for float columns.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }
