package backtest

import (
	"errors"
	"time"

	"quantdash/internal/indicator"
	"quantdash/internal/model"
	"quantdash/internal/strategy"
)

// ErrNoData is returned when the provider found no price history at all.
// An empty series is terminal: no computation is attempted.
var ErrNoData = errors.New("backtest: empty price series")

// Result bundles every stage's output for one pipeline run. Each field is a
// fresh, independently owned structure — stages never mutate their inputs.
type Result struct {
	Ticker     string                   `json:"ticker"`
	Params     indicator.Params         `json:"params"`
	Series     model.PriceSeries        `json:"series"`
	Indicators model.IndicatorSet       `json:"indicators"`
	Signal     []model.Position         `json:"signal"`
	Returns    []model.ReturnRecord     `json:"returns"`
	Curve      []model.PerformancePoint `json:"curve"`
	Metrics    model.SummaryMetrics     `json:"metrics"`
	ComputedAt time.Time                `json:"computed_at"`
}

// Run executes the full pipeline over one immutable PriceSeries:
// indicators → signal → returns → performance. It is a deterministic,
// single-threaded sequence of pure transformations; callers backtesting
// several tickers concurrently must give each call its own series copy.
//
// Fails only on an empty series (ErrNoData) or invalid windows; a series
// shorter than the warm-up simply produces empty returns and NaN metrics.
func Run(ticker string, series model.PriceSeries, p indicator.Params) (*Result, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	ind, err := indicator.Compute(series, p)
	if err != nil {
		return nil, err
	}

	signal := strategy.ComputeSignal(ind)
	returns := ComputeReturns(series, signal, ind.RSI)
	curve, metrics := ComputePerformance(returns)

	return &Result{
		Ticker:     ticker,
		Params:     p,
		Series:     series,
		Indicators: ind,
		Signal:     signal,
		Returns:    returns,
		Curve:      curve,
		Metrics:    metrics,
		ComputedAt: time.Now().UTC(),
	}, nil
}
