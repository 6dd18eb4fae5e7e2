package gateway

import (
	"time"

	"quantdash/internal/backtest"
	"quantdash/internal/indicator"
	"quantdash/internal/model"
)

// ResultOut is the REST/WS response type for a backtest run. Missing values
// (warm-up indicators, undefined signals, not-computable metrics) serialize
// as JSON null — encoding/json rejects NaN, and null keeps "not computable"
// distinct from 0 for the UI.
type ResultOut struct {
	Ticker     string           `json:"ticker"`
	Params     indicator.Params `json:"params"`
	Dates      []string         `json:"dates"`
	Closes     []float64        `json:"closes"`
	SMAShort   []*float64       `json:"sma_short"`
	SMALong    []*float64       `json:"sma_long"`
	RSI        []*float64       `json:"rsi"`
	Signal     []*int           `json:"signal"`
	Returns    []ReturnOut      `json:"returns"`
	Curve      []CurvePointOut  `json:"curve"`
	Metrics    MetricsOut       `json:"metrics"`
	ComputedAt string           `json:"computed_at"`
}

// ReturnOut is one usable backtest row.
type ReturnOut struct {
	Date           string  `json:"date"`
	MarketReturn   float64 `json:"market_return"`
	StrategyReturn float64 `json:"strategy_return"`
}

// CurvePointOut is one point on the cumulative performance curves.
type CurvePointOut struct {
	Date               string  `json:"date"`
	CumulativeMarket   float64 `json:"cumulative_market"`
	CumulativeStrategy float64 `json:"cumulative_strategy"`
}

// MetricsOut carries the summary metrics with null for "not computable".
type MetricsOut struct {
	TotalReturn      *float64 `json:"total_return"`
	AnnualizedReturn *float64 `json:"annualized_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
}

// NewResultOut converts a pipeline result to its wire form.
func NewResultOut(res *backtest.Result) *ResultOut {
	out := &ResultOut{
		Ticker:     res.Ticker,
		Params:     res.Params,
		Dates:      make([]string, len(res.Series)),
		Closes:     make([]float64, len(res.Series)),
		SMAShort:   floatColumn(res.Indicators.SMAShort),
		SMALong:    floatColumn(res.Indicators.SMALong),
		RSI:        floatColumn(res.Indicators.RSI),
		Signal:     signalColumn(res.Signal),
		Returns:    make([]ReturnOut, len(res.Returns)),
		Curve:      make([]CurvePointOut, len(res.Curve)),
		ComputedAt: res.ComputedAt.Format(time.RFC3339),
		Metrics: MetricsOut{
			TotalReturn:      nullable(res.Metrics.TotalReturn),
			AnnualizedReturn: nullable(res.Metrics.AnnualizedReturn),
			SharpeRatio:      nullable(res.Metrics.SharpeRatio),
		},
	}

	for i, p := range res.Series {
		out.Dates[i] = p.Date.Format("2006-01-02")
		out.Closes[i] = p.Close
	}
	for i, r := range res.Returns {
		out.Returns[i] = ReturnOut{
			Date:           r.Date.Format("2006-01-02"),
			MarketReturn:   r.MarketReturn,
			StrategyReturn: r.StrategyReturn,
		}
	}
	for i, p := range res.Curve {
		out.Curve[i] = CurvePointOut{
			Date:               p.Date.Format("2006-01-02"),
			CumulativeMarket:   p.CumulativeMarket,
			CumulativeStrategy: p.CumulativeStrategy,
		}
	}
	return out
}

func floatColumn(col []float64) []*float64 {
	out := make([]*float64, len(col))
	for i, v := range col {
		out[i] = nullable(v)
	}
	return out
}

func signalColumn(signal []model.Position) []*int {
	out := make([]*int, len(signal))
	for i, s := range signal {
		if s == model.NoPosition {
			continue
		}
		v := int(s)
		out[i] = &v
	}
	return out
}

func nullable(v float64) *float64 {
	if model.IsMissing(v) {
		return nil
	}
	return &v
}
