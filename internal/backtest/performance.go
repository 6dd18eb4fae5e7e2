package backtest

import (
	"math"

	"quantdash/internal/model"
)

// tradingDaysPerYear is the fixed annualization constant for daily returns.
const tradingDaysPerYear = 252

// ComputePerformance compounds the return records into cumulative market and
// strategy curves and derives the summary metrics.
//
// Both curves start conceptually at 1.0 one period before the first record
// and grow by the running product of (1 + return).
//
// Metrics, matching the reported numbers of the reference strategy:
//
//	total_return      = cumulative_strategy[last] - 1
//	annualized_return = mean(strategy_return) * 252   (linear scaling of the
//	                    mean daily return — intentionally not geometric)
//	sharpe_ratio      = mean / stdev(sample, ddof=1) * sqrt(252), zero
//	                    risk-free rate
//
// On an empty record set all metrics are NaN. Sharpe is also NaN when the
// returns have zero variance (constant or single-element input) — never a
// division-by-zero fault.
func ComputePerformance(records []model.ReturnRecord) ([]model.PerformancePoint, model.SummaryMetrics) {
	if len(records) == 0 {
		return nil, model.SummaryMetrics{
			TotalReturn:      model.Missing(),
			AnnualizedReturn: model.Missing(),
			SharpeRatio:      model.Missing(),
		}
	}

	curve := make([]model.PerformancePoint, len(records))
	cumMarket, cumStrategy := 1.0, 1.0
	for i, r := range records {
		cumMarket *= 1 + r.MarketReturn
		cumStrategy *= 1 + r.StrategyReturn
		curve[i] = model.PerformancePoint{
			Date:               r.Date,
			CumulativeMarket:   cumMarket,
			CumulativeStrategy: cumStrategy,
		}
	}

	strategyReturns := make([]float64, len(records))
	for i, r := range records {
		strategyReturns[i] = r.StrategyReturn
	}

	m := mean(strategyReturns)
	sd := sampleStdDev(strategyReturns, m)

	sharpe := model.Missing()
	if sd > 0 {
		sharpe = m / sd * math.Sqrt(tradingDaysPerYear)
	}

	return curve, model.SummaryMetrics{
		TotalReturn:      cumStrategy - 1,
		AnnualizedReturn: m * tradingDaysPerYear,
		SharpeRatio:      sharpe,
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev is the ddof=1 estimator, consistent with the mean above.
// Returns NaN for fewer than 2 samples.
func sampleStdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
