// cmd/backtest replays stored daily bars through the full analytics pipeline
// and prints the strategy's performance against buy-and-hold.
//
// Usage:
//
//	go run ./cmd/backtest --ticker=NSE:3045 --from=2023-01-01 --to=2024-01-01 --short=10 --long=50
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"quantdash/internal/backtest"
	"quantdash/internal/indicator"
	"quantdash/internal/marketdata"
	sqlitestore "quantdash/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Flags
	ticker := flag.String("ticker", "", "Ticker as TOKEN or EXCHANGE:TOKEN (required)")
	fromStr := flag.String("from", "", "Start date YYYY-MM-DD (default: 1 year ago)")
	toStr := flag.String("to", "", "End date YYYY-MM-DD (default: today)")
	short := flag.Int("short", 10, "Short SMA window")
	long := flag.Int("long", 50, "Long SMA window")
	rsiWindow := flag.Int("rsi", 14, "RSI window")
	dbPath := flag.String("db", "data/bars.db", "Path to SQLite bar store")
	flag.Parse()

	if *ticker == "" {
		log.Fatal("[backtest] --ticker is required")
	}

	to := parseDateFlag(*toStr, time.Now().UTC())
	from := parseDateFlag(*fromStr, to.AddDate(-1, 0, 0))

	store, err := sqlitestore.New(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	provider := marketdata.NewStoreProvider(store)
	series, err := provider.Fetch(context.Background(), *ticker, from, to)
	if err != nil {
		log.Fatalf("[backtest] load series failed: %v", err)
	}

	params := indicator.Params{ShortWindow: *short, LongWindow: *long, RSIWindow: *rsiWindow}
	res, err := backtest.Run(*ticker, series, params)
	if err != nil {
		if errors.Is(err, backtest.ErrNoData) {
			log.Fatalf("[backtest] no stored bars for %s in %s..%s — run the server to fetch some",
				*ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		log.Fatalf("[backtest] %v", err)
	}

	printSummary(res)
}

func parseDateFlag(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Fatalf("[backtest] invalid date %q: use YYYY-MM-DD", s)
	}
	return t
}

func printSummary(res *backtest.Result) {
	marketTotal := math.NaN()
	if n := len(res.Curve); n > 0 {
		marketTotal = res.Curve[n-1].CumulativeMarket - 1
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           BACKTEST COMPLETE              ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Ticker:            %-20s ║\n", res.Ticker)
	fmt.Printf("║  Windows:           SMA %d/%d, RSI %-6d ║\n",
		res.Params.ShortWindow, res.Params.LongWindow, res.Params.RSIWindow)
	fmt.Printf("║  Prices:            %-20d ║\n", len(res.Series))
	fmt.Printf("║  Usable days:       %-20d ║\n", len(res.Returns))
	fmt.Printf("║  Total return:      %-20s ║\n", percent(res.Metrics.TotalReturn))
	fmt.Printf("║  Annualized return: %-20s ║\n", percent(res.Metrics.AnnualizedReturn))
	fmt.Printf("║  Sharpe ratio:      %-20s ║\n", ratio(res.Metrics.SharpeRatio))
	fmt.Printf("║  Buy-and-hold:      %-20s ║\n", percent(marketTotal))
	fmt.Println("╚══════════════════════════════════════════╝")
}

// percent renders a metric, keeping "not computable" visibly distinct.
func percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
