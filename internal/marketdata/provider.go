// Package marketdata retrieves daily close-price history for the analytics
// pipeline. Retrieval sits outside the core's purity contract: providers may
// do network I/O and caching, but the pipeline only ever sees a complete,
// immutable PriceSeries.
package marketdata

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"quantdash/internal/model"
	"quantdash/internal/store/sqlite"
	"quantdash/pkg/smartconnect"
)

// Provider fetches the daily close history for a ticker over a date range.
// An empty series means "no data found" — a terminal condition for callers,
// not an error.
type Provider interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (model.PriceSeries, error)
}

// SmartAPIProvider fetches daily candles from Angel One SmartAPI and reduces
// them to close-only points. If a bar store is attached, every fetched bar is
// also persisted for later offline runs.
type SmartAPIProvider struct {
	client          *smartconnect.Client
	defaultExchange string
	store           *sqlite.Store // optional
}

// NewSmartAPIProvider creates a provider on top of a logged-in SmartAPI
// client. store may be nil.
func NewSmartAPIProvider(client *smartconnect.Client, defaultExchange string, store *sqlite.Store) *SmartAPIProvider {
	if defaultExchange == "" {
		defaultExchange = "NSE"
	}
	return &SmartAPIProvider{
		client:          client,
		defaultExchange: defaultExchange,
		store:           store,
	}
}

// Fetch retrieves and normalizes the daily history for a ticker.
// Tickers are "TOKEN" or "EXCHANGE:TOKEN".
func (p *SmartAPIProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.PriceSeries, error) {
	exchange, token := p.splitTicker(ticker)

	candles, err := p.client.GetDailyCandles(ctx, exchange, token, start, end)
	if err != nil {
		return nil, fmt.Errorf("marketdata: fetch %s: %w", ticker, err)
	}

	bars := make([]model.DailyBar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, model.DailyBar{
			Ticker: ticker,
			Date:   c.TS,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}

	if p.store != nil && len(bars) > 0 {
		if err := p.store.UpsertBars(ctx, bars); err != nil {
			// Persistence is best-effort; the fetched series is still usable.
			log.Printf("[marketdata] store upsert for %s failed: %v", ticker, err)
		}
	}

	series := ReduceToSeries(bars)
	log.Printf("[marketdata] fetched %s: %d bars, %d usable points", ticker, len(bars), len(series))
	return series, nil
}

func (p *SmartAPIProvider) splitTicker(ticker string) (exchange, token string) {
	if i := strings.IndexByte(ticker, ':'); i > 0 {
		return ticker[:i], ticker[i+1:]
	}
	return p.defaultExchange, ticker
}

// StoreProvider serves series from the local SQLite bar store — the offline
// path used by cmd/backtest.
type StoreProvider struct {
	store *sqlite.Store
}

// NewStoreProvider creates a provider over previously persisted bars.
func NewStoreProvider(store *sqlite.Store) *StoreProvider {
	return &StoreProvider{store: store}
}

// Fetch reads the stored history for a ticker.
func (p *StoreProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.PriceSeries, error) {
	bars, err := p.store.ReadBars(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("marketdata: read store %s: %w", ticker, err)
	}
	return ReduceToSeries(bars), nil
}

// ReduceToSeries converts raw bars to the close-only series the pipeline
// consumes, enforcing its preconditions: rows with non-positive or non-finite
// closes are dropped (source gaps removed) and dates are strictly increasing
// with duplicates collapsed to the last occurrence.
func ReduceToSeries(bars []model.DailyBar) model.PriceSeries {
	sorted := make([]model.DailyBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	series := make(model.PriceSeries, 0, len(sorted))
	for _, b := range sorted {
		if b.Close <= 0 || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		date := b.Date.Truncate(24 * time.Hour)
		if n := len(series); n > 0 && !series[n-1].Date.Before(date) {
			// Same date seen again — keep the later row.
			series[n-1].Close = b.Close
			continue
		}
		series = append(series, model.PricePoint{Date: date, Close: b.Close})
	}
	return series
}
