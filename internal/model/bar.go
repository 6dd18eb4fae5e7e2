package model

import "time"

// DailyBar is one raw provider row (per-date OHLCV) before reduction to the
// close-only PricePoint the pipeline consumes.
type DailyBar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
