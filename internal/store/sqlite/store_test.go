package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quantdash/internal/model"
)

func TestUpsertAndReadBars(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []model.DailyBar{
		{Ticker: "NSE:3045", Date: base, Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000},
		{Ticker: "NSE:3045", Date: base.AddDate(0, 0, 1), Open: 100, High: 103, Low: 100, Close: 102, Volume: 1200},
		{Ticker: "NSE:9999", Date: base, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 50},
	}

	if err := store.UpsertBars(ctx, bars); err != nil {
		t.Fatalf("UpsertBars: %v", err)
	}

	got, err := store.ReadBars(ctx, "NSE:3045", base, base.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if got[0].Close != 100 || got[1].Close != 102 {
		t.Errorf("unexpected closes: %.2f, %.2f", got[0].Close, got[1].Close)
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("expected ascending date order")
	}

	// Re-upserting the same date replaces, not duplicates.
	bars[0].Close = 100.5
	if err := store.UpsertBars(ctx, bars[:1]); err != nil {
		t.Fatalf("UpsertBars replace: %v", err)
	}
	got, err = store.ReadBars(ctx, "NSE:3045", base, base)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 1 || got[0].Close != 100.5 {
		t.Errorf("expected single replaced bar at 100.5, got %+v", got)
	}
}

func TestLastBarDate(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	last, err := store.LastBarDate(ctx, "NSE:3045")
	if err != nil {
		t.Fatalf("LastBarDate: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero time for empty store, got %v", last)
	}

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	store.UpsertBars(ctx, []model.DailyBar{
		{Ticker: "NSE:3045", Date: base, Close: 100},
		{Ticker: "NSE:3045", Date: base.AddDate(0, 0, 3), Close: 104},
	})

	last, err = store.LastBarDate(ctx, "NSE:3045")
	if err != nil {
		t.Fatalf("LastBarDate: %v", err)
	}
	if !last.Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("expected %v, got %v", base.AddDate(0, 0, 3), last)
	}
}
