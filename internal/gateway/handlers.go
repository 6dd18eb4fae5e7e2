package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"quantdash/internal/backtest"
	"quantdash/internal/indicator"
	"quantdash/internal/marketdata"
	"quantdash/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Invalidator is the optional cache-invalidation capability of a provider.
type Invalidator interface {
	Invalidate(ctx context.Context, ticker string, start, end time.Time) error
}

// Service runs backtests on request and serves them over REST + WebSocket.
type Service struct {
	provider      marketdata.Provider
	hub           *Hub
	prom          *metrics.Metrics // may be nil
	health        *metrics.HealthStatus
	defaultParams indicator.Params
}

// NewService wires the gateway service.
func NewService(provider marketdata.Provider, hub *Hub, prom *metrics.Metrics, health *metrics.HealthStatus, defaults indicator.Params) *Service {
	return &Service{
		provider:      provider,
		hub:           hub,
		prom:          prom,
		health:        health,
		defaultParams: defaults,
	}
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		s.hub.HandleWSRequest(conn)
	})

	mux.HandleFunc("/api/v1/backtest", s.handleBacktest)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)
}

// handleBacktest fetches the series, runs the pipeline and returns the
// result, broadcasting it to WS clients as a side effect.
func (s *Service) handleBacktest(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	req, err := s.parseBacktestRequest(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.provider.Fetch(r.Context(), req.ticker, req.start, req.end)
	if err != nil {
		log.Printf("[gateway] fetch %s: %v", req.ticker, err)
		httpError(w, http.StatusBadGateway, "market data fetch failed")
		return
	}
	if s.health != nil {
		s.health.SetLastFetchTime(time.Now())
	}

	computeStart := time.Now()
	res, err := backtest.Run(req.ticker, series, req.params)
	if err != nil {
		if s.prom != nil {
			s.prom.BacktestErrors.Inc()
		}
		if errors.Is(err, backtest.ErrNoData) {
			httpError(w, http.StatusNotFound, "no data found for the given ticker/timeframe")
			return
		}
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.prom != nil {
		s.prom.BacktestsTotal.Inc()
		s.prom.PipelineDur.Observe(time.Since(computeStart).Seconds())
	}

	out := NewResultOut(res)
	s.hub.BroadcastResult(out)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// handleRefresh invalidates the cached series so the next backtest
// re-fetches on demand — the "Refresh Data" operation of the UI.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	inv, ok := s.provider.(Invalidator)
	if !ok {
		httpError(w, http.StatusNotImplemented, "provider has no cache")
		return
	}

	req, err := s.parseBacktestRequest(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := inv.Invalidate(r.Context(), req.ticker, req.start, req.end); err != nil {
		log.Printf("[gateway] invalidate %s: %v", req.ticker, err)
		httpError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type backtestRequest struct {
	ticker     string
	start, end time.Time
	params     indicator.Params
}

func (s *Service) parseBacktestRequest(r *http.Request) (backtestRequest, error) {
	q := r.URL.Query()

	req := backtestRequest{
		ticker: q.Get("ticker"),
		params: s.defaultParams,
	}
	if req.ticker == "" {
		return req, errors.New("ticker is required")
	}

	var err error
	if req.end, err = parseDate(q.Get("to"), time.Now().UTC()); err != nil {
		return req, err
	}
	if req.start, err = parseDate(q.Get("from"), req.end.AddDate(-1, 0, 0)); err != nil {
		return req, err
	}
	if !req.start.Before(req.end) {
		return req, errors.New("from must be before to")
	}

	if req.params.ShortWindow, err = parseWindow(q.Get("short"), req.params.ShortWindow); err != nil {
		return req, err
	}
	if req.params.LongWindow, err = parseWindow(q.Get("long"), req.params.LongWindow); err != nil {
		return req, err
	}
	if req.params.RSIWindow, err = parseWindow(q.Get("rsi"), req.params.RSIWindow); err != nil {
		return req, err
	}
	if err := req.params.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("dates must be YYYY-MM-DD")
	}
	return t, nil
}

func parseWindow(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("windows must be integers")
	}
	return n, nil
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
