// cmd/quantserver is the long-running backtest service: it fetches daily
// candles from Angel One SmartAPI, caches series in Redis, persists bars
// to SQLite and serves backtest results over REST + WebSocket.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"quantdash/config"
	"quantdash/internal/gateway"
	"quantdash/internal/indicator"
	"quantdash/internal/logger"
	"quantdash/internal/marketdata"
	"quantdash/internal/metrics"
	sqlitestore "quantdash/internal/store/sqlite"
	"quantdash/pkg/smartconnect"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[quantserver] starting...")

	slogger := logger.Init("quantserver", slog.LevelInfo)

	// ---- Load config from env ----
	cfg := config.Load()

	defaults := indicator.Params{
		ShortWindow: cfg.ShortWindow,
		LongWindow:  cfg.LongWindow,
		RSIWindow:   cfg.RSIWindow,
	}
	if err := defaults.Validate(); err != nil {
		log.Fatalf("[quantserver] bad default windows: %v", err)
	}

	// ---- Metrics & health ----
	prom := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- SQLite bar store ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	store, err := sqlitestore.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[quantserver] sqlite init failed: %v", err)
	}
	defer store.Close()
	log.Println("[quantserver] sqlite bar store ready")

	// ---- SmartAPI login (fresh TOTP at startup) ----
	totpCode, err := totp.GenerateCode(cfg.AngelTOTPSecret, time.Now())
	if err != nil {
		log.Fatalf("[quantserver] TOTP generation failed: %v", err)
	}
	sc := smartconnect.New(smartconnect.Config{APIKey: cfg.AngelAPIKey})
	if err := sc.Login(ctx, cfg.AngelClientCode, cfg.AngelPassword, totpCode); err != nil {
		log.Fatalf("[quantserver] SmartAPI login failed: %v", err)
	}
	slogger.Info("smartapi session ready", "client_code", cfg.AngelClientCode)
	health.SetLastFetchTime(time.Now())

	// ---- Provider chain: SmartAPI → Redis cache ----
	base := marketdata.NewSmartAPIProvider(sc, cfg.DefaultExchange, store)

	var provider marketdata.Provider = base
	cache, err := marketdata.NewSeriesCache(marketdata.CacheConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		log.Printf("[quantserver] WARNING: redis init failed: %v (continuing without cache)", err)
	} else {
		defer cache.Close()
		provider = marketdata.NewCachedProvider(base, cache, prom)
		log.Println("[quantserver] redis series cache ready")
	}

	// ---- Periodic liveness checks ----
	if cache != nil {
		health.StartLivenessChecker(ctx, cache.Client(), store.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, store.DB(), 10*time.Second)
	}

	// ---- Gateway (REST + WS) ----
	hub := gateway.NewHub(prom)
	svc := gateway.NewService(provider, hub, prom, health, defaults)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)

	gwSrv := &http.Server{
		Addr:         cfg.GatewayAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		log.Printf("[quantserver] gateway listening on %s", cfg.GatewayAddr)
		if err := gwSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[quantserver] gateway server error: %v", err)
		}
	}()

	log.Println("[quantserver] ╔═══════════════════════════════════════════════════════════╗")
	log.Println("[quantserver] ║  Quant Dashboard Server                                  ║")
	log.Println("[quantserver] ║                                                          ║")
	log.Println("[quantserver] ║  [SmartAPI] → [Redis cache] → [SQLite] → [REST/WS]       ║")
	log.Printf("[quantserver] ║  Gateway: %-8s  Metrics: %-8s                   ║", cfg.GatewayAddr, cfg.MetricsAddr)
	log.Printf("[quantserver] ║  Default windows: SMA %d/%d, RSI %-3d                     ║",
		defaults.ShortWindow, defaults.LongWindow, defaults.RSIWindow)
	log.Println("[quantserver] ╚═══════════════════════════════════════════════════════════╝")

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[quantserver] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	gwSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	log.Println("[quantserver] shutdown complete.")
}
