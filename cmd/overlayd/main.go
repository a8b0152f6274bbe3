package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sltp-overlay/config"
	"sltp-overlay/internal/bracket"
	"sltp-overlay/internal/dragsync"
	"sltp-overlay/internal/gateway"
	"sltp-overlay/internal/ingest/dom"
	"sltp-overlay/internal/ingest/network"
	"sltp-overlay/internal/logger"
	"sltp-overlay/internal/metrics"
	"sltp-overlay/internal/notify"
	"sltp-overlay/internal/reconciler"
	redisstore "sltp-overlay/internal/store/redis"
	"sltp-overlay/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	start := time.Now()

	cfg := config.Load()
	slogger := logger.Init("overlayd", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("redis", cfg.RedisAddr),
		slog.Bool("dom_creates_order", cfg.DOMCreatesOrder),
	)

	m := metrics.New()
	go metrics.Serve(cfg.MetricsAddr)

	store, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Key:      cfg.StateKey,
		TTL:      cfg.StateTTL,
	})
	if err != nil {
		log.Fatalf("[overlayd] redis init failed: %v", err)
	}
	defer store.Close()

	journal, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[overlayd] journal init failed: %v", err)
	}
	defer journal.Close()

	var brackets *bracket.Client
	if cfg.PlatformBaseURL != "" {
		brackets = bracket.New(cfg.PlatformBaseURL, cfg.PlatformToken)
	} else {
		log.Printf("[overlayd] no platform base URL, bracket sync disabled")
	}

	chart := gateway.NewRemoteChart(0)

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.AlertWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.AlertWebhookURL)
	}

	deps := reconciler.Deps{
		Chart:   chart,
		Store:   store,
		Journal: journal,
		Metrics: m,
		Notify:  notifier,
	}
	if brackets != nil {
		deps.Brackets = brackets
	}
	rec := reconciler.New(reconciler.Config{
		DedupWindow:      cfg.DedupWindow,
		WatchdogInterval: cfg.WatchdogInterval,
		Debounce:         cfg.Debounce,
		DOMCreatesOrder:  cfg.DOMCreatesOrder,
		AutoApply:        cfg.AutoApply,
	}, cfg.Risk, deps)

	latest := &dom.LatestSnapshot{}
	scanner := dom.NewScanner(latest, cfg.DOMPollInterval)
	detector := dragsync.New(chart, rec, rec, cfg.DragPollInterval)

	var tokens gateway.TokenSink
	if brackets != nil {
		tokens = brackets
	}
	hub := gateway.NewHub(network.NewExtractor(), rec, latest, tokens, rec, chart)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[overlayd] shutdown signal received")
		cancel()
	}()

	go rec.Run(ctx)
	go scanner.Run(ctx, rec.Events())
	go detector.Run(ctx)
	go chart.WaitAvailable(cfg.ChartWaitAttempts, cfg.ChartWaitInterval)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, start)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[overlayd] companion gateway listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[overlayd] server failed: %v", err)
	}
	slogger.Info("stopped", slog.Duration("uptime", time.Since(start)))
}
