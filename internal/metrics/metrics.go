// Package metrics exposes Prometheus metrics for the overlay engine.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the overlay engine.
type Metrics struct {
	EventsIngested *prometheus.CounterVec // labels: source, kind
	DedupSkips     prometheus.Counter
	Renders        prometheus.Counter
	RenderFailures prometheus.Counter
	DragsDetected  *prometheus.CounterVec // labels: line
	BracketSyncs   *prometheus.CounterVec // labels: result=ok|failed
	Restores       *prometheus.CounterVec // labels: outcome=restored|stale|empty|deferred
	ChartReacquire prometheus.Counter
	ChartAvailable prometheus.Gauge // 0=lost, 1=available
	ActiveOrder    prometheus.Gauge // 0=none, 1=active
}

// New registers and returns all metrics on the default registry.
func New() *Metrics {
	m := &Metrics{
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_events_ingested_total",
			Help: "Normalized order events ingested, by source and kind",
		}, []string{"source", "kind"}),
		DedupSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_dedup_skips_total",
			Help: "Repeat signals suppressed inside the dedup window",
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_line_renders_total",
			Help: "Bracket line render/redraw operations",
		}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_line_render_failures_total",
			Help: "Render attempts that failed against the chart surface",
		}),
		DragsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_drags_detected_total",
			Help: "User line drags detected, by line",
		}, []string{"line"}),
		BracketSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_bracket_syncs_total",
			Help: "Outbound bracket-update calls, by result",
		}, []string{"result"}),
		Restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_restores_total",
			Help: "Persisted-state restore attempts, by outcome",
		}, []string{"outcome"}),
		ChartReacquire: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_chart_reacquisitions_total",
			Help: "Times the watchdog re-acquired a recreated chart surface",
		}),
		ChartAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlay_chart_available",
			Help: "Whether the chart surface is currently available",
		}),
		ActiveOrder: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlay_active_order",
			Help: "Whether an active order is currently tracked",
		}),
	}

	prometheus.MustRegister(
		m.EventsIngested, m.DedupSkips, m.Renders, m.RenderFailures,
		m.DragsDetected, m.BracketSyncs, m.Restores,
		m.ChartReacquire, m.ChartAvailable, m.ActiveOrder,
	)
	return m
}

// Serve starts the /metrics endpoint on addr. Blocks; run in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("[metrics] serving on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[metrics] server stopped: %v", err)
	}
}
