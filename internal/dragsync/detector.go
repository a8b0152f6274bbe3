// Package dragsync polls the rendered bracket lines for user drags. The
// chart widget has no drag event, so the detector samples each line's price
// at a fixed interval and applies hysteresis: a move larger than half a tick
// against the last programmatically set price is a drag, anything smaller is
// float jitter. Detected drags are submitted to the reconciler as events;
// the detector itself never mutates order state.
package dragsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/calc"
	"sltp-overlay/internal/instrument"
	"sltp-overlay/internal/model"
)

// DefaultInterval matches the original 500ms line-position poll.
const DefaultInterval = 500 * time.Millisecond

// dragTolerance in ticks. At or below this a move is jitter, above it a drag.
var dragTolerance = decimal.RequireFromString("0.5")

// Submitter accepts detected drag events. Satisfied by the reconciler.
type Submitter interface {
	Submit(model.OrderEvent)
}

// Detector polls rendered line positions and reports drags.
type Detector struct {
	chart    model.ChartSurface
	view     model.BracketViewer
	sink     Submitter
	interval time.Duration
}

// New creates a Detector.
func New(chart model.ChartSurface, view model.BracketViewer, sink Submitter, interval time.Duration) *Detector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Detector{chart: chart, view: view, sink: sink, interval: interval}
}

// Run polls until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("[dragsync] polling lines every %s", d.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pollOnce()
		}
	}
}

// pollOnce samples both lines. Labels are refreshed on every poll so the
// dollar readout tracks the line even mid-drag; drag events only fire past
// the tolerance. A panicking chart read is swallowed, one bad poll must not
// kill the loop.
func (d *Detector) pollOnce() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dragsync] poll panic recovered: %v", r)
		}
	}()

	v := d.view.BracketView()
	if !v.Rendered {
		return
	}
	spec, err := instrument.Lookup(v.Symbol)
	if err != nil {
		return
	}

	d.pollLine(model.LineSL, v.SLLineID, v.SLPrice, v, spec)
	d.pollLine(model.LineTP, v.TPLineID, v.TPPrice, v, spec)
}

func (d *Detector) pollLine(kind model.LineKind, id model.LineID, lastSet decimal.Decimal, v model.BracketView, spec instrument.Spec) {
	raw, err := d.chart.LinePrice(id)
	if err != nil {
		// Line died underneath us, the watchdog will re-render.
		return
	}
	current := decimal.NewFromFloat(raw)

	if err := d.chart.SetLineLabel(id, lineLabel(kind, v.Entry, current, v.Quantity, spec)); err != nil {
		log.Printf("[dragsync] label update: %v", err)
	}

	moved := calc.TicksBetween(current, lastSet, spec.TickSize)
	if moved.LessThanOrEqual(dragTolerance) {
		return
	}

	log.Printf("[dragsync] %s line dragged %s -> %s (%s ticks)", kind, lastSet, current, moved)
	d.sink.Submit(model.OrderEvent{
		Kind:      model.EventLineDrag,
		Line:      kind,
		LinePrice: current,
		At:        time.Now(),
	})
}

// lineLabel formats the dollar readout, e.g. "SL -$120 (2x)".
func lineLabel(kind model.LineKind, entry, price decimal.Decimal, qty int64, spec instrument.Spec) string {
	if qty <= 0 {
		qty = 1
	}
	dollars := calc.DollarsFromPriceDelta(entry, price, qty, spec.TickValue, spec.TickSize)
	sign := "+"
	if dollars.IsNegative() {
		sign = "-"
	}
	name := "TP"
	if kind == model.LineSL {
		name = "SL"
	}
	return fmt.Sprintf("%s %s$%s (%dx)", name, sign, dollars.Abs().Round(0), qty)
}
