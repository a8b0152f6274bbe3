// Package reconciler merges order signals from the network extractor, the
// DOM scanner, and persisted storage into one authoritative order record,
// renders the SL/TP bracket on the chart, and keeps storage and the platform
// in sync. It is the single owner of the order record and line state: every
// mutation happens on the Run goroutine, fed by one event channel.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/calc"
	"sltp-overlay/internal/instrument"
	"sltp-overlay/internal/metrics"
	"sltp-overlay/internal/model"
	"sltp-overlay/internal/notify"
)

const (
	// DefaultDedupWindow suppresses repeat (action, price, symbol) signals,
	// matching the original 2s window for retried network calls.
	DefaultDedupWindow = 2 * time.Second

	// DefaultWatchdogInterval is how often the chart surface is probed.
	DefaultWatchdogInterval = 2 * time.Second

	// DefaultDebounce coalesces drag-triggered persist and sync calls.
	DefaultDebounce = 900 * time.Millisecond
)

// Config carries the reconciler's timing and policy knobs.
type Config struct {
	DedupWindow      time.Duration
	WatchdogInterval time.Duration
	Debounce         time.Duration

	// DOMCreatesOrder allows a DOM-only symbol+price reading to establish an
	// active order without a network-confirmed create. Off by default: DOM
	// readings then only refine an order the network already confirmed.
	DOMCreatesOrder bool

	// AutoApply is forwarded on bracket-update calls.
	AutoApply bool
}

func (c *Config) fillDefaults() {
	if c.DedupWindow <= 0 {
		c.DedupWindow = DefaultDedupWindow
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
}

// Deps are the reconciler's injected collaborators. Journal, Brackets and
// Metrics may be nil; the corresponding side effects are skipped.
type Deps struct {
	Chart    model.ChartSurface
	Store    model.StateStore
	Journal  model.OrderJournal
	Brackets model.BracketUpdater
	Metrics  *metrics.Metrics
	Notify   notify.Notifier
}

// Reconciler is the order-state machine.
type Reconciler struct {
	cfg  Config
	deps Deps
	risk model.RiskConfig

	events chan model.OrderEvent
	now    func() time.Time
	ctx    context.Context

	// State below is touched only by the Run goroutine (or by tests calling
	// the handlers directly).
	order           *model.OrderRecord
	lines           model.LineState
	sideFromNetwork bool
	chartUp         bool
	pendingRestore  *model.StoredState
	dedup           map[string]time.Time
	dragHold        map[model.LineKind]time.Time

	persistTimer *time.Timer
	syncTimer    *time.Timer

	// view is the published read-only snapshot for the drag detector.
	viewMu sync.RWMutex
	view   model.BracketView
}

// New creates a Reconciler with the given risk configuration.
func New(cfg Config, risk model.RiskConfig, deps Deps) *Reconciler {
	cfg.fillDefaults()
	r := &Reconciler{
		cfg:      cfg,
		deps:     deps,
		risk:     risk,
		events:   make(chan model.OrderEvent, 64),
		now:      time.Now,
		ctx:      context.Background(),
		dedup:    make(map[string]time.Time),
		dragHold: make(map[model.LineKind]time.Time),
	}
	r.persistTimer = newStoppedTimer()
	r.syncTimer = newStoppedTimer()
	return r
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

// Events returns the channel ingestion sources submit normalized events to.
func (r *Reconciler) Events() chan<- model.OrderEvent { return r.events }

// Submit queues one event, dropping it if the buffer is full. Ingestion
// sources are advisory; losing one reading under backpressure is preferable
// to blocking the gateway.
func (r *Reconciler) Submit(ev model.OrderEvent) {
	select {
	case r.events <- ev:
	default:
		log.Printf("[reconciler] event buffer full, dropping %s from %s", ev.Kind, ev.Source)
	}
}

// BracketView implements model.BracketViewer for the drag detector.
func (r *Reconciler) BracketView() model.BracketView {
	r.viewMu.RLock()
	defer r.viewMu.RUnlock()
	return r.view
}

func (r *Reconciler) publishView() {
	v := model.BracketView{}
	if r.order.Live() && r.lines.Rendered() {
		v = model.BracketView{
			Rendered: true,
			Symbol:   r.order.Symbol,
			Entry:    r.order.EntryPrice,
			Quantity: r.order.Quantity,
			SLLineID: r.lines.SLLineID,
			TPLineID: r.lines.TPLineID,
			SLPrice:  r.lines.SLPrice,
			TPPrice:  r.lines.TPPrice,
		}
	}
	r.viewMu.Lock()
	r.view = v
	r.viewMu.Unlock()
}

// Run consumes events and timers until ctx is cancelled. All state
// transitions happen here.
func (r *Reconciler) Run(ctx context.Context) {
	r.ctx = ctx
	r.chartUp = r.deps.Chart.Available()
	r.setGauges()
	r.attemptRestore()

	watchdog := time.NewTicker(r.cfg.WatchdogInterval)
	defer watchdog.Stop()

	log.Printf("[reconciler] running (dedup=%s debounce=%s domCreates=%v)",
		r.cfg.DedupWindow, r.cfg.Debounce, r.cfg.DOMCreatesOrder)

	for {
		select {
		case <-ctx.Done():
			r.persistTimer.Stop()
			r.syncTimer.Stop()
			return
		case ev := <-r.events:
			r.safeTick(func() { r.handleEvent(ev) })
		case <-watchdog.C:
			r.safeTick(r.watchdogTick)
		case <-r.persistTimer.C:
			r.safeTick(r.persistNow)
		case <-r.syncTimer.C:
			r.safeTick(r.syncNow)
		}
	}
}

// safeTick keeps a single bad reading from killing the loop.
func (r *Reconciler) safeTick(f func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[reconciler] tick panic recovered: %v", rec)
		}
	}()
	f()
}

func (r *Reconciler) handleEvent(ev model.OrderEvent) {
	if ev.At.IsZero() {
		ev.At = r.now()
	}
	r.countEvent(ev)

	switch ev.Kind {
	case model.EventCreate, model.EventModify, model.EventCancel:
		if r.isDuplicate(&ev) {
			if r.deps.Metrics != nil {
				r.deps.Metrics.DedupSkips.Inc()
			}
			return
		}
	}

	switch ev.Kind {
	case model.EventCreate:
		r.handleCreate(ev)
	case model.EventModify:
		r.handleModify(ev)
	case model.EventCancel:
		r.handleCancel(ev)
	case model.EventFill:
		r.handleFill(ev)
	case model.EventLineDrag:
		r.handleDrag(ev)
	case model.EventConfigChanged:
		r.handleConfigChanged(ev)
	default:
		log.Printf("[reconciler] unknown event kind %q ignored", ev.Kind)
	}
	r.setGauges()
	r.publishView()
}

// isDuplicate reports and records a repeat (action, price, symbol) signal
// inside the dedup window. Retried network calls and overlapping DOM polls
// both hit this.
func (r *Reconciler) isDuplicate(ev *model.OrderEvent) bool {
	key := ev.DedupKey()
	if last, ok := r.dedup[key]; ok && ev.At.Sub(last) < r.cfg.DedupWindow {
		return true
	}
	r.dedup[key] = ev.At
	if len(r.dedup) > 256 {
		cutoff := ev.At.Add(-r.cfg.DedupWindow)
		for k, t := range r.dedup {
			if t.Before(cutoff) {
				delete(r.dedup, k)
			}
		}
	}
	return false
}

func (r *Reconciler) handleCreate(ev model.OrderEvent) {
	// Market orders execute immediately. There is no bracket to show, and
	// any lines from a prior order are stale the moment the market order
	// hits. Clear everything regardless of prior state.
	if ev.OrderType == model.OrderMarket {
		log.Printf("[reconciler] market order, clearing tracked state")
		r.clearAll(false)
		return
	}
	if ev.Source == model.SourceDOM && !r.cfg.DOMCreatesOrder {
		log.Printf("[reconciler] ignoring DOM-only create for %s (policy)", ev.Symbol)
		return
	}
	if ev.Price == nil {
		log.Printf("[reconciler] create without price ignored (%s)", ev.Symbol)
		return
	}

	side := ev.Side
	if side == "" {
		side = model.SideLong
	}
	now := r.now()
	r.order = &model.OrderRecord{
		OrderID:    ev.OrderID,
		AccountID:  ev.AccountID,
		Symbol:     instrument.Root(ev.Symbol),
		Side:       side,
		OrderType:  ev.OrderType,
		EntryPrice: *ev.Price,
		Quantity:   ev.Quantity,
		Status:     model.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r.order.OrderType == "" {
		r.order.OrderType = model.OrderLimit
	}
	r.sideFromNetwork = ev.Source == model.SourceNetwork && ev.Side != ""

	log.Printf("[reconciler] tracking %s %s %s @ %s", r.order.Side, r.order.OrderType,
		r.order.Symbol, r.order.EntryPrice)
	r.recomputeAndRender()
	r.journal("created")
	r.schedulePersist()
}

func (r *Reconciler) handleModify(ev model.OrderEvent) {
	if !r.order.Live() {
		// A modify can establish an order only under the DOM-create policy,
		// and only with enough fields to track one.
		if ev.Source == model.SourceDOM && r.cfg.DOMCreatesOrder && ev.Symbol != "" && ev.Price != nil {
			ev.Kind = model.EventCreate
			r.handleCreate(ev)
			return
		}
		log.Printf("[reconciler] modify with no tracked order ignored (%s)", ev.Source)
		return
	}

	if ev.OrderType == model.OrderMarket {
		r.clearAll(false)
		return
	}

	changed := false
	if ev.Symbol != "" {
		root := instrument.Root(ev.Symbol)
		if root != r.order.Symbol {
			r.order.Symbol = root
			changed = true
		}
	}
	if ev.Price != nil && !ev.Price.Equal(r.order.EntryPrice) {
		r.order.EntryPrice = *ev.Price
		changed = true
	}
	if ev.Quantity > 0 && ev.Quantity != r.order.Quantity {
		r.order.Quantity = ev.Quantity
		changed = true
	}
	// DOM side reports are advisory. Once the network established a side,
	// hover states on the buy/sell buttons must not flip it.
	if ev.Side != "" && ev.Side != r.order.Side {
		if ev.Source == model.SourceNetwork {
			r.order.Side = ev.Side
			r.sideFromNetwork = true
			changed = true
		} else if !r.sideFromNetwork {
			r.order.Side = ev.Side
			changed = true
		} else {
			log.Printf("[reconciler] DOM side %s ignored, network says %s", ev.Side, r.order.Side)
		}
	}
	if !changed {
		return
	}

	r.order.UpdatedAt = r.now()
	r.recomputeAndRender()
	r.journal("modified")
	r.schedulePersist()
}

func (r *Reconciler) handleCancel(ev model.OrderEvent) {
	if !r.order.Live() {
		return
	}
	if ev.OrderID != "" && r.order.OrderID != "" && ev.OrderID != r.order.OrderID {
		log.Printf("[reconciler] cancel for unknown order %s ignored", ev.OrderID)
		return
	}
	log.Printf("[reconciler] order %s cancelled", r.order.OrderID)
	r.order.Status = model.StatusCancelled
	r.journal("cancelled")
	r.clearAll(false)
}

func (r *Reconciler) handleFill(ev model.OrderEvent) {
	if !r.order.Live() {
		return
	}
	log.Printf("[reconciler] order %s filled", r.order.OrderID)
	r.order.Status = model.StatusFilled
	r.journal("filled")
	r.clearAll(false)
}

func (r *Reconciler) handleDrag(ev model.OrderEvent) {
	if !r.order.Live() || !r.lines.Rendered() {
		return
	}
	spec, err := instrument.Lookup(r.order.Symbol)
	if err != nil {
		log.Printf("[reconciler] drag on %s: %v", r.order.Symbol, err)
		return
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.DragsDetected.WithLabelValues(string(ev.Line)).Inc()
	}

	price := calc.RoundToTick(ev.LinePrice, spec.TickSize)
	tickValue := spec.TickValue
	dollars := calc.DollarsFromPriceDelta(r.order.EntryPrice, price, r.order.Quantity, tickValue, spec.TickSize)

	switch ev.Line {
	case model.LineSL:
		r.order.SLPrice = price
		r.order.SLDollars = dollars.Abs()
		r.lines.SLPrice = price
	case model.LineTP:
		r.order.TPPrice = price
		r.order.TPDollars = dollars.Abs()
		r.lines.TPPrice = price
	default:
		return
	}
	r.order.UpdatedAt = r.now()

	// Hold off redrawing the dragged line while the user may still be
	// moving it. The debounce window doubles as the hold window.
	r.dragHold[ev.Line] = r.now().Add(r.cfg.Debounce)

	log.Printf("[reconciler] %s line dragged to %s (%s)", ev.Line, price, dollars)
	r.journal("dragged")
	r.schedulePersist()
	r.scheduleSync()
}

func (r *Reconciler) handleConfigChanged(ev model.OrderEvent) {
	if ev.Config == nil {
		return
	}
	r.risk = *ev.Config
	log.Printf("[reconciler] risk config replaced (mode=%s sl=%s ratio=%s)",
		r.risk.RiskMode, r.risk.DefaultSL, r.risk.TPRatio)
	if r.order.Live() {
		r.order.UpdatedAt = r.now()
		r.recomputeAndRender()
		r.schedulePersist()
	}
}

// recomputeAndRender derives the bracket from the current record and config,
// then redraws. On UnknownInstrument the order stays tracked but un-rendered;
// on a calculation error the prior rendered state is left untouched.
func (r *Reconciler) recomputeAndRender() {
	spec, err := instrument.Lookup(r.order.Symbol)
	if errors.Is(err, instrument.ErrUnknownInstrument) {
		log.Printf("[reconciler] unknown instrument %q, skipping render", r.order.Symbol)
		return
	}
	if err != nil {
		log.Printf("[reconciler] instrument lookup: %v", err)
		return
	}

	res, err := calc.Evaluate(calc.Inputs{
		RiskMode:    r.risk.RiskMode,
		RiskAmount:  r.risk.RiskAmount(),
		AccountSize: r.risk.AccountSize,
		EntryPrice:  r.order.EntryPrice,
		SLDollars:   r.risk.DefaultSL,
		TPDollars:   r.risk.DefaultTP,
		TPRatio:     r.risk.TPRatio,
		UseRatio:    r.risk.UseRatio,
		TickValue:   spec.TickValue,
		TickSize:    spec.TickSize,
		Side:        r.order.Side,
	})
	if err != nil {
		log.Printf("[reconciler] recompute rejected: %v", err)
		return
	}

	r.order.SLPrice = res.SLPrice
	r.order.TPPrice = res.TPPrice
	r.order.SLDollars = res.SLDollars
	r.order.TPDollars = res.TPDollars
	if r.order.Quantity <= 0 {
		r.order.Quantity = res.Contracts
	}

	r.renderLines(spec, r.order.SLPrice, r.order.TPPrice)
}

// renderLines draws both bracket lines at the given prices, priming the line
// state before returning so the drag poll never mistakes these writes for a
// user drag. Lines under an active drag hold are left alone.
func (r *Reconciler) renderLines(spec instrument.Spec, slPrice, tpPrice decimal.Decimal) {
	if !r.chartUp {
		log.Printf("[reconciler] chart unavailable, render deferred")
		return
	}

	if !r.dragHeld(model.LineSL) {
		if id, err := r.renderLine(r.lines.SLLineID, model.LineSL, slPrice, spec); err == nil {
			r.lines.SLLineID = id
			r.lines.SLPrice = slPrice
		}
	}
	if !r.dragHeld(model.LineTP) {
		if id, err := r.renderLine(r.lines.TPLineID, model.LineTP, tpPrice, spec); err == nil {
			r.lines.TPLineID = id
			r.lines.TPPrice = tpPrice
		}
	}
	r.publishView()
}

func (r *Reconciler) renderLine(old model.LineID, kind model.LineKind, price decimal.Decimal, spec instrument.Spec) (model.LineID, error) {
	if old != "" {
		if err := r.deps.Chart.RemoveLine(old); err != nil {
			log.Printf("[reconciler] remove %s line: %v", kind, err)
		}
	}

	opts := model.LineOptions{Width: r.risk.LineWidth, Style: 2}
	if kind == model.LineSL {
		opts.Color = r.risk.SLColor
	} else {
		opts.Color = r.risk.TPColor
	}
	if r.risk.ShowLabels {
		opts.Label = r.lineLabel(kind, price, spec)
	}

	f, _ := price.Float64()
	id, err := r.deps.Chart.CreateLine(f, opts)
	if err != nil {
		log.Printf("[reconciler] create %s line: %v", kind, err)
		if r.deps.Metrics != nil {
			r.deps.Metrics.RenderFailures.Inc()
		}
		return "", err
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.Renders.Inc()
	}
	return id, nil
}

// lineLabel formats "SL -$100 (2x)" / "TP +$200 (2x)" for the given level.
func (r *Reconciler) lineLabel(kind model.LineKind, price decimal.Decimal, spec instrument.Spec) string {
	qty := r.order.Quantity
	if qty <= 0 {
		qty = 1
	}
	dollars := calc.DollarsFromPriceDelta(r.order.EntryPrice, price, qty, spec.TickValue, spec.TickSize)
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

func (r *Reconciler) dragHeld(kind model.LineKind) bool {
	until, ok := r.dragHold[kind]
	if !ok {
		return false
	}
	if r.now().Before(until) {
		return true
	}
	delete(r.dragHold, kind)
	return false
}

// clearAll removes both lines, forgets the live record, and deletes the
// persisted envelope. keepStore leaves storage intact (used when the chart
// surface dies but the order is still real).
func (r *Reconciler) clearAll(keepStore bool) {
	r.removeLines()
	r.order = nil
	r.sideFromNetwork = false
	r.persistTimer.Stop()
	r.syncTimer.Stop()
	if !keepStore {
		if err := r.deps.Store.Remove(r.ctx); err != nil {
			log.Printf("[reconciler] store remove: %v", err)
		}
	}
	r.publishView()
}

func (r *Reconciler) removeLines() {
	if r.chartUp {
		if r.lines.SLLineID != "" {
			if err := r.deps.Chart.RemoveLine(r.lines.SLLineID); err != nil {
				log.Printf("[reconciler] remove SL line: %v", err)
			}
		}
		if r.lines.TPLineID != "" {
			if err := r.deps.Chart.RemoveLine(r.lines.TPLineID); err != nil {
				log.Printf("[reconciler] remove TP line: %v", err)
			}
		}
	}
	r.lines = model.LineState{}
	for k := range r.dragHold {
		delete(r.dragHold, k)
	}
}

// ── Persistence and sync ──

func (r *Reconciler) schedulePersist() {
	resetTimer(r.persistTimer, r.cfg.Debounce)
}

func (r *Reconciler) scheduleSync() {
	resetTimer(r.syncTimer, r.cfg.Debounce)
}

// resetTimer implements single-slot coalescing: a re-trigger inside the
// window restarts it instead of queuing a second firing.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (r *Reconciler) persistNow() {
	if !r.order.Live() {
		return
	}
	st := &model.StoredState{Order: *r.order, Lines: r.lines}
	if err := r.deps.Store.Save(r.ctx, st); err != nil {
		log.Printf("[reconciler] persist failed: %v", err)
	}
}

func (r *Reconciler) syncNow() {
	if !r.order.Live() || r.deps.Brackets == nil {
		return
	}
	if r.order.AccountID == "" {
		log.Printf("[reconciler] bracket sync skipped, no account id")
		return
	}
	risk := r.order.SLDollars.Round(0).IntPart()
	reward := r.order.TPDollars.Round(0).IntPart()
	err := r.deps.Brackets.UpdateBrackets(r.ctx, r.order.AccountID, risk, reward, r.cfg.AutoApply)
	if err != nil {
		// Local state stays authoritative. The next drag or recompute
		// naturally re-triggers sync.
		log.Printf("[reconciler] bracket sync failed: %v", err)
		if r.deps.Metrics != nil {
			r.deps.Metrics.BracketSyncs.WithLabelValues("failed").Inc()
		}
		r.alert(notify.AlertWarning, "bracket sync failed", err.Error())
		return
	}
	log.Printf("[reconciler] brackets synced (risk=%d reward=%d)", risk, reward)
	if r.deps.Metrics != nil {
		r.deps.Metrics.BracketSyncs.WithLabelValues("ok").Inc()
	}
}

// ── Restore ──

// attemptRestore loads persisted state on startup. The store discards stale
// or unreadable envelopes itself, so anything returned is usable. When the
// chart is not up yet, the envelope is parked and retried on watchdog ticks.
func (r *Reconciler) attemptRestore() {
	st, err := r.deps.Store.Load(r.ctx)
	if err != nil {
		log.Printf("[reconciler] restore load: %v", err)
		return
	}
	if st == nil {
		r.restoreOutcome("empty")
		return
	}
	if !r.chartUp {
		log.Printf("[reconciler] restore deferred, chart not available")
		r.pendingRestore = st
		r.restoreOutcome("deferred")
		return
	}
	r.performRestore(st)
}

// performRestore rebuilds the live record and redraws lines at the stored
// prices, not recomputed ones, so a user drag from before the reload
// survives it.
func (r *Reconciler) performRestore(st *model.StoredState) {
	order := st.Order
	if !order.Live() {
		r.restoreOutcome("empty")
		return
	}
	r.order = &order
	r.order.Status = model.StatusActive
	r.sideFromNetwork = true
	r.lines = model.LineState{}

	slPrice := st.Lines.SLPrice
	tpPrice := st.Lines.TPPrice
	if slPrice.IsZero() {
		slPrice = order.SLPrice
	}
	if tpPrice.IsZero() {
		tpPrice = order.TPPrice
	}

	spec, err := instrument.Lookup(order.Symbol)
	if err != nil {
		log.Printf("[reconciler] restore: %v", err)
		r.restoreOutcome("restored")
		return
	}
	r.renderLines(spec, slPrice, tpPrice)
	r.order.SLPrice = slPrice
	r.order.TPPrice = tpPrice

	log.Printf("[reconciler] restored %s %s (sl=%s tp=%s, saved %s ago)",
		order.Side, order.Symbol, slPrice, tpPrice, r.now().Sub(st.SavedAt).Round(time.Second))
	r.restoreOutcome("restored")
	r.setGauges()
	r.publishView()
}

func (r *Reconciler) restoreOutcome(outcome string) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.Restores.WithLabelValues(outcome).Inc()
	}
}

// ── Chart watchdog ──

// watchdogTick probes the chart surface. Host-page navigation tears the
// widget down and recreates it; old line IDs are dead the moment that
// happens, so on reacquisition everything is redrawn from the current
// record without waiting for a new ingestion signal.
func (r *Reconciler) watchdogTick() {
	avail := r.deps.Chart.Available()
	if avail == r.chartUp {
		if avail && r.pendingRestore != nil {
			st := r.pendingRestore
			r.pendingRestore = nil
			r.performRestore(st)
		}
		return
	}
	r.chartUp = avail
	r.setGauges()

	if !avail {
		log.Printf("[reconciler] chart surface lost")
		if r.order.Live() {
			r.alert(notify.AlertWarning, "chart surface lost",
				"bracket lines will be redrawn when the widget comes back")
		}
		r.lines = model.LineState{}
		r.publishView()
		return
	}

	log.Printf("[reconciler] chart surface reacquired")
	if r.deps.Metrics != nil {
		r.deps.Metrics.ChartReacquire.Inc()
	}
	if st := r.pendingRestore; st != nil {
		r.pendingRestore = nil
		r.performRestore(st)
		return
	}
	if r.order.Live() {
		spec, err := instrument.Lookup(r.order.Symbol)
		if err != nil {
			log.Printf("[reconciler] re-render: %v", err)
			return
		}
		r.renderLines(spec, r.order.SLPrice, r.order.TPPrice)
	}
}

func (r *Reconciler) setGauges() {
	if r.deps.Metrics == nil {
		return
	}
	if r.chartUp {
		r.deps.Metrics.ChartAvailable.Set(1)
	} else {
		r.deps.Metrics.ChartAvailable.Set(0)
	}
	if r.order.Live() {
		r.deps.Metrics.ActiveOrder.Set(1)
	} else {
		r.deps.Metrics.ActiveOrder.Set(0)
	}
}

func (r *Reconciler) countEvent(ev model.OrderEvent) {
	if r.deps.Metrics == nil {
		return
	}
	r.deps.Metrics.EventsIngested.WithLabelValues(string(ev.Source), string(ev.Kind)).Inc()
}

// alert fires a notification without blocking the event loop. The tracked
// order's identity is captured before the goroutine starts so the alert
// reflects the state that triggered it.
func (r *Reconciler) alert(level notify.AlertLevel, title, msg string) {
	if r.deps.Notify == nil {
		return
	}
	a := notify.Alert{Level: level, Title: title, Message: msg}
	if r.order.Live() {
		a.OrderID = r.order.OrderID
		a.Symbol = r.order.Symbol
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.deps.Notify.Send(ctx, a); err != nil {
			log.Printf("[reconciler] alert delivery: %v", err)
		}
	}()
}

func (r *Reconciler) journal(action string) {
	if r.deps.Journal == nil || r.order == nil {
		return
	}
	if err := r.deps.Journal.Append(r.ctx, action, r.order); err != nil {
		log.Printf("[reconciler] journal %s: %v", action, err)
	}
}
