// Package dom polls scraped order-entry fields as a low-confidence fallback
// ingestion source. The browser companion scrapes the host page and pushes
// snapshots; the scanner diffs consecutive readings and emits normalized
// events carrying only the fields that changed. Extraction heuristics live
// on the companion side and never leak past the snapshot type.
package dom

import (
	"context"
	"log"
	"sync"
	"time"

	"sltp-overlay/internal/model"
)

// DefaultInterval matches the original 500ms input poll.
const DefaultInterval = 500 * time.Millisecond

// Scanner diffs DOM snapshots into advisory order events.
type Scanner struct {
	interval time.Duration
	provider model.DOMSnapshotProvider

	mu   sync.Mutex
	last model.DOMSnapshot
}

// NewScanner creates a Scanner polling the given provider.
func NewScanner(provider model.DOMSnapshotProvider, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{interval: interval, provider: provider}
}

// Run polls until ctx is cancelled, sending change events to out.
// A panicking provider read is swallowed and logged; it must not kill the
// poll loop.
func (s *Scanner) Run(ctx context.Context, out chan<- model.OrderEvent) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ev := s.scanOnce(); ev != nil {
				select {
				case out <- *ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (s *Scanner) scanOnce() (ev *model.OrderEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dom] scan panic recovered: %v", r)
			ev = nil
		}
	}()

	snap := s.provider.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.OrderEvent{
		Kind:   model.EventModify,
		Source: model.SourceDOM,
		At:     time.Now(),
	}
	changed := false

	if snap.Symbol != "" && snap.Symbol != s.last.Symbol {
		s.last.Symbol = snap.Symbol
		out.Symbol = snap.Symbol
		changed = true
	}
	if snap.Price != nil && (s.last.Price == nil || !snap.Price.Equal(*s.last.Price)) {
		s.last.Price = snap.Price
		out.Price = snap.Price
		changed = true
	}
	if snap.Quantity > 0 && snap.Quantity != s.last.Quantity {
		s.last.Quantity = snap.Quantity
		out.Quantity = snap.Quantity
		changed = true
	}
	// Side is forwarded only on a definitive reading. Hover states on the
	// buy/sell buttons produce transient values, which is why the reconciler
	// additionally ignores DOM side once a network signal established one.
	if snap.Side != "" && snap.Side != s.last.Side {
		s.last.Side = snap.Side
		out.Side = snap.Side
		changed = true
	}

	if !changed {
		return nil
	}
	return &out
}

// LatestSnapshot holds the most recent snapshot pushed by the companion and
// satisfies model.DOMSnapshotProvider.
type LatestSnapshot struct {
	mu   sync.RWMutex
	snap model.DOMSnapshot
}

// Set replaces the current snapshot.
func (l *LatestSnapshot) Set(snap model.DOMSnapshot) {
	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
}

// Snapshot returns the current snapshot.
func (l *LatestSnapshot) Snapshot() model.DOMSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
