package model

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ── Port Interfaces ──
// These decouple the reconciler and drag detector from the concrete chart
// widget, storage backends, and platform API client.

// LineID is the chart widget's handle for a rendered horizontal line.
type LineID string

// LineOptions carries the rendering preferences for a bracket line. The
// widget accepts arbitrary floats but callers must pass tick-aligned prices.
type LineOptions struct {
	Color string
	Width int
	Style int // 0=solid, 1=dotted, 2=dashed
	Label string
}

// ChartSurface is the chart-widget capability: create, move, remove and
// inspect horizontal price lines. The host page can tear the widget down at
// any time, so every call may fail; Available is cheap and safe to poll.
type ChartSurface interface {
	// Available reports whether the widget currently exists. A false return
	// after lines were rendered means the surface was lost and the line IDs
	// are dead.
	Available() bool

	CreateLine(price float64, opts LineOptions) (LineID, error)
	RemoveLine(id LineID) error

	// LinePrice returns the line's current price, which differs from the
	// last programmatically set price after a user drag.
	LinePrice(id LineID) (float64, error)

	SetLineLabel(id LineID, text string) error
}

// StoredState is the persisted envelope: the order, its rendered-line state,
// and when it was saved. Restore uses the stored line prices verbatim so a
// prior user drag survives a page reload.
type StoredState struct {
	Order   OrderRecord `json:"order"`
	Lines   LineState   `json:"lines"`
	SavedAt time.Time   `json:"saved_at"`
}

// StateStore persists the StoredState envelope under a single key.
// Load returns (nil, nil) when nothing usable is stored.
type StateStore interface {
	Save(ctx context.Context, st *StoredState) error
	Load(ctx context.Context) (*StoredState, error)
	Remove(ctx context.Context) error
}

// OrderJournal records order lifecycle transitions for post-mortem
// debugging. Journal rows are never read back by the engine.
type OrderJournal interface {
	Append(ctx context.Context, action string, rec *OrderRecord) error
	Close() error
}

// BracketUpdater pushes settled SL/TP dollar values back to the platform.
// Implementations must not retry on failure; local state stays authoritative
// and the next drag or recompute naturally re-triggers sync.
type BracketUpdater interface {
	UpdateBrackets(ctx context.Context, accountID string, riskDollars, rewardDollars int64, autoApply bool) error
}

// BracketView is a read-only snapshot of the rendered bracket, published by
// the state owner for the drag-detection poll. SLPrice/TPPrice are the last
// programmatically set prices; the detector compares live line prices against
// them to spot user drags.
type BracketView struct {
	Rendered bool
	Symbol   string
	Entry    decimal.Decimal
	Quantity int64
	SLLineID LineID
	TPLineID LineID
	SLPrice  decimal.Decimal
	TPPrice  decimal.Decimal
}

// BracketViewer supplies the current BracketView. Implementations must be
// safe to call from a goroutine other than the state owner's.
type BracketViewer interface {
	BracketView() BracketView
}

// DOMSnapshot is a best-effort reading of the platform's order-entry fields.
// Side is only set when the scraper found a definitive buy/sell indication;
// hover states must leave it empty.
type DOMSnapshot struct {
	Symbol   string
	Price    *decimal.Decimal
	Quantity int64
	Side     Side
}

// DOMSnapshotProvider supplies the latest scraped order-entry fields.
type DOMSnapshotProvider interface {
	Snapshot() DOMSnapshot
}
