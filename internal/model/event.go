package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind tags the normalized event variants the reconciler consumes.
// All ingestion sources and timers feed the same channel so that every
// state transition happens on one goroutine.
type EventKind string

const (
	EventCreate        EventKind = "create"
	EventModify        EventKind = "modify"
	EventCancel        EventKind = "cancel"
	EventFill          EventKind = "fill"
	EventLineDrag      EventKind = "line_drag"
	EventConfigChanged EventKind = "config_changed"
)

// Source ranks where a signal came from. Network-sourced signals take
// precedence over DOM-sourced ones when they conflict in the same tick.
type Source string

const (
	SourceNetwork Source = "network"
	SourceDOM     Source = "dom"
	SourceStore   Source = "store"
)

// OrderEvent is the normalized order-update event. Optional fields use
// pointers (or zero values for quantity/side) so "absent" is distinguishable
// from a legitimate zero: ingestion sources only set what they observed.
type OrderEvent struct {
	Kind   EventKind
	Source Source

	OrderID   string
	AccountID string
	Symbol    string
	Price     *decimal.Decimal
	Quantity  int64 // 0 = not reported
	Side      Side  // "" = not reported
	OrderType OrderType

	// Line drag events only.
	Line      LineKind
	LinePrice decimal.Decimal

	// Config change events only.
	Config *RiskConfig

	At time.Time
}

// DedupKey identifies a (action, price, symbol) triple for the repeat-signal
// suppression window. Events without a price dedup on the empty price.
func (e *OrderEvent) DedupKey() string {
	p := ""
	if e.Price != nil {
		p = e.Price.String()
	}
	return string(e.Kind) + "|" + p + "|" + e.Symbol
}
