// Package model holds the core data types shared across the overlay engine:
// the tracked order record, its rendered-line state, risk configuration, the
// normalized ingestion event, and the port interfaces that decouple the
// reconciler from concrete storage, chart, and platform implementations.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of the tracked order.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// OrderType mirrors the platform's order types. Market orders execute
// immediately and never carry SL/TP lines.
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderStop   OrderType = "stop"
	OrderMarket OrderType = "market"
)

// OrderStatus is the lifecycle state of the tracked order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusActive    OrderStatus = "active"
	StatusCancelled OrderStatus = "cancelled"
	StatusFilled    OrderStatus = "filled"
)

// OrderRecord is the single tracked order and its derived bracket levels.
// It is mutated only by the reconciler.
type OrderRecord struct {
	OrderID    string          `json:"order_id"`
	AccountID  string          `json:"account_id,omitempty"`
	Symbol     string          `json:"symbol"` // base instrument root, e.g. "MNQ"
	Side       Side            `json:"side"`
	OrderType  OrderType       `json:"order_type"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Quantity   int64           `json:"quantity"`
	SLPrice    decimal.Decimal `json:"sl_price"`
	TPPrice    decimal.Decimal `json:"tp_price"`
	SLDollars  decimal.Decimal `json:"sl_dollars"`
	TPDollars  decimal.Decimal `json:"tp_dollars"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Live reports whether the record still represents a workable order.
func (o *OrderRecord) Live() bool {
	return o != nil && o.Status != StatusCancelled && o.Status != StatusFilled
}

// LineKind identifies one of the two bracket lines.
type LineKind string

const (
	LineSL LineKind = "sl"
	LineTP LineKind = "tp"
)

// LineState tracks the chart line IDs and the last price each line was
// programmatically set to. Comparing a polled line price against these
// values is how a user drag is told apart from the engine's own redraws.
type LineState struct {
	SLLineID LineID          `json:"sl_line_id"`
	TPLineID LineID          `json:"tp_line_id"`
	SLPrice  decimal.Decimal `json:"sl_price"`
	TPPrice  decimal.Decimal `json:"tp_price"`
}

// Rendered reports whether both bracket lines exist on the chart.
func (l *LineState) Rendered() bool {
	return l != nil && l.SLLineID != "" && l.TPLineID != ""
}
