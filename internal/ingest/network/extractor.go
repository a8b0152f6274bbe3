// Package network turns captured platform API calls into normalized order
// events. The browser companion forwards every intercepted fetch/XHR touching
// an order endpoint; this is the highest-confidence ingestion source because
// it sees the exact data the platform was sent.
package network

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

// CapturedCall is one intercepted request as forwarded by the companion.
type CapturedCall struct {
	Method string          `json:"method"`
	URL    string          `json:"url"`
	Body   json.RawMessage `json:"body,omitempty"`
}

var (
	// PATCH /Order/edit/stopLimit/{id}?limitPrice=25697.5 reprices a resting
	// limit order; the stopPrice variant reprices a stop.
	editLimitRe = regexp.MustCompile(`/Order/edit/stopLimit/(\d+)\?limitPrice=([\d.]+)`)
	editStopRe  = regexp.MustCompile(`/Order/edit/stopLimit/(\d+)\?stopPrice=([\d.]+)`)
	cancelRe    = regexp.MustCompile(`/Order/cancel/(\d+)`)
	symbolIDRe  = regexp.MustCompile(`F\.US\.([A-Z0-9]+)`)
)

// Generic order-endpoint patterns, used as a fallback when the platform URL
// shape changes.
var orderPatterns = []string{
	"/order", "/trade", "/submit", "/position", "/execution",
	"placeorder", "createorder", "modifyorder",
}

// orderPayload covers the platform's order body plus generic field-name
// fallbacks for payloads from other venues.
type orderPayload struct {
	SymbolID     string      `json:"symbolId"`
	Type         *int        `json:"type"` // 1=limit, 2=market, 4=stop
	LimitPrice   *float64    `json:"limitPrice"`
	StopPrice    *float64    `json:"stopPrice"`
	PositionSize *int64      `json:"positionSize"` // sign = side, abs = quantity
	AccountID    *int64      `json:"accountId"`
	OrderID      json.Number `json:"orderId"`
	Status       string      `json:"status"`

	// Generic fallbacks.
	Symbol     string   `json:"symbol"`
	Instrument string   `json:"instrument"`
	Contract   string   `json:"contract"`
	Price      *float64 `json:"price"`
	Limit      *float64 `json:"limit"`
	Quantity   *int64   `json:"quantity"`
	Size       *int64   `json:"size"`
	Qty        *int64   `json:"qty"`
	Side       string   `json:"side"`
	Direction  string   `json:"direction"`
}

// Extractor parses captured calls. Stateless; deduplication is the
// reconciler's job so that all suppression lives with the state owner.
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// IsOrderEndpoint reports whether the URL belongs to an order API.
func IsOrderEndpoint(url string) bool {
	if url == "" {
		return false
	}
	if strings.Contains(url, "/Order") {
		return true
	}
	lower := strings.ToLower(url)
	for _, p := range orderPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Extract converts a captured call into a normalized event. Returns
// (nil, nil) for calls that carry no order signal; parse failures on order
// endpoints are returned as errors so the gateway can log and move on.
func (x *Extractor) Extract(call CapturedCall) (*model.OrderEvent, error) {
	if !IsOrderEndpoint(call.URL) {
		return nil, nil
	}

	switch strings.ToUpper(call.Method) {
	case "POST":
		return x.extractCreate(call)
	case "PATCH":
		return x.extractModify(call)
	case "DELETE":
		return x.extractCancel(call)
	}
	return nil, nil
}

func (x *Extractor) extractCreate(call CapturedCall) (*model.OrderEvent, error) {
	if len(call.Body) == 0 {
		return nil, nil
	}
	var p orderPayload
	if err := json.Unmarshal(call.Body, &p); err != nil {
		return nil, fmt.Errorf("order body: %w", err)
	}

	// Execution notifications arrive on the same endpoints.
	if strings.EqualFold(p.Status, "filled") || strings.Contains(strings.ToLower(call.URL), "/execution") {
		ev := &model.OrderEvent{
			Kind:    model.EventFill,
			Source:  model.SourceNetwork,
			OrderID: p.OrderID.String(),
			At:      x.now(),
		}
		return ev, nil
	}

	ev := &model.OrderEvent{
		Kind:   model.EventCreate,
		Source: model.SourceNetwork,
		At:     x.now(),
	}

	if p.SymbolID != "" {
		// "F.US.MNQ" → "MNQ"
		if m := symbolIDRe.FindStringSubmatch(p.SymbolID); m != nil {
			ev.Symbol = m[1]
		} else {
			ev.Symbol = p.SymbolID
		}
	}

	if p.Type != nil {
		switch *p.Type {
		case 1:
			ev.OrderType = model.OrderLimit
		case 2:
			ev.OrderType = model.OrderMarket
		case 4:
			ev.OrderType = model.OrderStop
		default:
			log.Printf("[network] unrecognized order type %d in %s", *p.Type, call.URL)
		}
	}

	switch {
	case p.LimitPrice != nil:
		ev.Price = decPtr(*p.LimitPrice)
		if ev.OrderType == "" {
			ev.OrderType = model.OrderLimit
		}
	case p.StopPrice != nil:
		ev.Price = decPtr(*p.StopPrice)
		if ev.OrderType == "" {
			ev.OrderType = model.OrderStop
		}
	}

	// positionSize carries both side and quantity: positive = long,
	// negative = short, absolute value = contracts.
	if p.PositionSize != nil {
		size := *p.PositionSize
		if size >= 0 {
			ev.Side = model.SideLong
			ev.Quantity = size
		} else {
			ev.Side = model.SideShort
			ev.Quantity = -size
		}
	}

	if p.AccountID != nil {
		ev.AccountID = fmt.Sprintf("%d", *p.AccountID)
	}
	if id := p.OrderID.String(); id != "" {
		ev.OrderID = id
	}

	applyGenericFallbacks(ev, &p)

	if ev.Symbol == "" && ev.Price == nil && ev.Quantity == 0 && ev.Side == "" {
		return nil, nil // nothing extractable
	}
	return ev, nil
}

func (x *Extractor) extractModify(call CapturedCall) (*model.OrderEvent, error) {
	for _, re := range []*regexp.Regexp{editLimitRe, editStopRe} {
		m := re.FindStringSubmatch(call.URL)
		if m == nil {
			continue
		}
		price, err := decimal.NewFromString(m[2])
		if err != nil {
			return nil, fmt.Errorf("edit price %q: %w", m[2], err)
		}
		return &model.OrderEvent{
			Kind:    model.EventModify,
			Source:  model.SourceNetwork,
			OrderID: m[1],
			Price:   &price,
			At:      x.now(),
		}, nil
	}
	return nil, nil
}

func (x *Extractor) extractCancel(call CapturedCall) (*model.OrderEvent, error) {
	ev := &model.OrderEvent{
		Kind:   model.EventCancel,
		Source: model.SourceNetwork,
		At:     x.now(),
	}
	if m := cancelRe.FindStringSubmatch(call.URL); m != nil {
		ev.OrderID = m[1]
	}
	return ev, nil
}

func applyGenericFallbacks(ev *model.OrderEvent, p *orderPayload) {
	if ev.Symbol == "" {
		for _, s := range []string{p.Symbol, p.Instrument, p.Contract} {
			if s != "" {
				ev.Symbol = s
				break
			}
		}
	}
	if ev.Price == nil {
		for _, f := range []*float64{p.Price, p.Limit} {
			if f != nil {
				ev.Price = decPtr(*f)
				break
			}
		}
	}
	if ev.Quantity == 0 {
		for _, q := range []*int64{p.Quantity, p.Size, p.Qty} {
			if q != nil {
				ev.Quantity = *q
				break
			}
		}
	}
	if ev.Side == "" {
		for _, s := range []string{p.Side, p.Direction} {
			switch strings.ToLower(s) {
			case "buy", "long":
				ev.Side = model.SideLong
			case "sell", "short":
				ev.Side = model.SideShort
			}
			if ev.Side != "" {
				break
			}
		}
	}
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
