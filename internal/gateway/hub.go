// Package gateway is the websocket server the browser companion connects
// to. The companion forwards captured platform calls, scraped DOM snapshots,
// the session token, and config saves; the hub normalizes each and routes it
// to the right consumer. One browser session means one client in practice,
// but the hub tolerates several (e.g. a reconnect racing the old socket).
package gateway

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"sltp-overlay/config"
	"sltp-overlay/internal/ingest/network"
	"sltp-overlay/internal/model"
)

// Submitter accepts normalized events. Satisfied by the reconciler.
type Submitter interface {
	Submit(model.OrderEvent)
}

// SnapshotSink receives scraped order-entry snapshots for the DOM scanner.
type SnapshotSink interface {
	Set(model.DOMSnapshot)
}

// TokenSink receives platform session tokens for outbound API calls.
type TokenSink interface {
	SetToken(string)
}

// Hub manages companion connections and dispatches their envelopes.
type Hub struct {
	extractor *network.Extractor
	sink      Submitter
	snapshots SnapshotSink
	tokens    TokenSink
	viewer    model.BracketViewer
	chart     *RemoteChart

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub wires the hub to its consumers. tokens and chart may be nil when
// no outbound client or remote widget is configured.
func NewHub(extractor *network.Extractor, sink Submitter, snapshots SnapshotSink, tokens TokenSink, viewer model.BracketViewer, chart *RemoteChart) *Hub {
	h := &Hub{
		extractor: extractor,
		sink:      sink,
		snapshots: snapshots,
		tokens:    tokens,
		viewer:    viewer,
		chart:     chart,
		clients:   make(map[*Client]bool),
	}
	if chart != nil {
		chart.hub = h
	}
	return h
}

// sendToCompanion pushes a message to one connected companion. Returns
// false when none is connected or its send buffer is full.
func (h *Hub) sendToCompanion(msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
			return true
		default:
		}
	}
	return false
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// ClientCount returns the number of connected companions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// envelope is the companion wire format. Exactly one payload field is set
// per message, selected by Type.
type envelope struct {
	Type string `json:"type"`

	Call      *network.CapturedCall `json:"call,omitempty"`      // captured_call
	Snapshot  *snapshotPayload      `json:"snapshot,omitempty"`  // dom_snapshot
	Config    *model.RiskConfig     `json:"config,omitempty"`    // config_update
	Token     string                `json:"token,omitempty"`     // token_update
	Result    *chartResult          `json:"result,omitempty"`    // chart_result
	Available *bool                 `json:"available,omitempty"` // chart_status
}

type snapshotPayload struct {
	Symbol   string           `json:"symbol"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int64            `json:"quantity"`
	Side     string           `json:"side"`
}

// dispatch routes one companion message. Bad messages are logged and
// dropped; the companion scrapes a hostile page and will send garbage.
func (h *Hub) dispatch(c *Client, msg []byte) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("[gateway] unreadable envelope: %v", err)
		return
	}

	switch env.Type {
	case "captured_call":
		h.handleCapturedCall(env.Call)
	case "dom_snapshot":
		h.handleSnapshot(env.Snapshot)
	case "config_update":
		h.handleConfigUpdate(env.Config)
	case "token_update":
		if h.tokens != nil && env.Token != "" {
			h.tokens.SetToken(env.Token)
			log.Printf("[gateway] session token refreshed")
		}
	case "chart_result":
		if h.chart != nil && env.Result != nil {
			h.chart.resolve(*env.Result)
		}
	case "chart_status":
		if h.chart != nil && env.Available != nil {
			h.chart.setAvailable(*env.Available)
		}
	case "state_request":
		c.sendState(h.viewer.BracketView())
	default:
		log.Printf("[gateway] unknown envelope type %q", env.Type)
	}
}

func (h *Hub) handleCapturedCall(call *network.CapturedCall) {
	if call == nil {
		return
	}
	if !network.IsOrderEndpoint(call.URL) {
		return
	}
	ev, err := h.extractor.Extract(*call)
	if err != nil {
		log.Printf("[gateway] extract %s %s: %v", call.Method, call.URL, err)
		return
	}
	if ev == nil {
		return
	}
	h.sink.Submit(*ev)
}

func (h *Hub) handleSnapshot(snap *snapshotPayload) {
	if snap == nil {
		return
	}
	s := model.DOMSnapshot{
		Symbol:   snap.Symbol,
		Price:    snap.Price,
		Quantity: snap.Quantity,
	}
	switch snap.Side {
	case "buy", "long":
		s.Side = model.SideLong
	case "sell", "short":
		s.Side = model.SideShort
	}
	h.snapshots.Set(s)
}

func (h *Hub) handleConfigUpdate(cfg *model.RiskConfig) {
	if cfg == nil {
		return
	}
	normalized := config.NormalizeRisk(*cfg)
	h.sink.Submit(model.OrderEvent{
		Kind:   model.EventConfigChanged,
		Source: model.SourceNetwork,
		Config: &normalized,
	})
	log.Printf("[gateway] config update forwarded (mode=%s)", normalized.RiskMode)
}
