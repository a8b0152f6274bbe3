package gateway

import (
	"testing"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/ingest/network"
	"sltp-overlay/internal/model"
)

type collector struct{ events []model.OrderEvent }

func (c *collector) Submit(ev model.OrderEvent) { c.events = append(c.events, ev) }

type snapSink struct{ snaps []model.DOMSnapshot }

func (s *snapSink) Set(snap model.DOMSnapshot) { s.snaps = append(s.snaps, snap) }

type tokenSink struct{ token string }

func (t *tokenSink) SetToken(tok string) { t.token = tok }

type staticView struct{ v model.BracketView }

func (s *staticView) BracketView() model.BracketView { return s.v }

func newTestHub() (*Hub, *collector, *snapSink, *tokenSink) {
	sink := &collector{}
	snaps := &snapSink{}
	tokens := &tokenSink{}
	h := NewHub(network.NewExtractor(), sink, snaps, tokens, &staticView{}, nil)
	return h, sink, snaps, tokens
}

func testClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, 4)}
}

func TestDispatch_CapturedCall(t *testing.T) {
	h, sink, _, _ := newTestHub()

	msg := []byte(`{
		"type": "captured_call",
		"call": {
			"method": "POST",
			"url": "https://api.example.com/Order/placeOrder",
			"body": {"symbolId":"F.US.MNQ","price":21450.0,"positionSize":2,"type":1,"accountId":8841}
		}
	}`)
	h.dispatch(testClient(h), msg)

	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Kind != model.EventCreate || ev.Source != model.SourceNetwork {
		t.Errorf("kind=%s source=%s", ev.Kind, ev.Source)
	}
	if ev.Symbol != "MNQ" || ev.Side != model.SideLong {
		t.Errorf("symbol=%q side=%q", ev.Symbol, ev.Side)
	}
}

func TestDispatch_UnrelatedCallIgnored(t *testing.T) {
	h, sink, _, _ := newTestHub()

	msg := []byte(`{
		"type": "captured_call",
		"call": {"method": "GET", "url": "https://api.example.com/Chart/candles", "body": null}
	}`)
	h.dispatch(testClient(h), msg)

	if len(sink.events) != 0 {
		t.Fatalf("got %d events for a non-order call, want 0", len(sink.events))
	}
}

func TestDispatch_DOMSnapshot(t *testing.T) {
	h, _, snaps, _ := newTestHub()

	msg := []byte(`{
		"type": "dom_snapshot",
		"snapshot": {"symbol": "MNQZ25", "price": 21450.25, "quantity": 3, "side": "sell"}
	}`)
	h.dispatch(testClient(h), msg)

	if len(snaps.snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps.snaps))
	}
	snap := snaps.snaps[0]
	if snap.Symbol != "MNQZ25" || snap.Quantity != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Side != model.SideShort {
		t.Errorf("side = %q, want short", snap.Side)
	}
	if snap.Price == nil || !snap.Price.Equal(decimal.RequireFromString("21450.25")) {
		t.Errorf("price = %v", snap.Price)
	}
}

func TestDispatch_ConfigUpdate(t *testing.T) {
	h, sink, _, _ := newTestHub()

	msg := []byte(`{
		"type": "config_update",
		"config": {"risk_mode": "fixed", "risk_fixed": "750", "account_size": "50000",
			"default_sl": "100", "default_tp": "200", "tp_ratio": "2", "use_ratio": true}
	}`)
	h.dispatch(testClient(h), msg)

	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Kind != model.EventConfigChanged || ev.Config == nil {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Config.RiskMode != model.RiskFixed {
		t.Errorf("risk mode = %s", ev.Config.RiskMode)
	}
	if !ev.Config.RiskFixed.Equal(decimal.NewFromInt(750)) {
		t.Errorf("risk fixed = %s", ev.Config.RiskFixed)
	}
}

func TestDispatch_TokenUpdate(t *testing.T) {
	h, _, _, tokens := newTestHub()

	h.dispatch(testClient(h), []byte(`{"type": "token_update", "token": "abc123"}`))
	if tokens.token != "abc123" {
		t.Errorf("token = %q", tokens.token)
	}
}

func TestDispatch_Garbage(t *testing.T) {
	h, sink, snaps, _ := newTestHub()

	h.dispatch(testClient(h), []byte(`not json at all`))
	h.dispatch(testClient(h), []byte(`{"type": "mystery"}`))
	h.dispatch(testClient(h), []byte(`{"type": "captured_call"}`))

	if len(sink.events) != 0 || len(snaps.snaps) != 0 {
		t.Fatal("garbage must not produce events")
	}
}
