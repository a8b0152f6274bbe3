package dom

import (
	"testing"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestScanOnce_EmitsOnlyChangedFields(t *testing.T) {
	var latest LatestSnapshot
	s := NewScanner(&latest, 0)

	latest.Set(model.DOMSnapshot{Symbol: "MNQZ25", Price: dp("21450"), Quantity: 2})
	ev := s.scanOnce()
	if ev == nil {
		t.Fatal("expected event on first reading")
	}
	if ev.Source != model.SourceDOM || ev.Kind != model.EventModify {
		t.Errorf("source=%s kind=%s", ev.Source, ev.Kind)
	}
	if ev.Symbol != "MNQZ25" || ev.Quantity != 2 {
		t.Errorf("symbol=%q qty=%d", ev.Symbol, ev.Quantity)
	}

	// Unchanged snapshot: no event.
	if ev := s.scanOnce(); ev != nil {
		t.Fatalf("expected nil on unchanged snapshot, got %+v", ev)
	}

	// Only price changed: event carries price, not symbol.
	latest.Set(model.DOMSnapshot{Symbol: "MNQZ25", Price: dp("21460"), Quantity: 2})
	ev = s.scanOnce()
	if ev == nil {
		t.Fatal("expected event on price change")
	}
	if ev.Symbol != "" {
		t.Errorf("symbol should be empty for unchanged field, got %q", ev.Symbol)
	}
	if ev.Price == nil || !ev.Price.Equal(decimal.RequireFromString("21460")) {
		t.Errorf("price = %v", ev.Price)
	}
}

func TestScanOnce_SideOnlyWhenDefinitive(t *testing.T) {
	var latest LatestSnapshot
	s := NewScanner(&latest, 0)

	latest.Set(model.DOMSnapshot{Symbol: "ES", Side: ""})
	ev := s.scanOnce()
	if ev == nil {
		t.Fatal("expected event")
	}
	if ev.Side != "" {
		t.Errorf("side should be empty, got %q", ev.Side)
	}

	latest.Set(model.DOMSnapshot{Symbol: "ES", Side: model.SideShort})
	ev = s.scanOnce()
	if ev == nil || ev.Side != model.SideShort {
		t.Fatalf("expected short side event, got %+v", ev)
	}
}

type panickyProvider struct{}

func (panickyProvider) Snapshot() model.DOMSnapshot { panic("bad read") }

func TestScanOnce_RecoverFromPanic(t *testing.T) {
	s := NewScanner(panickyProvider{}, 0)
	if ev := s.scanOnce(); ev != nil {
		t.Fatalf("expected nil after recovered panic, got %+v", ev)
	}
}
