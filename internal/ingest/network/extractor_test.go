package network

import (
	"testing"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

func TestExtract_CreateLimitLong(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "POST",
		URL:    "https://userapi.example.com/Order",
		Body:   []byte(`{"accountId":8841,"symbolId":"F.US.MNQ","type":1,"limitPrice":21450.25,"positionSize":3}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev == nil {
		t.Fatal("expected an event")
	}
	if ev.Kind != model.EventCreate || ev.Source != model.SourceNetwork {
		t.Errorf("kind=%s source=%s", ev.Kind, ev.Source)
	}
	if ev.Symbol != "MNQ" {
		t.Errorf("symbol = %q, want MNQ", ev.Symbol)
	}
	if ev.OrderType != model.OrderLimit {
		t.Errorf("orderType = %q, want limit", ev.OrderType)
	}
	if ev.Price == nil || !ev.Price.Equal(decimal.RequireFromString("21450.25")) {
		t.Errorf("price = %v, want 21450.25", ev.Price)
	}
	if ev.Side != model.SideLong || ev.Quantity != 3 {
		t.Errorf("side=%s qty=%d, want long/3", ev.Side, ev.Quantity)
	}
	if ev.AccountID != "8841" {
		t.Errorf("accountId = %q, want 8841", ev.AccountID)
	}
}

func TestExtract_CreateStopShort(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "POST",
		URL:    "https://userapi.example.com/Order",
		Body:   []byte(`{"symbolId":"F.US.ES","type":4,"stopPrice":5850.00,"positionSize":-2}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.OrderType != model.OrderStop {
		t.Errorf("orderType = %q, want stop", ev.OrderType)
	}
	if ev.Side != model.SideShort || ev.Quantity != 2 {
		t.Errorf("side=%s qty=%d, want short/2", ev.Side, ev.Quantity)
	}
}

func TestExtract_CreateMarket(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "POST",
		URL:    "https://userapi.example.com/Order",
		Body:   []byte(`{"symbolId":"F.US.MNQ","type":2,"positionSize":1}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.OrderType != model.OrderMarket {
		t.Errorf("orderType = %q, want market", ev.OrderType)
	}
	if ev.Price != nil {
		t.Errorf("market order should carry no price, got %v", ev.Price)
	}
}

func TestExtract_ModifyLimitPriceFromURL(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "PATCH",
		URL:    "https://userapi.example.com/Order/edit/stopLimit/2074304743?limitPrice=25697.5",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev == nil {
		t.Fatal("expected an event")
	}
	if ev.Kind != model.EventModify {
		t.Errorf("kind = %s, want modify", ev.Kind)
	}
	if ev.OrderID != "2074304743" {
		t.Errorf("orderId = %q", ev.OrderID)
	}
	if ev.Price == nil || !ev.Price.Equal(decimal.RequireFromString("25697.5")) {
		t.Errorf("price = %v, want 25697.5", ev.Price)
	}
}

func TestExtract_ModifyStopPriceFromURL(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "PATCH",
		URL:    "https://userapi.example.com/Order/edit/stopLimit/555?stopPrice=21300.25",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev == nil || ev.Kind != model.EventModify {
		t.Fatalf("ev = %+v, want modify", ev)
	}
	if !ev.Price.Equal(decimal.RequireFromString("21300.25")) {
		t.Errorf("price = %v", ev.Price)
	}
}

func TestExtract_Cancel(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "DELETE",
		URL:    "https://userapi.example.com/Order/cancel/987",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != model.EventCancel || ev.OrderID != "987" {
		t.Errorf("ev = %+v, want cancel/987", ev)
	}
}

func TestExtract_GenericFieldFallbacks(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{
		Method: "POST",
		URL:    "https://other.example.com/api/placeorder",
		Body:   []byte(`{"instrument":"GCJ24","price":2375.4,"qty":5,"direction":"sell"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Symbol != "GCJ24" {
		t.Errorf("symbol = %q", ev.Symbol)
	}
	if ev.Side != model.SideShort || ev.Quantity != 5 {
		t.Errorf("side=%s qty=%d", ev.Side, ev.Quantity)
	}
}

func TestExtract_IgnoresUnrelatedCalls(t *testing.T) {
	x := NewExtractor()
	ev, err := x.Extract(CapturedCall{Method: "GET", URL: "https://cdn.example.com/app.js"})
	if err != nil {
		t.Fatal(err)
	}
	if ev != nil {
		t.Fatalf("expected nil event, got %+v", ev)
	}
}

func TestIsOrderEndpoint(t *testing.T) {
	if !IsOrderEndpoint("https://userapi.example.com/Order") {
		t.Error("platform order URL should match")
	}
	if !IsOrderEndpoint("https://x.example.com/api/modifyOrder") {
		t.Error("generic pattern should match")
	}
	if IsOrderEndpoint("https://x.example.com/quotes") {
		t.Error("quotes URL should not match")
	}
}
